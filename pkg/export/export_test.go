package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/frontscan/frontscan/pkg/analysis"
)

func sampleResults() []*analysis.Result {
	return []*analysis.Result{
		{
			RepoOwner:         "alphagov",
			RepoName:          "some-service",
			BuiltByGovernment: true,
			CreatedAt:         time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt:         time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			DirectDependencies: []analysis.DependencyRecord{
				{PackagePath: "package.json", SpecifiedVersion: "^4.0.0", ActualVersion: "4.7.0"},
			},
			IndirectDependencies: [][]analysis.DependencyRecord{},
			ErrorsThrown:         []string{},
			IsValid:              true,
		},
		{
			RepoOwner:          "alphagov",
			RepoName:           "other-service",
			DirectDependencies: []analysis.DependencyRecord{},
			IndirectDependencies: [][]analysis.DependencyRecord{
				{{PackagePath: "yarn.lock", SpecifiedVersion: "^4.5.0", ActualVersion: "4.7.0", Parent: "some-plugin@^2.0.0"}},
			},
			ErrorsThrown: []string{},
			IsValid:      true,
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	results := sampleResults()

	var buf bytes.Buffer
	if err := WriteJSON(results, &buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	first := buf.String()
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}

	var again bytes.Buffer
	if err := WriteJSON(got, &again); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	if again.String() != first {
		t.Errorf("round trip mismatch:\ngot:  %s\nwant: %s", again.String(), first)
	}
	if len(got) != 2 || got[0].RepoOwner != "alphagov" || got[0].DirectDependencies[0].ActualVersion != "4.7.0" {
		t.Errorf("decoded results = %+v", got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(sampleResults(), &buf); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("CSV lines = %d, want header plus 2 rows:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "repoOwner,repoName") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "4.7.0(^4.0.0)") {
		t.Errorf("direct row = %q, want flattened version(range)", lines[1])
	}
	if !strings.Contains(lines[2], "4.7.0(^4.5.0)") {
		t.Errorf("indirect row = %q", lines[2])
	}
}

func TestWriteCSVUnresolved(t *testing.T) {
	results := []*analysis.Result{{
		RepoOwner: "alphagov",
		RepoName:  "x",
		DirectDependencies: []analysis.DependencyRecord{
			{SpecifiedVersion: "^4.0.0", Unresolved: true},
		},
	}}

	var buf bytes.Buffer
	if err := WriteCSV(results, &buf); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}
	if !strings.Contains(buf.String(), "?(^4.0.0)") {
		t.Errorf("unresolved record should render as ?(range):\n%s", buf.String())
	}
}

func TestFileSinkWritesNumberedFlushes(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink() error: %v", err)
	}

	ctx := context.Background()
	if err := sink.Write(ctx, sampleResults()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := sink.Write(ctx, sampleResults()[:1]); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	jsons, _ := filepath.Glob(filepath.Join(dir, "results-*.json"))
	csvs, _ := filepath.Glob(filepath.Join(dir, "results-*.csv"))
	if len(jsons) != 2 || len(csvs) != 2 {
		t.Fatalf("files = %v %v, want 2 JSON and 2 CSV", jsons, csvs)
	}

	// Flushes are numbered and carry the run ID.
	base := filepath.Base(jsons[0])
	if !strings.Contains(base, sink.RunID()) || !strings.HasSuffix(base, "-000.json") {
		t.Errorf("first flush filename = %q", base)
	}

	got, err := ReadJSONFile(jsons[0])
	if err != nil {
		t.Fatalf("ReadJSONFile() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("first flush holds %d results, want 2", len(got))
	}
}

func TestMultiSink(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	a, err := NewFileSink(dir1)
	if err != nil {
		t.Fatalf("NewFileSink() error: %v", err)
	}
	b, err := NewFileSink(dir2)
	if err != nil {
		t.Fatalf("NewFileSink() error: %v", err)
	}

	m := MultiSink{a, b}
	if err := m.Write(context.Background(), sampleResults()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	for _, dir := range []string{dir1, dir2} {
		entries, _ := os.ReadDir(dir)
		if len(entries) != 2 {
			t.Errorf("dir %s holds %d files, want 2", dir, len(entries))
		}
	}
}
