package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/frontscan/frontscan/pkg/analysis"
)

func TestReadRepoList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.txt")
	content := `# seeded from the service registry
alphagov/smart-answers

alphagov/collections
  alphagov/whitehall
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write list: %v", err)
	}

	got, err := readRepoList(path)
	if err != nil {
		t.Fatalf("readRepoList() error: %v", err)
	}
	want := []analysis.RepoRef{
		{Owner: "alphagov", Name: "smart-answers"},
		{Owner: "alphagov", Name: "collections"},
		{Owner: "alphagov", Name: "whitehall"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("readRepoList() = %v, want %v", got, want)
	}
}

func TestReadRepoListRejectsBadRefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.txt")
	if err := os.WriteFile(path, []byte("not-a-ref\n"), 0o644); err != nil {
		t.Fatalf("write list: %v", err)
	}
	if _, err := readRepoList(path); err == nil {
		t.Error("readRepoList() should reject lines without owner/repo form")
	}
}

func TestReadRepoListMissingFile(t *testing.T) {
	if _, err := readRepoList(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("readRepoList() should fail for a missing file")
	}
}

func TestFormatDate(t *testing.T) {
	if got := formatDate(time.Time{}); got != "unknown" {
		t.Errorf("formatDate(zero) = %q, want unknown", got)
	}
	d := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	if got := formatDate(d); got != "2024-06-01" {
		t.Errorf("formatDate() = %q, want 2024-06-01", got)
	}
}
