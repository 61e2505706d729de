// Package export writes analysis results to disk as flushes of JSON
// and CSV files. Each batch run gets a unique run ID so successive
// flushes never clobber each other.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/frontscan/frontscan/pkg/analysis"
)

// WriteJSON encodes results as indented JSON and writes them to w.
// The output can be re-read with [ReadJSON] for reporting.
func WriteJSON(results []*analysis.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a result file previously written by [WriteJSON].
func ReadJSON(r io.Reader) ([]*analysis.Result, error) {
	var results []*analysis.Result
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return results, nil
}

// ReadJSONFile is a convenience wrapper around [ReadJSON] for
// file-based input.
func ReadJSONFile(path string) ([]*analysis.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

var csvHeader = []string{
	"repoOwner", "repoName", "builtByGovernment", "isPrototype",
	"createdAt", "updatedAt", "directDependencies", "indirectDependencies",
	"unknownLockFileType", "couldntAccess", "isValid",
}

// WriteCSV writes one row per result with a summary of its dependency
// findings. Direct and indirect records are flattened to
// "version(specifier)" pairs joined by "; ".
func WriteCSV(results []*analysis.Result, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.RepoOwner,
			r.RepoName,
			strconv.FormatBool(r.BuiltByGovernment),
			strconv.FormatBool(r.IsPrototype),
			r.CreatedAt.Format("2006-01-02"),
			r.UpdatedAt.Format("2006-01-02"),
			flattenRecords(r.DirectDependencies),
			flattenNested(r.IndirectDependencies),
			strconv.FormatBool(r.UnknownLockFileType),
			strconv.FormatBool(r.CouldntAccess),
			strconv.FormatBool(r.IsValid),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s/%s: %w", r.RepoOwner, r.RepoName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func flattenRecords(recs []analysis.DependencyRecord) string {
	parts := make([]string, 0, len(recs))
	for _, rec := range recs {
		v := rec.ActualVersion
		if rec.Unresolved {
			v = "?"
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", v, rec.SpecifiedVersion))
	}
	return strings.Join(parts, "; ")
}

func flattenNested(groups [][]analysis.DependencyRecord) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, flattenRecords(g))
	}
	return strings.Join(parts, " | ")
}

// FileSink implements [analysis.Sink] by appending each flush to
// numbered JSON and CSV files under a directory.
type FileSink struct {
	dir   string
	runID string

	mu    sync.Mutex
	flush int
}

// NewFileSink creates the output directory if needed and returns a
// sink writing into it.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	return &FileSink{dir: dir, runID: uuid.NewString()[:8]}, nil
}

// RunID identifies this run in the emitted filenames.
func (s *FileSink) RunID() string { return s.runID }

// Write persists one flush of results as both JSON and CSV.
func (s *FileSink) Write(_ context.Context, results []*analysis.Result) error {
	s.mu.Lock()
	n := s.flush
	s.flush++
	s.mu.Unlock()

	base := fmt.Sprintf("results-%s-%03d", s.runID, n)
	if err := writeFile(filepath.Join(s.dir, base+".json"), results, WriteJSON); err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, base+".csv"), results, WriteCSV)
}

func writeFile(path string, results []*analysis.Result, write func([]*analysis.Result, io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(results, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MultiSink fans a flush out to several sinks in order.
type MultiSink []analysis.Sink

// Write forwards results to every sink, stopping at the first error.
func (m MultiSink) Write(ctx context.Context, results []*analysis.Result) error {
	for _, s := range m {
		if err := s.Write(ctx, results); err != nil {
			return err
		}
	}
	return nil
}
