package analysis

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// recordingSink captures every flush it receives.
type recordingSink struct {
	flushes [][]string
	err     error
}

func (s *recordingSink) Write(_ context.Context, results []*Result) error {
	if s.err != nil {
		return s.err
	}
	var names []string
	for _, r := range results {
		names = append(names, r.RepoOwner+"/"+r.RepoName)
	}
	s.flushes = append(s.flushes, names)
	return nil
}

func batchFixture(t *testing.T, denied ...RepoRef) (*Analyzer, *fakeClient) {
	t.Helper()
	c := newFakeClient()
	c.tree = []string{"package.json"}
	c.files["package.json"] = `{"dependencies": {"govuk-frontend": "4.7.0"}}`
	return newTestAnalyzer(c, Options{DenyList: denied}), c
}

func repoList(names ...string) []RepoRef {
	out := make([]RepoRef, len(names))
	for i, n := range names {
		out[i] = RepoRef{Owner: "alphagov", Name: n}
	}
	return out
}

func TestDriverFlushesEveryBatch(t *testing.T) {
	a, _ := batchFixture(t)
	sink := &recordingSink{}
	d := NewDriver(a, sink, 2, quietLogger())

	repos := repoList("one", "two", "three", "four", "five")
	stats, err := d.Run(context.Background(), repos)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if stats.Processed != 5 || stats.Candidates != 5 {
		t.Errorf("stats = %+v, want 5 processed of 5", stats)
	}
	want := [][]string{
		{"alphagov/one", "alphagov/two"},
		{"alphagov/three", "alphagov/four"},
		{"alphagov/five"},
	}
	if !reflect.DeepEqual(sink.flushes, want) {
		t.Errorf("flushes = %v, want %v", sink.flushes, want)
	}
}

func TestDriverSkipsDenied(t *testing.T) {
	deny := RepoRef{Owner: "alphagov", Name: "two"}
	a, _ := batchFixture(t, deny)
	sink := &recordingSink{}
	d := NewDriver(a, sink, 10, quietLogger())

	stats, err := d.Run(context.Background(), repoList("one", "two", "three"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.Processed != 2 || stats.Denied != 1 {
		t.Errorf("stats = %+v, want 2 processed, 1 denied", stats)
	}
	want := [][]string{{"alphagov/one", "alphagov/three"}}
	if !reflect.DeepEqual(sink.flushes, want) {
		t.Errorf("flushes = %v, want %v", sink.flushes, want)
	}
}

func TestDriverUnprocessedAfterCancellation(t *testing.T) {
	a, _ := batchFixture(t)
	sink := &recordingSink{}
	d := NewDriver(a, sink, 10, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repos := repoList("one", "two")
	_, err := d.Run(ctx, repos)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	rest := d.Unprocessed(repos)
	if !reflect.DeepEqual(rest, repos) {
		t.Errorf("Unprocessed() = %v, want every candidate", rest)
	}
}

func TestDriverUnprocessedEmptyAfterFullRun(t *testing.T) {
	a, _ := batchFixture(t)
	d := NewDriver(a, &recordingSink{}, 10, quietLogger())

	repos := repoList("one", "two")
	if _, err := d.Run(context.Background(), repos); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if rest := d.Unprocessed(repos); len(rest) != 0 {
		t.Errorf("Unprocessed() = %v, want empty", rest)
	}
}

func TestDriverSinkFailureStopsRun(t *testing.T) {
	a, _ := batchFixture(t)
	sink := &recordingSink{err: errors.New("disk full")}
	d := NewDriver(a, sink, 1, quietLogger())

	_, err := d.Run(context.Background(), repoList("one", "two"))
	if err == nil {
		t.Fatal("Run() should surface the sink failure")
	}
}

func TestDriverFailedCountsInaccessible(t *testing.T) {
	c := newFakeClient()
	c.metaErr = errors.New("403")
	a := newTestAnalyzer(c, Options{})
	d := NewDriver(a, &recordingSink{}, 10, quietLogger())

	stats, err := d.Run(context.Background(), repoList("one"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.Processed != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want the inaccessible repo processed and counted failed", stats)
	}
}
