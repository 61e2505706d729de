package analysis

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/frontscan/frontscan/pkg/observability"
)

// DefaultBatchSize is how many results accumulate before a flush when no
// size is configured.
const DefaultBatchSize = 100

// Sink receives flushed result batches. Implementations include the
// JSON/CSV exporters and the MongoDB store.
type Sink interface {
	Write(ctx context.Context, results []*Result) error
}

// RunStats summarizes a completed (or interrupted) batch run.
type RunStats struct {
	Candidates int `json:"candidates"`
	Processed  int `json:"processed"`
	Denied     int `json:"denied"`
	Failed     int `json:"failed"` // results marked CouldntAccess
}

// Driver iterates a candidate repository list sequentially, buffering
// results and flushing them to a sink in batches.
//
// Processing is deliberately not concurrent: the upstream API enforces a
// shared rate budget, and a single in-flight analysis throttles the
// crawler to it instead of triggering abuse-detection backoff.
type Driver struct {
	analyzer  *Analyzer
	sink      Sink
	batchSize int
	logger    *log.Logger

	processed []bool
	denied    []bool
}

// NewDriver creates a Driver. A batchSize below 1 uses DefaultBatchSize;
// a nil logger uses the default logger.
func NewDriver(analyzer *Analyzer, sink Sink, batchSize int, logger *log.Logger) *Driver {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Driver{analyzer: analyzer, sink: sink, batchSize: batchSize, logger: logger}
}

// Run analyzes every candidate in order. Repository N+1 does not start
// until repository N reached a terminal state. The flush to the sink is
// synchronous so on-disk state stays deterministic. Run stops early only
// on context cancellation, a sink failure, or a programmer error from
// the analyzer.
func (d *Driver) Run(ctx context.Context, repos []RepoRef) (*RunStats, error) {
	d.processed = make([]bool, len(repos))
	d.denied = make([]bool, len(repos))
	stats := &RunStats{Candidates: len(repos)}

	buf := make([]*Result, 0, d.batchSize)
	flush := func() error {
		if len(buf) == 0 || d.sink == nil {
			return nil
		}
		err := d.sink.Write(ctx, buf)
		observability.Crawl().OnFlush(ctx, len(buf), err)
		if err != nil {
			return err
		}
		d.logger.Debug("flushed batch", "results", len(buf))
		buf = buf[:0]
		return nil
	}

	for i, repo := range repos {
		if err := ctx.Err(); err != nil {
			if ferr := flush(); ferr != nil {
				return stats, ferr
			}
			return stats, err
		}

		observability.Crawl().OnRepoStart(ctx, repo.Owner, repo.Name)
		start := time.Now()
		res, err := d.analyzer.Analyze(ctx, repo)
		if err != nil {
			// Unrecognized failure category: let it crash the run.
			return stats, err
		}
		if res == nil {
			d.denied[i] = true
			stats.Denied++
			continue
		}

		d.processed[i] = true
		stats.Processed++
		observability.Crawl().OnRepoComplete(ctx, repo.Owner, repo.Name, res.IsValid, time.Since(start))
		if res.CouldntAccess {
			stats.Failed++
		}
		d.logger.Info("analyzed repository",
			"repo", repo.String(),
			"direct", len(res.DirectDependencies),
			"indirect", len(res.IndirectDependencies),
			"valid", res.IsValid)

		buf = append(buf, res)
		if len(buf) >= d.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	return stats, flush()
}

// Unprocessed derives the accuracy-audit list: candidates that were
// neither analyzed nor deny-listed (e.g. because the run was cut short).
func (d *Driver) Unprocessed(repos []RepoRef) []RepoRef {
	var out []RepoRef
	for i, repo := range repos {
		if i >= len(d.processed) || (!d.processed[i] && !d.denied[i]) {
			out = append(out, repo)
		}
	}
	return out
}
