package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leaderboard/internal/canon"
	"github.com/sells-group/leaderboard/internal/model"
	"github.com/sells-group/leaderboard/internal/selection"
	"github.com/sells-group/leaderboard/internal/store"
)

// Snapshot is a point-in-time view of evaluation data quality.
type Snapshot struct {
	// Jobs with a non-empty metrics list.
	Jobs                int     `json:"jobs" yaml:"jobs"`
	JobsMissingAccuracy int     `json:"jobs_missing_accuracy" yaml:"jobs_missing_accuracy"`
	JobsMissingStderr   int     `json:"jobs_missing_stderr" yaml:"jobs_missing_stderr"`
	GlitchyJobs         int     `json:"glitchy_jobs" yaml:"glitchy_jobs"`
	GlitchRate          float64 `json:"glitch_rate" yaml:"glitch_rate"`

	// Selection outcomes.
	Triples            int `json:"triples" yaml:"triples"`
	FallbackSelections int `json:"fallback_selections" yaml:"fallback_selections"`

	// Reference integrity.
	UnresolvedReferences int                    `json:"unresolved_references" yaml:"unresolved_references"`
	DanglingJobs         int                    `json:"dangling_jobs" yaml:"dangling_jobs"`
	Issues               []canon.Issue          `json:"issues,omitempty" yaml:"issues,omitempty"`
	Skipped              []selection.SkippedJob `json:"skipped_jobs,omitempty" yaml:"skipped_jobs,omitempty"`

	// Catalog shape.
	Models              int `json:"models" yaml:"models"`
	ZeroEvalModels      int `json:"zero_eval_models" yaml:"zero_eval_models"`
	DuplicateModels     int `json:"duplicate_models" yaml:"duplicate_models"`
	DuplicateBenchmarks int `json:"duplicate_benchmarks" yaml:"duplicate_benchmarks"`

	CollectedAt time.Time `json:"collected_at" yaml:"collected_at"`
}

// Assess computes a quality snapshot from one store snapshot.
func Assess(snap *model.Snapshot) *Snapshot {
	resolver := canon.NewResolver(snap.Models, snap.Benchmarks)
	engine := selection.NewEngine(snap, resolver)
	results := engine.Results()

	q := &Snapshot{
		Triples:              len(results),
		UnresolvedReferences: len(resolver.Issues()),
		DanglingJobs:         len(engine.Skipped()),
		Issues:               resolver.Issues(),
		Skipped:              engine.Skipped(),
		Models:               len(snap.Models),
		CollectedAt:          time.Now().UTC(),
	}

	var withAccuracy int
	for _, j := range snap.Jobs {
		if len(j.Metrics) == 0 {
			continue
		}
		q.Jobs++
		if j.AccuracyPct() == nil {
			q.JobsMissingAccuracy++
		} else {
			withAccuracy++
			if !selection.MeetsThreshold(j) {
				q.GlitchyJobs++
			}
		}
		if j.StderrPct() == nil {
			q.JobsMissingStderr++
		}
	}
	if withAccuracy > 0 {
		q.GlitchRate = float64(q.GlitchyJobs) / float64(withAccuracy)
	}

	evaluated := make(map[string]bool, len(results))
	for _, r := range results {
		evaluated[r.ModelID] = true
		if !r.MeetsThreshold {
			q.FallbackSelections++
		}
	}

	for _, m := range snap.Models {
		if !evaluated[m.ID] {
			q.ZeroEvalModels++
		}
		if resolver.IsDuplicateModel(m.ID) {
			q.DuplicateModels++
		}
	}
	for _, b := range snap.Benchmarks {
		if resolver.CanonicalBenchmarkID(b.ID) != b.ID {
			q.DuplicateBenchmarks++
		}
	}
	return q
}

// Collector reads a fresh store snapshot and assesses it.
type Collector struct {
	reader store.Reader
	opts   store.LoadOptions
}

// NewCollector creates a new quality collector.
func NewCollector(r store.Reader, opts store.LoadOptions) *Collector {
	return &Collector{reader: r, opts: opts}
}

// Collect loads the store and returns its quality snapshot.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	snap, err := store.LoadSnapshot(ctx, c.reader, c.opts)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: load snapshot")
	}
	return Assess(snap), nil
}
