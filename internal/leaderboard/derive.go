// Package leaderboard turns one store snapshot into flat results, pivoted
// rows, and benchmark groups.
package leaderboard

import (
	"go.uber.org/zap"

	"github.com/sells-group/leaderboard/internal/baseline"
	"github.com/sells-group/leaderboard/internal/canon"
	"github.com/sells-group/leaderboard/internal/model"
	"github.com/sells-group/leaderboard/internal/pivot"
	"github.com/sells-group/leaderboard/internal/selection"
)

// Derivation is the read-only outcome of deriving one snapshot. It is safe
// to share between requests.
type Derivation struct {
	Snapshot  *model.Snapshot
	Watermark model.Watermark
	Resolver  *canon.Resolver
	Results   []model.CanonicalResult
	Skipped   []selection.SkippedJob
}

// Derive canonicalizes the snapshot, selects one result per triple, and
// annotates each result with its base-model accuracies. Unresolvable
// references and dangling jobs are logged, never returned as errors.
func Derive(snap *model.Snapshot) *Derivation {
	resolver := canon.NewResolver(snap.Models, snap.Benchmarks)
	engine := selection.NewEngine(snap, resolver)

	results := engine.Results()
	baseline.NewResolver(engine, resolver).Annotate(results)

	d := &Derivation{
		Snapshot: snap,
		Resolver: resolver,
		Results:  results,
		Skipped:  engine.Skipped(),
	}
	d.logIssues()
	return d
}

func (d *Derivation) logIssues() {
	log := zap.L().With(zap.String("component", "leaderboard"))
	for _, is := range d.Resolver.Issues() {
		log.Warn("unresolvable reference",
			zap.String("kind", string(is.Kind)),
			zap.String("entity", is.Entity),
			zap.String("id", is.ID),
			zap.String("target", is.Target),
		)
	}
	for _, s := range d.Skipped {
		log.Warn("skipping evaluation job with unknown reference",
			zap.String("job_id", s.JobID),
			zap.String("entity", s.Entity),
			zap.String("target", s.Target),
		)
	}
}

// Pivot builds leaderboard rows for the given duplicate-display toggles.
func (d *Derivation) Pivot(opts pivot.Options) []model.PivotedRow {
	return pivot.Aggregate(d.Results, d.Snapshot.Models, d.Snapshot.Agents, d.Resolver, opts)
}

// Fallbacks counts results whose selected job did not clear the threshold.
func (d *Derivation) Fallbacks() int {
	n := 0
	for _, r := range d.Results {
		if !r.MeetsThreshold {
			n++
		}
	}
	return n
}
