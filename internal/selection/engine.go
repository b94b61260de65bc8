// Package selection picks the single winning evaluation for each
// (agent, model, canonical benchmark) triple.
//
// Jobs are merged across a canonical benchmark and all of its duplicates and
// then ordered by the threshold rule: jobs above Threshold percent accuracy
// come first, earliest first; if none clears it, the earliest job overall
// wins. Near-zero accuracy almost always means a crashed or empty run.
package selection

import (
	"sort"

	"github.com/sells-group/leaderboard/internal/canon"
	"github.com/sells-group/leaderboard/internal/model"
)

// Threshold is the accuracy cutoff in percentage points.
const Threshold = 1.0

// MeetsThreshold reports whether the job's accuracy is strictly above
// Threshold. Jobs without an accuracy metric never meet it.
func MeetsThreshold(j model.EvaluationJob) bool {
	acc := j.AccuracyPct()
	return acc != nil && *acc > Threshold
}

func bucket(j model.EvaluationJob) int {
	if MeetsThreshold(j) {
		return 0
	}
	return 1
}

// Less orders jobs by threshold bucket, then effective timestamp, then id.
func Less(a, b model.EvaluationJob) bool {
	if ba, bb := bucket(a), bucket(b); ba != bb {
		return ba < bb
	}
	ta, tb := a.EffectiveAt(), b.EffectiveAt()
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return a.ID < b.ID
}

// Select returns the winning job of a pool. It reports false for an empty pool.
func Select(pool []model.EvaluationJob) (model.EvaluationJob, bool) {
	if len(pool) == 0 {
		return model.EvaluationJob{}, false
	}
	best := pool[0]
	for _, j := range pool[1:] {
		if Less(j, best) {
			best = j
		}
	}
	return best, true
}

// Grouping selects which benchmarks feed a pool.
type Grouping struct {
	BenchmarkID string
	Canonical   bool
}

// Exact groups only jobs run on exactly this benchmark.
func Exact(benchmarkID string) Grouping {
	return Grouping{BenchmarkID: benchmarkID}
}

// Canonical groups jobs on the canonical benchmark and all its duplicates.
func Canonical(canonicalBenchmarkID string) Grouping {
	return Grouping{BenchmarkID: canonicalBenchmarkID, Canonical: true}
}

type poolKey struct {
	agentID     string
	modelID     string
	benchmarkID string
}

// SkippedJob is a job dropped because it references an unknown entity.
type SkippedJob struct {
	JobID  string `json:"job_id"`
	Entity string `json:"entity"`
	Target string `json:"target"`
}

// Engine indexes the jobs of one snapshot for pool lookups.
type Engine struct {
	resolver *canon.Resolver
	agents   map[string]model.Agent

	byExact    map[poolKey][]model.EvaluationJob
	byModelBen map[poolKey][]model.EvaluationJob
	triples    []poolKey
	skipped    []SkippedJob
}

// NewEngine indexes jobs. Jobs without metrics, or pointing at unknown agents,
// models, or benchmarks, are left out.
func NewEngine(snap *model.Snapshot, resolver *canon.Resolver) *Engine {
	e := &Engine{
		resolver:   resolver,
		agents:     make(map[string]model.Agent, len(snap.Agents)),
		byExact:    make(map[poolKey][]model.EvaluationJob),
		byModelBen: make(map[poolKey][]model.EvaluationJob),
	}
	for _, a := range snap.Agents {
		e.agents[a.ID] = a
	}

	seen := make(map[poolKey]bool)
	for _, j := range snap.Jobs {
		if len(j.Metrics) == 0 {
			continue
		}
		if _, ok := e.agents[j.AgentID]; !ok {
			e.skipped = append(e.skipped, SkippedJob{JobID: j.ID, Entity: "agent", Target: j.AgentID})
			continue
		}
		if _, ok := resolver.Model(j.ModelID); !ok {
			e.skipped = append(e.skipped, SkippedJob{JobID: j.ID, Entity: "model", Target: j.ModelID})
			continue
		}
		if _, ok := resolver.Benchmark(j.BenchmarkID); !ok {
			e.skipped = append(e.skipped, SkippedJob{JobID: j.ID, Entity: "benchmark", Target: j.BenchmarkID})
			continue
		}

		exact := poolKey{agentID: j.AgentID, modelID: j.ModelID, benchmarkID: j.BenchmarkID}
		e.byExact[exact] = append(e.byExact[exact], j)

		modelBen := poolKey{modelID: j.ModelID, benchmarkID: j.BenchmarkID}
		e.byModelBen[modelBen] = append(e.byModelBen[modelBen], j)

		triple := poolKey{agentID: j.AgentID, modelID: j.ModelID, benchmarkID: resolver.CanonicalBenchmarkID(j.BenchmarkID)}
		if !seen[triple] {
			seen[triple] = true
			e.triples = append(e.triples, triple)
		}
	}
	return e
}

// Pool returns the merge pool for a model and benchmark grouping. An empty
// agentID pools jobs from every agent.
func (e *Engine) Pool(agentID, modelID string, g Grouping) []model.EvaluationJob {
	ids := []string{g.BenchmarkID}
	if g.Canonical {
		ids = e.resolver.DuplicatesOf(g.BenchmarkID)
	}

	var pool []model.EvaluationJob
	for _, bid := range ids {
		if agentID == "" {
			pool = append(pool, e.byModelBen[poolKey{modelID: modelID, benchmarkID: bid}]...)
			continue
		}
		pool = append(pool, e.byExact[poolKey{agentID: agentID, modelID: modelID, benchmarkID: bid}]...)
	}
	return pool
}

// SelectFor runs the threshold rule over the pool for (agentID, modelID, g).
func (e *Engine) SelectFor(agentID, modelID string, g Grouping) (model.EvaluationJob, bool) {
	return Select(e.Pool(agentID, modelID, g))
}

// Results returns one CanonicalResult per observed triple, sorted by agent,
// model, and canonical benchmark name. Base-model fields are left empty.
func (e *Engine) Results() []model.CanonicalResult {
	out := make([]model.CanonicalResult, 0, len(e.triples))
	for _, t := range e.triples {
		pool := e.Pool(t.agentID, t.modelID, Canonical(t.benchmarkID))
		winner, ok := Select(pool)
		if !ok {
			continue
		}

		agent := e.agents[t.agentID]
		m, _ := e.resolver.Model(t.modelID)
		cb, _ := e.resolver.Benchmark(t.benchmarkID)
		src, _ := e.resolver.Benchmark(winner.BenchmarkID)

		out = append(out, model.CanonicalResult{
			AgentID:                agent.ID,
			AgentName:              agent.Name,
			ModelID:                m.ID,
			ModelName:              m.Name,
			CanonicalBenchmarkID:   t.benchmarkID,
			CanonicalBenchmarkName: cb.Name,
			SourceBenchmarkID:      src.ID,
			SourceBenchmarkName:    src.Name,
			JobID:                  winner.ID,
			Accuracy:               winner.AccuracyPct(),
			Stderr:                 winner.StderrPct(),
			TraceLink:              winner.TraceLink,
			EndedAt:                winner.EffectiveAt(),
			PoolSize:               len(pool),
			MeetsThreshold:         MeetsThreshold(winner),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AgentName != b.AgentName {
			return a.AgentName < b.AgentName
		}
		if a.ModelName != b.ModelName {
			return a.ModelName < b.ModelName
		}
		return a.CanonicalBenchmarkName < b.CanonicalBenchmarkName
	})
	return out
}

// Skipped returns jobs dropped for dangling references.
func (e *Engine) Skipped() []SkippedJob {
	return e.skipped
}
