package baseline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leaderboard/internal/canon"
	"github.com/sells-group/leaderboard/internal/model"
	"github.com/sells-group/leaderboard/internal/selection"
)

func ptr(s string) *string { return &s }

func job(id, agent, mdl, bench string, ended int64, acc float64) model.EvaluationJob {
	t := time.Unix(ended, 0).UTC()
	return model.EvaluationJob{
		ID: id, AgentID: agent, ModelID: mdl, BenchmarkID: bench,
		Metrics: []model.Metric{model.NewMetric(model.MetricAccuracy, acc)},
		EndedAt: &t,
	}
}

// fixture: ft is fine-tuned from base-dup, which duplicates base.
// b2 duplicates b1.
func fixture(jobs ...model.EvaluationJob) (*selection.Engine, *canon.Resolver) {
	snap := &model.Snapshot{
		Agents: []model.Agent{{ID: "a1", Name: "A1"}, {ID: "a2", Name: "A2"}},
		Models: []model.Model{
			{ID: "base", Name: "base"},
			{ID: "base-dup", Name: "base-dup", DuplicateOf: ptr("base")},
			{ID: "ft", Name: "ft", BaseModelID: ptr("base-dup")},
			{ID: "orphan", Name: "orphan", BaseModelID: ptr("missing")},
		},
		Benchmarks: []model.Benchmark{
			{ID: "b1", Name: "B1"},
			{ID: "b2", Name: "B2", DuplicateOf: ptr("b1")},
		},
		Jobs: jobs,
	}
	r := canon.NewResolver(snap.Models, snap.Benchmarks)
	return selection.NewEngine(snap, r), r
}

func resultFor(t *testing.T, e *selection.Engine, modelName string) model.CanonicalResult {
	t.Helper()
	for _, r := range e.Results() {
		if r.ModelName == modelName {
			return r
		}
	}
	t.Fatalf("no result for %s", modelName)
	return model.CanonicalResult{}
}

func TestResolve_FourVariants(t *testing.T) {
	e, r := fixture(
		job("ft-b2", "a1", "ft", "b2", 100, 0.60),
		job("dup-b2", "a1", "base-dup", "b2", 100, 0.20),
		job("dup-b1", "a1", "base-dup", "b1", 50, 0.25),
		job("base-b2", "a2", "base", "b2", 100, 0.30),
		job("base-b1", "a1", "base", "b1", 10, 0.35),
	)
	res := resultFor(t, e, "ft")
	require.Equal(t, "b2", res.SourceBenchmarkID)

	id, name, acc := NewResolver(e, r).Resolve(res)
	assert.Equal(t, "base-dup", id)
	assert.Equal(t, "base-dup", name)

	// base-dup on exactly b2.
	require.NotNil(t, acc.BaseModel)
	assert.InDelta(t, 20.0, *acc.BaseModel, 1e-9)
	// base-dup across b1+b2: earliest passing is dup-b1 at t=50.
	require.NotNil(t, acc.CanonicalBenchmarkBaseModel)
	assert.InDelta(t, 25.0, *acc.CanonicalBenchmarkBaseModel, 1e-9)
	// canonical base on exactly b2, from another agent.
	require.NotNil(t, acc.CanonicalBaseModel)
	assert.InDelta(t, 30.0, *acc.CanonicalBaseModel, 1e-9)
	// canonical base across b1+b2: base-b1 at t=10.
	require.NotNil(t, acc.CanonicalBothBaseModel)
	assert.InDelta(t, 35.0, *acc.CanonicalBothBaseModel, 1e-9)
}

func TestResolve_FoundationModelHasNoBase(t *testing.T) {
	e, r := fixture(job("base-b1", "a1", "base", "b1", 10, 0.35))
	res := resultFor(t, e, "base")

	id, name, acc := NewResolver(e, r).Resolve(res)
	assert.Empty(t, id)
	assert.Empty(t, name)
	assert.Equal(t, model.BaseAccuracies{}, acc)
}

func TestResolve_UnresolvableBaseIsAbsent(t *testing.T) {
	e, r := fixture(job("o", "a1", "orphan", "b1", 10, 0.35))
	_, name, acc := NewResolver(e, r).Resolve(resultFor(t, e, "orphan"))
	assert.Empty(t, name)
	assert.Equal(t, model.BaseAccuracies{}, acc)
}

func TestResolve_NoBaseJobsIsAbsentNotZero(t *testing.T) {
	e, r := fixture(job("ft-b1", "a1", "ft", "b1", 100, 0.60))
	_, name, acc := NewResolver(e, r).Resolve(resultFor(t, e, "ft"))
	assert.Equal(t, "base-dup", name)
	assert.Nil(t, acc.BaseModel)
	assert.Nil(t, acc.CanonicalBenchmarkBaseModel)
	assert.Nil(t, acc.CanonicalBaseModel)
	assert.Nil(t, acc.CanonicalBothBaseModel)
}

func TestResolve_BaseUsesThresholdRule(t *testing.T) {
	e, r := fixture(
		job("ft-b1", "a1", "ft", "b1", 100, 0.60),
		job("glitch", "a1", "base-dup", "b1", 10, 0.001),
		job("real", "a1", "base-dup", "b1", 20, 0.42),
	)
	_, _, acc := NewResolver(e, r).Resolve(resultFor(t, e, "ft"))
	require.NotNil(t, acc.BaseModel)
	assert.InDelta(t, 42.0, *acc.BaseModel, 1e-9)
}

func TestAnnotate(t *testing.T) {
	e, r := fixture(
		job("ft-b1", "a1", "ft", "b1", 100, 0.60),
		job("base-b1", "a1", "base", "b1", 10, 0.35),
	)
	results := e.Results()
	NewResolver(e, r).Annotate(results)

	for _, res := range results {
		switch res.ModelName {
		case "ft":
			assert.Equal(t, "base-dup", res.BaseModelName)
			assert.Nil(t, res.BaseAccuracies.BaseModel)
			require.NotNil(t, res.BaseAccuracies.CanonicalBothBaseModel)
			assert.InDelta(t, 35.0, *res.BaseAccuracies.CanonicalBothBaseModel, 1e-9)
		case "base":
			assert.Empty(t, res.BaseModelName)
		}
	}
}

func TestResolve_NullBaseAccuracyIsAbsent(t *testing.T) {
	nullBase := model.EvaluationJob{
		ID: "base-b1", AgentID: "a1", ModelID: "base", BenchmarkID: "b1",
		Metrics: []model.Metric{{Name: model.MetricAccuracy}},
	}
	e, r := fixture(job("ft-b1", "a1", "ft", "b1", 100, 0.60), nullBase)

	_, _, acc := NewResolver(e, r).Resolve(resultFor(t, e, "ft"))
	assert.Nil(t, acc.CanonicalBaseModel)
	assert.Nil(t, acc.CanonicalBothBaseModel)
}

func TestResolve_BasePoolSpansAgents(t *testing.T) {
	e, r := fixture(
		job("ft-b1", "a1", "ft", "b1", 100, 0.60),
		job("dup-b1", "a2", "base-dup", "b1", 50, 0.25),
	)
	res := resultFor(t, e, "ft")
	require.Equal(t, "a1", res.AgentID)

	_, _, acc := NewResolver(e, r).Resolve(res)
	require.NotNil(t, acc.BaseModel)
	assert.InDelta(t, 25.0, *acc.BaseModel, 1e-9)
}
