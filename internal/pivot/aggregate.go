// Package pivot groups canonical results into (model, agent) rows with one
// column per canonical benchmark and computes improvement over the base
// model.
package pivot

import (
	"sort"
	"time"

	"github.com/sells-group/leaderboard/internal/canon"
	"github.com/sells-group/leaderboard/internal/model"
)

// Options controls which base-accuracy variant improvement uses.
type Options struct {
	ShowDupModels     bool `json:"show_dup_models"`
	ShowDupBenchmarks bool `json:"show_dup_benchmarks"`
}

type rowKey struct {
	model string
	agent string
}

// Aggregate pivots annotated results into rows and appends one empty row per
// model that has no results at all. Rows are sorted by model name, then agent
// name.
func Aggregate(results []model.CanonicalResult, models []model.Model, agents []model.Agent, resolver *canon.Resolver, opts Options) []model.PivotedRow {
	src := SourceFor(opts.ShowDupModels, opts.ShowDupBenchmarks)

	rows := make(map[rowKey]*model.PivotedRow)
	evaluated := make(map[string]bool)

	for _, r := range results {
		evaluated[r.ModelID] = true

		key := rowKey{model: r.ModelName, agent: r.AgentName}
		row, ok := rows[key]
		if !ok {
			row = newRow(r.ModelID, r.ModelName, resolver)
			row.AgentName = r.AgentName
			row.HasEvaluations = true
			row.BaseModelName = r.BaseModelName
			rows[key] = row
		}

		row.Benchmarks[r.CanonicalBenchmarkName] = model.BenchmarkCell{
			Accuracy:             r.Accuracy,
			Stderr:               r.Stderr,
			TraceLink:            r.TraceLink,
			EndedAt:              r.EndedAt,
			JobID:                r.JobID,
			CanonicalBenchmark:   r.CanonicalBenchmarkName,
			SourceBenchmark:      r.SourceBenchmarkName,
			IsDuplicateBenchmark: r.SourceBenchmarkID != r.CanonicalBenchmarkID,
			BaseAccuracies:       r.BaseAccuracies,
			Improvement:          Improvement(r.Accuracy, r.BaseAccuracies, src),
		}
		trackSpan(row, r.EndedAt)
	}

	agentNames := make(map[string]string, len(agents))
	for _, a := range agents {
		agentNames[a.ID] = a.Name
	}
	for _, m := range models {
		if evaluated[m.ID] {
			continue
		}
		row := newRow(m.ID, m.Name, resolver)
		row.AgentName = agentNames[m.AgentID]
		if baseID, ok := resolver.BaseModelID(m.ID); ok {
			base, _ := resolver.Model(baseID)
			row.BaseModelName = base.Name
		}
		// Two unevaluated models can share a name only if the store allows it;
		// key on id so neither is dropped.
		rows[rowKey{model: m.Name, agent: "\x00" + m.ID}] = row
	}

	out := make([]model.PivotedRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ModelName != out[j].ModelName {
			return out[i].ModelName < out[j].ModelName
		}
		if out[i].AgentName != out[j].AgentName {
			return out[i].AgentName < out[j].AgentName
		}
		return out[i].ModelID < out[j].ModelID
	})
	return out
}

func newRow(modelID, modelName string, resolver *canon.Resolver) *model.PivotedRow {
	row := &model.PivotedRow{
		ModelID:            modelID,
		ModelName:          modelName,
		CanonicalModelName: modelName,
		Benchmarks:         make(map[string]model.BenchmarkCell),
	}
	if m, ok := resolver.Model(modelID); ok {
		row.CanonicalModelName = resolver.CanonicalModelName(m)
		row.IsDuplicateModel = resolver.IsDuplicateModel(modelID)
		row.ModelCreatedAt = m.CreatedAt
	}
	return row
}

func trackSpan(row *model.PivotedRow, t time.Time) {
	if row.FirstEvalEndedAt == nil || t.Before(*row.FirstEvalEndedAt) {
		first := t
		row.FirstEvalEndedAt = &first
	}
	if row.LatestEvalEndedAt == nil || t.After(*row.LatestEvalEndedAt) {
		latest := t
		row.LatestEvalEndedAt = &latest
	}
}
