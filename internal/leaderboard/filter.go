package leaderboard

import "github.com/sells-group/leaderboard/internal/model"

// Filter narrows output by exact agent, model, or canonical benchmark name.
// Empty fields match everything. Filters are applied after selection and
// never change which job wins a triple.
type Filter struct {
	Agent     string `json:"agent,omitempty"`
	Model     string `json:"model,omitempty"`
	Benchmark string `json:"benchmark,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Results returns the results matching f in their original order.
func (f Filter) Results(results []model.CanonicalResult) []model.CanonicalResult {
	out := make([]model.CanonicalResult, 0, len(results))
	for _, r := range results {
		if f.Agent != "" && r.AgentName != f.Agent {
			continue
		}
		if f.Model != "" && r.ModelName != f.Model {
			continue
		}
		if f.Benchmark != "" && r.CanonicalBenchmarkName != f.Benchmark {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Rows returns the rows matching f. A benchmark filter keeps only that
// benchmark's cell and drops rows without it.
func (f Filter) Rows(rows []model.PivotedRow) []model.PivotedRow {
	if f.IsZero() {
		return rows
	}
	out := make([]model.PivotedRow, 0, len(rows))
	for _, row := range rows {
		if f.Agent != "" && row.AgentName != f.Agent {
			continue
		}
		if f.Model != "" && row.ModelName != f.Model {
			continue
		}
		if f.Benchmark != "" {
			cell, ok := row.Benchmarks[f.Benchmark]
			if !ok {
				continue
			}
			row.Benchmarks = map[string]model.BenchmarkCell{f.Benchmark: cell}
		}
		out = append(out, row)
	}
	return out
}
