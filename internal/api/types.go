package api

import (
	"github.com/sells-group/leaderboard/internal/model"
)

// HealthResponse is returned by the health and readiness endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// ResultsResponse wraps the flat results.
type ResultsResponse struct {
	Count   int                     `json:"count"`
	Results []model.CanonicalResult `json:"results"`
}

// LeaderboardResponse wraps the pivoted rows together with the toggles
// that produced them.
type LeaderboardResponse struct {
	ShowDupModels     bool               `json:"show_dup_models"`
	ShowDupBenchmarks bool               `json:"show_dup_benchmarks"`
	BaseSource        string             `json:"base_source"`
	Count             int                `json:"count"`
	Rows              []model.PivotedRow `json:"rows"`
}

// BenchmarksResponse wraps the canonical benchmark groups.
type BenchmarksResponse struct {
	Count      int                    `json:"count"`
	Benchmarks []model.BenchmarkGroup `json:"benchmarks"`
}
