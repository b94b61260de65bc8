package model

import "time"

// BaseAccuracies holds the base model's accuracy under each combination of
// model and benchmark canonicalization. A nil field means no qualifying job.
type BaseAccuracies struct {
	BaseModel                   *float64 `json:"base_model_accuracy,omitempty" yaml:"base_model_accuracy,omitempty"`
	CanonicalBenchmarkBaseModel *float64 `json:"canonical_benchmark_base_model_accuracy,omitempty" yaml:"canonical_benchmark_base_model_accuracy,omitempty"`
	CanonicalBaseModel          *float64 `json:"canonical_base_model_accuracy,omitempty" yaml:"canonical_base_model_accuracy,omitempty"`
	CanonicalBothBaseModel      *float64 `json:"canonical_both_base_model_accuracy,omitempty" yaml:"canonical_both_base_model_accuracy,omitempty"`
}

// CanonicalResult is the selected evaluation for one
// (agent, model, canonical benchmark) triple.
type CanonicalResult struct {
	AgentID   string `json:"agent_id" yaml:"agent_id"`
	AgentName string `json:"agent_name" yaml:"agent_name"`
	ModelID   string `json:"model_id" yaml:"model_id"`
	ModelName string `json:"model_name" yaml:"model_name"`

	CanonicalBenchmarkID   string `json:"canonical_benchmark_id" yaml:"canonical_benchmark_id"`
	CanonicalBenchmarkName string `json:"canonical_benchmark_name" yaml:"canonical_benchmark_name"`
	SourceBenchmarkID      string `json:"source_benchmark_id" yaml:"source_benchmark_id"`
	SourceBenchmarkName    string `json:"source_benchmark_name" yaml:"source_benchmark_name"`

	JobID          string    `json:"job_id" yaml:"job_id"`
	Accuracy       *float64  `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	Stderr         *float64  `json:"accuracy_stderr,omitempty" yaml:"accuracy_stderr,omitempty"`
	TraceLink      *string   `json:"trace_link,omitempty" yaml:"trace_link,omitempty"`
	EndedAt        time.Time `json:"ended_at" yaml:"ended_at"`
	PoolSize       int       `json:"pool_size" yaml:"pool_size"`
	MeetsThreshold bool      `json:"meets_threshold" yaml:"meets_threshold"`

	BaseModelID    string         `json:"base_model_id,omitempty" yaml:"base_model_id,omitempty"`
	BaseModelName  string         `json:"base_model_name,omitempty" yaml:"base_model_name,omitempty"`
	BaseAccuracies BaseAccuracies `json:"base_accuracies" yaml:"base_accuracies"`
}

// BenchmarkCell is one benchmark column of a pivoted row.
type BenchmarkCell struct {
	Accuracy             *float64       `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	Stderr               *float64       `json:"accuracy_stderr,omitempty" yaml:"accuracy_stderr,omitempty"`
	TraceLink            *string        `json:"trace_link,omitempty" yaml:"trace_link,omitempty"`
	EndedAt              time.Time      `json:"ended_at" yaml:"ended_at"`
	JobID                string         `json:"job_id" yaml:"job_id"`
	CanonicalBenchmark   string         `json:"canonical_benchmark" yaml:"canonical_benchmark"`
	SourceBenchmark      string         `json:"source_benchmark" yaml:"source_benchmark"`
	IsDuplicateBenchmark bool           `json:"is_duplicate_benchmark" yaml:"is_duplicate_benchmark"`
	BaseAccuracies       BaseAccuracies `json:"base_accuracies" yaml:"base_accuracies"`
	Improvement          *float64       `json:"improvement,omitempty" yaml:"improvement,omitempty"`
}

// PivotedRow is one (model, agent) row of the leaderboard.
type PivotedRow struct {
	ModelID            string     `json:"model_id" yaml:"model_id"`
	ModelName          string     `json:"model_name" yaml:"model_name"`
	AgentName          string     `json:"agent_name" yaml:"agent_name"`
	HasEvaluations     bool       `json:"has_evaluations" yaml:"has_evaluations"`
	BaseModelName      string     `json:"base_model_name,omitempty" yaml:"base_model_name,omitempty"`
	CanonicalModelName string     `json:"canonical_model_name" yaml:"canonical_model_name"`
	IsDuplicateModel   bool       `json:"is_duplicate_model" yaml:"is_duplicate_model"`
	ModelCreatedAt     *time.Time `json:"model_created_at,omitempty" yaml:"model_created_at,omitempty"`

	Benchmarks        map[string]BenchmarkCell `json:"benchmarks" yaml:"benchmarks"`
	FirstEvalEndedAt  *time.Time               `json:"first_eval_ended_at,omitempty" yaml:"first_eval_ended_at,omitempty"`
	LatestEvalEndedAt *time.Time               `json:"latest_eval_ended_at,omitempty" yaml:"latest_eval_ended_at,omitempty"`
}

// BenchmarkGroup is a canonical benchmark together with its duplicates.
type BenchmarkGroup struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Duplicates []string `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}
