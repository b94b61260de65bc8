package model

import (
	"fmt"
	"time"
)

// Metric names recorded on evaluation jobs.
const (
	MetricAccuracy       = "accuracy"
	MetricAccuracyStderr = "accuracy_stderr"
)

// Agent is the harness that drove an evaluation.
type Agent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Model is an evaluated model. BaseModelID points at the model this one was
// fine-tuned from; DuplicateOf points at the canonical row when this row is a
// duplicate registration of the same model.
type Model struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	AgentID     string     `json:"agent_id,omitempty"`
	BaseModelID *string    `json:"base_model_id,omitempty"`
	DuplicateOf *string    `json:"duplicate_of,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Benchmark is an evaluation task. DuplicateOf points at the canonical
// benchmark when this row duplicates another.
type Benchmark struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	DuplicateOf *string `json:"duplicate_of,omitempty"`
}

// Metric is a single named measurement on a job. A nil Value is a metric
// recorded without a number and reads as absent.
type Metric struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

// NewMetric returns a metric with a recorded value.
func NewMetric(name string, v float64) Metric {
	return Metric{Name: name, Value: &v}
}

// EvaluationJob is an immutable evaluation record.
type EvaluationJob struct {
	ID          string     `json:"id"`
	AgentID     string     `json:"agent_id"`
	ModelID     string     `json:"model_id"`
	BenchmarkID string     `json:"benchmark_id"`
	Metrics     []Metric   `json:"metrics"`
	TraceLink   *string    `json:"trace_link,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// EffectiveAt returns the completion time, or the creation time when the job
// never recorded one.
func (j EvaluationJob) EffectiveAt() time.Time {
	if j.EndedAt != nil {
		return *j.EndedAt
	}
	return j.CreatedAt
}

// Metric returns the first metric with the given name. A metric stored
// with a null value reports false.
func (j EvaluationJob) Metric(name string) (float64, bool) {
	for _, m := range j.Metrics {
		if m.Name != name {
			continue
		}
		if m.Value == nil {
			return 0, false
		}
		return *m.Value, true
	}
	return 0, false
}

// AccuracyPct returns accuracy in percentage points, or nil when the job has
// no accuracy metric.
func (j EvaluationJob) AccuracyPct() *float64 {
	return j.pct(MetricAccuracy)
}

// StderrPct returns the accuracy standard error in percentage points, or nil.
func (j EvaluationJob) StderrPct() *float64 {
	return j.pct(MetricAccuracyStderr)
}

func (j EvaluationJob) pct(name string) *float64 {
	v, ok := j.Metric(name)
	if !ok {
		return nil
	}
	v *= 100
	return &v
}

// Snapshot is a read-only view of every entity set, fetched once per request.
type Snapshot struct {
	Agents     []Agent         `json:"agents"`
	Models     []Model         `json:"models"`
	Benchmarks []Benchmark     `json:"benchmarks"`
	Jobs       []EvaluationJob `json:"jobs"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// Watermark summarizes the store contents cheaply. Two equal watermarks mean
// the derived leaderboard has not changed.
type Watermark struct {
	Agents       int       `json:"agents"`
	Models       int       `json:"models"`
	Benchmarks   int       `json:"benchmarks"`
	Jobs         int       `json:"jobs"`
	LatestJobAt  time.Time `json:"latest_job_at"`
	LatestEntity time.Time `json:"latest_entity"`
}

// Key identifies the watermark as a string.
func (w Watermark) Key() string {
	return fmt.Sprintf("%d/%d/%d/%d/%d/%d", w.Agents, w.Models, w.Benchmarks, w.Jobs,
		w.LatestJobAt.UnixNano(), w.LatestEntity.UnixNano())
}
