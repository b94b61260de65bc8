package store

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leaderboard/internal/model"
)

// ErrUnsupported is returned by every write operation. Evaluation data is
// written by the ingestion service, never through this read path.
var ErrUnsupported = eris.New("operation not supported by this read path")

// Reader is the read side of the evaluation store.
type Reader interface {
	ListAgents(ctx context.Context) ([]model.Agent, error)
	ListModels(ctx context.Context) ([]model.Model, error)
	ListBenchmarks(ctx context.Context) ([]model.Benchmark, error)
	// ListEvaluationJobs returns only jobs with a non-empty metrics list.
	ListEvaluationJobs(ctx context.Context) ([]model.EvaluationJob, error)
	Watermark(ctx context.Context) (model.Watermark, error)
	Ping(ctx context.Context) error
}

// Store is the full persistence interface exposed to the CLI.
type Store interface {
	Reader

	// Legacy write surface. Always fails with ErrUnsupported.
	CreateEvaluationJob(ctx context.Context, job model.EvaluationJob) error
	UpdateEvaluationJob(ctx context.Context, job model.EvaluationJob) error
	DeleteEvaluationJob(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// readOnly implements the write surface shared by every backend.
type readOnly struct{}

func (readOnly) CreateEvaluationJob(context.Context, model.EvaluationJob) error {
	return eris.Wrap(ErrUnsupported, "create evaluation job")
}

func (readOnly) UpdateEvaluationJob(_ context.Context, job model.EvaluationJob) error {
	return eris.Wrapf(ErrUnsupported, "update evaluation job %s", job.ID)
}

func (readOnly) DeleteEvaluationJob(_ context.Context, id string) error {
	return eris.Wrapf(ErrUnsupported, "delete evaluation job %s", id)
}

// FetchError reports that one entity set could not be read. The whole
// request fails; there is no partial response.
type FetchError struct {
	Entity string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Entity, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
