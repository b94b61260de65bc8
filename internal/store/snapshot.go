package store

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leaderboard/internal/model"
	"github.com/sells-group/leaderboard/internal/resilience"
)

// Entity names reported in FetchError.
const (
	EntityAgents     = "agents"
	EntityModels     = "models"
	EntityBenchmarks = "benchmarks"
	EntityJobs       = "evaluation_jobs"
)

// LoadOptions controls how a snapshot is read.
type LoadOptions struct {
	Retry   resilience.RetryConfig
	Breaker *resilience.CircuitBreaker
	// OnFetch is called once per entity set with the outcome.
	OnFetch func(entity string, err error)
}

// LoadSnapshot reads the four entity sets concurrently. Any failure cancels
// the remaining reads and is returned as a *FetchError naming the entity.
func LoadSnapshot(ctx context.Context, r Reader, opts LoadOptions) (*model.Snapshot, error) {
	snap := &model.Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Agents, err = fetch(gctx, opts, EntityAgents, r.ListAgents)
		return err
	})
	g.Go(func() (err error) {
		snap.Models, err = fetch(gctx, opts, EntityModels, r.ListModels)
		return err
	})
	g.Go(func() (err error) {
		snap.Benchmarks, err = fetch(gctx, opts, EntityBenchmarks, r.ListBenchmarks)
		return err
	})
	g.Go(func() (err error) {
		snap.Jobs, err = fetch(gctx, opts, EntityJobs, r.ListEvaluationJobs)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

func fetch[T any](ctx context.Context, opts LoadOptions, entity string, list func(context.Context) ([]T, error)) ([]T, error) {
	retry := opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("list " + entity)
	}

	rows, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]T, error) {
		if opts.Breaker == nil {
			return list(ctx)
		}
		return resilience.ExecuteVal(ctx, opts.Breaker, list)
	})
	if opts.OnFetch != nil {
		opts.OnFetch(entity, err)
	}
	if err != nil {
		zap.L().Error("store fetch failed", zap.String("entity", entity), zap.Error(err))
		return nil, &FetchError{Entity: entity, Err: err}
	}
	return rows, nil
}
