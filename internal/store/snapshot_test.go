package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leaderboard/internal/model"
	"github.com/sells-group/leaderboard/internal/resilience"
)

type fakeReader struct {
	agents     []model.Agent
	models     []model.Model
	benchmarks []model.Benchmark
	jobs       []model.EvaluationJob

	modelsErr  error
	modelCalls atomic.Int32
	failModels int32
}

func (f *fakeReader) ListAgents(context.Context) ([]model.Agent, error) { return f.agents, nil }

func (f *fakeReader) ListModels(context.Context) ([]model.Model, error) {
	n := f.modelCalls.Add(1)
	if f.modelsErr != nil && n <= f.failModels {
		return nil, f.modelsErr
	}
	return f.models, nil
}

func (f *fakeReader) ListBenchmarks(context.Context) ([]model.Benchmark, error) {
	return f.benchmarks, nil
}

func (f *fakeReader) ListEvaluationJobs(context.Context) ([]model.EvaluationJob, error) {
	return f.jobs, nil
}

func (f *fakeReader) Watermark(context.Context) (model.Watermark, error) { return model.Watermark{}, nil }
func (f *fakeReader) Ping(context.Context) error                         { return nil }

func fastLoad() LoadOptions {
	return LoadOptions{Retry: resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}}
}

func TestLoadSnapshot(t *testing.T) {
	r := &fakeReader{
		agents:     []model.Agent{{ID: "a1", Name: "openhands"}},
		models:     []model.Model{{ID: "m1", Name: "llama"}},
		benchmarks: []model.Benchmark{{ID: "b1", Name: "swe-bench"}},
		jobs:       []model.EvaluationJob{{ID: "j1"}},
	}

	var mu sync.Mutex
	seen := map[string]error{}
	opts := fastLoad()
	opts.OnFetch = func(entity string, err error) {
		mu.Lock()
		defer mu.Unlock()
		seen[entity] = err
	}

	snap, err := LoadSnapshot(context.Background(), r, opts)
	require.NoError(t, err)
	assert.Len(t, snap.Agents, 1)
	assert.Len(t, snap.Models, 1)
	assert.Len(t, snap.Benchmarks, 1)
	assert.Len(t, snap.Jobs, 1)
	assert.False(t, snap.FetchedAt.IsZero())
	assert.Len(t, seen, 4)
}

func TestLoadSnapshot_RetriesTransient(t *testing.T) {
	r := &fakeReader{
		models:     []model.Model{{ID: "m1"}},
		modelsErr:  resilience.NewTransientError(errors.New("connection reset")),
		failModels: 2,
	}

	snap, err := LoadSnapshot(context.Background(), r, fastLoad())
	require.NoError(t, err)
	assert.Len(t, snap.Models, 1)
	assert.Equal(t, int32(3), r.modelCalls.Load())
}

func TestLoadSnapshot_FetchError(t *testing.T) {
	r := &fakeReader{modelsErr: errors.New("relation \"models\" does not exist"), failModels: 10}

	_, err := LoadSnapshot(context.Background(), r, fastLoad())
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, EntityModels, fe.Entity)
	assert.Contains(t, err.Error(), "fetch models")
	assert.Equal(t, int32(1), r.modelCalls.Load())
}

func TestLoadSnapshot_CircuitOpen(t *testing.T) {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	_ = breaker.Execute(context.Background(), func(context.Context) error {
		return resilience.NewTransientError(errors.New("down"))
	})

	opts := fastLoad()
	opts.Breaker = breaker
	_, err := LoadSnapshot(context.Background(), &fakeReader{}, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	var fe *FetchError
	assert.ErrorAs(t, err, &fe)
}
