package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leaderboard/internal/config"
	"github.com/sells-group/leaderboard/internal/leaderboard"
	"github.com/sells-group/leaderboard/internal/monitoring"
	"github.com/sells-group/leaderboard/internal/resilience"
	"github.com/sells-group/leaderboard/internal/store"
)

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case "sqlite":
		return store.NewSQLite(c.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// openStore validates cfg for mode and opens the configured store.
func openStore(ctx context.Context, mode string) (store.Store, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// loadOptions builds retry and circuit-breaker settings for snapshot reads.
func loadOptions(c *config.Config) store.LoadOptions {
	circuit := resilience.NewCircuitConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs)
	circuit.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("store circuit breaker state change",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return store.LoadOptions{
		Retry:   resilience.NewRetryConfig(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs),
		Breaker: resilience.NewCircuitBreaker(circuit),
	}
}

func newService(c *config.Config, r store.Reader, metrics *monitoring.Metrics) *leaderboard.Service {
	opts := leaderboard.Options{
		Load:    loadOptions(c),
		Metrics: metrics,
	}
	if c.Cache.Enabled {
		opts.CacheTTL = time.Duration(c.Cache.TTLSecs) * time.Second
	}
	return leaderboard.NewService(r, opts)
}
