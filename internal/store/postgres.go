package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leaderboard/internal/db"
	"github.com/sells-group/leaderboard/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	readOnly
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	listAgentsSQL     = `SELECT id, name FROM agents ORDER BY name`
	listModelsSQL     = `SELECT id, name, agent_id, base_model_id, duplicate_of, creation_time FROM models ORDER BY name`
	listBenchmarksSQL = `SELECT id, name, duplicate_of FROM benchmarks ORDER BY name`
	listJobsSQL       = `SELECT id, agent_id, model_id, benchmark_id, metrics, trace_link, ended_at, created_at FROM evaluation_jobs
	 WHERE metrics IS NOT NULL AND jsonb_typeof(metrics) = 'array' AND jsonb_array_length(metrics) > 0`
	watermarkSQL = `SELECT
	 (SELECT count(*) FROM agents),
	 (SELECT count(*) FROM models),
	 (SELECT count(*) FROM benchmarks),
	 (SELECT count(*) FROM evaluation_jobs),
	 COALESCE((SELECT max(created_at) FROM evaluation_jobs), 'epoch'::timestamptz),
	 GREATEST(
	   COALESCE((SELECT max(updated_at) FROM agents), 'epoch'::timestamptz),
	   COALESCE((SELECT max(updated_at) FROM models), 'epoch'::timestamptz),
	   COALESCE((SELECT max(updated_at) FROM benchmarks), 'epoch'::timestamptz)
	 )`
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS agents (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL UNIQUE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS models (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name          TEXT NOT NULL UNIQUE,
	agent_id      TEXT REFERENCES agents(id),
	base_model_id TEXT,
	duplicate_of  TEXT,
	creation_time TIMESTAMPTZ,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS benchmarks (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name         TEXT NOT NULL UNIQUE,
	duplicate_of TEXT,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS evaluation_jobs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	agent_id     TEXT NOT NULL,
	model_id     TEXT NOT NULL,
	benchmark_id TEXT NOT NULL,
	metrics      JSONB,
	trace_link   TEXT,
	ended_at     TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_models_duplicate_of ON models(duplicate_of);
CREATE INDEX IF NOT EXISTS idx_models_base_model_id ON models(base_model_id);
CREATE INDEX IF NOT EXISTS idx_benchmarks_duplicate_of ON benchmarks(duplicate_of);
CREATE INDEX IF NOT EXISTS idx_jobs_triple ON evaluation_jobs(agent_id, model_id, benchmark_id);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON evaluation_jobs(created_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListAgents(ctx context.Context) ([]model.Agent, error) {
	rows, err := s.pool.Query(ctx, listAgentsSQL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list agents")
	}
	defer rows.Close()

	var agents []model.Agent
	for rows.Next() {
		var a model.Agent
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan agent")
		}
		agents = append(agents, a)
	}
	return agents, eris.Wrap(rows.Err(), "postgres: list agents iterate")
}

func (s *PostgresStore) ListModels(ctx context.Context) ([]model.Model, error) {
	rows, err := s.pool.Query(ctx, listModelsSQL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list models")
	}
	defer rows.Close()

	var models []model.Model
	for rows.Next() {
		var m model.Model
		var agentID *string
		if err := rows.Scan(&m.ID, &m.Name, &agentID, &m.BaseModelID, &m.DuplicateOf, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan model")
		}
		if agentID != nil {
			m.AgentID = *agentID
		}
		models = append(models, m)
	}
	return models, eris.Wrap(rows.Err(), "postgres: list models iterate")
}

func (s *PostgresStore) ListBenchmarks(ctx context.Context) ([]model.Benchmark, error) {
	rows, err := s.pool.Query(ctx, listBenchmarksSQL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list benchmarks")
	}
	defer rows.Close()

	var benchmarks []model.Benchmark
	for rows.Next() {
		var b model.Benchmark
		if err := rows.Scan(&b.ID, &b.Name, &b.DuplicateOf); err != nil {
			return nil, eris.Wrap(err, "postgres: scan benchmark")
		}
		benchmarks = append(benchmarks, b)
	}
	return benchmarks, eris.Wrap(rows.Err(), "postgres: list benchmarks iterate")
}

func (s *PostgresStore) ListEvaluationJobs(ctx context.Context) ([]model.EvaluationJob, error) {
	rows, err := s.pool.Query(ctx, listJobsSQL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list evaluation jobs")
	}
	defer rows.Close()

	var jobs []model.EvaluationJob
	for rows.Next() {
		var j model.EvaluationJob
		var metricsJSON []byte
		if err := rows.Scan(&j.ID, &j.AgentID, &j.ModelID, &j.BenchmarkID, &metricsJSON, &j.TraceLink, &j.EndedAt, &j.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan evaluation job")
		}
		if err := json.Unmarshal(metricsJSON, &j.Metrics); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal metrics for job %s", j.ID)
		}
		if len(j.Metrics) == 0 {
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list evaluation jobs iterate")
}

func (s *PostgresStore) Watermark(ctx context.Context) (model.Watermark, error) {
	var w model.Watermark
	err := s.pool.QueryRow(ctx, watermarkSQL).Scan(
		&w.Agents, &w.Models, &w.Benchmarks, &w.Jobs, &w.LatestJobAt, &w.LatestEntity,
	)
	if err != nil {
		return model.Watermark{}, eris.Wrap(err, "postgres: watermark")
	}
	return w, nil
}
