package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leaderboard/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is meant for
// local development against an exported copy of the evaluation tables.
type SQLiteStore struct {
	readOnly
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS agents (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS models (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	agent_id      TEXT,
	base_model_id TEXT,
	duplicate_of  TEXT,
	creation_time DATETIME,
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS benchmarks (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	duplicate_of TEXT,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS evaluation_jobs (
	id           TEXT PRIMARY KEY,
	agent_id     TEXT NOT NULL,
	model_id     TEXT NOT NULL,
	benchmark_id TEXT NOT NULL,
	metrics      TEXT,
	trace_link   TEXT,
	ended_at     DATETIME,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_jobs_triple ON evaluation_jobs(agent_id, model_id, benchmark_id);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON evaluation_jobs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) ListAgents(ctx context.Context) ([]model.Agent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM agents ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list agents")
	}
	defer rows.Close() //nolint:errcheck

	var agents []model.Agent
	for rows.Next() {
		var a model.Agent
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan agent")
		}
		agents = append(agents, a)
	}
	return agents, eris.Wrap(rows.Err(), "sqlite: list agents iterate")
}

func (s *SQLiteStore) ListModels(ctx context.Context) ([]model.Model, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, agent_id, base_model_id, duplicate_of, creation_time FROM models ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list models")
	}
	defer rows.Close() //nolint:errcheck

	var models []model.Model
	for rows.Next() {
		var m model.Model
		var agentID sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &agentID, &m.BaseModelID, &m.DuplicateOf, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan model")
		}
		m.AgentID = agentID.String
		models = append(models, m)
	}
	return models, eris.Wrap(rows.Err(), "sqlite: list models iterate")
}

func (s *SQLiteStore) ListBenchmarks(ctx context.Context) ([]model.Benchmark, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, duplicate_of FROM benchmarks ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list benchmarks")
	}
	defer rows.Close() //nolint:errcheck

	var benchmarks []model.Benchmark
	for rows.Next() {
		var b model.Benchmark
		if err := rows.Scan(&b.ID, &b.Name, &b.DuplicateOf); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan benchmark")
		}
		benchmarks = append(benchmarks, b)
	}
	return benchmarks, eris.Wrap(rows.Err(), "sqlite: list benchmarks iterate")
}

func (s *SQLiteStore) ListEvaluationJobs(ctx context.Context) ([]model.EvaluationJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, agent_id, model_id, benchmark_id, metrics, trace_link, ended_at, created_at
		 FROM evaluation_jobs WHERE metrics IS NOT NULL AND metrics != '' AND metrics != '[]'`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list evaluation jobs")
	}
	defer rows.Close() //nolint:errcheck

	var jobs []model.EvaluationJob
	for rows.Next() {
		var j model.EvaluationJob
		var metricsJSON string
		if err := rows.Scan(&j.ID, &j.AgentID, &j.ModelID, &j.BenchmarkID, &metricsJSON, &j.TraceLink, &j.EndedAt, &j.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evaluation job")
		}
		if err := json.Unmarshal([]byte(metricsJSON), &j.Metrics); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal metrics for job %s", j.ID)
		}
		if len(j.Metrics) == 0 {
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list evaluation jobs iterate")
}

// Watermark reads counts and latest timestamps with separate queries;
// SQLite aggregates lose the DATETIME column type.
func (s *SQLiteStore) Watermark(ctx context.Context) (model.Watermark, error) {
	var w model.Watermark
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT count(*) FROM agents), (SELECT count(*) FROM models),
		        (SELECT count(*) FROM benchmarks), (SELECT count(*) FROM evaluation_jobs)`,
	).Scan(&w.Agents, &w.Models, &w.Benchmarks, &w.Jobs)
	if err != nil {
		return model.Watermark{}, eris.Wrap(err, "sqlite: watermark counts")
	}

	latest, err := s.latest(ctx, `SELECT created_at FROM evaluation_jobs ORDER BY created_at DESC LIMIT 1`)
	if err != nil {
		return model.Watermark{}, err
	}
	w.LatestJobAt = latest

	for _, table := range []string{"agents", "models", "benchmarks"} {
		t, err := s.latest(ctx, `SELECT updated_at FROM `+table+` ORDER BY updated_at DESC LIMIT 1`)
		if err != nil {
			return model.Watermark{}, err
		}
		if t.After(w.LatestEntity) {
			w.LatestEntity = t
		}
	}
	return w, nil
}

func (s *SQLiteStore) latest(ctx context.Context, query string) (time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx, query).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, eris.Wrap(err, "sqlite: watermark latest")
	}
	return t, nil
}
