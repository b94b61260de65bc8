package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leaderboard/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedSQLite(t *testing.T, st *SQLiteStore, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		_, err := st.db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Ping(context.Background()))
}

func TestSQLite_ListEntities(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedSQLite(t, st,
		`INSERT INTO agents (id, name) VALUES ('a1', 'openhands')`,
		`INSERT INTO models (id, name, agent_id, base_model_id, duplicate_of, creation_time)
		 VALUES ('m1', 'llama-3-8b', 'a1', NULL, NULL, '2025-03-01 00:00:00')`,
		`INSERT INTO models (id, name, agent_id, base_model_id, duplicate_of)
		 VALUES ('m2', 'llama-3-8b-sft', NULL, 'm1', 'm1')`,
		`INSERT INTO benchmarks (id, name, duplicate_of) VALUES ('b1', 'swe-bench', NULL)`,
		`INSERT INTO benchmarks (id, name, duplicate_of) VALUES ('b2', 'swe-bench-v2', 'b1')`,
	)

	agents, err := st.ListAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Agent{{ID: "a1", Name: "openhands"}}, agents)

	models, err := st.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "a1", models[0].AgentID)
	require.NotNil(t, models[0].CreatedAt)
	assert.Equal(t, 2025, models[0].CreatedAt.Year())
	assert.Empty(t, models[1].AgentID)
	require.NotNil(t, models[1].BaseModelID)
	assert.Equal(t, "m1", *models[1].BaseModelID)
	require.NotNil(t, models[1].DuplicateOf)
	assert.Nil(t, models[1].CreatedAt)

	benchmarks, err := st.ListBenchmarks(ctx)
	require.NoError(t, err)
	require.Len(t, benchmarks, 2)
	assert.Nil(t, benchmarks[0].DuplicateOf)
	require.NotNil(t, benchmarks[1].DuplicateOf)
	assert.Equal(t, "b1", *benchmarks[1].DuplicateOf)
}

func TestSQLite_ListEvaluationJobs(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	seedSQLite(t, st,
		`INSERT INTO evaluation_jobs (id, agent_id, model_id, benchmark_id, metrics, trace_link, ended_at, created_at)
		 VALUES ('`+id+`', 'a1', 'm1', 'b1', '[{"name":"accuracy","value":0.8}]', 'https://traces/1',
		         '2025-03-02 10:00:00', '2025-03-02 09:00:00')`,
		`INSERT INTO evaluation_jobs (id, agent_id, model_id, benchmark_id, metrics, created_at)
		 VALUES ('empty', 'a1', 'm1', 'b1', '[]', '2025-03-02 09:00:00')`,
		`INSERT INTO evaluation_jobs (id, agent_id, model_id, benchmark_id, metrics, created_at)
		 VALUES ('null', 'a1', 'm1', 'b1', NULL, '2025-03-02 09:00:00')`,
	)

	jobs, err := st.ListEvaluationJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	j := jobs[0]
	assert.Equal(t, id, j.ID)
	require.NotNil(t, j.AccuracyPct())
	assert.InDelta(t, 80.0, *j.AccuracyPct(), 1e-9)
	assert.Nil(t, j.StderrPct())
	require.NotNil(t, j.EndedAt)
	assert.Equal(t, 10, j.EffectiveAt().Hour())
	require.NotNil(t, j.TraceLink)
	assert.Equal(t, "https://traces/1", *j.TraceLink)
}

func TestSQLite_ListEvaluationJobs_MalformedMetrics(t *testing.T) {
	st := newTestSQLiteStore(t)

	seedSQLite(t, st,
		`INSERT INTO evaluation_jobs (id, agent_id, model_id, benchmark_id, metrics)
		 VALUES ('bad', 'a1', 'm1', 'b1', '{not json')`,
	)

	_, err := st.ListEvaluationJobs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal metrics for job bad")
}

func TestSQLite_Watermark(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	w, err := st.Watermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Watermark{}, w)

	seedSQLite(t, st,
		`INSERT INTO agents (id, name, updated_at) VALUES ('a1', 'openhands', '2025-01-01 00:00:00')`,
		`INSERT INTO benchmarks (id, name, updated_at) VALUES ('b1', 'swe-bench', '2025-02-01 00:00:00')`,
		`INSERT INTO evaluation_jobs (id, agent_id, model_id, benchmark_id, metrics, created_at)
		 VALUES ('j1', 'a1', 'm1', 'b1', '[{"name":"accuracy","value":0.1}]', '2025-03-01 00:00:00')`,
		`INSERT INTO evaluation_jobs (id, agent_id, model_id, benchmark_id, metrics, created_at)
		 VALUES ('j2', 'a1', 'm1', 'b1', '[{"name":"accuracy","value":0.2}]', '2025-03-05 00:00:00')`,
	)

	w, err = st.Watermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Agents)
	assert.Equal(t, 0, w.Models)
	assert.Equal(t, 1, w.Benchmarks)
	assert.Equal(t, 2, w.Jobs)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), w.LatestJobAt.UTC())
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), w.LatestEntity.UTC())
}

func TestSQLite_WriteSurfaceUnsupported(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.CreateEvaluationJob(context.Background(), model.EvaluationJob{ID: "j1"})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSQLite_ListEvaluationJobs_NullMetricValues(t *testing.T) {
	st := newTestSQLiteStore(t)

	seedSQLite(t, st,
		`INSERT INTO evaluation_jobs (id, agent_id, model_id, benchmark_id, metrics)
		 VALUES ('null-acc', 'a1', 'm1', 'b1', '[{"name":"accuracy","value":null},{"name":"accuracy_stderr","value":null}]')`,
	)

	jobs, err := st.ListEvaluationJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Nil(t, jobs[0].AccuracyPct(), "null accuracy is missing, not zero")
	assert.Nil(t, jobs[0].StderrPct())
}
