package monitoring

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordHTTP(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordHTTP("GET", "/api/leaderboard", 200, 20*time.Millisecond)
	m.RecordHTTP("GET", "/api/leaderboard", 200, 30*time.Millisecond)
	m.RecordHTTP("GET", "/api/results", 503, time.Millisecond)

	expected := `
		# HELP leaderboard_http_requests_total Total number of HTTP requests by method, route, and status code
		# TYPE leaderboard_http_requests_total counter
		leaderboard_http_requests_total{method="GET",route="/api/leaderboard",status_code="200"} 2
		leaderboard_http_requests_total{method="GET",route="/api/results",status_code="503"} 1
	`
	require.NoError(t, testutil.CollectAndCompare(m.HTTPRequestCounter, strings.NewReader(expected)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestMetrics_RecordFetch(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordFetch("models", nil)
	m.RecordFetch("models", errors.New("boom"))
	m.RecordFetch("agents", nil)

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.StoreFetchCounter.WithLabelValues("models", "error")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.StoreFetchCounter.WithLabelValues("models", "success")), 1e-9)
	assert.Equal(t, 3, testutil.CollectAndCount(m.StoreFetchCounter))
}

func TestMetrics_ObserveDerivation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveDerivation("pivoted", 50*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(m.DerivationDuration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordHTTP("GET", "/", 200, time.Millisecond)
	m.RecordFetch("agents", nil)
	m.ObserveDerivation("flat", time.Millisecond)
	m.SetQuality(1, 2)
}
