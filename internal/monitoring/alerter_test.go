package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leaderboard/internal/config"
)

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{GlitchRateThreshold: 0.25})

	alerts := a.Evaluate(&Snapshot{Jobs: 100, GlitchyJobs: 10, GlitchRate: 0.10})
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_GlitchRate(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{GlitchRateThreshold: 0.25})

	alerts := a.Evaluate(&Snapshot{Jobs: 20, GlitchyJobs: 8, GlitchRate: 0.4, FallbackSelections: 3})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertGlitchRate, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "40.0%")
	assert.Equal(t, 3, alerts[0].Details["fallback_selections"])
}

func TestAlerter_Evaluate_GlitchRateNeedsEnoughJobs(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{GlitchRateThreshold: 0.25})

	alerts := a.Evaluate(&Snapshot{Jobs: 4, GlitchyJobs: 4, GlitchRate: 1.0})
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_Unresolved(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{GlitchRateThreshold: 0.25, UnresolvedThreshold: 1})

	assert.Empty(t, a.Evaluate(&Snapshot{UnresolvedReferences: 1}))

	alerts := a.Evaluate(&Snapshot{UnresolvedReferences: 2, DanglingJobs: 1})
	require.Len(t, alerts, 2)
	assert.Equal(t, AlertUnresolvedReferences, alerts[0].Type)
	assert.Equal(t, AlertDanglingJobs, alerts[1].Type)
}

func TestAlerter_SendAlerts_Webhook(t *testing.T) {
	var received atomic.Int32
	var got Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertDanglingJobs, Severity: "medium", Message: "1 job"}})

	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(1), received.Load())
	assert.Equal(t, AlertDanglingJobs, got.Type)
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertGlitchRate}, {Type: AlertDanglingJobs}})
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	assert.Equal(t, 0, a.SendAlerts(context.Background(), []Alert{{Type: AlertGlitchRate}}))
}
