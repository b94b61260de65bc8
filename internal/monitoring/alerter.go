package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leaderboard/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertGlitchRate           AlertType = "glitch_rate"
	AlertUnresolvedReferences AlertType = "unresolved_references"
	AlertDanglingJobs         AlertType = "dangling_jobs"
)

// minJobsForGlitchRate keeps a handful of early jobs from tripping the alert.
const minJobsForGlitchRate = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a quality Snapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	scored := snap.Jobs - snap.JobsMissingAccuracy
	if scored >= minJobsForGlitchRate && snap.GlitchRate > a.cfg.GlitchRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertGlitchRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Glitch rate %.1f%% exceeds threshold %.1f%% (%d of %d scored jobs at or below 1%% accuracy)",
				snap.GlitchRate*100, a.cfg.GlitchRateThreshold*100, snap.GlitchyJobs, scored,
			),
			Details: map[string]any{
				"glitch_rate":         snap.GlitchRate,
				"threshold":           a.cfg.GlitchRateThreshold,
				"glitchy_jobs":        snap.GlitchyJobs,
				"fallback_selections": snap.FallbackSelections,
			},
			Timestamp: now,
		})
	}

	if snap.UnresolvedReferences > a.cfg.UnresolvedThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertUnresolvedReferences,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d unresolvable duplicate_of/base_model_id reference(s), threshold %d",
				snap.UnresolvedReferences, a.cfg.UnresolvedThreshold,
			),
			Details: map[string]any{
				"unresolved": snap.UnresolvedReferences,
				"threshold":  a.cfg.UnresolvedThreshold,
			},
			Timestamp: now,
		})
	}

	if snap.DanglingJobs > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertDanglingJobs,
			Severity: "medium",
			Message:  fmt.Sprintf("%d evaluation job(s) reference unknown agents, models, or benchmarks", snap.DanglingJobs),
			Details: map[string]any{
				"dangling_jobs": snap.DanglingJobs,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
