// Package api serves the leaderboard over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leaderboard/internal/leaderboard"
	"github.com/sells-group/leaderboard/internal/model"
	"github.com/sells-group/leaderboard/internal/monitoring"
	"github.com/sells-group/leaderboard/internal/pivot"
	"github.com/sells-group/leaderboard/internal/store"
)

// Service is the leaderboard read surface the handlers need.
type Service interface {
	FlatResults(ctx context.Context, f leaderboard.Filter) ([]model.CanonicalResult, error)
	Pivoted(ctx context.Context, opts pivot.Options, f leaderboard.Filter) ([]model.PivotedRow, error)
	Benchmarks(ctx context.Context) ([]model.BenchmarkGroup, error)
	Quality(ctx context.Context) (*monitoring.Snapshot, error)
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handler methods for the API.
type Handlers struct {
	svc Service
}

// NewHandlers creates a new Handlers backed by svc.
func NewHandlers(svc Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleHealth reports process liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleReady reports whether the store is reachable.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleResults returns one result per (agent, model, canonical benchmark).
func (h *Handlers) HandleResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.FlatResults(r.Context(), filterFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultsResponse{Count: len(results), Results: results})
}

// HandleLeaderboard returns pivoted rows with improvement over the base model.
func (h *Handlers) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	showModels, err := boolParam(r, "show_dup_models")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	showBenchmarks, err := boolParam(r, "show_dup_benchmarks")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := pivot.Options{ShowDupModels: showModels, ShowDupBenchmarks: showBenchmarks}
	rows, err := h.svc.Pivoted(r.Context(), opts, filterFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeaderboardResponse{
		ShowDupModels:     showModels,
		ShowDupBenchmarks: showBenchmarks,
		BaseSource:        pivot.SourceFor(showModels, showBenchmarks).String(),
		Count:             len(rows),
		Rows:              rows,
	})
}

// HandleBenchmarks returns canonical benchmarks with their duplicates.
func (h *Handlers) HandleBenchmarks(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Benchmarks(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BenchmarksResponse{Count: len(groups), Benchmarks: groups})
}

// HandleQuality returns the data-quality snapshot.
func (h *Handlers) HandleQuality(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Quality(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleUnsupported rejects the legacy job write surface.
func (h *Handlers) HandleUnsupported(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotImplemented, store.ErrUnsupported.Error())
}

func filterFromQuery(r *http.Request) leaderboard.Filter {
	q := r.URL.Query()
	return leaderboard.Filter{
		Agent:     q.Get("agent"),
		Model:     q.Get("model"),
		Benchmark: q.Get("benchmark"),
	}
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, eris.Errorf("invalid boolean for %s: %q", name, raw)
	}
	return v, nil
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *store.FetchError
	if errors.As(err, &fe) {
		zap.L().Error("api: store fetch failed",
			zap.String("path", r.URL.Path),
			zap.String("entity", fe.Entity),
			zap.Error(err),
		)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	zap.L().Error("api: request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
