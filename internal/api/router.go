package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leaderboard/internal/monitoring"
)

// RouterOptions configures the HTTP router.
type RouterOptions struct {
	// CORSOrigins lists allowed origins; empty means same-origin only.
	CORSOrigins []string

	// RateLimitRPS <= 0 disables rate limiting of derivation endpoints.
	RateLimitRPS   float64
	RateLimitBurst int

	// Metrics and Gatherer may be nil; /metrics is only mounted with a Gatherer.
	Metrics  *monitoring.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the API handler.
func NewRouter(svc Service, opts RouterOptions) http.Handler {
	h := NewHandlers(svc)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(opts.Metrics))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/api/health", h.HandleHealth)
	r.Get("/api/ready", h.HandleReady)

	r.Group(func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), max(opts.RateLimitBurst, 1))))
		}
		r.Get("/api/results", h.HandleResults)
		r.Get("/api/leaderboard", h.HandleLeaderboard)
		r.Get("/api/benchmarks", h.HandleBenchmarks)
		r.Get("/api/quality", h.HandleQuality)
	})

	r.Post("/api/jobs", h.HandleUnsupported)
	r.Put("/api/jobs/{id}", h.HandleUnsupported)
	r.Patch("/api/jobs/{id}", h.HandleUnsupported)
	r.Delete("/api/jobs/{id}", h.HandleUnsupported)

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs each request and records HTTP metrics under the
// matched route pattern.
func requestLogger(metrics *monitoring.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			metrics.RecordHTTP(r.Method, route, status, elapsed)

			zap.L().Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
			)
		})
	}
}
