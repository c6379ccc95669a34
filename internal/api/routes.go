package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"routeplanner/internal/metrics"
)

// Handler returns the service's routes wrapped in request id, logging,
// metrics and per-IP rate limiting. Operational endpoints are not limited.
func (s *Server) Handler() http.Handler {
	limited := http.NewServeMux()

	// Page
	limited.HandleFunc("/", s.IndexHandler)
	limited.HandleFunc("/static/", s.StaticHandler)

	// Optimisation
	limited.HandleFunc("/optimize", s.OptimizeHandler)

	// History
	limited.HandleFunc("/v1/history", s.HistoryHandler)
	limited.HandleFunc("/v1/history/", s.HistoryByIDHandler)

	limiter := NewIPRateLimiter(rate.Limit(s.Cfg.RateRPS), s.Cfg.RateBurst, s.Log)
	if s.Cfg.RateRPS <= 0 {
		limiter = NewIPRateLimiter(rate.Inf, 0, s.Log)
	}

	mux := http.NewServeMux()
	mux.Handle("/", limiter.Limit(limited))

	// Health
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)

	// Ops
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/vars.json", s.DebugJSON)
	mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("/docs", s.DocsHandler)

	return RequestID(Observe(s.Log, mux))
}
