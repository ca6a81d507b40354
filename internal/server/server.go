package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"time-value-analyser/fi-dashboard/internal/config"
	"time-value-analyser/fi-dashboard/internal/metrics"
	"time-value-analyser/fi-dashboard/internal/render"
	"time-value-analyser/fi-dashboard/internal/store"
)

// Server is the HTTP presentation layer over a loaded Store.
type Server struct {
	store   *store.Store
	dash    config.Dashboard
	render  *render.Renderer
	metrics *metrics.Metrics
	mux     *http.ServeMux
	server  *http.Server
	handler http.Handler
}

func New(cfg *config.Config, st *store.Store, m *metrics.Metrics) *Server {
	s := &Server{
		store:   st,
		dash:    cfg.Dashboard,
		render:  render.New(cfg.Charts),
		metrics: m,
		mux:     http.NewServeMux(),
	}
	s.routes()
	s.handler = s.withRequestID(s.mux)
	s.server = &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/v1/overview", s.handleOverview)
	s.mux.HandleFunc("GET /api/v1/indicators", s.handleIndicators)
	s.mux.HandleFunc("GET /api/v1/indicators/{code}/latest", s.handleLatest)
	s.mux.HandleFunc("GET /api/v1/indicators/{code}/series", s.handleSeries)
	s.mux.HandleFunc("GET /api/v1/indicators/{code}/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/v1/events/top", s.handleTopEvents)
	s.mux.HandleFunc("GET /api/v1/scenarios", s.handleScenarios)
	s.mux.HandleFunc("GET /api/v1/forecasts/{scenario}", s.handleForecast)
	s.mux.HandleFunc("GET /api/v1/forecasts/{scenario}/projection", s.handleProjection)
	s.mux.HandleFunc("GET /api/v1/forecasts/{scenario}/download", s.handleDownload)

	s.mux.HandleFunc("GET /charts/trend/{code}", s.handleTrendChart)
	s.mux.HandleFunc("GET /charts/events/{code}", s.handleEventChart)
	s.mux.HandleFunc("GET /charts/forecast/{scenario}", s.handleForecastChart)
	s.mux.HandleFunc("GET /charts/projection/{scenario}", s.handleProjectionChart)
}

// Handler exposes the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Serve() error                       { return s.server.ListenAndServe() }
func (s *Server) Shutdown(ctx context.Context) error { return s.server.Shutdown(ctx) }

const requestIDHeader = "X-Request-ID"

// withRequestID tags each request with an ID, logs it and records latency by
// matched route pattern.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		dur := time.Since(start)
		s.metrics.ObserveRequest(route, dur)
		if route != "GET /metrics" && route != "GET /healthz" {
			log.Printf("%s %s %s -> %d in %s", id, r.Method, r.URL.RequestURI(), rec.status, dur.Truncate(time.Microsecond))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
