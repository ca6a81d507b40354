package server

import (
	"errors"
	"net/http"
	"strconv"

	"time-value-analyser/fi-dashboard/internal/render"
)

// serveChart renders through the cache. Nothing to draw is 204, not an error.
func (s *Server) serveChart(w http.ResponseWriter, kind, key string, build func() ([]byte, error)) {
	png, hit, err := s.render.Cached(kind+":"+key, build)
	if errors.Is(err, render.ErrNoData) {
		s.metrics.Query("chart_"+kind, "no_data")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.fail(w, "chart_"+kind, err)
		return
	}
	s.metrics.Query("chart_"+kind, "ok")
	s.metrics.Chart(kind, hit)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	obs, err := s.store.SeriesForIndicator(code)
	if err != nil {
		s.fail(w, "chart_trend", err)
		return
	}
	s.serveChart(w, "trend", code, func() ([]byte, error) {
		return s.render.TrendChart(code, obs)
	})
}

func (s *Server) handleEventChart(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	s.serveChart(w, "events", code, func() ([]byte, error) {
		return s.render.EventChart(code, s.store.EventsForIndicator(code))
	})
}

func (s *Server) handleForecastChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("scenario")
	pts, err := s.store.ForecastColumn(name)
	if err != nil {
		s.fail(w, "chart_forecast", err)
		return
	}
	s.serveChart(w, "forecast", name, func() ([]byte, error) {
		return s.render.ForecastChart(name, pts)
	})
}

func (s *Server) handleProjectionChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("scenario")
	target, err := floatParam(r, "target", s.dash.Target)
	if err != nil {
		s.fail(w, "chart_projection", err)
		return
	}
	pr, err := s.store.Projection(name, target)
	if err != nil {
		s.fail(w, "chart_projection", err)
		return
	}
	key := name + "@" + strconv.FormatFloat(target, 'f', -1, 64)
	s.serveChart(w, "projection", key, func() ([]byte, error) {
		return s.render.ProjectionChart(pr)
	})
}
