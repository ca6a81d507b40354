package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"time-value-analyser/fi-dashboard/internal/export"
	"time-value-analyser/fi-dashboard/internal/model"
	"time-value-analyser/fi-dashboard/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes before writing the header so an encoding failure still
// reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorBody{Error: "encode response"})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// fail maps query errors to HTTP statuses and counts the outcome.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	outcome := "error"
	switch {
	case errors.Is(err, store.ErrUnknownIndicator), errors.Is(err, store.ErrUnknownScenario):
		status, outcome = http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrInvalidLimit), errors.Is(err, errBadParam):
		status, outcome = http.StatusBadRequest, "bad_request"
	default:
		log.Printf("%s: %v", op, err)
	}
	s.metrics.Query(op, outcome)
	writeJSON(w, status, errorBody{Error: err.Error()})
}

var errBadParam = errors.New("bad parameter")

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, name, raw)
	}
	return v, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, name, raw)
	}
	return v, nil
}

// latestValue is a KPI reading; Value is nil when there is no data.
type latestValue struct {
	Indicator string   `json:"indicator"`
	Label     string   `json:"label,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Year      int      `json:"year,omitempty"`
	Value     *float64 `json:"value"`
	Status    string   `json:"status"` // ok | no_data | unknown_indicator
}

func (s *Server) latest(code, gender string) latestValue {
	out := latestValue{Indicator: code, Gender: gender, Status: "ok"}
	year, err := s.store.LatestYear(code)
	if err != nil {
		out.Status = "unknown_indicator"
		s.metrics.Query("latest_value", "not_found")
		return out
	}
	out.Year = year
	v, err := s.store.LatestValue(code, gender)
	if err != nil {
		out.Status = "no_data"
		s.metrics.Query("latest_value", "no_data")
		return out
	}
	out.Value = &v
	s.metrics.Query("latest_value", "ok")
	return out
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Manifest store.Manifest `json:"manifest"`
		Stats    store.Stats    `json:"stats"`
	}{s.store.Manifest(), s.store.Stats()})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	kpis := make([]latestValue, 0, len(s.dash.KPIs))
	for _, k := range s.dash.KPIs {
		lv := s.latest(k.Code, k.Gender)
		lv.Label = k.Label
		kpis = append(kpis, lv)
	}
	top, err := s.store.TopEvents(s.dash.TopEvents)
	if err != nil {
		s.fail(w, "top_events", err)
		return
	}
	s.metrics.Query("top_events", "ok")
	writeJSON(w, http.StatusOK, struct {
		KPIs      []latestValue      `json:"kpis"`
		TopEvents []model.EventTotal `json:"top_events"`
	}{kpis, top})
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Indicators []string `json:"indicators"`
		Trend      []string `json:"trend"`
	}{s.store.Indicators(), s.dash.TrendIndicators})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	lv := s.latest(r.PathValue("code"), r.URL.Query().Get("gender"))
	status := http.StatusOK
	if lv.Status == "unknown_indicator" {
		status = http.StatusNotFound
	}
	writeJSON(w, status, lv)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	obs, err := s.store.SeriesForIndicator(code)
	if err != nil {
		s.fail(w, "series", err)
		return
	}
	s.metrics.Query("series", "ok")
	writeJSON(w, http.StatusOK, struct {
		Indicator    string              `json:"indicator"`
		Observations []model.Observation `json:"observations"`
	}{code, obs})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	links := s.store.EventsForIndicator(code)
	outcome := "ok"
	if len(links) == 0 {
		outcome = "no_data"
	}
	s.metrics.Query("events", outcome)
	writeJSON(w, http.StatusOK, struct {
		Indicator string             `json:"indicator"`
		Events    []model.ImpactLink `json:"events"`
	}{code, links})
}

func (s *Server) handleTopEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", s.dash.TopEvents)
	if err != nil {
		s.fail(w, "top_events", err)
		return
	}
	top, err := s.store.TopEvents(limit)
	if err != nil {
		s.fail(w, "top_events", err)
		return
	}
	s.metrics.Query("top_events", "ok")
	writeJSON(w, http.StatusOK, struct {
		Limit  int                `json:"limit"`
		Events []model.EventTotal `json:"events"`
	}{limit, top})
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Indicator string   `json:"indicator"`
		Scenarios []string `json:"scenarios"`
	}{s.dash.ForecastIndicator, s.store.Scenarios()})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("scenario")
	pts, err := s.store.ForecastColumn(name)
	if err != nil {
		s.fail(w, "forecast", err)
		return
	}
	s.metrics.Query("forecast", "ok")
	writeJSON(w, http.StatusOK, struct {
		Scenario string                `json:"scenario"`
		Points   []model.ForecastPoint `json:"points"`
	}{name, pts})
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	target, err := floatParam(r, "target", s.dash.Target)
	if err != nil {
		s.fail(w, "projection", err)
		return
	}
	pr, err := s.store.Projection(r.PathValue("scenario"), target)
	if err != nil {
		s.fail(w, "projection", err)
		return
	}
	s.metrics.Query("projection", "ok")
	writeJSON(w, http.StatusOK, pr)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("scenario")
	pts, err := s.store.ForecastColumn(name)
	if err != nil {
		s.fail(w, "download", err)
		return
	}
	var (
		buf         bytes.Buffer
		ext         string
		contentType string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		ext, contentType = "csv", "text/csv"
		err = export.WriteForecastCSV(&buf, name, pts)
	case "xlsx":
		ext, contentType = "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteForecastXLSX(&buf, name, pts)
	default:
		s.fail(w, "download", fmt.Errorf("%w: format=%q", errBadParam, format))
		return
	}
	if err != nil {
		s.fail(w, "download", err)
		return
	}
	s.metrics.Query("download", "ok")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "forecasts_"+name+"."+ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
