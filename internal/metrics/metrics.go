package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"time-value-analyser/fi-dashboard/internal/store"
)

// Metrics owns a dedicated registry so several instances can coexist in
// one process (tests construct many).
type Metrics struct {
	reg *prometheus.Registry

	rows         *prometheus.GaugeVec
	loadedAt     prometheus.Gauge
	orphanLinks  prometheus.Gauge
	queries      *prometheus.CounterVec
	queryDur     *prometheus.HistogramVec
	chartsServed *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}
	m.rows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fi_dashboard",
		Name:      "table_rows",
		Help:      "Rows loaded per input table",
	}, []string{"table"})
	m.loadedAt = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fi_dashboard",
		Name:      "loaded_timestamp_seconds",
		Help:      "Unix timestamp of the data load",
	})
	m.orphanLinks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fi_dashboard",
		Name:      "orphan_impact_links",
		Help:      "Impact links whose related indicator is not in the time series",
	})
	m.queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fi_dashboard",
		Name:      "queries_total",
		Help:      "Queries served by operation and outcome",
	}, []string{"op", "outcome"})
	m.queryDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fi_dashboard",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"route"})
	m.chartsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fi_dashboard",
		Name:      "charts_total",
		Help:      "Charts served by kind and cache result",
	}, []string{"kind", "cache"})

	m.reg.MustRegister(
		m.rows, m.loadedAt, m.orphanLinks,
		m.queries, m.queryDur, m.chartsServed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLoad publishes table sizes of a freshly loaded store.
func (m *Metrics) ObserveLoad(s *store.Store) {
	st := s.Stats()
	m.rows.WithLabelValues("indicators").Set(float64(st.Observations))
	m.rows.WithLabelValues("impacts").Set(float64(st.ImpactLinks))
	m.rows.WithLabelValues("forecasts").Set(float64(st.ForecastYrs))
	m.orphanLinks.Set(float64(st.OrphanLinks))
	m.loadedAt.Set(float64(s.Manifest().LoadedAt.Unix()))
}

// Query counts one query; outcome is "ok", "no_data", "not_found" or "error".
func (m *Metrics) Query(op, outcome string) {
	m.queries.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Chart(kind string, hit bool) {
	c := "miss"
	if hit {
		c = "hit"
	}
	m.chartsServed.WithLabelValues(kind, c).Inc()
}

func (m *Metrics) ObserveRequest(route string, d time.Duration) {
	m.queryDur.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
