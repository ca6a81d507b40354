package model

import (
	"encoding/json"
	"math"
	"time"
)

// GenderAll is the sentinel used by the enriched dataset for unsplit rows.
const GenderAll = "all"

// Observation is one row of the indicator time series.
type Observation struct {
	IndicatorCode string    `json:"indicator_code"`
	Date          time.Time `json:"observation_date"`
	Gender        string    `json:"gender"`
	Value         float64   `json:"-"` // NaN when absent
}

// HasValue reports whether the row carries a numeric value.
func (o Observation) HasValue() bool { return !math.IsNaN(o.Value) }

// ImpactLink is one estimated effect of an event on an indicator.
type ImpactLink struct {
	ParentID         string    `json:"parent_id"`
	RelatedIndicator string    `json:"related_indicator"`
	EventDate        time.Time `json:"observation_date_event"`
	Magnitude        float64   `json:"-"` // NaN when absent
}

// EventTotal is the summed impact magnitude of one event.
type EventTotal struct {
	ParentID       string  `json:"parent_id"`
	TotalMagnitude float64 `json:"total_magnitude"`
}

type ForecastPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// ForecastTable holds one value per (year, scenario). Years ascend strictly
// and every scenario has exactly len(Years) values.
type ForecastTable struct {
	Years     []int
	Scenarios []string // column order as read
	Values    map[string][]float64
}

type ProjectionPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
	Gap   float64 `json:"gap_to_target"` // target - value, <= 0 once met
}

type Projection struct {
	Scenario string            `json:"scenario"`
	Target   float64           `json:"target"`
	Points   []ProjectionPoint `json:"points"`
	// First year the forecast reaches the target, 0 if never.
	ReachedYear int `json:"reached_year,omitempty"`
}

const dateLayout = "2006-01-02"

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		IndicatorCode string   `json:"indicator_code"`
		Date          string   `json:"observation_date"`
		Gender        string   `json:"gender"`
		Value         *float64 `json:"value_numeric"`
	}{o.IndicatorCode, o.Date.Format(dateLayout), o.Gender, nullable(o.Value)})
}

func (l ImpactLink) MarshalJSON() ([]byte, error) {
	var date string
	if !l.EventDate.IsZero() {
		date = l.EventDate.Format(dateLayout)
	}
	return json.Marshal(struct {
		ParentID         string   `json:"parent_id"`
		RelatedIndicator string   `json:"related_indicator"`
		EventDate        string   `json:"observation_date_event,omitempty"`
		Magnitude        *float64 `json:"impact_magnitude"`
	}{l.ParentID, l.RelatedIndicator, date, nullable(l.Magnitude)})
}
