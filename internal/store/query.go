package store

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"time-value-analyser/fi-dashboard/internal/model"
)

// Indicators lists the indicator codes present in the time series, sorted.
func (s *Store) Indicators() []string {
	return append([]string(nil), s.indicators...)
}

// Scenarios lists forecast scenario names in file column order.
func (s *Store) Scenarios() []string {
	return append([]string(nil), s.forecasts.Scenarios...)
}

// LatestYear is the most recent observation year for code.
func (s *Store) LatestYear(code string) (int, error) {
	y, ok := s.latestYear[code]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownIndicator, code)
	}
	return y, nil
}

// LatestValue returns the mean value of code over its most recent year.
// When gender is non-empty only rows of that gender are averaged; the year
// itself is still the indicator's latest across all genders. Rows without a
// value are skipped. ErrNoDataForPeriod means nothing was left to average.
func (s *Store) LatestValue(code, gender string) (float64, error) {
	year, err := s.LatestYear(code)
	if err != nil {
		return 0, err
	}
	var sum float64
	var n int
	for _, i := range s.byIndicator[code] {
		o := s.observations[i]
		if o.Date.Year() != year || !o.HasValue() {
			continue
		}
		if gender != "" && !strings.EqualFold(o.Gender, gender) {
			continue
		}
		sum += o.Value
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s in %d", ErrNoDataForPeriod, code, year)
	}
	return sum / float64(n), nil
}

// TopEvents sums impact magnitude per parent event and returns the limit
// largest totals, descending. Equal totals keep first-occurrence order.
func (s *Store) TopEvents(limit int) ([]model.EventTotal, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	pos := make(map[string]int)
	var totals []model.EventTotal
	for _, l := range s.links {
		i, ok := pos[l.ParentID]
		if !ok {
			i = len(totals)
			pos[l.ParentID] = i
			totals = append(totals, model.EventTotal{ParentID: l.ParentID})
		}
		if !math.IsNaN(l.Magnitude) {
			totals[i].TotalMagnitude += l.Magnitude
		}
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].TotalMagnitude > totals[j].TotalMagnitude
	})
	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

// SeriesForIndicator returns every observation of code in source order.
func (s *Store) SeriesForIndicator(code string) ([]model.Observation, error) {
	idx, ok := s.byIndicator[code]
	if !ok {
		return []model.Observation{}, fmt.Errorf("%w: %s", ErrUnknownIndicator, code)
	}
	out := make([]model.Observation, len(idx))
	for k, i := range idx {
		out[k] = s.observations[i]
	}
	return out, nil
}

// EventsForIndicator returns the impact links attached to code. The result is
// empty, never nil, when there are none.
func (s *Store) EventsForIndicator(code string) []model.ImpactLink {
	idx := s.byRelated[code]
	out := make([]model.ImpactLink, len(idx))
	for k, i := range idx {
		out[k] = s.links[i]
	}
	return out
}

// ForecastColumn returns the year-ordered series of one scenario.
func (s *Store) ForecastColumn(scenario string) ([]model.ForecastPoint, error) {
	vals, ok := s.forecasts.Values[scenario]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, scenario)
	}
	out := make([]model.ForecastPoint, len(vals))
	for i, v := range vals {
		out[i] = model.ForecastPoint{Year: s.forecasts.Years[i], Value: v}
	}
	return out, nil
}

// Projection compares a scenario against a target percentage.
func (s *Store) Projection(scenario string, target float64) (model.Projection, error) {
	pts, err := s.ForecastColumn(scenario)
	if err != nil {
		return model.Projection{}, err
	}
	p := model.Projection{Scenario: scenario, Target: target, Points: make([]model.ProjectionPoint, len(pts))}
	for i, fp := range pts {
		p.Points[i] = model.ProjectionPoint{Year: fp.Year, Value: fp.Value, Gap: target - fp.Value}
		if p.ReachedYear == 0 && fp.Value >= target {
			p.ReachedYear = fp.Year
		}
	}
	return p, nil
}
