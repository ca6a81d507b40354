package source

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"time-value-analyser/fi-dashboard/internal/model"
)

// ReadOptions tunes validation of the indicator table.
type ReadOptions struct {
	AllowOutOfRange bool
}

// ReadIndicators parses the indicator time series. Columns beyond
// indicator_code, observation_date, gender and value_numeric are ignored.
func ReadIndicators(r io.Reader, opts ReadOptions) ([]model.Observation, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}
	names := []string{"indicator_code", "observation_date", "gender", "value_numeric"}
	cols, err := t.columns(names...)
	if err != nil {
		return nil, err
	}
	var out []model.Observation
	for {
		rec, line, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		code := cell(rec, cols[0])
		if code == "" {
			return nil, &RowError{Line: line, Column: names[0], Err: errors.New("empty indicator code")}
		}
		date, err := parseDate(cell(rec, cols[1]))
		if err != nil {
			return nil, &RowError{Line: line, Column: names[1], Err: err}
		}
		val, err := parseOptionalFloat(cell(rec, cols[3]))
		if err != nil {
			return nil, &RowError{Line: line, Column: names[3], Err: err}
		}
		if !opts.AllowOutOfRange && !math.IsNaN(val) && (val < 0 || val > 100) {
			return nil, &RowError{Line: line, Column: names[3], Err: fmt.Errorf("value %g outside [0,100]", val)}
		}
		gender := cell(rec, cols[2])
		if gender == "" {
			gender = model.GenderAll
		}
		out = append(out, model.Observation{
			IndicatorCode: code,
			Date:          date,
			Gender:        gender,
			Value:         val,
		})
	}
	return out, nil
}

// ReadImpacts parses the event-impact table. An empty event date is kept as
// the zero time; an empty magnitude is kept as NaN.
func ReadImpacts(r io.Reader) ([]model.ImpactLink, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}
	names := []string{"parent_id", "related_indicator", "observation_date_event", "impact_magnitude"}
	cols, err := t.columns(names...)
	if err != nil {
		return nil, err
	}
	var out []model.ImpactLink
	for {
		rec, line, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		parent := cell(rec, cols[0])
		if parent == "" {
			return nil, &RowError{Line: line, Column: names[0], Err: errors.New("empty parent id")}
		}
		link := model.ImpactLink{
			ParentID:         parent,
			RelatedIndicator: cell(rec, cols[1]),
		}
		if raw := cell(rec, cols[2]); raw != "" {
			if link.EventDate, err = parseDate(raw); err != nil {
				return nil, &RowError{Line: line, Column: names[2], Err: err}
			}
		}
		if link.Magnitude, err = parseOptionalFloat(cell(rec, cols[3])); err != nil {
			return nil, &RowError{Line: line, Column: names[3], Err: err}
		}
		out = append(out, link)
	}
	return out, nil
}

// ReadForecasts parses a year-indexed table: the first column is the year,
// every other column is a named scenario.
func ReadForecasts(r io.Reader) (*model.ForecastTable, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}
	if len(t.header) < 2 {
		return nil, errors.New("forecast table needs a year column and at least one scenario")
	}
	ft := &model.ForecastTable{Values: make(map[string][]float64, len(t.header)-1)}
	for _, h := range t.header[1:] {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, errors.New("empty scenario name in header")
		}
		if _, dup := ft.Values[name]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", name)
		}
		ft.Scenarios = append(ft.Scenarios, name)
		ft.Values[name] = nil
	}
	indexName := strings.TrimSpace(t.header[0])
	if indexName == "" {
		indexName = "year"
	}
	for {
		rec, line, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != len(t.header) {
			return nil, &RowError{Line: line, Column: indexName, Err: fmt.Errorf("expected %d fields, got %d", len(t.header), len(rec))}
		}
		year, err := parseYear(rec[0])
		if err != nil {
			return nil, &RowError{Line: line, Column: indexName, Err: err}
		}
		if n := len(ft.Years); n > 0 && year <= ft.Years[n-1] {
			return nil, &RowError{Line: line, Column: indexName, Err: fmt.Errorf("year %d not after %d", year, ft.Years[n-1])}
		}
		ft.Years = append(ft.Years, year)
		for i, name := range ft.Scenarios {
			v, err := parseOptionalFloat(rec[i+1])
			if err != nil || math.IsNaN(v) {
				if err == nil {
					err = errors.New("missing value")
				}
				return nil, &RowError{Line: line, Column: name, Err: err}
			}
			ft.Values[name] = append(ft.Values[name], v)
		}
	}
	return ft, nil
}
