package store

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"time-value-analyser/fi-dashboard/internal/model"
)

func obs(code string, year int, gender string, v float64) model.Observation {
	return model.Observation{
		IndicatorCode: code,
		Date:          time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
		Gender:        gender,
		Value:         v,
	}
}

func link(parent, related string, mag float64) model.ImpactLink {
	return model.ImpactLink{ParentID: parent, RelatedIndicator: related, Magnitude: mag}
}

func forecastTable() *model.ForecastTable {
	return &model.ForecastTable{
		Years:     []int{2025, 2026, 2027},
		Scenarios: []string{"baseline", "optimistic"},
		Values: map[string][]float64{
			"baseline":   {49.0, 52.0, 55.0},
			"optimistic": {51.0, 58.0, 62.5},
		},
	}
}

func TestLatestValueAveragesLatestYear(t *testing.T) {
	s := New([]model.Observation{
		obs("ACC", 2022, "all", 30),
		obs("ACC", 2023, "all", 35),
		obs("ACC", 2023, "female", 33),
	}, nil, nil)

	v, err := s.LatestValue("ACC", "")
	require.NoError(t, err)
	assert.InDelta(t, 34.0, v, 1e-9)

	y, err := s.LatestYear("ACC")
	require.NoError(t, err)
	assert.Equal(t, 2023, y)
}

func TestLatestValueIgnoresOlderYears(t *testing.T) {
	base := []model.Observation{
		obs("ACC", 2023, "all", 35),
		obs("ACC", 2023, "female", 33),
	}
	a := New(append([]model.Observation{obs("ACC", 2019, "all", 10)}, base...), nil, nil)
	b := New(append([]model.Observation{obs("ACC", 2019, "all", 90)}, base...), nil, nil)

	va, err := a.LatestValue("ACC", "")
	require.NoError(t, err)
	vb, err := b.LatestValue("ACC", "")
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}

func TestLatestValueGenderFilter(t *testing.T) {
	s := New([]model.Observation{
		obs("ACC", 2023, "all", 35),
		obs("ACC", 2023, "female", 33),
		obs("ACC", 2023, "male", 41),
	}, nil, nil)

	v, err := s.LatestValue("ACC", "Female")
	require.NoError(t, err)
	assert.Equal(t, 33.0, v)

	_, err = s.LatestValue("ACC", "urban")
	assert.ErrorIs(t, err, ErrNoDataForPeriod)
}

func TestLatestValueNoData(t *testing.T) {
	s := New([]model.Observation{
		obs("ACC", 2021, "all", 46),
		obs("ACC", 2024, "all", math.NaN()),
	}, nil, nil)

	_, err := s.LatestValue("ACC", "")
	assert.ErrorIs(t, err, ErrNoDataForPeriod)

	_, err = s.LatestValue("NOPE", "")
	assert.ErrorIs(t, err, ErrUnknownIndicator)
	_, err = s.LatestYear("NOPE")
	assert.ErrorIs(t, err, ErrUnknownIndicator)
}

func TestTopEvents(t *testing.T) {
	s := New(nil, []model.ImpactLink{
		link("E1", "ACC", 5),
		link("E2", "ACC", 12),
		link("E1", "USG", 4),
		link("E3", "ACC", math.NaN()),
		link("E4", "ACC", -3),
	}, nil)

	top, err := s.TopEvents(2)
	require.NoError(t, err)
	assert.Equal(t, []model.EventTotal{
		{ParentID: "E2", TotalMagnitude: 12},
		{ParentID: "E1", TotalMagnitude: 9},
	}, top)

	all, err := s.TopEvents(10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "E3", all[2].ParentID)
	assert.Equal(t, 0.0, all[2].TotalMagnitude)
	assert.Equal(t, "E4", all[3].ParentID)
}

func TestTopEventsTiesKeepFirstOccurrence(t *testing.T) {
	s := New(nil, []model.ImpactLink{
		link("B", "ACC", 3),
		link("A", "ACC", 3),
		link("C", "ACC", 3),
	}, nil)

	top, err := s.TopEvents(3)
	require.NoError(t, err)
	ids := []string{top[0].ParentID, top[1].ParentID, top[2].ParentID}
	assert.Equal(t, []string{"B", "A", "C"}, ids)
}

func TestTopEventsInvalidLimit(t *testing.T) {
	s := New(nil, nil, nil)
	for _, limit := range []int{0, -1} {
		_, err := s.TopEvents(limit)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	}
	top, err := s.TopEvents(5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestSeriesForIndicator(t *testing.T) {
	s := New([]model.Observation{
		obs("ACC", 2014, "all", 22),
		obs("USG", 2021, "all", 19),
		obs("ACC", 2017, "all", 35),
		obs("ACC", 2017, "female", 29),
	}, nil, nil)

	series, err := s.SeriesForIndicator("ACC")
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, 2014, series[0].Date.Year())
	assert.Equal(t, "female", series[2].Gender)

	series, err = s.SeriesForIndicator("NOPE")
	assert.ErrorIs(t, err, ErrUnknownIndicator)
	assert.NotNil(t, series)
	assert.Empty(t, series)

	assert.Equal(t, []string{"ACC", "USG"}, s.Indicators())
}

func TestEventsForIndicator(t *testing.T) {
	s := New([]model.Observation{obs("ACC", 2024, "all", 49)}, []model.ImpactLink{
		link("E1", "ACC", 5),
		link("E2", "USG", 1),
		link("E3", "ACC", 2),
	}, nil)

	links := s.EventsForIndicator("ACC")
	require.Len(t, links, 2)
	assert.Equal(t, "E1", links[0].ParentID)
	assert.Equal(t, "E3", links[1].ParentID)

	none := s.EventsForIndicator("MISSING")
	assert.NotNil(t, none)
	assert.Empty(t, none)

	assert.Equal(t, 1, s.Stats().OrphanLinks)
}

func TestForecastColumn(t *testing.T) {
	s := New(nil, nil, forecastTable())

	pts, err := s.ForecastColumn("optimistic")
	require.NoError(t, err)
	assert.Equal(t, []model.ForecastPoint{
		{Year: 2025, Value: 51.0},
		{Year: 2026, Value: 58.0},
		{Year: 2027, Value: 62.5},
	}, pts)

	_, err = s.ForecastColumn("doomsday")
	assert.ErrorIs(t, err, ErrUnknownScenario)

	assert.Equal(t, []string{"baseline", "optimistic"}, s.Scenarios())
}

func TestProjection(t *testing.T) {
	s := New(nil, nil, forecastTable())

	p, err := s.Projection("optimistic", 60)
	require.NoError(t, err)
	assert.Equal(t, 2027, p.ReachedYear)
	assert.InDelta(t, 9.0, p.Points[0].Gap, 1e-9)
	assert.InDelta(t, -2.5, p.Points[2].Gap, 1e-9)

	p, err = s.Projection("baseline", 60)
	require.NoError(t, err)
	assert.Zero(t, p.ReachedYear)

	_, err = s.Projection("doomsday", 60)
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestEmptyStore(t *testing.T) {
	s := New(nil, nil, nil)
	assert.Empty(t, s.Indicators())
	assert.Empty(t, s.Scenarios())
	assert.Equal(t, Stats{}, s.Stats())
}
