package source

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"time-value-analyser/fi-dashboard/internal/config"
)

const indicatorsCSV = `record_id,indicator_code,indicator,observation_date,gender,value_numeric,source_name
REC_1,ACC_OWNERSHIP,Account ownership,2021-12-31,all,46,Findex
REC_2,ACC_OWNERSHIP,Account ownership,2024-11-29,female,36.5,Findex
REC_3,USG_DIGITAL_PAYMENT,Digital payments,2024-06-30T00:00:00Z,,,NBE
`

func TestReadIndicators(t *testing.T) {
	obs, err := ReadIndicators(strings.NewReader(indicatorsCSV), ReadOptions{})
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, "ACC_OWNERSHIP", obs[0].IndicatorCode)
	assert.Equal(t, time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC), obs[0].Date)
	assert.Equal(t, 46.0, obs[0].Value)
	assert.Equal(t, "female", obs[1].Gender)
	assert.Equal(t, "all", obs[2].Gender, "empty gender becomes the all sentinel")
	assert.True(t, math.IsNaN(obs[2].Value))
	assert.False(t, obs[2].HasValue())
}

func TestReadIndicatorsRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"missing column": "indicator_code,observation_date,gender\nACC,2024-01-01,all\n",
		"bad date":       "indicator_code,observation_date,gender,value_numeric\nACC,31/12/2024,all,4\n",
		"bad number":     "indicator_code,observation_date,gender,value_numeric\nACC,2024-01-01,all,four\n",
		"out of range":   "indicator_code,observation_date,gender,value_numeric\nACC,2024-01-01,all,140\n",
		"empty code":     "indicator_code,observation_date,gender,value_numeric\n,2024-01-01,all,4\n",
		"empty file":     "",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadIndicators(strings.NewReader(doc), ReadOptions{})
			assert.Error(t, err)
		})
	}
}

func TestReadIndicatorsRowErrorLocation(t *testing.T) {
	doc := "indicator_code,observation_date,gender,value_numeric\nACC,2024-01-01,all,4\nACC,nope,all,5\n"
	_, err := ReadIndicators(strings.NewReader(doc), ReadOptions{})

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Line)
	assert.Equal(t, "observation_date", rowErr.Column)
}

func TestReadIndicatorsAllowOutOfRange(t *testing.T) {
	doc := "indicator_code,observation_date,gender,value_numeric\nPOP,2024-01-01,all,1200\n"
	obs, err := ReadIndicators(strings.NewReader(doc), ReadOptions{AllowOutOfRange: true})
	require.NoError(t, err)
	assert.Equal(t, 1200.0, obs[0].Value)

	doc = "indicator_code,observation_date,gender,value_numeric\nPOP,2024-01-01,all,inf\n"
	_, err = ReadIndicators(strings.NewReader(doc), ReadOptions{AllowOutOfRange: true})
	assert.Error(t, err)
}

func TestReadImpacts(t *testing.T) {
	doc := `parent_id,related_indicator,observation_date_event,impact_magnitude,impact_direction
EVT_TELEBIRR,ACC_OWNERSHIP,2021-05-17,15,increase
EVT_MPESA,USG_DIGITAL_PAYMENT,,-2.5,decrease
EVT_FAYDA,ACC_OWNERSHIP,2024-01-01,,increase
`
	links, err := ReadImpacts(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, links, 3)

	assert.Equal(t, "EVT_TELEBIRR", links[0].ParentID)
	assert.Equal(t, 15.0, links[0].Magnitude)
	assert.True(t, links[1].EventDate.IsZero())
	assert.Equal(t, -2.5, links[1].Magnitude)
	assert.True(t, math.IsNaN(links[2].Magnitude))

	_, err = ReadImpacts(strings.NewReader("parent_id,related_indicator,observation_date_event,impact_magnitude\nE1,ACC,yesterday,1\n"))
	assert.Error(t, err)

	for _, mag := range []string{"inf", "-Inf", "Infinity"} {
		_, err = ReadImpacts(strings.NewReader("parent_id,related_indicator,observation_date_event,impact_magnitude\nE1,ACC,2024-01-01," + mag + "\n"))
		var rowErr *RowError
		require.True(t, errors.As(err, &rowErr), mag)
		assert.Equal(t, "impact_magnitude", rowErr.Column)
	}
}

func TestReadForecasts(t *testing.T) {
	doc := ",baseline,optimistic,pessimistic\n2025,49.1,51.0,47.2\n2026,52.3,55.8,49.0\n2027.0,55.0,60.4,50.9\n"
	ft, err := ReadForecasts(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []int{2025, 2026, 2027}, ft.Years)
	assert.Equal(t, []string{"baseline", "optimistic", "pessimistic"}, ft.Scenarios)
	assert.Equal(t, []float64{51.0, 55.8, 60.4}, ft.Values["optimistic"])
}

func TestReadForecastsRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"no scenarios":   "year\n2025\n",
		"not increasing": "year,base\n2026,50\n2025,51\n",
		"duplicate year": "year,base\n2025,50\n2025,51\n",
		"missing value":  "year,base,high\n2025,50,\n",
		"short row":      "year,base,high\n2025,50\n",
		"duplicate name": "year,base,base\n2025,50,51\n",
		"bad year":       "year,base\nnext,50\n",
		"empty scenario": "year,,high\n2025,50,51\n",
		"infinite value": "year,base\n2025,Infinity\n",
		"negative inf":   "year,base,high\n2025,50,-inf\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadForecasts(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	b, err := Fetch(context.Background(), nil, config.Source{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(b))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("x,y\n"))
	}))
	defer srv.Close()

	b, err = Fetch(context.Background(), srv.Client(), config.Source{URL: srv.URL + "/ok.csv"})
	require.NoError(t, err)
	assert.Equal(t, "x,y\n", string(b))

	_, err = Fetch(context.Background(), srv.Client(), config.Source{URL: srv.URL + "/missing.csv"})
	assert.Error(t, err)

	_, err = Fetch(context.Background(), nil, config.Source{})
	assert.Error(t, err)
}
