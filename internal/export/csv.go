// Package export serializes a forecast column for download.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"time-value-analyser/fi-dashboard/internal/model"
)

// WriteForecastCSV writes a two-column table: year, then the scenario.
// Floats use the shortest representation that parses back exactly.
func WriteForecastCSV(w io.Writer, scenario string, points []model.ForecastPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", scenario}); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{strconv.Itoa(p.Year), strconv.FormatFloat(p.Value, 'f', -1, 64)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadForecastCSV parses the shape written by WriteForecastCSV and returns
// the scenario name and its points in file order.
func ReadForecastCSV(r io.Reader) (string, []model.ForecastPoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	header, err := cr.Read()
	if err == io.EOF {
		return "", nil, errors.New("empty file")
	}
	if err != nil {
		return "", nil, fmt.Errorf("read header: %w", err)
	}
	scenario := strings.TrimSpace(header[1])
	var out []model.ForecastPoint
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return "", nil, fmt.Errorf("year %q: %w", rec[0], err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return "", nil, fmt.Errorf("value %q: %w", rec[1], err)
		}
		out = append(out, model.ForecastPoint{Year: year, Value: v})
	}
	return scenario, out, nil
}
