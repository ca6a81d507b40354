package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// parseDate accepts the layouts the enrichment pipeline is known to emit.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date: %q", s)
}

// parseOptionalFloat maps an empty cell (or pandas "nan") to NaN. Infinite
// values are rejected.
func parseOptionalFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number: %q", s)
	}
	return v, nil
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	// pandas may write a float index ("2025.0") or a date index
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return int(f), nil
	}
	if t, err := parseDate(s); err == nil {
		return t.Year(), nil
	}
	return 0, fmt.Errorf("unsupported year: %q", s)
}
