// Package source fetches and parses the three enriched input tables.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"time-value-analyser/fi-dashboard/internal/config"
)

// Fetch reads the whole input named by src, from disk or over HTTP.
func Fetch(ctx context.Context, client *http.Client, src config.Source) ([]byte, error) {
	switch {
	case src.Path != "":
		return os.ReadFile(src.Path)
	case src.URL != "":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
		if err != nil {
			return nil, err
		}
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	default:
		return nil, errors.New("either path or url must be provided")
	}
}

// table wraps a csv.Reader with a header index.
type table struct {
	r      *csv.Reader
	header []string
	index  map[string]int
}

func newTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return &table{r: cr, header: header, index: idx}, nil
}

// columns resolves required column names to positions.
func (t *table) columns(names ...string) ([]int, error) {
	out := make([]int, len(names))
	var missing []string
	for i, n := range names {
		pos, ok := t.index[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		out[i] = pos
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing column(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// next returns the next record and its line number, or io.EOF.
func (t *table) next() ([]string, int, error) {
	rec, err := t.r.Read()
	if err != nil {
		return nil, 0, err
	}
	line, _ := t.r.FieldPos(0)
	return rec, line, nil
}

func cell(rec []string, pos int) string {
	if pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

// RowError locates a bad cell in an input file.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
