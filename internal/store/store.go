// Package store holds the loaded indicator, impact and forecast tables and
// answers read-only queries over them.
//
// A Store is built once and never mutated, so it is safe for concurrent use
// without locking.
package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"time-value-analyser/fi-dashboard/internal/config"
	"time-value-analyser/fi-dashboard/internal/model"
	"time-value-analyser/fi-dashboard/internal/source"
	"time-value-analyser/fi-dashboard/internal/util"
)

type Store struct {
	observations []model.Observation
	links        []model.ImpactLink
	forecasts    *model.ForecastTable

	byIndicator map[string][]int // indicator code -> observation positions
	latestYear  map[string]int
	byRelated   map[string][]int // related indicator -> link positions
	indicators  []string
	orphans     int

	manifest Manifest
}

// New indexes already-parsed tables. A nil forecast table is treated as empty.
func New(obs []model.Observation, links []model.ImpactLink, ft *model.ForecastTable) *Store {
	if ft == nil {
		ft = &model.ForecastTable{Values: map[string][]float64{}}
	}
	s := &Store{
		observations: obs,
		links:        links,
		forecasts:    ft,
		byIndicator:  make(map[string][]int),
		latestYear:   make(map[string]int),
		byRelated:    make(map[string][]int),
	}
	for i, o := range obs {
		if _, ok := s.byIndicator[o.IndicatorCode]; !ok {
			s.indicators = append(s.indicators, o.IndicatorCode)
		}
		s.byIndicator[o.IndicatorCode] = append(s.byIndicator[o.IndicatorCode], i)
		if y, ok := s.latestYear[o.IndicatorCode]; !ok || o.Date.Year() > y {
			s.latestYear[o.IndicatorCode] = o.Date.Year()
		}
	}
	sort.Strings(s.indicators)
	for i, l := range links {
		s.byRelated[l.RelatedIndicator] = append(s.byRelated[l.RelatedIndicator], i)
		if _, known := s.byIndicator[l.RelatedIndicator]; !known {
			s.orphans++
		}
	}
	return s
}

// Load fetches and parses the three inputs in parallel. Any malformed input
// fails the whole load.
func Load(ctx context.Context, cfg config.Data) (*Store, error) {
	client := util.NewHTTPClient(cfg.Timeout, cfg.UserAgent)

	var (
		obs   []model.Observation
		links []model.ImpactLink
		ft    *model.ForecastTable
		ins   [3]InputManifest
	)
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(slot int, name string, src config.Source, parse func([]byte) (int, error)) {
		g.Go(func() error {
			b, err := source.Fetch(gctx, client, src)
			if err != nil {
				return fmt.Errorf("load %s (%s): %w", name, src, err)
			}
			rows, err := parse(b)
			if err != nil {
				return fmt.Errorf("parse %s (%s): %w", name, src, err)
			}
			sum := sha256.Sum256(b)
			ins[slot] = InputManifest{Name: name, Source: src.String(), SHA256: hex.EncodeToString(sum[:]), Rows: rows}
			return nil
		})
	}
	fetch(0, "indicators", cfg.Indicators, func(b []byte) (n int, err error) {
		obs, err = source.ReadIndicators(bytes.NewReader(b), source.ReadOptions{AllowOutOfRange: cfg.AllowOutOfRange})
		return len(obs), err
	})
	fetch(1, "impacts", cfg.Impacts, func(b []byte) (n int, err error) {
		links, err = source.ReadImpacts(bytes.NewReader(b))
		return len(links), err
	})
	fetch(2, "forecasts", cfg.Forecasts, func(b []byte) (n int, err error) {
		ft, err = source.ReadForecasts(bytes.NewReader(b))
		if ft != nil {
			n = len(ft.Years)
		}
		return n, err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := New(obs, links, ft)
	s.manifest = Manifest{LoadedAt: time.Now().UTC(), Inputs: ins[:]}
	log.Printf("loaded %d observations (%d indicators), %d impact links, %d forecast years x %d scenarios",
		len(obs), len(s.indicators), len(links), len(ft.Years), len(ft.Scenarios))
	if s.orphans > 0 {
		log.Printf("warning: %d impact links reference unknown indicators", s.orphans)
	}
	return s, nil
}

// Manifest describes the inputs this store was loaded from.
func (s *Store) Manifest() Manifest { return s.manifest }

// Stats reports table sizes for metrics.
func (s *Store) Stats() Stats {
	return Stats{
		Observations: len(s.observations),
		Indicators:   len(s.indicators),
		ImpactLinks:  len(s.links),
		OrphanLinks:  s.orphans,
		Scenarios:    len(s.forecasts.Scenarios),
		ForecastYrs:  len(s.forecasts.Years),
	}
}

type Stats struct {
	Observations int
	Indicators   int
	ImpactLinks  int
	OrphanLinks  int
	Scenarios    int
	ForecastYrs  int
}
