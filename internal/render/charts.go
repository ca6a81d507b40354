// Package render binds query results to PNG charts.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"time-value-analyser/fi-dashboard/internal/config"
	"time-value-analyser/fi-dashboard/internal/model"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("render: no data")

type Renderer struct {
	width  vg.Length
	height vg.Length
	cache  *Cache
}

func New(cfg config.Charts) *Renderer {
	return &Renderer{
		width:  vg.Length(cfg.Width) * vg.Inch,
		height: vg.Length(cfg.Height) * vg.Inch,
		cache:  NewCache(cfg.MaxKeys, cfg.TTL),
	}
}

// Cached returns the chart stored under key, building and storing it on a
// miss. hit reports whether the cache served the request.
func (r *Renderer) Cached(key string, build func() ([]byte, error)) (png []byte, hit bool, err error) {
	if b, ok := r.cache.Get(key); ok {
		return b, true, nil
	}
	b, err := build()
	if err != nil {
		return nil, false, err
	}
	r.cache.Put(key, b)
	return b, false, nil
}

// TrendChart draws one line per gender, points ordered by date.
func (r *Renderer) TrendChart(code string, obs []model.Observation) ([]byte, error) {
	byGender := make(map[string]plotter.XYs)
	var genders []string
	for _, o := range obs {
		if !o.HasValue() {
			continue
		}
		if _, ok := byGender[o.Gender]; !ok {
			genders = append(genders, o.Gender)
		}
		byGender[o.Gender] = append(byGender[o.Gender], plotter.XY{X: float64(o.Date.Unix()), Y: o.Value})
	}
	if len(genders) == 0 {
		return nil, ErrNoData
	}
	sort.Strings(genders)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Historical Trend: %s", code)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "% of Adults"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())
	for i, g := range genders {
		xys := byGender[g]
		sort.SliceStable(xys, func(a, b int) bool { return xys[a].X < xys[b].X })
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("trend %s/%s: %w", code, g, err)
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(g, line, points)
	}
	p.Legend.Top = true
	return r.encode(p)
}

// EventChart draws one bar per impact link, labelled by event date.
func (r *Renderer) EventChart(code string, links []model.ImpactLink) ([]byte, error) {
	var vals plotter.Values
	var labels []string
	for _, l := range links {
		if math.IsNaN(l.Magnitude) {
			continue
		}
		vals = append(vals, l.Magnitude)
		if l.EventDate.IsZero() {
			labels = append(labels, l.ParentID)
		} else {
			labels = append(labels, l.EventDate.Format("2006-01-02"))
		}
	}
	if len(vals) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Event Impacts on %s", code)
	p.Y.Label.Text = "Impact magnitude"
	bars, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return nil, fmt.Errorf("events %s: %w", code, err)
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(plotter.NewGrid(), bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -1
	return r.encode(p)
}

// ForecastChart draws a single scenario over its years.
func (r *Renderer) ForecastChart(scenario string, points []model.ForecastPoint) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Forecast: %s", scenario)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "% of Adults"
	p.X.Tick.Marker = yearTicks{}
	p.Add(plotter.NewGrid())
	if err := addForecast(p, scenario, points); err != nil {
		return nil, err
	}
	return r.encode(p)
}

// ProjectionChart draws a scenario against its target as a dashed line.
func (r *Renderer) ProjectionChart(pr model.Projection) ([]byte, error) {
	if len(pr.Points) == 0 {
		return nil, ErrNoData
	}
	pts := make([]model.ForecastPoint, len(pr.Points))
	for i, pp := range pr.Points {
		pts[i] = model.ForecastPoint{Year: pp.Year, Value: pp.Value}
	}
	p := plot.New()
	p.Title.Text = "Projected Account Ownership vs Target"
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "% of Adults"
	p.X.Tick.Marker = yearTicks{}
	p.Add(plotter.NewGrid())
	if err := addForecast(p, pr.Scenario+" Forecast", pts); err != nil {
		return nil, err
	}
	first, last := float64(pts[0].Year), float64(pts[len(pts)-1].Year)
	target, err := plotter.NewLine(plotter.XYs{{X: first, Y: pr.Target}, {X: last, Y: pr.Target}})
	if err != nil {
		return nil, err
	}
	target.Color = color.RGBA{R: 220, A: 255}
	target.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(target)
	p.Legend.Add(strconv.FormatFloat(pr.Target, 'f', -1, 64)+"% Target", target)
	p.Legend.Top = true
	return r.encode(p)
}

func addForecast(p *plot.Plot, name string, points []model.ForecastPoint) error {
	xys := make(plotter.XYs, len(points))
	for i, fp := range points {
		xys[i] = plotter.XY{X: float64(fp.Year), Y: fp.Value}
	}
	line, scatter, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("forecast %s: %w", name, err)
	}
	line.Color = plotutil.Color(0)
	scatter.Color = plotutil.Color(0)
	p.Add(line, scatter)
	p.Legend.Add(name, line, scatter)
	return nil
}

func (r *Renderer) encode(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// yearTicks places a labelled tick on every whole year in range.
type yearTicks struct{}

func (yearTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for y := math.Ceil(min); y <= max; y++ {
		ticks = append(ticks, plot.Tick{Value: y, Label: strconv.Itoa(int(y))})
	}
	return ticks
}
