// Package chart renders the dashboard groupings as PNG images so exports and
// the HTTP surface can ship real chart pictures.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/gyeh/denial-dash/internal/export"
	"github.com/gyeh/denial-dash/internal/kpi"
)

// ErrNoData is returned when a grouping has nothing to plot.
var ErrNoData = errors.New("no data to chart")

// ErrUnknownChart is returned by Lookup for unrecognized chart IDs.
var ErrUnknownChart = errors.New("unknown chart")

// Kind is the visual form of a chart.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
	KindPie  Kind = "pie"
)

// Spec describes one dashboard chart.
type Spec struct {
	ID     string
	Title  string
	Kind   Kind
	Groups func(kpi.Summary) []kpi.Group
}

const (
	width  = 900
	height = 600
)

var specs = []Spec{
	{ID: "by-type", Title: "Denial Amount by Type", Kind: KindBar, Groups: func(s kpi.Summary) []kpi.Group { return s.AmountByType }},
	{ID: "trend", Title: "Denial Trend", Kind: KindLine, Groups: func(s kpi.Summary) []kpi.Group { return s.AmountByMonth }},
	{ID: "payer-mix", Title: "Payer Mix", Kind: KindPie, Groups: func(s kpi.Summary) []kpi.Group { return s.AmountByPayer }},
	{ID: "overturns", Title: "Overturns by Type", Kind: KindBar, Groups: func(s kpi.Summary) []kpi.Group { return s.OverturnedByType }},
	{ID: "days-to-pay", Title: "Avg Days to Pay", Kind: KindBar, Groups: func(s kpi.Summary) []kpi.Group { return s.AvgDaysByPayer }},
}

// Specs returns every dashboard chart in display order.
func Specs() []Spec {
	return append([]Spec(nil), specs...)
}

// Lookup finds a chart by ID.
func Lookup(id string) (Spec, error) {
	for _, s := range specs {
		if s.ID == id {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownChart, id)
}

// Render draws spec's grouping from s as a PNG into w.
func Render(w io.Writer, spec Spec, s kpi.Summary) error {
	groups := spec.Groups(s)
	if total(groups) == 0 {
		return fmt.Errorf("%s: %w", spec.ID, ErrNoData)
	}

	kind := spec.Kind
	// A line needs two points to have an x range.
	if kind == KindLine && len(groups) < 2 {
		kind = KindBar
	}

	var err error
	switch kind {
	case KindLine:
		err = line(spec.Title, groups).Render(gochart.PNG, w)
	case KindPie:
		err = pie(spec.Title, groups).Render(gochart.PNG, w)
	default:
		err = bar(spec.Title, groups).Render(gochart.PNG, w)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", spec.ID, err)
	}
	return nil
}

// RenderAll writes one PNG per chart into dir and returns references for the
// PDF snapshot. Charts with no data are skipped.
func RenderAll(s kpi.Summary, dir string) ([]export.ChartImage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chart dir: %w", err)
	}

	var images []export.ChartImage
	for _, spec := range specs {
		var buf bytes.Buffer
		if err := Render(&buf, spec, s); err != nil {
			if errors.Is(err, ErrNoData) {
				continue
			}
			return images, err
		}
		path := filepath.Join(dir, spec.ID+".png")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return images, fmt.Errorf("writing %s: %w", path, err)
		}
		images = append(images, export.ChartImage{Title: spec.Title, Path: path})
	}
	return images, nil
}

func total(groups []kpi.Group) int {
	sum := 0
	for _, g := range groups {
		sum += g.Value
	}
	return sum
}

// yRange pins the axis at zero with some headroom; go-chart cannot scale a
// zero-width range such as a single bar.
func yRange(groups []kpi.Group) *gochart.ContinuousRange {
	max := 0
	for _, g := range groups {
		if g.Value > max {
			max = g.Value
		}
	}
	return &gochart.ContinuousRange{Min: 0, Max: float64(max) * 1.1}
}

func values(groups []kpi.Group) []gochart.Value {
	out := make([]gochart.Value, len(groups))
	for i, g := range groups {
		out[i] = gochart.Value{Label: g.Label, Value: float64(g.Value)}
	}
	return out
}

func bar(title string, groups []kpi.Group) gochart.BarChart {
	return gochart.BarChart{
		Title:      title,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		Width:      width,
		Height:     height,
		BarWidth:   60,
		YAxis:      gochart.YAxis{Range: yRange(groups)},
		Bars:       values(groups),
	}
}

func pie(title string, groups []kpi.Group) gochart.PieChart {
	return gochart.PieChart{
		Title:  title,
		Width:  width,
		Height: height,
		Values: values(groups),
	}
}

func line(title string, groups []kpi.Group) gochart.Chart {
	xs := make([]float64, len(groups))
	ys := make([]float64, len(groups))
	ticks := make([]gochart.Tick, len(groups))
	for i, g := range groups {
		xs[i] = float64(i)
		ys[i] = float64(g.Value)
		ticks[i] = gochart.Tick{Value: float64(i), Label: g.Label}
	}
	return gochart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		XAxis:  gochart.XAxis{Ticks: ticks},
		YAxis:  gochart.YAxis{Range: yRange(groups)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    title,
				XValues: xs,
				YValues: ys,
			},
		},
	}
}
