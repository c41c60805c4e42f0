// Package chart renders pace reports as PNG line charts.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/questpace/internal/domain/types"
)

// Default chart settings.
const (
	DefaultWidth     = 1024
	DefaultHeight    = 512
	DefaultMaxCurves = 200

	rangePadding = 0.05
	curveAlpha   = 64
)

// ErrNoData is returned for a report with nothing to plot.
var ErrNoData = errors.New("no pace data to plot")

// Option applies a configuration option to a render.
type Option func(*settings)

type settings struct {
	width     int
	height    int
	maxCurves int
}

// WithSize sets the image size in pixels. Non-positive values are ignored.
func WithSize(width, height int) Option {
	return func(s *settings) {
		if width > 0 {
			s.width = width
		}
		if height > 0 {
			s.height = height
		}
	}
}

// WithMaxCurves caps the number of run curves drawn. The best curve is always
// drawn.
func WithMaxCurves(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxCurves = n
		}
	}
}

// curveStyle draws a line without dots.
func curveStyle(col drawing.Color, width float64) gochart.Style {
	return gochart.Style{
		StrokeColor: col,
		StrokeWidth: width,
		DotWidth:    0,
	}
}

// Render writes a PNG of r to w. The x axis is the share of HP dealt at each
// checkpoint; the primary y axis is each run's projected clear time and the
// secondary y axis is the cohort's cumulative median.
func Render(w io.Writer, r types.Report, opts ...Option) error {
	s := settings{width: DefaultWidth, height: DefaultHeight, maxCurves: DefaultMaxCurves}
	for _, opt := range opts {
		opt(&s)
	}
	if len(r.Curves) == 0 || len(r.Checkpoints) == 0 {
		return ErrNoData
	}

	xs := make([]float64, len(r.Checkpoints))
	ticks := make([]gochart.Tick, len(r.Checkpoints))
	median := make([]float64, len(r.Checkpoints))
	for i, cp := range r.Checkpoints {
		xs[i] = float64(cp.Percent)
		ticks[i] = gochart.Tick{Value: xs[i], Label: cp.Label}
		median[i] = cp.CumulativeMedian.Seconds
	}

	var (
		series []gochart.Series
		best   gochart.Series
		lo, hi = math.Inf(1), math.Inf(-1)
		drawn  int
		faded  = gochart.ColorAlternateGray.WithAlpha(curveAlpha)
	)
	for _, c := range r.Curves {
		if !c.Best && drawn >= s.maxCurves {
			continue
		}
		ys := make([]float64, len(c.Points))
		for i, p := range c.Points {
			ys[i] = p.Projected.Seconds()
			lo = math.Min(lo, ys[i])
			hi = math.Max(hi, ys[i])
		}
		if c.Best {
			name := fmt.Sprintf("best (run %d)", c.RunID)
			best = gochart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: curveStyle(gochart.ColorRed, 3)}
			continue
		}
		drawn++
		series = append(series, gochart.ContinuousSeries{XValues: xs, YValues: ys, Style: curveStyle(faded, 1)})
	}
	if best != nil {
		series = append(series, best)
	}
	series = append(series, gochart.ContinuousSeries{
		Name:    "cumulative median",
		YAxis:   gochart.YAxisSecondary,
		XValues: xs,
		YValues: median,
		Style:   curveStyle(gochart.ColorBlue, 2),
	})

	mlo, mhi := bounds(median)
	ch := gochart.Chart{
		Title:      fmt.Sprintf("Pace (%s, %d runs)", r.Mode, r.Kept),
		Width:      s.width,
		Height:     s.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:  "% dealt",
			Range: &gochart.ContinuousRange{Min: 0, Max: 100},
			Ticks: ticks,
		},
		YAxis:          gochart.YAxis{Name: "projected clear (s)", Range: padded(lo, hi)},
		YAxisSecondary: gochart.YAxis{Name: "median elapsed (s)", Range: padded(mlo, mhi)},
		Series:         series,
	}
	return ch.Render(gochart.PNG, w)
}

func bounds(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// padded widens [lo, hi] a little and never returns an empty range, which
// go-chart refuses to draw.
func padded(lo, hi float64) *gochart.ContinuousRange {
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		lo, hi = 0, 1
	}
	pad := (hi - lo) * rangePadding
	if pad == 0 {
		pad = 1
	}
	return &gochart.ContinuousRange{Min: math.Max(lo-pad, 0), Max: hi + pad}
}
