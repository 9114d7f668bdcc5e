// Package figure holds the per-chart description handed to every renderer.
package figure

import (
	"errors"
	"math"

	"vanet-metrics/internal/aggregation"
)

var ErrNoSeries = errors.New("no series to plot")

type LegendLocation string

const (
	UpperRight  LegendLocation = "upper right"
	UpperLeft   LegendLocation = "upper left"
	CenterRight LegendLocation = "center right"
	LowerRight  LegendLocation = "lower right"
	LowerLeft   LegendLocation = "lower left"
)

const (
	DefaultWidthInches  = 18.0
	DefaultHeightInches = 12.0
	DefaultTitleSize    = 20.0
	DefaultLabelSize    = 16.0
	TimeFormat          = "15:04"
)

// Spec describes one chart. It is built once per chart and never mutated
// by a renderer.
type Spec struct {
	Name     string
	Title    string
	XLabel   string
	YLabel   string
	Scenario string

	WithMarker     bool
	WithXTicks     bool
	XTicksInterval float64
	FormatTime     bool
	Legend         LegendLocation

	WidthInches  float64
	HeightInches float64
	TitleSize    float64
	LabelSize    float64
}

// New returns a spec with the canvas and font defaults filled in.
func New(name, title, xLabel, yLabel string) Spec {
	return Spec{
		Name:           name,
		Title:          title,
		XLabel:         xLabel,
		YLabel:         yLabel,
		XTicksInterval: 1,
		Legend:         UpperRight,
		WidthInches:    DefaultWidthInches,
		HeightInches:   DefaultHeightInches,
		TitleSize:      DefaultTitleSize,
		LabelSize:      DefaultLabelSize,
	}
}

func (s Spec) WithSize(width, height float64) Spec {
	if width > 0 {
		s.WidthInches = width
	}
	if height > 0 {
		s.HeightInches = height
	}
	return s
}

// Points is a series with the NaN and Inf points dropped.
type Points struct {
	Label string
	X     []float64
	Y     []float64
}

// Finite drops non-finite points and series left empty by that.
func Finite(series []aggregation.Series) []Points {
	out := make([]Points, 0, len(series))
	for _, s := range series {
		p := Points{Label: s.Label}
		for i := range s.X {
			if isFinite(s.X[i]) && isFinite(s.Y[i]) {
				p.X = append(p.X, s.X[i])
				p.Y = append(p.Y, s.Y[i])
			}
		}
		if len(p.X) > 0 {
			out = append(out, p)
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// XRange is the smallest and largest x over all points.
func XRange(points []Points) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		for _, x := range p.X {
			min = math.Min(min, x)
			max = math.Max(max, x)
		}
	}
	return min, max
}

// YMax is the largest y over all points, or 0 when there are none.
func YMax(points []Points) float64 {
	max := 0.0
	for _, p := range points {
		for _, y := range p.Y {
			max = math.Max(max, y)
		}
	}
	return max
}

// Ticks returns min, min+interval, ... up to but excluding max+1.
func (s Spec) Ticks(min, max float64) []float64 {
	interval := s.XTicksInterval
	if interval <= 0 {
		interval = 1
	}
	var ticks []float64
	for i := 0; ; i++ {
		v := min + float64(i)*interval
		if v >= max+1 {
			break
		}
		ticks = append(ticks, v)
	}
	return ticks
}
