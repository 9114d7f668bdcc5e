package png

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"vanet-metrics/internal/aggregation"
	"vanet-metrics/internal/plot/figure"

	"gonum.org/v1/plot"
)

func sampleSeries() []aggregation.Series {
	return []aggregation.Series{
		{Label: "min contact duration thres >= 0sec", X: []float64{5, 11}, Y: []float64{67, 33}},
		{Label: "min contact duration thres >= 6sec", X: []float64{6, 11}, Y: []float64{50, 50}},
	}
}

func TestRender_WritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urban-dist-contact-time-vehicles.png")
	spec := figure.New("dist-contact-time-vehicles", "Contact Time", "x", "y")
	spec.WithMarker = true
	spec = spec.WithSize(4, 3)

	if err := NewRenderer().Render(spec, sampleSeries(), path); err != nil {
		t.Fatalf("Render: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected non-empty image")
	}
}

func TestBuild_YStartsAtZeroAndTicks(t *testing.T) {
	spec := figure.New("c", "t", "x", "y")
	spec.WithXTicks = true
	spec.XTicksInterval = 2

	p, err := NewRenderer().build(spec, sampleSeries())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.Y.Min != 0 {
		t.Fatalf("expected y min 0, got %v", p.Y.Min)
	}

	ticks := p.X.Tick.Marker.(plot.ConstantTicks)
	if len(ticks) != 4 || ticks[0].Value != 5 || ticks[3].Value != 11 {
		t.Fatalf("unexpected ticks %+v", ticks)
	}
}

func TestBuild_TimeAxis(t *testing.T) {
	spec := figure.New("num-vehicles-over-sim-time", "t", "x", "y")
	spec.FormatTime = true
	series := []aggregation.Series{{Label: "s", X: []float64{0, 1, 2}, Y: []float64{5, math.NaN(), 3}}}

	p, err := NewRenderer().build(spec, series)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := p.X.Tick.Marker.(plot.TimeTicks); !ok {
		t.Fatalf("expected time ticks, got %T", p.X.Tick.Marker)
	}
}

func TestBuild_NoSeries(t *testing.T) {
	spec := figure.New("c", "t", "x", "y")
	_, err := NewRenderer().build(spec, []aggregation.Series{{Label: "s", X: []float64{1}, Y: []float64{math.NaN()}}})
	if !errors.Is(err, figure.ErrNoSeries) {
		t.Fatalf("expected ErrNoSeries, got %v", err)
	}
}
