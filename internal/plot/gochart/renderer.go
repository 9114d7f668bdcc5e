package gochart

import (
	"fmt"
	"os"
	"time"

	"vanet-metrics/internal/aggregation"
	"vanet-metrics/internal/logging"
	"vanet-metrics/internal/plot/figure"

	"github.com/sirupsen/logrus"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const dpi = 100.0

// matplotlib's default cycle so both PNG backends look alike.
var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
	drawing.ColorFromHex("bcbd22"),
	drawing.ColorFromHex("17becf"),
}

func seriesColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

type Renderer struct {
	logger *logrus.Logger
}

func NewRenderer() *Renderer {
	return &Renderer{logger: logging.GetLogger()}
}

func (r *Renderer) Extension() string {
	return ".png"
}

func (r *Renderer) Render(spec figure.Spec, series []aggregation.Series, path string) error {
	c, err := build(spec, series)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := c.Render(chart.PNG, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	r.logger.WithFields(logrus.Fields{
		"chart":  spec.Name,
		"path":   path,
		"series": len(series),
	}).Debug("Chart rendered")
	return nil
}

func build(spec figure.Spec, series []aggregation.Series) (*chart.Chart, error) {
	points := figure.Finite(series)
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: %w", spec.Name, figure.ErrNoSeries)
	}

	var chartSeries []chart.Series
	for i, p := range points {
		st := chart.Style{
			StrokeColor: seriesColor(i),
			StrokeWidth: 2,
		}
		if spec.WithMarker {
			st.DotColor = seriesColor(i)
			st.DotWidth = 4
		}

		chartSeries = append(chartSeries, chart.ContinuousSeries{
			Name:    p.Label,
			XValues: p.X,
			YValues: p.Y,
			Style:   st,
		})
	}

	yMax := figure.YMax(points)
	if yMax <= 0 {
		yMax = 1
	}

	labelStyle := chart.Style{FontSize: spec.LabelSize}
	c := &chart.Chart{
		Title:      spec.Title,
		TitleStyle: chart.Style{FontSize: spec.TitleSize},
		Width:      int(spec.WidthInches * dpi),
		Height:     int(spec.HeightInches * dpi),
		DPI:        dpi,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      xAxis(spec, points, labelStyle),
		YAxis: chart.YAxis{
			Name:      spec.YLabel,
			NameStyle: labelStyle,
			Style:     labelStyle,
			Range:     &chart.ContinuousRange{Min: 0, Max: yMax * 1.05},
		},
		Series: chartSeries,
	}
	c.Elements = []chart.Renderable{legend(c, spec.Legend)}
	return c, nil
}

func xAxis(spec figure.Spec, points []figure.Points, labelStyle chart.Style) chart.XAxis {
	axis := chart.XAxis{
		Name:      spec.XLabel,
		NameStyle: labelStyle,
		Style:     labelStyle,
		GridMajorStyle: chart.Style{
			StrokeColor: chart.ColorAlternateGray,
			StrokeWidth: 0.5,
		},
	}

	// go-chart cannot derive a range from a single x value.
	min, max := figure.XRange(points)
	if min == max {
		axis.Range = &chart.ContinuousRange{Min: min - 1, Max: max + 1}
	}

	switch {
	case spec.FormatTime:
		axis.ValueFormatter = func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return time.Unix(int64(f), 0).UTC().Format(figure.TimeFormat)
			}
			return ""
		}
	case spec.WithXTicks:
		ticks := spec.Ticks(min, max)
		// go-chart rejects an axis with fewer than two explicit ticks and
		// falls back to its own ticks when none are set.
		if len(ticks) < 2 {
			break
		}
		for _, v := range ticks {
			axis.Ticks = append(axis.Ticks, chart.Tick{Value: v, Label: fmt.Sprintf("%g", v)})
		}
	}
	return axis
}

// go-chart only draws legends along the top or left edge; lower and left
// placements are folded onto the left legend.
func legend(c *chart.Chart, loc figure.LegendLocation) chart.Renderable {
	switch loc {
	case figure.UpperLeft, figure.LowerLeft:
		return chart.LegendLeft(c)
	default:
		return chart.Legend(c)
	}
}
