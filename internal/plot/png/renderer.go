package png

import (
	"fmt"
	"time"

	"vanet-metrics/internal/aggregation"
	"vanet-metrics/internal/logging"
	"vanet-metrics/internal/plot/figure"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Renderer draws line charts with gonum/plot. The image format follows the
// file extension handed to Render.
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
	p, err := r.build(spec, series)
	if err != nil {
		return err
	}

	width := vg.Length(spec.WidthInches) * vg.Inch
	height := vg.Length(spec.HeightInches) * vg.Inch
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	r.logger.WithFields(logrus.Fields{
		"chart":  spec.Name,
		"path":   path,
		"series": len(series),
	}).Debug("Chart rendered")
	return nil
}

func (r *Renderer) build(spec figure.Spec, series []aggregation.Series) (*plot.Plot, error) {
	points := figure.Finite(series)
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: %w", spec.Name, figure.ErrNoSeries)
	}

	titleSize := vg.Points(spec.TitleSize)
	labelSize := vg.Points(spec.LabelSize)

	p := plot.New()
	p.Title.Text = spec.Title
	p.Title.TextStyle.Font.Size = titleSize
	p.X.Label.Text = spec.XLabel
	p.X.Label.TextStyle.Font.Size = labelSize
	p.Y.Label.Text = spec.YLabel
	p.Y.Label.TextStyle.Font.Size = labelSize
	p.Y.Tick.Label.Font.Size = labelSize
	p.Legend.TextStyle.Font.Size = labelSize
	p.Add(plotter.NewGrid())

	for i, s := range points {
		xys := make(plotter.XYs, len(s.X))
		for j := range s.X {
			xys[j].X = s.X[j]
			xys[j].Y = s.Y[j]
		}

		if spec.WithMarker {
			line, scatter, err := plotter.NewLinePoints(xys)
			if err != nil {
				return nil, fmt.Errorf("%s: series %q: %w", spec.Name, s.Label, err)
			}
			line.Color = plotutil.Color(i)
			line.Width = vg.Points(2)
			scatter.Shape = draw.CircleGlyph{}
			scatter.Color = plotutil.Color(i)
			scatter.Radius = vg.Points(3)
			p.Add(line, scatter)
			p.Legend.Add(s.Label, line, scatter)
			continue
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("%s: series %q: %w", spec.Name, s.Label, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}

	placeLegend(&p.Legend, spec)

	switch {
	case spec.FormatTime:
		p.X.Tick.Marker = plot.TimeTicks{
			Format: figure.TimeFormat,
			Time: func(t float64) time.Time {
				return time.Unix(int64(t), 0).UTC()
			},
		}
	case spec.WithXTicks:
		min, max := figure.XRange(points)
		var ticks []plot.Tick
		for _, v := range spec.Ticks(min, max) {
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%g", v)})
		}
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
	}

	// Add widens the axes to the data, so the y floor goes on afterwards.
	p.Y.Min = 0
	if p.Y.Max <= p.Y.Min {
		p.Y.Max = p.Y.Min + 1
	}

	return p, nil
}

func placeLegend(l *plot.Legend, spec figure.Spec) {
	l.Top = true
	l.Left = false
	switch spec.Legend {
	case figure.UpperLeft:
		l.Left = true
	case figure.LowerRight:
		l.Top = false
	case figure.LowerLeft:
		l.Top = false
		l.Left = true
	case figure.CenterRight:
		l.YOffs = -vg.Length(spec.HeightInches) * vg.Inch / 3
	}
	l.Padding = vg.Millimeter
}
