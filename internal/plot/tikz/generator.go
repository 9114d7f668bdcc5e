package tikz

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"vanet-metrics/internal/aggregation"
	"vanet-metrics/internal/logging"
	"vanet-metrics/internal/plot/figure"
	"vanet-metrics/internal/plot/tikz/mappings"
	groupTemplate "vanet-metrics/internal/plot/tikz/templates/group"
	plotTemplate "vanet-metrics/internal/plot/tikz/templates/plot"
	wrapperTemplate "vanet-metrics/internal/plot/tikz/templates/wrapper"

	"github.com/sirupsen/logrus"
)

const WrapperSuffix = "-wrapper.tex"

// Steps tried, in seconds, for a time formatted x axis.
var timeTickSteps = []float64{60, 300, 600, 900, 1800, 3600, 7200, 14400}

const maxTimeTicks = 8

var legendPositions = map[figure.LegendLocation]string{
	figure.UpperRight:  "north east",
	figure.UpperLeft:   "north west",
	figure.CenterRight: "outer north east",
	figure.LowerRight:  "south east",
	figure.LowerLeft:   "south west",
}

var latexEscaper = strings.NewReplacer(
	`%`, `\%`,
	`&`, `\&`,
	`_`, `\_`,
	`#`, `\#`,
	`Δ`, `$\Delta$`,
	`>=`, `$\geq$`,
)

// Renderer writes a pgfplots picture plus a figure wrapper that inputs it.
type Renderer struct {
	logger *logrus.Logger
	now    func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{
		logger: logging.GetLogger(),
		now:    time.Now,
	}
}

func (r *Renderer) Extension() string {
	return ".tikz"
}

// WrapperPath is the wrapper file written next to a picture.
func WrapperPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + WrapperSuffix
}

func (r *Renderer) Render(spec figure.Spec, series []aggregation.Series, path string) error {
	plotOutput, wrapperOutput, err := r.Generate(spec, series, filepath.Base(path))
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(plotOutput), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	wrapper := WrapperPath(path)
	if err := os.WriteFile(wrapper, []byte(wrapperOutput), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", wrapper, err)
	}

	r.logger.WithFields(logrus.Fields{
		"chart":   spec.Name,
		"path":    path,
		"wrapper": wrapper,
		"series":  len(series),
	}).Debug("Chart rendered")
	return nil
}

// Generate returns the picture and wrapper sources. plotFileName is the name
// the wrapper inputs.
func (r *Renderer) Generate(spec figure.Spec, series []aggregation.Series, plotFileName string) (string, string, error) {
	points := figure.Finite(series)
	if len(points) == 0 {
		return "", "", fmt.Errorf("%s: %w", spec.Name, figure.ErrNoSeries)
	}

	plotOutput, err := r.renderPlot(r.preparePlotData(spec, points))
	if err != nil {
		return "", "", fmt.Errorf("failed to render plot: %w", err)
	}

	wrapperOutput, err := r.renderWrapper(r.prepareWrapperData(spec, plotFileName))
	if err != nil {
		return "", "", fmt.Errorf("failed to render wrapper: %w", err)
	}

	return plotOutput, wrapperOutput, nil
}

func (r *Renderer) preparePlotData(spec figure.Spec, points []figure.Points) *plotTemplate.PlotData {
	var plotSeries []plotTemplate.PlotSeries
	for i, p := range points {
		style := mappings.GetSeriesStyle(i)
		if !spec.WithMarker {
			style = style.WithoutMark()
		}

		s := plotTemplate.PlotSeries{
			Label:       p.Label,
			Style:       style.ToTikzOptions(),
			LegendEntry: latexEscaper.Replace(p.Label),
		}
		for j := range p.X {
			s.Coordinates = append(s.Coordinates, fmt.Sprintf("(%.6f,%.6f)", p.X[j], p.Y[j]))
		}
		plotSeries = append(plotSeries, s)
	}

	xMin, xMax := figure.XRange(points)
	if xMax <= xMin {
		xMax = xMin + 1
	}
	yMax := figure.YMax(points) * 1.05
	if yMax <= 0 {
		yMax = 1
	}

	legendPos, ok := legendPositions[spec.Legend]
	if !ok {
		legendPos = legendPositions[figure.UpperRight]
	}

	data := &plotTemplate.PlotData{
		GeneratedDate: r.now().Format("2006-01-02 15:04:05"),
		Scenario:      spec.Scenario,
		Name:          spec.Name,
		Title:         latexEscaper.Replace(spec.Title),
		XLabel:        latexEscaper.Replace(spec.XLabel),
		YLabel:        latexEscaper.Replace(spec.YLabel),
		HeightRatio:   fmt.Sprintf("%.2f", spec.HeightInches/spec.WidthInches),
		XMin:          fmt.Sprintf("%.2f", xMin),
		XMax:          fmt.Sprintf("%.2f", xMax),
		YMax:          fmt.Sprintf("%.2f", yMax),
		LegendPos:     legendPos,
		Plots:         plotSeries,
	}

	switch {
	case spec.FormatTime:
		ticks := timeTicks(xMin, xMax)
		data.XTicks = joinFloats(ticks)
		labels := make([]string, len(ticks))
		for i, v := range ticks {
			labels[i] = time.Unix(int64(v), 0).UTC().Format(figure.TimeFormat)
		}
		data.XTickLabels = strings.Join(labels, ",")
	case spec.WithXTicks:
		data.XTicks = joinFloats(spec.Ticks(xMin, xMax))
	}

	return data
}

func timeTicks(min, max float64) []float64 {
	step := timeTickSteps[len(timeTickSteps)-1]
	for _, s := range timeTickSteps {
		if (max-min)/s <= maxTimeTicks {
			step = s
			break
		}
	}
	var ticks []float64
	for v := math.Ceil(min/step) * step; v <= max; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, ",")
}

func (r *Renderer) prepareWrapperData(spec figure.Spec, plotFileName string) *wrapperTemplate.WrapperData {
	return &wrapperTemplate.WrapperData{
		GeneratedDate: r.now().Format("2006-01-02 15:04:05"),
		Scenario:      spec.Scenario,
		Name:          spec.Name,
		PlotFileName:  plotFileName,
		ShortCaption:  latexEscaper.Replace(spec.YLabel),
		Caption:       latexEscaper.Replace(spec.Title),
		Label:         strings.TrimSuffix(plotFileName, filepath.Ext(plotFileName)),
	}
}

func (r *Renderer) renderPlot(data *plotTemplate.PlotData) (string, error) {
	tmpl, err := template.New("plot").Parse(plotTemplate.PlotTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse plot template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute plot template: %w", err)
	}

	return buf.String(), nil
}

func (r *Renderer) renderWrapper(data *wrapperTemplate.WrapperData) (string, error) {
	tmpl, err := template.New("wrapper").Parse(wrapperTemplate.WrapperTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse wrapper template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute wrapper template: %w", err)
	}

	return buf.String(), nil
}

// Chart is one picture already written to disk, as listed in a group file.
type Chart struct {
	Spec figure.Spec
	Path string
}

// WriteGroup writes a single figure holding every chart as a subfigure.
func (r *Renderer) WriteGroup(scenario, label string, charts []Chart, path string) error {
	if len(charts) == 0 {
		return fmt.Errorf("%s: %w", label, figure.ErrNoSeries)
	}

	data := &groupTemplate.GroupWrapperData{
		GeneratedDate: r.now().Format("2006-01-02 15:04:05"),
		Scenario:      scenario,
		LabelID:       label,
		ShortCaption:  latexEscaper.Replace(scenario),
		Caption:       latexEscaper.Replace(fmt.Sprintf("Charts for %s", scenario)),
	}
	for _, c := range charts {
		data.Subfigures = append(data.Subfigures, groupTemplate.SubfigureData{
			Name:         c.Spec.Name,
			PlotFileName: filepath.Base(c.Path),
			Caption:      latexEscaper.Replace(c.Spec.Title),
		})
	}

	tmpl, err := template.New("group").Parse(groupTemplate.GroupWrapperTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse group template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute group template: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.logger.WithFields(logrus.Fields{
		"scenario": scenario,
		"path":     path,
		"charts":   len(charts),
	}).Info("Group figure written")
	return nil
}
