package plot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vanet-metrics/internal/aggregation"
	"vanet-metrics/internal/logging"
	"vanet-metrics/internal/plot/figure"
	"vanet-metrics/internal/plot/gochart"
	"vanet-metrics/internal/plot/png"
	"vanet-metrics/internal/plot/tikz"

	"github.com/sirupsen/logrus"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatTikz Format = "tikz"
)

type Backend string

const (
	BackendGonum   Backend = "gonum"
	BackendGoChart Backend = "gochart"
)

// Renderer turns one chart into a file at path.
type Renderer interface {
	Render(spec figure.Spec, series []aggregation.Series, path string) error
	Extension() string
}

const groupSuffix = "-charts.tex"

// PlotManager writes every chart of a scenario into its output folder as
// <prefix>-<chart name><ext>.
type PlotManager struct {
	renderer Renderer
	tikz     *tikz.Renderer
	rendered []tikz.Chart
	logger   *logrus.Logger
}

func NewRenderer(format Format, backend Backend) (Renderer, error) {
	switch format {
	case FormatTikz:
		return tikz.NewRenderer(), nil
	case FormatPNG, "":
		switch backend {
		case BackendGonum, "":
			return png.NewRenderer(), nil
		case BackendGoChart:
			return gochart.NewRenderer(), nil
		}
		return nil, fmt.Errorf("unknown png backend %q", backend)
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func NewPlotManager(format Format, backend Backend) (*PlotManager, error) {
	renderer, err := NewRenderer(format, backend)
	if err != nil {
		return nil, err
	}
	return NewPlotManagerWithRenderer(renderer), nil
}

func NewPlotManagerWithRenderer(renderer Renderer) *PlotManager {
	pm := &PlotManager{
		renderer: renderer,
		logger:   logging.GetLogger(),
	}
	if t, ok := renderer.(*tikz.Renderer); ok {
		pm.tikz = t
	}
	return pm
}

func ChartPath(folder, prefix, name, ext string) string {
	return filepath.Join(folder, fmt.Sprintf("%s-%s%s", prefix, name, ext))
}

// Plot renders one chart. A chart whose series are all empty is skipped with
// a warning and reported as ("", nil).
func (pm *PlotManager) Plot(folder, prefix string, spec figure.Spec, series []aggregation.Series) (string, error) {
	if len(figure.Finite(series)) == 0 {
		pm.logger.WithFields(logrus.Fields{
			"chart":    spec.Name,
			"scenario": spec.Scenario,
		}).Warn("No data for chart, skipping")
		return "", nil
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output folder %s: %w", folder, err)
	}

	path := ChartPath(folder, prefix, spec.Name, pm.renderer.Extension())
	if err := pm.renderer.Render(spec, series, path); err != nil {
		if errors.Is(err, figure.ErrNoSeries) {
			pm.logger.WithField("chart", spec.Name).Warn("No data for chart, skipping")
			return "", nil
		}
		return "", fmt.Errorf("failed to render %s: %w", spec.Name, err)
	}

	if pm.tikz != nil {
		pm.rendered = append(pm.rendered, tikz.Chart{Spec: spec, Path: path})
	}

	pm.logger.WithFields(logrus.Fields{
		"chart":  spec.Name,
		"path":   path,
		"series": len(series),
	}).Info("Chart written")
	return path, nil
}

// Close writes the group figure for TikZ output and resets the manager for
// the next scenario. It is a no-op for image output.
func (pm *PlotManager) Close(folder, prefix, scenario string) (string, error) {
	defer func() { pm.rendered = nil }()

	if pm.tikz == nil || len(pm.rendered) == 0 {
		return "", nil
	}

	path := filepath.Join(folder, prefix+groupSuffix)
	if err := pm.tikz.WriteGroup(scenario, prefix+"-charts", pm.rendered, path); err != nil {
		return "", err
	}
	return path, nil
}
