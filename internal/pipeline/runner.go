package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"vanet-metrics/internal/aggregation"
	"vanet-metrics/internal/config"
	"vanet-metrics/internal/database"
	"vanet-metrics/internal/dataframe"
	"vanet-metrics/internal/logging"
	"vanet-metrics/internal/plot"
	"vanet-metrics/internal/storage"

	"github.com/sirupsen/logrus"
)

// Summary keys.
const (
	SummaryMeanNumVehicles     = "mean_num_vehicles"
	SummaryMeanNumAvgNbs       = "mean_num_avg_nbs"
	SummaryMeanContactDuration = "mean_contact_duration"
	SummaryContactRows         = "contact_rows"
	SummaryPerSecondRows       = "per_second_rows"
	SummaryCharts              = "charts"
)

const summarySuffix = "-summary.csv"

// Writer receives finished scenario runs. *database.InfluxDBClient
// implements it.
type Writer interface {
	WriteCharts(ctx context.Context, meta *database.RunMetadata, charts []database.ChartRecord) error
	WriteMetadata(ctx context.Context, meta *database.RunMetadata) error
}

type Runner struct {
	cfg           *config.AnalysisConfig
	configContent string
	plots         *plot.PlotManager
	writer        Writer
	version       string
	logger        *logrus.Logger
}

type Option func(*Runner)

func WithWriter(w Writer) Option {
	return func(r *Runner) { r.writer = w }
}

func WithVersion(version string) Option {
	return func(r *Runner) { r.version = version }
}

func NewRunner(cfg *config.AnalysisConfig, configContent string, plots *plot.PlotManager, opts ...Option) *Runner {
	r := &Runner{
		cfg:           cfg,
		configContent: configContent,
		plots:         plots,
		logger:        logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result describes one processed scenario.
type Result struct {
	Scenario  config.ScenarioConfig
	Checksum  string
	Charts    []database.ChartRecord
	Summary   map[string]float64
	Exports   []string
	GroupPath string
	SpoolPath string
	StartTime time.Time
	EndTime   time.Time
}

// Run processes the scenarios in order and stops at the first failure.
func (r *Runner) Run(ctx context.Context, scenarios []config.ScenarioConfig) ([]*Result, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios selected")
	}

	var results []*Result
	for _, s := range scenarios {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.RunScenario(ctx, s)
		if err != nil {
			r.logger.WithField("scenario", s.Name).WithError(err).Error("Scenario failed")
			return results, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) loadTables(s config.ScenarioConfig) (*tables, error) {
	contact, err := dataframe.LoadCSV(s.GetContactPath())
	if err != nil {
		return nil, err
	}
	if err := contact.Require(dataframe.ContactColumns...); err != nil {
		return nil, err
	}

	t := &tables{contact: contact}
	if !r.needsPerSecond() {
		return t, nil
	}

	perSecond, err := dataframe.LoadCSV(s.GetPerSecondPath())
	if err != nil {
		return nil, err
	}
	if err := perSecond.Require(dataframe.PerSecondColumns...); err != nil {
		return nil, err
	}
	t.perSecond = perSecond
	return t, nil
}

func (r *Runner) RunScenario(ctx context.Context, s config.ScenarioConfig) (*Result, error) {
	logger := r.logger.WithFields(logrus.Fields{
		"scenario": s.Name,
		"prefix":   s.Prefix,
	})

	checksum, err := config.Checksum(r.cfg, []config.ScenarioConfig{s})
	if err != nil {
		return nil, fmt.Errorf("failed to compute checksum: %w", err)
	}

	res := &Result{
		Scenario:  s,
		Checksum:  checksum,
		StartTime: time.Now(),
	}

	logger.WithField("checksum", checksum).Info("Processing scenario")

	t, err := r.loadTables(s)
	if err != nil {
		return nil, err
	}

	folder := s.GetOutputFolder()
	for _, j := range r.jobs(s) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logger.WithField("job", j.name).Debug("Building chart")
		charts, err := j.run(t)
		if err != nil {
			return nil, err
		}

		for _, c := range charts {
			path, err := r.plots.Plot(folder, s.Prefix, c.spec, c.series)
			if err != nil {
				return nil, err
			}
			if path == "" {
				continue
			}
			res.Charts = append(res.Charts, database.ChartRecord{
				Name:   c.spec.Name,
				Title:  c.spec.Title,
				Path:   path,
				Series: c.series,
			})
		}
	}

	res.GroupPath, err = r.plots.Close(folder, s.Prefix, s.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to write chart group: %w", err)
	}

	res.Summary, err = r.summarize(t)
	if err != nil {
		return nil, err
	}
	res.Summary[SummaryCharts] = float64(len(res.Charts))
	logger.WithFields(summaryFields(res.Summary)).Info("Scenario summary")

	if r.cfg.Analysis.Output.ExportCSV {
		if err := r.export(folder, res); err != nil {
			return nil, err
		}
	}

	res.EndTime = time.Now()

	perSecondRows := 0
	if t.perSecond != nil {
		perSecondRows = t.perSecond.Nrow()
	}
	meta := database.CollectRunMetadata(r.cfg, s, checksum, t.contact.Nrow(), perSecondRows, len(res.Charts), res.StartTime, res.EndTime, r.version)

	if r.cfg.Analysis.Output.Spool {
		artifact := database.BuildSpoolArtifact(r.cfg.Analysis.Name, s.Name, s.Prefix, checksum, r.configContent,
			res.Summary, res.Charts, meta, res.StartTime, res.EndTime)
		res.SpoolPath, err = database.WriteSpoolArtifact(r.cfg.Analysis.Output.SpoolDir, artifact)
		if err != nil {
			return nil, fmt.Errorf("failed to spool results: %w", err)
		}
		logger.WithField("path", res.SpoolPath).Info("Results spooled")
	}

	if r.writer != nil {
		if err := r.writer.WriteCharts(ctx, meta, res.Charts); err != nil {
			return nil, err
		}
		if err := r.writer.WriteMetadata(ctx, meta); err != nil {
			return nil, err
		}
		logger.Info("Results written to database")
	}

	logger.WithFields(logrus.Fields{
		"charts":   len(res.Charts),
		"duration": res.EndTime.Sub(res.StartTime),
	}).Info("Scenario completed")
	return res, nil
}

// summarize computes the scenario wide means. A mean with no rows behind it
// is left out.
func (r *Runner) summarize(t *tables) (map[string]float64, error) {
	info := r.cfg.Analysis
	summary := map[string]float64{
		SummaryContactRows: float64(t.contact.Nrow()),
	}

	add := func(key string, tbl *dataframe.Table, column string, filters []dataframe.Filter) error {
		v, err := aggregation.Mean(tbl, column, filters...)
		if err != nil {
			if errors.Is(err, aggregation.ErrNoData) {
				r.logger.WithField("column", column).Debug("No data for summary mean")
				return nil
			}
			return err
		}
		summary[key] = v
		return nil
	}

	powerFilters := append(append([]dataframe.Filter(nil), info.ContactFilters...), dataframe.Filter{Column: dataframe.ColTxPower, Value: info.TxPower})
	if err := add(SummaryMeanContactDuration, t.contact, dataframe.ColContactDuration, powerFilters); err != nil {
		return nil, err
	}

	if t.perSecond == nil {
		return summary, nil
	}
	summary[SummaryPerSecondRows] = float64(t.perSecond.Nrow())
	if err := add(SummaryMeanNumVehicles, t.perSecond, dataframe.ColNumVehicles, info.PerSecondFilters); err != nil {
		return nil, err
	}
	if t.perSecond.Has(dataframe.ColNumAvgNbs) {
		if err := add(SummaryMeanNumAvgNbs, t.perSecond, dataframe.ColNumAvgNbs, info.PerSecondFilters); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

func (r *Runner) export(folder string, res *Result) error {
	prefix := res.Scenario.Prefix
	for _, c := range res.Charts {
		path := plot.ChartPath(folder, prefix, c.Name, ".csv")
		if err := storage.ExportSeriesCSV(path, c.Name, c.Series); err != nil {
			return err
		}
		res.Exports = append(res.Exports, path)
	}

	path := filepath.Join(folder, prefix+summarySuffix)
	if err := storage.ExportSummaryCSV(path, res.Scenario.Name, res.Summary); err != nil {
		return err
	}
	res.Exports = append(res.Exports, path)
	return nil
}

func summaryFields(summary map[string]float64) logrus.Fields {
	fields := logrus.Fields{}
	for k, v := range summary {
		fields[k] = v
	}
	return fields
}
