package pipeline

import (
	"errors"
	"fmt"
	"strconv"

	"vanet-metrics/internal/aggregation"
	"vanet-metrics/internal/config"
	"vanet-metrics/internal/dataframe"
	"vanet-metrics/internal/plot/figure"

	"github.com/sirupsen/logrus"
)

// Chart file stems.
const (
	ContactDurationChart   = "dist-contact-time-vehicles"
	MeetingTimeChart       = "meeting-duration-next-nb"
	VehiclesChart          = "num-vehicles-over-sim-time"
	AvgNeighborsChart      = "num-avg-nbs-over-sim-time"
	neighborCountTemplate  = "num-nb-%s-meeting-duration"
	neighborAvgTemplate    = "num-nb-%s-meeting-duration-avg"
	neighborPctTemplate    = "percent-node-met-%s-time-t-multilines"
	connectionPctTemplate  = "percent-connections-lasting-%s-than-t-multilines"
	connectionTickInterval = 2.0
)

type chart struct {
	spec   figure.Spec
	series []aggregation.Series
}

// job builds one or more charts from the scenario tables.
type job struct {
	name string
	run  func(*tables) ([]chart, error)
}

type tables struct {
	contact   *dataframe.Table
	perSecond *dataframe.Table
}

func formatPower(txPower float64) string {
	return strconv.FormatFloat(txPower, 'f', -1, 64)
}

// chartSpecs builds chart descriptions for one scenario.
type chartSpecs struct {
	scenario string
	power    string
	output   config.OutputConfig
}

func (c chartSpecs) new(name, title, xLabel, yLabel string) figure.Spec {
	spec := figure.New(name, title, xLabel, yLabel).WithSize(c.output.WidthInches, c.output.HeightInches)
	spec.Scenario = c.scenario
	return spec
}

func (c chartSpecs) contactDuration() figure.Spec {
	spec := c.new(ContactDurationChart,
		fmt.Sprintf("Contact Time of Vehicles (%s) for %smW", c.scenario, c.power),
		"Contact Duration(seconds)",
		"Percentage of Vehicles (%)")
	spec.WithMarker = true
	return spec
}

func (c chartSpecs) meetingTime() figure.Spec {
	spec := c.new(MeetingTimeChart,
		fmt.Sprintf("Meeting Duration of Next Neighbor (%s) for %smW", c.scenario, c.power),
		"Duration of Meeting a New Vehicle (seconds)",
		"Percentage of Vehicles (%)")
	spec.WithMarker = true
	spec.WithXTicks = true
	return spec
}

func (c chartSpecs) neighborCount(mode aggregation.NeighborMode) figure.Spec {
	spec := c.new(fmt.Sprintf(neighborCountTemplate, mode),
		fmt.Sprintf("Number of Neighbors At and %s Meeting Time (%s) for %smW", mode, c.scenario, c.power),
		"Duration of Meeting a New Vehicle (seconds)",
		"Number of Neighbors")
	spec.WithMarker = true
	spec.WithXTicks = true
	return spec
}

func (c chartSpecs) neighborAvg(mode aggregation.NeighborMode) figure.Spec {
	spec := c.new(fmt.Sprintf(neighborAvgTemplate, mode),
		fmt.Sprintf("Avg Number of Neighbors At and %s Meeting Time (%s) for %smW", mode, c.scenario, c.power),
		"Duration of Meeting a New Vehicle (seconds)",
		"Avg Number of Neighbors")
	spec.WithMarker = true
	spec.WithXTicks = true
	return spec
}

func (c chartSpecs) neighborPercent(mode aggregation.NeighborMode) figure.Spec {
	spec := c.new(fmt.Sprintf(neighborPctTemplate, mode),
		fmt.Sprintf("%% of Nodes Met %s Time t (%s) for %smW", mode, c.scenario, c.power),
		"Time of Meeting a New Vehicle (seconds)",
		fmt.Sprintf("%% of Nodes Met %s Time t", mode))
	spec.WithXTicks = true
	if mode == aggregation.Before {
		spec.Legend = figure.CenterRight
	}
	return spec
}

func (c chartSpecs) connections(mode aggregation.DurationMode) figure.Spec {
	spec := c.new(fmt.Sprintf(connectionPctTemplate, mode),
		fmt.Sprintf("%% of Connections Lasting %s than Δt (%s) for %smW", mode, c.scenario, c.power),
		"Contact Duration (seconds)",
		fmt.Sprintf("%% of Connections Lasting %s than Contact Duration Δt", mode))
	spec.WithXTicks = true
	spec.XTicksInterval = connectionTickInterval
	if mode == aggregation.Less {
		spec.Legend = figure.LowerRight
	}
	return spec
}

func (c chartSpecs) vehicles() figure.Spec {
	spec := c.new(VehiclesChart,
		"Number of Vehicles Over Each Simulation Time",
		"Simulation Time (seconds)",
		"Number of Vehicles")
	spec.FormatTime = true
	return spec
}

func (c chartSpecs) avgNeighbors() figure.Spec {
	spec := c.new(AvgNeighborsChart,
		"Average Number of Neighbors Over Each Simulation Time",
		"Simulation Time (seconds)",
		"Avg Number of Neighbors")
	spec.FormatTime = true
	return spec
}

// skipNoData logs and swallows a no-data error so the threshold's series is
// left out of the chart. Any other error is returned.
func skipNoData(logger *logrus.Logger, chartName string, threshold float64, err error) error {
	if errors.Is(err, aggregation.ErrNoData) {
		logger.WithFields(logrus.Fields{
			"chart":     chartName,
			"threshold": threshold,
		}).WithError(err).Warn("No data for threshold, skipping series")
		return nil
	}
	return fmt.Errorf("%s (threshold %g): %w", chartName, threshold, err)
}

func (r *Runner) jobs(s config.ScenarioConfig) []job {
	info := r.cfg.Analysis
	charts := info.Charts
	limits := info.Limits
	specs := chartSpecs{scenario: s.Name, power: formatPower(info.TxPower), output: info.Output}
	thresholds := info.Thresholds
	contactFilters := info.ContactFilters
	powerFilters := append(append([]dataframe.Filter(nil), contactFilters...), dataframe.Filter{Column: dataframe.ColTxPower, Value: info.TxPower})

	var jobs []job

	if charts.ContactDuration {
		jobs = append(jobs, job{name: ContactDurationChart, run: func(t *tables) ([]chart, error) {
			reg := aggregation.NewRegistry()
			for _, min := range thresholds {
				dist, err := aggregation.ContactDurationDistribution(t.contact, min, limits.ContactDurationClip, powerFilters...)
				if err != nil {
					if err := skipNoData(r.logger, ContactDurationChart, min, err); err != nil {
						return nil, err
					}
					continue
				}
				if err := reg.Add(aggregation.ThresholdLabel(min), dist.Values, dist.Percents); err != nil {
					return nil, err
				}
			}
			return []chart{{spec: specs.contactDuration(), series: reg.Series()}}, nil
		}})
	}

	if charts.MeetingTime {
		jobs = append(jobs, job{name: MeetingTimeChart, run: func(t *tables) ([]chart, error) {
			reg := aggregation.NewRegistry()
			for _, min := range thresholds {
				dist, err := aggregation.MeetingTimeDistribution(t.contact, min, limits.MeetingTimeCutoff, contactFilters...)
				if err != nil {
					if err := skipNoData(r.logger, MeetingTimeChart, min, err); err != nil {
						return nil, err
					}
					continue
				}
				if err := reg.Add(aggregation.ThresholdLabel(min), dist.Values, dist.Percents); err != nil {
					return nil, err
				}
			}
			return []chart{{spec: specs.meetingTime(), series: reg.Series()}}, nil
		}})
	}

	if charts.NeighborCount || charts.NeighborAvg || charts.NeighborPercent {
		for _, mode := range charts.GetNeighborModes() {
			mode := mode
			name := fmt.Sprintf(neighborPctTemplate, mode)
			jobs = append(jobs, job{name: name, run: func(t *tables) ([]chart, error) {
				counts := aggregation.NewRegistry()
				avgs := aggregation.NewRegistry()
				pcts := aggregation.NewRegistry()
				for _, min := range thresholds {
					nc, err := aggregation.NeighborsAroundMeetingTime(t.contact, min, limits.NeighborMeetingTimeCutoff, mode, contactFilters...)
					if err != nil {
						if err := skipNoData(r.logger, name, min, err); err != nil {
							return nil, err
						}
						continue
					}
					label := aggregation.ThresholdLabel(min)
					if err := counts.Add(label, nc.MeetingTimes, nc.Neighbors); err != nil {
						return nil, err
					}
					if err := avgs.Add(label, nc.MeetingTimes, nc.AvgNeighbors); err != nil {
						return nil, err
					}
					if err := pcts.Add(label, nc.MeetingTimes, nc.PercentNeighbors); err != nil {
						return nil, err
					}
				}

				var out []chart
				if charts.NeighborCount {
					out = append(out, chart{spec: specs.neighborCount(mode), series: counts.Series()})
				}
				if charts.NeighborAvg {
					out = append(out, chart{spec: specs.neighborAvg(mode), series: avgs.Series()})
				}
				if charts.NeighborPercent {
					out = append(out, chart{spec: specs.neighborPercent(mode), series: pcts.Series()})
				}
				return out, nil
			}})
		}
	}

	for _, mode := range charts.GetConnectionModes() {
		mode := mode
		name := fmt.Sprintf(connectionPctTemplate, mode)
		jobs = append(jobs, job{name: name, run: func(t *tables) ([]chart, error) {
			reg := aggregation.NewRegistry()
			for _, min := range thresholds {
				dist, err := aggregation.CumulativeContactDuration(t.contact, min, limits.CumulativeContactDurationClip, mode, contactFilters...)
				if err != nil {
					if err := skipNoData(r.logger, name, min, err); err != nil {
						return nil, err
					}
					continue
				}
				if err := reg.Add(aggregation.ThresholdLabel(min), dist.Values, dist.Percents); err != nil {
					return nil, err
				}
			}
			return []chart{{spec: specs.connections(mode), series: reg.Series()}}, nil
		}})
	}

	perSecond := func(name, column string, spec figure.Spec) job {
		return job{name: name, run: func(t *tables) ([]chart, error) {
			reg := aggregation.NewRegistry()
			ts, err := aggregation.MeanPerSimTime(t.perSecond, column, info.PerSecondFilters...)
			if err != nil {
				if !errors.Is(err, aggregation.ErrNoData) {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				r.logger.WithField("chart", name).WithError(err).Warn("No data for chart, skipping")
				return []chart{{spec: spec}}, nil
			}
			if err := reg.Add(s.Name, ts.Ticks, ts.Values); err != nil {
				return nil, err
			}
			return []chart{{spec: spec, series: reg.Series()}}, nil
		}}
	}

	if charts.Vehicles {
		jobs = append(jobs, perSecond(VehiclesChart, dataframe.ColNumVehicles, specs.vehicles()))
	}
	if charts.AvgNeighbors {
		jobs = append(jobs, perSecond(AvgNeighborsChart, dataframe.ColNumAvgNbs, specs.avgNeighbors()))
	}

	return jobs
}

func (r *Runner) needsPerSecond() bool {
	charts := r.cfg.Analysis.Charts
	return charts.Vehicles || charts.AvgNeighbors
}
