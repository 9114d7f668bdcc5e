package database

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"
	"time"

	"vanet-metrics/internal/config"
	"vanet-metrics/internal/logging"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	SeriesMeasurement = "vanet_metrics"
	MetaMeasurement   = "vanet_meta"
)

// RunMetadata describes one scenario run.
type RunMetadata struct {
	RunID         string `json:"run_id"`
	AnalysisName  string `json:"analysis_name"`
	Description   string `json:"description"`
	Scenario      string `json:"scenario"`
	Prefix        string `json:"prefix"`
	Checksum      string `json:"checksum"`
	Started       string `json:"started"`  // RFC3339 timestamp
	Finished      string `json:"finished"` // RFC3339 timestamp
	ContactRows   int    `json:"contact_rows"`
	PerSecondRows int    `json:"per_second_rows"`
	TotalCharts   int    `json:"total_charts"`
	DriverVersion string `json:"driver_version"`
	Hostname      string `json:"hostname"`
	OSInfo        string `json:"os_info"`
	KernelVersion string `json:"kernel_version"`
}

// SystemInfo contains host system information
type SystemInfo struct {
	Hostname      string
	OSInfo        string
	KernelVersion string
}

// collectSystemInfo gathers host system information
func collectSystemInfo() *SystemInfo {
	info := &SystemInfo{}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	info.Hostname = hostname

	info.OSInfo = runtime.GOOS + "/" + runtime.GOARCH

	// Get kernel version from /proc/version
	if data, err := os.ReadFile("/proc/version"); err == nil {
		parts := strings.Fields(string(data))
		if len(parts) >= 3 {
			info.KernelVersion = parts[2]
		}
	}
	if info.KernelVersion == "" {
		info.KernelVersion = "unknown"
	}

	return info
}

func CollectRunMetadata(cfg *config.AnalysisConfig, scenario config.ScenarioConfig, checksum string, contactRows, perSecondRows, charts int, startTime, endTime time.Time, driverVersion string) *RunMetadata {
	sysInfo := collectSystemInfo()

	meta := &RunMetadata{
		RunID:         uuid.NewString(),
		Scenario:      scenario.Name,
		Prefix:        scenario.Prefix,
		Checksum:      checksum,
		Started:       startTime.Format(time.RFC3339),
		Finished:      endTime.Format(time.RFC3339),
		ContactRows:   contactRows,
		PerSecondRows: perSecondRows,
		TotalCharts:   charts,
		DriverVersion: driverVersion,
		Hostname:      sysInfo.Hostname,
		OSInfo:        sysInfo.OSInfo,
		KernelVersion: sysInfo.KernelVersion,
	}
	if cfg != nil {
		meta.AnalysisName = cfg.Analysis.Name
		meta.Description = cfg.Analysis.Description
	}
	return meta
}

type InfluxDBClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

func NewInfluxDBClient(ctx context.Context, config config.DatabaseConfig) (*InfluxDBClient, error) {
	logger := logging.GetLogger()

	client := influxdb2.NewClient(config.Host, config.Password)

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		logger.WithField("host", config.Host).WithError(err).Error("Failed to connect to InfluxDB")
		client.Close()
		return nil, err
	}

	if health.Status != "pass" {
		message := ""
		if health.Message != nil {
			message = *health.Message
		}
		logger.WithFields(logrus.Fields{
			"host":    config.Host,
			"status":  health.Status,
			"message": message,
		}).Error("InfluxDB health check failed")
		client.Close()
		return nil, fmt.Errorf("influxdb health check failed: %s %s", health.Status, message)
	}

	writeAPI := client.WriteAPIBlocking(config.Org, config.Name)

	logger.WithFields(logrus.Fields{
		"host":   config.Host,
		"bucket": config.Name,
		"org":    config.Org,
	}).Info("Connected to InfluxDB")

	return &InfluxDBClient{
		client:   client,
		writeAPI: writeAPI,
		bucket:   config.Name,
		org:      config.Org,
	}, nil
}

// BuildPoints turns every chart series into one point per x value. Points of
// a series are spaced one nanosecond apart from ts so none overwrite each
// other; NaN y values have no point.
func BuildPoints(meta *RunMetadata, charts []ChartRecord, ts time.Time) []*write.Point {
	var points []*write.Point
	for _, chart := range charts {
		for _, s := range chart.Series {
			for i := range s.X {
				if math.IsNaN(s.Y[i]) {
					continue
				}
				point := influxdb2.NewPoint(SeriesMeasurement,
					map[string]string{
						"scenario": meta.Prefix,
						"checksum": meta.Checksum,
						"chart":    chart.Name,
						"series":   s.Label,
					},
					map[string]interface{}{
						"index": i,
						"x":     s.X[i],
						"y":     s.Y[i],
					},
					ts.Add(time.Duration(i)))
				points = append(points, point)
			}
		}
	}
	return points
}

func (idb *InfluxDBClient) WriteCharts(ctx context.Context, meta *RunMetadata, charts []ChartRecord) error {
	points := BuildPoints(meta, charts, time.Now())

	if len(points) > 0 {
		if err := idb.writeAPI.WritePoint(ctx, points...); err != nil {
			return fmt.Errorf("failed to write data points: %w", err)
		}
	}

	logging.GetLogger().WithFields(logrus.Fields{
		"scenario": meta.Prefix,
		"points":   len(points),
	}).Debug("Chart series written to InfluxDB")
	return nil
}

func MetadataPoint(meta *RunMetadata, ts time.Time) *write.Point {
	return influxdb2.NewPoint(MetaMeasurement,
		map[string]string{
			"scenario": meta.Prefix,
			"checksum": meta.Checksum,
		},
		map[string]interface{}{
			"run_id":          meta.RunID,
			"analysis_name":   meta.AnalysisName,
			"description":     meta.Description,
			"scenario_name":   meta.Scenario,
			"started":         meta.Started,
			"finished":        meta.Finished,
			"contact_rows":    meta.ContactRows,
			"per_second_rows": meta.PerSecondRows,
			"total_charts":    meta.TotalCharts,
			"driver_version":  meta.DriverVersion,
			"hostname":        meta.Hostname,
			"os_info":         meta.OSInfo,
			"kernel_version":  meta.KernelVersion,
		},
		ts)
}

func (idb *InfluxDBClient) WriteMetadata(ctx context.Context, meta *RunMetadata) error {
	if err := idb.writeAPI.WritePoint(ctx, MetadataPoint(meta, time.Now())); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// WriteArtifact uploads a spooled scenario run.
func (idb *InfluxDBClient) WriteArtifact(ctx context.Context, artifact *SpoolArtifact) error {
	meta := artifact.Metadata
	if meta == nil {
		meta = &RunMetadata{
			AnalysisName: artifact.AnalysisName,
			Scenario:     artifact.Scenario,
			Prefix:       artifact.Prefix,
			Checksum:     artifact.Checksum,
			Started:      artifact.StartTime.Format(time.RFC3339),
			Finished:     artifact.EndTime.Format(time.RFC3339),
			TotalCharts:  len(artifact.Charts),
		}
	}
	if err := idb.WriteCharts(ctx, meta, artifact.Charts); err != nil {
		return err
	}
	return idb.WriteMetadata(ctx, meta)
}

func (idb *InfluxDBClient) Close() {
	if idb.client != nil {
		idb.client.Close()
	}
}
