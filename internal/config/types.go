package config

import (
	"path/filepath"

	"vanet-metrics/internal/aggregation"
	"vanet-metrics/internal/dataframe"
)

type AnalysisConfig struct {
	Analysis  AnalysisInfo     `yaml:"analysis" json:"analysis"`
	Scenarios []ScenarioConfig `yaml:"scenarios" json:"scenarios"`
}

type AnalysisInfo struct {
	Name             string             `yaml:"name" json:"name"`
	Description      string             `yaml:"description" json:"description"`
	LogLevel         string             `yaml:"log_level" json:"log_level"`
	TxPower          float64            `yaml:"tx_power" json:"tx_power"`
	Thresholds       []float64          `yaml:"thresholds" json:"thresholds"`
	Limits           LimitsConfig       `yaml:"limits" json:"limits"`
	ContactFilters   []dataframe.Filter `yaml:"contact_filters" json:"contact_filters"`
	PerSecondFilters []dataframe.Filter `yaml:"per_second_filters" json:"per_second_filters"`
	Charts           ChartsConfig       `yaml:"charts" json:"charts"`
	Output           OutputConfig       `yaml:"output" json:"output"`
	Data             DataConfig         `yaml:"data" json:"-"`
}

type LimitsConfig struct {
	ContactDurationClip           float64 `yaml:"contact_duration_clip" json:"contact_duration_clip"`
	CumulativeContactDurationClip float64 `yaml:"cumulative_contact_duration_clip" json:"cumulative_contact_duration_clip"`
	MeetingTimeCutoff             float64 `yaml:"meeting_time_cutoff" json:"meeting_time_cutoff"`
	NeighborMeetingTimeCutoff     float64 `yaml:"neighbor_meeting_time_cutoff" json:"neighbor_meeting_time_cutoff"`
}

type ChartsConfig struct {
	ContactDuration bool     `yaml:"contact_duration" json:"contact_duration"`
	MeetingTime     bool     `yaml:"meeting_time" json:"meeting_time"`
	NeighborModes   []string `yaml:"neighbor_modes" json:"neighbor_modes"`
	NeighborCount   bool     `yaml:"neighbor_count" json:"neighbor_count"`
	NeighborAvg     bool     `yaml:"neighbor_avg" json:"neighbor_avg"`
	NeighborPercent bool     `yaml:"neighbor_percent" json:"neighbor_percent"`
	ConnectionModes []string `yaml:"connection_modes" json:"connection_modes"`
	Vehicles        bool     `yaml:"vehicles" json:"vehicles"`
	AvgNeighbors    bool     `yaml:"avg_neighbors" json:"avg_neighbors"`
}

const (
	FormatPNG  = "png"
	FormatTikz = "tikz"

	BackendGonum   = "gonum"
	BackendGoChart = "gochart"
)

type OutputConfig struct {
	Format       string  `yaml:"format" json:"format"`
	Backend      string  `yaml:"backend" json:"backend"`
	WidthInches  float64 `yaml:"width_in" json:"width_in"`
	HeightInches float64 `yaml:"height_in" json:"height_in"`
	ExportCSV    bool    `yaml:"export_csv" json:"export_csv"`
	Spool        bool    `yaml:"spool" json:"spool"`
	SpoolDir     string  `yaml:"spool_dir" json:"spool_dir"`
}

type DataConfig struct {
	DB DatabaseConfig `yaml:"db"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Org      string `yaml:"org"`
}

type ScenarioConfig struct {
	Name          string `yaml:"name" json:"name"`
	Prefix        string `yaml:"prefix" json:"prefix"`
	BaseFolder    string `yaml:"base_folder" json:"base_folder"`
	ContactFile   string `yaml:"contact_file" json:"contact_file"`
	PerSecondFile string `yaml:"per_second_file" json:"per_second_file"`
	OutputFolder  string `yaml:"output_folder,omitempty" json:"output_folder,omitempty"`
	Enabled       *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

const dataFilesFolder = "data-files"
const resultsFolder = "results"

func (s ScenarioConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func (s ScenarioConfig) resolve(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.BaseFolder, dataFilesFolder, file)
}

func (s ScenarioConfig) GetContactPath() string {
	return s.resolve(s.ContactFile)
}

func (s ScenarioConfig) GetPerSecondPath() string {
	return s.resolve(s.PerSecondFile)
}

func (s ScenarioConfig) GetOutputFolder() string {
	if s.OutputFolder != "" {
		return s.OutputFolder
	}
	return filepath.Join(s.BaseFolder, resultsFolder)
}

func (c *AnalysisConfig) GetEnabledScenarios() []ScenarioConfig {
	var out []ScenarioConfig
	for _, s := range c.Scenarios {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

func (c ChartsConfig) GetNeighborModes() []aggregation.NeighborMode {
	modes := make([]aggregation.NeighborMode, 0, len(c.NeighborModes))
	for _, m := range c.NeighborModes {
		modes = append(modes, aggregation.NeighborMode(m))
	}
	return modes
}

func (c ChartsConfig) GetConnectionModes() []aggregation.DurationMode {
	modes := make([]aggregation.DurationMode, 0, len(c.ConnectionModes))
	for _, m := range c.ConnectionModes {
		modes = append(modes, aggregation.DurationMode(m))
	}
	return modes
}
