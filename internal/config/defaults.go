package config

import (
	"vanet-metrics/internal/aggregation"
)

func boolPtr(v bool) *bool {
	return &v
}

func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		ContactDurationClip:           aggregation.DefaultContactDurationClip,
		CumulativeContactDurationClip: aggregation.DefaultCumulativeContactDurationClip,
		MeetingTimeCutoff:             aggregation.DefaultMeetingTimeCutoff,
		NeighborMeetingTimeCutoff:     aggregation.DefaultNeighborMeetingTimeCutoff,
	}
}

// DefaultScenarios is the built-in list of Irish urban and national highway
// runs. The rush hour runs are listed but disabled.
func DefaultScenarios() []ScenarioConfig {
	return []ScenarioConfig{
		{
			Name:          "Ireland Urban (Dublin City Centre) (Non-Rush Hours)",
			Prefix:        "ireland-urban-freeflow",
			BaseFolder:    "2024-03-01-IrelandUrban-FreeFlow",
			ContactFile:   "metricsAnalysis-indvContactDurationLog-0.200000mW-IrelandUrban-FreeFlow.csv",
			PerSecondFile: "metricsAnalysis-perSecondNumVehiclesAndNumAvgNbs-0.200000mW-IrelandUrban-FreeFlow.csv",
		},
		{
			Name:          "Ireland Urban (Dublin City Centre) (Rush Hours)",
			Prefix:        "ireland-urban-saturated",
			BaseFolder:    "2024-03-01-IrelandUrban-Saturated",
			ContactFile:   "metricsAnalysis-indvContactDurationLog-0.200000mW-IrelandUrban-Saturated.csv",
			PerSecondFile: "metricsAnalysis-perSecondNumVehiclesAndNumAvgNbs-0.200000mW-IrelandUrban-Saturated.csv",
			Enabled:       boolPtr(false),
		},
		{
			Name:          "Ireland National Highway (Non-Rush Hours)",
			Prefix:        "ireland-national-freeflow",
			BaseFolder:    "2024-03-01-IrelandNational-FreeFlow",
			ContactFile:   "metricsAnalysis-indvContactDurationLog-0.200000mW-IrelandNationalN7-FreeFlow.csv",
			PerSecondFile: "metricsAnalysis-perSecondNumVehiclesAndNumAvgNbs-0.200000mW-IrelandNationalN7-FreeFlow.csv",
		},
		{
			Name:          "Ireland National Highway (Rush Hours)",
			Prefix:        "ireland-national-saturated",
			BaseFolder:    "2024-03-01-IrelandNational-Saturated",
			ContactFile:   "metricsAnalysis-indvContactDurationLog-0.200000mW-IrelandNationalN7-Saturated.csv",
			PerSecondFile: "metricsAnalysis-perSecondNumVehiclesAndNumAvgNbs-0.200000mW-IrelandNationalN7-Saturated.csv",
			Enabled:       boolPtr(false),
		},
	}
}

func Default() *AnalysisConfig {
	return &AnalysisConfig{
		Analysis: AnalysisInfo{
			Name:        "vanet-metrics",
			Description: "Contact, meeting time and vehicle count charts for VANET simulation logs",
			LogLevel:    "info",
			TxPower:     0.2,
			Thresholds:  []float64{0, 3, 10, 25, 40},
			Limits:      DefaultLimits(),
			Charts: ChartsConfig{
				ContactDuration: true,
				MeetingTime:     true,
				NeighborModes:   []string{string(aggregation.Before)},
				NeighborPercent: true,
				ConnectionModes: []string{string(aggregation.More)},
				Vehicles:        true,
			},
			Output: OutputConfig{
				Format:       FormatPNG,
				Backend:      BackendGonum,
				WidthInches:  18,
				HeightInches: 12,
				ExportCSV:    true,
				Spool:        true,
			},
		},
		Scenarios: DefaultScenarios(),
	}
}
