package config

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"

	"vanet-metrics/internal/dataframe"
)

type checksumScenario struct {
	Prefix        string `json:"prefix"`
	ContactFile   string `json:"contact_file"`
	PerSecondFile string `json:"per_second_file"`
}

type checksumPayload struct {
	TxPower          float64            `json:"tx_power"`
	Thresholds       []float64          `json:"thresholds"`
	Limits           LimitsConfig       `json:"limits"`
	ContactFilters   []string           `json:"contact_filters"`
	PerSecondFilters []string           `json:"per_second_filters"`
	Scenarios        []checksumScenario `json:"scenarios"`
}

// Checksum returns a short, stable id for the effective analysis: the inputs
// and parameters that shape the numbers, not the chart styling.
//
// It computes MD5 over a canonical JSON representation and returns the first 6 hex
// characters (equivalent to `md5sum | cut -c1-6`).
func Checksum(cfg *AnalysisConfig, scenarios []ScenarioConfig) (string, error) {
	if cfg == nil {
		return "", nil
	}

	thresholds := append([]float64(nil), cfg.Analysis.Thresholds...)
	sort.Float64s(thresholds)

	entries := make([]checksumScenario, 0, len(scenarios))
	for _, s := range scenarios {
		entries = append(entries, checksumScenario{
			Prefix:        s.Prefix,
			ContactFile:   s.GetContactPath(),
			PerSecondFile: s.GetPerSecondPath(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Prefix < entries[j].Prefix
	})

	payload := checksumPayload{
		TxPower:          cfg.Analysis.TxPower,
		Thresholds:       thresholds,
		Limits:           cfg.Analysis.Limits,
		ContactFilters:   filterStrings(cfg.Analysis.ContactFilters),
		PerSecondFilters: filterStrings(cfg.Analysis.PerSecondFilters),
		Scenarios:        entries,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	sum := md5.Sum(b)
	hexStr := hex.EncodeToString(sum[:])
	if len(hexStr) > 6 {
		hexStr = hexStr[:6]
	}
	return hexStr, nil
}

func filterStrings(filters []dataframe.Filter) []string {
	out := make([]string, 0, len(filters))
	for _, f := range filters {
		out = append(out, f.String())
	}
	return out
}
