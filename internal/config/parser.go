package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"vanet-metrics/internal/dataframe"
	"vanet-metrics/internal/logging"

	"gopkg.in/yaml.v3"
)

func LoadConfig(filepath string) (*AnalysisConfig, error) {
	config, _, err := LoadConfigWithContent(filepath)
	return config, err
}

func LoadConfigWithContent(filepath string) (*AnalysisConfig, string, error) {
	logger := logging.GetLogger()

	data, err := os.ReadFile(filepath)
	if err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to read config file")
		return nil, "", err
	}

	originalContent := string(data)

	config, err := ParseConfig(originalContent)
	if err != nil {
		logger.WithField("filepath", filepath).WithError(err).Error("Failed to parse config file")
		return nil, "", err
	}

	return config, originalContent, nil
}

// ParseConfig reads YAML on top of Default(), so any key left out keeps its
// built-in value. A scenarios list, when present, replaces the built-in one.
func ParseConfig(content string) (*AnalysisConfig, error) {
	expanded := expandEnvVars(content)

	config := Default()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, err
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func Validate(config *AnalysisConfig) error {
	return validateConfig(config)
}

func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		envVar := strings.Trim(match, "${}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})
}

// ParseThresholds reads threshold lists like "0,3,10" or "0-4" (integer
// steps). Duplicates are dropped and the result is ascending.
func ParseThresholds(spec string) ([]float64, error) {
	var thresholds []float64
	seen := make(map[float64]bool)

	add := func(v float64) {
		if !seen[v] {
			thresholds = append(thresholds, v)
			seen[v] = true
		}
	}

	parts := strings.Split(spec, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid threshold range: %s", part)
			}

			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid threshold range start: %s", rangeParts[0])
			}

			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid threshold range end: %s", rangeParts[1])
			}

			if start > end {
				return nil, fmt.Errorf("invalid threshold range: start > end (%d > %d)", start, end)
			}

			for i := start; i <= end; i++ {
				add(float64(i))
			}
		} else {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid threshold: %s", part)
			}
			add(v)
		}
	}

	if len(thresholds) == 0 {
		return nil, fmt.Errorf("no thresholds specified")
	}

	sort.Float64s(thresholds)
	return thresholds, nil
}

// SelectScenarios picks scenarios by name or prefix. With no names it
// returns the enabled ones; a named scenario is picked even when disabled.
func (c *AnalysisConfig) SelectScenarios(names []string) ([]ScenarioConfig, error) {
	if len(names) == 0 {
		return c.GetEnabledScenarios(), nil
	}

	var out []ScenarioConfig
	for _, name := range names {
		found := false
		for _, s := range c.Scenarios {
			if s.Name == name || s.Prefix == name {
				out = append(out, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
	}
	return out, nil
}

func validateConfig(config *AnalysisConfig) error {
	info := config.Analysis

	if info.Name == "" {
		return fmt.Errorf("analysis name is required")
	}

	if len(info.Thresholds) == 0 {
		return fmt.Errorf("at least one contact duration threshold is required")
	}
	for _, t := range info.Thresholds {
		if t < 0 {
			return fmt.Errorf("threshold %v must not be negative", t)
		}
	}

	limits := info.Limits
	if limits.ContactDurationClip <= 0 || limits.CumulativeContactDurationClip <= 0 {
		return fmt.Errorf("contact duration clips must be greater than 0")
	}
	if limits.MeetingTimeCutoff <= 0 || limits.NeighborMeetingTimeCutoff <= 0 {
		return fmt.Errorf("meeting time cutoffs must be greater than 0")
	}

	for _, m := range info.Charts.GetNeighborModes() {
		if !m.Valid() {
			return fmt.Errorf("invalid neighbor mode %q", m)
		}
	}
	for _, m := range info.Charts.GetConnectionModes() {
		if !m.Valid() {
			return fmt.Errorf("invalid connection mode %q", m)
		}
	}

	for _, filters := range [][]dataframe.Filter{info.ContactFilters, info.PerSecondFilters} {
		for i, f := range filters {
			if f.Column == "" {
				return fmt.Errorf("filter %d: column is required", i)
			}
			if f.Value == nil {
				return fmt.Errorf("filter %s: value is required", f.Column)
			}
		}
	}

	out := info.Output
	if out.Format != FormatPNG && out.Format != FormatTikz {
		return fmt.Errorf("output format must be %q or %q, got %q", FormatPNG, FormatTikz, out.Format)
	}
	if out.Format == FormatPNG && out.Backend != BackendGonum && out.Backend != BackendGoChart {
		return fmt.Errorf("output backend must be %q or %q, got %q", BackendGonum, BackendGoChart, out.Backend)
	}
	if out.WidthInches <= 0 || out.HeightInches <= 0 {
		return fmt.Errorf("output size must be greater than 0")
	}

	// Validate database config
	db := info.Data.DB
	if db.Enabled && (db.Host == "" || db.Name == "" || db.Password == "" || db.Org == "") {
		return fmt.Errorf("incomplete database configuration")
	}

	if len(config.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario must be defined")
	}

	// Validate scenarios
	names := make(map[string]bool)
	prefixes := make(map[string]bool)
	for i, s := range config.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("scenario %d: name is required", i)
		}
		if s.Prefix == "" {
			return fmt.Errorf("scenario %s: prefix is required", s.Name)
		}
		if s.ContactFile == "" || s.PerSecondFile == "" {
			return fmt.Errorf("scenario %s: contact_file and per_second_file are required", s.Name)
		}
		if names[s.Name] {
			return fmt.Errorf("scenario %s: name is already used", s.Name)
		}
		names[s.Name] = true
		if prefixes[s.Prefix] {
			return fmt.Errorf("scenario %s: prefix %s is already used", s.Name, s.Prefix)
		}
		prefixes[s.Prefix] = true
	}

	return nil
}
