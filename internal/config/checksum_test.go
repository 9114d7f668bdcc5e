package config

import "testing"

func TestChecksum_DeterministicAcrossScenarioOrder(t *testing.T) {
	cfg := Default()
	scenarios := cfg.Scenarios

	reversed := make([]ScenarioConfig, len(scenarios))
	for i, s := range scenarios {
		reversed[len(scenarios)-1-i] = s
	}

	s1, err := Checksum(cfg, scenarios)
	if err != nil {
		t.Fatalf("Checksum(scenarios): %v", err)
	}
	s2, err := Checksum(cfg, reversed)
	if err != nil {
		t.Fatalf("Checksum(reversed): %v", err)
	}
	if s1 != s2 {
		t.Fatalf("expected same checksum, got %q vs %q", s1, s2)
	}
	if len(s1) != 6 {
		t.Fatalf("expected 6-char checksum, got %q", s1)
	}
}

func TestChecksum_ChangesWithThresholds(t *testing.T) {
	cfg := Default()
	before, err := Checksum(cfg, cfg.Scenarios)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}

	cfg.Analysis.Thresholds = append(cfg.Analysis.Thresholds, 60)
	after, err := Checksum(cfg, cfg.Scenarios)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if before == after {
		t.Fatalf("expected checksum to change when thresholds change, both %q", before)
	}
}

func TestChecksum_IgnoresChartStyling(t *testing.T) {
	cfg := Default()
	before, _ := Checksum(cfg, cfg.Scenarios)

	cfg.Analysis.Output.Backend = BackendGoChart
	cfg.Analysis.Charts.Vehicles = false
	after, _ := Checksum(cfg, cfg.Scenarios)
	if before != after {
		t.Fatalf("expected styling not to affect checksum, got %q vs %q", before, after)
	}
}

func TestChecksum_NilConfig(t *testing.T) {
	s, err := Checksum(nil, nil)
	if err != nil || s != "" {
		t.Fatalf("expected empty checksum for nil config, got %q, %v", s, err)
	}
}
