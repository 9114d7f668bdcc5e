package storage

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"vanet-metrics/internal/aggregation"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return records
}

func TestExportSeriesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "urban-num-vehicles-over-sim-time.csv")
	series := []aggregation.Series{
		{Label: "Urban", X: []float64{0, 1}, Y: []float64{5.5, math.NaN()}},
		{Label: "min contact duration thres >= 3sec", X: []float64{11}, Y: []float64{100}},
	}

	if err := ExportSeriesCSV(path, "num-vehicles-over-sim-time", series); err != nil {
		t.Fatalf("ExportSeriesCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(records))
	}
	if records[0][0] != "chart" || records[0][3] != "y" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][3] != "5.5" || records[2][3] != "" {
		t.Fatalf("unexpected values %v %v", records[1], records[2])
	}
	if records[3][1] != "min contact duration thres >= 3sec" || records[3][2] != "11" {
		t.Fatalf("unexpected row %v", records[3])
	}
}

func TestExportSummaryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urban-summary.csv")
	summary := map[string]float64{"numVehicles": 12.5, "contactDuration": 7}

	if err := ExportSummaryCSV(path, "Urban", summary); err != nil {
		t.Fatalf("ExportSummaryCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(records))
	}
	if records[1][1] != "Urban" || records[2][0] != "contactDuration" || records[3][1] != "12.5" {
		t.Fatalf("unexpected rows %v", records)
	}
}
