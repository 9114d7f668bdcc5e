package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"vanet-metrics/internal/aggregation"

	log "github.com/sirupsen/logrus"
)

var seriesHeader = []string{"chart", "series", "x", "y"}

// ExportSeriesCSV writes one row per point of every series. Points without a
// value (NaN) are written with an empty y.
func ExportSeriesCSV(filename, chart string, series []aggregation.Series) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(seriesHeader); err != nil {
		return err
	}

	rows := 0
	for _, s := range series {
		for i := range s.X {
			row := []string{
				chart,
				s.Label,
				formatFloat(s.X[i]),
				formatFloat(s.Y[i]),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
			rows++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"chart":    chart,
		"filename": filename,
		"series":   len(series),
		"rows":     rows,
	}).Debug("Exported chart series to CSV")
	return nil
}

// ExportSummaryCSV writes scenario level scalars as Property,Value rows in
// key order.
func ExportSummaryCSV(filename, scenario string, summary map[string]float64) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"Property", "Value"}); err != nil {
		return err
	}
	if err := writer.Write([]string{"scenario", scenario}); err != nil {
		return err
	}

	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := writer.Write([]string{k, formatFloat(summary[k])}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
