package dataframe

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"vanet-metrics/internal/logging"

	gdf "github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sirupsen/logrus"
)

// Column names written by the simulator's contact and per-second logs.
const (
	ColMyID            = "myId"
	ColNbID            = "nbId"
	ColStartTime       = "startTime"
	ColEndTime         = "endTime"
	ColContactDuration = "contactDuration"
	ColTxPower         = "txPower"
	ColScenario        = "scenario"
	ColSimTime         = "simTime"
	ColNumVehicles     = "numVehicles"
	ColNumAvgNbs       = "numAvgNbs"
)

var ContactColumns = []string{ColMyID, ColNbID, ColStartTime, ColEndTime, ColContactDuration, ColTxPower}

var PerSecondColumns = []string{ColSimTime, ColNumVehicles}

var ErrMissingColumn = errors.New("missing column")

// columnTypes pins the known columns so that thresholds and filters compare
// as floats regardless of what the first rows look like.
var columnTypes = map[string]series.Type{
	ColMyID:            series.String,
	ColNbID:            series.String,
	ColStartTime:       series.Float,
	ColEndTime:         series.Float,
	ColContactDuration: series.Float,
	ColTxPower:         series.Float,
	ColScenario:        series.String,
	ColSimTime:         series.Float,
	ColNumVehicles:     series.Float,
	ColNumAvgNbs:       series.Float,
}

// Filter is a single column == value constraint. A slice of filters is
// applied conjunctively, in order.
type Filter struct {
	Column string      `yaml:"column" json:"column"`
	Value  interface{} `yaml:"value" json:"value"`
}

func (f Filter) String() string {
	return fmt.Sprintf("%s=%v", f.Column, f.Value)
}

// Table is a read-only in-memory table. Every operation that narrows it
// returns a new Table and leaves the receiver untouched.
type Table struct {
	name string
	df   gdf.DataFrame
}

func LoadCSV(path string) (*Table, error) {
	logger := logging.GetLogger()

	f, err := os.Open(path)
	if err != nil {
		logger.WithField("path", path).WithError(err).Error("Failed to open data file")
		return nil, err
	}
	defer f.Close()

	t, err := ReadCSV(f, path)
	if err != nil {
		logger.WithField("path", path).WithError(err).Error("Failed to parse data file")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"path":    path,
		"rows":    t.Nrow(),
		"columns": len(t.Names()),
	}).Debug("Loaded data file")
	return t, nil
}

// ReadCSV parses a comma separated table with a header row. A file that has
// a header but no rows yields an empty Table.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	df := gdf.ReadCSV(bytes.NewReader(data),
		gdf.HasHeader(true),
		gdf.DetectTypes(true),
		gdf.WithTypes(columnTypes),
		gdf.WithDelimiter(','),
	)
	if df.Err != nil {
		if header, ok := headerOnly(data); ok {
			return emptyTable(name, header), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, df.Err)
	}
	return &Table{name: name, df: df}, nil
}

// headerOnly reports the header of a CSV document that has no data rows.
func headerOnly(data []byte) ([]string, bool) {
	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if err != nil || len(header) == 0 {
		return nil, false
	}
	if _, err := r.Read(); err != io.EOF {
		return nil, false
	}
	return header, true
}

// emptyTable builds a zero-row table with the given columns, typed like a
// loaded one.
func emptyTable(name string, header []string) *Table {
	columns := make([]series.Series, 0, len(header))
	for _, col := range header {
		typ, ok := columnTypes[col]
		if !ok {
			typ = series.String
		}
		columns = append(columns, series.New([]string{}, typ, col))
	}
	return &Table{name: name, df: gdf.New(columns...)}
}

// FromRecords builds a table from a header row followed by data rows.
func FromRecords(name string, records [][]string) (*Table, error) {
	if len(records) == 1 {
		return emptyTable(name, records[0]), nil
	}
	df := gdf.LoadRecords(records,
		gdf.HasHeader(true),
		gdf.DetectTypes(true),
		gdf.WithTypes(columnTypes),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to load records for %s: %w", name, df.Err)
	}
	return &Table{name: name, df: df}, nil
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Nrow() int {
	return t.df.Nrow()
}

func (t *Table) Names() []string {
	return t.df.Names()
}

func (t *Table) Has(column string) bool {
	for _, n := range t.df.Names() {
		if n == column {
			return true
		}
	}
	return false
}

func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if !t.Has(c) {
			return fmt.Errorf("%s: %w %q", t.name, ErrMissingColumn, c)
		}
	}
	return nil
}

func (t *Table) Where(filters ...Filter) (*Table, error) {
	df := t.df
	for _, f := range filters {
		if !t.Has(f.Column) {
			return nil, fmt.Errorf("%s: filter %s: %w %q", t.name, f, ErrMissingColumn, f.Column)
		}
		if df.Nrow() == 0 {
			continue
		}
		// gota ORs the filters of a single call, so each one gets its own pass.
		df = df.Filter(gdf.F{Colname: f.Column, Comparator: series.Eq, Comparando: f.Value})
		if df.Err != nil {
			return nil, fmt.Errorf("%s: filter %s: %w", t.name, f, df.Err)
		}
	}
	return &Table{name: t.name, df: df}, nil
}

// AtLeast keeps the rows whose column value is >= min.
func (t *Table) AtLeast(column string, min float64) (*Table, error) {
	if err := t.Require(column); err != nil {
		return nil, err
	}
	if t.df.Nrow() == 0 {
		return t, nil
	}
	df := t.df.Filter(gdf.F{Colname: column, Comparator: series.GreaterEq, Comparando: min})
	if df.Err != nil {
		return nil, fmt.Errorf("%s: %s >= %v: %w", t.name, column, min, df.Err)
	}
	return &Table{name: t.name, df: df}, nil
}

func (t *Table) Floats(column string) ([]float64, error) {
	if err := t.Require(column); err != nil {
		return nil, err
	}
	s := t.df.Col(column)
	if s.Err != nil {
		return nil, fmt.Errorf("%s: column %q: %w", t.name, column, s.Err)
	}
	if s.Type() == series.String && s.Len() > 0 {
		return nil, fmt.Errorf("%s: column %q is not numeric", t.name, column)
	}
	return s.Float(), nil
}

func (t *Table) Strings(column string) ([]string, error) {
	if err := t.Require(column); err != nil {
		return nil, err
	}
	s := t.df.Col(column)
	if s.Err != nil {
		return nil, fmt.Errorf("%s: column %q: %w", t.name, column, s.Err)
	}
	return s.Records(), nil
}

// Max returns the largest non-NaN value of a numeric column, or NaN when
// the column holds no values.
func (t *Table) Max(column string) (float64, error) {
	values, err := t.Floats(column)
	if err != nil {
		return 0, err
	}
	max := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}
	return max, nil
}
