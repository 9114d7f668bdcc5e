package aggregation

import (
	"fmt"
	"math"

	"vanet-metrics/internal/dataframe"
)

// MeanPerSimTime averages column over the rows of every integer simulation
// tick from 0 up to the largest simTime of the unfiltered table. Ticks with
// no matching row hold NaN.
func MeanPerSimTime(t *dataframe.Table, column string, filters ...dataframe.Filter) (*TimeSeries, error) {
	if err := t.Require(dataframe.ColSimTime, column); err != nil {
		return nil, err
	}

	maxSimTime, err := t.Max(dataframe.ColSimTime)
	if err != nil {
		return nil, err
	}
	op := fmt.Sprintf("mean %s per simulation time", column)
	if math.IsNaN(maxSimTime) || maxSimTime < 0 {
		return nil, &NoDataError{Op: op, Reason: "table has no simulation time samples"}
	}

	filtered, err := t.Where(filters...)
	if err != nil {
		return nil, err
	}
	times, err := filtered.Floats(dataframe.ColSimTime)
	if err != nil {
		return nil, err
	}
	values, err := filtered.Floats(column)
	if err != nil {
		return nil, err
	}

	ticks := int(math.Floor(maxSimTime)) + 1
	sums := make([]float64, ticks)
	counts := make([]int, ticks)
	for i, st := range times {
		if st != math.Trunc(st) || st < 0 || int(st) >= ticks {
			continue
		}
		if math.IsNaN(values[i]) {
			continue
		}
		sums[int(st)] += values[i]
		counts[int(st)]++
	}

	ts := &TimeSeries{
		Ticks:  make([]float64, ticks),
		Values: make([]float64, ticks),
	}
	for i := 0; i < ticks; i++ {
		ts.Ticks[i] = float64(i)
		if counts[i] == 0 {
			ts.Values[i] = math.NaN()
			continue
		}
		ts.Values[i] = sums[i] / float64(counts[i])
	}
	return ts, nil
}

// Mean is the plain mean of column over the filtered rows, NaN cells
// skipped.
func Mean(t *dataframe.Table, column string, filters ...dataframe.Filter) (float64, error) {
	filtered, err := t.Where(filters...)
	if err != nil {
		return 0, err
	}
	values, err := filtered.Floats(column)
	if err != nil {
		return 0, err
	}
	var present []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return 0, &NoDataError{Op: fmt.Sprintf("mean %s", column), Reason: "no rows match"}
	}
	return mean(present), nil
}
