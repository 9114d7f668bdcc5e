// Package aggregation turns contact and per-second simulation tables into
// chartable distributions. Every function here is pure: it reads a table,
// never mutates it, and returns freshly allocated slices.
package aggregation

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Domain-tuned cutoffs. Values at or above a cutoff are left out of the
// corresponding chart. Each pair differs by one between the plain and the
// cumulative chart; they are separate knobs and must not be unified.
const (
	DefaultContactDurationClip           = 80.0
	DefaultCumulativeContactDurationClip = 81.0
	DefaultMeetingTimeCutoff             = 20.0
	DefaultNeighborMeetingTimeCutoff     = 21.0
)

var ErrNoData = errors.New("no data")

// NoDataError reports that nothing survived filtering, so no statistic can
// be computed.
type NoDataError struct {
	Op     string
	Reason string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrNoData, e.Reason)
}

func (e *NoDataError) Is(target error) bool {
	return target == ErrNoData
}

type NeighborMode string

const (
	Before NeighborMode = "Before"
	After  NeighborMode = "After"
)

func (m NeighborMode) Valid() bool {
	return m == Before || m == After
}

type DurationMode string

const (
	Less DurationMode = "Less"
	More DurationMode = "More"
)

func (m DurationMode) Valid() bool {
	return m == Less || m == More
}

// Distribution is one emitted (value, percentage) sequence together with the
// counts it was derived from.
type Distribution struct {
	Values   []float64
	Percents []float64
	Counts   []int
	// Subjects is the percentage divisor.
	Subjects int
	Min      float64
	Max      float64
}

type NeighborCounts struct {
	MeetingTimes     []float64
	Neighbors        []float64
	AvgNeighbors     []float64
	PercentNeighbors []float64
	Subjects         int
	TotalNeighbors   int
}

type TimeSeries struct {
	Ticks  []float64
	Values []float64
}

// round is half-to-even: 10.5 -> 10, 11.5 -> 12.
func round(v float64) float64 {
	return math.RoundToEven(v)
}

func percent(n, total int) float64 {
	return round(float64(n) / float64(total) * 100)
}

type subjectGroup struct {
	id   string
	rows []int
}

// groupBySubject groups row indices by id, in order of first appearance.
func groupBySubject(ids []string) []subjectGroup {
	index := make(map[string]int)
	var groups []subjectGroup
	for i, id := range ids {
		g, ok := index[id]
		if !ok {
			g = len(groups)
			index[id] = g
			groups = append(groups, subjectGroup{id: id})
		}
		groups[g].rows = append(groups[g].rows, i)
	}
	return groups
}

func distinctSorted(values []float64) []float64 {
	seen := make(map[float64]bool, len(values))
	var out []float64
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func countOf(values []float64, target float64) int {
	n := 0
	for _, v := range values {
		if v == target {
			n++
		}
	}
	return n
}

func countBetween(values []float64, lo, hi float64) int {
	n := 0
	for _, v := range values {
		if v >= lo && v <= hi {
			n++
		}
	}
	return n
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
