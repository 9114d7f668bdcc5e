package aggregation

import (
	"fmt"
	"sort"

	"vanet-metrics/internal/dataframe"
	"vanet-metrics/internal/logging"

	"github.com/sirupsen/logrus"
)

// InterMeetingTimes sorts the start times of one vehicle's contacts and
// returns the gaps between consecutive ones. n start times give n-1 gaps.
func InterMeetingTimes(startTimes []float64) []float64 {
	if len(startTimes) < 2 {
		return nil
	}
	sorted := append([]float64(nil), startTimes...)
	sort.Float64s(sorted)

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i]-sorted[i-1])
	}
	return gaps
}

type subjectMeeting struct {
	id         string
	avgMeeting float64
	neighbors  int
}

// subjectMeetingTimes returns one entry per vehicle with at least two
// qualifying contacts: its rounded mean inter-meeting time and its number
// of qualifying contacts.
func subjectMeetingTimes(t *dataframe.Table, minDuration float64, filters []dataframe.Filter) ([]subjectMeeting, error) {
	if err := t.Require(dataframe.ColMyID, dataframe.ColStartTime, dataframe.ColContactDuration); err != nil {
		return nil, err
	}

	filtered, err := t.Where(filters...)
	if err != nil {
		return nil, err
	}
	filtered, err = filtered.AtLeast(dataframe.ColContactDuration, minDuration)
	if err != nil {
		return nil, err
	}

	ids, err := filtered.Strings(dataframe.ColMyID)
	if err != nil {
		return nil, err
	}
	starts, err := filtered.Floats(dataframe.ColStartTime)
	if err != nil {
		return nil, err
	}

	var out []subjectMeeting
	for _, g := range groupBySubject(ids) {
		subjectStarts := make([]float64, len(g.rows))
		for i, row := range g.rows {
			subjectStarts[i] = starts[row]
		}
		gaps := InterMeetingTimes(subjectStarts)
		if len(gaps) == 0 {
			continue
		}
		out = append(out, subjectMeeting{
			id:         g.id,
			avgMeeting: round(mean(gaps)),
			neighbors:  len(g.rows),
		})
	}
	return out, nil
}

// MeetingTimeDistribution computes, for each distinct per-vehicle mean time
// until meeting a new neighbor below cutoff, the percentage of contributing
// vehicles with that mean.
func MeetingTimeDistribution(t *dataframe.Table, minDuration, cutoff float64, filters ...dataframe.Filter) (*Distribution, error) {
	logger := logging.GetAggregationLogger()

	subjects, err := subjectMeetingTimes(t, minDuration, filters)
	if err != nil {
		return nil, err
	}
	op := fmt.Sprintf("meeting time distribution (min duration %g)", minDuration)
	if len(subjects) == 0 {
		return nil, &NoDataError{Op: op, Reason: "no vehicle has two or more qualifying contacts"}
	}

	avgs := make([]float64, len(subjects))
	for i, s := range subjects {
		avgs[i] = s.avgMeeting
	}
	values := distinctSorted(avgs)
	dist := &Distribution{
		Subjects: len(subjects),
		Min:      values[0],
		Max:      values[len(values)-1],
	}

	for _, v := range values {
		if v >= cutoff {
			continue
		}
		n := countOf(avgs, v)
		pct := percent(n, dist.Subjects)
		dist.Values = append(dist.Values, v)
		dist.Counts = append(dist.Counts, n)
		dist.Percents = append(dist.Percents, pct)

		logger.WithFields(logrus.Fields{
			"avg_meeting_time": v,
			"num_vehicles":     n,
			"pct_vehicles":     pct,
		}).Debug("Meeting time bin")
	}

	if len(dist.Values) == 0 {
		return nil, &NoDataError{Op: op, Reason: fmt.Sprintf("no mean meeting time below %g", cutoff)}
	}
	return dist, nil
}

// NeighborsAroundMeetingTime counts, for each distinct per-vehicle mean
// meeting time below cutoff, the contacts of all vehicles whose mean meeting
// time lies at or before it (Before) or at or after it (After).
func NeighborsAroundMeetingTime(t *dataframe.Table, minDuration, cutoff float64, mode NeighborMode, filters ...dataframe.Filter) (*NeighborCounts, error) {
	logger := logging.GetAggregationLogger()

	if !mode.Valid() {
		return nil, fmt.Errorf("invalid neighbor mode %q (want %q or %q)", mode, Before, After)
	}

	logger.WithFields(logrus.Fields{
		"mode":         mode,
		"min_duration": minDuration,
	}).Info("Counting neighbors at and around meeting time")

	subjects, err := subjectMeetingTimes(t, minDuration, filters)
	if err != nil {
		return nil, err
	}
	op := fmt.Sprintf("neighbors %s meeting time (min duration %g)", mode, minDuration)
	if len(subjects) == 0 {
		return nil, &NoDataError{Op: op, Reason: "no vehicle has two or more qualifying contacts"}
	}

	neighborsByMeeting := make(map[float64]int)
	avgs := make([]float64, len(subjects))
	total := 0
	for i, s := range subjects {
		avgs[i] = s.avgMeeting
		neighborsByMeeting[s.avgMeeting] += s.neighbors
		total += s.neighbors
	}

	values := distinctSorted(avgs)
	minMeeting := values[0]
	maxMeeting := values[len(values)-1]

	counts := &NeighborCounts{
		Subjects:       len(subjects),
		TotalNeighbors: total,
	}
	for _, v := range values {
		if v >= cutoff {
			continue
		}
		lo, hi := minMeeting, v
		if mode == After {
			lo, hi = v, maxMeeting
		}
		n := 0
		for _, k := range values {
			if k >= lo && k <= hi {
				n += neighborsByMeeting[k]
			}
		}

		avg := round(float64(n) / float64(counts.Subjects))
		pct := percent(n, total)
		counts.MeetingTimes = append(counts.MeetingTimes, v)
		counts.Neighbors = append(counts.Neighbors, float64(n))
		counts.AvgNeighbors = append(counts.AvgNeighbors, avg)
		counts.PercentNeighbors = append(counts.PercentNeighbors, pct)

		logger.WithFields(logrus.Fields{
			"avg_meeting_time": v,
			"num_nbs":          n,
			"avg_num_nbs":      avg,
		}).Debug("Neighbor count bin")
	}

	if len(counts.MeetingTimes) == 0 {
		return nil, &NoDataError{Op: op, Reason: fmt.Sprintf("no mean meeting time below %g", cutoff)}
	}
	return counts, nil
}
