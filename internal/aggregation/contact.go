package aggregation

import (
	"fmt"

	"vanet-metrics/internal/dataframe"
	"vanet-metrics/internal/logging"

	"github.com/sirupsen/logrus"
)

// subjectMeanDurations returns the rounded mean contact duration of every
// subject that has at least one contact of minDuration or longer.
func subjectMeanDurations(t *dataframe.Table, minDuration float64, filters []dataframe.Filter) ([]float64, error) {
	if err := t.Require(dataframe.ColMyID, dataframe.ColContactDuration); err != nil {
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
	durations, err := filtered.Floats(dataframe.ColContactDuration)
	if err != nil {
		return nil, err
	}

	groups := groupBySubject(ids)
	means := make([]float64, 0, len(groups))
	for _, g := range groups {
		values := make([]float64, len(g.rows))
		for i, row := range g.rows {
			values[i] = durations[row]
		}
		means = append(means, round(mean(values)))
	}
	return means, nil
}

func below(values []float64, clip float64) []float64 {
	var kept []float64
	for _, v := range values {
		if v < clip {
			kept = append(kept, v)
		}
	}
	return kept
}

// ContactDurationDistribution computes, for each distinct per-vehicle mean
// contact duration below clip, the percentage of vehicles with that mean.
func ContactDurationDistribution(t *dataframe.Table, minDuration, clip float64, filters ...dataframe.Filter) (*Distribution, error) {
	logger := logging.GetAggregationLogger()

	means, err := subjectMeanDurations(t, minDuration, filters)
	if err != nil {
		return nil, err
	}
	kept := below(means, clip)
	if len(kept) == 0 {
		return nil, &NoDataError{
			Op:     fmt.Sprintf("contact duration distribution (min duration %g)", minDuration),
			Reason: fmt.Sprintf("no vehicle has a mean contact duration below %g", clip),
		}
	}

	values := distinctSorted(kept)
	dist := &Distribution{
		Subjects: len(kept),
		Min:      values[0],
		Max:      values[len(values)-1],
	}

	logger.WithFields(logrus.Fields{
		"min_duration":         minDuration,
		"total_vehicles":       dist.Subjects,
		"min_contact_duration": dist.Min,
		"max_contact_duration": dist.Max,
	}).Info("Contact duration distribution")

	for _, v := range values {
		n := countOf(kept, v)
		pct := percent(n, dist.Subjects)
		dist.Values = append(dist.Values, v)
		dist.Counts = append(dist.Counts, n)
		dist.Percents = append(dist.Percents, pct)

		logger.WithFields(logrus.Fields{
			"contact_duration": v,
			"num_vehicles":     n,
			"pct_vehicles":     pct,
		}).Debug("Contact duration bin")
	}
	return dist, nil
}

// CumulativeContactDuration computes, for each distinct per-vehicle mean
// contact duration below clip, the percentage of vehicles whose mean lies at
// or below it (Less) or at or above it (More).
func CumulativeContactDuration(t *dataframe.Table, minDuration, clip float64, mode DurationMode, filters ...dataframe.Filter) (*Distribution, error) {
	logger := logging.GetAggregationLogger()

	if !mode.Valid() {
		return nil, fmt.Errorf("invalid duration mode %q (want %q or %q)", mode, Less, More)
	}

	means, err := subjectMeanDurations(t, minDuration, filters)
	if err != nil {
		return nil, err
	}
	kept := below(means, clip)
	if len(kept) == 0 {
		return nil, &NoDataError{
			Op:     fmt.Sprintf("cumulative contact duration %s (min duration %g)", mode, minDuration),
			Reason: fmt.Sprintf("no vehicle has a mean contact duration below %g", clip),
		}
	}

	values := distinctSorted(kept)
	dist := &Distribution{
		Subjects: len(kept),
		Min:      values[0],
		Max:      values[len(values)-1],
	}

	logger.WithFields(logrus.Fields{
		"min_duration":         minDuration,
		"mode":                 mode,
		"total_vehicles":       dist.Subjects,
		"min_contact_duration": dist.Min,
		"max_contact_duration": dist.Max,
	}).Info("Cumulative contact duration")

	for _, v := range values {
		var n int
		if mode == Less {
			n = countBetween(kept, dist.Min, v)
		} else {
			n = countBetween(kept, v, dist.Max)
		}
		pct := percent(n, dist.Subjects)
		dist.Values = append(dist.Values, v)
		dist.Counts = append(dist.Counts, n)
		dist.Percents = append(dist.Percents, pct)

		logger.WithFields(logrus.Fields{
			"contact_duration": v,
			"num_vehicles":     n,
			"pct_vehicles":     pct,
		}).Debug("Cumulative contact duration bin")
	}
	return dist, nil
}
