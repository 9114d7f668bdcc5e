package aggregation

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"vanet-metrics/internal/dataframe"
)

type contact struct {
	myID     string
	nbID     string
	start    float64
	duration float64
	txPower  float64
}

func contactTable(t *testing.T, contacts []contact) *dataframe.Table {
	t.Helper()
	records := [][]string{{"myId", "nbId", "startTime", "endTime", "contactDuration", "txPower"}}
	for _, c := range contacts {
		records = append(records, []string{
			c.myID,
			c.nbID,
			strconv.FormatFloat(c.start, 'f', -1, 64),
			strconv.FormatFloat(c.start+c.duration, 'f', -1, 64),
			strconv.FormatFloat(c.duration, 'f', -1, 64),
			strconv.FormatFloat(c.txPower, 'f', -1, 64),
		})
	}
	tbl, err := dataframe.FromRecords("contacts", records)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return tbl
}

func sampleContacts() []contact {
	return []contact{
		// vehicle 1: durations 10, 10, 12 -> mean 10.67 -> 11; starts 0, 2, 6
		{"1", "2", 0, 10, 0.2},
		{"1", "3", 2, 10, 0.2},
		{"1", "4", 6, 12, 0.2},
		// vehicle 2: durations 4, 6 -> 5; starts 1, 4
		{"2", "1", 1, 4, 0.2},
		{"2", "5", 4, 6, 0.2},
		// vehicle 3: durations 90 -> clipped; single contact
		{"3", "1", 3, 90, 0.2},
		// vehicle 4: durations 5 -> 5; starts 10, 20, 30
		{"4", "6", 10, 5, 0.2},
		{"4", "7", 20, 5, 0.2},
		{"4", "8", 30, 5, 0.2},
		// vehicle 5 at another power: durations 2
		{"5", "1", 0, 2, 0.5},
	}
}

func TestContactDurationDistribution_SingleVehicleExample(t *testing.T) {
	tbl := contactTable(t, []contact{
		{"A", "1", 0, 10, 0.2},
		{"A", "2", 1, 10, 0.2},
		{"A", "3", 2, 12, 0.2},
	})

	dist, err := ContactDurationDistribution(tbl, 0, DefaultContactDurationClip)
	if err != nil {
		t.Fatalf("ContactDurationDistribution: %v", err)
	}
	if len(dist.Values) != 1 || dist.Values[0] != 11 {
		t.Fatalf("expected single value 11, got %v", dist.Values)
	}
	if dist.Percents[0] != 100 {
		t.Fatalf("expected 100%%, got %v", dist.Percents[0])
	}
}

func TestContactDurationDistribution_ClipAndPercentages(t *testing.T) {
	tbl := contactTable(t, sampleContacts())

	dist, err := ContactDurationDistribution(tbl, 0, DefaultContactDurationClip, dataframe.Filter{Column: "txPower", Value: 0.2})
	if err != nil {
		t.Fatalf("ContactDurationDistribution: %v", err)
	}
	// means: v1=11, v2=5, v3=90 (clipped), v4=5
	wantValues := []float64{5, 11}
	wantPercents := []float64{67, 33}
	if len(dist.Values) != len(wantValues) {
		t.Fatalf("expected values %v, got %v", wantValues, dist.Values)
	}
	sum := 0
	for i := range wantValues {
		if dist.Values[i] != wantValues[i] {
			t.Fatalf("value %d: expected %v, got %v", i, wantValues[i], dist.Values[i])
		}
		if dist.Percents[i] != wantPercents[i] {
			t.Fatalf("percent %d: expected %v, got %v", i, wantPercents[i], dist.Percents[i])
		}
		if dist.Values[i] >= DefaultContactDurationClip {
			t.Fatalf("value %v not below clip", dist.Values[i])
		}
		sum += dist.Counts[i]
	}
	if dist.Subjects != 3 || sum != dist.Subjects {
		t.Fatalf("expected 3 subjects, got %d (counts sum %d)", dist.Subjects, sum)
	}
}

func TestContactDurationDistribution_ThresholdDropsShortContacts(t *testing.T) {
	tbl := contactTable(t, sampleContacts())

	dist, err := ContactDurationDistribution(tbl, 6, DefaultContactDurationClip)
	if err != nil {
		t.Fatalf("ContactDurationDistribution: %v", err)
	}
	// rows >= 6: v1 (10,10,12) -> 11, v2 (6) -> 6, v3 (90) clipped
	if len(dist.Values) != 2 || dist.Values[0] != 6 || dist.Values[1] != 11 {
		t.Fatalf("expected [6 11], got %v", dist.Values)
	}
	if dist.Percents[0] != 50 || dist.Percents[1] != 50 {
		t.Fatalf("expected [50 50], got %v", dist.Percents)
	}
}

func TestContactDurationDistribution_NoData(t *testing.T) {
	tbl := contactTable(t, sampleContacts())

	_, err := ContactDurationDistribution(tbl, 1000, DefaultContactDurationClip)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	var nd *NoDataError
	if !errors.As(err, &nd) {
		t.Fatalf("expected *NoDataError, got %T", err)
	}
}

func TestContactDurationDistribution_MissingColumn(t *testing.T) {
	tbl, err := dataframe.FromRecords("bad", [][]string{{"myId", "startTime"}, {"1", "0"}})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	_, err = ContactDurationDistribution(tbl, 0, DefaultContactDurationClip)
	if !errors.Is(err, dataframe.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestContactDurationDistribution_Idempotent(t *testing.T) {
	tbl := contactTable(t, sampleContacts())

	a, err := ContactDurationDistribution(tbl, 3, DefaultContactDurationClip)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := ContactDurationDistribution(tbl, 3, DefaultContactDurationClip)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(a.Values) != len(b.Values) {
		t.Fatalf("runs differ: %v vs %v", a.Values, b.Values)
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] || a.Percents[i] != b.Percents[i] {
			t.Fatalf("runs differ at %d", i)
		}
	}
}

func TestCumulativeContactDuration_LessAndMore(t *testing.T) {
	tbl := contactTable(t, sampleContacts())

	less, err := CumulativeContactDuration(tbl, 0, DefaultCumulativeContactDurationClip, Less)
	if err != nil {
		t.Fatalf("Less: %v", err)
	}
	// means: v1=11, v2=5, v4=5, v5=2 (v3=90 clipped)
	if len(less.Values) != 3 || less.Values[0] != 2 || less.Values[1] != 5 || less.Values[2] != 11 {
		t.Fatalf("unexpected values %v", less.Values)
	}
	wantLess := []float64{25, 75, 100}
	for i, w := range wantLess {
		if less.Percents[i] != w {
			t.Fatalf("Less percent %d: expected %v, got %v", i, w, less.Percents[i])
		}
	}

	more, err := CumulativeContactDuration(tbl, 0, DefaultCumulativeContactDurationClip, More)
	if err != nil {
		t.Fatalf("More: %v", err)
	}
	wantMore := []float64{100, 75, 25}
	for i, w := range wantMore {
		if more.Percents[i] != w {
			t.Fatalf("More percent %d: expected %v, got %v", i, w, more.Percents[i])
		}
	}
}

func TestCumulativeContactDuration_ClipDiffersFromDistribution(t *testing.T) {
	tbl := contactTable(t, []contact{
		{"1", "2", 0, 80, 0.2},
		{"2", "1", 0, 10, 0.2},
	})

	dist, err := ContactDurationDistribution(tbl, 0, DefaultContactDurationClip)
	if err != nil {
		t.Fatalf("ContactDurationDistribution: %v", err)
	}
	if len(dist.Values) != 1 {
		t.Fatalf("expected 80 to be clipped, got %v", dist.Values)
	}

	cum, err := CumulativeContactDuration(tbl, 0, DefaultCumulativeContactDurationClip, Less)
	if err != nil {
		t.Fatalf("CumulativeContactDuration: %v", err)
	}
	if len(cum.Values) != 2 || cum.Values[1] != 80 {
		t.Fatalf("expected 80 to be kept, got %v", cum.Values)
	}
}

func TestCumulativeContactDuration_InvalidMode(t *testing.T) {
	tbl := contactTable(t, sampleContacts())
	if _, err := CumulativeContactDuration(tbl, 0, DefaultCumulativeContactDurationClip, DurationMode("Equal")); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
}

func TestInterMeetingTimes_NMinusOneGaps(t *testing.T) {
	gaps := InterMeetingTimes([]float64{30, 0, 10, 12})
	want := []float64{10, 2, 18}
	if len(gaps) != len(want) {
		t.Fatalf("expected %d gaps, got %v", len(want), gaps)
	}
	for i := range want {
		if gaps[i] != want[i] {
			t.Fatalf("gap %d: expected %v, got %v", i, want[i], gaps[i])
		}
	}
	if got := InterMeetingTimes([]float64{5}); len(got) != 0 {
		t.Fatalf("expected no gaps for single contact, got %v", got)
	}
	if got := InterMeetingTimes(nil); len(got) != 0 {
		t.Fatalf("expected no gaps for no contacts, got %v", got)
	}
}

func TestMeetingTimeDistribution(t *testing.T) {
	tbl := contactTable(t, sampleContacts())

	dist, err := MeetingTimeDistribution(tbl, 0, DefaultMeetingTimeCutoff)
	if err != nil {
		t.Fatalf("MeetingTimeDistribution: %v", err)
	}
	// v1 starts 0,2,6 -> gaps 2,4 -> 3; v2 starts 1,4 -> 3; v4 -> 10;
	// v3 and v5 have one contact each and contribute nothing.
	if dist.Subjects != 3 {
		t.Fatalf("expected 3 contributing vehicles, got %d", dist.Subjects)
	}
	if len(dist.Values) != 2 || dist.Values[0] != 3 || dist.Values[1] != 10 {
		t.Fatalf("expected [3 10], got %v", dist.Values)
	}
	if dist.Percents[0] != 67 || dist.Percents[1] != 33 {
		t.Fatalf("expected [67 33], got %v", dist.Percents)
	}
}

func TestMeetingTimeDistribution_CutoffKeepsDivisor(t *testing.T) {
	tbl := contactTable(t, []contact{
		{"1", "2", 0, 5, 0.2},
		{"1", "3", 4, 5, 0.2},
		{"2", "1", 0, 5, 0.2},
		{"2", "3", 40, 5, 0.2},
	})

	dist, err := MeetingTimeDistribution(tbl, 0, DefaultMeetingTimeCutoff)
	if err != nil {
		t.Fatalf("MeetingTimeDistribution: %v", err)
	}
	if len(dist.Values) != 1 || dist.Values[0] != 4 {
		t.Fatalf("expected only 4 below cutoff, got %v", dist.Values)
	}
	if dist.Percents[0] != 50 {
		t.Fatalf("expected 50%% with both vehicles in the divisor, got %v", dist.Percents[0])
	}
}

func TestMeetingTimeDistribution_NoData(t *testing.T) {
	tbl := contactTable(t, []contact{{"1", "2", 0, 5, 0.2}, {"2", "1", 0, 5, 0.2}})
	if _, err := MeetingTimeDistribution(tbl, 0, DefaultMeetingTimeCutoff); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestNeighborsAroundMeetingTime_BeforeReachesTotalAtMax(t *testing.T) {
	tbl := contactTable(t, sampleContacts())

	counts, err := NeighborsAroundMeetingTime(tbl, 0, DefaultNeighborMeetingTimeCutoff, Before)
	if err != nil {
		t.Fatalf("NeighborsAroundMeetingTime: %v", err)
	}
	// neighbors: v1 3 rows at 3, v2 2 rows at 3, v4 3 rows at 10
	if counts.TotalNeighbors != 8 || counts.Subjects != 3 {
		t.Fatalf("expected 8 neighbors over 3 vehicles, got %d over %d", counts.TotalNeighbors, counts.Subjects)
	}
	wantNbs := []float64{5, 8}
	wantAvg := []float64{2, 3}
	wantPct := []float64{62, 100}
	for i := range wantNbs {
		if counts.Neighbors[i] != wantNbs[i] {
			t.Fatalf("neighbors %d: expected %v, got %v", i, wantNbs[i], counts.Neighbors[i])
		}
		if counts.AvgNeighbors[i] != wantAvg[i] {
			t.Fatalf("avg %d: expected %v, got %v", i, wantAvg[i], counts.AvgNeighbors[i])
		}
		if counts.PercentNeighbors[i] != wantPct[i] {
			t.Fatalf("pct %d: expected %v, got %v", i, wantPct[i], counts.PercentNeighbors[i])
		}
	}
	last := len(counts.Neighbors) - 1
	if int(counts.Neighbors[last]) != counts.TotalNeighbors {
		t.Fatalf("Before at max should equal total")
	}
}

func TestNeighborsAroundMeetingTime_AfterReachesTotalAtMin(t *testing.T) {
	tbl := contactTable(t, sampleContacts())

	counts, err := NeighborsAroundMeetingTime(tbl, 0, DefaultNeighborMeetingTimeCutoff, After)
	if err != nil {
		t.Fatalf("NeighborsAroundMeetingTime: %v", err)
	}
	if int(counts.Neighbors[0]) != counts.TotalNeighbors {
		t.Fatalf("After at min should equal total %d, got %v", counts.TotalNeighbors, counts.Neighbors[0])
	}
	if counts.Neighbors[1] != 3 {
		t.Fatalf("expected 3 neighbors at 10, got %v", counts.Neighbors[1])
	}
}

func TestNeighborsAroundMeetingTime_CutoffIsInclusiveOfTwenty(t *testing.T) {
	tbl := contactTable(t, []contact{
		{"1", "2", 0, 5, 0.2},
		{"1", "3", 20, 5, 0.2},
		{"2", "1", 0, 5, 0.2},
		{"2", "3", 2, 5, 0.2},
	})

	counts, err := NeighborsAroundMeetingTime(tbl, 0, DefaultNeighborMeetingTimeCutoff, Before)
	if err != nil {
		t.Fatalf("NeighborsAroundMeetingTime: %v", err)
	}
	if len(counts.MeetingTimes) != 2 || counts.MeetingTimes[1] != 20 {
		t.Fatalf("expected 20 to be kept, got %v", counts.MeetingTimes)
	}

	dist, err := MeetingTimeDistribution(tbl, 0, DefaultMeetingTimeCutoff)
	if err != nil {
		t.Fatalf("MeetingTimeDistribution: %v", err)
	}
	if len(dist.Values) != 1 {
		t.Fatalf("expected 20 to be cut from the distribution, got %v", dist.Values)
	}
}

func TestNeighborsAroundMeetingTime_InvalidMode(t *testing.T) {
	tbl := contactTable(t, sampleContacts())
	if _, err := NeighborsAroundMeetingTime(tbl, 0, DefaultNeighborMeetingTimeCutoff, NeighborMode("During")); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
}

func perSecondTable(t *testing.T, rows [][]string) *dataframe.Table {
	t.Helper()
	records := append([][]string{{"simTime", "numVehicles", "numAvgNbs", "txPower"}}, rows...)
	tbl, err := dataframe.FromRecords("perSecond", records)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return tbl
}

func TestMeanPerSimTime(t *testing.T) {
	tbl := perSecondTable(t, [][]string{
		{"0", "4", "1", "0.2"},
		{"0", "6", "2", "0.2"},
		{"2", "3", "1", "0.2"},
		{"3.5", "9", "1", "0.2"},
	})

	ts, err := MeanPerSimTime(tbl, "numVehicles")
	if err != nil {
		t.Fatalf("MeanPerSimTime: %v", err)
	}
	if len(ts.Ticks) != 4 {
		t.Fatalf("expected floor(3.5)+1 = 4 ticks, got %d", len(ts.Ticks))
	}
	if ts.Values[0] != 5 {
		t.Fatalf("expected tick 0 mean 5, got %v", ts.Values[0])
	}
	if !math.IsNaN(ts.Values[1]) {
		t.Fatalf("expected NaN at empty tick 1, got %v", ts.Values[1])
	}
	if ts.Values[2] != 3 {
		t.Fatalf("expected tick 2 mean 3, got %v", ts.Values[2])
	}
	if !math.IsNaN(ts.Values[3]) {
		t.Fatalf("expected NaN at tick 3, got %v", ts.Values[3])
	}
}

func TestMeanPerSimTime_FilterKeepsUnfilteredRange(t *testing.T) {
	tbl := perSecondTable(t, [][]string{
		{"0", "4", "1", "0.2"},
		{"5", "6", "2", "0.5"},
	})

	ts, err := MeanPerSimTime(tbl, "numVehicles", dataframe.Filter{Column: "txPower", Value: 0.2})
	if err != nil {
		t.Fatalf("MeanPerSimTime: %v", err)
	}
	if len(ts.Ticks) != 6 {
		t.Fatalf("expected 6 ticks, got %d", len(ts.Ticks))
	}
	if ts.Values[0] != 4 || !math.IsNaN(ts.Values[5]) {
		t.Fatalf("unexpected values %v", ts.Values)
	}
}

func TestMeanPerSimTime_MissingColumn(t *testing.T) {
	tbl := perSecondTable(t, [][]string{{"0", "4", "1", "0.2"}})
	if _, err := MeanPerSimTime(tbl, "numRSUs"); !errors.Is(err, dataframe.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestMean(t *testing.T) {
	tbl := perSecondTable(t, [][]string{
		{"0", "4", "1", "0.2"},
		{"1", "8", "2", "0.2"},
		{"2", "100", "2", "0.5"},
	})
	got, err := Mean(tbl, "numVehicles", dataframe.Filter{Column: "txPower", Value: 0.2})
	if err != nil {
		t.Fatalf("Mean: %v", err)
	}
	if got != 6 {
		t.Fatalf("expected 6, got %v", got)
	}
	if _, err := Mean(tbl, "numVehicles", dataframe.Filter{Column: "txPower", Value: 0.9}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestAggregators_HeaderOnlyInputIsNoData(t *testing.T) {
	contacts := contactTable(t, nil)
	if contacts.Nrow() != 0 {
		t.Fatalf("expected empty contact table, got %d rows", contacts.Nrow())
	}

	if _, err := ContactDurationDistribution(contacts, 0, DefaultContactDurationClip); !errors.Is(err, ErrNoData) {
		t.Fatalf("ContactDurationDistribution: expected ErrNoData, got %v", err)
	}
	if _, err := CumulativeContactDuration(contacts, 0, DefaultCumulativeContactDurationClip, More); !errors.Is(err, ErrNoData) {
		t.Fatalf("CumulativeContactDuration: expected ErrNoData, got %v", err)
	}
	if _, err := MeetingTimeDistribution(contacts, 0, DefaultMeetingTimeCutoff); !errors.Is(err, ErrNoData) {
		t.Fatalf("MeetingTimeDistribution: expected ErrNoData, got %v", err)
	}
	if _, err := NeighborsAroundMeetingTime(contacts, 0, DefaultNeighborMeetingTimeCutoff, Before); !errors.Is(err, ErrNoData) {
		t.Fatalf("NeighborsAroundMeetingTime: expected ErrNoData, got %v", err)
	}

	perSecond, err := dataframe.ReadCSV(strings.NewReader("simTime,numVehicles,numAvgNbs\n"), "per-second")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if _, err := MeanPerSimTime(perSecond, dataframe.ColNumVehicles); !errors.Is(err, ErrNoData) {
		t.Fatalf("MeanPerSimTime: expected ErrNoData, got %v", err)
	}
	if _, err := Mean(perSecond, dataframe.ColNumVehicles); !errors.Is(err, ErrNoData) {
		t.Fatalf("Mean: expected ErrNoData, got %v", err)
	}
}
