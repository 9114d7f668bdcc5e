package aggregation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Series is a labelled pair of aligned x/y sequences. X values are distinct.
type Series struct {
	Label string    `json:"label"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
}

type seriesJSON struct {
	Label string     `json:"label"`
	X     []float64  `json:"x"`
	Y     []*float64 `json:"y"`
}

// MarshalJSON writes NaN y values (ticks without samples) as null.
func (s Series) MarshalJSON() ([]byte, error) {
	out := seriesJSON{Label: s.Label, X: s.X, Y: make([]*float64, len(s.Y))}
	for i := range s.Y {
		if !math.IsNaN(s.Y[i]) {
			v := s.Y[i]
			out.Y[i] = &v
		}
	}
	return json.Marshal(out)
}

func (s *Series) UnmarshalJSON(b []byte) error {
	var in seriesJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	s.Label = in.Label
	s.X = in.X
	s.Y = make([]float64, len(in.Y))
	for i, v := range in.Y {
		if v == nil {
			s.Y[i] = math.NaN()
		} else {
			s.Y[i] = *v
		}
	}
	return nil
}

func NewSeries(label string, x, y []float64) (Series, error) {
	if len(x) != len(y) {
		return Series{}, fmt.Errorf("series %q: %d x values but %d y values", label, len(x), len(y))
	}
	seen := make(map[float64]bool, len(x))
	for _, v := range x {
		if seen[v] {
			return Series{}, fmt.Errorf("series %q: duplicate x value %v", label, v)
		}
		seen[v] = true
	}
	return Series{
		Label: label,
		X:     append([]float64(nil), x...),
		Y:     append([]float64(nil), y...),
	}, nil
}

// Registry keeps series in insertion order, keyed by label.
type Registry struct {
	order  []string
	series map[string]Series
}

func NewRegistry() *Registry {
	return &Registry{series: make(map[string]Series)}
}

func (r *Registry) Add(label string, x, y []float64) error {
	if _, exists := r.series[label]; exists {
		return fmt.Errorf("series %q already registered", label)
	}
	s, err := NewSeries(label, x, y)
	if err != nil {
		return err
	}
	r.order = append(r.order, label)
	r.series[label] = s
	return nil
}

func (r *Registry) Get(label string) (Series, bool) {
	s, ok := r.series[label]
	return s, ok
}

func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) Labels() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Series() []Series {
	out := make([]Series, 0, len(r.order))
	for _, label := range r.order {
		out = append(out, r.series[label])
	}
	return out
}

// ThresholdLabel is the legend entry of a series built for one minimum
// contact duration.
func ThresholdLabel(minDuration float64) string {
	return "min contact duration thres >= " + strconv.FormatFloat(minDuration, 'f', -1, 64) + "sec"
}
