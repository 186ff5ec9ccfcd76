package scoring

import (
	"fmt"
	"math"
	"sort"

	"gopri/domain/measure"
	"gopri/domain/pri"
)

const weightTolerance = 1e-6

// WeightSet maps each contributing component to its share of the score
type WeightSet map[pri.Component]float64

// Sum of all weights
func (w WeightSet) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Validate checks the weights add up to one
func (w WeightSet) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("weight set is empty")
	}
	if s := w.Sum(); math.Abs(s-1) > weightTolerance {
		return fmt.Errorf("weights sum to %.6f, want 1", s)
	}
	return nil
}

// Without drops c and spreads its weight evenly over the remaining
// components. The receiver is not modified.
func (w WeightSet) Without(c pri.Component) WeightSet {
	dropped, ok := w[c]
	out := make(WeightSet, len(w))
	for k, v := range w {
		if k != c {
			out[k] = v
		}
	}
	if !ok || len(out) == 0 {
		return out
	}
	share := dropped / float64(len(out))
	for k := range out {
		out[k] += share
	}
	return out
}

// Components lists the set's components in a stable order
func (w WeightSet) Components() []pri.Component {
	out := make([]pri.Component, 0, len(w))
	for k := range w {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Apply computes the weighted sum of a row's normalized signals. The result
// is missing if any contributing signal is missing.
func (w WeightSet) Apply(row *pri.ParticipantScores) measure.Value {
	total := 0.0
	for c, weight := range w {
		v := row.Norm(c)
		if !v.Valid {
			return measure.Missing()
		}
		total += weight * v.Float
	}
	return measure.Of(total)
}

func (w WeightSet) String() string {
	s := ""
	for i, c := range w.Components() {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %.0f%%", c, w[c]*100)
	}
	return s
}
