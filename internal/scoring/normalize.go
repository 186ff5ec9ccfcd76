// Package scoring normalizes raw reliability signals across the participant
// population and fuses them into the PRI score.
package scoring

import (
	"gopri/domain/measure"

	"github.com/montanaflynn/stats"
)

// bounds fills missing values with the population median and returns the
// range of the filled series.
func bounds(values []measure.Value) (filled []float64, lo, hi float64, ok bool) {
	present := measure.Floats(values)
	if len(present) == 0 {
		return nil, 0, 0, false
	}
	median, err := stats.Median(present)
	if err != nil {
		return nil, 0, 0, false
	}

	filled = make([]float64, len(values))
	for i, v := range values {
		filled[i] = v.Or(median)
	}
	lo, _ = stats.Min(filled)
	hi, _ = stats.Max(filled)
	return filled, lo, hi, true
}

// MinMax rescales values to [0,1] between the population minimum and
// maximum. A constant population maps to 0.5. Missing inputs stay missing.
func MinMax(values []measure.Value) []measure.Value {
	out := make([]measure.Value, len(values))
	filled, lo, hi, ok := bounds(values)
	if !ok {
		return out
	}
	for i, v := range values {
		if !v.Valid {
			continue
		}
		if lo == hi {
			out[i] = measure.Of(0.5)
			continue
		}
		out[i] = measure.Of((filled[i] - lo) / (hi - lo))
	}
	return out
}

// CappedLinear behaves like MinMax unless the population maximum exceeds
// limit; then values scale between the minimum and limit, and anything above
// limit is 1.
func CappedLinear(values []measure.Value, limit float64) []measure.Value {
	filled, lo, hi, ok := bounds(values)
	if !ok || hi <= limit || lo == hi {
		return MinMax(values)
	}

	out := make([]measure.Value, len(values))
	for i, v := range values {
		if !v.Valid {
			continue
		}
		if filled[i] > limit {
			out[i] = measure.Of(1)
			continue
		}
		out[i] = measure.Of((filled[i] - lo) / (limit - lo))
	}
	return out
}

// Invert maps x to 1-x
func Invert(values []measure.Value) []measure.Value {
	out := make([]measure.Value, len(values))
	for i, v := range values {
		if v.Valid {
			out[i] = measure.Of(1 - v.Float)
		}
	}
	return out
}
