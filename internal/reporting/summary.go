package reporting

import (
	"sort"

	"gopri/domain/measure"
	"gopri/domain/pri"

	"github.com/montanaflynn/stats"
)

// Summary describes the present values of one column
type Summary struct {
	Name   string
	N      int
	Mean   float64
	Std    measure.Value
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Summarize returns false when the column has no present values. Std is the
// sample standard deviation and is missing for a single value.
func Summarize(name string, values []measure.Value) (Summary, bool) {
	data := measure.Floats(values)
	if len(data) == 0 {
		return Summary{Name: name}, false
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	s := Summary{
		Name:   name,
		N:      len(data),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
	}
	s.Mean, _ = stats.Mean(data)
	if len(data) > 1 {
		if sd, err := stats.StandardDeviationSample(data); err == nil {
			s.Std = measure.Of(sd)
		}
	}
	return s, true
}

// Summaries summarizes every column that has data
func Summaries(rows []pri.ParticipantScores, cols []pri.Column) []Summary {
	var out []Summary
	for _, c := range cols {
		if s, ok := Summarize(c.Name, c.Values(rows)); ok {
			out = append(out, s)
		}
	}
	return out
}

// Quantile interpolates linearly between order statistics of an ascending
// sample: h = (n-1)q, result x[floor h] + (h - floor h)(x[floor h + 1] - x[floor h]).
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * q
	lo := int(h)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Ranked is one participant in a top or bottom listing
type Ranked struct {
	Participant string
	Score       measure.Value
	Scale       measure.Value
}

// TopBottom returns the n highest and n lowest scored participants. Rows
// without a score are left out.
func TopBottom(rows []pri.ParticipantScores, n int) (top, bottom []Ranked) {
	var scored []Ranked
	for _, r := range rows {
		if r.Score.Valid {
			scored = append(scored, Ranked{Participant: string(r.Participant), Score: r.Score, Scale: r.Scale})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score.Float > scored[j].Score.Float })
	top = scored[:min(n, len(scored))]

	bottom = make([]Ranked, 0, min(n, len(scored)))
	for i := len(scored) - 1; i >= 0 && len(bottom) < n; i-- {
		bottom = append(bottom, scored[i])
	}
	return top, bottom
}
