package reporting

import (
	"fmt"

	"gopri/domain/measure"
	"gopri/domain/pri"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// RaterPair is the correlation between two judges
type RaterPair struct {
	A, B string
	R    float64
}

// InterRaterReport describes agreement between the individual judges
type InterRaterReport struct {
	Judges      []Summary
	Complete    int
	Pairs       []RaterPair
	MeanR       measure.Value
	Agreement   string
	Alpha       measure.Value
	Consistency string
}

// InterRater compares per-judge scores. It returns nil for fewer than two
// judges.
func InterRater(rows []pri.ParticipantScores, models []string) *InterRaterReport {
	if len(models) < 2 {
		return nil
	}
	rep := &InterRaterReport{}

	cols := make([][]measure.Value, len(models))
	for i, m := range models {
		cols[i] = pri.JudgeColumn(m).Values(rows)
		if s, ok := Summarize(m, cols[i]); ok {
			rep.Judges = append(rep.Judges, s)
		}
	}

	var rs []float64
	for i := range models {
		for j := i + 1; j < len(models); j++ {
			x, y := complete(cols[i], cols[j])
			p := Pearson(x, y)
			if !p.R.Valid {
				continue
			}
			rep.Pairs = append(rep.Pairs, RaterPair{A: models[i], B: models[j], R: p.R.Float})
			rs = append(rs, p.R.Float)
		}
	}
	if mean, err := stats.Mean(rs); err == nil {
		rep.MeanR = measure.Of(mean)
		rep.Agreement = agreementLabel(mean)
	}

	var cases [][]float64
	for r := range rows {
		row := make([]float64, 0, len(models))
		for i := range models {
			if !cols[i][r].Valid {
				break
			}
			row = append(row, cols[i][r].Float)
		}
		if len(row) == len(models) {
			cases = append(cases, row)
		}
	}
	rep.Complete = len(cases)
	if alpha, err := CronbachAlpha(cases); err == nil {
		rep.Alpha = measure.Of(alpha)
		rep.Consistency = consistencyLabel(alpha)
	}
	return rep
}

// CronbachAlpha computes k/(k-1) * (1 - sum of item variances / variance of
// row totals) over complete cases, one slice per case. It needs at least
// three cases and two items.
func CronbachAlpha(cases [][]float64) (float64, error) {
	if len(cases) < 3 {
		return 0, fmt.Errorf("need at least 3 complete cases, have %d", len(cases))
	}
	k := len(cases[0])
	if k < 2 {
		return 0, fmt.Errorf("need at least 2 items, have %d", k)
	}

	totals := make([]float64, len(cases))
	items := make([][]float64, k)
	for c, row := range cases {
		if len(row) != k {
			return 0, fmt.Errorf("case %d has %d items, want %d", c, len(row), k)
		}
		for i, v := range row {
			items[i] = append(items[i], v)
			totals[c] += v
		}
	}

	sumItemVar := 0.0
	for _, it := range items {
		sumItemVar += stat.Variance(it, nil)
	}
	totalVar := stat.Variance(totals, nil)
	if totalVar == 0 {
		return 0, fmt.Errorf("total score variance is zero")
	}
	kf := float64(k)
	return kf / (kf - 1) * (1 - sumItemVar/totalVar), nil
}

func agreementLabel(r float64) string {
	switch {
	case r > 0.9:
		return "Excellent agreement"
	case r > 0.8:
		return "Good agreement"
	case r > 0.7:
		return "Acceptable agreement"
	case r > 0.6:
		return "Moderate agreement"
	default:
		return "Poor agreement"
	}
}

func consistencyLabel(alpha float64) string {
	switch {
	case alpha > 0.9:
		return "Excellent internal consistency"
	case alpha > 0.8:
		return "Good internal consistency"
	case alpha > 0.7:
		return "Acceptable internal consistency"
	case alpha > 0.6:
		return "Questionable internal consistency"
	default:
		return "Poor internal consistency"
	}
}
