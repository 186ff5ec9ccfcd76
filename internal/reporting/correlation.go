// Package reporting turns the finished participant table into correlation
// statistics, reliability classifications, the Markdown/HTML report and the
// CSV exports.
package reporting

import (
	"math"
	"sort"
	"strings"

	"gopri/domain/measure"
	"gopri/domain/pri"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Pair is one cell of a correlation matrix
type Pair struct {
	R measure.Value
	P float64
	N int
}

// Matrix holds pairwise-complete Pearson and Spearman correlations between
// every column.
type Matrix struct {
	Columns  []string
	Pearson  [][]Pair
	Spearman [][]Pair
	index    map[string]int
}

// CorrelationMatrix correlates every pair of cols over rows, using only the
// rows where both values are present.
func CorrelationMatrix(rows []pri.ParticipantScores, cols []pri.Column) *Matrix {
	m := &Matrix{
		Columns:  make([]string, len(cols)),
		Pearson:  make([][]Pair, len(cols)),
		Spearman: make([][]Pair, len(cols)),
		index:    make(map[string]int, len(cols)),
	}
	values := make([][]measure.Value, len(cols))
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.index[c.Name] = i
		values[i] = c.Values(rows)
		m.Pearson[i] = make([]Pair, len(cols))
		m.Spearman[i] = make([]Pair, len(cols))
	}

	for i := range cols {
		for j := i; j < len(cols); j++ {
			x, y := complete(values[i], values[j])
			p, s := Pearson(x, y), Spearman(x, y)
			if i == j {
				p.P, s.P = 0, 0
			}
			m.Pearson[i][j], m.Pearson[j][i] = p, p
			m.Spearman[i][j], m.Spearman[j][i] = s, s
		}
	}
	return m
}

// Lookup returns the Pearson and Spearman cells for two named columns
func (m *Matrix) Lookup(a, b string) (pearson, spearman Pair, ok bool) {
	i, okA := m.index[a]
	j, okB := m.index[b]
	if !okA || !okB {
		return Pair{}, Pair{}, false
	}
	return m.Pearson[i][j], m.Spearman[i][j], true
}

// Has reports whether the matrix includes a column
func (m *Matrix) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

func complete(a, b []measure.Value) (x, y []float64) {
	for i := range a {
		if a[i].Valid && b[i].Valid {
			x = append(x, a[i].Float)
			y = append(y, b[i].Float)
		}
	}
	return x, y
}

// Pearson correlates two equal-length samples. The coefficient is missing
// for fewer than two points or a constant sample.
func Pearson(x, y []float64) Pair {
	n := len(x)
	if n < 2 {
		return Pair{P: 1, N: n}
	}
	r := measure.Of(stat.Correlation(x, y, nil))
	return Pair{R: r, P: pValue(r, n), N: n}
}

// Spearman is Pearson on average ranks
func Spearman(x, y []float64) Pair {
	return Pearson(ranks(x), ranks(y))
}

// pValue is the two-sided Student's t test of r with n-2 degrees of freedom
func pValue(r measure.Value, n int) float64 {
	if !r.Valid || n < 3 {
		return 1
	}
	rr := math.Min(math.Abs(r.Float), 1)
	if rr == 1 {
		return 0
	}
	df := float64(n - 2)
	t := rr * math.Sqrt(df/(1-rr*rr))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - dist.CDF(t))
}

// ranks assigns 1-based ranks, averaging ties
func ranks(data []float64) []float64 {
	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, len(data))
	for i, v := range data {
		pairs[i] = pair{v, i}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

	out := make([]float64, len(data))
	for i := 0; i < len(pairs); {
		j := i
		for j+1 < len(pairs) && pairs[j+1].value == pairs[i].value {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[pairs[k].index] = avg
		}
		i = j + 1
	}
	return out
}

// Finding is a notable correlation between two distinct metrics
type Finding struct {
	A, B      string
	R         float64
	Strength  string
	Direction string
}

const (
	findingMinR   = 0.3
	maxFindings   = 10
	judgeNormName = pri.ColJudgeNorm
)

var twinColumns = [][2]string{
	{pri.ColDuration, pri.ColDurationNorm},
	{pri.ColLowQuality, pri.ColLowQualityNorm},
	{pri.ColDisagreement, pri.ColDisagreementNorm},
	{pri.ColASC, pri.ColASCNorm},
	{pri.ColJudge, judgeNormName},
	{pri.ColScore, pri.ColScale},
}

func isTwin(a, b string) bool {
	for _, t := range twinColumns {
		if (a == t[0] && b == t[1]) || (a == t[1] && b == t[0]) {
			return true
		}
	}
	return false
}

// KeyFindings lists up to ten Pearson correlations with |r| > 0.3, strongest
// first, skipping a metric's raw/normalized twin and Score vs Scale.
func KeyFindings(m *Matrix) []Finding {
	var out []Finding
	for i, a := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			b := m.Columns[j]
			if isTwin(a, b) {
				continue
			}
			r := m.Pearson[i][j].R
			if !r.Valid || math.Abs(r.Float) <= findingMinR {
				continue
			}
			out = append(out, Finding{A: a, B: b, R: r.Float, Strength: findingStrength(r.Float), Direction: direction(r.Float)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].R) > math.Abs(out[j].R) })
	if len(out) > maxFindings {
		out = out[:maxFindings]
	}
	return out
}

func findingStrength(r float64) string {
	switch a := math.Abs(r); {
	case a > 0.8:
		return "very strong"
	case a > 0.6:
		return "strong"
	default:
		return "moderate"
	}
}

func direction(r float64) string {
	if r > 0 {
		return "positive"
	}
	return "negative"
}

// correlationLabel grades |r| for the judge correlation listing
func correlationLabel(r float64) string {
	switch a := math.Abs(r); {
	case a > 0.7:
		return "very strong"
	case a > 0.5:
		return "strong"
	case a > 0.3:
		return "moderate"
	default:
		return "weak"
	}
}

// shortName truncates a column header for matrix headers
func shortName(name string, width int) string {
	name = strings.TrimSpace(name)
	if len(name) > width {
		return name[:width]
	}
	return name
}
