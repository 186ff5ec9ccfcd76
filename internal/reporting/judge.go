package reporting

import (
	"math"

	"gopri/domain/measure"
	"gopri/domain/pri"
)

const minComparisonSamples = 10

// ComponentCorrelation is the judge score against one normalized signal
type ComponentCorrelation struct {
	Column  string
	Pearson Pair
}

// JudgeComparison relates the judge score to the heuristic PRI
type JudgeComparison struct {
	Pearson        Pair
	Spearman       Pair
	N              int
	Components     []ComponentCorrelation
	Interpretation string
}

// JudgeVsHeuristic correlates the averaged judge score with the heuristic
// score. It needs at least ten participants with both values.
func JudgeVsHeuristic(rows []pri.ParticipantScores) (*JudgeComparison, bool) {
	judge := values(rows, func(s *pri.ParticipantScores) measure.Value { return s.Judge })
	x, y := complete(judge, values(rows, func(s *pri.ParticipantScores) measure.Value { return s.Heuristic }))
	if len(x) < minComparisonSamples {
		return nil, false
	}

	c := &JudgeComparison{Pearson: Pearson(x, y), Spearman: Spearman(x, y), N: len(x)}
	c.Interpretation = comparisonInterpretation(c.Pearson.R.Or(0))

	components := []struct {
		name string
		get  func(*pri.ParticipantScores) measure.Value
	}{
		{pri.ColDurationNorm, func(s *pri.ParticipantScores) measure.Value { return s.DurationNorm }},
		{pri.ColLowQualityNorm, func(s *pri.ParticipantScores) measure.Value { return s.LowQualityTagNorm }},
		{pri.ColDisagreementNorm, func(s *pri.ParticipantScores) measure.Value { return s.UniversalDisagreementNorm }},
		{pri.ColASCNorm, func(s *pri.ParticipantScores) measure.Value { return s.ASCNorm }},
	}
	for _, comp := range components {
		cx, cy := complete(judge, values(rows, comp.get))
		if len(cx) < minComparisonSamples {
			continue
		}
		c.Components = append(c.Components, ComponentCorrelation{Column: comp.name, Pearson: Pearson(cx, cy)})
	}
	return c, true
}

func values(rows []pri.ParticipantScores, get func(*pri.ParticipantScores) measure.Value) []measure.Value {
	out := make([]measure.Value, len(rows))
	for i := range rows {
		out[i] = get(&rows[i])
	}
	return out
}

func comparisonInterpretation(r float64) string {
	switch a := math.Abs(r); {
	case a > 0.7:
		return "Strong correlation - LLM judge aligns well with heuristic metrics"
	case a > 0.5:
		return "Moderate correlation - LLM judge provides complementary information"
	case a > 0.3:
		return "Weak correlation - LLM judge captures different aspects of quality"
	default:
		return "Very weak correlation - LLM judge measures different quality dimensions"
	}
}

func highlightInterpretation(r float64) string {
	switch a := math.Abs(r); {
	case a > 0.7:
		return "STRONG agreement - LLM judge aligns well with heuristic metrics"
	case a > 0.5:
		return "MODERATE agreement - LLM judge provides complementary information"
	case a > 0.3:
		return "WEAK agreement - LLM judge captures different quality aspects"
	default:
		return "MINIMAL agreement - LLM judge measures distinct quality dimensions"
	}
}
