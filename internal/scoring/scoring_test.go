package scoring

import (
	"testing"

	"gopri/domain/measure"
	"gopri/domain/pri"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vals(fs ...float64) []measure.Value {
	out := make([]measure.Value, len(fs))
	for i, f := range fs {
		out[i] = measure.Of(f)
	}
	return out
}

func assertValues(t *testing.T, want []any, got []measure.Value) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		if w == nil {
			assert.False(t, got[i].Valid, "index %d should be missing", i)
			continue
		}
		require.True(t, got[i].Valid, "index %d should be present", i)
		assert.InDelta(t, w.(float64), got[i].Float, 1e-9, "index %d", i)
	}
}

func heuristicWeights() WeightSet {
	return WeightSet{
		pri.ComponentDuration:     0.30,
		pri.ComponentLowQuality:   0.30,
		pri.ComponentDisagreement: 0.20,
		pri.ComponentASC:          0.20,
	}
}

func enhancedWeights() WeightSet {
	return WeightSet{
		pri.ComponentDuration:     0.20,
		pri.ComponentLowQuality:   0.20,
		pri.ComponentDisagreement: 0.15,
		pri.ComponentASC:          0.15,
		pri.ComponentJudge:        0.30,
	}
}

func TestMinMax(t *testing.T) {
	in := []measure.Value{measure.Of(1), measure.Missing(), measure.Of(3), measure.Of(5)}
	assertValues(t, []any{0.0, nil, 0.5, 1.0}, MinMax(in))

	assertValues(t, []any{0.5, 0.5, nil}, MinMax([]measure.Value{measure.Of(2), measure.Of(2), measure.Missing()}))
	assertValues(t, []any{nil, nil}, MinMax([]measure.Value{measure.Missing(), measure.Missing()}))
}

func TestCappedLinear(t *testing.T) {
	assertValues(t, []any{0.0, 0.5, 1.0, nil}, CappedLinear([]measure.Value{
		measure.Of(0), measure.Of(2700), measure.Of(10000), measure.Missing(),
	}, 5400))

	// below the cap it is plain min-max
	assertValues(t, []any{0.0, 1.0}, CappedLinear(vals(0, 300), 5400))
}

func TestInvert(t *testing.T) {
	assertValues(t, []any{1.0, nil, 0.25}, Invert([]measure.Value{measure.Of(0), measure.Missing(), measure.Of(0.75)}))
}

func TestWeightSetWithout(t *testing.T) {
	w := heuristicWeights()
	require.NoError(t, w.Validate())

	got := w.Without(pri.ComponentASC)
	require.NoError(t, got.Validate())
	assert.Len(t, got, 3)
	assert.InDelta(t, 0.30+1.0/15, got[pri.ComponentDuration], 1e-9)
	assert.InDelta(t, 0.30+1.0/15, got[pri.ComponentLowQuality], 1e-9)
	assert.InDelta(t, 0.20+1.0/15, got[pri.ComponentDisagreement], 1e-9)
	assert.InDelta(t, 0.20, w[pri.ComponentASC], 1e-9, "receiver untouched")

	e := enhancedWeights().Without(pri.ComponentASC)
	require.NoError(t, e.Validate())
	assert.InDelta(t, 0.30+0.15/4, e[pri.ComponentJudge], 1e-9)
}

func TestWeightSetValidate(t *testing.T) {
	assert.Error(t, WeightSet{pri.ComponentDuration: 0.5}.Validate())
	assert.Error(t, WeightSet{}.Validate())
}

func rowsFixture() []pri.ParticipantScores {
	return []pri.ParticipantScores{
		{Participant: "p1", Duration: measure.Of(0), LowQualityTag: measure.Of(0), UniversalDisagreement: measure.Of(0), ASC: measure.Of(0)},
		{Participant: "p2", Duration: measure.Of(6000), LowQualityTag: measure.Of(1), UniversalDisagreement: measure.Of(1), ASC: measure.Of(1)},
		{Participant: "p3", Duration: measure.Of(2700), LowQualityTag: measure.Of(0.5), UniversalDisagreement: measure.Of(0.5), ASC: measure.Missing()},
	}
}

func TestFuseHeuristic(t *testing.T) {
	rows := rowsFixture()
	out := Fuse(rows, heuristicWeights(), enhancedWeights(), Options{DurationCap: 5400})

	assert.True(t, out.ASCAvailable)
	assert.False(t, out.JudgeAvailable)
	assert.Nil(t, out.Enhanced)

	// p1: duration 0, all inverted signals 1
	assert.InDelta(t, 0.70, rows[0].Score.Float, 1e-9)
	assert.InDelta(t, 0.70*4+1, rows[0].Scale.Float, 1e-9)
	// p2: duration above cap is 1, inverted signals 0
	assert.InDelta(t, 0.30, rows[1].Score.Float, 1e-9)
	// p3 has no ASC so its fused score is missing, not zero-filled
	assert.False(t, rows[2].ASCNorm.Valid)
	assert.False(t, rows[2].Heuristic.Valid)
	assert.False(t, rows[2].Score.Valid)
	assert.False(t, rows[2].Scale.Valid)
	assert.InDelta(t, 0.5, rows[2].DurationNorm.Float, 1e-9)

	for _, r := range rows[:2] {
		assert.Equal(t, r.Heuristic, r.Score)
		assert.False(t, r.Enhanced.Valid)
	}
}

func TestFuseRedistributesMissingASC(t *testing.T) {
	rows := rowsFixture()
	for i := range rows {
		rows[i].ASC = measure.Missing()
	}

	out := Fuse(rows, heuristicWeights(), enhancedWeights(), Options{DurationCap: 5400})

	assert.False(t, out.ASCAvailable)
	require.NoError(t, out.Heuristic.Validate())
	assert.NotContains(t, out.Heuristic, pri.ComponentASC)
	for _, r := range rows {
		require.True(t, r.Score.Valid, r.Participant)
		assert.GreaterOrEqual(t, r.Score.Float, 0.0)
		assert.LessOrEqual(t, r.Score.Float, 1.0)
	}
	assert.InDelta(t, 1-(0.30+1.0/15), rows[0].Score.Float, 1e-9)
}

func TestFuseEnhanced(t *testing.T) {
	rows := rowsFixture()
	rows[2].ASC = measure.Of(0.5)
	judge := []float64{0.9, 0.1, 0.5}
	for i := range rows {
		rows[i].Judge = measure.Of(judge[i])
		rows[i].JudgeScores = map[string]measure.Value{"m": measure.Of(judge[i])}
	}

	out := Fuse(rows, heuristicWeights(), enhancedWeights(), Options{DurationCap: 5400, JudgeEnabled: true})

	require.True(t, out.JudgeAvailable)
	assert.InDelta(t, 1.0, rows[0].JudgeNorm.Float, 1e-9)
	// p1: duration 0, inverted 1s, judge 1
	assert.InDelta(t, 0.20+0.15+0.15+0.30, rows[0].Enhanced.Float, 1e-9)
	assert.Equal(t, rows[0].Enhanced, rows[0].Score)
	assert.InDelta(t, 0.70, rows[0].Heuristic.Float, 1e-9)
}

func TestFuseJudgeWithoutRealScores(t *testing.T) {
	rows := rowsFixture()
	for i := range rows {
		rows[i].Judge = measure.Of(0.5)
		rows[i].JudgeScores = map[string]measure.Value{"m": measure.Missing()}
	}

	out := Fuse(rows, heuristicWeights(), enhancedWeights(), Options{DurationCap: 5400, JudgeEnabled: true})

	assert.False(t, out.JudgeAvailable)
	assert.False(t, rows[0].Enhanced.Valid)
	assert.Equal(t, rows[0].Heuristic, rows[0].Score)
}
