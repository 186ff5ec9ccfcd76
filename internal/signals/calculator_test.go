package signals_test

import (
	"context"
	"testing"

	"gopri/domain/survey"
	"gopri/internal/loader"
	"gopri/internal/signals"
	"gopri/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatorOnFixture(t *testing.T) {
	root := t.TempDir()
	_, err := testkit.WriteSurvey(root, 2)
	require.NoError(t, err)

	ds, err := loader.New(loader.SurveyPaths(root, 2), loader.Options{MajorSegmentMin: 20}).Load(context.Background(), 2)
	require.NoError(t, err)

	sets := signals.PrecomputeConsensus(ds, 0.70, 0.30)
	assert.Len(t, sets.StrongAgree, 2)
	assert.Empty(t, sets.StrongDisagree)

	calc := signals.NewCalculator(signals.Thresholds{
		DisagreementAll:     0.30,
		DisagreementSegment: 0.40,
		UninformativeTag:    "Uninformative answer",
	}, 2, false)

	rows, err := calc.Compute(context.Background(), ds, ds.Participants, sets)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byID := make(map[survey.ParticipantID]int)
	for i, r := range rows {
		byID[r.Participant] = i
	}
	assert.Equal(t, []survey.ParticipantID{"p1", "p2", "p3"},
		[]survey.ParticipantID{rows[0].Participant, rows[1].Participant, rows[2].Participant},
		"rows keep participant order")

	p1, p2, p3 := rows[byID["p1"]], rows[byID["p2"]], rows[byID["p3"]]

	assert.InDelta(t, 2700, p1.Duration.Float, 1e-9)
	assert.InDelta(t, 300, p2.Duration.Float, 1e-9)
	assert.InDelta(t, 0, p3.Duration.Float, 1e-9)

	assert.InDelta(t, 0.5, p1.LowQualityTag.Float, 1e-9)
	assert.InDelta(t, 0, p2.LowQualityTag.Float, 1e-9)
	assert.InDelta(t, 0, p3.LowQualityTag.Float, 1e-9)

	assert.InDelta(t, 0, p1.UniversalDisagreement.Float, 1e-9)
	assert.InDelta(t, 0.5, p2.UniversalDisagreement.Float, 1e-9)
	assert.InDelta(t, 1, p3.UniversalDisagreement.Float, 1e-9)

	assert.False(t, p1.ASC.Valid)
	assert.True(t, p2.ASC.Valid)
	assert.InDelta(t, 0, p2.ASC.Float, 1e-9)
	assert.False(t, p3.ASC.Valid)
}

func TestCalculatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds := &survey.Dataset{Participants: []survey.ParticipantID{"a", "b"}}
	_, err := signals.NewCalculator(signals.Thresholds{}, 1, false).Compute(ctx, ds, ds.Participants, &signals.ConsensusSets{})
	assert.ErrorIs(t, err, context.Canceled)
}
