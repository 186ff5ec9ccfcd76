package postgres

import (
	"context"
	"testing"
	"time"

	"gopri/domain/measure"
	"gopri/domain/pri"
	"gopri/domain/survey"
	"gopri/internal/errors"
	"gopri/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *RunRepositoryImpl {
	t.Helper()
	db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepository(db).(*RunRepositoryImpl)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	id := survey.NewRunID()
	started := time.Date(2025, 5, 5, 9, 0, 0, 0, time.UTC)
	run := &models.Run{
		ID:           string(id),
		Survey:       3,
		Status:       models.RunStatusRunning,
		JudgeEnabled: true,
		OutputDir:    "analysis_output/GD3/pri",
		StartedAt:    started,
	}
	require.NoError(t, repo.CreateRun(ctx, run))

	got, err := repo.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, got.Status)
	assert.True(t, got.JudgeEnabled)
	assert.Nil(t, got.CompletedAt)
	assert.True(t, started.Equal(got.StartedAt))

	done := started.Add(time.Minute)
	run.Status = models.RunStatusCompleted
	run.ParticipantCount = 2
	run.ASCAvailable = true
	run.SegmentsSource = "file"
	run.CompletedAt = &done
	require.NoError(t, repo.CompleteRun(ctx, run))

	got, err = repo.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, 2, got.ParticipantCount)
	assert.True(t, got.ASCAvailable)
	assert.False(t, got.JudgeAvailable)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, done.Equal(*got.CompletedAt))
}

func TestSaveAndListParticipants(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	id := survey.NewRunID()
	require.NoError(t, repo.CreateRun(ctx, &models.Run{ID: string(id), Survey: 3, Status: models.RunStatusRunning, StartedAt: time.Now().UTC()}))

	rows := []pri.ParticipantScores{
		{
			Participant:    "p2",
			Duration:       measure.Of(300),
			ASC:            measure.Of(0),
			Judge:          measure.Of(0.7),
			JudgeScores:    map[string]measure.Value{"a/b": measure.Of(0.7), "c": measure.Missing()},
			JudgeEvaluated: true,
			Score:          measure.Of(0.4),
			Scale:          measure.Of(2.6),
		},
		{Participant: "p1", Duration: measure.Of(0)},
	}
	require.NoError(t, repo.SaveParticipants(ctx, id, rows))

	got, err := repo.ListParticipants(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, survey.ParticipantID("p1"), got[0].Participant)
	assert.False(t, got[0].Score.Valid)
	assert.Nil(t, got[0].JudgeScores)

	p2 := got[1]
	assert.Equal(t, rows[0].Duration, p2.Duration)
	assert.Equal(t, rows[0].ASC, p2.ASC)
	assert.False(t, p2.LowQualityTag.Valid)
	assert.True(t, p2.JudgeEvaluated)
	assert.Equal(t, rows[0].JudgeScores, p2.JudgeScores)
	assert.Equal(t, rows[0].Scale, p2.Scale)
}

func TestMissingRun(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id := survey.NewRunID()

	_, err := repo.GetRun(ctx, id)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	_, err = repo.ListParticipants(ctx, id)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	err = repo.CompleteRun(ctx, &models.Run{ID: string(id), Status: models.RunStatusFailed})
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []survey.RunID
	for i := 0; i < 3; i++ {
		id := survey.NewRunID()
		ids = append(ids, id)
		require.NoError(t, repo.CreateRun(ctx, &models.Run{ID: string(id), Survey: i + 1, Status: models.RunStatusCompleted, StartedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, string(ids[2]), runs[0].ID)
	assert.Equal(t, string(ids[1]), runs[1].ID)
}
