package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopri/adapters/postgres"
	"gopri/domain/pri"
	"gopri/domain/survey"
	"gopri/internal/config"
	"gopri/internal/errors"
	"gopri/internal/testkit"
	"gopri/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordJudge scores a prompt by the first answer text it recognizes
type keywordJudge struct{}

func (keywordJudge) Complete(_ context.Context, _ string, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "diagnose"):
		return `{"confidence_score": 0.9, "reasoning": "specific"}`, nil
	case strings.Contains(prompt, "menu"):
		return `{"confidence_score": 0.8, "reasoning": "concrete"}`, nil
	default:
		return `{"confidence_score": 0.2, "reasoning": "low effort"}`, nil
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dataRoot := t.TempDir()
	_, err := testkit.WriteSurvey(dataRoot, 1)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Paths.DataRoot = dataRoot
	cfg.Paths.OutputRoot = t.TempDir()
	cfg.Paths.Survey = 1
	return cfg
}

func fixedClock() time.Time { return time.Date(2025, 5, 6, 14, 30, 0, 0, time.UTC) }

func byID(rows []pri.ParticipantScores) map[string]pri.ParticipantScores {
	out := make(map[string]pri.ParticipantScores, len(rows))
	for _, r := range rows {
		out[string(r.Participant)] = r
	}
	return out
}

func TestRunHeuristicOnly(t *testing.T) {
	cfg := testConfig(t)
	svc := NewPRIService(cfg, nil, nil)
	svc.now = fixedClock

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	assert.False(t, res.Fusion.JudgeAvailable)
	assert.True(t, res.Fusion.ASCAvailable)

	rows := byID(res.Rows)
	assert.False(t, rows["p1"].Score.Valid)
	assert.False(t, rows["p3"].Score.Valid)
	require.True(t, rows["p2"].Score.Valid)
	assert.InDelta(t, 0.5333, rows["p2"].Score.Float, 1e-3)
	assert.InDelta(t, 0.5333*4+1, rows["p2"].Scale.Float, 1e-3)

	dir := cfg.Paths.OutputDir()
	assert.FileExists(t, filepath.Join(dir, "GD1_pri_scores.csv"))
	assert.FileExists(t, filepath.Join(dir, "GD1_comprehensive_correlation_report_20250506_143000.md"))
	assert.NoFileExists(t, filepath.Join(dir, "GD1_unreliable_participants_outliers.csv"))
	assert.FileExists(t, filepath.Join(dir, "GD1_unreliable_participants_bottom10pct.csv"))

	scores, err := os.ReadFile(filepath.Join(dir, "GD1_pri_scores.csv"))
	require.NoError(t, err)
	assert.NotContains(t, string(scores), pri.ColJudge)
}

func TestRunWithJudge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Judge.Enabled = true
	cfg.Judge.Models = []string{"test/judge"}
	cfg.Run.HTMLReport = true

	svc := NewPRIService(cfg, keywordJudge{}, nil)
	svc.now = fixedClock

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Fusion.JudgeAvailable)

	rows := byID(res.Rows)
	assert.InDelta(t, 0.9, rows["p1"].Judge.Float, 1e-9)
	assert.InDelta(t, 0.2, rows["p2"].Judge.Float, 1e-9)
	assert.True(t, rows["p2"].JudgeEvaluated)
	assert.InDelta(t, 0.2, rows["p2"].JudgeScores["test/judge"].Float, 1e-9)
	assert.InDelta(t, 0.37222, rows["p2"].Score.Float, 1e-3)
	assert.InDelta(t, 0.5333, rows["p2"].Heuristic.Float, 1e-3)

	dir := cfg.Paths.OutputDir()
	assert.FileExists(t, filepath.Join(dir, "GD1_comprehensive_correlation_report_20250506_143000.html"))
	scores, err := os.ReadFile(filepath.Join(dir, "GD1_pri_scores.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(scores), pri.JudgeColumnName("test/judge"))
}

func TestRunJudgeWithoutClient(t *testing.T) {
	cfg := testConfig(t)
	cfg.Judge.Enabled = true

	_, err := NewPRIService(cfg, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid))
}

func TestRunPersistsResults(t *testing.T) {
	ctx := context.Background()
	db, err := postgres.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := postgres.NewRunRepository(db)

	cfg := testConfig(t)
	svc := NewPRIService(cfg, nil, repo)
	svc.now = fixedClock

	res, err := svc.Run(ctx)
	require.NoError(t, err)

	run, err := repo.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 3, run.ParticipantCount)
	assert.True(t, run.ASCAvailable)

	stored, err := repo.ListParticipants(ctx, res.RunID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.InDelta(t, 0.5333, byID(stored)["p2"].Score.Float, 1e-3)
}

func TestRunMarksFailedRun(t *testing.T) {
	ctx := context.Background()
	db, err := postgres.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := postgres.NewRunRepository(db)

	cfg := testConfig(t)
	cfg.Paths.DataRoot = t.TempDir()

	_, err = NewPRIService(cfg, nil, repo).Run(ctx)
	require.Error(t, err)

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].Error)
}

func TestPrintSummary(t *testing.T) {
	cfg := testConfig(t)
	svc := NewPRIService(cfg, nil, nil)
	svc.now = fixedClock

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "PRI Score Statistics")
	assert.Contains(t, out, "Top 5 Most Reliable Participants")
	assert.Contains(t, out, "p2")
	assert.Contains(t, out, "Execution completed in")
}

func TestUnreliableExportsExplicitZeroThreshold(t *testing.T) {
	zero := 0.0
	cfg := config.Default()
	cfg.Run.UnreliableMethod = "percentile"
	cfg.Run.UnreliableThreshold = &zero

	exports := NewPRIService(cfg, nil, nil).unreliableExports()
	require.Len(t, exports, 3)
	last := exports[2]
	assert.Equal(t, "percentile_0", last.suffix)
	require.True(t, last.policy.Threshold.Valid)
	assert.Zero(t, last.policy.Threshold.Float)

	cfg.Run.UnreliableThreshold = nil
	assert.Len(t, NewPRIService(cfg, nil, nil).unreliableExports(), 2, "default percentile is already exported")
}

func TestRunWritesZeroPercentileExport(t *testing.T) {
	zero := 0.0
	cfg := testConfig(t)
	cfg.Run.UnreliableMethod = "percentile"
	cfg.Run.UnreliableThreshold = &zero
	svc := NewPRIService(cfg, nil, nil)
	svc.now = fixedClock

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Unreliable, 3)
	assert.Equal(t, []survey.ParticipantID{"p2"}, res.Unreliable[2].Flagged)
	assert.FileExists(t, filepath.Join(cfg.Paths.OutputDir(), "GD1_unreliable_participants_percentile_0.csv"))
}
