package ports

import (
	"context"

	"gopri/domain/pri"
	"gopri/domain/survey"
	"gopri/models"
)

// RunRepository stores finished PRI runs and their participant tables
type RunRepository interface {
	CreateRun(ctx context.Context, run *models.Run) error
	SaveParticipants(ctx context.Context, runID survey.RunID, rows []pri.ParticipantScores) error
	CompleteRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, runID survey.RunID) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	ListParticipants(ctx context.Context, runID survey.RunID) ([]pri.ParticipantScores, error)
}
