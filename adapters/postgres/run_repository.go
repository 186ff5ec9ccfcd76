package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log"

	"gopri/domain/pri"
	"gopri/domain/survey"
	"gopri/internal/errors"
	"gopri/models"
	"gopri/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements RunRepository on sqlx
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

const runColumns = `id, survey, status, participant_count, judge_enabled, judge_available,
	asc_available, segments_source, output_dir, error, started_at, completed_at`

// CreateRun inserts a new run
func (r *RunRepositoryImpl) CreateRun(ctx context.Context, run *models.Run) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO pri_runs (`+runColumns+`) VALUES (
			:id, :survey, :status, :participant_count, :judge_enabled, :judge_available,
			:asc_available, :segments_source, :output_dir, :error, :started_at, :completed_at
		)
	`, run)
	if err != nil {
		return errors.DatabaseError("failed to create run", err)
	}
	return nil
}

// SaveParticipants writes a run's participant table in one transaction
func (r *RunRepositoryImpl) SaveParticipants(ctx context.Context, runID survey.RunID, rows []pri.ParticipantScores) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO pri_participant_scores (
			run_id, participant_id, duration_seconds, low_quality_tag_perc,
			universal_disagreement_perc, asc_score_raw, llm_judge_score, llm_judge_scores,
			llm_judge_evaluated, duration_norm, low_quality_tag_norm, universal_disagreement_norm,
			asc_norm, llm_judge_norm, pri_score_heuristic, pri_score_enhanced, pri_score, pri_scale_1_5
		) VALUES (
			:run_id, :participant_id, :duration_seconds, :low_quality_tag_perc,
			:universal_disagreement_perc, :asc_score_raw, :llm_judge_score, :llm_judge_scores,
			:llm_judge_evaluated, :duration_norm, :low_quality_tag_norm, :universal_disagreement_norm,
			:asc_norm, :llm_judge_norm, :pri_score_heuristic, :pri_score_enhanced, :pri_score, :pri_scale_1_5
		)
	`)
	if err != nil {
		return errors.DatabaseError("failed to prepare participant insert", err)
	}
	defer stmt.Close()

	for _, s := range rows {
		row, err := models.NewParticipantRow(runID, s)
		if err != nil {
			return errors.Wrapf(err, "failed to encode participant %s", s.Participant)
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return errors.DatabaseError("failed to insert participant "+string(s.Participant), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit participants", err)
	}
	log.Printf("[RunRepository] Stored %d participants for run %s", len(rows), runID)
	return nil
}

// CompleteRun updates a run's final state
func (r *RunRepositoryImpl) CompleteRun(ctx context.Context, run *models.Run) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE pri_runs SET
			status = :status,
			participant_count = :participant_count,
			judge_available = :judge_available,
			asc_available = :asc_available,
			segments_source = :segments_source,
			error = :error,
			completed_at = :completed_at
		WHERE id = :id
	`, run)
	if err != nil {
		return errors.DatabaseError("failed to complete run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("run " + run.ID)
	}
	return nil
}

// GetRun loads one run
func (r *RunRepositoryImpl) GetRun(ctx context.Context, runID survey.RunID) (*models.Run, error) {
	var run models.Run
	err := r.db.GetContext(ctx, &run, r.db.Rebind(`SELECT `+runColumns+` FROM pri_runs WHERE id = ?`), string(runID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("run " + string(runID))
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get run", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []*models.Run
	err := r.db.SelectContext(ctx, &runs, r.db.Rebind(`
		SELECT `+runColumns+` FROM pri_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	return runs, nil
}

// ListParticipants returns a run's participant table ordered by participant
func (r *RunRepositoryImpl) ListParticipants(ctx context.Context, runID survey.RunID) ([]pri.ParticipantScores, error) {
	if _, err := r.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	var rows []models.ParticipantRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT * FROM pri_participant_scores WHERE run_id = ? ORDER BY participant_id
	`), string(runID))
	if err != nil {
		return nil, errors.DatabaseError("failed to list participants", err)
	}

	out := make([]pri.ParticipantScores, 0, len(rows))
	for _, row := range rows {
		s, err := row.Scores()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode participant %s", row.ParticipantID)
		}
		out = append(out, s)
	}
	return out, nil
}
