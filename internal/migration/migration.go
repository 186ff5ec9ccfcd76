package migration

import (
	"context"

	"gopri/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the run storage schema. Statements are idempotent
// and valid for both Postgres and sqlite.
type MigrationRunner struct {
	version string
}

var _ Migrator = (*MigrationRunner)(nil)

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create pri_runs table")
	}

	if err := r.createParticipantScoresTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create pri_participant_scores table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pri_runs (
			id TEXT PRIMARY KEY,
			survey INTEGER NOT NULL,
			status TEXT NOT NULL,
			participant_count INTEGER NOT NULL DEFAULT 0,
			judge_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			judge_available BOOLEAN NOT NULL DEFAULT FALSE,
			asc_available BOOLEAN NOT NULL DEFAULT FALSE,
			segments_source TEXT NOT NULL DEFAULT '',
			output_dir TEXT NOT NULL DEFAULT '',
			error TEXT,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)
	`)
	return err
}

func (r *MigrationRunner) createParticipantScoresTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pri_participant_scores (
			run_id TEXT NOT NULL REFERENCES pri_runs(id) ON DELETE CASCADE,
			participant_id TEXT NOT NULL,
			duration_seconds DOUBLE PRECISION,
			low_quality_tag_perc DOUBLE PRECISION,
			universal_disagreement_perc DOUBLE PRECISION,
			asc_score_raw DOUBLE PRECISION,
			llm_judge_score DOUBLE PRECISION,
			llm_judge_scores TEXT NOT NULL DEFAULT '{}',
			llm_judge_evaluated BOOLEAN NOT NULL DEFAULT FALSE,
			duration_norm DOUBLE PRECISION,
			low_quality_tag_norm DOUBLE PRECISION,
			universal_disagreement_norm DOUBLE PRECISION,
			asc_norm DOUBLE PRECISION,
			llm_judge_norm DOUBLE PRECISION,
			pri_score_heuristic DOUBLE PRECISION,
			pri_score_enhanced DOUBLE PRECISION,
			pri_score DOUBLE PRECISION,
			pri_scale_1_5 DOUBLE PRECISION,
			PRIMARY KEY (run_id, participant_id)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_pri_runs_survey ON pri_runs(survey)`,
		`CREATE INDEX IF NOT EXISTS idx_pri_runs_started_at ON pri_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_pri_scores_scale ON pri_participant_scores(run_id, pri_scale_1_5)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
