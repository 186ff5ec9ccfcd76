package models

import (
	"encoding/json"
	"time"

	"gopri/domain/measure"
	"gopri/domain/pri"
	"gopri/domain/survey"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one stored PRI calculation
type Run struct {
	ID               string     `json:"id" db:"id"`
	Survey           int        `json:"survey" db:"survey"`
	Status           string     `json:"status" db:"status"`
	ParticipantCount int        `json:"participant_count" db:"participant_count"`
	JudgeEnabled     bool       `json:"judge_enabled" db:"judge_enabled"`
	JudgeAvailable   bool       `json:"judge_available" db:"judge_available"`
	ASCAvailable     bool       `json:"asc_available" db:"asc_available"`
	SegmentsSource   string     `json:"segments_source" db:"segments_source"`
	OutputDir        string     `json:"output_dir" db:"output_dir"`
	Error            *string    `json:"error,omitempty" db:"error"`
	StartedAt        time.Time  `json:"started_at" db:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ParticipantRow is the stored form of pri.ParticipantScores. Nullable
// columns map to missing values.
type ParticipantRow struct {
	RunID                     string   `db:"run_id"`
	ParticipantID             string   `db:"participant_id"`
	Duration                  *float64 `db:"duration_seconds"`
	LowQualityTag             *float64 `db:"low_quality_tag_perc"`
	UniversalDisagreement     *float64 `db:"universal_disagreement_perc"`
	ASC                       *float64 `db:"asc_score_raw"`
	Judge                     *float64 `db:"llm_judge_score"`
	JudgeScores               string   `db:"llm_judge_scores"`
	JudgeEvaluated            bool     `db:"llm_judge_evaluated"`
	DurationNorm              *float64 `db:"duration_norm"`
	LowQualityTagNorm         *float64 `db:"low_quality_tag_norm"`
	UniversalDisagreementNorm *float64 `db:"universal_disagreement_norm"`
	ASCNorm                   *float64 `db:"asc_norm"`
	JudgeNorm                 *float64 `db:"llm_judge_norm"`
	Heuristic                 *float64 `db:"pri_score_heuristic"`
	Enhanced                  *float64 `db:"pri_score_enhanced"`
	Score                     *float64 `db:"pri_score"`
	Scale                     *float64 `db:"pri_scale_1_5"`
}

// NewParticipantRow converts scores for storage
func NewParticipantRow(runID survey.RunID, s pri.ParticipantScores) (ParticipantRow, error) {
	judges := "{}"
	if len(s.JudgeScores) > 0 {
		b, err := json.Marshal(s.JudgeScores)
		if err != nil {
			return ParticipantRow{}, err
		}
		judges = string(b)
	}
	return ParticipantRow{
		RunID:                     string(runID),
		ParticipantID:             string(s.Participant),
		Duration:                  s.Duration.Ptr(),
		LowQualityTag:             s.LowQualityTag.Ptr(),
		UniversalDisagreement:     s.UniversalDisagreement.Ptr(),
		ASC:                       s.ASC.Ptr(),
		Judge:                     s.Judge.Ptr(),
		JudgeScores:               judges,
		JudgeEvaluated:            s.JudgeEvaluated,
		DurationNorm:              s.DurationNorm.Ptr(),
		LowQualityTagNorm:         s.LowQualityTagNorm.Ptr(),
		UniversalDisagreementNorm: s.UniversalDisagreementNorm.Ptr(),
		ASCNorm:                   s.ASCNorm.Ptr(),
		JudgeNorm:                 s.JudgeNorm.Ptr(),
		Heuristic:                 s.Heuristic.Ptr(),
		Enhanced:                  s.Enhanced.Ptr(),
		Score:                     s.Score.Ptr(),
		Scale:                     s.Scale.Ptr(),
	}, nil
}

// Scores converts a stored row back
func (r ParticipantRow) Scores() (pri.ParticipantScores, error) {
	var judges map[string]measure.Value
	if r.JudgeScores != "" && r.JudgeScores != "{}" {
		if err := json.Unmarshal([]byte(r.JudgeScores), &judges); err != nil {
			return pri.ParticipantScores{}, err
		}
	}
	return pri.ParticipantScores{
		Participant:               survey.ParticipantID(r.ParticipantID),
		Duration:                  measure.FromPtr(r.Duration),
		LowQualityTag:             measure.FromPtr(r.LowQualityTag),
		UniversalDisagreement:     measure.FromPtr(r.UniversalDisagreement),
		ASC:                       measure.FromPtr(r.ASC),
		Judge:                     measure.FromPtr(r.Judge),
		JudgeScores:               judges,
		JudgeEvaluated:            r.JudgeEvaluated,
		DurationNorm:              measure.FromPtr(r.DurationNorm),
		LowQualityTagNorm:         measure.FromPtr(r.LowQualityTagNorm),
		UniversalDisagreementNorm: measure.FromPtr(r.UniversalDisagreementNorm),
		ASCNorm:                   measure.FromPtr(r.ASCNorm),
		JudgeNorm:                 measure.FromPtr(r.JudgeNorm),
		Heuristic:                 measure.FromPtr(r.Heuristic),
		Enhanced:                  measure.FromPtr(r.Enhanced),
		Score:                     measure.FromPtr(r.Score),
		Scale:                     measure.FromPtr(r.Scale),
	}, nil
}
