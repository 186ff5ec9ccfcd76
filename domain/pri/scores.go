// Package pri defines the per-participant reliability record and the column
// vocabulary shared by fusion, reporting, export and storage.
package pri

import (
	"strings"

	"gopri/domain/measure"
	"gopri/domain/survey"
)

// Component identifies one signal that contributes to the fused score
type Component string

const (
	ComponentDuration     Component = "duration"
	ComponentLowQuality   Component = "low_quality_tag"
	ComponentDisagreement Component = "universal_disagreement"
	ComponentASC          Component = "asc"
	ComponentJudge        Component = "llm_judge"
)

// HeuristicComponents are the four signals available without the judge, in
// reporting order.
var HeuristicComponents = []Component{
	ComponentDuration,
	ComponentLowQuality,
	ComponentDisagreement,
	ComponentASC,
}

// Output column names
const (
	ColParticipant      = "Participant ID"
	ColDuration         = "Duration_seconds"
	ColLowQuality       = "LowQualityTag_Perc"
	ColDisagreement     = "UniversalDisagreement_Perc"
	ColASC              = "ASC_Score_Raw"
	ColJudge            = "LLM_Judge_Score"
	ColDurationNorm     = "Duration_Norm"
	ColLowQualityNorm   = "LowQualityTag_Norm"
	ColDisagreementNorm = "UniversalDisagreement_Norm"
	ColASCNorm          = "ASC_Norm"
	ColJudgeNorm        = "LLM_Judge_Norm"
	ColHeuristic        = "PRI_Score_Heuristic"
	ColEnhanced         = "PRI_Score_Enhanced"
	ColScore            = "PRI_Score"
	ColScale            = "PRI_Scale_1_5"
)

// JudgeAssessment is one external judge's verdict for one participant.
// Score is missing when the call or the parse failed; Rationale then holds
// the diagnostic.
type JudgeAssessment struct {
	Judge     string        `json:"judge"`
	Score     measure.Value `json:"score"`
	Rationale string        `json:"rationale"`
}

// ParticipantScores is one output row
type ParticipantScores struct {
	Participant survey.ParticipantID `json:"participant_id"`

	Duration              measure.Value `json:"duration_seconds"`
	LowQualityTag         measure.Value `json:"low_quality_tag_perc"`
	UniversalDisagreement measure.Value `json:"universal_disagreement_perc"`
	ASC                   measure.Value `json:"asc_score_raw"`

	Judge          measure.Value            `json:"llm_judge_score"`
	JudgeScores    map[string]measure.Value `json:"llm_judge_scores,omitempty"`
	JudgeEvaluated bool                     `json:"llm_judge_evaluated"`

	DurationNorm              measure.Value `json:"duration_norm"`
	LowQualityTagNorm         measure.Value `json:"low_quality_tag_norm"`
	UniversalDisagreementNorm measure.Value `json:"universal_disagreement_norm"`
	ASCNorm                   measure.Value `json:"asc_norm"`
	JudgeNorm                 measure.Value `json:"llm_judge_norm"`

	Heuristic measure.Value `json:"pri_score_heuristic"`
	Enhanced  measure.Value `json:"pri_score_enhanced"`
	Score     measure.Value `json:"pri_score"`
	Scale     measure.Value `json:"pri_scale_1_5"`
}

// Raw returns the raw signal for a component
func (s *ParticipantScores) Raw(c Component) measure.Value {
	switch c {
	case ComponentDuration:
		return s.Duration
	case ComponentLowQuality:
		return s.LowQualityTag
	case ComponentDisagreement:
		return s.UniversalDisagreement
	case ComponentASC:
		return s.ASC
	case ComponentJudge:
		return s.Judge
	}
	return measure.Missing()
}

// Norm returns the normalized signal for a component
func (s *ParticipantScores) Norm(c Component) measure.Value {
	switch c {
	case ComponentDuration:
		return s.DurationNorm
	case ComponentLowQuality:
		return s.LowQualityTagNorm
	case ComponentDisagreement:
		return s.UniversalDisagreementNorm
	case ComponentASC:
		return s.ASCNorm
	case ComponentJudge:
		return s.JudgeNorm
	}
	return measure.Missing()
}

// SetNorm stores the normalized signal for a component
func (s *ParticipantScores) SetNorm(c Component, v measure.Value) {
	switch c {
	case ComponentDuration:
		s.DurationNorm = v
	case ComponentLowQuality:
		s.LowQualityTagNorm = v
	case ComponentDisagreement:
		s.UniversalDisagreementNorm = v
	case ComponentASC:
		s.ASCNorm = v
	case ComponentJudge:
		s.JudgeNorm = v
	}
}

// Column is a named numeric accessor over a score row
type Column struct {
	Name string
	Get  func(*ParticipantScores) measure.Value
}

// JudgeColumnName builds the per-judge column, e.g.
// "openai/gpt-4o-mini" -> "LLM_openai_gpt_4o_mini".
func JudgeColumnName(model string) string {
	r := strings.NewReplacer("/", "_", "-", "_")
	return "LLM_" + r.Replace(model)
}

// JudgeColumn returns the column for one judge model
func JudgeColumn(model string) Column {
	return Column{
		Name: JudgeColumnName(model),
		Get: func(s *ParticipantScores) measure.Value {
			return s.JudgeScores[model]
		},
	}
}

// Columns lists the numeric output columns in export order. Judge columns
// are included when judgeModels is non-empty.
func Columns(judgeModels []string) []Column {
	withJudge := len(judgeModels) > 0
	cols := []Column{
		{ColDuration, func(s *ParticipantScores) measure.Value { return s.Duration }},
		{ColLowQuality, func(s *ParticipantScores) measure.Value { return s.LowQualityTag }},
		{ColDisagreement, func(s *ParticipantScores) measure.Value { return s.UniversalDisagreement }},
		{ColASC, func(s *ParticipantScores) measure.Value { return s.ASC }},
	}
	if withJudge {
		cols = append(cols, Column{ColJudge, func(s *ParticipantScores) measure.Value { return s.Judge }})
		for _, m := range judgeModels {
			cols = append(cols, JudgeColumn(m))
		}
	}
	cols = append(cols,
		Column{ColDurationNorm, func(s *ParticipantScores) measure.Value { return s.DurationNorm }},
		Column{ColLowQualityNorm, func(s *ParticipantScores) measure.Value { return s.LowQualityTagNorm }},
		Column{ColDisagreementNorm, func(s *ParticipantScores) measure.Value { return s.UniversalDisagreementNorm }},
		Column{ColASCNorm, func(s *ParticipantScores) measure.Value { return s.ASCNorm }},
	)
	if withJudge {
		cols = append(cols, Column{ColJudgeNorm, func(s *ParticipantScores) measure.Value { return s.JudgeNorm }})
	}
	cols = append(cols, Column{ColHeuristic, func(s *ParticipantScores) measure.Value { return s.Heuristic }})
	if withJudge {
		cols = append(cols, Column{ColEnhanced, func(s *ParticipantScores) measure.Value { return s.Enhanced }})
	}
	cols = append(cols,
		Column{ColScore, func(s *ParticipantScores) measure.Value { return s.Score }},
		Column{ColScale, func(s *ParticipantScores) measure.Value { return s.Scale }},
	)
	return cols
}

// Values extracts one column across rows
func (c Column) Values(rows []ParticipantScores) []measure.Value {
	out := make([]measure.Value, len(rows))
	for i := range rows {
		out[i] = c.Get(&rows[i])
	}
	return out
}
