package reporting

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"gopri/domain/pri"
	"gopri/domain/survey"
	"gopri/internal/judge"
)

// WriteScoresCSV writes one row per participant with the given columns.
// Missing values are empty cells.
func WriteScoresCSV(w io.Writer, rows []pri.ParticipantScores, cols []pri.Column) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(cols)+1)
	header = append(header, pri.ColParticipant)
	for _, c := range cols {
		header = append(header, c.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i := range rows {
		record[0] = string(rows[i].Participant)
		for j, c := range cols {
			record[j+1] = c.Get(&rows[i]).String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// OpenEndedQuestion is one column of the open-ended pivot
type OpenEndedQuestion struct {
	ID   survey.QuestionID
	Text string
}

// OpenEnded holds participants' answers to ask-opinion and ask-experience
// questions, keyed by participant then question.
type OpenEnded struct {
	Questions []OpenEndedQuestion
	Answers   map[survey.ParticipantID]map[survey.QuestionID]string
}

// OpenEndedResponses pivots verbatim answers of the given participants to
// the guide's open-ended questions. Several answers to one question are
// joined with " | ". Columns are ordered by question ID.
func OpenEndedResponses(entries []survey.VerbatimEntry, guide *judge.Guide, ids []survey.ParticipantID) *OpenEnded {
	open := make(map[survey.QuestionID]bool)
	for _, q := range guide.Questions() {
		open[survey.QuestionID(q.Tag)] = true
	}
	wanted := make(map[survey.ParticipantID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	out := &OpenEnded{Answers: make(map[survey.ParticipantID]map[survey.QuestionID]string)}
	texts := make(map[survey.QuestionID]string)
	parts := make(map[survey.ParticipantID]map[survey.QuestionID][]string)
	for _, e := range entries {
		if !wanted[e.Participant] || !open[e.Question] {
			continue
		}
		texts[e.Question] = e.QuestionText
		if parts[e.Participant] == nil {
			parts[e.Participant] = make(map[survey.QuestionID][]string)
		}
		parts[e.Participant][e.Question] = append(parts[e.Participant][e.Question], e.ThoughtText)
	}

	for q, text := range texts {
		if text == "" {
			text = string(q)
		}
		out.Questions = append(out.Questions, OpenEndedQuestion{ID: q, Text: text})
	}
	sort.Slice(out.Questions, func(i, j int) bool { return out.Questions[i].ID < out.Questions[j].ID })

	for p, byQuestion := range parts {
		out.Answers[p] = make(map[survey.QuestionID]string, len(byQuestion))
		for q, answers := range byQuestion {
			out.Answers[p][q] = strings.Join(answers, " | ")
		}
	}
	return out
}

// WriteUnreliableCSV exports flagged participants, lowest scale first, with
// their scores and open-ended answers. It returns the number of rows written.
func WriteUnreliableCSV(w io.Writer, c *Classification, rows []pri.ParticipantScores, open *OpenEnded) (int, error) {
	flagged := make(map[survey.ParticipantID]bool, len(c.Flagged))
	for _, id := range c.Flagged {
		flagged[id] = true
	}
	var selected []pri.ParticipantScores
	for _, r := range rows {
		if flagged[r.Participant] {
			selected = append(selected, r)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Scale.Float < selected[j].Scale.Float })

	cw := csv.NewWriter(w)
	header := []string{"Recommended_Action", "Identification_Method", "Threshold_Used", pri.ColParticipant, pri.ColScore, pri.ColScale}
	var questions []OpenEndedQuestion
	if open != nil {
		questions = open.Questions
	}
	for _, q := range questions {
		header = append(header, q.Text)
	}
	if err := cw.Write(header); err != nil {
		return 0, err
	}

	for _, r := range selected {
		record := []string{"IGNORE", string(c.Policy.Method), c.Policy.ThresholdLabel(), string(r.Participant), r.Score.String(), r.Scale.String()}
		for _, q := range questions {
			record = append(record, open.Answers[r.Participant][q.ID])
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(selected), cw.Error()
}
