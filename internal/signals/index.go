// Package signals computes the four heuristic reliability signals for each
// participant from a loaded survey.
package signals

import (
	"time"

	"gopri/domain/survey"
)

type aggregateKey struct {
	question    survey.QuestionID
	participant survey.ParticipantID
}

// Index groups every table by participant once so each signal is a lookup
// rather than a scan. It is read-only after construction.
type Index struct {
	votes           map[survey.ParticipantID][]survey.BinaryVote
	prefTimes       map[survey.ParticipantID][]time.Time
	tags            map[survey.ParticipantID][]survey.ThoughtTag
	tagColumns      int
	authored        map[survey.ParticipantID][]survey.ThoughtID
	thoughtQuestion map[survey.ThoughtID]survey.QuestionID
	aggregate       map[aggregateKey]survey.AggregateRow
}

// NewIndex builds the per-participant lookups
func NewIndex(ds *survey.Dataset) *Index {
	idx := &Index{
		votes:           make(map[survey.ParticipantID][]survey.BinaryVote),
		prefTimes:       make(map[survey.ParticipantID][]time.Time),
		tags:            make(map[survey.ParticipantID][]survey.ThoughtTag),
		tagColumns:      len(ds.TagColumns),
		authored:        make(map[survey.ParticipantID][]survey.ThoughtID),
		thoughtQuestion: make(map[survey.ThoughtID]survey.QuestionID),
		aggregate:       make(map[aggregateKey]survey.AggregateRow),
	}

	for _, v := range ds.BinaryVotes {
		idx.votes[v.Participant] = append(idx.votes[v.Participant], v)
	}
	for _, p := range ds.Preferences {
		if p.Timestamp != nil {
			idx.prefTimes[p.Participant] = append(idx.prefTimes[p.Participant], *p.Timestamp)
		}
	}
	for _, t := range ds.Tags {
		idx.tags[t.Participant] = append(idx.tags[t.Participant], t)
	}

	seen := make(map[survey.ParticipantID]map[survey.ThoughtID]bool)
	for _, v := range ds.Verbatim {
		// first verbatim row decides a thought's question
		if _, ok := idx.thoughtQuestion[v.Thought]; !ok {
			idx.thoughtQuestion[v.Thought] = v.Question
		}
		if seen[v.Participant] == nil {
			seen[v.Participant] = make(map[survey.ThoughtID]bool)
		}
		if !seen[v.Participant][v.Thought] {
			seen[v.Participant][v.Thought] = true
			idx.authored[v.Participant] = append(idx.authored[v.Participant], v.Thought)
		}
	}

	for _, r := range ds.Aggregate {
		key := aggregateKey{question: r.Question, participant: r.Participant}
		if _, ok := idx.aggregate[key]; !ok {
			idx.aggregate[key] = r
		}
	}
	return idx
}

// Votes returns a participant's binary votes
func (idx *Index) Votes(p survey.ParticipantID) []survey.BinaryVote {
	return idx.votes[p]
}

// AuthoredThoughts returns a participant's distinct authored thoughts
func (idx *Index) AuthoredThoughts(p survey.ParticipantID) []survey.ThoughtID {
	return idx.authored[p]
}
