package survey

import (
	"strings"
	"time"

	"gopri/domain/measure"
)

// VoteValue is a normalized binary vote
type VoteValue int

const (
	VoteMissing VoteValue = iota
	VoteAgree
	VoteDisagree
)

// ParseVote normalizes a raw vote cell case-insensitively. Anything other
// than agree/disagree is missing.
func ParseVote(raw string) VoteValue {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "agree":
		return VoteAgree
	case "disagree":
		return VoteDisagree
	default:
		return VoteMissing
	}
}

func (v VoteValue) String() string {
	switch v {
	case VoteAgree:
		return "agree"
	case VoteDisagree:
		return "disagree"
	default:
		return ""
	}
}

// BinaryVote is one agree/disagree vote on a thought
type BinaryVote struct {
	Participant ParticipantID
	Thought     ThoughtID
	Vote        VoteValue
	Timestamp   *time.Time
}

// PreferenceVote is one pairwise-preference vote; only its time is used
type PreferenceVote struct {
	Participant ParticipantID
	Timestamp   *time.Time
}

// ThoughtTag is one row of the qualitative tag table
type ThoughtTag struct {
	Participant ParticipantID
	Question    QuestionID
	Tags        []string
}

// HasTag reports whether any tag cell equals tag exactly.
func (t ThoughtTag) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

// VerbatimEntry maps an authored thought to its question and text
type VerbatimEntry struct {
	Participant  ParticipantID
	Thought      ThoughtID
	Question     QuestionID
	QuestionText string
	ThoughtText  string
}

// AggregateRow holds agreement rates for one (question, participant) row of
// the standardized aggregate table. Segments only carries major segments.
type AggregateRow struct {
	Question    QuestionID
	Participant ParticipantID
	Thought     ThoughtID
	All         measure.Value
	Segments    map[string]measure.Value
}

// MaxSegment returns the highest present segment agreement, or missing.
func (r AggregateRow) MaxSegment() measure.Value {
	best := measure.Missing()
	for _, v := range r.Segments {
		if v.Valid && (!best.Valid || v.Float > best.Float) {
			best = v
		}
	}
	return best
}

// GuideItem is one row of the discussion guide
type GuideItem struct {
	Section  string
	ItemType string
	Content  string
	Tag      string
}

// Dataset is the immutable, loaded survey export for one run
type Dataset struct {
	Survey         int
	Participants   []ParticipantID
	BinaryVotes    []BinaryVote
	Preferences    []PreferenceVote
	Tags           []ThoughtTag
	TagColumns     []string
	Verbatim       []VerbatimEntry
	Aggregate      []AggregateRow
	MajorSegments  []string
	SegmentsSource string
	Guide          []GuideItem
}

// Limit returns a shallow copy restricted to the first n participants.
// n <= 0 leaves the participant list untouched.
func (d *Dataset) Limit(n int) *Dataset {
	out := *d
	if n > 0 && n < len(d.Participants) {
		out.Participants = append([]ParticipantID(nil), d.Participants[:n]...)
	}
	return &out
}
