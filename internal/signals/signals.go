package signals

import (
	"time"

	"gopri/domain/measure"
	"gopri/domain/survey"
)

// Thresholds configures the disagreement and tag signals
type Thresholds struct {
	DisagreementAll     float64
	DisagreementSegment float64
	UninformativeTag    string
}

// Duration is the span in seconds between a participant's first and last
// timestamped vote across both vote logs. Fewer than two timestamps give 0.
func Duration(idx *Index, p survey.ParticipantID) measure.Value {
	var first, last time.Time
	n := 0
	observe := func(ts time.Time) {
		if n == 0 || ts.Before(first) {
			first = ts
		}
		if n == 0 || ts.After(last) {
			last = ts
		}
		n++
	}

	for _, v := range idx.votes[p] {
		if v.Timestamp != nil {
			observe(*v.Timestamp)
		}
	}
	for _, ts := range idx.prefTimes[p] {
		observe(ts)
	}

	if n < 2 {
		return measure.Of(0)
	}
	return measure.Of(last.Sub(first).Seconds())
}

// LowQualityTagPercentage is the share of a participant's tagged responses
// carrying the uninformative tag. No tag data means 0.
func LowQualityTagPercentage(idx *Index, p survey.ParticipantID, tag string) measure.Value {
	rows := idx.tags[p]
	if len(rows) == 0 || idx.tagColumns == 0 {
		return measure.Of(0)
	}
	low := 0
	for _, r := range rows {
		if r.HasTag(tag) {
			low++
		}
	}
	return measure.Of(float64(low) / float64(len(rows)))
}

// UniversalDisagreementPercentage is the share of a participant's evaluable
// authored thoughts that were broadly rejected: overall agreement below
// DisagreementAll, or no major segment reaching DisagreementSegment.
//
// Agreement is looked up by (question, author), not by thought, so several
// thoughts by one author on one question share a row.
func UniversalDisagreementPercentage(idx *Index, p survey.ParticipantID, th Thresholds) measure.Value {
	evaluated, rejected := 0, 0
	for _, thought := range idx.authored[p] {
		question, ok := idx.thoughtQuestion[thought]
		if !ok {
			continue
		}
		row, ok := idx.aggregate[aggregateKey{question: question, participant: p}]
		if !ok || !row.All.Valid {
			continue
		}
		evaluated++

		maxSeg := row.MaxSegment()
		if row.All.Float < th.DisagreementAll || (maxSeg.Valid && maxSeg.Float < th.DisagreementSegment) {
			rejected++
		}
	}
	if evaluated == 0 {
		return measure.Of(0)
	}
	return measure.Of(float64(rejected) / float64(evaluated))
}

// AntiSocialConsensus is the share of a participant's valid votes on
// consensus thoughts that went against the consensus. It is missing when no
// consensus exists or the participant cast no valid vote on one.
func AntiSocialConsensus(idx *Index, p survey.ParticipantID, sets *ConsensusSets) measure.Value {
	if sets.Empty() {
		return measure.Missing()
	}
	total, against := 0, 0
	for _, v := range idx.votes[p] {
		_, agreed := sets.StrongAgree[v.Thought]
		_, disagreed := sets.StrongDisagree[v.Thought]
		if (!agreed && !disagreed) || v.Vote == survey.VoteMissing {
			continue
		}
		total++
		if (agreed && v.Vote == survey.VoteDisagree) || (disagreed && v.Vote == survey.VoteAgree) {
			against++
		}
	}
	if total == 0 {
		return measure.Missing()
	}
	return measure.Of(float64(against) / float64(total))
}
