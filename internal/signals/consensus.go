package signals

import (
	"log"

	"gopri/domain/survey"
)

// ConsensusSets are the thoughts whose question reached strong agreement or
// strong disagreement. Built once per run and shared read-only.
type ConsensusSets struct {
	StrongAgree    map[survey.ThoughtID]struct{}
	StrongDisagree map[survey.ThoughtID]struct{}
}

// Empty reports whether no thought reached consensus
func (c *ConsensusSets) Empty() bool {
	return len(c.StrongAgree) == 0 && len(c.StrongDisagree) == 0
}

// PrecomputeConsensus classifies thoughts by the highest overall agreement
// recorded for their question. A thought is strongly agreed at or above high,
// otherwise strongly disagreed at or below low.
func PrecomputeConsensus(ds *survey.Dataset, high, low float64) *ConsensusSets {
	questionAgreement := make(map[survey.QuestionID]float64)
	for _, r := range ds.Aggregate {
		if !r.All.Valid {
			continue
		}
		if cur, ok := questionAgreement[r.Question]; !ok || r.All.Float > cur {
			questionAgreement[r.Question] = r.All.Float
		}
	}

	// later verbatim rows overwrite earlier ones for the same thought
	thoughtQuestion := make(map[survey.ThoughtID]survey.QuestionID, len(ds.Verbatim))
	for _, v := range ds.Verbatim {
		thoughtQuestion[v.Thought] = v.Question
	}

	sets := &ConsensusSets{
		StrongAgree:    make(map[survey.ThoughtID]struct{}),
		StrongDisagree: make(map[survey.ThoughtID]struct{}),
	}
	unmapped := 0
	for thought, question := range thoughtQuestion {
		agreement, ok := questionAgreement[question]
		if !ok {
			unmapped++
			continue
		}
		if agreement >= high {
			sets.StrongAgree[thought] = struct{}{}
		} else if agreement <= low {
			sets.StrongDisagree[thought] = struct{}{}
		}
	}

	log.Printf("[Signals] Consensus: %d strongly agreed, %d strongly disagreed thoughts (%d questions scored, %d thoughts unmapped)",
		len(sets.StrongAgree), len(sets.StrongDisagree), len(questionAgreement), unmapped)
	return sets
}
