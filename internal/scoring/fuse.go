package scoring

import (
	"log"

	"gopri/domain/measure"
	"gopri/domain/pri"
)

// Options controls fusion
type Options struct {
	DurationCap  float64
	JudgeEnabled bool
	Debug        bool
}

// Outcome records which weight sets were applied
type Outcome struct {
	ASCAvailable   bool
	JudgeAvailable bool
	Heuristic      WeightSet
	Enhanced       WeightSet
}

// Fuse fills the normalized and fused columns of rows in place.
//
// Duration uses CappedLinear; low-quality tags, universal disagreement and
// ASC are min-max normalized then inverted; the judge score is min-max
// normalized. When no participant has an ASC score its weight is spread over
// the other components. The enhanced score is only computed when at least
// one judge returned a real score, and then becomes the primary score.
func Fuse(rows []pri.ParticipantScores, heuristic, enhanced WeightSet, opts Options) Outcome {
	column := func(c pri.Component) []measure.Value {
		out := make([]measure.Value, len(rows))
		for i := range rows {
			out[i] = rows[i].Raw(c)
		}
		return out
	}
	store := func(c pri.Component, values []measure.Value) {
		for i := range rows {
			rows[i].SetNorm(c, values[i])
		}
	}

	store(pri.ComponentDuration, CappedLinear(column(pri.ComponentDuration), opts.DurationCap))
	store(pri.ComponentLowQuality, Invert(MinMax(column(pri.ComponentLowQuality))))
	store(pri.ComponentDisagreement, Invert(MinMax(column(pri.ComponentDisagreement))))

	asc := column(pri.ComponentASC)
	out := Outcome{ASCAvailable: measure.CountValid(asc) > 0}
	if out.ASCAvailable {
		store(pri.ComponentASC, Invert(MinMax(asc)))
	} else {
		log.Printf("[Scoring] Warning: no valid ASC scores, redistributing ASC weight")
	}

	out.JudgeAvailable = opts.JudgeEnabled && hasRealJudgeScore(rows)
	if out.JudgeAvailable {
		store(pri.ComponentJudge, MinMax(column(pri.ComponentJudge)))
	} else if opts.JudgeEnabled {
		log.Printf("[Scoring] Warning: judge enabled but no judge returned a score, using heuristic PRI")
	}

	out.Heuristic = heuristic
	if !out.ASCAvailable {
		out.Heuristic = heuristic.Without(pri.ComponentASC)
	}
	log.Printf("[Scoring] Heuristic weights: %s", out.Heuristic)

	if out.JudgeAvailable {
		out.Enhanced = enhanced
		if !out.ASCAvailable {
			out.Enhanced = enhanced.Without(pri.ComponentASC)
		}
		log.Printf("[Scoring] Enhanced weights: %s", out.Enhanced)
	}

	missing := 0
	for i := range rows {
		r := &rows[i]
		r.Heuristic = out.Heuristic.Apply(r)
		r.Score = r.Heuristic
		if out.JudgeAvailable {
			r.Enhanced = out.Enhanced.Apply(r)
			r.Score = r.Enhanced
		}
		r.Scale = measure.Missing()
		if r.Score.Valid {
			r.Scale = measure.Of(r.Score.Float*4 + 1)
		} else {
			missing++
			if opts.Debug {
				log.Printf("[Scoring] %s has a missing signal, PRI left empty", r.Participant)
			}
		}
	}
	if missing > 0 {
		log.Printf("[Scoring] %d of %d participants have no PRI score", missing, len(rows))
	}
	return out
}

func hasRealJudgeScore(rows []pri.ParticipantScores) bool {
	for i := range rows {
		for _, v := range rows[i].JudgeScores {
			if v.Valid {
				return true
			}
		}
	}
	return false
}
