package signals

import (
	"context"
	"log"
	"runtime"
	"time"

	"gopri/domain/pri"
	"gopri/domain/survey"

	"golang.org/x/sync/errgroup"
)

// Calculator evaluates all heuristic signals for a participant list
type Calculator struct {
	thresholds Thresholds
	workers    int
	debug      bool
}

// NewCalculator creates a calculator. workers <= 0 uses GOMAXPROCS.
func NewCalculator(th Thresholds, workers int, debug bool) *Calculator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Calculator{thresholds: th, workers: workers, debug: debug}
}

// Compute returns one row per participant, in the given order, with the raw
// signals filled in. Signals only read the shared index and consensus sets.
func (c *Calculator) Compute(ctx context.Context, ds *survey.Dataset, ids []survey.ParticipantID, sets *ConsensusSets) ([]pri.ParticipantScores, error) {
	start := time.Now()
	idx := NewIndex(ds)
	rows := make([]pri.ParticipantScores, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, p := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = pri.ParticipantScores{
				Participant:           p,
				Duration:              Duration(idx, p),
				LowQualityTag:         LowQualityTagPercentage(idx, p, c.thresholds.UninformativeTag),
				UniversalDisagreement: UniversalDisagreementPercentage(idx, p, c.thresholds),
				ASC:                   AntiSocialConsensus(idx, p, sets),
			}
			if c.debug {
				r := rows[i]
				log.Printf("[Signals] %s duration=%s lowq=%s disagree=%s asc=%s",
					p, r.Duration.Format(0), r.LowQualityTag.Format(3), r.UniversalDisagreement.Format(3), r.ASC.Format(3))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Printf("[Signals] Computed signals for %d participants in %s", len(ids), time.Since(start).Round(time.Millisecond))
	return rows, nil
}
