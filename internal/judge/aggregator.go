package judge

import (
	"context"
	stderrors "errors"
	"log"
	"sync"
	"time"

	"gopri/domain/measure"
	"gopri/domain/pri"
	"gopri/domain/survey"
	"gopri/internal/errors"
	"gopri/ports"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// NeutralScore is used when a participant has nothing to evaluate or every
// judge failed.
const NeutralScore = 0.5

// DefaultTimeout bounds one judge call when Options.Timeout is unset
const DefaultTimeout = 60 * time.Second

// Options configures fan-out. Timeout applies to each call separately and
// does not include time spent waiting for the semaphore.
type Options struct {
	Models        []string
	MaxConcurrent int
	BatchSize     int
	Timeout       time.Duration
	Debug         bool
}

// Result is the aggregated verdict for one participant
type Result struct {
	Participant survey.ParticipantID
	Score       measure.Value
	Assessments []pri.JudgeAssessment
	Evaluated   bool
}

// ValidCount is the number of judges that returned a usable score
func (r Result) ValidCount() int {
	n := 0
	for _, a := range r.Assessments {
		if a.Score.Valid {
			n++
		}
	}
	return n
}

// Aggregator runs every configured judge for every participant. One weighted
// semaphore bounds in-flight requests for the whole run.
type Aggregator struct {
	client ports.JudgeClient
	guide  *Guide
	opts   Options
	sem    *semaphore.Weighted
}

// NewAggregator creates an aggregator
func NewAggregator(client ports.JudgeClient, guide *Guide, opts Options) *Aggregator {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 200
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Aggregator{
		client: client,
		guide:  guide,
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}
}

// Run scores participants in batches; each batch fully resolves before the
// next one starts. Judge failures never fail the run; only cancellation of
// ctx does.
func (a *Aggregator) Run(ctx context.Context, ids []survey.ParticipantID, entries []survey.VerbatimEntry) (map[survey.ParticipantID]Result, error) {
	start := time.Now()
	byParticipant := make(map[survey.ParticipantID][]survey.VerbatimEntry)
	for _, e := range entries {
		byParticipant[e.Participant] = append(byParticipant[e.Participant], e)
	}

	results := make(map[survey.ParticipantID]Result, len(ids))
	batches := (len(ids) + a.opts.BatchSize - 1) / a.opts.BatchSize

	for b := 0; b < batches; b++ {
		lo := b * a.opts.BatchSize
		hi := min(lo+a.opts.BatchSize, len(ids))
		batch := ids[lo:hi]
		out := make([]Result, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, p := range batch {
			g.Go(func() error {
				out[i] = a.assess(gctx, p, byParticipant[p])
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "judge run cancelled")
		}

		for _, r := range out {
			results[r.Participant] = r
		}
		log.Printf("[Judge] Batch %d/%d done (%d/%d participants, %s elapsed)",
			b+1, batches, hi, len(ids), time.Since(start).Round(time.Second))
	}
	return results, nil
}

func (a *Aggregator) assess(ctx context.Context, p survey.ParticipantID, entries []survey.VerbatimEntry) Result {
	responses := a.guide.Responses(entries)
	if len(responses) == 0 {
		if a.opts.Debug {
			log.Printf("[Judge] %s has no evaluatable responses, using neutral score", p)
		}
		return Result{Participant: p, Score: measure.Of(NeutralScore)}
	}

	prompt := BuildPrompt(responses, a.guide)
	assessments := make([]pri.JudgeAssessment, len(a.opts.Models))

	var wg sync.WaitGroup
	for i, model := range a.opts.Models {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assessments[i] = a.ask(ctx, model, prompt)
		}()
	}
	wg.Wait()

	var valid []float64
	for _, as := range assessments {
		if as.Score.Valid {
			valid = append(valid, as.Score.Float)
		}
		if a.opts.Debug {
			log.Printf("[Judge] %s %s: %s - %s", p, as.Judge, as.Score.Format(3), as.Rationale)
		}
	}

	score := NeutralScore
	if mean, err := stats.Mean(valid); err == nil {
		score = mean
	}
	return Result{Participant: p, Score: measure.Of(score), Assessments: assessments, Evaluated: true}
}

func (a *Aggregator) ask(ctx context.Context, model, prompt string) pri.JudgeAssessment {
	failed := func(err error) pri.JudgeAssessment {
		diag := errors.ExternalServiceError(model, err)
		return pri.JudgeAssessment{Judge: model, Score: measure.Missing(), Rationale: diag.Error()}
	}

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return failed(errors.Wrap(err, "Request error"))
	}
	callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	content, err := a.client.Complete(callCtx, model, prompt)
	expired := stderrors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	cancel()
	a.sem.Release(1)
	if err != nil {
		if expired {
			return failed(ErrTimeout)
		}
		return failed(err)
	}

	v, err := ParseVerdict(content)
	if err != nil {
		return failed(err)
	}
	return pri.JudgeAssessment{Judge: model, Score: measure.Of(v.Score), Rationale: v.Rationale}
}
