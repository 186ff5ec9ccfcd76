package app

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopri/domain/measure"
	"gopri/domain/pri"
	"gopri/domain/survey"
	"gopri/internal/config"
	"gopri/internal/errors"
	"gopri/internal/judge"
	"gopri/internal/loader"
	"gopri/internal/reporting"
	"gopri/internal/scoring"
	"gopri/internal/signals"
	"gopri/models"
	"gopri/ports"
)

// PRIService runs the full reliability pipeline for one survey
type PRIService struct {
	cfg   *config.Config
	judge ports.JudgeClient
	repo  ports.RunRepository
	now   func() time.Time
}

// NewPRIService wires the pipeline. judgeClient is only needed when the judge
// is enabled; a nil repo skips persistence.
func NewPRIService(cfg *config.Config, judgeClient ports.JudgeClient, repo ports.RunRepository) *PRIService {
	return &PRIService{cfg: cfg, judge: judgeClient, repo: repo, now: time.Now}
}

// RunResult is everything a finished run produced
type RunResult struct {
	RunID       survey.RunID
	Dataset     *survey.Dataset
	Rows        []pri.ParticipantScores
	Columns     []pri.Column
	JudgeModels []string
	Fusion      scoring.Outcome
	Report      *reporting.Report
	Unreliable  []*reporting.Classification
	Files       []string
	Elapsed     time.Duration
}

// Run loads the survey, computes signals, optionally queries the judges,
// fuses scores, writes reports and exports, and stores the run.
func (s *PRIService) Run(ctx context.Context) (res *RunResult, err error) {
	start := s.now()
	cfg := s.cfg
	n := cfg.Paths.Survey
	res = &RunResult{RunID: survey.NewRunID()}

	log.Printf("[PRIService] Calculating PRI for Global Dialogue %d (run %s)", n, res.RunID)
	log.Printf("[PRIService] Debug mode: %t, LLM judge: %t", cfg.Run.Debug, cfg.Judge.Enabled)
	if cfg.Run.ParticipantLimit > 0 {
		log.Printf("[PRIService] Limiting to first %d participants for testing", cfg.Run.ParticipantLimit)
	}
	if cfg.Judge.Enabled && s.judge == nil {
		return nil, errors.ConfigInvalid("judge enabled but no judge client configured")
	}

	run := &models.Run{
		ID:           string(res.RunID),
		Survey:       n,
		Status:       models.RunStatusRunning,
		JudgeEnabled: cfg.Judge.Enabled,
		OutputDir:    cfg.Paths.OutputDir(),
		StartedAt:    start.UTC(),
	}
	if s.repo != nil {
		if err := s.repo.CreateRun(ctx, run); err != nil {
			return nil, errors.Wrap(err, "failed to record run")
		}
		defer func() {
			if err == nil {
				return
			}
			msg := err.Error()
			done := s.now().UTC()
			run.Status, run.Error, run.CompletedAt = models.RunStatusFailed, &msg, &done
			if cerr := s.repo.CompleteRun(context.WithoutCancel(ctx), run); cerr != nil {
				log.Printf("[PRIService] Failed to mark run %s failed: %v", run.ID, cerr)
			}
		}()
	}

	ds, err := loader.New(loader.SurveyPaths(cfg.Paths.DataRoot, n), loader.Options{
		MajorSegmentMin: cfg.Thresholds.MajorSegmentMin,
		Debug:           cfg.Run.Debug,
	}).Load(ctx, n)
	if err != nil {
		return nil, err
	}
	ds = ds.Limit(cfg.Run.ParticipantLimit)
	res.Dataset = ds

	sets := signals.PrecomputeConsensus(ds, cfg.Thresholds.ASCHigh, cfg.Thresholds.ASCLow)
	calc := signals.NewCalculator(signals.Thresholds{
		DisagreementAll:     cfg.Thresholds.DisagreementAll,
		DisagreementSegment: cfg.Thresholds.DisagreementSegment,
		UninformativeTag:    cfg.Thresholds.UninformativeTag,
	}, 0, cfg.Run.Debug)
	rows, err := calc.Compute(ctx, ds, ds.Participants, sets)
	if err != nil {
		return nil, errors.Wrap(err, "signal calculation failed")
	}

	judgeRan := false
	if cfg.Judge.Enabled {
		judgeRan, err = s.runJudge(ctx, ds, rows)
		if err != nil {
			return nil, err
		}
	}
	if judgeRan {
		res.JudgeModels = cfg.Judge.Models
	}

	res.Fusion = scoring.Fuse(rows,
		scoring.WeightSet(cfg.Weights.Heuristic),
		scoring.WeightSet(cfg.Weights.Enhanced),
		scoring.Options{
			DurationCap:  cfg.Thresholds.DurationReasonableMax,
			JudgeEnabled: judgeRan,
			Debug:        cfg.Run.Debug,
		})
	res.Rows = rows
	res.Columns = pri.Columns(res.JudgeModels)

	if err := s.writeOutputs(ds, res); err != nil {
		return nil, err
	}

	if s.repo != nil {
		if err := s.repo.SaveParticipants(ctx, res.RunID, rows); err != nil {
			return nil, err
		}
		done := s.now().UTC()
		run.Status = models.RunStatusCompleted
		run.ParticipantCount = len(rows)
		run.JudgeAvailable = res.Fusion.JudgeAvailable
		run.ASCAvailable = res.Fusion.ASCAvailable
		run.SegmentsSource = ds.SegmentsSource
		run.CompletedAt = &done
		if err := s.repo.CompleteRun(ctx, run); err != nil {
			return nil, err
		}
	}

	res.Elapsed = s.now().Sub(start)
	return res, nil
}

// runJudge fills the judge columns. It reports false when the guide has no
// open-ended questions to evaluate.
func (s *PRIService) runJudge(ctx context.Context, ds *survey.Dataset, rows []pri.ParticipantScores) (bool, error) {
	guide := judge.NewGuide(ds.Guide)
	if guide.Len() == 0 {
		log.Printf("[PRIService] No evaluatable questions in the discussion guide, LLM judge disabled")
		return false, nil
	}
	log.Printf("[PRIService] Found %d evaluatable questions for LLM judge", guide.Len())

	agg := judge.NewAggregator(s.judge, guide, judge.Options{
		Models:        s.cfg.Judge.Models,
		MaxConcurrent: s.cfg.Judge.MaxConcurrent,
		BatchSize:     s.cfg.Judge.BatchSize,
		Timeout:       s.cfg.Judge.Timeout,
		Debug:         s.cfg.Run.Debug,
	})
	results, err := agg.Run(ctx, ds.Participants, ds.Verbatim)
	if err != nil {
		return false, err
	}

	for i := range rows {
		r, ok := results[rows[i].Participant]
		if !ok {
			continue
		}
		rows[i].Judge = r.Score
		rows[i].JudgeEvaluated = r.Evaluated
		if len(r.Assessments) > 0 {
			rows[i].JudgeScores = make(map[string]measure.Value, len(r.Assessments))
			for _, a := range r.Assessments {
				rows[i].JudgeScores[a.Judge] = a.Score
			}
		}
	}
	return true, nil
}

func (s *PRIService) writeOutputs(ds *survey.Dataset, res *RunResult) error {
	cfg := s.cfg
	n := cfg.Paths.Survey
	dir := cfg.Paths.OutputDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create output directory %s", dir)
	}

	scoresPath := filepath.Join(dir, fmt.Sprintf("GD%d_pri_scores.csv", n))
	if err := writeFile(scoresPath, func(w io.Writer) error {
		return reporting.WriteScoresCSV(w, res.Rows, res.Columns)
	}); err != nil {
		return err
	}
	res.Files = append(res.Files, scoresPath)
	log.Printf("[Report] Results saved to %s", scoresPath)

	if c, ok := reporting.JudgeVsHeuristic(res.Rows); ok && len(res.JudgeModels) > 0 {
		log.Printf("[Report] LLM judge vs heuristic PRI: pearson=%s (p=%.3f) spearman=%s (p=%.3f) n=%d. %s",
			c.Pearson.R.Format(3), c.Pearson.P, c.Spearman.R.Format(3), c.Spearman.P, c.N, c.Interpretation)
	}

	// report failures are logged, not fatal
	res.Report = reporting.BuildReport(n, res.Rows, res.Columns, res.JudgeModels, s.now())
	var md bytes.Buffer
	if err := reporting.WriteCorrelationReport(&md, res.Report); err != nil {
		log.Printf("[Report] Warning: could not render correlation report: %v", err)
	} else {
		reportPath := filepath.Join(dir, res.Report.FileName("md"))
		if err := os.WriteFile(reportPath, md.Bytes(), 0o644); err != nil {
			log.Printf("[Report] Warning: could not save correlation report: %v", err)
		} else {
			res.Files = append(res.Files, reportPath)
			log.Printf("[Report] Comprehensive correlation report saved to %s", reportPath)
		}
		if cfg.Run.HTMLReport {
			htmlPath := filepath.Join(dir, res.Report.FileName("html"))
			page := reporting.RenderHTML(md.Bytes(), fmt.Sprintf("GD%d PRI correlation report", n))
			if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
				log.Printf("[Report] Warning: could not save HTML report: %v", err)
			} else {
				res.Files = append(res.Files, htmlPath)
			}
		}
	}

	open := reporting.OpenEndedResponses(ds.Verbatim, judge.NewGuide(ds.Guide), ds.Participants)
	for _, exp := range s.unreliableExports() {
		c, err := reporting.Classify(res.Rows, exp.policy)
		if err != nil {
			return err
		}
		res.Unreliable = append(res.Unreliable, c)
		if len(c.Flagged) == 0 {
			log.Printf("[Report] No unreliable participants identified (%s)", exp.policy.Method)
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("GD%d_unreliable_participants_%s.csv", n, exp.suffix))
		if err := writeFile(path, func(w io.Writer) error {
			_, err := reporting.WriteUnreliableCSV(w, c, res.Rows, open)
			return err
		}); err != nil {
			log.Printf("[Report] Warning: could not export unreliable participants: %v", err)
			continue
		}
		res.Files = append(res.Files, path)
		log.Printf("[Report] %d unreliable participants (%s) saved to %s", len(c.Flagged), exp.suffix, path)
	}
	return nil
}

type unreliableExport struct {
	policy reporting.Policy
	suffix string
}

// unreliableExports always writes the outlier and bottom-10% lists, plus the
// configured policy when it is neither.
func (s *PRIService) unreliableExports() []unreliableExport {
	exports := []unreliableExport{
		{reporting.Policy{Method: reporting.MethodOutliers}, "outliers"},
		{reporting.Policy{Method: reporting.MethodPercentile, Threshold: measure.Of(10)}, "bottom10pct"},
	}

	method := reporting.Method(s.cfg.Run.UnreliableMethod)
	threshold := measure.FromPtr(s.cfg.Run.UnreliableThreshold)
	switch {
	case method == reporting.MethodOutliers:
	case method == reporting.MethodPercentile && (!threshold.Valid || threshold.Float == 10):
	default:
		suffix := string(method)
		if threshold.Valid {
			suffix += "_" + threshold.String()
		}
		exports = append(exports, unreliableExport{reporting.Policy{Method: method, Threshold: threshold}, suffix})
	}
	return exports
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}

// PrintSummary writes the console summary of a finished run
func PrintSummary(w io.Writer, res *RunResult) {
	fmt.Fprintln(w, "\nPRI Score Statistics:")
	fmt.Fprintf(w, "%-8s %12s %14s\n", "", pri.ColScore, pri.ColScale)
	scores := make([]measure.Value, len(res.Rows))
	scales := make([]measure.Value, len(res.Rows))
	for i, r := range res.Rows {
		scores[i], scales[i] = r.Score, r.Scale
	}
	score, _ := reporting.Summarize(pri.ColScore, scores)
	scale, _ := reporting.Summarize(pri.ColScale, scales)
	line := func(label string, a, b float64) { fmt.Fprintf(w, "%-8s %12.3f %14.3f\n", label, a, b) }
	fmt.Fprintf(w, "%-8s %12d %14d\n", "count", score.N, scale.N)
	if score.N > 0 {
		line("mean", score.Mean, scale.Mean)
		fmt.Fprintf(w, "%-8s %12s %14s\n", "std", score.Std.Format(3), scale.Std.Format(3))
		line("min", score.Min, scale.Min)
		line("25%", score.Q1, scale.Q1)
		line("50%", score.Median, scale.Median)
		line("75%", score.Q3, scale.Q3)
		line("max", score.Max, scale.Max)
	}

	top, bottom := reporting.TopBottom(res.Rows, 5)
	fmt.Fprintln(w, "\nTop 5 Most Reliable Participants:")
	for _, r := range top {
		fmt.Fprintf(w, "  %-40s %s %s\n", r.Participant, r.Score.Format(3), r.Scale.Format(3))
	}
	fmt.Fprintln(w, "\nBottom 5 Least Reliable Participants:")
	for _, r := range bottom {
		fmt.Fprintf(w, "  %-40s %s %s\n", r.Participant, r.Score.Format(3), r.Scale.Format(3))
	}

	for _, f := range res.Files {
		fmt.Fprintf(w, "\nWrote %s", f)
	}
	fmt.Fprintf(w, "\n\nExecution completed in %.2f seconds (%.2f minutes)\n", res.Elapsed.Seconds(), res.Elapsed.Minutes())
}
