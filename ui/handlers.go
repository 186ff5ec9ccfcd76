package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gopri/domain/measure"
	"gopri/domain/pri"
	"gopri/domain/survey"
	"gopri/internal/errors"
	"gopri/internal/reporting"
)

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, errors.InvalidInput(fmt.Sprintf("invalid limit %q", raw)))
			return
		}
		limit = n
	}
	runs, err := a.repo.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs, "count": len(runs)})
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseRunID(w, r)
	if !ok {
		return
	}
	run, err := a.repo.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (a *App) handleParticipants(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseRunID(w, r)
	if !ok {
		return
	}
	rows, err := a.repo.ListParticipants(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"participants": rows, "count": len(rows)})
}

type unreliableResponse struct {
	Method    reporting.Method       `json:"method"`
	Threshold measure.Value          `json:"threshold"`
	Cutoff    float64                `json:"cutoff"`
	Flagged   []survey.ParticipantID `json:"flagged"`
	Count     int                    `json:"count"`
	Scored    int                    `json:"scored"`
}

// handleUnreliable reclassifies a stored run. Query: method, threshold.
func (a *App) handleUnreliable(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseRunID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	method := reporting.MethodOutliers
	if raw := q.Get("method"); raw != "" {
		m, err := reporting.ParseMethod(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		method = m
	}
	policy := reporting.Policy{Method: method}
	if raw := q.Get("threshold"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, errors.InvalidInput(fmt.Sprintf("invalid threshold %q", raw)))
			return
		}
		policy.Threshold = measure.Of(f)
	}

	rows, err := a.repo.ListParticipants(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := reporting.Classify(rows, policy)
	if err != nil {
		writeError(w, err)
		return
	}
	flagged := c.Flagged
	if flagged == nil {
		flagged = []survey.ParticipantID{}
	}
	writeJSON(w, http.StatusOK, unreliableResponse{
		Method:    method,
		Threshold: policy.Threshold,
		Cutoff:    c.Cutoff,
		Flagged:   flagged,
		Count:     len(flagged),
		Scored:    measure.CountValid(scales(rows)),
	})
}

// handleReport renders the correlation report for a stored run as HTML
func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseRunID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	run, err := a.repo.GetRun(ctx, runID)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := a.repo.ListParticipants(ctx, runID)
	if err != nil {
		writeError(w, err)
		return
	}

	var models []string
	if run.JudgeAvailable {
		models = judgeModels(rows)
	}
	generated := run.StartedAt
	if run.CompletedAt != nil {
		generated = *run.CompletedAt
	}
	report := reporting.BuildReport(run.Survey, rows, pri.Columns(models), models, generated.In(time.Local))

	var md bytes.Buffer
	if err := reporting.WriteCorrelationReport(&md, report); err != nil {
		writeError(w, errors.Wrap(err, "failed to render report"))
		return
	}
	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write(md.Bytes())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(reporting.RenderHTML(md.Bytes(), fmt.Sprintf("GD%d PRI correlation report", run.Survey)))
}

func parseRunID(w http.ResponseWriter, r *http.Request) (survey.RunID, bool) {
	id, err := survey.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, errors.InvalidInput(err.Error()))
		return "", false
	}
	return id, true
}

func scales(rows []pri.ParticipantScores) []measure.Value {
	out := make([]measure.Value, len(rows))
	for i := range rows {
		out[i] = rows[i].Scale
	}
	return out
}

// judgeModels recovers the judge model list from stored per-judge scores
func judgeModels(rows []pri.ParticipantScores) []string {
	seen := make(map[string]bool)
	var models []string
	for _, r := range rows {
		for m := range r.JudgeScores {
			if !seen[m] {
				seen[m] = true
				models = append(models, m)
			}
		}
	}
	sort.Strings(models)
	return models
}
