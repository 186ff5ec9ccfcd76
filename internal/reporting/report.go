package reporting

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"gopri/domain/pri"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Report gathers everything the correlation report prints
type Report struct {
	Survey       int
	Generated    time.Time
	Participants int
	Summaries    []Summary
	Matrix       *Matrix
	Findings     []Finding
	InterRater   *InterRaterReport
	Judge        *JudgeComparison
}

// BuildReport computes the full report for a finished table
func BuildReport(surveyNum int, rows []pri.ParticipantScores, cols []pri.Column, judgeModels []string, now time.Time) *Report {
	m := CorrelationMatrix(rows, cols)
	r := &Report{
		Survey:       surveyNum,
		Generated:    now,
		Participants: len(rows),
		Summaries:    Summaries(rows, cols),
		Matrix:       m,
		Findings:     KeyFindings(m),
		InterRater:   InterRater(rows, judgeModels),
	}
	if len(judgeModels) > 0 {
		if c, ok := JudgeVsHeuristic(rows); ok {
			r.Judge = c
		}
	}
	return r
}

// FileName is the timestamped report file name
func (r *Report) FileName(ext string) string {
	return fmt.Sprintf("GD%d_comprehensive_correlation_report_%s.%s", r.Survey, r.Generated.Format("20060102_150405"), ext)
}

// WriteCorrelationReport renders the report as Markdown
func WriteCorrelationReport(w io.Writer, r *Report) error {
	b := bufio.NewWriter(w)
	p := func(format string, args ...any) { fmt.Fprintf(b, format+"\n", args...) }

	p("# Comprehensive PRI Correlation Analysis Report")
	p("")
	p("- Generated: %s", r.Generated.Format("2006-01-02 15:04:05"))
	p("- Total participants analyzed: %d", r.Participants)
	p("- PRI metrics included: %d", len(r.Matrix.Columns))
	p("")

	p("## Summary Statistics")
	p("")
	p("| Metric | n | mean | std | min | max |")
	p("|---|---:|---:|---:|---:|---:|")
	for _, s := range r.Summaries {
		p("| %s | %d | %.3f | %s | %.3f | %.3f |", s.Name, s.N, s.Mean, s.Std.Format(3), s.Min, s.Max)
	}
	p("")

	p("## Pearson Correlation Matrix")
	p("")
	p("Correlations (sample sizes in parentheses)")
	p("")
	writeMatrix(b, r.Matrix, r.Matrix.Pearson, func(c Pair) string { return fmt.Sprintf("%.3f (%d)", c.R.Float, c.N) })
	p("")

	p("## Spearman Correlation Matrix")
	p("")
	p("Correlations (p-values in parentheses)")
	p("")
	writeMatrix(b, r.Matrix, r.Matrix.Spearman, func(c Pair) string { return fmt.Sprintf("%.3f (%.3f)", c.R.Float, c.P) })
	p("")

	p("## Key Findings")
	p("")
	if len(r.Findings) == 0 {
		p("No strong correlations (|r| > 0.3) found between different metrics.")
	} else {
		p("Strongest correlations (|r| > 0.3):")
		p("")
		for _, f := range r.Findings {
			p("- %s ↔ %s: r=%.3f (%s %s)", f.A, f.B, f.R, f.Strength, f.Direction)
		}
	}
	p("")

	if ir := r.InterRater; ir != nil {
		writeInterRater(p, ir)
	}

	if r.Matrix.Has(pri.ColJudge) {
		writeJudgeSection(p, r)
	}

	return b.Flush()
}

func writeMatrix(w io.Writer, m *Matrix, cells [][]Pair, format func(Pair) string) {
	var hdr, sep strings.Builder
	hdr.WriteString("| Metric |")
	sep.WriteString("|---|")
	for _, c := range m.Columns {
		fmt.Fprintf(&hdr, " %s |", shortName(c, 12))
		sep.WriteString("---:|")
	}
	fmt.Fprintln(w, hdr.String())
	fmt.Fprintln(w, sep.String())
	for i, row := range m.Columns {
		fmt.Fprintf(w, "| %s |", row)
		for j := range m.Columns {
			c := cells[i][j]
			if !c.R.Valid {
				fmt.Fprint(w, " N/A |")
				continue
			}
			fmt.Fprintf(w, " %s |", format(c))
		}
		fmt.Fprintln(w)
	}
}

func writeInterRater(p func(string, ...any), ir *InterRaterReport) {
	p("## LLM Judge Inter-Rater Reliability Analysis")
	p("")
	p("- Participants with LLM judge scores: %d", ir.Complete)
	p("- Individual LLM models: %d", len(ir.Judges))
	p("")
	p("Individual model statistics:")
	p("")
	for _, s := range ir.Judges {
		p("- %s: n=%d, mean=%.3f, std=%s, range=[%.3f, %.3f]", s.Name, s.N, s.Mean, s.Std.Format(3), s.Min, s.Max)
	}
	p("")
	if len(ir.Pairs) > 0 {
		p("Inter-rater correlations (Pearson):")
		p("")
		for _, pair := range ir.Pairs {
			p("- %s ↔ %s: r=%.3f", pair.A, pair.B, pair.R)
		}
		p("- Mean inter-rater correlation: r=%s", ir.MeanR.Format(3))
		p("- Reliability assessment: %s", ir.Agreement)
	}
	if ir.Alpha.Valid {
		p("- Cronbach's Alpha: %.3f (%s)", ir.Alpha.Float, ir.Consistency)
	}
	p("")
}

func writeJudgeSection(p func(string, ...any), r *Report) {
	p("## LLM Judge Analysis")
	p("")

	type corr struct {
		name string
		r    float64
	}
	var list []corr
	for _, col := range r.Matrix.Columns {
		if col == pri.ColJudge {
			continue
		}
		pe, _, _ := r.Matrix.Lookup(pri.ColJudge, col)
		if pe.R.Valid {
			list = append(list, corr{col, pe.R.Float})
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return math.Abs(list[i].r) > math.Abs(list[j].r) })

	p("LLM Judge correlations with other metrics:")
	p("")
	for _, c := range list {
		p("- %s: r=%.3f (%s)", c.name, c.r, correlationLabel(c.r))
	}
	p("")

	if pe, _, ok := r.Matrix.Lookup(pri.ColJudge, pri.ColHeuristic); ok && pe.R.Valid {
		p("### Key Correlation Highlight")
		p("")
		p("Heuristic-Only PRI vs LLM Judge: r=%.3f", pe.R.Float)
		p("")
		p("Interpretation: %s", highlightInterpretation(pe.R.Float))
		p("")
		p("This correlation shows how well traditional heuristics predict LLM-assessed earnestness.")
		p("")
	}

	if c := r.Judge; c != nil {
		p("### LLM Judge vs Heuristic PRI")
		p("")
		p("- Pearson correlation: %s (p=%.3f)", c.Pearson.R.Format(3), c.Pearson.P)
		p("- Spearman correlation: %s (p=%.3f)", c.Spearman.R.Format(3), c.Spearman.P)
		p("- Sample size: %d participants", c.N)
		for _, comp := range c.Components {
			p("- %s: %s (p=%.3f)", comp.Column, comp.Pearson.R.Format(3), comp.Pearson.P)
		}
		p("- Interpretation: %s", c.Interpretation)
		p("")
	}
}

// RenderHTML converts a Markdown report into a standalone HTML page. md is
// not modified.
func RenderHTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(append([]byte(nil), md...))
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
		Title: title,
	})
	return markdown.Render(doc, renderer)
}
