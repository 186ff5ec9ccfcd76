// Package loader reads one survey's export tables into an immutable
// survey.Dataset. Required tables fail the run when absent; optional ones
// degrade to empty.
package loader

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"gopri/adapters/tabular"
	"gopri/domain/measure"
	"gopri/domain/survey"
	"gopri/internal/errors"
	"gopri/internal/percent"

	"golang.org/x/sync/errgroup"
)

// TimestampLayout is the export's "May 5, 2025 at 9:30 AM (GMT)" format
const TimestampLayout = "January 2, 2006 at 3:04 PM (GMT)"

// Column names used by the exports
const (
	colParticipant  = "Participant ID"
	colThought      = "Thought ID"
	colQuestion     = "Question ID"
	colQuestionText = "Question Text"
	colVote         = "Vote"
	colTimestamp    = "Timestamp"
	colAll          = "All"
	colSection      = "Section"
	colItemType     = "Item type (dropdown)"
)

// Required column sets
var (
	BinaryColumns     = []string{colParticipant, colThought, colVote, colTimestamp}
	PreferenceColumns = []string{colParticipant, colTimestamp}
	VerbatimColumns   = []string{colParticipant, colThought, colQuestion}
	AggregateColumns  = []string{colQuestion, colParticipant, colAll}
)

var (
	thoughtTextColumns = []string{"Thought Text", "Thought"}
	guideTagColumns    = []string{"Cross Conversation Tag - Polls and Opinions only (Optional)", "Cross Conversation Tag", "Tag"}
	guideContentCols   = []string{"Content", "Question", "Text"}
	evaluatablePhrases = []string{"ask opinion", "ask experience"}
)

// Options controls loading
type Options struct {
	MajorSegmentMin float64
	Debug           bool
}

// Loader reads the files named by Paths
type Loader struct {
	paths Paths
	opts  Options
}

// New creates a loader
func New(paths Paths, opts Options) *Loader {
	return &Loader{paths: paths, opts: opts}
}

type rawTables struct {
	binary, preference, tags, verbatim, aggregate, segments, guide *tabular.Table
}

// Load reads and parses every table. Structural problems in required tables
// are returned as MISSING_RESOURCE errors before anything is computed.
func (l *Loader) Load(ctx context.Context, surveyNum int) (*survey.Dataset, error) {
	start := time.Now()
	raw, err := l.readAll(ctx)
	if err != nil {
		return nil, err
	}

	ds := &survey.Dataset{Survey: surveyNum}
	ds.BinaryVotes, ds.Participants = parseBinary(raw.binary)
	ds.Preferences = parsePreferences(raw.preference)
	ds.Tags, ds.TagColumns = parseTags(raw.tags)
	ds.Verbatim = parseVerbatim(raw.verbatim)

	if raw.segments != nil {
		ds.MajorSegments = MajorSegments(raw.segments, l.opts.MajorSegmentMin)
		ds.SegmentsSource = filepath.Base(l.paths.SegmentCounts)
	} else {
		ds.MajorSegments = append([]string(nil), FallbackSegments...)
		ds.SegmentsSource = "fallback"
	}
	ds.Aggregate = parseAggregate(raw.aggregate, ds.MajorSegments)
	ds.Guide = parseGuide(raw.guide)

	log.Printf("[Loader] GD%d loaded in %s: %d participants, %d binary votes, %d preference votes, %d tag rows, %d verbatim, %d aggregate rows, %d major segments (%s)",
		surveyNum, time.Since(start).Round(time.Millisecond), len(ds.Participants), len(ds.BinaryVotes),
		len(ds.Preferences), len(ds.Tags), len(ds.Verbatim), len(ds.Aggregate), len(ds.MajorSegments), ds.SegmentsSource)

	if l.opts.Debug {
		logDiagnostics(ds)
	}
	return ds, nil
}

func (l *Loader) readAll(ctx context.Context) (*rawTables, error) {
	raw := &rawTables{}
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		raw.binary, err = readRequired(l.paths.Binary, BinaryColumns)
		return err
	})
	g.Go(func() (err error) {
		raw.preference, err = readRequired(l.paths.Preference, PreferenceColumns)
		return err
	})
	g.Go(func() (err error) {
		raw.verbatim, err = readRequired(l.paths.Verbatim, VerbatimColumns)
		return err
	})
	g.Go(func() (err error) {
		raw.aggregate, err = readRequired(l.paths.Aggregate, AggregateColumns)
		return err
	})
	g.Go(func() error {
		raw.tags = readOptional(l.paths.Tags, "thought labels")
		return nil
	})
	g.Go(func() error {
		raw.segments = readOptional(l.paths.SegmentCounts, "segment counts")
		return nil
	})
	g.Go(func() error {
		raw.guide = readOptional(l.paths.Guide, "discussion guide")
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return raw, nil
}

func readRequired(path string, columns []string) (*tabular.Table, error) {
	table, err := tabular.NewReader(tabular.Resolve(path)).Read()
	if err != nil {
		return nil, errors.MissingResource(filepath.Base(path), columns, err)
	}
	if missing := table.MissingColumns(columns...); len(missing) > 0 {
		return nil, errors.MissingResource(filepath.Base(path), columns,
			fmt.Errorf("absent columns: %s", strings.Join(missing, ", ")))
	}
	return table, nil
}

func readOptional(path, what string) *tabular.Table {
	table, err := tabular.NewReader(tabular.Resolve(path)).Read()
	if err != nil {
		log.Printf("[Loader] Warning: %s unavailable, continuing without it: %v", what, err)
		return nil
	}
	return table
}

// ParseTimestamp parses the export timestamp format; nil means missing.
func ParseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	ts, err := time.Parse(TimestampLayout, raw)
	if err != nil {
		return nil
	}
	return &ts
}

func parseBinary(t *tabular.Table) ([]survey.BinaryVote, []survey.ParticipantID) {
	votes := make([]survey.BinaryVote, 0, len(t.Rows))
	seen := make(map[survey.ParticipantID]bool)
	var participants []survey.ParticipantID

	for _, row := range t.Rows {
		pid := survey.ParticipantID(row[colParticipant])
		if pid.IsEmpty() {
			continue
		}
		if !seen[pid] {
			seen[pid] = true
			participants = append(participants, pid)
		}
		votes = append(votes, survey.BinaryVote{
			Participant: pid,
			Thought:     survey.ThoughtID(row[colThought]),
			Vote:        survey.ParseVote(row[colVote]),
			Timestamp:   ParseTimestamp(row[colTimestamp]),
		})
	}
	return votes, participants
}

func parsePreferences(t *tabular.Table) []survey.PreferenceVote {
	prefs := make([]survey.PreferenceVote, 0, len(t.Rows))
	for _, row := range t.Rows {
		pid := survey.ParticipantID(row[colParticipant])
		if pid.IsEmpty() {
			continue
		}
		prefs = append(prefs, survey.PreferenceVote{
			Participant: pid,
			Timestamp:   ParseTimestamp(row[colTimestamp]),
		})
	}
	return prefs
}

func parseTags(t *tabular.Table) ([]survey.ThoughtTag, []string) {
	if t == nil {
		return nil, nil
	}
	if missing := t.MissingColumns(colParticipant); len(missing) > 0 {
		log.Printf("[Loader] Warning: thought labels have no %q column, ignoring tags", colParticipant)
		return nil, nil
	}
	tagCols := t.ColumnsWithPrefix("Tag ")

	tags := make([]survey.ThoughtTag, 0, len(t.Rows))
	for _, row := range t.Rows {
		pid := survey.ParticipantID(row[colParticipant])
		if pid.IsEmpty() {
			continue
		}
		values := make([]string, len(tagCols))
		for i, c := range tagCols {
			values[i] = row[c]
		}
		tags = append(tags, survey.ThoughtTag{
			Participant: pid,
			Question:    survey.QuestionID(row[colQuestion]),
			Tags:        values,
		})
	}
	return tags, tagCols
}

func parseVerbatim(t *tabular.Table) []survey.VerbatimEntry {
	textCol, _ := t.FirstColumn(thoughtTextColumns...)

	entries := make([]survey.VerbatimEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		pid := survey.ParticipantID(row[colParticipant])
		if pid.IsEmpty() {
			continue
		}
		entry := survey.VerbatimEntry{
			Participant:  pid,
			Thought:      survey.ThoughtID(row[colThought]),
			Question:     survey.QuestionID(row[colQuestion]),
			QuestionText: row[colQuestionText],
		}
		if textCol != "" {
			entry.ThoughtText = row[textCol]
		}
		entries = append(entries, entry)
	}
	return entries
}

func parseAggregate(t *tabular.Table, majorSegments []string) []survey.AggregateRow {
	var segCols []string
	present := make(map[string]bool, len(t.Headers))
	for _, h := range t.Headers {
		present[h] = true
	}
	for _, s := range majorSegments {
		if present[s] {
			segCols = append(segCols, s)
		}
	}
	if len(segCols) == 0 {
		log.Printf("[Loader] Warning: no major segment columns found in aggregate table")
	}

	rows := make([]survey.AggregateRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		agg := survey.AggregateRow{
			Question:    survey.QuestionID(row[colQuestion]),
			Participant: survey.ParticipantID(row[colParticipant]),
			Thought:     survey.ThoughtID(row[colThought]),
			All:         percent.ParseCell(row[colAll]),
			Segments:    make(map[string]measure.Value, len(segCols)),
		}
		for _, c := range segCols {
			agg.Segments[c] = percent.ParseCell(row[c])
		}
		rows = append(rows, agg)
	}
	return rows
}

func parseGuide(t *tabular.Table) []survey.GuideItem {
	if t == nil {
		return nil
	}
	_, hasItemType := t.FirstColumn(colItemType)

	items := make([]survey.GuideItem, 0, len(t.Rows))
	for _, row := range t.Rows {
		item := survey.GuideItem{
			Section: row[colSection],
			Tag:     firstNonEmpty(row, guideTagColumns),
			Content: firstNonEmpty(row, guideContentCols),
		}
		if hasItemType {
			item.ItemType = row[colItemType]
		} else {
			item.ItemType = detectItemType(row)
		}
		items = append(items, item)
	}
	return items
}

func firstNonEmpty(row tabular.Row, cols []string) string {
	for _, c := range cols {
		if v := row[c]; v != "" {
			return v
		}
	}
	return ""
}

// detectItemType recovers the item type from guides that lack the dropdown
// column by looking for the evaluatable phrases in any cell.
func detectItemType(row tabular.Row) string {
	for _, v := range row {
		lower := strings.ToLower(v)
		for _, phrase := range evaluatablePhrases {
			if strings.Contains(lower, phrase) {
				return phrase
			}
		}
	}
	return ""
}

func logDiagnostics(ds *survey.Dataset) {
	aggThoughts := make(map[survey.ThoughtID]bool)
	for _, r := range ds.Aggregate {
		if r.Thought != "" {
			aggThoughts[r.Thought] = true
		}
	}
	authors := make(map[survey.ParticipantID]bool)
	missing := make(map[survey.ThoughtID]bool)
	for _, v := range ds.Verbatim {
		authors[v.Participant] = true
		if len(aggThoughts) > 0 && !aggThoughts[v.Thought] {
			missing[v.Thought] = true
		}
	}
	if len(missing) > 0 {
		log.Printf("[Loader] Warning: %d thoughts in verbatim map not found in aggregate data", len(missing))
	}

	silent := 0
	for _, p := range ds.Participants {
		if !authors[p] {
			silent++
		}
	}
	if silent > 0 {
		log.Printf("[Loader] %d participants have no authored thoughts", silent)
	}
}
