package loader_test

import (
	"context"
	"testing"
	"time"

	"gopri/adapters/tabular"
	"gopri/domain/survey"
	"gopri/internal/errors"
	"gopri/internal/loader"
	"gopri/internal/testkit"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, opts ...testkit.Option) (*survey.Dataset, error) {
	t.Helper()
	root := t.TempDir()
	_, err := testkit.WriteSurvey(root, 1, opts...)
	require.NoError(t, err)

	l := loader.New(loader.SurveyPaths(root, 1), loader.Options{MajorSegmentMin: 20})
	return l.Load(context.Background(), 1)
}

func TestLoadFixture(t *testing.T) {
	ds, err := loadFixture(t)
	require.NoError(t, err)

	assert.Equal(t, []survey.ParticipantID{"p1", "p2", "p3"}, ds.Participants)
	assert.Len(t, ds.BinaryVotes, 5)
	assert.Equal(t, survey.VoteAgree, ds.BinaryVotes[0].Vote)
	assert.Equal(t, survey.VoteMissing, ds.BinaryVotes[4].Vote)
	assert.Nil(t, ds.BinaryVotes[4].Timestamp, "unparseable timestamp is missing")

	require.NotNil(t, ds.BinaryVotes[0].Timestamp)
	assert.Equal(t, time.Date(2025, 5, 5, 9, 0, 0, 0, time.UTC), *ds.BinaryVotes[0].Timestamp)

	assert.Equal(t, []string{"Tag 1", "Tag 2"}, ds.TagColumns, "BOM must not hide the first header")
	assert.Len(t, ds.Tags, 3)

	if diff := cmp.Diff([]string{"Africa", "Europe"}, ds.MajorSegments); diff != "" {
		t.Errorf("major segments mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, ds.Aggregate, 4)
	assert.InDelta(t, 0.8, ds.Aggregate[0].All.Float, 1e-9)
	assert.InDelta(t, 0.15, ds.Aggregate[1].Segments["Africa"].Float, 1e-9, "bare numbers above 1 are percentages")
	assert.False(t, ds.Aggregate[2].Segments["Africa"].Valid, "dash is missing")
	_, hasCountry := ds.Aggregate[0].Segments["O7: France"]
	assert.False(t, hasCountry, "only major segments are parsed")

	assert.Equal(t, "It could help doctors diagnose faster.", ds.Verbatim[0].ThoughtText)
	require.Len(t, ds.Guide, 5)
	assert.Equal(t, "q1", ds.Guide[3].Tag)
	assert.Equal(t, "ask opinion", ds.Guide[3].ItemType)
}

func TestLoadMissingRequiredFile(t *testing.T) {
	_, err := loadFixture(t, testkit.Without("binary"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeMissingResource, errors.GetCode(err))
	assert.Contains(t, err.Error(), "GD1_binary.csv")
	assert.Contains(t, err.Error(), "Participant ID, Thought ID, Vote, Timestamp")
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	_, err := loadFixture(t, testkit.Replace("aggregate_standardized", "Question ID,Participant ID\nq1,p1\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeMissingResource))
	assert.Contains(t, err.Error(), "All")
}

func TestLoadOptionalFilesDegrade(t *testing.T) {
	ds, err := loadFixture(t,
		testkit.Without("tags"),
		testkit.Without("segment_counts_by_question"),
		testkit.Without("discussion_guide"),
	)
	require.NoError(t, err)

	assert.Empty(t, ds.Tags)
	assert.Empty(t, ds.Guide)
	assert.Equal(t, "fallback", ds.SegmentsSource)
	assert.Contains(t, ds.MajorSegments, "Norther Europe")
	// fallback lists Africa, and the aggregate carries it
	assert.InDelta(t, 0.75, ds.Aggregate[0].Segments["Africa"].Float, 1e-9)
}

func TestParseTimestamp(t *testing.T) {
	ts := loader.ParseTimestamp("December 31, 2024 at 11:59 PM (GMT)")
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), *ts)

	ts = loader.ParseTimestamp("May 05, 2025 at 09:30 AM (GMT)")
	require.NotNil(t, ts)
	assert.Equal(t, 9, ts.Hour())

	assert.Nil(t, loader.ParseTimestamp(""))
	assert.Nil(t, loader.ParseTimestamp("2025-05-05T09:30:00Z"))
}

func TestMajorSegments(t *testing.T) {
	table := &tabular.Table{
		Headers: []string{"Question ID", "All", "Asia", "Europe", "O7: Kenya", "55+", "O2: 18-25"},
		Rows: []tabular.Row{
			{"Question ID": "q1", "All": "500", "Asia": "10", "Europe": "30", "O7: Kenya": "99", "55+": "99", "O2: 18-25": "x"},
			{"Question ID": "q2", "All": "500", "Asia": "40", "Europe": "5", "O7: Kenya": "99", "55+": "99", "O2: 18-25": ""},
		},
	}
	assert.Equal(t, []string{"Asia"}, loader.MajorSegments(table, 20))
	assert.Equal(t, []string{"Asia", "Europe"}, loader.MajorSegments(table, 17.5))
}
