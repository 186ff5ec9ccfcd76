package judge

import (
	"testing"

	"gopri/domain/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGuide() []survey.GuideItem {
	return []survey.GuideItem{
		{Section: "Intro", ItemType: "speak", Content: "Welcome to the dialogue."},
		{Section: "Health", ItemType: "speak", Content: "AI is increasingly used in hospitals."},
		{Section: "", ItemType: "speak", Content: "   "},
		{Section: "Health", ItemType: "poll single select", Content: "Have you used an AI health tool?", Tag: "P1"},
		{Section: "Health", ItemType: " Ask Opinion ", Content: "What do you think about AI in healthcare?", Tag: "q1"},
		{Section: "Experience", ItemType: "ask experience", Content: "Describe a time AI helped you.", Tag: "q2"},
		{Section: "Experience", ItemType: "poll multi select", Content: "Which tools?", Tag: "P2"},
	}
}

func TestNewGuideSelectsOpenEndedQuestions(t *testing.T) {
	g := NewGuide(sampleGuide())

	require.Equal(t, 2, g.Len())
	qs := g.Questions()
	assert.Equal(t, "q1", qs[0].Tag)
	assert.Equal(t, TypeAskOpinion, qs[0].Type)
	assert.Equal(t, "q2", qs[1].Tag)
	assert.Equal(t, TypeAskExperience, qs[1].Type)
}

func TestNewGuideLaterDuplicateWins(t *testing.T) {
	items := append(sampleGuide(), survey.GuideItem{
		Section: "Later", ItemType: "ask opinion", Content: "Updated wording?", Tag: "q1",
	})
	g := NewGuide(items)

	require.Equal(t, 2, g.Len())
	assert.Equal(t, "Updated wording?", g.Questions()[0].Content)
}

func TestContextStopsAtSectionBoundary(t *testing.T) {
	g := NewGuide(sampleGuide())

	ctx, ok := g.Context("q1")
	require.True(t, ok)
	assert.Equal(t, "Health", ctx.Section)
	assert.Equal(t, []ContextItem{
		{Type: TypeSpeak, Content: "AI is increasingly used in hospitals."},
		{Type: TypePollSingle, Content: "Have you used an AI health tool?"},
	}, ctx.Items)

	ctx, ok = g.Context("q2")
	require.True(t, ok)
	assert.Empty(t, ctx.Items)

	_, ok = g.Context("missing")
	assert.False(t, ok)
}

func TestResponsesMatching(t *testing.T) {
	g := NewGuide(sampleGuide())

	entries := []survey.VerbatimEntry{
		{Participant: "p1", Question: "q1", ThoughtText: "It could help doctors."},
		{Participant: "p1", Question: "other", QuestionText: "  DESCRIBE a time AI helped you. ", ThoughtText: "Translated a menu."},
		{Participant: "p1", Question: "q1", ThoughtText: "   "},
		{Participant: "p1", Question: "x", QuestionText: "Unrelated?", ThoughtText: "ignored"},
		{Participant: "p1", Question: "y", QuestionText: "So what do you think about AI in healthcare", ThoughtText: "Mostly good."},
	}

	got := g.Responses(entries)
	require.Len(t, got, 3)
	assert.Equal(t, "q1", got[0].QuestionTag)
	assert.Equal(t, "q2", got[1].QuestionTag)
	assert.Equal(t, "Describe a time AI helped you.", got[1].Question)
	assert.Equal(t, "q1", got[2].QuestionTag)
	assert.Equal(t, "Mostly good.", got[2].Text)
}

func TestResponsesPartialMatchNeedsLongQuestion(t *testing.T) {
	g := NewGuide([]survey.GuideItem{
		{Section: "S", ItemType: "ask opinion", Content: "Is AI good?", Tag: "short"},
	})

	got := g.Responses([]survey.VerbatimEntry{
		{Question: "z", QuestionText: "is ai good? really", ThoughtText: "yes"},
	})
	assert.Empty(t, got)
}
