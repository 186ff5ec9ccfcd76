package judge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptEmpty(t *testing.T) {
	assert.Equal(t, EmptyPrompt, BuildPrompt(nil, NewGuide(nil)))
}

func TestBuildPromptWithContext(t *testing.T) {
	g := NewGuide(sampleGuide())
	responses := []Response{
		{QuestionTag: "q1", Question: "What do you think about AI in healthcare?", QuestionType: TypeAskOpinion, Text: "It could help doctors."},
		{QuestionTag: "loose", Question: "Anything else?", Text: "No."},
	}

	p := BuildPrompt(responses, g)

	assert.Contains(t, p, "=== RESPONSES WITH CONTEXT ===")
	assert.Contains(t, p, "1. SECTION: Health")
	assert.Contains(t, p, "   BACKGROUND CONTEXT:\n   1. [Speak] AI is increasingly used in hospitals.\n   2. [Poll Single Select] Have you used an AI health tool?")
	assert.Contains(t, p, "   QUESTION [ask opinion]: What do you think about AI in healthcare?\n   PARTICIPANT RESPONSE: It could help doctors.")
	assert.Contains(t, p, "=== ADDITIONAL RESPONSES ===")
	assert.Contains(t, p, "2. QUESTION [unknown]: Anything else?")
	assert.True(t, strings.HasSuffix(p, "no markdown formatting, no additional text."))
	assert.Less(t, strings.Index(p, "WITH CONTEXT"), strings.Index(p, "ADDITIONAL RESPONSES"))
}

func TestBuildPromptWithoutContext(t *testing.T) {
	p := BuildPrompt([]Response{{QuestionTag: "x", Question: "Why?", QuestionType: TypeAskExperience, Text: "Because."}}, NewGuide(nil))

	assert.Contains(t, p, "=== PARTICIPANT RESPONSES ===")
	assert.Contains(t, p, "1. QUESTION [ask experience]: Why?")
	assert.NotContains(t, p, "ADDITIONAL RESPONSES")
	assert.NotContains(t, p, "WITH CONTEXT")
}
