package judge

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SystemPrompt frames every judge request
const SystemPrompt = "You are an expert survey quality assessor. Your task is to evaluate participant responses for earnestness and quality. Respond with a JSON object containing 'confidence_score' (0.0-1.0) and 'reasoning' (brief explanation)."

// EmptyPrompt is sent when a participant has nothing to evaluate
const EmptyPrompt = "No responses to evaluate. Please return confidence_score: 0.0"

const promptIntro = `Given this participant's responses to the following open-ended questions from a global survey about AI, give an overall confidence score from 0.0 to 1.0 on how confident the survey administrators can be that the participant was being earnest in their responses.

This is a global survey across languages that involved some automated translation - therefore some grammatical errors may be present, so do not penalize incorrect grammar if there is clearly effort to communicate a coherent meaning.

Consider factors such as:
- Thoughtfulness and depth of responses
- Consistency across answers
- Evidence of genuine engagement with the questions
- Appropriate length and detail
- Coherent reasoning and personal perspective
- Relevance to the provided context and scenarios

`

const promptContract = `Please respond with ONLY a valid JSON object in this exact format (no additional text before or after):
{
    "confidence_score": 0.X,
    "reasoning": "Brief explanation of your assessment"
}

The confidence_score should be:
- 0.8-1.0: Highly earnest, thoughtful responses
- 0.6-0.8: Generally earnest with good engagement
- 0.4-0.6: Moderate earnestness, some concerns
- 0.2-0.4: Low earnestness, significant concerns
- 0.0-0.2: Very low earnestness, minimal effort

IMPORTANT: Return ONLY the JSON object, no explanation, no markdown formatting, no additional text.`

var titleCaser = cases.Title(language.English)

// BuildPrompt renders a participant's answers, placing those with guide
// context first.
func BuildPrompt(responses []Response, guide *Guide) string {
	if len(responses) == 0 {
		return EmptyPrompt
	}

	var withContext, without []Response
	for _, r := range responses {
		if _, ok := guide.Context(r.QuestionTag); ok {
			withContext = append(withContext, r)
		} else {
			without = append(without, r)
		}
	}

	var b strings.Builder
	b.WriteString(promptIntro)

	if len(withContext) > 0 {
		b.WriteString("=== RESPONSES WITH CONTEXT ===\n\n")
		for i, r := range withContext {
			ctx, _ := guide.Context(r.QuestionTag)
			fmt.Fprintf(&b, "%d. SECTION: %s\n\n", i+1, ctx.Section)
			if len(ctx.Items) > 0 {
				b.WriteString("   BACKGROUND CONTEXT:\n")
				for j, item := range ctx.Items {
					kind := titleCaser.String(strings.ReplaceAll(item.Type, "_", " "))
					fmt.Fprintf(&b, "   %d. [%s] %s\n", j+1, kind, item.Content)
				}
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "   QUESTION [%s]: %s\n", questionType(r), r.Question)
			fmt.Fprintf(&b, "   PARTICIPANT RESPONSE: %s\n\n", r.Text)
		}
	}

	if len(without) > 0 {
		if len(withContext) > 0 {
			b.WriteString("=== ADDITIONAL RESPONSES ===\n\n")
		} else {
			b.WriteString("=== PARTICIPANT RESPONSES ===\n\n")
		}
		for i, r := range without {
			fmt.Fprintf(&b, "%d. QUESTION [%s]: %s\n", len(withContext)+i+1, questionType(r), r.Question)
			fmt.Fprintf(&b, "   PARTICIPANT RESPONSE: %s\n\n", r.Text)
		}
	}

	b.WriteString(promptContract)
	return b.String()
}

func questionType(r Response) string {
	if r.QuestionType == "" {
		return "unknown"
	}
	return r.QuestionType
}
