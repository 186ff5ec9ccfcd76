package judge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopri/internal/percent"
)

const (
	minRationaleLength = 10
	partialRationale   = "Extracted from partial response"
)

var (
	embeddedObject = regexp.MustCompile(`\{[^}]*"confidence_score"[^}]*\}`)
	bareScore      = regexp.MustCompile(`["\s]*confidence_score["\s]*:?\s*([0-9.]+)`)
)

// Verdict is a parsed judge reply
type Verdict struct {
	Score     float64
	Rationale string
}

type verdictJSON struct {
	ConfidenceScore *float64 `json:"confidence_score"`
	Reasoning       *string  `json:"reasoning"`
}

// ParseVerdict extracts a score from a judge reply. It tries, in order: the
// whole reply as JSON, the first JSON object mentioning confidence_score, and
// a bare "confidence_score: n". JSON verdicts need a score in [0,1] and a
// rationale of at least ten characters.
func ParseVerdict(content string) (Verdict, error) {
	v, firstErr := decodeVerdict(stripFences(content))
	if firstErr == nil {
		return v, nil
	}

	if obj := embeddedObject.FindString(content); obj != "" {
		if v, err := decodeVerdict(obj); err == nil {
			return v, nil
		}
	}

	if m := bareScore.FindStringSubmatch(content); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			if score, err := percent.RequireRatio(f); err == nil {
				return Verdict{Score: score, Rationale: partialRationale}, nil
			}
		}
	}

	return Verdict{}, fmt.Errorf("Parse error: %v", firstErr)
}

func decodeVerdict(s string) (Verdict, error) {
	var raw verdictJSON
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Verdict{}, err
	}
	if raw.ConfidenceScore == nil {
		return Verdict{}, fmt.Errorf("confidence_score field required")
	}
	if raw.Reasoning == nil {
		return Verdict{}, fmt.Errorf("reasoning field required")
	}
	score, err := percent.RequireRatio(*raw.ConfidenceScore)
	if err != nil {
		return Verdict{}, fmt.Errorf("confidence_score: %w", err)
	}
	if utf8.RuneCountInString(*raw.Reasoning) < minRationaleLength {
		return Verdict{}, fmt.Errorf("reasoning must have at least %d characters", minRationaleLength)
	}
	return Verdict{Score: score, Rationale: *raw.Reasoning}, nil
}

// stripFences removes a surrounding markdown code block
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasSuffix(content, "```") {
		return content
	}
	switch {
	case strings.HasPrefix(content, "```json"):
		content = strings.TrimPrefix(content, "```json")
	case strings.HasPrefix(content, "```"):
		content = strings.TrimPrefix(content, "```")
	default:
		return content
	}
	return strings.TrimSpace(strings.TrimSuffix(content, "```"))
}
