// Package judge scores participant earnestness by sending their open-ended
// answers to several external language-model judges and averaging the
// verdicts.
package judge

import (
	"strings"
	"unicode/utf8"

	"gopri/domain/survey"
)

// Guide item types
const (
	TypeAskOpinion      = "ask opinion"
	TypeAskExperience   = "ask experience"
	TypeSpeak           = "speak"
	TypePollSingle      = "poll single select"
	TypePollMulti       = "poll multi select"
	partialMatchMinLen  = 20
	partialMatchOverlap = 0.7
)

// Question is an evaluatable open-ended question from the discussion guide
type Question struct {
	Tag     string
	Content string
	Type    string
}

// ContextItem is a piece of background shown before a question
type ContextItem struct {
	Type    string
	Content string
}

// QuestionContext is the section and background preceding a question
type QuestionContext struct {
	Question Question
	Section  string
	Items    []ContextItem
}

// Guide holds the evaluatable questions keyed by cross-conversation tag and
// their surrounding context.
type Guide struct {
	questions map[string]Question
	order     []string
	byText    map[string]string
	contexts  map[string]QuestionContext
}

// NewGuide selects the ask-opinion and ask-experience items and builds their
// background context from the items preceding them in the same section.
func NewGuide(items []survey.GuideItem) *Guide {
	g := &Guide{
		questions: make(map[string]Question),
		byText:    make(map[string]string),
		contexts:  make(map[string]QuestionContext),
	}

	for _, item := range items {
		kind := strings.ToLower(strings.TrimSpace(item.ItemType))
		if kind != TypeAskOpinion && kind != TypeAskExperience {
			continue
		}
		if item.Tag == "" || item.Content == "" {
			continue
		}
		if _, seen := g.questions[item.Tag]; !seen {
			g.order = append(g.order, item.Tag)
		}
		g.questions[item.Tag] = Question{Tag: item.Tag, Content: item.Content, Type: kind}
	}

	for _, tag := range g.order {
		q := g.questions[tag]
		g.byText[strings.ToLower(strings.TrimSpace(q.Content))] = tag
		if ctx, ok := buildContext(items, q); ok {
			g.contexts[tag] = ctx
		}
	}
	return g
}

func buildContext(items []survey.GuideItem, q Question) (QuestionContext, bool) {
	pos := -1
	for i, item := range items {
		if item.Tag == q.Tag {
			pos = i
			break
		}
	}
	if pos < 0 {
		return QuestionContext{}, false
	}

	section := items[pos].Section
	var collected []ContextItem
	for i := pos - 1; i >= 0; i-- {
		item := items[i]
		if item.Section != section && item.Section != "" {
			break
		}
		kind := strings.ToLower(strings.TrimSpace(item.ItemType))
		content := strings.TrimSpace(item.Content)
		if content == "" {
			continue
		}
		switch kind {
		case TypeSpeak, TypePollSingle, TypePollMulti:
			collected = append(collected, ContextItem{Type: kind, Content: content})
		}
	}
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return QuestionContext{Question: q, Section: section, Items: collected}, true
}

// Len is the number of evaluatable questions
func (g *Guide) Len() int { return len(g.order) }

// Questions returns the evaluatable questions in guide order
func (g *Guide) Questions() []Question {
	out := make([]Question, 0, len(g.order))
	for _, tag := range g.order {
		out = append(out, g.questions[tag])
	}
	return out
}

// Context returns the background for a question tag
func (g *Guide) Context(tag string) (QuestionContext, bool) {
	c, ok := g.contexts[tag]
	return c, ok
}

// Response is one participant answer to an evaluatable question
type Response struct {
	QuestionTag  string
	Question     string
	QuestionType string
	Text         string
}

// Responses picks a participant's answers to evaluatable questions. Entries
// match by question ID first, then by exact question text, then by word
// overlap above 70% for question texts longer than 20 characters. Empty
// answers are dropped.
func (g *Guide) Responses(entries []survey.VerbatimEntry) []Response {
	var out []Response
	for _, e := range entries {
		text := strings.TrimSpace(e.ThoughtText)

		if q, ok := g.questions[string(e.Question)]; ok {
			if text != "" {
				out = append(out, responseFor(q, text))
			}
			continue
		}

		tag, ok := g.matchText(e.QuestionText)
		if !ok || text == "" {
			continue
		}
		out = append(out, responseFor(g.questions[tag], text))
	}
	return out
}

func (g *Guide) matchText(questionText string) (string, bool) {
	clean := strings.ToLower(strings.TrimSpace(questionText))
	if clean == "" {
		return "", false
	}
	if tag, ok := g.byText[clean]; ok {
		return tag, true
	}

	asked := make(map[string]bool)
	for _, w := range strings.Fields(clean) {
		asked[w] = true
	}
	for _, tag := range g.order {
		known := strings.ToLower(strings.TrimSpace(g.questions[tag].Content))
		if utf8.RuneCountInString(known) <= partialMatchMinLen {
			continue
		}
		words := make(map[string]bool)
		for _, w := range strings.Fields(known) {
			words[w] = true
		}
		if len(words) == 0 {
			continue
		}
		shared := 0
		for w := range words {
			if asked[w] {
				shared++
			}
		}
		if float64(shared)/float64(len(words)) > partialMatchOverlap {
			return tag, true
		}
	}
	return "", false
}

func responseFor(q Question, text string) Response {
	return Response{QuestionTag: q.Tag, Question: q.Content, QuestionType: q.Type, Text: text}
}
