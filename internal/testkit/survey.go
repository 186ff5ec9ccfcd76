// Package testkit provides small on-disk survey fixtures shared by package
// tests.
package testkit

import (
	"fmt"
	"os"
	"path/filepath"
)

// Fixture files for a three-participant survey. Expected signals:
//
//	p1: duration 2700s, low quality 0.5, disagreement 0,   ASC missing
//	p2: duration 300s,  low quality 0,   disagreement 0.5, ASC 0
//	p3: duration 0,     low quality 0,   disagreement 1,   ASC missing
//
// Major segments are Africa and Europe.
var fixtureFiles = map[string]string{
	"binary": `Participant ID,Thought ID,Vote,Timestamp
p1,t3,Agree,"May 5, 2025 at 9:00 AM (GMT)"
p1,t4,Disagree,"May 5, 2025 at 9:30 AM (GMT)"
p2,t1,agree,"May 5, 2025 at 10:00 AM (GMT)"
p2,t4,agree,"May 5, 2025 at 10:05 AM (GMT)"
p3,t1,pass,not a date
`,
	"preference": `Participant ID,Timestamp
p1,"May 5, 2025 at 9:45 AM (GMT)"
p3,"May 5, 2025 at 11:00 AM (GMT)"
`,
	"verbatim_map": `Participant ID,Thought ID,Question ID,Question Text,Thought Text
p1,t1,q1,What do you think about AI in healthcare?,It could help doctors diagnose faster.
p2,t2,q1,What do you think about AI in healthcare?,idk
p3,t3,q2,Describe a time AI helped you.,It translated a menu for me while traveling.
p2,t4,q2,Describe a time AI helped you.,nothing
`,
	"aggregate_standardized": `Question ID,Participant ID,Thought ID,All,Africa,Europe,O7: France
q1,p1,t1,80%,75%,85%,10%
q1,p2,t2,20%,15,25,-
q2,p3,t3,25%,-,35%,5%
q2,p2,t4,50%,45%,55%,50%
`,
	"segment_counts_by_question": `Question ID,Question Text,All,Africa,Europe,O7: France,44+
q1,What do you think about AI in healthcare?,100,30,40,50,60
q2,Describe a time AI helped you.,100,25,10,50,60
`,
	"discussion_guide": `Section,Item type (dropdown),Content,Cross Conversation Tag - Polls and Opinions only (Optional)
Intro,speak,Welcome to the dialogue.,
Health,speak,AI is increasingly used in hospitals.,
Health,poll single select,Have you used an AI health tool?,P1
Health,ask opinion,What do you think about AI in healthcare?,q1
Experience,ask experience,Describe a time AI helped you.,q2
`,
}

const fixtureTags = "\ufeffParticipant ID,Question ID,Tag 1,Tag 2\n" +
	"p1,q1,Uninformative answer,\n" +
	"p1,q2,Insightful,\n" +
	"p2,q1,,\n"

// Option customizes a written fixture
type Option func(files map[string]string)

// Without drops a fixture file, e.g. Without("binary").
func Without(name string) Option {
	return func(files map[string]string) { delete(files, name) }
}

// Replace swaps the content of a fixture file.
func Replace(name, content string) Option {
	return func(files map[string]string) { files[name] = content }
}

// WriteSurvey writes the fixture under root/GD{n} using the export naming
// convention and returns the survey directory.
func WriteSurvey(root string, n int, opts ...Option) (string, error) {
	files := make(map[string]string, len(fixtureFiles)+1)
	for k, v := range fixtureFiles {
		files[k] = v
	}
	files["tags"] = fixtureTags
	for _, opt := range opts {
		opt(files)
	}

	dir := filepath.Join(root, fmt.Sprintf("GD%d", n))
	if err := os.MkdirAll(filepath.Join(dir, "tags"), 0o755); err != nil {
		return "", err
	}
	for name, content := range files {
		path := filepath.Join(dir, fmt.Sprintf("GD%d_%s.csv", n, name))
		if name == "tags" {
			path = filepath.Join(dir, "tags", "all_thought_labels.csv")
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", err
		}
	}
	return dir, nil
}
