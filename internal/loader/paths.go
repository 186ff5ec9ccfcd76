package loader

import (
	"fmt"
	"path/filepath"
)

// Paths names every input file for one survey
type Paths struct {
	Binary        string
	Preference    string
	Tags          string
	Verbatim      string
	Aggregate     string
	SegmentCounts string
	Guide         string
}

// SurveyPaths builds the conventional layout under dataRoot/GD{n}.
func SurveyPaths(dataRoot string, survey int) Paths {
	dir := filepath.Join(dataRoot, fmt.Sprintf("GD%d", survey))
	name := func(suffix string) string {
		return filepath.Join(dir, fmt.Sprintf("GD%d_%s.csv", survey, suffix))
	}
	return Paths{
		Binary:        name("binary"),
		Preference:    name("preference"),
		Tags:          filepath.Join(dir, "tags", "all_thought_labels.csv"),
		Verbatim:      name("verbatim_map"),
		Aggregate:     name("aggregate_standardized"),
		SegmentCounts: name("segment_counts_by_question"),
		Guide:         name("discussion_guide"),
	}
}
