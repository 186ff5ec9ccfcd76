package loader

import (
	"strconv"
	"strings"

	"gopri/adapters/tabular"

	"github.com/montanaflynn/stats"
)

var excludedSegmentPrefixes = []string{"Question ID", "Question Text", "All", "44+", "55+", "O7:"}

// FallbackSegments is used when the segment counts table cannot be read.
// Names match the export headers verbatim, including their misspellings.
var FallbackSegments = []string{
	// regions
	"Africa", "Asia", "Caribbean", "Central America", "Central Asia", "Eastern Africa", "Eastern Asia",
	"Eastern Europe", "Europe", "Middle Africa", "North America", "Norther Europe", "Northern Africa",
	"Northern America", "Oceania", "South America", "South Eastern Asia", "Souther Asia", "Southern Africa",
	"Southern Europe", "Western Africa", "Western Asia", "Western Europe",
	// age
	"O2: 18-25", "O2: 26-35", "O2: 36-45", "O2: 46-55", "O2: 56-65", "O2: 65+",
	// sex
	"O3: Female", "O3: Male", "O3: Non-binary",
	// environment
	"O4: Rural", "O4: Suburban", "O4: Urban",
	// AI sentiment
	"O5: Equally concerned and excited", "O5: More concerned than excited", "O5: More excited than concerned",
	// religion
	"O6: Buddhism", "O6: Christianity", "O6: Hinduism", "O6: I do not identify with any religious group or faith",
	"O6: Islam", "O6: Judaism", "O6: Other religious group", "O6: Sikhism",
}

// MajorSegments returns the segment columns whose mean participant count
// across questions is at least min. Metadata, overlapping age buckets and
// country columns are never candidates.
func MajorSegments(counts *tabular.Table, min float64) []string {
	var major []string
	for _, col := range counts.Headers {
		if isExcludedSegment(col) {
			continue
		}
		var values []float64
		for _, row := range counts.Rows {
			f, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err == nil {
				values = append(values, f)
			}
		}
		mean, err := stats.Mean(values)
		if err != nil {
			continue
		}
		if mean >= min {
			major = append(major, col)
		}
	}
	return major
}

func isExcludedSegment(col string) bool {
	if col == "" {
		return true
	}
	for _, p := range excludedSegmentPrefixes {
		if strings.HasPrefix(col, p) {
			return true
		}
	}
	return false
}
