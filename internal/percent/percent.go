// Package percent parses agreement percentages exported in mixed formats.
//
// There are two call sites with different contracts. ParseCell and
// ParseNumber are applied once at load time and accept "73%", "73" and
// "0.73" alike. RequireRatio is applied to values that must already be ratios
// and rejects anything outside [0,1] instead of rescaling it.
package percent

import (
	"fmt"
	"strconv"
	"strings"

	"gopri/domain/measure"
)

// ErrOutOfRange is returned by RequireRatio for values outside [0,1]
var ErrOutOfRange = fmt.Errorf("value is not a ratio in [0,1]")

// ParseCell converts a raw table cell. Empty cells and "-" are missing, as is
// anything that is not a number.
func ParseCell(raw string) measure.Value {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return measure.Missing()
	}
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return measure.Missing()
		}
		return measure.Of(f / 100)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return measure.Missing()
	}
	return ParseNumber(f)
}

// ParseNumber applies the load-time rule to a numeric cell: values above 1
// are percentages and get divided by 100.
func ParseNumber(f float64) measure.Value {
	if f > 1 {
		return measure.Of(f / 100)
	}
	return measure.Of(f)
}

// RequireRatio validates a value that must be a ratio.
func RequireRatio(f float64) (float64, error) {
	if f < 0 || f > 1 || f != f {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, f)
	}
	return f, nil
}
