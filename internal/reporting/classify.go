package reporting

import (
	"fmt"
	"sort"

	"gopri/domain/measure"
	"gopri/domain/pri"
	"gopri/domain/survey"
	"gopri/internal/errors"
)

// Method selects how unreliable participants are identified
type Method string

const (
	MethodOutliers   Method = "outliers"
	MethodPercentile Method = "percentile"
	MethodThreshold  Method = "threshold"

	defaultPercentile = 10
	defaultThreshold  = 2.5
	iqrFactor         = 1.5
)

// Policy is a method plus its optional parameter. A missing Threshold uses
// the method's default.
type Policy struct {
	Method    Method
	Threshold measure.Value
}

// ParseMethod validates a method name
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodOutliers, MethodPercentile, MethodThreshold:
		return m, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown method: %s. Use 'outliers', 'percentile', or 'threshold'", s))
}

// ThresholdLabel is the Threshold_Used export value
func (p Policy) ThresholdLabel() string {
	if !p.Threshold.Valid {
		return "N/A"
	}
	return p.Threshold.String()
}

// Classification is the result of applying a policy
type Classification struct {
	Policy  Policy
	Cutoff  float64
	Q1, Q3  float64
	Flagged []survey.ParticipantID
}

// Classify flags participants on the 1-5 scale. Outliers are below
// Q1 - 1.5*IQR; percentile flags scores at or below the given percentile
// (default 10); threshold flags scores at or below the cutoff (default 2.5).
// Participants without a score are never flagged. rows is not modified.
func Classify(rows []pri.ParticipantScores, p Policy) (*Classification, error) {
	if _, err := ParseMethod(string(p.Method)); err != nil {
		return nil, err
	}
	c := &Classification{Policy: p}

	var scores []float64
	for _, r := range rows {
		if r.Scale.Valid {
			scores = append(scores, r.Scale.Float)
		}
	}
	if len(scores) == 0 {
		return c, nil
	}
	sort.Float64s(scores)

	inclusive := true
	switch p.Method {
	case MethodOutliers:
		c.Q1, c.Q3 = Quantile(scores, 0.25), Quantile(scores, 0.75)
		c.Cutoff = c.Q1 - iqrFactor*(c.Q3-c.Q1)
		inclusive = false
	case MethodPercentile:
		pct := p.Threshold.Or(defaultPercentile)
		if pct < 0 || pct > 100 {
			return nil, errors.InvalidInput(fmt.Sprintf("percentile must be in [0,100], got %v", pct))
		}
		c.Cutoff = Quantile(scores, pct/100)
	case MethodThreshold:
		c.Cutoff = p.Threshold.Or(defaultThreshold)
	}

	for _, r := range rows {
		if !r.Scale.Valid {
			continue
		}
		if r.Scale.Float < c.Cutoff || (inclusive && r.Scale.Float == c.Cutoff) {
			c.Flagged = append(c.Flagged, r.Participant)
		}
	}
	return c, nil
}
