package financial

import (
	"strings"
)

// Severity weights. Higher sorts first.
const (
	WeightCritical = 10
	WeightHigh     = 7
	WeightMedium   = 4
	WeightLow      = 2
	WeightInfo     = 1
	WeightUnknown  = 0
)

// Canonical severity labels.
const (
	LabelCritical = "CRITICAL"
	LabelHigh     = "HIGH"
	LabelMedium   = "MEDIUM"
	LabelLow      = "LOW"
	LabelInfo     = "INFO"
	LabelUnknown  = "UNKNOWN"
)

// severityBuckets is checked in order; the first bucket with a term contained
// in the upper-cased severity text wins.
var severityBuckets = []struct {
	terms  []string
	label  string
	weight int
}{
	{[]string{"CRITICAL"}, LabelCritical, WeightCritical},
	{[]string{"HIGH"}, LabelHigh, WeightHigh},
	{[]string{"MEDIUM", "MODERATE"}, LabelMedium, WeightMedium},
	{[]string{"LOW", "WARNING"}, LabelLow, WeightLow},
	{[]string{"INFO"}, LabelInfo, WeightInfo},
}

func classify(severity string) (string, int) {
	upper := strings.ToUpper(severity)
	for _, b := range severityBuckets {
		for _, term := range b.terms {
			if strings.Contains(upper, term) {
				return b.label, b.weight
			}
		}
	}
	return LabelUnknown, WeightUnknown
}

// SeverityWeight maps free-text severity to a numeric priority. Matching is a
// case-insensitive substring test, so "HIGH_RISK" and "Critical-ish" resolve
// to their buckets. Unrecognized text weighs 0.
func SeverityWeight(severity string) int {
	_, w := classify(severity)
	return w
}

// SeverityLabel returns the canonical bucket name for free-text severity.
func SeverityLabel(severity string) string {
	l, _ := classify(severity)
	return l
}

// Criticality multipliers applied to the base RTO.
var criticalityMultiplier = map[string]float64{
	"critical": 0.5,
	"high":     0.75,
	"medium":   1.0,
	"low":      1.5,
}

// EstimateRTOHours estimates recovery time when the asset inventory does not
// supply one. More severe findings get shorter windows; more critical assets
// are restored faster.
func EstimateRTOHours(severity, criticality string) float64 {
	var base float64
	switch w := SeverityWeight(severity); {
	case w >= WeightCritical:
		base = 24
	case w >= WeightHigh:
		base = 72
	case w >= WeightMedium:
		base = 168
	default:
		base = 720
	}

	mult, ok := criticalityMultiplier[strings.ToLower(criticality)]
	if !ok {
		mult = 1.0
	}
	return base * mult
}
