package v1alpha1

import (
	"fmt"
	"strings"
)

// Severity is a vulnerability severity level. Severities are ordered:
// UNKNOWN < LOW < MEDIUM < HIGH < CRITICAL.
type Severity string

const (
	SeverityUnknown  Severity = "UNKNOWN"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityRanks = map[Severity]int{
	SeverityUnknown:  0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// ParseSeverity converts a string into a Severity, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(s))
	if _, ok := severityRanks[sev]; !ok {
		return SeverityUnknown, fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// Rank returns the severity's position in the severity ordering.
// Unrecognized severities rank as UNKNOWN.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// Above returns true if s is strictly more severe than other.
func (s Severity) Above(other Severity) bool {
	return s.Rank() > other.Rank()
}
