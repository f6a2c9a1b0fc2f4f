package models

// Severity grades a validation finding.
type Severity string

// Severity levels, ordered from least to most serious. Only error and
// critical findings invalidate a run.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Issue is a single validation finding. Issues are never mutated after
// creation; downstream acceptance logic consumes them as-is.
type Issue struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// IsFatal reports whether the issue alone invalidates a run.
func (i Issue) IsFatal() bool {
	return i.Severity == SeverityError || i.Severity == SeverityCritical
}
