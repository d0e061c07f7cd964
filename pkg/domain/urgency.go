package domain

import dErrors "lifeline/pkg/domain-errors"

// Urgency ranks how quickly a blood request must be fulfilled.
type Urgency string

// Supported urgency levels, ordered low < medium < high < critical.
const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// urgencyOrder defines the ordering of urgency levels for comparison.
var urgencyOrder = map[Urgency]int{
	UrgencyLow:      1,
	UrgencyMedium:   2,
	UrgencyHigh:     3,
	UrgencyCritical: 4,
}

// ParseUrgency constructs an Urgency from external input.
//
// Errors: returns CodeBadRequest when the value is empty or unsupported.
func ParseUrgency(s string) (Urgency, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "urgency cannot be empty")
	}
	u := Urgency(s)
	if !u.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid urgency")
	}
	return u, nil
}

// IsValid checks if the urgency is one of the supported enum values.
func (u Urgency) IsValid() bool {
	_, ok := urgencyOrder[u]
	return ok
}

// AtLeast reports whether this urgency is >= other.
func (u Urgency) AtLeast(other Urgency) bool {
	return urgencyOrder[u] >= urgencyOrder[other]
}

// String returns the string representation of the urgency.
func (u Urgency) String() string {
	return string(u)
}
