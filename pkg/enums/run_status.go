package enums

import "fmt"

// RunStatus tracks the lifecycle of a food run.
type RunStatus string

const (
	RunStatusActive    RunStatus = "active"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
)

var validRunStatuses = []RunStatus{
	RunStatusActive,
	RunStatusCompleted,
	RunStatusCancelled,
}

// String implements fmt.Stringer.
func (s RunStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RunStatus.
func (s RunStatus) IsValid() bool {
	for _, candidate := range validRunStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCancelled
}

// ParseRunStatus converts raw input into a RunStatus.
func ParseRunStatus(value string) (RunStatus, error) {
	for _, candidate := range validRunStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid run status %q", value)
}
