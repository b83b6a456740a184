package models

import "time"

// Bug statuses.
const (
	BugStatusOpen       = "OPEN"
	BugStatusInProgress = "IN_PROGRESS"
	BugStatusResolved   = "RESOLVED"
	BugStatusClosed     = "CLOSED"
)

// Bug priorities.
const (
	BugPriorityLow      = "LOW"
	BugPriorityMedium   = "MEDIUM"
	BugPriorityHigh     = "HIGH"
	BugPriorityCritical = "CRITICAL"
)

// Bug types.
const (
	BugTypeBug     = "BUG"
	BugTypeFeature = "FEATURE"
	BugTypeTask    = "TASK"
)

// ValidBugStatus reports whether s is a known bug status.
func ValidBugStatus(s string) bool {
	switch s {
	case BugStatusOpen, BugStatusInProgress, BugStatusResolved, BugStatusClosed:
		return true
	}
	return false
}

// ValidBugPriority reports whether p is a known priority.
func ValidBugPriority(p string) bool {
	switch p {
	case BugPriorityLow, BugPriorityMedium, BugPriorityHigh, BugPriorityCritical:
		return true
	}
	return false
}

// ValidBugType reports whether t is a known bug type.
func ValidBugType(t string) bool {
	switch t {
	case BugTypeBug, BugTypeFeature, BugTypeTask:
		return true
	}
	return false
}

// Bug is a tracked issue. Code is assigned at creation and never changes,
// even if the project's code is later edited.
type Bug struct {
	ID          int       `json:"id"`
	Code        string    `json:"code"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Type        string    `json:"type"`
	ProjectID   *int      `json:"project_id,omitempty"`
	ReporterID  int       `json:"reporter_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
