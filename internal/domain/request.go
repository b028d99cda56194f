package domain

import "time"

// Status is the lifecycle state of a service request.
type Status string

const (
	StatusDraft            Status = "DRAFT"
	StatusSubmitted        Status = "SUBMITTED"
	StatusTriaged          Status = "TRIAGED"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusWaitingOnCitizen Status = "WAITING_ON_CITIZEN"
	StatusResolved         Status = "RESOLVED"
	StatusClosed           Status = "CLOSED"
	StatusRejected         Status = "REJECTED"
)

// AllStatuses lists every lifecycle state.
var AllStatuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusTriaged,
	StatusInProgress,
	StatusWaitingOnCitizen,
	StatusResolved,
	StatusClosed,
	StatusRejected,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the active lifecycle. Terminal requests
// carry a closed_at timestamp and accept no action other than reopen.
func (s Status) Terminal() bool {
	switch s {
	case StatusResolved, StatusClosed, StatusRejected:
		return true
	default:
		return false
	}
}

// ServiceRequest is the aggregate a citizen files with the municipality.
// Version starts at 1 and increments on every successful write; it is the
// optimistic-concurrency token callers must echo back on mutations.
type ServiceRequest struct {
	ID           string
	Code         string
	RequesterID  string
	DepartmentID *string
	AssignedTo   *string
	Title        string
	Description  string
	Category     string
	Location     string
	Status       Status
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}
