package events

import (
	"time"

	"github.com/civic-stack/request-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestSubmitted     EventType = "request_submitted"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventRequestAssigned      EventType = "request_assigned"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type      domain.SubjectType `json:"type"`
	CitizenID *string            `json:"citizen_id,omitempty"`
	StaffID   *string            `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services. Subscribers are
// in-process read-side consumers (cache invalidation); the durable audit
// trail lives in the request event log, not here.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Code         string        `json:"code"`
	Status       domain.Status `json:"status"`
	Category     string        `json:"category"`
	DepartmentID *string       `json:"department_id,omitempty"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus  domain.Status `json:"old_status"`
	NewStatus  domain.Status `json:"new_status"`
	NewVersion int64         `json:"new_version"`
	Reason     string        `json:"reason,omitempty"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	AssignedTo   *string `json:"assigned_to,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
	NewVersion   int64   `json:"new_version"`
}

// CitizenActor builds an actor for a citizen subject.
func CitizenActor(citizenID string) Actor {
	return Actor{Type: domain.SubjectTypeCitizen, CitizenID: &citizenID}
}

// StaffActor builds an actor for a staff subject.
func StaffActor(staffID string) Actor {
	return Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID}
}
