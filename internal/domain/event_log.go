package domain

import "time"

// EventType tags an audit log entry.
type EventType string

const (
	EventRequestCreated  EventType = "REQUEST_CREATED"
	EventStatusChanged   EventType = "STATUS_CHANGED"
	EventRequestAssigned EventType = "REQUEST_ASSIGNED"
)

// EventLogEntry is one append-only audit record. Entries are written in
// the same transaction as the aggregate update they describe and are never
// updated or deleted afterwards.
type EventLogEntry struct {
	ID        string
	RequestID string
	Type      EventType
	Payload   map[string]any
	CreatedAt time.Time
}

// StatusChangePayload builds the audit payload for a STATUS_CHANGED entry.
func StatusChangePayload(from, to Status, actorType SubjectType, actorID, reason string) map[string]any {
	payload := map[string]any{
		"from":       string(from),
		"to":         string(to),
		"actor_type": string(actorType),
		"actor_id":   actorID,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	return payload
}

// AssignmentPayload builds the audit payload for a REQUEST_ASSIGNED entry.
func AssignmentPayload(oldAssignee, newAssignee *string, actorID string) map[string]any {
	payload := map[string]any{
		"actor_id": actorID,
	}
	if oldAssignee != nil {
		payload["old_assignee"] = *oldAssignee
	}
	if newAssignee != nil {
		payload["new_assignee"] = *newAssignee
	}
	return payload
}

// CreationPayload builds the audit payload for a REQUEST_CREATED entry.
func CreationPayload(status Status, requesterID string) map[string]any {
	return map[string]any{
		"status":       string(status),
		"requester_id": requesterID,
	}
}
