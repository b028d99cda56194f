package dto

import (
	"time"

	"github.com/civic-stack/request-service/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Draft       bool   `json:"draft"`
}

// ChangeStatusRequest payload for the status endpoint. The expected
// version travels in the If-Match header, not the body.
type ChangeStatusRequest struct {
	Action     string  `json:"action"`
	Reason     string  `json:"reason,omitempty"`
	AssignedTo *string `json:"assignedTo,omitempty"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssignedTo string `json:"assignedTo"`
}

// StatusChangeResponse is the success body of the status endpoint.
type StatusChangeResponse struct {
	ID        string        `json:"id"`
	Status    domain.Status `json:"status"`
	Version   int64         `json:"version"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// RequestSummary response.
type RequestSummary struct {
	ID        string        `json:"id"`
	Code      string        `json:"code"`
	Title     string        `json:"title"`
	Category  string        `json:"category"`
	Status    domain.Status `json:"status"`
	Version   int64         `json:"version"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// RequestDetailResponse provides full request info with history.
type RequestDetailResponse struct {
	ID           string             `json:"id"`
	Code         string             `json:"code"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Category     string             `json:"category"`
	Location     string             `json:"location"`
	Status       domain.Status      `json:"status"`
	Version      int64              `json:"version"`
	DepartmentID *string            `json:"departmentId"`
	AssignedTo   *string            `json:"assignedTo"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	ClosedAt     *time.Time         `json:"closedAt"`
	Events       []EventLogResponse `json:"events"`
}

// EventLogResponse represents one audit entry.
type EventLogResponse struct {
	ID        string           `json:"id"`
	Type      domain.EventType `json:"type"`
	Payload   map[string]any   `json:"payload"`
	CreatedAt time.Time        `json:"createdAt"`
}
