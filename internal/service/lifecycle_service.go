package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civic-stack/request-service/internal/domain"
	"github.com/civic-stack/request-service/internal/events"
	"github.com/civic-stack/request-service/internal/lifecycle"
	"github.com/civic-stack/request-service/internal/repository"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

// Actor identifies the caller of a lifecycle operation for authorization
// and audit purposes.
type Actor struct {
	Subject domain.SubjectType
	ID      string
	Role    domain.Role
}

// ChangeStatusInput describes one requested transition.
type ChangeStatusInput struct {
	RequestID       string
	Action          lifecycle.Action
	Reason          string
	AssigneeID      *string
	ExpectedVersion int64
}

// LifecycleService owns status transitions for service requests. All
// mutation flows end in the repository's version-conditioned write; the
// service itself holds no locks and keeps no state between calls, so
// concurrent callers race only on the conditional UPDATE.
type LifecycleService struct {
	requests    repository.RequestRepository
	staff       repository.StaffRepository
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
}

// LifecycleDependencies bundles repositories for the lifecycle service.
type LifecycleDependencies struct {
	RequestRepo    repository.RequestRepository
	StaffRepo      repository.StaffRepository
	DepartmentRepo repository.DepartmentRepository
	Dispatcher     events.Dispatcher
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		requests:    deps.RequestRepo,
		staff:       deps.StaffRepo,
		departments: deps.DepartmentRepo,
		dispatcher:  deps.Dispatcher,
	}
}

var reassignRoles = []domain.Role{domain.RoleClerk, domain.RoleSupervisor, domain.RoleAdmin}

// ChangeStatus applies one lifecycle action. Order matters: the caller's
// role is checked before anything version-shaped so an unauthorized caller
// cannot probe whether their token is stale, and the version precondition
// is checked before the transition lookup so a stale caller gets a
// conflict, not an error about a status they have never seen. Everything
// before the repository call is pure; the repository re-verifies the
// version inside its transaction.
func (s *LifecycleService) ChangeStatus(ctx context.Context, actor Actor, input ChangeStatusInput) (*domain.ServiceRequest, error) {
	request, err := s.loadRequest(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.Authorize(actor.Role, input.Action); err != nil {
		return nil, err
	}

	if err := lifecycle.CheckVersion(request.Version, input.ExpectedVersion); err != nil {
		return nil, err
	}

	rule, ok := lifecycle.Allowed(request.Status, input.Action)
	if !ok {
		return nil, apperrors.NewTransitionError("action not allowed for current status", map[string]any{
			"status": request.Status,
			"action": input.Action,
		})
	}

	reason := strings.TrimSpace(input.Reason)
	if rule.RequiresReason && len(reason) < lifecycle.MinReasonLength {
		return nil, apperrors.NewValidationError("reason is required", map[string]any{
			"min_length": lifecycle.MinReasonLength,
		})
	}

	var assignee *domain.StaffMember
	if rule.RequiresAssignee {
		assignee, err = s.resolveAssignee(ctx, input.AssigneeID)
		if err != nil {
			return nil, err
		}
	}

	record := repository.TransitionRecord{
		NewStatus: rule.To,
		EventType: domain.EventStatusChanged,
		Payload:   domain.StatusChangePayload(request.Status, rule.To, actor.Subject, actor.ID, reason),
	}
	if assignee != nil {
		record.AssignedTo = &assignee.ID
		record.DepartmentID = assignee.DepartmentID
	}

	oldStatus := request.Status
	newVersion, updatedAt, err := s.requests.ApplyTransition(ctx, request.ID, input.ExpectedVersion, record)
	if err != nil {
		return nil, mapTransitionError(err, request.ID)
	}

	applyRecord(request, record, newVersion, updatedAt)

	s.publish(ctx, events.Event{
		Type:      events.EventRequestStatusChanged,
		RequestID: request.ID,
		Actor:     actorRef(actor),
		Payload: events.RequestStatusChangedPayload{
			OldStatus:  oldStatus,
			NewStatus:  request.Status,
			NewVersion: newVersion,
			Reason:     reason,
		},
	})
	return request, nil
}

// Reassign moves a request to another staff member without changing its
// status. The write still goes through the version-conditioned path and
// produces a REQUEST_ASSIGNED audit entry, keeping the event log a
// complete history of every observable mutation.
func (s *LifecycleService) Reassign(ctx context.Context, actor Actor, requestID, assigneeID string, expectedVersion int64) (*domain.ServiceRequest, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if !roleIn(actor.Role, reassignRoles) {
		return nil, apperrors.NewForbidden("insufficient role for reassignment")
	}

	if err := lifecycle.CheckVersion(request.Version, expectedVersion); err != nil {
		return nil, err
	}

	switch request.Status {
	case domain.StatusTriaged, domain.StatusInProgress, domain.StatusWaitingOnCitizen:
	default:
		return nil, apperrors.NewTransitionError("request is not assignable in current status", map[string]any{
			"status": request.Status,
		})
	}

	assignee, err := s.resolveAssignee(ctx, &assigneeID)
	if err != nil {
		return nil, err
	}

	record := repository.TransitionRecord{
		NewStatus:    request.Status,
		AssignedTo:   &assignee.ID,
		DepartmentID: assignee.DepartmentID,
		EventType:    domain.EventRequestAssigned,
		Payload:      domain.AssignmentPayload(request.AssignedTo, &assignee.ID, actor.ID),
	}

	newVersion, updatedAt, err := s.requests.ApplyTransition(ctx, request.ID, expectedVersion, record)
	if err != nil {
		return nil, mapTransitionError(err, request.ID)
	}

	applyRecord(request, record, newVersion, updatedAt)

	s.publish(ctx, events.Event{
		Type:      events.EventRequestAssigned,
		RequestID: request.ID,
		Actor:     actorRef(actor),
		Payload: events.RequestAssignedPayload{
			AssignedTo:   request.AssignedTo,
			DepartmentID: request.DepartmentID,
			NewVersion:   newVersion,
		},
	})
	return request, nil
}

func (s *LifecycleService) loadRequest(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

// resolveAssignee enforces the assignee existence check before the atomic
// write is attempted.
func (s *LifecycleService) resolveAssignee(ctx context.Context, assigneeID *string) (*domain.StaffMember, error) {
	if assigneeID == nil || strings.TrimSpace(*assigneeID) == "" {
		return nil, apperrors.NewValidationError("assignee is required", nil)
	}
	staff, err := s.staff.GetByID(ctx, *assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("assignee does not exist", map[string]any{"assignee_id": *assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !staff.Active {
		return nil, apperrors.NewValidationError("assignee is inactive", map[string]any{"assignee_id": staff.ID})
	}
	if staff.DepartmentID != nil {
		dept, err := s.departments.GetByID(ctx, *staff.DepartmentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("assignee department does not exist", map[string]any{"department_id": *staff.DepartmentID})
			}
			return nil, apperrors.MapError(err)
		}
		if !dept.IsActive {
			return nil, apperrors.NewValidationError("assignee department is inactive", map[string]any{"department_id": dept.ID})
		}
	}
	return staff, nil
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func mapTransitionError(err error, requestID string) error {
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict("request was modified concurrently", map[string]any{"request_id": requestID})
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
	default:
		return apperrors.MapError(err)
	}
}

func applyRecord(request *domain.ServiceRequest, record repository.TransitionRecord, newVersion int64, updatedAt time.Time) {
	request.Status = record.NewStatus
	request.Version = newVersion
	request.UpdatedAt = updatedAt
	if record.AssignedTo != nil {
		request.AssignedTo = record.AssignedTo
	}
	if record.DepartmentID != nil {
		request.DepartmentID = record.DepartmentID
	}
	if record.NewStatus.Terminal() {
		if request.ClosedAt == nil {
			closedAt := updatedAt
			request.ClosedAt = &closedAt
		}
	} else {
		request.ClosedAt = nil
	}
}

func actorRef(actor Actor) events.Actor {
	if actor.Subject == domain.SubjectTypeStaff {
		return events.StaffActor(actor.ID)
	}
	return events.CitizenActor(actor.ID)
}

func roleIn(role domain.Role, roles []domain.Role) bool {
	for _, candidate := range roles {
		if role == candidate {
			return true
		}
	}
	return false
}
