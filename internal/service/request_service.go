package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civic-stack/request-service/internal/cache"
	"github.com/civic-stack/request-service/internal/domain"
	"github.com/civic-stack/request-service/internal/events"
	"github.com/civic-stack/request-service/internal/lifecycle"
	"github.com/civic-stack/request-service/internal/repository"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

// RequestService covers the portal surface around the lifecycle: creating
// requests, submitting drafts, and the citizen/staff read paths.
type RequestService struct {
	requests   repository.RequestRepository
	eventLog   repository.EventLogRepository
	dispatcher events.Dispatcher
	cache      *cache.RequestCache
}

// RequestDependencies bundles repositories for the request service.
type RequestDependencies struct {
	RequestRepo  repository.RequestRepository
	EventLogRepo repository.EventLogRepository
	Dispatcher   events.Dispatcher
	Cache        *cache.RequestCache
}

// RequestCreateInput describes request creation payload.
type RequestCreateInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	Draft       bool
}

// RequestCitizenFilter describes citizen listing filters.
type RequestCitizenFilter struct {
	Statuses []domain.Status
	Limit    int
	Offset   int
}

// RequestStaffFilter describes staff listing filters.
type RequestStaffFilter struct {
	DepartmentID *string
	AssignedTo   *string
	Statuses     []domain.Status
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:   deps.RequestRepo,
		eventLog:   deps.EventLogRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
	}
}

// CreateRequest files a new service request for a citizen. Drafts stay
// private to the citizen until submitted; everything else enters the queue
// as SUBMITTED. Version starts at 1 and the creation is audited inside the
// same transaction as the insert.
func (s *RequestService) CreateRequest(ctx context.Context, citizenID string, input RequestCreateInput) (*domain.ServiceRequest, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}

	status := domain.StatusSubmitted
	if input.Draft {
		status = domain.StatusDraft
	}

	request := &domain.ServiceRequest{
		Code:        generateRequestCode(),
		RequesterID: citizenID,
		Title:       title,
		Description: description,
		Category:    strings.TrimSpace(input.Category),
		Location:    strings.TrimSpace(input.Location),
		Status:      status,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: request.ID,
		Actor:     events.CitizenActor(citizenID),
		Payload: events.RequestCreatedPayload{
			Code:         request.Code,
			Status:       request.Status,
			Category:     request.Category,
			DepartmentID: request.DepartmentID,
		},
	})
	return request, nil
}

// SubmitDraft moves a citizen's own draft into the triage queue. It is the
// only path out of DRAFT and runs through the same version-conditioned
// write and audit trail as staff transitions.
func (s *RequestService) SubmitDraft(ctx context.Context, citizenID, requestID string, expectedVersion int64) (*domain.ServiceRequest, error) {
	request, err := s.getOwned(ctx, citizenID, requestID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckVersion(request.Version, expectedVersion); err != nil {
		return nil, err
	}
	if request.Status != domain.StatusDraft {
		return nil, apperrors.NewTransitionError("only drafts can be submitted", map[string]any{
			"status": request.Status,
		})
	}

	record := repository.TransitionRecord{
		NewStatus: domain.StatusSubmitted,
		EventType: domain.EventStatusChanged,
		Payload:   domain.StatusChangePayload(domain.StatusDraft, domain.StatusSubmitted, domain.SubjectTypeCitizen, citizenID, ""),
	}
	newVersion, updatedAt, err := s.requests.ApplyTransition(ctx, request.ID, expectedVersion, record)
	if err != nil {
		return nil, mapTransitionError(err, request.ID)
	}
	applyRecord(request, record, newVersion, updatedAt)

	s.publish(ctx, events.Event{
		Type:      events.EventRequestSubmitted,
		RequestID: request.ID,
		Actor:     events.CitizenActor(citizenID),
		Payload: events.RequestStatusChangedPayload{
			OldStatus:  domain.StatusDraft,
			NewStatus:  request.Status,
			NewVersion: newVersion,
		},
	})
	return request, nil
}

// ListForCitizen returns the citizen's own requests.
func (s *RequestService) ListForCitizen(ctx context.Context, citizenID string, filter RequestCitizenFilter) ([]domain.ServiceRequest, error) {
	repoFilter := repository.RequestFilter{
		RequesterID: &citizenID,
		Statuses:    filter.Statuses,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	requests, err := s.requests.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// GetForCitizen fetches a request with its history, ensuring ownership.
func (s *RequestService) GetForCitizen(ctx context.Context, citizenID, requestID string) (*domain.ServiceRequest, []domain.EventLogEntry, error) {
	request, err := s.getOwned(ctx, citizenID, requestID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.eventLog.ListByRequest(ctx, request.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return request, history, nil
}

// ListForStaff returns requests matching staff filters. Drafts are never
// visible to staff.
func (s *RequestService) ListForStaff(ctx context.Context, filter RequestStaffFilter) ([]domain.ServiceRequest, error) {
	statuses := filter.Statuses
	if len(statuses) == 0 {
		for _, status := range domain.AllStatuses {
			if status != domain.StatusDraft {
				statuses = append(statuses, status)
			}
		}
	}
	repoFilter := repository.RequestFilter{
		DepartmentID: filter.DepartmentID,
		AssignedTo:   filter.AssignedTo,
		Statuses:     statuses,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	requests, err := s.requests.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// GetForStaffByCode resolves a request by the public reference code
// printed on citizen-facing receipts. Drafts stay invisible here too.
func (s *RequestService) GetForStaffByCode(ctx context.Context, code string) (*domain.ServiceRequest, []domain.EventLogEntry, error) {
	request, err := s.requests.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("request", map[string]any{"code": code})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if request.Status == domain.StatusDraft {
		return nil, nil, apperrors.NewNotFound("request", map[string]any{"code": code})
	}
	history, err := s.eventLog.ListByRequest(ctx, request.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return request, history, nil
}

// GetForStaff fetches a request with its full history.
func (s *RequestService) GetForStaff(ctx context.Context, requestID string) (*domain.ServiceRequest, []domain.EventLogEntry, error) {
	request, err := s.getCached(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if request.Status == domain.StatusDraft {
		return nil, nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
	}
	history, err := s.eventLog.ListByRequest(ctx, request.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return request, history, nil
}

func (s *RequestService) getOwned(ctx context.Context, citizenID, requestID string) (*domain.ServiceRequest, error) {
	request, err := s.getCached(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != citizenID {
		return nil, apperrors.NewForbidden("request belongs to another citizen")
	}
	return request, nil
}

// getCached serves the aggregate through the read-through cache. The
// snapshot carries the version token, which is why eviction rides on the
// same events that bump the version.
func (s *RequestService) getCached(ctx context.Context, requestID string) (*domain.ServiceRequest, error) {
	if cached := s.cache.Get(ctx, requestID); cached != nil {
		return cached, nil
	}
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	s.cache.Set(ctx, request)
	return request, nil
}

func (s *RequestService) publish(ctx context.Context, event events.Event) {
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

func generateRequestCode() string {
	return "REQ-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
