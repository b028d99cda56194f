package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civic-stack/request-service/internal/domain"
	"github.com/civic-stack/request-service/internal/repository"
)

// fakeRequestRepo is an in-memory RequestRepository whose ApplyTransition
// performs the same compare-and-swap the SQL implementation does, under a
// mutex, so concurrent callers observe exactly one winner.
type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.ServiceRequest
	events   []domain.EventLogEntry
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]*domain.ServiceRequest{}}
}

func (f *fakeRequestRepo) seed(request *domain.ServiceRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *request
	f.requests[request.ID] = &clone
}

func (f *fakeRequestRepo) Create(ctx context.Context, request *domain.ServiceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	request.ID = uuid.NewString()
	request.Version = 1
	request.CreatedAt = now
	request.UpdatedAt = now
	clone := *request
	f.requests[request.ID] = &clone
	f.events = append(f.events, domain.EventLogEntry{
		ID:        uuid.NewString(),
		RequestID: request.ID,
		Type:      domain.EventRequestCreated,
		Payload:   domain.CreationPayload(request.Status, request.RequesterID),
		CreatedAt: now,
	})
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeRequestRepo) GetByCode(ctx context.Context, code string) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.requests {
		if stored.Code == code {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRequestRepo) ListWithFilter(ctx context.Context, filter repository.RequestFilter) ([]domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ServiceRequest
	for _, stored := range f.requests {
		if filter.RequesterID != nil && stored.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.AssignedTo != nil && (stored.AssignedTo == nil || *stored.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(stored.Status, filter.Statuses) {
			continue
		}
		out = append(out, *stored)
	}
	return out, nil
}

func (f *fakeRequestRepo) ApplyTransition(ctx context.Context, requestID string, expectedVersion int64, record repository.TransitionRecord) (int64, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.requests[requestID]
	if !ok {
		return 0, time.Time{}, pgx.ErrNoRows
	}
	if stored.Version != expectedVersion {
		return 0, time.Time{}, repository.ErrVersionConflict
	}

	now := time.Now()
	stored.Status = record.NewStatus
	stored.Version++
	stored.UpdatedAt = now
	if record.AssignedTo != nil {
		stored.AssignedTo = record.AssignedTo
	}
	if record.DepartmentID != nil {
		stored.DepartmentID = record.DepartmentID
	}
	if record.NewStatus.Terminal() {
		if stored.ClosedAt == nil {
			closedAt := now
			stored.ClosedAt = &closedAt
		}
	} else {
		stored.ClosedAt = nil
	}

	f.events = append(f.events, domain.EventLogEntry{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Type:      record.EventType,
		Payload:   record.Payload,
		CreatedAt: now,
	})
	return stored.Version, now, nil
}

func (f *fakeRequestRepo) eventsFor(requestID string) []domain.EventLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.EventLogEntry
	for _, entry := range f.events {
		if entry.RequestID == requestID {
			out = append(out, entry)
		}
	}
	return out
}

func statusIn(status domain.Status, statuses []domain.Status) bool {
	for _, candidate := range statuses {
		if status == candidate {
			return true
		}
	}
	return false
}

type fakeStaffRepo struct {
	members map[string]*domain.StaffMember
}

func newFakeStaffRepo(members ...*domain.StaffMember) *fakeStaffRepo {
	repo := &fakeStaffRepo{members: map[string]*domain.StaffMember{}}
	for _, member := range members {
		repo.members[member.ID] = member
	}
	return repo
}

func (f *fakeStaffRepo) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	member, ok := f.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *member
	return &clone, nil
}

func (f *fakeStaffRepo) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	for _, member := range f.members {
		if member.Email == email {
			clone := *member
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeDepartmentRepo struct {
	departments map[string]*domain.Department
}

func newFakeDepartmentRepo(departments ...*domain.Department) *fakeDepartmentRepo {
	repo := &fakeDepartmentRepo{departments: map[string]*domain.Department{}}
	for _, dept := range departments {
		repo.departments[dept.ID] = dept
	}
	return repo
}

func (f *fakeDepartmentRepo) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	dept, ok := f.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *dept
	return &clone, nil
}

func (f *fakeDepartmentRepo) ListActive(ctx context.Context) ([]domain.Department, error) {
	var out []domain.Department
	for _, dept := range f.departments {
		if dept.IsActive {
			out = append(out, *dept)
		}
	}
	return out, nil
}

// fakeEventLog reads history out of the fake request repo, mirroring how
// the SQL event log shares storage with the aggregate.
type fakeEventLog struct {
	repo *fakeRequestRepo
}

func (f *fakeEventLog) ListByRequest(ctx context.Context, requestID string) ([]domain.EventLogEntry, error) {
	return f.repo.eventsFor(requestID), nil
}
