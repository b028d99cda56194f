package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-stack/request-service/internal/domain"
)

// ErrVersionConflict is returned when the conditional write matched no row
// because the stored version differs from the caller's precondition.
var ErrVersionConflict = errors.New("request version conflict")

// RequestFilter captures staff search parameters.
type RequestFilter struct {
	RequesterID  *string
	DepartmentID *string
	AssignedTo   *string
	Statuses     []domain.Status
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TransitionRecord describes one atomic lifecycle write: the resulting
// status, optional assignment changes, and the audit entry that must land
// in the same transaction.
type TransitionRecord struct {
	NewStatus    domain.Status
	AssignedTo   *string
	DepartmentID *string
	EventType    domain.EventType
	Payload      map[string]any
}

// RequestRepository encapsulates service-request persistence. The write
// path is a compare-and-swap: ApplyTransition only succeeds when the
// stored version equals expectedVersion, and the event-log insert commits
// with the aggregate update or not at all.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	GetByCode(ctx context.Context, code string) (*domain.ServiceRequest, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error)
	ApplyTransition(ctx context.Context, requestID string, expectedVersion int64, record TransitionRecord) (int64, time.Time, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates the repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

func (r *requestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO service_requests (code, requester_id, department_id, assigned_to, title, description, category, location, status, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,1)
        RETURNING id, version, created_at, updated_at`
	if err := tx.QueryRow(ctx, insert,
		request.Code,
		request.RequesterID,
		request.DepartmentID,
		request.AssignedTo,
		request.Title,
		request.Description,
		request.Category,
		request.Location,
		request.Status,
	).Scan(&request.ID, &request.Version, &request.CreatedAt, &request.UpdatedAt); err != nil {
		return err
	}

	const insertEvent = `
        INSERT INTO request_events (request_id, event_type, payload)
        VALUES ($1,$2,$3)`
	payload := domain.CreationPayload(request.Status, request.RequesterID)
	if _, err := tx.Exec(ctx, insertEvent, request.ID, domain.EventRequestCreated, payload); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	const query = `
        SELECT id, code, requester_id, department_id, assigned_to,
               title, description, category, location, status, version,
               created_at, updated_at, closed_at
        FROM service_requests WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *requestRepository) GetByCode(ctx context.Context, code string) (*domain.ServiceRequest, error) {
	const query = `
        SELECT id, code, requester_id, department_id, assigned_to,
               title, description, category, location, status, version,
               created_at, updated_at, closed_at
        FROM service_requests WHERE code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *requestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&request.ID,
		&request.Code,
		&request.RequesterID,
		&request.DepartmentID,
		&request.AssignedTo,
		&request.Title,
		&request.Description,
		&request.Category,
		&request.Location,
		&request.Status,
		&request.Version,
		&request.CreatedAt,
		&request.UpdatedAt,
		&request.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

// ApplyTransition performs the version-conditioned write. The UPDATE is
// guarded by version=expectedVersion at the storage layer; a zero-row
// result distinguishes a missing request (pgx.ErrNoRows) from a stale
// precondition (ErrVersionConflict), and in both cases no audit entry is
// written.
func (r *requestRepository) ApplyTransition(ctx context.Context, requestID string, expectedVersion int64, record TransitionRecord) (int64, time.Time, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, time.Time{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE service_requests
        SET status=$1,
            version=version+1,
            assigned_to=COALESCE($2, assigned_to),
            department_id=COALESCE($3, department_id),
            closed_at=CASE WHEN $4::boolean THEN COALESCE(closed_at, NOW()) ELSE NULL END,
            updated_at=NOW()
        WHERE id=$5 AND version=$6
        RETURNING version, updated_at`

	var (
		newVersion int64
		updatedAt  time.Time
	)
	err = tx.QueryRow(ctx, update,
		record.NewStatus,
		record.AssignedTo,
		record.DepartmentID,
		record.NewStatus.Terminal(),
		requestID,
		expectedVersion,
	).Scan(&newVersion, &updatedAt)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, time.Time{}, err
		}
		var exists bool
		if checkErr := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM service_requests WHERE id=$1)`, requestID).Scan(&exists); checkErr != nil {
			return 0, time.Time{}, checkErr
		}
		if !exists {
			return 0, time.Time{}, pgx.ErrNoRows
		}
		return 0, time.Time{}, ErrVersionConflict
	}

	const insertEvent = `
        INSERT INTO request_events (request_id, event_type, payload)
        VALUES ($1,$2,$3)`
	if _, err := tx.Exec(ctx, insertEvent, requestID, record.EventType, record.Payload); err != nil {
		return 0, time.Time{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, time.Time{}, err
	}
	return newVersion, updatedAt, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error) {
	base := `SELECT id, code, requester_id, department_id, assigned_to,
                    title, description, category, location, status, version,
                    created_at, updated_at, closed_at
             FROM service_requests`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(code) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequests(rows pgx.Rows) ([]domain.ServiceRequest, error) {
	var result []domain.ServiceRequest
	for rows.Next() {
		var request domain.ServiceRequest
		if err := rows.Scan(
			&request.ID,
			&request.Code,
			&request.RequesterID,
			&request.DepartmentID,
			&request.AssignedTo,
			&request.Title,
			&request.Description,
			&request.Category,
			&request.Location,
			&request.Status,
			&request.Version,
			&request.CreatedAt,
			&request.UpdatedAt,
			&request.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
