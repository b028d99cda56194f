package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-stack/request-service/internal/domain"
)

// EventLogRepository reads audit entries. Writes happen exclusively inside
// RequestRepository transactions so an entry can never exist without its
// matching aggregate change.
type EventLogRepository interface {
	ListByRequest(ctx context.Context, requestID string) ([]domain.EventLogEntry, error)
}

type eventLogRepository struct {
	pool *pgxpool.Pool
}

// NewEventLogRepository builds the repository.
func NewEventLogRepository(pool *pgxpool.Pool) EventLogRepository {
	return &eventLogRepository{pool: pool}
}

func (r *eventLogRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.EventLogEntry, error) {
	const query = `
        SELECT id, request_id, event_type, payload, created_at
        FROM request_events WHERE request_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EventLogEntry
	for rows.Next() {
		var entry domain.EventLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.Type,
			&entry.Payload,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
