package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/civic-stack/request-service/internal/domain"
	"github.com/civic-stack/request-service/internal/events"
)

const keyPrefix = "request:"

// RequestCache keeps recently served request snapshots in Redis. It is a
// read-side optimization only: a miss or a Redis outage falls through to
// Postgres, and every lifecycle write evicts the snapshot via the event
// dispatcher. All methods are safe on a nil receiver so callers need no
// cache-enabled branches.
type RequestCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRequestCache builds the cache. A nil client yields a disabled cache.
func NewRequestCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RequestCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RequestCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached snapshot for id, or nil on miss.
func (c *RequestCache) Get(ctx context.Context, id string) *domain.ServiceRequest {
	if c == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("request cache read failed", zap.String("request_id", id), zap.Error(err))
		}
		return nil
	}
	var request domain.ServiceRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		c.logger.Warn("request cache entry corrupt", zap.String("request_id", id), zap.Error(err))
		c.Invalidate(ctx, id)
		return nil
	}
	return &request
}

// Set stores a snapshot of request under its id.
func (c *RequestCache) Set(ctx context.Context, request *domain.ServiceRequest) {
	if c == nil || request == nil {
		return
	}
	raw, err := json.Marshal(request)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+request.ID, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("request cache write failed", zap.String("request_id", request.ID), zap.Error(err))
	}
}

// Invalidate drops the snapshot for id.
func (c *RequestCache) Invalidate(ctx context.Context, id string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		c.logger.Warn("request cache eviction failed", zap.String("request_id", id), zap.Error(err))
	}
}

// RegisterInvalidation subscribes cache eviction to every event that
// mutates a request.
func (c *RequestCache) RegisterInvalidation(dispatcher events.Dispatcher) {
	if c == nil || dispatcher == nil {
		return
	}
	evict := func(ctx context.Context, event events.Event) error {
		c.Invalidate(ctx, event.RequestID)
		return nil
	}
	dispatcher.Subscribe(events.EventRequestSubmitted, evict)
	dispatcher.Subscribe(events.EventRequestStatusChanged, evict)
	dispatcher.Subscribe(events.EventRequestAssigned, evict)
}
