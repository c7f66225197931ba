package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"devevents/internal/domain"
	"devevents/internal/monitoring"
)

const (
	listKey    = "events:list"
	slugPrefix = "events:slug:"
)

const (
	kindList = "list"
	kindSlug = "slug"
)

// DefaultTTL is used when NewEventRepository is given a zero ttl.
const DefaultTTL = time.Hour

// redeleteDelay is how long after a write the invalidated keys are deleted a second time.
// It must exceed the time a slug or list read takes between its Postgres query and its Set.
const redeleteDelay = 500 * time.Millisecond

type eventRepository struct {
	next   domain.EventRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
	after  func(time.Duration, func())
}

// NewEventRepository wraps next with a Redis read-through cache for the event
// listing and slug lookups. Redis failures are logged and fall through to next.
func NewEventRepository(next domain.EventRepository, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) domain.EventRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &eventRepository{next: next, client: client, ttl: ttl, logger: logger, after: afterFunc}
}

func afterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

func slugKey(slug string) string {
	return slugPrefix + slug
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if err := r.next.Create(ctx, e); err != nil {
		return err
	}
	r.invalidate(ctx, listKey, slugKey(e.Slug))
	return nil
}

// GetByID is not cached; booking reference checks must see deletions immediately.
func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.next.GetByID(ctx, id)
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	key := slugKey(slug)
	var cached domain.Event
	if r.load(ctx, kindSlug, key, &cached) {
		return &cached, nil
	}
	e, err := r.next.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, e)
	return e, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	var cached []*domain.Event
	if r.load(ctx, kindList, listKey, &cached) {
		return cached, nil
	}
	events, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, listKey, events)
	return events, nil
}

func (r *eventRepository) ListByTags(ctx context.Context, tags []string, excludeID string) ([]*domain.Event, error) {
	return r.next.ListByTags(ctx, tags, excludeID)
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	keys := []string{listKey, slugKey(e.Slug)}
	if prev, err := r.next.GetByID(ctx, e.ID); err == nil && prev.Slug != e.Slug {
		keys = append(keys, slugKey(prev.Slug))
	}
	if err := r.next.Update(ctx, e); err != nil {
		return err
	}
	r.invalidate(ctx, keys...)
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) (*domain.Event, error) {
	e, err := r.next.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, listKey, slugKey(e.Slug))
	return e, nil
}

func (r *eventRepository) load(ctx context.Context, kind, key string, dst any) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		monitoring.ObserveCacheLookup(kind, "miss")
		return false
	case err != nil:
		monitoring.ObserveCacheLookup(kind, "error")
		r.logger.Warn("event cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		monitoring.ObserveCacheLookup(kind, "error")
		r.logger.Warn("event cache entry is corrupt", "key", key, "error", err)
		return false
	}
	monitoring.ObserveCacheLookup(kind, "hit")
	return true
}

func (r *eventRepository) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("event cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("event cache write failed", "key", key, "error", err)
	}
}

// invalidate deletes keys now and again after redeleteDelay. A read that missed
// before the write can still Set the old row after the first delete.
func (r *eventRepository) invalidate(ctx context.Context, keys ...string) {
	r.del(ctx, keys)
	r.after(redeleteDelay, func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		r.del(ctx, keys)
	})
}

func (r *eventRepository) del(ctx context.Context, keys []string) {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("event cache invalidation failed", "keys", keys, "error", err)
	}
}
