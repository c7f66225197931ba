package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"devevents/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const testTTL = 10 * time.Minute

// stubRepo records calls and returns canned results.
type stubRepo struct {
	bySlug   map[string]*domain.Event
	byID     map[string]*domain.Event
	list     []*domain.Event
	listErr  error
	calls    map[string]int
	updateFn func(e *domain.Event) error
}

func newStubRepo() *stubRepo {
	return &stubRepo{bySlug: map[string]*domain.Event{}, byID: map[string]*domain.Event{}, calls: map[string]int{}}
}

func (s *stubRepo) Create(ctx context.Context, e *domain.Event) error {
	s.calls["Create"]++
	e.ID = "new-id"
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	s.calls["GetByID"]++
	if e, ok := s.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	s.calls["GetBySlug"]++
	if e, ok := s.bySlug[slug]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) List(ctx context.Context) ([]*domain.Event, error) {
	s.calls["List"]++
	return s.list, s.listErr
}

func (s *stubRepo) ListByTags(ctx context.Context, tags []string, excludeID string) ([]*domain.Event, error) {
	s.calls["ListByTags"]++
	return []*domain.Event{}, nil
}

func (s *stubRepo) Update(ctx context.Context, e *domain.Event) error {
	s.calls["Update"]++
	if s.updateFn != nil {
		return s.updateFn(e)
	}
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) (*domain.Event, error) {
	s.calls["Delete"]++
	if e, ok := s.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func sampleEvent() *domain.Event {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Event{
		ID:        "ev-1",
		Title:     "Go Conf",
		Slug:      "go-conf",
		Mode:      domain.ModeOnline,
		Agenda:    []string{"Keynote"},
		Tags:      []string{"go"},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestEventCache_GetBySlug(t *testing.T) {
	ctx := context.Background()
	ev := sampleEvent()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	t.Run("hit skips the store", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		next := newStubRepo()
		mock.ExpectGet("events:slug:go-conf").SetVal(string(raw))

		repo := NewEventRepository(next, client, testTTL, testLogger)
		got, err := repo.GetBySlug(ctx, "go-conf")
		require.NoError(t, err)
		require.Equal(t, "ev-1", got.ID)
		require.Equal(t, []string{"go"}, got.Tags)
		require.Equal(t, 0, next.calls["GetBySlug"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss loads and stores", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		next := newStubRepo()
		next.bySlug["go-conf"] = ev
		mock.ExpectGet("events:slug:go-conf").RedisNil()
		mock.ExpectSet("events:slug:go-conf", raw, testTTL).SetVal("OK")

		repo := NewEventRepository(next, client, testTTL, testLogger)
		got, err := repo.GetBySlug(ctx, "go-conf")
		require.NoError(t, err)
		require.Same(t, ev, got)
		require.Equal(t, 1, next.calls["GetBySlug"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found is not cached", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		next := newStubRepo()
		mock.ExpectGet("events:slug:missing").RedisNil()

		repo := NewEventRepository(next, client, testTTL, testLogger)
		_, err := repo.GetBySlug(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis error falls through", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		next := newStubRepo()
		next.bySlug["go-conf"] = ev
		mock.ExpectGet("events:slug:go-conf").SetErr(errors.New("connection reset"))
		mock.ExpectSet("events:slug:go-conf", raw, testTTL).SetErr(errors.New("connection reset"))

		repo := NewEventRepository(next, client, testTTL, testLogger)
		got, err := repo.GetBySlug(ctx, "go-conf")
		require.NoError(t, err)
		require.Equal(t, "ev-1", got.ID)
	})
}

func TestEventCache_List(t *testing.T) {
	ctx := context.Background()
	events := []*domain.Event{sampleEvent()}
	raw, err := json.Marshal(events)
	require.NoError(t, err)

	t.Run("miss then store", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		next := newStubRepo()
		next.list = events
		mock.ExpectGet("events:list").RedisNil()
		mock.ExpectSet("events:list", raw, testTTL).SetVal("OK")

		repo := NewEventRepository(next, client, testTTL, testLogger)
		got, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("hit", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		next := newStubRepo()
		mock.ExpectGet("events:list").SetVal(string(raw))

		repo := NewEventRepository(next, client, testTTL, testLogger)
		got, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "go-conf", got[0].Slug)
		require.Equal(t, 0, next.calls["List"])
	})

	t.Run("store error is returned, nothing cached", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		next := newStubRepo()
		next.listErr = errors.New("boom")
		mock.ExpectGet("events:list").RedisNil()

		repo := NewEventRepository(next, client, testTTL, testLogger)
		_, err := repo.List(ctx)
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// newInvalidatingRepo returns the cache with delayed deletes queued instead of scheduled.
func newInvalidatingRepo(next domain.EventRepository, client redis.Cmdable) (*eventRepository, *[]func()) {
	var pending []func()
	repo := NewEventRepository(next, client, testTTL, testLogger).(*eventRepository)
	repo.after = func(d time.Duration, f func()) {
		pending = append(pending, f)
	}
	return repo, &pending
}

func runPending(pending *[]func()) {
	for _, f := range *pending {
		f()
	}
	*pending = nil
}

func TestEventCache_Invalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("create clears list and slug", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectDel("events:list", "events:slug:go-conf").SetVal(1)
		mock.ExpectDel("events:list", "events:slug:go-conf").SetVal(0)

		repo, pending := newInvalidatingRepo(newStubRepo(), client)
		require.NoError(t, repo.Create(ctx, sampleEvent()))
		require.Len(t, *pending, 1)
		runPending(pending)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update clears old and new slug", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		next := newStubRepo()
		next.byID["ev-1"] = sampleEvent()
		mock.ExpectDel("events:list", "events:slug:go-conf-2", "events:slug:go-conf").SetVal(2)
		mock.ExpectDel("events:list", "events:slug:go-conf-2", "events:slug:go-conf").SetVal(0)

		updated := sampleEvent()
		updated.Slug = "go-conf-2"
		repo, pending := newInvalidatingRepo(next, client)
		require.NoError(t, repo.Update(ctx, updated))
		runPending(pending)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed update leaves cache alone", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		next := newStubRepo()
		next.updateFn = func(*domain.Event) error { return domain.ErrNotFound }

		repo, pending := newInvalidatingRepo(next, client)
		require.ErrorIs(t, repo.Update(ctx, sampleEvent()), domain.ErrNotFound)
		require.Empty(t, *pending)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete clears list and slug", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		next := newStubRepo()
		next.byID["ev-1"] = sampleEvent()
		mock.ExpectDel("events:list", "events:slug:go-conf").SetVal(1)
		mock.ExpectDel("events:list", "events:slug:go-conf").SetVal(0)

		repo, pending := newInvalidatingRepo(next, client)
		got, err := repo.Delete(ctx, "ev-1")
		require.NoError(t, err)
		require.Equal(t, "go-conf", got.Slug)
		runPending(pending)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// A slug read that queried Postgres before a delete stores the deleted row after the
// first Del. The delayed Del removes it.
func TestEventCache_DelayedDeleteClearsLateStore(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	next := newStubRepo()
	ev := sampleEvent()
	next.byID["ev-1"] = ev
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	mock.ExpectDel("events:list", "events:slug:go-conf").SetVal(1)
	mock.ExpectSet("events:slug:go-conf", raw, testTTL).SetVal("OK")
	mock.ExpectDel("events:list", "events:slug:go-conf").SetVal(1)

	repo, pending := newInvalidatingRepo(next, client)
	_, err = repo.Delete(ctx, "ev-1")
	require.NoError(t, err)

	// the racing reader finishes after the delete
	repo.store(ctx, slugKey(ev.Slug), ev)

	runPending(pending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCache_GetByIDBypassesCache(t *testing.T) {
	client, mock := redismock.NewClientMock()
	next := newStubRepo()
	next.byID["ev-1"] = sampleEvent()

	repo := NewEventRepository(next, client, testTTL, testLogger)
	got, err := repo.GetByID(context.Background(), "ev-1")
	require.NoError(t, err)
	require.Equal(t, "go-conf", got.Slug)
	require.Equal(t, 1, next.calls["GetByID"])
	require.NoError(t, mock.ExpectationsWereMet())
}
