package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/singleflight"

	"devevents/internal/domain"
	"devevents/internal/monitoring"
)

// Defaults applied by NewManager when the config leaves a field zero.
const (
	DefaultDriverName             = "postgres"
	DefaultMaxPoolSize            = 10
	DefaultServerSelectionTimeout = 5 * time.Second
	DefaultSocketTimeout          = 45 * time.Second
)

const connectKey = "connect"

// Config holds connection settings for the Manager.
type Config struct {
	URL        string
	DriverName string
	// MaxPoolSize bounds open connections in the pool.
	MaxPoolSize int
	// ServerSelectionTimeout bounds a single connection attempt.
	ServerSelectionTimeout time.Duration
	// SocketTimeout closes pooled connections idle for longer than this.
	SocketTimeout time.Duration
}

// DialFunc opens and verifies a database handle. ctx carries the connection attempt deadline.
type DialFunc func(ctx context.Context, cfg Config) (*sql.DB, error)

// OnConnectFunc runs once on a freshly opened handle before it is cached.
type OnConnectFunc func(ctx context.Context, db *sql.DB) error

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces the default Postgres dialer.
func WithDialer(dial DialFunc) Option {
	return func(m *Manager) { m.dial = dial }
}

// WithOnConnect sets a hook that runs after each successful dial, e.g. to apply the schema.
func WithOnConnect(fn OnConnectFunc) Option {
	return func(m *Manager) { m.onConnect = fn }
}

// WithLogger sets the logger used for connection lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager lazily opens one database handle and shares it with every caller.
// Concurrent callers arriving before the first connection resolves wait on the
// same attempt. A failed attempt is discarded so the next call retries.
type Manager struct {
	cfg       Config
	dial      DialFunc
	onConnect OnConnectFunc
	logger    *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	db    *sql.DB
}

// NewManager returns a Manager for cfg. No connection is made until Acquire is called.
func NewManager(cfg Config, opts ...Option) *Manager {
	if cfg.DriverName == "" {
		cfg.DriverName = DefaultDriverName
	}
	if cfg.MaxPoolSize <= 0 {
		cfg.MaxPoolSize = DefaultMaxPoolSize
	}
	if cfg.ServerSelectionTimeout <= 0 {
		cfg.ServerSelectionTimeout = DefaultServerSelectionTimeout
	}
	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = DefaultSocketTimeout
	}
	m := &Manager{
		cfg:    cfg,
		dial:   OpenPostgres,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire returns the shared database handle, connecting on first use.
// It fails with *domain.ConfigurationError when no URL is configured and with
// *domain.ConnectionError when the connection attempt fails. If ctx ends while
// waiting, the attempt keeps running for other callers and a *domain.ConnectionError
// wrapping ctx.Err() is returned.
func (m *Manager) Acquire(ctx context.Context) (*sql.DB, error) {
	if m.cfg.URL == "" {
		return nil, &domain.ConfigurationError{Key: "DATABASE_URL"}
	}
	if db := m.cached(); db != nil {
		return db, nil
	}

	ch := m.group.DoChan(connectKey, func() (any, error) {
		// A caller that lost the race to an already finished attempt lands here.
		if db := m.cached(); db != nil {
			return db, nil
		}
		return m.connect()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*sql.DB), nil
	case <-ctx.Done():
		return nil, &domain.ConnectionError{Err: ctx.Err()}
	}
}

// Close closes the cached handle, if any. Only call it at process shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	m.logger.Info("database connection closed")
	return err
}

func (m *Manager) cached() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// connect runs detached from any caller's context so one abandoned request
// cannot cancel the attempt other callers are waiting on.
func (m *Manager) connect() (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ServerSelectionTimeout)
	defer cancel()

	start := time.Now()
	db, err := m.dial(ctx, m.cfg)
	if err == nil && m.onConnect != nil {
		if hookErr := m.onConnect(ctx, db); hookErr != nil {
			_ = db.Close()
			db, err = nil, hookErr
		}
	}
	monitoring.ObserveConnectAttempt(err, time.Since(start))
	if err != nil {
		m.logger.Error("database connection failed", "err", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, &domain.ConnectionError{Err: err}
	}

	m.mu.Lock()
	m.db = db
	m.mu.Unlock()
	m.logger.Info("database connected", "duration_ms", time.Since(start).Milliseconds(), "max_pool_size", m.cfg.MaxPoolSize)
	return db, nil
}

// OpenPostgres is the default DialFunc. It opens a pool with the configured limits and pings it.
func OpenPostgres(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.DriverName, cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxPoolSize)
	db.SetMaxIdleConns(cfg.MaxPoolSize)
	db.SetConnMaxIdleTime(cfg.SocketTimeout)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("server selection timed out after %s: %w", cfg.ServerSelectionTimeout, err)
		}
		return nil, err
	}
	return db, nil
}
