package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPoolClosed is returned by LazyPool after Close.
var ErrPoolClosed = errors.New("db: pool closed")

// Pool abstracts the pgx connection pool to make testing easier.
type Pool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

// Connect initialises a PostgreSQL connection pool using the provided database URL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return pool, nil
}

// ConnectFunc establishes a new pool. It is swapped out in tests.
type ConnectFunc func(ctx context.Context, databaseURL string) (*pgxpool.Pool, error)

// LazyPool defers establishing the shared pool until the first Acquire. Concurrent
// first callers converge on a single pool; a failed attempt is not remembered, so
// the next caller retries.
type LazyPool struct {
	databaseURL string
	connect     ConnectFunc

	mu     sync.Mutex
	pool   *pgxpool.Pool
	closed bool
}

// NewLazyPool returns a Pool that connects to databaseURL on first use.
func NewLazyPool(databaseURL string, connect ConnectFunc) *LazyPool {
	if connect == nil {
		connect = Connect
	}
	return &LazyPool{databaseURL: databaseURL, connect: connect}
}

// Get returns the shared pool, establishing it if necessary.
func (l *LazyPool) Get(ctx context.Context) (*pgxpool.Pool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrPoolClosed
	}
	if l.pool != nil {
		return l.pool, nil
	}

	pool, err := l.connect(ctx, l.databaseURL)
	if err != nil {
		return nil, err
	}
	l.pool = pool
	return pool, nil
}

// Acquire implements Pool.
func (l *LazyPool) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	pool, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return pool.Acquire(ctx)
}

// Close releases the underlying pool if one was established.
func (l *LazyPool) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.pool != nil {
		l.pool.Close()
		l.pool = nil
	}
}
