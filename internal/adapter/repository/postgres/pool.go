package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/V4T54L/api-performance/internal/domain"
)

// PoolConfig tunes the database/sql connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open opens a pooled handle and verifies connectivity.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// Probe runs SELECT 1 on a database handle.
type Probe struct {
	db *sql.DB
}

// NewProbe wraps an existing handle, normally the shared pool.
func NewProbe(db *sql.DB) *Probe {
	return &Probe{db: db}
}

// SelectOne performs a single round trip.
func (p *Probe) SelectOne(ctx context.Context) (int, error) {
	var result int
	if err := p.db.QueryRowContext(ctx, `SELECT 1 AS result`).Scan(&result); err != nil {
		return 0, fmt.Errorf("failed to run probe query: %w", err)
	}
	return result, nil
}

// UnpooledProbeFactory returns a factory that opens a fresh single-connection
// handle for every call, paying the full connection setup cost each time.
func UnpooledProbeFactory(dsn string) domain.ProbeFactory {
	return func(ctx context.Context) (domain.ProbeRepository, func() error, error) {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(0)
		return NewProbe(db), db.Close, nil
	}
}
