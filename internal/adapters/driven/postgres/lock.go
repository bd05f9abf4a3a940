package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*LeaseLock)(nil)

// LeaseLock implements DistributedLock with rows in the lease_locks table.
//
// Unlike session advisory locks, a lease is not tied to a pooled connection:
// it expires at expires_at, and an expired lease can be taken over by any holder.
// Release and Extend only touch leases owned by this instance.
type LeaseLock struct {
	db     *sql.DB
	holder string
}

// NewLeaseLock creates a new PostgreSQL lease lock adapter.
func NewLeaseLock(db *sql.DB) *LeaseLock {
	return &LeaseLock{db: db, holder: uuid.NewString()}
}

// Acquire takes the named lease when it is free or expired.
func (l *LeaseLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO lease_locks (name, holder, expires_at)
		VALUES ($1, $2, NOW() + make_interval(secs => $3))
		ON CONFLICT (name) DO UPDATE SET
			holder = EXCLUDED.holder,
			expires_at = EXCLUDED.expires_at
		WHERE lease_locks.expires_at < NOW()
		RETURNING name
	`

	var got string
	err := l.db.QueryRowContext(ctx, query, name, l.holder, ttl.Seconds()).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	return true, nil
}

// Release drops the lease if this instance holds it.
// Safe to call even if the lease is not held or has expired.
func (l *LeaseLock) Release(ctx context.Context, name string) error {
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM lease_locks WHERE name = $1 AND holder = $2`,
		name, l.holder)
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

// Extend pushes the expiry of a lease held by this instance.
func (l *LeaseLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	result, err := l.db.ExecContext(ctx, `
		UPDATE lease_locks
		SET expires_at = NOW() + make_interval(secs => $3)
		WHERE name = $1 AND holder = $2
	`, name, l.holder, ttl.Seconds())
	if err != nil {
		return fmt.Errorf("extend lease: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("lease %s not held", name)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *LeaseLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
