package lease

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PG is a PostgreSQL-backed lease stored in run_leases.
type PG struct {
	pool pgxQuerier
	now  func() time.Time
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed lease.
func NewPG(q pgxQuerier) *PG {
	return &PG{pool: q, now: time.Now}
}

// Acquire inserts or takes over the lease row. An expired lease, or one the
// holder already owns, is taken over.
func (l *PG) Acquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	now := l.now()
	const q = `
INSERT INTO run_leases (name, holder, expires_at)
VALUES ($1,$2,$3)
ON CONFLICT (name) DO UPDATE
SET holder = EXCLUDED.holder, expires_at = EXCLUDED.expires_at
WHERE run_leases.expires_at <= $4 OR run_leases.holder = EXCLUDED.holder
RETURNING holder`
	var got string
	err := l.pool.QueryRow(ctx, q, name, holder, now.Add(ttl), now).Scan(&got)
	switch {
	case err == nil:
		return got == holder, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	default:
		return false, err
	}
}

// Release deletes the lease row if holder owns it.
func (l *PG) Release(ctx context.Context, name, holder string) error {
	const q = `DELETE FROM run_leases WHERE name=$1 AND holder=$2`
	_, err := l.pool.Exec(ctx, q, name, holder)
	return err
}
