package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
)

const policyColumns = `user_id, auto_archive_enabled, auto_archive_time, unfinished_grace_days, unfinished_grace_unit, cleanup_finished_after_days, cleanup_unfinished_after_days, updated_at`

// PolicyRepo implements PolicyRepository using PostgreSQL.
type PolicyRepo struct{ db *DB }

// NewPolicyRepo constructs a policy repository.
func NewPolicyRepo(db *DB) *PolicyRepo { return &PolicyRepo{db: db} }

func scanPolicy(row pgx.Row) (model.ArchivePolicy, error) {
	var (
		p    model.ArchivePolicy
		unit string
	)
	err := row.Scan(&p.OwnerID, &p.AutoArchiveEnabled, &p.AutoArchiveTime, &p.UnfinishedGraceDays, &unit,
		&p.CleanupFinishedAfterDays, &p.CleanupUnfinishedAfterDays, &p.UpdatedAt)
	if err != nil {
		return model.ArchivePolicy{}, err
	}
	p.UnfinishedGraceUnit = model.GraceUnit(unit)
	return p, nil
}

// Get loads the stored policy of an owner.
func (r *PolicyRepo) Get(ctx context.Context, ownerID uuid.UUID) (*model.ArchivePolicy, error) {
	p, err := scanPolicy(r.db.Pool.QueryRow(ctx, `SELECT `+policyColumns+` FROM archive_policies WHERE user_id=$1`, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert writes the full policy and returns it as stored.
func (r *PolicyRepo) Upsert(ctx context.Context, p model.ArchivePolicy) (model.ArchivePolicy, error) {
	const q = `
INSERT INTO archive_policies (user_id, auto_archive_enabled, auto_archive_time, unfinished_grace_days,
  unfinished_grace_unit, cleanup_finished_after_days, cleanup_unfinished_after_days, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,now())
ON CONFLICT (user_id) DO UPDATE SET
  auto_archive_enabled = EXCLUDED.auto_archive_enabled,
  auto_archive_time = EXCLUDED.auto_archive_time,
  unfinished_grace_days = EXCLUDED.unfinished_grace_days,
  unfinished_grace_unit = EXCLUDED.unfinished_grace_unit,
  cleanup_finished_after_days = EXCLUDED.cleanup_finished_after_days,
  cleanup_unfinished_after_days = EXCLUDED.cleanup_unfinished_after_days,
  updated_at = now()
RETURNING updated_at`
	err := r.db.Pool.QueryRow(ctx, q, p.OwnerID, p.AutoArchiveEnabled, p.AutoArchiveTime, p.UnfinishedGraceDays,
		string(p.UnfinishedGraceUnit), p.CleanupFinishedAfterDays, p.CleanupUnfinishedAfterDays,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return model.ArchivePolicy{}, err
	}
	return p, nil
}

// ListEnabled returns stored policies with auto archiving on.
func (r *PolicyRepo) ListEnabled(ctx context.Context) ([]model.ArchivePolicy, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+policyColumns+` FROM archive_policies WHERE auto_archive_enabled ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ArchivePolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListOwnersWithoutPolicy returns owners that have todos but no stored policy.
func (r *PolicyRepo) ListOwnersWithoutPolicy(ctx context.Context) ([]uuid.UUID, error) {
	const q = `
SELECT DISTINCT t.user_id FROM todos t
LEFT JOIN archive_policies p ON p.user_id = t.user_id
WHERE p.user_id IS NULL
ORDER BY t.user_id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
