package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/ordering"
)

// CustomStatusRepo implements CustomStatusRepository using PostgreSQL.
type CustomStatusRepo struct{ db *DB }

// NewCustomStatusRepo constructs a custom status repository.
func NewCustomStatusRepo(db *DB) *CustomStatusRepo { return &CustomStatusRepo{db: db} }

// Create appends a status for the owner. Duplicate names are a conflict.
func (r *CustomStatusRepo) Create(ctx context.Context, s *model.CustomStatus) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.Must(uuid.NewV4())
	}
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		pos, err := nextInOwnerScope(ctx, tx, "custom_statuses", s.OwnerID)
		if err != nil {
			return err
		}
		s.Position = pos
		const ins = `INSERT INTO custom_statuses (id, user_id, name, color, position) VALUES ($1,$2,$3,$4,$5) RETURNING created_at`
		return tx.QueryRow(ctx, ins, s.ID, s.OwnerID, s.Name, s.Color, s.Position).Scan(&s.CreatedAt)
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("custom status %q: %w", s.Name, errs.ErrConflict)
	}
	return err
}

// Move repositions a status among the owner's statuses.
func (r *CustomStatusRepo) Move(ctx context.Context, ownerID, id uuid.UUID, target int) ([]model.PositionUpdate, error) {
	return r.db.moveInOwnerScope(ctx, "custom_statuses", ownerID, id, target)
}

// Delete removes a status no active todo or task references, then re-densifies the rest.
func (r *CustomStatusRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, "custom_statuses", ownerID); err != nil {
			return err
		}
		if err := checkOwner(ctx, tx, "custom_statuses", ownerID, id); err != nil {
			return err
		}
		const refs = `
SELECT (SELECT count(*) FROM todos WHERE custom_status_id=$1 AND user_id=$2 AND archived_at IS NULL)
     + (SELECT count(*) FROM tasks WHERE custom_status_id=$1 AND user_id=$2)`
		var n int64
		if err := tx.QueryRow(ctx, refs, id, ownerID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("custom status %s referenced by %d items: %w", id, n, errs.ErrConflict)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM custom_statuses WHERE user_id=$1 AND id=$2`, ownerID, id); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("custom status %s still referenced: %w", id, errs.ErrConflict)
			}
			return err
		}
		rest, err := loadScope(ctx, tx, ownerScope("custom_statuses", ownerID))
		if err != nil {
			return err
		}
		return applyPositions(ctx, tx, "custom_statuses", ownerID, ordering.Normalize(rest))
	})
}
