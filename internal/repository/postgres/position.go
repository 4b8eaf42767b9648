package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/ordering"
)

// scope selects the active sibling rows that share a dense ordering.
type scope struct {
	table string
	where string
	args  []any
}

func todoScope(ownerID uuid.UUID, s model.TodoScope) scope {
	return scope{
		table: "todos",
		where: "user_id=$1 AND status=$2 AND custom_status_id IS NOT DISTINCT FROM $3 AND archived_at IS NULL",
		args:  []any{ownerID, string(s.Status), nullID(s.CustomStatusID)},
	}
}

func taskScope(ownerID, listID uuid.UUID) scope {
	return scope{table: "tasks", where: "user_id=$1 AND task_list_id=$2", args: []any{ownerID, listID}}
}

func ownerScope(table string, ownerID uuid.UUID) scope {
	return scope{table: table, where: "user_id=$1", args: []any{ownerID}}
}

// lockOwner serializes position changes of one owner on one table until the
// transaction ends.
func lockOwner(ctx context.Context, tx pgx.Tx, table string, ownerID uuid.UUID) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, table+":"+ownerID.String())
	return err
}

func loadScope(ctx context.Context, tx pgx.Tx, sc scope) ([]ordering.Item, error) {
	q := "SELECT id, position FROM " + sc.table + " WHERE " + sc.where + " ORDER BY position, id"
	rows, err := tx.Query(ctx, q, sc.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ordering.Item
	for rows.Next() {
		var it ordering.Item
		if err = rows.Scan(&it.ID, &it.Position); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// applyPositions writes all updates with a single statement.
func applyPositions(ctx context.Context, tx pgx.Tx, table string, ownerID uuid.UUID, ups []model.PositionUpdate) error {
	if len(ups) == 0 {
		return nil
	}
	ids := make([]string, len(ups))
	pos := make([]int, len(ups))
	for i, u := range ups {
		ids[i] = u.ID.String()
		pos[i] = u.Position
	}
	q := "UPDATE " + table + ` AS t SET position = v.position, updated_at = now()
FROM (SELECT unnest($1::uuid[]) AS id, unnest($2::int[]) AS position) AS v
WHERE t.id = v.id AND t.user_id = $3`
	tag, err := tx.Exec(ctx, q, ids, pos, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(len(ups)) {
		return fmt.Errorf("%s: %d of %d positions written: %w", table, tag.RowsAffected(), len(ups), errs.ErrConflict)
	}
	return nil
}

// checkOwner fails with ErrNotFound for unknown ids and OwnershipError for foreign ones.
func checkOwner(ctx context.Context, tx pgx.Tx, table string, ownerID, id uuid.UUID) error {
	var owner uuid.UUID
	err := tx.QueryRow(ctx, "SELECT user_id FROM "+table+" WHERE id=$1", id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", table, id, errs.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if owner != ownerID {
		return &errs.OwnershipError{IDs: []uuid.UUID{id}}
	}
	return nil
}

// moveInOwnerScope is the shared reorder for tables ordered per owner only.
func (db *DB) moveInOwnerScope(ctx context.Context, table string, ownerID, id uuid.UUID, target int) (ups []model.PositionUpdate, err error) {
	err = db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, table, ownerID); err != nil {
			return err
		}
		if err := checkOwner(ctx, tx, table, ownerID, id); err != nil {
			return err
		}
		items, err := loadScope(ctx, tx, ownerScope(table, ownerID))
		if err != nil {
			return err
		}
		if ups, err = ordering.MoveWithin(items, id, target); err != nil {
			return err
		}
		return applyPositions(ctx, tx, table, ownerID, ups)
	})
	if err != nil {
		return nil, err
	}
	return ups, nil
}

// nextInOwnerScope locks the owner's rows of table and returns the append position.
func nextInOwnerScope(ctx context.Context, tx pgx.Tx, table string, ownerID uuid.UUID) (int, error) {
	if err := lockOwner(ctx, tx, table, ownerID); err != nil {
		return 0, err
	}
	items, err := loadScope(ctx, tx, ownerScope(table, ownerID))
	if err != nil {
		return 0, err
	}
	return ordering.Append(items), nil
}
