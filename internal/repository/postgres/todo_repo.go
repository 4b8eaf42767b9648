package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/ordering"
)

const todoColumns = `id, user_id, title, status, priority, custom_status_id, due_date, tags, position, archived_at, archived_bucket, archived_reason, archived_by_system, created_at, updated_at`

var archiveLogColumns = []string{
	"id", "todo_id", "user_id", "bucket", "reason", "auto_archived", "archived_at",
	"title", "status", "priority", "due_date", "custom_status_id", "tags",
}

// TodoRepo implements TodoRepository using PostgreSQL.
type TodoRepo struct{ db *DB }

// NewTodoRepo constructs a todo repository.
func NewTodoRepo(db *DB) *TodoRepo { return &TodoRepo{db: db} }

func scanTodo(row pgx.Row) (model.Todo, error) {
	var (
		t            model.Todo
		status       string
		customStatus uuid.NullUUID
		bucket       *string
	)
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.Title, &status, &t.Priority, &customStatus, &t.DueDate, &t.Tags, &t.Position,
		&t.ArchivedAt, &bucket, &t.ArchivedReason, &t.ArchivedBySystem, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Todo{}, err
	}
	t.Status = model.Status(status)
	t.CustomStatusID = fromNullID(customStatus)
	if bucket != nil {
		b := model.Bucket(*bucket)
		t.ArchivedBucket = &b
	}
	return t, nil
}

func collectTodos(rows pgx.Rows) ([]model.Todo, error) {
	defer rows.Close()
	var out []model.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts the todo at the end of its scope.
func (r *TodoRepo) Create(ctx context.Context, t *model.Todo) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.Must(uuid.NewV4())
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, "todos", t.OwnerID); err != nil {
			return err
		}
		if t.CustomStatusID != nil {
			if err := checkOwner(ctx, tx, "custom_statuses", t.OwnerID, *t.CustomStatusID); err != nil {
				return err
			}
		}
		items, err := loadScope(ctx, tx, todoScope(t.OwnerID, t.Scope()))
		if err != nil {
			return err
		}
		t.Position = ordering.Append(items)

		const ins = `
INSERT INTO todos (id, user_id, title, status, priority, custom_status_id, due_date, tags, position)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING created_at, updated_at`
		return tx.QueryRow(ctx, ins,
			t.ID, t.OwnerID, t.Title, string(t.Status), t.Priority, nullID(t.CustomStatusID), t.DueDate, t.Tags, t.Position,
		).Scan(&t.CreatedAt, &t.UpdatedAt)
	})
}

// GetByIDs returns owned todos among ids; foreign or unknown ids are skipped.
func (r *TodoRepo) GetByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]model.Todo, error) {
	q := `SELECT ` + todoColumns + ` FROM todos WHERE user_id=$1 AND id = ANY($2::uuid[])`
	rows, err := r.db.Pool.Query(ctx, q, ownerID, idStrings(ids))
	if err != nil {
		return nil, err
	}
	return collectTodos(rows)
}

// ListArchiveCandidates prefilters active todos that may be eligible at now.
// Final eligibility is decided by the classifier.
func (r *TodoRepo) ListArchiveCandidates(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]model.Todo, error) {
	q := `SELECT ` + todoColumns + ` FROM todos
WHERE user_id=$1 AND archived_at IS NULL
  AND (status='COMPLETE' OR (status IN ('WAIT','IN_PROGRESS') AND due_date IS NOT NULL AND due_date <= $2))
ORDER BY status, position`
	rows, err := r.db.Pool.Query(ctx, q, ownerID, now)
	if err != nil {
		return nil, err
	}
	return collectTodos(rows)
}

// Archive updates all todos and bulk-inserts their audit entries in one transaction.
// Todos archived concurrently abort the whole batch.
func (r *TodoRepo) Archive(ctx context.Context, ownerID uuid.UUID, recs []model.ArchiveRecord) error {
	if len(recs) == 0 {
		return nil
	}
	ids := make([]string, len(recs))
	buckets := make([]string, len(recs))
	reasons := make([]string, len(recs))
	at := make([]time.Time, len(recs))
	bySystem := make([]bool, len(recs))
	logRows := make([][]any, len(recs))
	for i, rec := range recs {
		ids[i] = rec.Todo.ID.String()
		buckets[i] = string(rec.Bucket)
		reasons[i] = rec.Reason
		at[i] = rec.ArchivedAt
		bySystem[i] = rec.AutoArchived

		snap := model.SnapshotOf(rec.Todo)
		tags := snap.Tags
		if tags == nil {
			tags = []string{}
		}
		logRows[i] = []any{
			uuid.Must(uuid.NewV4()), rec.Todo.ID, ownerID, string(rec.Bucket), rec.Reason, rec.AutoArchived, rec.ArchivedAt,
			snap.Title, string(snap.Status), snap.Priority, snap.DueDate, nullID(snap.CustomStatusID), tags,
		}
	}

	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		const upd = `
UPDATE todos AS t
SET archived_at = v.archived_at, archived_bucket = v.bucket, archived_reason = v.reason,
    archived_by_system = v.by_system, updated_at = now()
FROM (SELECT unnest($2::uuid[]) AS id, unnest($3::text[]) AS bucket, unnest($4::text[]) AS reason,
             unnest($5::timestamptz[]) AS archived_at, unnest($6::bool[]) AS by_system) AS v
WHERE t.id = v.id AND t.user_id = $1 AND t.archived_at IS NULL`
		tag, err := tx.Exec(ctx, upd, ownerID, ids, buckets, reasons, at, bySystem)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != int64(len(recs)) {
			return fmt.Errorf("archive: %d of %d todos still active: %w", tag.RowsAffected(), len(recs), errs.ErrConflict)
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"archive_log"}, archiveLogColumns, pgx.CopyFromRows(logRows))
		if err != nil {
			return err
		}
		if n != int64(len(recs)) {
			return fmt.Errorf("archive: %d of %d log entries written", n, len(recs))
		}
		return nil
	})
}

// Unarchive restores archived todos among ids; each re-enters its scope at the end.
// Ids that are not archived are left as they are.
func (r *TodoRepo) Unarchive(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (out []model.Todo, err error) {
	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, "todos", ownerID); err != nil {
			return err
		}
		q := `SELECT ` + todoColumns + ` FROM todos
WHERE user_id=$1 AND id = ANY($2::uuid[]) AND archived_at IS NOT NULL
ORDER BY archived_at, id`
		rows, err := tx.Query(ctx, q, ownerID, idStrings(ids))
		if err != nil {
			return err
		}
		todos, err := collectTodos(rows)
		if err != nil {
			return err
		}
		if len(todos) == 0 {
			return nil
		}

		next := map[string]int{}
		ups := make([]model.PositionUpdate, 0, len(todos))
		for i := range todos {
			key := scopeKey(todos[i].Scope())
			pos, ok := next[key]
			if !ok {
				items, err := loadScope(ctx, tx, todoScope(ownerID, todos[i].Scope()))
				if err != nil {
					return err
				}
				pos = ordering.Append(items)
			}
			next[key] = pos + 1
			ups = append(ups, model.PositionUpdate{ID: todos[i].ID, Position: pos})

			todos[i].Position = pos
			todos[i].ArchivedAt = nil
			todos[i].ArchivedBucket = nil
			todos[i].ArchivedReason = nil
			todos[i].ArchivedBySystem = false
		}

		upIDs := make([]string, len(ups))
		pos := make([]int, len(ups))
		for i, u := range ups {
			upIDs[i] = u.ID.String()
			pos[i] = u.Position
		}
		const upd = `
UPDATE todos AS t
SET archived_at = NULL, archived_bucket = NULL, archived_reason = NULL, archived_by_system = false,
    position = v.position, updated_at = now()
FROM (SELECT unnest($2::uuid[]) AS id, unnest($3::int[]) AS position) AS v
WHERE t.id = v.id AND t.user_id = $1`
		if _, err := tx.Exec(ctx, upd, ownerID, upIDs, pos); err != nil {
			return err
		}
		out = todos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Move repositions a todo. A different scope rewrites its status and custom status.
func (r *TodoRepo) Move(
	ctx context.Context, ownerID, todoID uuid.UUID, dst model.TodoScope, target int,
) (ups []model.PositionUpdate, err error) {
	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, "todos", ownerID); err != nil {
			return err
		}
		cur, err := getTodo(ctx, tx, ownerID, todoID)
		if err != nil {
			return err
		}
		if cur.Archived() {
			return errs.Invalid("id", "archived todos cannot be reordered")
		}
		src, err := loadScope(ctx, tx, todoScope(ownerID, cur.Scope()))
		if err != nil {
			return err
		}

		if cur.Scope().Equal(dst) {
			if ups, err = ordering.MoveWithin(src, todoID, target); err != nil {
				return err
			}
			return applyPositions(ctx, tx, "todos", ownerID, ups)
		}

		if dst.CustomStatusID != nil {
			if err := checkOwner(ctx, tx, "custom_statuses", ownerID, *dst.CustomStatusID); err != nil {
				return err
			}
		}
		dstItems, err := loadScope(ctx, tx, todoScope(ownerID, dst))
		if err != nil {
			return err
		}
		plan, err := ordering.MoveAcross(src, dstItems, todoID, target)
		if err != nil {
			return err
		}
		const upd = `UPDATE todos SET status=$3, custom_status_id=$4, updated_at=now() WHERE user_id=$1 AND id=$2`
		if _, err := tx.Exec(ctx, upd, ownerID, todoID, string(dst.Status), nullID(dst.CustomStatusID)); err != nil {
			return err
		}
		ups = append(plan.Source, plan.Target...)
		return applyPositions(ctx, tx, "todos", ownerID, ups)
	})
	if err != nil {
		return nil, err
	}
	return ups, nil
}

func getTodo(ctx context.Context, tx pgx.Tx, ownerID, id uuid.UUID) (model.Todo, error) {
	t, err := scanTodo(tx.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Todo{}, fmt.Errorf("todo %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return model.Todo{}, err
	}
	if t.OwnerID != ownerID {
		return model.Todo{}, &errs.OwnershipError{IDs: []uuid.UUID{id}}
	}
	return t, nil
}

func scopeKey(s model.TodoScope) string {
	if s.CustomStatusID == nil {
		return string(s.Status)
	}
	return string(s.Status) + "/" + s.CustomStatusID.String()
}
