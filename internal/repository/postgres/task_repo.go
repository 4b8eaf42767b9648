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

const taskColumns = `id, user_id, task_list_id, title, status, custom_status_id, position, created_at, updated_at`

// TaskRepo implements TaskRepository using PostgreSQL.
type TaskRepo struct{ db *DB }

// NewTaskRepo constructs a task repository.
func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

// CreateList inserts a task list.
func (r *TaskRepo) CreateList(ctx context.Context, l *model.TaskList) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.Must(uuid.NewV4())
	}
	const q = `INSERT INTO task_lists (id, user_id, name, kind) VALUES ($1,$2,$3,$4) RETURNING created_at`
	return r.db.Pool.QueryRow(ctx, q, l.ID, l.OwnerID, l.Name, string(l.Kind)).Scan(&l.CreatedAt)
}

// Create appends t to its list. The list kind decides the status when it maps to one.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.Must(uuid.NewV4())
	}
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, "tasks", t.OwnerID); err != nil {
			return err
		}
		list, err := getList(ctx, tx, t.OwnerID, t.ListID)
		if err != nil {
			return err
		}
		if t.CustomStatusID != nil {
			if err := checkOwner(ctx, tx, "custom_statuses", t.OwnerID, *t.CustomStatusID); err != nil {
				return err
			}
		}
		if st, ok := list.MemberStatus(); ok {
			t.Status = st
		}
		items, err := loadScope(ctx, tx, taskScope(t.OwnerID, t.ListID))
		if err != nil {
			return err
		}
		t.Position = ordering.Append(items)

		const ins = `
INSERT INTO tasks (id, user_id, task_list_id, title, status, custom_status_id, position)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING created_at, updated_at`
		return tx.QueryRow(ctx, ins, t.ID, t.OwnerID, t.ListID, t.Title, string(t.Status), nullID(t.CustomStatusID), t.Position).
			Scan(&t.CreatedAt, &t.UpdatedAt)
	})
}

// Move repositions a task. Crossing lists re-derives the status from the destination list.
func (r *TaskRepo) Move(
	ctx context.Context, ownerID, taskID, dstListID uuid.UUID, target int,
) (task model.Task, ups []model.PositionUpdate, err error) {
	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, "tasks", ownerID); err != nil {
			return err
		}
		if task, err = getTask(ctx, tx, ownerID, taskID); err != nil {
			return err
		}
		src, err := loadScope(ctx, tx, taskScope(ownerID, task.ListID))
		if err != nil {
			return err
		}

		if task.ListID == dstListID {
			if ups, err = ordering.MoveWithin(src, taskID, target); err != nil {
				return err
			}
			return applyPositions(ctx, tx, "tasks", ownerID, ups)
		}

		list, err := getList(ctx, tx, ownerID, dstListID)
		if err != nil {
			return err
		}
		dst, err := loadScope(ctx, tx, taskScope(ownerID, dstListID))
		if err != nil {
			return err
		}
		plan, err := ordering.MoveAcross(src, dst, taskID, target)
		if err != nil {
			return err
		}
		task.ListID = dstListID
		if st, ok := list.MemberStatus(); ok {
			task.Status = st
		}
		const upd = `UPDATE tasks SET task_list_id=$3, status=$4, updated_at=now() WHERE user_id=$1 AND id=$2`
		if _, err := tx.Exec(ctx, upd, ownerID, taskID, dstListID, string(task.Status)); err != nil {
			return err
		}
		ups = append(plan.Source, plan.Target...)
		return applyPositions(ctx, tx, "tasks", ownerID, ups)
	})
	if err != nil {
		return model.Task{}, nil, err
	}
	for _, u := range ups {
		if u.ID == taskID {
			task.Position = u.Position
		}
	}
	return task, ups, nil
}

func getList(ctx context.Context, tx pgx.Tx, ownerID, id uuid.UUID) (model.TaskList, error) {
	var (
		l    model.TaskList
		kind string
	)
	err := tx.QueryRow(ctx, `SELECT id, user_id, name, kind, created_at FROM task_lists WHERE id=$1`, id).
		Scan(&l.ID, &l.OwnerID, &l.Name, &kind, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TaskList{}, fmt.Errorf("task list %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return model.TaskList{}, err
	}
	if l.OwnerID != ownerID {
		return model.TaskList{}, &errs.OwnershipError{IDs: []uuid.UUID{id}}
	}
	l.Kind = model.ListKind(kind)
	return l, nil
}

func getTask(ctx context.Context, tx pgx.Tx, ownerID, id uuid.UUID) (model.Task, error) {
	var (
		t            model.Task
		status       string
		customStatus uuid.NullUUID
	)
	err := tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id).
		Scan(&t.ID, &t.OwnerID, &t.ListID, &t.Title, &status, &customStatus, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, fmt.Errorf("task %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return model.Task{}, err
	}
	if t.OwnerID != ownerID {
		return model.Task{}, &errs.OwnershipError{IDs: []uuid.UUID{id}}
	}
	t.Status = model.Status(status)
	t.CustomStatusID = fromNullID(customStatus)
	return t, nil
}
