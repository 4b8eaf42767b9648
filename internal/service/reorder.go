package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/repository"
)

// ReorderService applies drag-and-drop moves. Every call is one transaction
// in the repository; targets outside the scope append to the end.
type ReorderService interface {
	// MoveTodo moves a todo to target within dst; a different dst changes its status.
	MoveTodo(ctx context.Context, ownerID, todoID uuid.UUID, dst model.TodoScope, target int) ([]model.PositionUpdate, error)
	// MoveTask moves a task to target within dstListID, re-deriving its status.
	MoveTask(ctx context.Context, ownerID, taskID, dstListID uuid.UUID, target int) (model.Task, []model.PositionUpdate, error)
	MoveStatus(ctx context.Context, ownerID, id uuid.UUID, target int) ([]model.PositionUpdate, error)
	MoveProject(ctx context.Context, ownerID, id uuid.UUID, target int) ([]model.PositionUpdate, error)
}

type ReorderServiceImpl struct {
	todos    repository.TodoRepository
	tasks    repository.TaskRepository
	statuses repository.CustomStatusRepository
	projects repository.ProjectRepository
}

// NewReorderService constructs ReorderService.
func NewReorderService(
	todos repository.TodoRepository,
	tasks repository.TaskRepository,
	statuses repository.CustomStatusRepository,
	projects repository.ProjectRepository,
) *ReorderServiceImpl {
	return &ReorderServiceImpl{todos: todos, tasks: tasks, statuses: statuses, projects: projects}
}

func (s *ReorderServiceImpl) MoveTodo(ctx context.Context, ownerID, todoID uuid.UUID, dst model.TodoScope, target int) ([]model.PositionUpdate, error) {
	if err := checkIDs(ownerID, todoID); err != nil {
		return nil, err
	}
	if !dst.Status.ValidForTodo() {
		return nil, errs.Invalid("status", "must be WAIT, IN_PROGRESS or COMPLETE")
	}
	if dst.CustomStatusID != nil && *dst.CustomStatusID == uuid.Nil {
		dst.CustomStatusID = nil
	}
	return s.todos.Move(ctx, ownerID, todoID, dst, target)
}

func (s *ReorderServiceImpl) MoveTask(ctx context.Context, ownerID, taskID, dstListID uuid.UUID, target int) (model.Task, []model.PositionUpdate, error) {
	if err := checkIDs(ownerID, taskID); err != nil {
		return model.Task{}, nil, err
	}
	if dstListID == uuid.Nil {
		return model.Task{}, nil, errs.Invalid("listId", "empty")
	}
	return s.tasks.Move(ctx, ownerID, taskID, dstListID, target)
}

func (s *ReorderServiceImpl) MoveStatus(ctx context.Context, ownerID, id uuid.UUID, target int) ([]model.PositionUpdate, error) {
	if err := checkIDs(ownerID, id); err != nil {
		return nil, err
	}
	return s.statuses.Move(ctx, ownerID, id, target)
}

func (s *ReorderServiceImpl) MoveProject(ctx context.Context, ownerID, id uuid.UUID, target int) ([]model.PositionUpdate, error) {
	if err := checkIDs(ownerID, id); err != nil {
		return nil, err
	}
	return s.projects.Move(ctx, ownerID, id, target)
}

func checkIDs(ownerID, id uuid.UUID) error {
	if ownerID == uuid.Nil {
		return errs.Invalid("ownerId", "empty")
	}
	if id == uuid.Nil {
		return errs.Invalid("id", "empty")
	}
	return nil
}
