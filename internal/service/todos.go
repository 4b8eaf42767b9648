package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/repository"
)

// TodoService creates todos.
type TodoService interface {
	// Create appends a todo to the end of its (status, customStatus) scope.
	Create(ctx context.Context, t model.Todo) (model.Todo, error)
}

type TodoServiceImpl struct {
	repo repository.TodoRepository
}

// NewTodoService constructs TodoService.
func NewTodoService(repo repository.TodoRepository) *TodoServiceImpl {
	return &TodoServiceImpl{repo: repo}
}

// Create validates input and delegates to the repository.
// Rules: owner set, title non-empty, status WAIT (default), IN_PROGRESS or COMPLETE.
func (s *TodoServiceImpl) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	if t.OwnerID == uuid.Nil {
		return model.Todo{}, errs.Invalid("ownerId", "empty")
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return model.Todo{}, errs.Invalid("title", "empty")
	}
	if t.Status == "" {
		t.Status = model.StatusWait
	}
	if !t.Status.ValidForTodo() {
		return model.Todo{}, errs.Invalid("status", "must be WAIT, IN_PROGRESS or COMPLETE")
	}
	t.ID = uuid.Nil
	t.ArchivedAt, t.ArchivedBucket, t.ArchivedReason, t.ArchivedBySystem = nil, nil, nil, false
	if err := s.repo.Create(ctx, &t); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}
