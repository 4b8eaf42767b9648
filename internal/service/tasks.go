package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/repository"
)

// TaskService manages kanban lists and tasks.
type TaskService interface {
	CreateList(ctx context.Context, l model.TaskList) (model.TaskList, error)
	Create(ctx context.Context, t model.Task) (model.Task, error)
}

type TaskServiceImpl struct {
	repo repository.TaskRepository
}

// NewTaskService constructs TaskService.
func NewTaskService(repo repository.TaskRepository) *TaskServiceImpl {
	return &TaskServiceImpl{repo: repo}
}

// CreateList defaults the kind to CUSTOM.
func (s *TaskServiceImpl) CreateList(ctx context.Context, l model.TaskList) (model.TaskList, error) {
	if l.OwnerID == uuid.Nil {
		return model.TaskList{}, errs.Invalid("ownerId", "empty")
	}
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return model.TaskList{}, errs.Invalid("name", "empty")
	}
	if l.Kind == "" {
		l.Kind = model.ListKindCustom
	}
	if !l.Kind.Valid() {
		return model.TaskList{}, errs.Invalid("kind", "must be TODO, IN_PROGRESS, COMPLETE or CUSTOM")
	}
	l.ID = uuid.Nil
	if err := s.repo.CreateList(ctx, &l); err != nil {
		return model.TaskList{}, err
	}
	return l, nil
}

// Create appends a task to its list. The list may override the status.
func (s *TaskServiceImpl) Create(ctx context.Context, t model.Task) (model.Task, error) {
	if t.OwnerID == uuid.Nil {
		return model.Task{}, errs.Invalid("ownerId", "empty")
	}
	if t.ListID == uuid.Nil {
		return model.Task{}, errs.Invalid("listId", "empty")
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return model.Task{}, errs.Invalid("title", "empty")
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if !t.Status.ValidForTask() {
		return model.Task{}, errs.Invalid("status", "must be TODO, IN_PROGRESS or COMPLETE")
	}
	t.ID = uuid.Nil
	if err := s.repo.Create(ctx, &t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}
