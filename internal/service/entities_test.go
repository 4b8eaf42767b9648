package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/repository"
)

type fakeTaskRepo struct {
	listIn   model.TaskList
	taskIn   model.Task
	moveArgs []uuid.UUID
	moveTo   int
	moveOut  model.Task
	err      error
}

var _ repository.TaskRepository = (*fakeTaskRepo)(nil)

func (f *fakeTaskRepo) CreateList(_ context.Context, l *model.TaskList) error {
	f.listIn = *l
	l.ID = uuid.Must(uuid.NewV4())
	return f.err
}
func (f *fakeTaskRepo) Create(_ context.Context, t *model.Task) error {
	f.taskIn = *t
	t.Position = 3
	return f.err
}
func (f *fakeTaskRepo) Move(_ context.Context, ownerID, taskID, dst uuid.UUID, target int) (model.Task, []model.PositionUpdate, error) {
	f.moveArgs, f.moveTo = []uuid.UUID{ownerID, taskID, dst}, target
	return f.moveOut, []model.PositionUpdate{{ID: taskID, Position: 0}}, f.err
}

type fakeOwnerScopedRepo struct {
	created int
	moved   []uuid.UUID
	target  int
	deleted uuid.UUID
	err     error
}

var (
	_ repository.CustomStatusRepository = (*fakeStatusRepo)(nil)
	_ repository.ProjectRepository      = (*fakeProjectRepo)(nil)
)

type fakeStatusRepo struct{ fakeOwnerScopedRepo }
type fakeProjectRepo struct{ fakeOwnerScopedRepo }

func (f *fakeOwnerScopedRepo) Move(_ context.Context, ownerID, id uuid.UUID, target int) ([]model.PositionUpdate, error) {
	f.moved, f.target = []uuid.UUID{ownerID, id}, target
	return nil, f.err
}
func (f *fakeStatusRepo) Create(_ context.Context, s *model.CustomStatus) error {
	f.created++
	return f.err
}
func (f *fakeStatusRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	f.deleted = id
	return f.err
}
func (f *fakeProjectRepo) Create(_ context.Context, p *model.Project) error {
	f.created++
	return f.err
}

func TestTodoService_Create(t *testing.T) {
	st := newMemStore()
	svc := NewTodoService(&memTodoRepo{st})
	owner := uuid.Must(uuid.NewV4())

	got, err := svc.Create(context.Background(), model.Todo{OwnerID: owner, Title: "  water plants "})
	require.NoError(t, err)
	require.Equal(t, "water plants", got.Title)
	require.Equal(t, model.StatusWait, got.Status)
	require.NotEqual(t, uuid.Nil, got.ID)

	_, err = svc.Create(context.Background(), model.Todo{OwnerID: owner, Title: " "})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.Create(context.Background(), model.Todo{OwnerID: owner, Title: "x", Status: model.StatusTodo})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.Create(context.Background(), model.Todo{Title: "x"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestTaskService_CreateList_DefaultKind(t *testing.T) {
	repo := &fakeTaskRepo{}
	owner := uuid.Must(uuid.NewV4())

	l, err := NewTaskService(repo).CreateList(context.Background(), model.TaskList{OwnerID: owner, Name: "Backlog"})
	require.NoError(t, err)
	require.Equal(t, model.ListKindCustom, repo.listIn.Kind)
	require.NotEqual(t, uuid.Nil, l.ID)

	_, err = NewTaskService(repo).CreateList(context.Background(), model.TaskList{OwnerID: owner, Name: "x", Kind: "DONE"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestTaskService_Create(t *testing.T) {
	repo := &fakeTaskRepo{}
	owner, list := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	svc := NewTaskService(repo)

	got, err := svc.Create(context.Background(), model.Task{OwnerID: owner, ListID: list, Title: "t"})
	require.NoError(t, err)
	require.Equal(t, model.StatusTodo, repo.taskIn.Status)
	require.Equal(t, 3, got.Position)

	_, err = svc.Create(context.Background(), model.Task{OwnerID: owner, Title: "t"})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.Create(context.Background(), model.Task{OwnerID: owner, ListID: list, Title: "t", Status: model.StatusWait})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestStatusService(t *testing.T) {
	repo := &fakeStatusRepo{}
	svc := NewStatusService(repo)
	owner, id := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	_, err := svc.Create(context.Background(), model.CustomStatus{OwnerID: owner, Name: "Blocked"})
	require.NoError(t, err)
	require.Equal(t, 1, repo.created)
	_, err = svc.Create(context.Background(), model.CustomStatus{OwnerID: owner})
	require.ErrorIs(t, err, errs.ErrValidation)

	require.NoError(t, svc.Delete(context.Background(), owner, id))
	require.Equal(t, id, repo.deleted)

	repo.err = errs.ErrConflict
	require.ErrorIs(t, svc.Delete(context.Background(), owner, id), errs.ErrConflict)
	require.ErrorIs(t, svc.Delete(context.Background(), owner, uuid.Nil), errs.ErrValidation)
}

func TestProjectService_Create(t *testing.T) {
	repo := &fakeProjectRepo{}
	svc := NewProjectService(repo)
	owner := uuid.Must(uuid.NewV4())

	p, err := svc.Create(context.Background(), model.Project{OwnerID: owner, Name: " home "})
	require.NoError(t, err)
	require.Equal(t, "home", p.Name)

	repo.err = errors.New("db down")
	_, err = svc.Create(context.Background(), model.Project{OwnerID: owner, Name: "x"})
	require.EqualError(t, err, "db down")
}

func TestReorderService(t *testing.T) {
	tasks := &fakeTaskRepo{}
	statuses := &fakeStatusRepo{}
	projects := &fakeProjectRepo{}
	svc := NewReorderService(&memTodoRepo{newMemStore()}, tasks, statuses, projects)
	ctx := context.Background()
	owner, id, list := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	_, err := svc.MoveTodo(ctx, owner, id, model.TodoScope{Status: model.StatusTodo}, 0)
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.MoveTodo(ctx, owner, id, model.TodoScope{Status: model.StatusInProgress}, -1)
	require.NoError(t, err)

	_, ups, err := svc.MoveTask(ctx, owner, id, list, 7)
	require.NoError(t, err)
	require.Len(t, ups, 1)
	require.Equal(t, []uuid.UUID{owner, id, list}, tasks.moveArgs)
	require.Equal(t, 7, tasks.moveTo)
	_, _, err = svc.MoveTask(ctx, owner, id, uuid.Nil, 0)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.MoveStatus(ctx, owner, id, 2)
	require.NoError(t, err)
	require.Equal(t, 2, statuses.target)

	_, err = svc.MoveProject(ctx, uuid.Nil, id, 0)
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.MoveProject(ctx, owner, id, 1)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{owner, id}, projects.moved)
}
