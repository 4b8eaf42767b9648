package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/service"
)

func owner(c echo.Context) (uuid.UUID, error) {
	id, ok := OwnerIDFromCtx(c.Request().Context())
	if !ok {
		return uuid.Nil, fmt.Errorf("no owner in context: %w", errs.ErrUnauthorized)
	}
	return id, nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		return uuid.Nil, errs.Invalid("id", "not a uuid")
	}
	return id, nil
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errs.Invalid("body", "malformed json")
	}
	return nil
}

// --- archive ---

func (s *Server) handleGetPolicy(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	p, err := s.d.Policies.GetOrDefault(c.Request().Context(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, policyOut(p))
}

func (s *Server) handlePutPolicy(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req policyPatchJSON
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.d.Policies.Upsert(c.Request().Context(), ownerID, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, policyOut(p))
}

func (s *Server) handleArchiveLog(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var bucket *model.Bucket
	if v := c.QueryParam("bucket"); v != "" {
		b := model.Bucket(v)
		bucket = &b
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return errs.Invalid("limit", "not an integer")
		}
	}
	entries, err := s.d.Archive.ListLog(c.Request().Context(), ownerID, bucket, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": logEntriesOut(entries)})
}

type archiveReq struct {
	IDs    []uuid.UUID   `json:"ids"`
	Bucket *model.Bucket `json:"bucket"`
	Reason *string       `json:"reason"`
}

type archiveResp struct {
	Todos         []todoJSON `json:"todos"`
	UndoToken     *uuid.UUID `json:"undoToken,omitempty"`
	UndoExpiresAt *time.Time `json:"undoExpiresAt,omitempty"`
}

func (s *Server) handleArchive(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req archiveReq
	if err := bind(c, &req); err != nil {
		return err
	}
	todos, err := s.d.Archive.Archive(c.Request().Context(), ownerID, req.IDs, service.ArchiveOptions{
		Bucket: req.Bucket,
		Reason: req.Reason,
	})
	if err != nil {
		return err
	}

	resp := archiveResp{Todos: todosOut(todos)}
	if ids := archivedByCall(todos); len(ids) > 0 && s.d.Undo != nil {
		token, exp, err := s.d.Undo.Put(ownerID, ids)
		if err != nil {
			return err
		}
		resp.UndoToken, resp.UndoExpiresAt = &token, &exp
	}
	return c.JSON(http.StatusOK, resp)
}

// archivedByCall picks the todos a manual archive call changed. They share
// one timestamp, later than any earlier archive among the batch.
func archivedByCall(todos []model.Todo) []uuid.UUID {
	var latest time.Time
	for _, t := range todos {
		if t.ArchivedAt != nil && t.ArchivedAt.After(latest) {
			latest = *t.ArchivedAt
		}
	}
	var ids []uuid.UUID
	for _, t := range todos {
		if t.ArchivedAt != nil && t.ArchivedAt.Equal(latest) && !t.ArchivedBySystem {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

type idsReq struct {
	IDs []uuid.UUID `json:"ids"`
}

func (s *Server) handleUnarchive(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req idsReq
	if err := bind(c, &req); err != nil {
		return err
	}
	todos, err := s.d.Archive.Unarchive(c.Request().Context(), ownerID, req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"todos": todosOut(todos)})
}

type undoReq struct {
	Token uuid.UUID `json:"token"`
}

func (s *Server) handleUndoArchive(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req undoReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Token == uuid.Nil {
		return errs.Invalid("token", "empty")
	}
	if s.d.Undo == nil {
		return fmt.Errorf("undo disabled: %w", errs.ErrNotFound)
	}
	ids, err := s.d.Undo.Take(req.Token, ownerID)
	if err != nil {
		return err
	}
	todos, err := s.d.Archive.Unarchive(c.Request().Context(), ownerID, ids)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"todos": todosOut(todos)})
}

// --- todos ---

type createTodoReq struct {
	Title          string       `json:"title"`
	Status         model.Status `json:"status"`
	Priority       int          `json:"priority"`
	CustomStatusID *uuid.UUID   `json:"customStatusId"`
	DueDate        *time.Time   `json:"dueDate"`
	Tags           []string     `json:"tags"`
}

func (s *Server) handleCreateTodo(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req createTodoReq
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := s.d.Todos.Create(c.Request().Context(), model.Todo{
		OwnerID:        ownerID,
		Title:          req.Title,
		Status:         req.Status,
		Priority:       req.Priority,
		CustomStatusID: req.CustomStatusID,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, todoOut(t))
}

type moveTodoReq struct {
	Status         model.Status `json:"status"`
	CustomStatusID *uuid.UUID   `json:"customStatusId"`
	Target         int          `json:"target"`
}

func (s *Server) handleMoveTodo(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req moveTodoReq
	if err := bind(c, &req); err != nil {
		return err
	}
	dst := model.TodoScope{Status: req.Status, CustomStatusID: req.CustomStatusID}
	ups, err := s.d.Reorder.MoveTodo(c.Request().Context(), ownerID, id, dst, req.Target)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, moved(ups))
}

// --- tasks ---

type createListReq struct {
	Name string         `json:"name"`
	Kind model.ListKind `json:"kind"`
}

func (s *Server) handleCreateTaskList(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req createListReq
	if err := bind(c, &req); err != nil {
		return err
	}
	l, err := s.d.Tasks.CreateList(c.Request().Context(), model.TaskList{OwnerID: ownerID, Name: req.Name, Kind: req.Kind})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, taskListJSON{ID: l.ID, Name: l.Name, Kind: l.Kind, CreatedAt: l.CreatedAt})
}

type createTaskReq struct {
	ListID         uuid.UUID    `json:"listId"`
	Title          string       `json:"title"`
	Status         model.Status `json:"status"`
	CustomStatusID *uuid.UUID   `json:"customStatusId"`
}

func (s *Server) handleCreateTask(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req createTaskReq
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := s.d.Tasks.Create(c.Request().Context(), model.Task{
		OwnerID:        ownerID,
		ListID:         req.ListID,
		Title:          req.Title,
		Status:         req.Status,
		CustomStatusID: req.CustomStatusID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, taskOut(t))
}

type moveTaskReq struct {
	ListID uuid.UUID `json:"listId"`
	Target int       `json:"target"`
}

func (s *Server) handleMoveTask(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req moveTaskReq
	if err := bind(c, &req); err != nil {
		return err
	}
	t, ups, err := s.d.Reorder.MoveTask(c.Request().Context(), ownerID, id, req.ListID, req.Target)
	if err != nil {
		return err
	}
	out := moved(ups)
	tj := taskOut(t)
	out.Task = &tj
	return c.JSON(http.StatusOK, out)
}

// --- statuses & projects ---

type createStatusReq struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleCreateStatus(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req createStatusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	cs, err := s.d.Statuses.Create(c.Request().Context(), model.CustomStatus{OwnerID: ownerID, Name: req.Name, Color: req.Color})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, statusJSON{ID: cs.ID, Name: cs.Name, Color: cs.Color, Position: cs.Position, CreatedAt: cs.CreatedAt})
}

type targetReq struct {
	Target int `json:"target"`
}

func (s *Server) handleMoveStatus(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req targetReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ups, err := s.d.Reorder.MoveStatus(c.Request().Context(), ownerID, id, req.Target)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, moved(ups))
}

func (s *Server) handleDeleteStatus(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.d.Statuses.Delete(c.Request().Context(), ownerID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type createProjectReq struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateProject(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req createProjectReq
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.d.Projects.Create(c.Request().Context(), model.Project{OwnerID: ownerID, Name: req.Name})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, projectJSON{ID: p.ID, Name: p.Name, Position: p.Position, CreatedAt: p.CreatedAt})
}

func (s *Server) handleMoveProject(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req targetReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ups, err := s.d.Reorder.MoveProject(c.Request().Context(), ownerID, id, req.Target)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, moved(ups))
}
