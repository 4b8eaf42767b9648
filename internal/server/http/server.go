// Package httpserver exposes the REST API over echo.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/taskkeeper/internal/service"
	"github.com/and161185/taskkeeper/internal/undo"
)

// Pinger reports storage reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators behind the handlers.
type Deps struct {
	Policies service.PolicyService
	Archive  service.ArchiveService
	Todos    service.TodoService
	Tasks    service.TaskService
	Statuses service.StatusService
	Projects service.ProjectService
	Reorder  service.ReorderService
	Tokens   Verifier
	Undo     *undo.Store
	DB       Pinger
}

// Server is the REST surface.
type Server struct {
	d   Deps
	e   *echo.Echo
	log *zap.Logger
}

// New wires routes and middleware.
func New(log *zap.Logger, d Deps) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log)
	e.Use(loggingMiddleware(log), recoverMiddleware(log))

	s := &Server{d: d, e: e, log: log}

	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1", authMiddleware(d.Tokens))
	api.GET("/archive/policy", s.handleGetPolicy)
	api.PUT("/archive/policy", s.handlePutPolicy)
	api.GET("/archive/log", s.handleArchiveLog)

	api.POST("/todos", s.handleCreateTodo)
	api.POST("/todos/:id/move", s.handleMoveTodo)
	api.POST("/todos/archive", s.handleArchive)
	api.POST("/todos/unarchive", s.handleUnarchive)
	api.POST("/todos/archive/undo", s.handleUndoArchive)

	api.POST("/task-lists", s.handleCreateTaskList)
	api.POST("/tasks", s.handleCreateTask)
	api.POST("/tasks/:id/move", s.handleMoveTask)

	api.POST("/statuses", s.handleCreateStatus)
	api.POST("/statuses/:id/move", s.handleMoveStatus)
	api.DELETE("/statuses/:id", s.handleDeleteStatus)

	api.POST("/projects", s.handleCreateProject)
	api.POST("/projects/:id/move", s.handleMoveProject)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.e }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("http listening", zap.String("addr", addr))
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests for at most timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.e.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.d.DB != nil {
		if err := s.d.DB.Ping(c.Request().Context()); err != nil {
			s.log.Warn("health: storage unreachable", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
