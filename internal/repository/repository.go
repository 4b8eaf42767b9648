// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/model"
)

// TodoRepository provides todo persistence, archive transitions and reordering.
type TodoRepository interface {
	// Create inserts t at the end of its ordering scope and fills ID, Position and timestamps.
	Create(ctx context.Context, t *model.Todo) error

	// GetByIDs returns the todos among ids that belong to ownerID.
	GetByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]model.Todo, error)

	// ListArchiveCandidates returns active todos that are complete or past due at now.
	ListArchiveCandidates(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]model.Todo, error)

	// Archive applies all records and inserts their audit entries atomically.
	Archive(ctx context.Context, ownerID uuid.UUID, recs []model.ArchiveRecord) error

	// Unarchive clears archive fields of ids and appends them to their scopes.
	Unarchive(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]model.Todo, error)

	// Move repositions a todo within or across (status, customStatus) scopes.
	Move(ctx context.Context, ownerID, todoID uuid.UUID, dst model.TodoScope, target int) ([]model.PositionUpdate, error)
}

// PolicyRepository stores per-owner archive policies.
type PolicyRepository interface {
	// Get returns the stored policy or errs.ErrNotFound.
	Get(ctx context.Context, ownerID uuid.UUID) (*model.ArchivePolicy, error)

	// Upsert writes the full policy.
	Upsert(ctx context.Context, p model.ArchivePolicy) (model.ArchivePolicy, error)

	// ListEnabled returns stored policies with auto archiving on.
	ListEnabled(ctx context.Context) ([]model.ArchivePolicy, error)

	// ListOwnersWithoutPolicy returns owners that have todos but never saved a policy.
	ListOwnersWithoutPolicy(ctx context.Context) ([]uuid.UUID, error)
}

// ArchiveLogRepository reads and prunes the archive audit trail.
type ArchiveLogRepository interface {
	// List returns the newest entries first; bucket nil means any.
	List(ctx context.Context, ownerID uuid.UUID, bucket *model.Bucket, limit int) ([]model.ArchiveLogEntry, error)

	// Purge deletes log entries and archived todos of bucket archived at or before cutoff.
	Purge(ctx context.Context, ownerID uuid.UUID, bucket model.Bucket, cutoff time.Time) (logs, todos int64, err error)
}

// TaskRepository provides kanban lists and tasks.
type TaskRepository interface {
	// CreateList inserts a task list.
	CreateList(ctx context.Context, l *model.TaskList) error

	// Create inserts t at the end of its list.
	Create(ctx context.Context, t *model.Task) error

	// Move repositions a task within its list or into another list, re-deriving its status.
	Move(ctx context.Context, ownerID, taskID, dstListID uuid.UUID, target int) (model.Task, []model.PositionUpdate, error)
}

// CustomStatusRepository provides user-defined statuses.
type CustomStatusRepository interface {
	// Create inserts s at the end of the owner's statuses.
	Create(ctx context.Context, s *model.CustomStatus) error

	// Move repositions a status.
	Move(ctx context.Context, ownerID, id uuid.UUID, target int) ([]model.PositionUpdate, error)

	// Delete removes an unreferenced status and closes the gap; errs.ErrConflict if referenced.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// ProjectRepository provides projects.
type ProjectRepository interface {
	// Create inserts p at the end of the owner's projects.
	Create(ctx context.Context, p *model.Project) error

	// Move repositions a project.
	Move(ctx context.Context, ownerID, id uuid.UUID, target int) ([]model.PositionUpdate, error)
}
