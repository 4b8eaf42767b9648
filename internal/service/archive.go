package service

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/archive"
	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/repository"
)

// ManualReason is recorded when the caller supplies no reason.
const ManualReason = "Archived manually"

// DefaultLogLimit bounds archive log listings without an explicit limit.
const DefaultLogLimit = 100

// ArchiveOptions tune a manual archive request.
type ArchiveOptions struct {
	// Bucket overrides the status-derived bucket for every todo.
	Bucket *model.Bucket
	// Reason overrides ManualReason.
	Reason *string
	// AutoArchived marks the entries as system-made.
	AutoArchived bool
}

// ArchiveService is the interactive archive path.
type ArchiveService interface {
	// Archive archives todoIds of ownerID. All ids must be owned or nothing happens.
	Archive(ctx context.Context, ownerID uuid.UUID, todoIDs []uuid.UUID, opts ArchiveOptions) ([]model.Todo, error)
	// Unarchive returns archived todos among todoIds to the active set.
	Unarchive(ctx context.Context, ownerID uuid.UUID, todoIDs []uuid.UUID) ([]model.Todo, error)
	// ListLog returns audit entries newest first.
	ListLog(ctx context.Context, ownerID uuid.UUID, bucket *model.Bucket, limit int) ([]model.ArchiveLogEntry, error)
}

type ArchiveServiceImpl struct {
	todos repository.TodoRepository
	logs  repository.ArchiveLogRepository
	now   func() time.Time
}

// NewArchiveService constructs ArchiveService. now defaults to time.Now.
func NewArchiveService(todos repository.TodoRepository, logs repository.ArchiveLogRepository, now func() time.Time) *ArchiveServiceImpl {
	if now == nil {
		now = time.Now
	}
	return &ArchiveServiceImpl{todos: todos, logs: logs, now: now}
}

// Archive validates ownership of the whole batch before writing anything.
// Todos that are already archived are returned unchanged.
func (s *ArchiveServiceImpl) Archive(ctx context.Context, ownerID uuid.UUID, todoIDs []uuid.UUID, opts ArchiveOptions) ([]model.Todo, error) {
	if ownerID == uuid.Nil {
		return nil, errs.Invalid("ownerId", "empty")
	}
	if opts.Bucket != nil && !opts.Bucket.Valid() {
		return nil, errs.Invalid("bucket", "must be FINISHED or UNFINISHED")
	}
	ids, err := uniqueIDs(todoIDs)
	if err != nil {
		return nil, err
	}
	todos, err := s.owned(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}

	reason := ManualReason
	if opts.Reason != nil && strings.TrimSpace(*opts.Reason) != "" {
		reason = strings.TrimSpace(*opts.Reason)
	}
	at := s.now()
	recs := make([]model.ArchiveRecord, 0, len(todos))
	for _, t := range todos {
		if t.Archived() {
			continue
		}
		b := archive.ManualBucket(t)
		if opts.Bucket != nil {
			b = *opts.Bucket
		}
		recs = append(recs, model.ArchiveRecord{Todo: t, Bucket: b, Reason: reason, AutoArchived: opts.AutoArchived, ArchivedAt: at})
	}
	if err := s.todos.Archive(ctx, ownerID, recs); err != nil {
		return nil, err
	}

	done := make(map[uuid.UUID]model.ArchiveRecord, len(recs))
	for _, r := range recs {
		done[r.Todo.ID] = r
	}
	for i := range todos {
		r, ok := done[todos[i].ID]
		if !ok {
			continue
		}
		at, b, reason := r.ArchivedAt, r.Bucket, r.Reason
		todos[i].ArchivedAt, todos[i].ArchivedBucket, todos[i].ArchivedReason = &at, &b, &reason
		todos[i].ArchivedBySystem = r.AutoArchived
	}
	return todos, nil
}

// Unarchive leaves the audit log untouched.
func (s *ArchiveServiceImpl) Unarchive(ctx context.Context, ownerID uuid.UUID, todoIDs []uuid.UUID) ([]model.Todo, error) {
	if ownerID == uuid.Nil {
		return nil, errs.Invalid("ownerId", "empty")
	}
	ids, err := uniqueIDs(todoIDs)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, ownerID, ids); err != nil {
		return nil, err
	}
	return s.todos.Unarchive(ctx, ownerID, ids)
}

// ListLog applies DefaultLogLimit to non-positive limits.
func (s *ArchiveServiceImpl) ListLog(ctx context.Context, ownerID uuid.UUID, bucket *model.Bucket, limit int) ([]model.ArchiveLogEntry, error) {
	if ownerID == uuid.Nil {
		return nil, errs.Invalid("ownerId", "empty")
	}
	if bucket != nil && !bucket.Valid() {
		return nil, errs.Invalid("bucket", "must be FINISHED or UNFINISHED")
	}
	if limit <= 0 || limit > 1000 {
		limit = DefaultLogLimit
	}
	return s.logs.List(ctx, ownerID, bucket, limit)
}

// owned loads ids and fails with OwnershipError listing every id the owner
// does not have. Unknown ids are reported the same way as foreign ones.
func (s *ArchiveServiceImpl) owned(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]model.Todo, error) {
	todos, err := s.todos.GetByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	have := make(map[uuid.UUID]bool, len(todos))
	for _, t := range todos {
		if t.OwnerID == ownerID {
			have[t.ID] = true
		}
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &errs.OwnershipError{IDs: missing}
	}
	return todos, nil
}

func uniqueIDs(ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, errs.Invalid("todoIds", "empty")
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, errs.Invalid("todoIds", "contains empty id")
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
