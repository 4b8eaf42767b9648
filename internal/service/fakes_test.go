package service

import (
	"context"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/repository"
)

// memStore is an in-memory persistence port shared by the fakes below.
type memStore struct {
	todos    map[uuid.UUID]*model.Todo
	logs     []model.ArchiveLogEntry
	policies map[uuid.UUID]model.ArchivePolicy

	archiveErr map[uuid.UUID]error // per owner
	listErr    error
	archived   int // Archive calls that wrote something
}

func newMemStore() *memStore {
	return &memStore{
		todos:      map[uuid.UUID]*model.Todo{},
		policies:   map[uuid.UUID]model.ArchivePolicy{},
		archiveErr: map[uuid.UUID]error{},
	}
}

func (s *memStore) add(t model.Todo) model.Todo {
	if t.ID == uuid.Nil {
		t.ID = uuid.Must(uuid.NewV4())
	}
	cp := t
	s.todos[t.ID] = &cp
	return t
}

type memTodoRepo struct{ st *memStore }
type memPolicyRepo struct{ st *memStore }
type memLogRepo struct{ st *memStore }

var (
	_ repository.TodoRepository       = (*memTodoRepo)(nil)
	_ repository.PolicyRepository     = (*memPolicyRepo)(nil)
	_ repository.ArchiveLogRepository = (*memLogRepo)(nil)
)

func (r *memTodoRepo) Create(_ context.Context, t *model.Todo) error {
	t.ID = uuid.Must(uuid.NewV4())
	r.st.add(*t)
	return nil
}

func (r *memTodoRepo) GetByIDs(_ context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]model.Todo, error) {
	var out []model.Todo
	for _, id := range ids {
		if t, ok := r.st.todos[id]; ok && t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memTodoRepo) ListArchiveCandidates(_ context.Context, ownerID uuid.UUID, now time.Time) ([]model.Todo, error) {
	if r.st.listErr != nil {
		return nil, r.st.listErr
	}
	var out []model.Todo
	for _, t := range r.st.todos {
		if t.OwnerID != ownerID || t.Archived() {
			continue
		}
		overdue := t.DueDate != nil && !t.DueDate.After(now)
		if t.Status == model.StatusComplete || ((t.Status == model.StatusWait || t.Status == model.StatusInProgress) && overdue) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *memTodoRepo) Archive(_ context.Context, ownerID uuid.UUID, recs []model.ArchiveRecord) error {
	if err := r.st.archiveErr[ownerID]; err != nil {
		return err
	}
	for _, rec := range recs {
		if t := r.st.todos[rec.Todo.ID]; t == nil || t.Archived() {
			return errs.ErrConflict
		}
	}
	for _, rec := range recs {
		t := r.st.todos[rec.Todo.ID]
		at, b, reason := rec.ArchivedAt, rec.Bucket, rec.Reason
		t.ArchivedAt, t.ArchivedBucket, t.ArchivedReason, t.ArchivedBySystem = &at, &b, &reason, rec.AutoArchived
		r.st.logs = append(r.st.logs, model.ArchiveLogEntry{
			ID: uuid.Must(uuid.NewV4()), TodoID: t.ID, OwnerID: ownerID, Bucket: b, Reason: reason,
			AutoArchived: rec.AutoArchived, ArchivedAt: at, Snapshot: model.SnapshotOf(rec.Todo),
		})
	}
	if len(recs) > 0 {
		r.st.archived++
	}
	return nil
}

func (r *memTodoRepo) Unarchive(_ context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]model.Todo, error) {
	var out []model.Todo
	for _, id := range ids {
		t := r.st.todos[id]
		if t == nil || t.OwnerID != ownerID || !t.Archived() {
			continue
		}
		t.ArchivedAt, t.ArchivedBucket, t.ArchivedReason, t.ArchivedBySystem = nil, nil, nil, false
		out = append(out, *t)
	}
	return out, nil
}

func (r *memTodoRepo) Move(context.Context, uuid.UUID, uuid.UUID, model.TodoScope, int) ([]model.PositionUpdate, error) {
	return nil, nil
}

func (r *memPolicyRepo) Get(_ context.Context, ownerID uuid.UUID) (*model.ArchivePolicy, error) {
	p, ok := r.st.policies[ownerID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (r *memPolicyRepo) Upsert(_ context.Context, p model.ArchivePolicy) (model.ArchivePolicy, error) {
	p.UpdatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.st.policies[p.OwnerID] = p
	return p, nil
}

func (r *memPolicyRepo) ListEnabled(context.Context) ([]model.ArchivePolicy, error) {
	var out []model.ArchivePolicy
	for _, p := range r.st.policies {
		if p.AutoArchiveEnabled {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID.String() < out[j].OwnerID.String() })
	return out, nil
}

func (r *memPolicyRepo) ListOwnersWithoutPolicy(context.Context) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, t := range r.st.todos {
		if _, ok := r.st.policies[t.OwnerID]; ok || seen[t.OwnerID] {
			continue
		}
		seen[t.OwnerID] = true
		out = append(out, t.OwnerID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (r *memLogRepo) List(_ context.Context, ownerID uuid.UUID, bucket *model.Bucket, limit int) ([]model.ArchiveLogEntry, error) {
	var out []model.ArchiveLogEntry
	for i := len(r.st.logs) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.st.logs[i]
		if e.OwnerID == ownerID && (bucket == nil || e.Bucket == *bucket) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memLogRepo) Purge(_ context.Context, ownerID uuid.UUID, bucket model.Bucket, cutoff time.Time) (int64, int64, error) {
	var logs, todos int64
	kept := r.st.logs[:0]
	for _, e := range r.st.logs {
		if e.OwnerID == ownerID && e.Bucket == bucket && !e.ArchivedAt.After(cutoff) {
			logs++
			continue
		}
		kept = append(kept, e)
	}
	r.st.logs = kept
	for id, t := range r.st.todos {
		if t.OwnerID == ownerID && t.Archived() && *t.ArchivedBucket == bucket && !t.ArchivedAt.After(cutoff) {
			delete(r.st.todos, id)
			todos++
		}
	}
	return logs, todos, nil
}

func ptr[T any](v T) *T { return &v }
