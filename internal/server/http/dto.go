package httpserver

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/model"
)

type todoJSON struct {
	ID               uuid.UUID     `json:"id"`
	Title            string        `json:"title"`
	Status           model.Status  `json:"status"`
	Priority         int           `json:"priority"`
	CustomStatusID   *uuid.UUID    `json:"customStatusId"`
	DueDate          *time.Time    `json:"dueDate"`
	Tags             []string      `json:"tags"`
	Position         int           `json:"position"`
	ArchivedAt       *time.Time    `json:"archivedAt"`
	ArchivedBucket   *model.Bucket `json:"archivedBucket"`
	ArchivedReason   *string       `json:"archivedReason"`
	ArchivedBySystem bool          `json:"archivedBySystem"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func todoOut(t model.Todo) todoJSON {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return todoJSON{
		ID:               t.ID,
		Title:            t.Title,
		Status:           t.Status,
		Priority:         t.Priority,
		CustomStatusID:   t.CustomStatusID,
		DueDate:          t.DueDate,
		Tags:             tags,
		Position:         t.Position,
		ArchivedAt:       t.ArchivedAt,
		ArchivedBucket:   t.ArchivedBucket,
		ArchivedReason:   t.ArchivedReason,
		ArchivedBySystem: t.ArchivedBySystem,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func todosOut(ts []model.Todo) []todoJSON {
	out := make([]todoJSON, len(ts))
	for i, t := range ts {
		out[i] = todoOut(t)
	}
	return out
}

type policyJSON struct {
	AutoArchiveEnabled         bool            `json:"autoArchiveEnabled"`
	AutoArchiveTime            string          `json:"autoArchiveTime"`
	UnfinishedGraceDays        int             `json:"unfinishedGraceDays"`
	UnfinishedGraceUnit        model.GraceUnit `json:"unfinishedGraceUnit"`
	CleanupFinishedAfterDays   *int            `json:"cleanupFinishedAfterDays"`
	CleanupUnfinishedAfterDays *int            `json:"cleanupUnfinishedAfterDays"`
	UpdatedAt                  *time.Time      `json:"updatedAt,omitempty"`
}

func policyOut(p model.ArchivePolicy) policyJSON {
	out := policyJSON{
		AutoArchiveEnabled:         p.AutoArchiveEnabled,
		AutoArchiveTime:            p.AutoArchiveTime,
		UnfinishedGraceDays:        p.UnfinishedGraceDays,
		UnfinishedGraceUnit:        p.UnfinishedGraceUnit,
		CleanupFinishedAfterDays:   p.CleanupFinishedAfterDays,
		CleanupUnfinishedAfterDays: p.CleanupUnfinishedAfterDays,
	}
	if !p.UpdatedAt.IsZero() {
		u := p.UpdatedAt
		out.UpdatedAt = &u
	}
	return out
}

// nullableInt tells an explicit null apart from an absent field.
type nullableInt struct {
	Set   bool
	Value *int
}

func (n *nullableInt) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

type policyPatchJSON struct {
	AutoArchiveEnabled         *bool            `json:"autoArchiveEnabled"`
	AutoArchiveTime            *string          `json:"autoArchiveTime"`
	UnfinishedGraceDays        *int             `json:"unfinishedGraceDays"`
	UnfinishedGraceUnit        *model.GraceUnit `json:"unfinishedGraceUnit"`
	CleanupFinishedAfterDays   nullableInt      `json:"cleanupFinishedAfterDays"`
	CleanupUnfinishedAfterDays nullableInt      `json:"cleanupUnfinishedAfterDays"`
}

// patch maps the request; null retention means keep forever.
func (r policyPatchJSON) patch() model.PolicyPatch {
	p := model.PolicyPatch{
		AutoArchiveEnabled:  r.AutoArchiveEnabled,
		AutoArchiveTime:     r.AutoArchiveTime,
		UnfinishedGraceDays: r.UnfinishedGraceDays,
		UnfinishedGraceUnit: r.UnfinishedGraceUnit,
	}
	if r.CleanupFinishedAfterDays.Set {
		p.CleanupFinishedAfterDays = r.CleanupFinishedAfterDays.Value
		p.ClearCleanupFinished = r.CleanupFinishedAfterDays.Value == nil
	}
	if r.CleanupUnfinishedAfterDays.Set {
		p.CleanupUnfinishedAfterDays = r.CleanupUnfinishedAfterDays.Value
		p.ClearCleanupUnfinished = r.CleanupUnfinishedAfterDays.Value == nil
	}
	return p
}

type logEntryJSON struct {
	ID           uuid.UUID    `json:"id"`
	TodoID       uuid.UUID    `json:"todoId"`
	Bucket       model.Bucket `json:"bucket"`
	Reason       string       `json:"reason"`
	AutoArchived bool         `json:"autoArchived"`
	ArchivedAt   time.Time    `json:"archivedAt"`
	Snapshot     snapshotJSON `json:"snapshot"`
}

type snapshotJSON struct {
	Title          string       `json:"title"`
	Status         model.Status `json:"status"`
	Priority       int          `json:"priority"`
	DueDate        *time.Time   `json:"dueDate"`
	CustomStatusID *uuid.UUID   `json:"customStatusId"`
	Tags           []string     `json:"tags"`
}

func logEntriesOut(es []model.ArchiveLogEntry) []logEntryJSON {
	out := make([]logEntryJSON, len(es))
	for i, e := range es {
		out[i] = logEntryJSON{
			ID:           e.ID,
			TodoID:       e.TodoID,
			Bucket:       e.Bucket,
			Reason:       e.Reason,
			AutoArchived: e.AutoArchived,
			ArchivedAt:   e.ArchivedAt,
			Snapshot: snapshotJSON{
				Title:          e.Snapshot.Title,
				Status:         e.Snapshot.Status,
				Priority:       e.Snapshot.Priority,
				DueDate:        e.Snapshot.DueDate,
				CustomStatusID: e.Snapshot.CustomStatusID,
				Tags:           e.Snapshot.Tags,
			},
		}
	}
	return out
}

type taskJSON struct {
	ID             uuid.UUID    `json:"id"`
	ListID         uuid.UUID    `json:"listId"`
	Title          string       `json:"title"`
	Status         model.Status `json:"status"`
	CustomStatusID *uuid.UUID   `json:"customStatusId"`
	Position       int          `json:"position"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func taskOut(t model.Task) taskJSON {
	return taskJSON{
		ID:             t.ID,
		ListID:         t.ListID,
		Title:          t.Title,
		Status:         t.Status,
		CustomStatusID: t.CustomStatusID,
		Position:       t.Position,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

type taskListJSON struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Kind      model.ListKind `json:"kind"`
	CreatedAt time.Time      `json:"createdAt"`
}

type statusJSON struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

type projectJSON struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

type positionJSON struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
}

type movedJSON struct {
	Updates []positionJSON `json:"updates"`
	Task    *taskJSON      `json:"task,omitempty"`
}

func moved(ups []model.PositionUpdate) movedJSON {
	out := movedJSON{Updates: make([]positionJSON, len(ups))}
	for i, u := range ups {
		out.Updates[i] = positionJSON{ID: u.ID, Position: u.Position}
	}
	return out
}
