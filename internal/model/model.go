// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Status is the workflow state of a todo or task.
type Status string

const (
	StatusWait       Status = "WAIT"
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
)

// ValidForTodo reports whether s is a todo status (WAIT, IN_PROGRESS, COMPLETE).
func (s Status) ValidForTodo() bool {
	return s == StatusWait || s == StatusInProgress || s == StatusComplete
}

// ValidForTask reports whether s is a task status (TODO, IN_PROGRESS, COMPLETE).
func (s Status) ValidForTask() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusComplete
}

// Todo is a single personal todo item.
type Todo struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Title          string
	Status         Status
	Priority       int
	CustomStatusID *uuid.UUID
	DueDate        *time.Time
	Tags           []string
	Position       int // dense within (OwnerID, Status, CustomStatusID) while active

	ArchivedAt       *time.Time
	ArchivedBucket   *Bucket // non-nil iff ArchivedAt is non-nil
	ArchivedReason   *string
	ArchivedBySystem bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Archived reports whether the todo is out of the active set.
func (t *Todo) Archived() bool { return t.ArchivedAt != nil }

// Scope returns the ordering scope the todo currently belongs to.
func (t *Todo) Scope() TodoScope {
	return TodoScope{Status: t.Status, CustomStatusID: t.CustomStatusID}
}

// TodoScope is the (status, customStatus) part of a todo ordering scope; the owner is implicit.
type TodoScope struct {
	Status         Status
	CustomStatusID *uuid.UUID
}

// Equal reports whether two scopes address the same group.
func (s TodoScope) Equal(o TodoScope) bool {
	if s.Status != o.Status {
		return false
	}
	switch {
	case s.CustomStatusID == nil && o.CustomStatusID == nil:
		return true
	case s.CustomStatusID == nil || o.CustomStatusID == nil:
		return false
	default:
		return *s.CustomStatusID == *o.CustomStatusID
	}
}

// ListKind tags a task list with the status its members carry.
type ListKind string

const (
	ListKindTodo       ListKind = "TODO"
	ListKindInProgress ListKind = "IN_PROGRESS"
	ListKindComplete   ListKind = "COMPLETE"
	ListKindCustom     ListKind = "CUSTOM"
)

// Valid reports whether k is a known list kind.
func (k ListKind) Valid() bool {
	switch k {
	case ListKindTodo, ListKindInProgress, ListKindComplete, ListKindCustom:
		return true
	}
	return false
}

// TaskList is a kanban column.
type TaskList struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Kind      ListKind
	CreatedAt time.Time
}

// MemberStatus derives the status a task takes when it lands in l.
// The explicit kind wins; CUSTOM or empty kinds fall back to the list name.
// ok is false when the task keeps its current status.
func (l TaskList) MemberStatus() (s Status, ok bool) {
	switch l.Kind {
	case ListKindTodo:
		return StatusTodo, true
	case ListKindInProgress:
		return StatusInProgress, true
	case ListKindComplete:
		return StatusComplete, true
	}
	switch strings.ToUpper(strings.TrimSpace(l.Name)) {
	case "TODO":
		return StatusTodo, true
	case "IN PROGRESS", "IN_PROGRESS":
		return StatusInProgress, true
	case "COMPLETE", "COMPLETED":
		return StatusComplete, true
	}
	return "", false
}

// Task is a kanban card; Position is dense within (OwnerID, ListID).
type Task struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	ListID         uuid.UUID
	Title          string
	Status         Status
	CustomStatusID *uuid.UUID
	Position       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CustomStatus is a user-defined status label; Position is dense per owner.
type CustomStatus struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Color     string
	Position  int
	CreatedAt time.Time
}

// Project groups work; Position is dense per owner.
type Project struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Position  int
	CreatedAt time.Time
}

// PositionUpdate is a single row's new position produced by a reorder.
type PositionUpdate struct {
	ID       uuid.UUID
	Position int
}
