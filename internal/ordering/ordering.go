// Package ordering computes position assignments for records kept in a dense
// 0..n-1 order inside a scope (owner+status, owner+list, owner).
//
// The functions are pure: they take the current rows of the affected scopes and
// return the rows whose position must change. Callers apply the result in one
// transaction. Input positions may contain gaps (for example after items left the
// scope through archiving); the result always re-densifies the scopes it touches.
package ordering

import (
	"fmt"
	"sort"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
)

// Item is one row of a scope.
type Item struct {
	ID       uuid.UUID
	Position int
}

// Plan is the outcome of a cross-scope move.
type Plan struct {
	// Source holds updates that close the gap left in the source scope.
	Source []model.PositionUpdate
	// Target holds updates for the destination scope; it always includes the moved item.
	Target []model.PositionUpdate
}

// Append returns the position for a new item: max+1, or 0 for an empty scope.
func Append(items []Item) int {
	next := 0
	for _, it := range items {
		if it.Position >= next {
			next = it.Position + 1
		}
	}
	return next
}

// Clamp maps target onto [0, n]. Negative or too large targets mean "end".
func Clamp(target, n int) int {
	if target < 0 || target > n {
		return n
	}
	return target
}

// MoveWithin moves id to target inside a single scope.
func MoveWithin(items []Item, id uuid.UUID, target int) ([]model.PositionUpdate, error) {
	seq := sorted(items)
	idx := indexOf(seq, id)
	if idx < 0 {
		return nil, fmt.Errorf("item %s not in scope: %w", id, errs.ErrNotFound)
	}
	moved := seq[idx]
	rest := remove(seq, idx)
	out := insert(rest, Clamp(target, len(rest)), moved)
	return diff(out, uuid.Nil), nil
}

// MoveAcross moves id out of src and into dst at target.
// dst must not contain id; if it does, that row is ignored.
func MoveAcross(src, dst []Item, id uuid.UUID, target int) (Plan, error) {
	seq := sorted(src)
	idx := indexOf(seq, id)
	if idx < 0 {
		return Plan{}, fmt.Errorf("item %s not in source scope: %w", id, errs.ErrNotFound)
	}
	moved := seq[idx]
	rest := remove(seq, idx)

	dseq := sorted(dst)
	if j := indexOf(dseq, id); j >= 0 {
		dseq = remove(dseq, j)
	}
	out := insert(dseq, Clamp(target, len(dseq)), moved)

	return Plan{
		Source: diff(rest, uuid.Nil),
		Target: diff(out, id),
	}, nil
}

// Normalize returns the updates that turn items into a dense 0..n-1 sequence,
// keeping their relative order.
func Normalize(items []Item) []model.PositionUpdate {
	return diff(sorted(items), uuid.Nil)
}

func sorted(items []Item) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func indexOf(seq []Item, id uuid.UUID) int {
	for i, it := range seq {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func remove(seq []Item, idx int) []Item {
	out := make([]Item, 0, len(seq)-1)
	out = append(out, seq[:idx]...)
	return append(out, seq[idx+1:]...)
}

func insert(seq []Item, at int, it Item) []Item {
	out := make([]Item, 0, len(seq)+1)
	out = append(out, seq[:at]...)
	out = append(out, it)
	return append(out, seq[at:]...)
}

// diff emits rows whose index differs from their stored position; force is
// emitted regardless.
func diff(seq []Item, force uuid.UUID) []model.PositionUpdate {
	var out []model.PositionUpdate
	for i, it := range seq {
		if it.Position != i || (force != uuid.Nil && it.ID == force) {
			out = append(out, model.PositionUpdate{ID: it.ID, Position: i})
		}
	}
	return out
}
