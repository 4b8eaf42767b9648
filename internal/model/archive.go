package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Bucket is the archive classification of a todo.
type Bucket string

const (
	BucketFinished   Bucket = "FINISHED"
	BucketUnfinished Bucket = "UNFINISHED"
)

// Valid reports whether b is a known bucket.
func (b Bucket) Valid() bool { return b == BucketFinished || b == BucketUnfinished }

// GraceUnit selects how unfinished grace is measured.
type GraceUnit string

const (
	GraceUnitDay  GraceUnit = "DAY"
	GraceUnitHour GraceUnit = "HOUR"
)

// ArchivePolicy holds per-owner automation and retention settings.
type ArchivePolicy struct {
	OwnerID                    uuid.UUID
	AutoArchiveEnabled         bool
	AutoArchiveTime            string // "HH:mm", 24h
	UnfinishedGraceDays        int
	UnfinishedGraceUnit        GraceUnit
	CleanupFinishedAfterDays   *int // nil keeps forever
	CleanupUnfinishedAfterDays *int // nil keeps forever
	UpdatedAt                  time.Time
}

// PolicyPatch is a partial policy update; nil fields keep the current value.
// The Clear* flags set the corresponding retention window to "keep forever".
type PolicyPatch struct {
	AutoArchiveEnabled         *bool
	AutoArchiveTime            *string
	UnfinishedGraceDays        *int
	UnfinishedGraceUnit        *GraceUnit
	CleanupFinishedAfterDays   *int
	CleanupUnfinishedAfterDays *int
	ClearCleanupFinished       bool
	ClearCleanupUnfinished     bool
}

// Snapshot is the denormalized todo state captured at archive time.
type Snapshot struct {
	Title          string
	Status         Status
	Priority       int
	DueDate        *time.Time
	CustomStatusID *uuid.UUID
	Tags           []string
}

// SnapshotOf captures the audit snapshot of t.
func SnapshotOf(t Todo) Snapshot {
	return Snapshot{
		Title:          t.Title,
		Status:         t.Status,
		Priority:       t.Priority,
		DueDate:        t.DueDate,
		CustomStatusID: t.CustomStatusID,
		Tags:           append([]string(nil), t.Tags...),
	}
}

// ArchiveLogEntry is an immutable audit record. TodoID is a soft reference.
type ArchiveLogEntry struct {
	ID           uuid.UUID
	TodoID       uuid.UUID
	OwnerID      uuid.UUID
	Bucket       Bucket
	Reason       string
	AutoArchived bool
	ArchivedAt   time.Time
	Snapshot     Snapshot
}

// ArchiveRecord is one todo state transition plus its audit entry, written atomically.
type ArchiveRecord struct {
	Todo         Todo
	Bucket       Bucket
	Reason       string
	AutoArchived bool
	ArchivedAt   time.Time
}

// OwnerSummary reports what one automated pass did for an owner.
type OwnerSummary struct {
	OwnerID      uuid.UUID
	Finished     int
	Unfinished   int
	CleanedLogs  int64
	CleanedTodos int64
	Err          error
}
