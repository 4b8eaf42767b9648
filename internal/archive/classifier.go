// Package archive holds the pure archive rules: todo classification, policy
// defaults and validation, and retention cutoffs.
package archive

import (
	"fmt"
	"time"

	"github.com/and161185/taskkeeper/internal/model"
)

// FinishedReason is recorded for todos archived because they were completed.
const FinishedReason = "Completed todo archived automatically"

// Decision is the classifier verdict for one todo.
type Decision struct {
	Eligible bool
	Bucket   model.Bucket
	Reason   string
}

// Classify decides whether t is archive-eligible at now under p.
// It depends only on its arguments.
func Classify(now time.Time, t model.Todo, p model.ArchivePolicy) Decision {
	if t.ArchivedAt != nil {
		return Decision{}
	}
	switch t.Status {
	case model.StatusComplete:
		return Decision{Eligible: true, Bucket: model.BucketFinished, Reason: FinishedReason}
	case model.StatusWait, model.StatusInProgress:
		if t.DueDate == nil || !overdue(now, *t.DueDate, p) {
			return Decision{}
		}
		return Decision{
			Eligible: true,
			Bucket:   model.BucketUnfinished,
			Reason:   UnfinishedReason(*t.DueDate),
		}
	}
	return Decision{}
}

// UnfinishedReason is recorded for overdue todos; it embeds the due date.
func UnfinishedReason(due time.Time) string {
	return fmt.Sprintf("Overdue since %s, archived automatically", due.Format("2006-01-02 15:04"))
}

// ManualBucket is the default bucket for a user-triggered archive.
func ManualBucket(t model.Todo) model.Bucket {
	if t.Status == model.StatusComplete {
		return model.BucketFinished
	}
	return model.BucketUnfinished
}

// overdue reports whether the grace period after due has elapsed.
//
// HOUR counts exact hours from the due instant. DAY counts calendar days in
// now's location: a todo due on day D is eligible from the start of day D+grace.
func overdue(now, due time.Time, p model.ArchivePolicy) bool {
	if now.Before(due) {
		return false
	}
	if p.UnfinishedGraceUnit == model.GraceUnitHour {
		return !now.Before(due.Add(time.Duration(p.UnfinishedGraceDays) * time.Hour))
	}
	today := StartOfDay(now)
	dueDay := StartOfDay(due.In(now.Location()))
	return !dueDay.AddDate(0, 0, p.UnfinishedGraceDays).After(today)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RetentionCutoff is the archivedAt bound at or before which rows are purged.
func RetentionCutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
