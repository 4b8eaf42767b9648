package postgres

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/model"
)

// ArchiveLogRepo implements ArchiveLogRepository using PostgreSQL.
type ArchiveLogRepo struct{ db *DB }

// NewArchiveLogRepo constructs an archive log repository.
func NewArchiveLogRepo(db *DB) *ArchiveLogRepo { return &ArchiveLogRepo{db: db} }

// List returns an owner's audit entries, newest first.
func (r *ArchiveLogRepo) List(ctx context.Context, ownerID uuid.UUID, bucket *model.Bucket, limit int) ([]model.ArchiveLogEntry, error) {
	var b *string
	if bucket != nil {
		s := string(*bucket)
		b = &s
	}
	const q = `
SELECT id, todo_id, user_id, bucket, reason, auto_archived, archived_at,
       title, status, priority, due_date, custom_status_id, tags
FROM archive_log
WHERE user_id=$1 AND ($2::text IS NULL OR bucket=$2)
ORDER BY archived_at DESC, id
LIMIT $3`
	rows, err := r.db.Pool.Query(ctx, q, ownerID, b, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ArchiveLogEntry
	for rows.Next() {
		var (
			e              model.ArchiveLogEntry
			bkt, status    string
			customStatusID uuid.NullUUID
		)
		if err = rows.Scan(&e.ID, &e.TodoID, &e.OwnerID, &bkt, &e.Reason, &e.AutoArchived, &e.ArchivedAt,
			&e.Snapshot.Title, &status, &e.Snapshot.Priority, &e.Snapshot.DueDate, &customStatusID, &e.Snapshot.Tags,
		); err != nil {
			return nil, err
		}
		e.Bucket = model.Bucket(bkt)
		e.Snapshot.Status = model.Status(status)
		e.Snapshot.CustomStatusID = fromNullID(customStatusID)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Purge removes log entries and archived todos of one bucket archived at or
// before cutoff. The two deletes are independent.
func (r *ArchiveLogRepo) Purge(ctx context.Context, ownerID uuid.UUID, bucket model.Bucket, cutoff time.Time) (logs, todos int64, err error) {
	const delLogs = `DELETE FROM archive_log WHERE user_id=$1 AND bucket=$2 AND archived_at <= $3`
	const delTodos = `DELETE FROM todos WHERE user_id=$1 AND archived_bucket=$2 AND archived_at IS NOT NULL AND archived_at <= $3`

	tag, err := r.db.Pool.Exec(ctx, delLogs, ownerID, string(bucket), cutoff)
	if err != nil {
		return 0, 0, err
	}
	logs = tag.RowsAffected()

	tag, err = r.db.Pool.Exec(ctx, delTodos, ownerID, string(bucket), cutoff)
	if err != nil {
		return logs, 0, err
	}
	return logs, tag.RowsAffected(), nil
}
