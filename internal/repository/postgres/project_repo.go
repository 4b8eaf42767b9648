package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/taskkeeper/internal/model"
)

// ProjectRepo implements ProjectRepository using PostgreSQL.
type ProjectRepo struct{ db *DB }

// NewProjectRepo constructs a project repository.
func NewProjectRepo(db *DB) *ProjectRepo { return &ProjectRepo{db: db} }

// Create appends a project for the owner.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.Must(uuid.NewV4())
	}
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		pos, err := nextInOwnerScope(ctx, tx, "projects", p.OwnerID)
		if err != nil {
			return err
		}
		p.Position = pos
		const ins = `INSERT INTO projects (id, user_id, name, position) VALUES ($1,$2,$3,$4) RETURNING created_at`
		return tx.QueryRow(ctx, ins, p.ID, p.OwnerID, p.Name, p.Position).Scan(&p.CreatedAt)
	})
}

// Move repositions a project among the owner's projects.
func (r *ProjectRepo) Move(ctx context.Context, ownerID, id uuid.UUID, target int) ([]model.PositionUpdate, error) {
	return r.db.moveInOwnerScope(ctx, "projects", ownerID, id, target)
}
