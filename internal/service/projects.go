package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/repository"
)

// ProjectService creates projects.
type ProjectService interface {
	Create(ctx context.Context, p model.Project) (model.Project, error)
}

type ProjectServiceImpl struct {
	repo repository.ProjectRepository
}

// NewProjectService constructs ProjectService.
func NewProjectService(repo repository.ProjectRepository) *ProjectServiceImpl {
	return &ProjectServiceImpl{repo: repo}
}

func (s *ProjectServiceImpl) Create(ctx context.Context, p model.Project) (model.Project, error) {
	if p.OwnerID == uuid.Nil {
		return model.Project{}, errs.Invalid("ownerId", "empty")
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return model.Project{}, errs.Invalid("name", "empty")
	}
	p.ID = uuid.Nil
	if err := s.repo.Create(ctx, &p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}
