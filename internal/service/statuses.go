package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/repository"
)

// StatusService manages custom statuses.
type StatusService interface {
	Create(ctx context.Context, s model.CustomStatus) (model.CustomStatus, error)
	// Delete fails with errs.ErrConflict while the status is referenced.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type StatusServiceImpl struct {
	repo repository.CustomStatusRepository
}

// NewStatusService constructs StatusService.
func NewStatusService(repo repository.CustomStatusRepository) *StatusServiceImpl {
	return &StatusServiceImpl{repo: repo}
}

func (s *StatusServiceImpl) Create(ctx context.Context, cs model.CustomStatus) (model.CustomStatus, error) {
	if cs.OwnerID == uuid.Nil {
		return model.CustomStatus{}, errs.Invalid("ownerId", "empty")
	}
	cs.Name = strings.TrimSpace(cs.Name)
	if cs.Name == "" {
		return model.CustomStatus{}, errs.Invalid("name", "empty")
	}
	cs.ID = uuid.Nil
	if err := s.repo.Create(ctx, &cs); err != nil {
		return model.CustomStatus{}, err
	}
	return cs, nil
}

func (s *StatusServiceImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return errs.Invalid("id", "empty")
	}
	return s.repo.Delete(ctx, ownerID, id)
}
