// Package service contains application services for ordering, archive
// policies, manual archiving and the automated archive pass.
package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/archive"
	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/repository"
)

// PolicyService reads and writes per-owner archive policies.
type PolicyService interface {
	// GetOrDefault returns the stored policy or the defaults; it never writes.
	GetOrDefault(ctx context.Context, ownerID uuid.UUID) (model.ArchivePolicy, error)
	// Upsert merges patch over the current policy, validates and stores it.
	Upsert(ctx context.Context, ownerID uuid.UUID, patch model.PolicyPatch) (model.ArchivePolicy, error)
}

type PolicyServiceImpl struct {
	repo repository.PolicyRepository
}

// NewPolicyService constructs PolicyService.
func NewPolicyService(repo repository.PolicyRepository) *PolicyServiceImpl {
	return &PolicyServiceImpl{repo: repo}
}

// GetOrDefault falls back to archive.DefaultPolicy when nothing is stored.
func (s *PolicyServiceImpl) GetOrDefault(ctx context.Context, ownerID uuid.UUID) (model.ArchivePolicy, error) {
	if ownerID == uuid.Nil {
		return model.ArchivePolicy{}, errs.Invalid("ownerId", "empty")
	}
	p, err := s.repo.Get(ctx, ownerID)
	if errors.Is(err, errs.ErrNotFound) {
		return archive.DefaultPolicy(ownerID), nil
	}
	if err != nil {
		return model.ArchivePolicy{}, err
	}
	return *p, nil
}

// Upsert writes the full merged record so that later default changes do not
// alter a policy the owner has already saved.
func (s *PolicyServiceImpl) Upsert(ctx context.Context, ownerID uuid.UUID, patch model.PolicyPatch) (model.ArchivePolicy, error) {
	cur, err := s.GetOrDefault(ctx, ownerID)
	if err != nil {
		return model.ArchivePolicy{}, err
	}
	next := archive.ApplyPatch(cur, patch)
	next.OwnerID = ownerID
	if err := archive.ValidatePolicy(next); err != nil {
		return model.ArchivePolicy{}, err
	}
	return s.repo.Upsert(ctx, next)
}
