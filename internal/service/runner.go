package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/taskkeeper/internal/archive"
	"github.com/and161185/taskkeeper/internal/model"
	"github.com/and161185/taskkeeper/internal/repository"
)

// ArchiveRunner performs one automated archive pass over all owners.
// It keeps no state between passes.
type ArchiveRunner struct {
	policies repository.PolicyRepository
	todos    repository.TodoRepository
	logs     repository.ArchiveLogRepository
	log      *zap.Logger
}

// NewArchiveRunner constructs an ArchiveRunner.
func NewArchiveRunner(
	policies repository.PolicyRepository,
	todos repository.TodoRepository,
	logs repository.ArchiveLogRepository,
	log *zap.Logger,
) *ArchiveRunner {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArchiveRunner{policies: policies, todos: todos, logs: logs, log: log}
}

// RunOnce archives eligible todos and applies retention for every owner with
// auto archiving on. Owners without a stored policy run with the defaults.
// A failing owner is recorded in its summary and the pass continues. The
// error is non-nil only when the owner set could not be loaded.
func (r *ArchiveRunner) RunOnce(ctx context.Context, now time.Time) ([]model.OwnerSummary, error) {
	policies, err := r.policies.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled policies: %w", err)
	}
	implicit, err := r.policies.ListOwnersWithoutPolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("list owners without policy: %w", err)
	}
	for _, owner := range implicit {
		policies = append(policies, archive.DefaultPolicy(owner))
	}

	out := make([]model.OwnerSummary, 0, len(policies))
	for _, p := range policies {
		if err := ctx.Err(); err != nil {
			r.log.Warn("archive pass interrupted", zap.Int("remaining", len(policies)-len(out)), zap.Error(err))
			break
		}
		out = append(out, r.runOwner(ctx, now, p))
	}
	return out, nil
}

func (r *ArchiveRunner) runOwner(ctx context.Context, now time.Time, p model.ArchivePolicy) model.OwnerSummary {
	sum := model.OwnerSummary{OwnerID: p.OwnerID}
	log := r.log.With(zap.String("owner_id", p.OwnerID.String()))

	if err := r.archiveOwner(ctx, now, p, &sum); err != nil {
		log.Error("archive owner", zap.Error(err))
		sum.Err = err
	}
	if err := r.cleanup(ctx, now, p, &sum); err != nil {
		log.Error("retention cleanup", zap.Error(err))
		sum.Err = errors.Join(sum.Err, err)
	}

	log.Info("archive pass owner done",
		zap.Int("finished", sum.Finished),
		zap.Int("unfinished", sum.Unfinished),
		zap.Int64("cleaned_logs", sum.CleanedLogs),
		zap.Int64("cleaned_todos", sum.CleanedTodos),
	)
	return sum
}

func (r *ArchiveRunner) archiveOwner(ctx context.Context, now time.Time, p model.ArchivePolicy, sum *model.OwnerSummary) error {
	candidates, err := r.todos.ListArchiveCandidates(ctx, p.OwnerID, now)
	if err != nil {
		return err
	}
	var recs []model.ArchiveRecord
	for _, t := range candidates {
		d := archive.Classify(now, t, p)
		if !d.Eligible {
			continue
		}
		recs = append(recs, model.ArchiveRecord{Todo: t, Bucket: d.Bucket, Reason: d.Reason, AutoArchived: true, ArchivedAt: now})
	}
	if len(recs) == 0 {
		return nil
	}
	if err := r.todos.Archive(ctx, p.OwnerID, recs); err != nil {
		return err
	}
	for _, rec := range recs {
		if rec.Bucket == model.BucketFinished {
			sum.Finished++
		} else {
			sum.Unfinished++
		}
	}
	return nil
}

func (r *ArchiveRunner) cleanup(ctx context.Context, now time.Time, p model.ArchivePolicy, sum *model.OwnerSummary) error {
	windows := []struct {
		bucket model.Bucket
		days   *int
	}{
		{model.BucketFinished, p.CleanupFinishedAfterDays},
		{model.BucketUnfinished, p.CleanupUnfinishedAfterDays},
	}
	var errsOut error
	for _, w := range windows {
		if w.days == nil {
			continue
		}
		logs, todos, err := r.logs.Purge(ctx, p.OwnerID, w.bucket, archive.RetentionCutoff(now, *w.days))
		sum.CleanedLogs += logs
		sum.CleanedTodos += todos
		if err != nil {
			errsOut = errors.Join(errsOut, fmt.Errorf("purge %s: %w", w.bucket, err))
		}
	}
	return errsOut
}
