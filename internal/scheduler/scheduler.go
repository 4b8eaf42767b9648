// Package scheduler triggers the archive pass on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/and161185/taskkeeper/internal/lease"
	"github.com/and161185/taskkeeper/internal/model"
)

// LeaseName is the run lease guarding the archive pass.
const LeaseName = "archive-pass"

// Runner executes one archive pass.
type Runner interface {
	RunOnce(ctx context.Context, now time.Time) ([]model.OwnerSummary, error)
}

// Notifier receives per-owner summaries after a pass.
type Notifier interface {
	Notify(ctx context.Context, sums []model.OwnerSummary)
}

// LogNotifier writes summaries to the log.
type LogNotifier struct {
	Log *zap.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, sums []model.OwnerSummary) {
	for _, s := range sums {
		fields := []zap.Field{
			zap.String("owner_id", s.OwnerID.String()),
			zap.Int("finished", s.Finished),
			zap.Int("unfinished", s.Unfinished),
		}
		if s.Err != nil {
			fields = append(fields, zap.Error(s.Err))
		}
		n.Log.Info("archive summary", fields...)
	}
}

// ParseSpec validates a standard 5-field cron expression.
func ParseSpec(spec string) (cron.Schedule, error) {
	return cron.ParseStandard(spec)
}

// Job runs the archive pass under the run lease.
type Job struct {
	runner   Runner
	lease    lease.Lease
	notifier Notifier
	holder   string
	ttl      time.Duration
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

// NewJob constructs a Job. A nil notifier logs summaries.
func NewJob(runner Runner, l lease.Lease, notifier Notifier, ttl time.Duration, loc *time.Location, log *zap.Logger) *Job {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = LogNotifier{Log: log}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Job{
		runner:   runner,
		lease:    l,
		notifier: notifier,
		holder:   lease.Holder(),
		ttl:      ttl,
		loc:      loc,
		now:      time.Now,
		log:      log,
	}
}

// Run performs one guarded pass. It reports false when another instance holds
// the lease, in which case nothing is archived.
func (j *Job) Run(ctx context.Context) (bool, error) {
	ok, err := j.lease.Acquire(ctx, LeaseName, j.holder, j.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	if !ok {
		j.log.Info("archive pass skipped, lease held elsewhere", zap.String("lease", LeaseName))
		return false, nil
	}
	defer func() {
		// release even if ctx was cancelled mid-pass
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := j.lease.Release(rctx, LeaseName, j.holder); err != nil {
			j.log.Warn("release lease", zap.Error(err))
		}
	}()

	start := j.now()
	sums, err := j.runner.RunOnce(ctx, start.In(j.loc))
	if err != nil {
		return true, fmt.Errorf("archive pass: %w", err)
	}
	j.notifier.Notify(ctx, sums)

	failed := 0
	for _, s := range sums {
		if s.Err != nil {
			failed++
		}
	}
	j.log.Info("archive pass done",
		zap.Int("owners", len(sums)),
		zap.Int("failed", failed),
		zap.Duration("dur", j.now().Sub(start)),
	)
	return true, nil
}

// Scheduler fires Job on a cron schedule.
type Scheduler struct {
	c    *cron.Cron
	job  *Job
	log  *zap.Logger
	base context.Context
}

// New registers job under spec, evaluated in loc.
func New(spec string, loc *time.Location, job *Job, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	s := &Scheduler{c: c, job: job, log: log, base: context.Background()}
	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("archive cron %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	if _, err := s.job.Run(s.base); err != nil {
		s.log.Error("scheduled archive pass", zap.Error(err))
	}
}

// Run starts the cron loop and blocks until ctx is done, then waits for a
// running pass to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.base = ctx
	s.c.Start()
	if e := s.c.Entries(); len(e) > 0 {
		s.log.Info("archive scheduler started", zap.Time("next", e[0].Next))
	}
	<-ctx.Done()
	<-s.c.Stop().Done()
	s.log.Info("archive scheduler stopped")
}
