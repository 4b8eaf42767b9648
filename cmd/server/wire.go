package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/and161185/taskkeeper/internal/config"
	"github.com/and161185/taskkeeper/internal/lease"
	"github.com/and161185/taskkeeper/internal/repository/postgres"
	"github.com/and161185/taskkeeper/internal/scheduler"
	"github.com/and161185/taskkeeper/internal/service"
)

// app holds the pieces shared by serve and archive run.
type app struct {
	todos    *postgres.TodoRepo
	tasks    *postgres.TaskRepo
	statuses *postgres.CustomStatusRepo
	projects *postgres.ProjectRepo

	policies *service.PolicyServiceImpl
	archive  *service.ArchiveServiceImpl
	runner   *service.ArchiveRunner
	job      *scheduler.Job
	loc      *time.Location
}

func wire(db *postgres.DB, cfg *config.Config, logger *zap.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	todos := postgres.NewTodoRepo(db)
	policies := postgres.NewPolicyRepo(db)
	logs := postgres.NewArchiveLogRepo(db)

	runner := service.NewArchiveRunner(policies, todos, logs, logger.Named("archive"))
	job := scheduler.NewJob(runner, lease.NewPG(db.Pool), nil, cfg.Archive.LeaseTTL, loc, logger.Named("archive"))

	return &app{
		todos:    todos,
		tasks:    postgres.NewTaskRepo(db),
		statuses: postgres.NewCustomStatusRepo(db),
		projects: postgres.NewProjectRepo(db),
		policies: service.NewPolicyService(policies),
		archive:  service.NewArchiveService(todos, logs, clockIn(loc)),
		runner:   runner,
		job:      job,
		loc:      loc,
	}, nil
}

// clockIn reports wall time in the configured scheduler zone.
func clockIn(loc *time.Location) func() time.Time {
	return func() time.Time { return time.Now().In(loc) }
}
