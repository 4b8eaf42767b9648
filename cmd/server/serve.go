package main

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/taskkeeper/internal/config"
	"github.com/and161185/taskkeeper/internal/migrate"
	"github.com/and161185/taskkeeper/internal/repository/postgres"
	"github.com/and161185/taskkeeper/internal/scheduler"
	grpcserver "github.com/and161185/taskkeeper/internal/server/grpc"
	httpserver "github.com/and161185/taskkeeper/internal/server/http"
	"github.com/and161185/taskkeeper/internal/service"
	"github.com/and161185/taskkeeper/internal/undo"
)

const shutdownTimeout = 5 * time.Second

var serveFlags struct {
	httpAddr string
	grpcAddr string
	jwtKey   string
	migrate  bool
	dev      bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API, the gRPC health endpoint and the archive scheduler",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.httpAddr, "http-addr", "", "REST listen address")
	f.StringVar(&serveFlags.grpcAddr, "grpc-addr", "", "gRPC health listen address")
	f.StringVar(&serveFlags.jwtKey, "jwt-key", "", "HS256 signing key")
	f.BoolVar(&serveFlags.migrate, "migrate", false, "apply migrations before serving")
	f.BoolVar(&serveFlags.dev, "dev", false, "enable gRPC reflection (dev only)")
	rootCmd.AddCommand(serveCmd)
}

func serveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("http-addr") {
		cfg.HTTPAddr = serveFlags.httpAddr
	}
	if f.Changed("grpc-addr") {
		cfg.GRPCAddr = serveFlags.grpcAddr
	}
	if f.Changed("jwt-key") {
		cfg.JWTKey = serveFlags.jwtKey
	}
	if f.Changed("migrate") {
		cfg.MigrateOnStart = serveFlags.migrate
	}
	if f.Changed("dev") {
		cfg.Dev = serveFlags.dev
	}
	return cfg, cfg.Validate(true)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := serveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("http", cfg.HTTPAddr),
		zap.String("grpc", cfg.GRPCAddr),
	)

	ctx := cmd.Context()
	if cfg.MigrateOnStart {
		if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
			return err
		}
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	app, err := wire(db, cfg, logger)
	if err != nil {
		return err
	}

	store, err := undo.New(cfg.Undo.TTL, cfg.Undo.Capacity, nil, logger.Named("undo"))
	if err != nil {
		return err
	}
	api := httpserver.New(logger.Named("http"), httpserver.Deps{
		Policies: app.policies,
		Archive:  app.archive,
		Todos:    service.NewTodoService(app.todos),
		Tasks:    service.NewTaskService(app.tasks),
		Statuses: service.NewStatusService(app.statuses),
		Projects: service.NewProjectService(app.projects),
		Reorder:  service.NewReorderService(app.todos, app.tasks, app.statuses, app.projects),
		Tokens:   service.NewTokenService([]byte(cfg.JWTKey), cfg.TokenTTL),
		Undo:     store,
		DB:       db,
	})

	health, err := grpcserver.New(logger.Named("grpc"), db, grpcserver.Options{
		CertFile:   cfg.TLS.CertFile,
		KeyFile:    cfg.TLS.KeyFile,
		Reflection: cfg.Dev,
	})
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(cfg.Archive.Cron, app.loc, app.job, logger.Named("scheduler"))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return api.Start(cfg.HTTPAddr) })
	g.Go(func() error {
		if err := health.Serve(lis); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		health.Watch(gctx, 10*time.Second)
		return nil
	})
	g.Go(func() error {
		store.Run(gctx, cfg.Undo.SweepInterval)
		return nil
	})
	g.Go(func() error {
		sched.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		health.Stop(shutdownTimeout)
		return api.Shutdown(shutdownTimeout)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
