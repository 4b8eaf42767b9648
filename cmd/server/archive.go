package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/taskkeeper/internal/repository/postgres"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive maintenance",
}

var archiveRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one archive pass now, under the run lease",
	Args:  cobra.NoArgs,
	RunE:  runArchivePass,
}

func init() {
	archiveCmd.AddCommand(archiveRunCmd)
	rootCmd.AddCommand(archiveCmd)
}

func runArchivePass(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := postgres.New(cmd.Context(), cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	app, err := wire(db, cfg, logger)
	if err != nil {
		return err
	}
	ran, err := app.job.Run(cmd.Context())
	if err != nil {
		return err
	}
	if !ran {
		fmt.Fprintln(cmd.OutOrStdout(), "archive pass skipped: lease held by another instance")
		return nil
	}
	logger.Info("archive run finished", zap.String("timezone", app.loc.String()))
	return nil
}
