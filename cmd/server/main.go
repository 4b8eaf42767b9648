// Command taskkeeper runs the task keeper API server and its maintenance jobs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/taskkeeper/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var (
	configPath string
	flagDSN    string
	flagLogDev bool
)

var rootCmd = &cobra.Command{
	Use:           "taskkeeper",
	Short:         "Task keeper API server",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.StringVar(&flagDSN, "dsn", "", "PostgreSQL DSN (overrides config)")
	pf.BoolVar(&flagLogDev, "log-dev", false, "human-readable development logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "taskkeeper:", err)
		os.Exit(1)
	}
}

// loadConfig applies the root flags over the file and environment settings.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dsn") {
		cfg.DatabaseDSN = flagDSN
	}
	if cmd.Flags().Changed("log-dev") {
		cfg.Log.Development = flagLogDev
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
