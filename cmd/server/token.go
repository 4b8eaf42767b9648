package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"

	"github.com/and161185/taskkeeper/internal/service"
)

var tokenFlags struct {
	owner  string
	jwtKey string
	ttl    time.Duration
}

// tokenCmd mints a bearer token for local testing; identity is issued elsewhere in production.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed bearer token for an owner id (development)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("jwt-key") {
			cfg.JWTKey = tokenFlags.jwtKey
		}
		if cfg.JWTKey == "" {
			return errors.New("jwt key is required")
		}
		owner, err := uuid.FromString(tokenFlags.owner)
		if err != nil {
			return fmt.Errorf("--owner: %w", err)
		}
		tok, exp, err := service.NewTokenService([]byte(cfg.JWTKey), tokenFlags.ttl).Issue(owner)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		fmt.Fprintln(cmd.ErrOrStderr(), "expires", exp.Format(time.RFC3339))
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.owner, "owner", "", "owner uuid")
	f.StringVar(&tokenFlags.jwtKey, "jwt-key", "", "HS256 signing key")
	f.DurationVar(&tokenFlags.ttl, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(tokenCmd)
}
