// Package config loads server settings: defaults, then an optional YAML file,
// then TASKKEEPER_* environment variables. Command-line flags are applied on
// top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TASKKEEPER_"

// Config holds server settings.
type Config struct {
	HTTPAddr       string        `yaml:"http_addr"`
	GRPCAddr       string        `yaml:"grpc_addr"`
	DatabaseDSN    string        `yaml:"database_dsn"`
	JWTKey         string        `yaml:"jwt_key"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	MigrateOnStart bool          `yaml:"migrate_on_start"`
	Dev            bool          `yaml:"dev"` // gRPC reflection

	TLS     TLS     `yaml:"tls"`
	Archive Archive `yaml:"archive"`
	Undo    Undo    `yaml:"undo"`
	Log     Log     `yaml:"log"`
}

// TLS enables TLS on the gRPC listener when both files are set.
type TLS struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Archive configures the scheduled archive pass.
type Archive struct {
	Cron     string        `yaml:"cron"`
	Timezone string        `yaml:"timezone"`
	LeaseTTL time.Duration `yaml:"lease_ttl"`
}

// Undo configures the manual-archive undo store.
type Undo struct {
	TTL           time.Duration `yaml:"ttl"`
	Capacity      int           `yaml:"capacity"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Log configures the zap logger.
type Log struct {
	Development bool `yaml:"development"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HTTPAddr: ":8080",
		GRPCAddr: ":9090",
		TokenTTL: 15 * time.Minute,
		Archive: Archive{
			Cron:     "0 9 * * *",
			Timezone: "Local",
			LeaseTTL: 10 * time.Minute,
		},
		Undo: Undo{
			TTL:           30 * time.Second,
			Capacity:      1024,
			SweepInterval: 5 * time.Second,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// empty) and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("HTTP_ADDR", &c.HTTPAddr)
	str("GRPC_ADDR", &c.GRPCAddr)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("JWT_KEY", &c.JWTKey)
	str("TLS_CERT_FILE", &c.TLS.CertFile)
	str("TLS_KEY_FILE", &c.TLS.KeyFile)
	str("ARCHIVE_CRON", &c.Archive.Cron)
	str("ARCHIVE_TIMEZONE", &c.Archive.Timezone)

	if v, ok := lookup(EnvPrefix + "LOG_DEVELOPMENT"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sLOG_DEVELOPMENT: %w", EnvPrefix, err)
		}
		c.Log.Development = b
	}
	if v, ok := lookup(EnvPrefix + "UNDO_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sUNDO_TTL: %w", EnvPrefix, err)
		}
		c.Undo.TTL = d
	}
	return nil
}

// Location resolves Archive.Timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Archive.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	return time.LoadLocation(c.Archive.Timezone)
}

// Validate checks the settings needed by every command. requireJWT is set
// for commands that serve authenticated requests.
func (c *Config) Validate(requireJWT bool) error {
	var errs []error
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database_dsn is required"))
	}
	if requireJWT && c.JWTKey == "" {
		errs = append(errs, errors.New("jwt_key is required"))
	}
	if _, err := cron.ParseStandard(c.Archive.Cron); err != nil {
		errs = append(errs, fmt.Errorf("archive.cron: %w", err))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("archive.timezone: %w", err))
	}
	if c.Archive.LeaseTTL <= 0 {
		errs = append(errs, errors.New("archive.lease_ttl must be positive"))
	}
	if c.Undo.TTL <= 0 || c.Undo.Capacity <= 0 || c.Undo.SweepInterval <= 0 {
		errs = append(errs, errors.New("undo.ttl, undo.capacity and undo.sweep_interval must be positive"))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("tls.cert_file and tls.key_file must be set together"))
	}
	return errors.Join(errs...)
}
