package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault_IsValidWithDSN(t *testing.T) {
	cfg := Default()
	cfg.DatabaseDSN = "postgres://localhost/taskkeeper"
	require.NoError(t, cfg.Validate(false))
	require.Error(t, cfg.Validate(true))
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskkeeper.yaml")
	body := `
http_addr: ":8181"
database_dsn: postgres://file/db
archive:
  cron: "30 2 * * *"
  timezone: UTC
  lease_ttl: 2m
undo:
  ttl: 1m
  capacity: 16
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("TASKKEEPER_DATABASE_DSN", "postgres://env/db")
	t.Setenv("TASKKEEPER_JWT_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":8181", cfg.HTTPAddr)
	require.Equal(t, ":9090", cfg.GRPCAddr)
	require.Equal(t, "postgres://env/db", cfg.DatabaseDSN)
	require.Equal(t, "secret", cfg.JWTKey)
	require.Equal(t, "30 2 * * *", cfg.Archive.Cron)
	require.Equal(t, 2*time.Minute, cfg.Archive.LeaseTTL)
	require.Equal(t, time.Minute, cfg.Undo.TTL)
	require.Equal(t, 16, cfg.Undo.Capacity)
	require.Equal(t, 5*time.Second, cfg.Undo.SweepInterval)
	require.NoError(t, cfg.Validate(true))

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestApplyEnv_BadValues(t *testing.T) {
	env := map[string]string{EnvPrefix + "LOG_DEVELOPMENT": "maybe"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	require.Error(t, Default().applyEnv(lookup))

	env = map[string]string{EnvPrefix + "UNDO_TTL": "soon"}
	require.Error(t, Default().applyEnv(lookup))
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"no dsn":       func(c *Config) { c.DatabaseDSN = "" },
		"bad cron":     func(c *Config) { c.Archive.Cron = "every day" },
		"bad timezone": func(c *Config) { c.Archive.Timezone = "Mars/Olympus" },
		"zero lease":   func(c *Config) { c.Archive.LeaseTTL = 0 },
		"zero undo":    func(c *Config) { c.Undo.Capacity = 0 },
		"half tls":     func(c *Config) { c.TLS.CertFile = "cert.pem" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.DatabaseDSN = "postgres://localhost/db"
			mutate(cfg)
			require.Error(t, cfg.Validate(false))
		})
	}
}
