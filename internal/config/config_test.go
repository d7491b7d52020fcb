package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Defaults()

	assert.Equal(t, "track", cfg.Mode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://data-api.polymarket.com", cfg.Polymarket.DataHost)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.True(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, 60*time.Second, cfg.Tracker.PollInterval.Duration)
	assert.Equal(t, 5*time.Minute, cfg.Redis.QuoteTTL.Duration)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, 90, cfg.Archive.RetentionDays)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
mode = "once"
log_level = "debug"

[polymarket]
wallet = "0xabc"

[postgres]
database = "tracker_test"

[tracker]
poll_interval = "5m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "once", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0xabc", cfg.Polymarket.Wallet)
	assert.Equal(t, "tracker_test", cfg.Postgres.Database)
	assert.Equal(t, 5*time.Minute, cfg.Tracker.PollInterval.Duration)

	// Untouched fields keep their defaults.
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POLYTRACK_POLYMARKET_WALLET", "0xfromenv")
	t.Setenv("POLYTRACK_POSTGRES_PORT", "5433")
	t.Setenv("POLYTRACK_ARCHIVE_ENABLED", "true")
	t.Setenv("POLYTRACK_TRACKER_POLL_INTERVAL", "30s")

	path := writeConfigFile(t, `
[polymarket]
wallet = "0xfromfile"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0xfromenv", cfg.Polymarket.Wallet, "env must win over the file")
	assert.Equal(t, 5433, cfg.Postgres.Port)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Tracker.PollInterval.Duration)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		cfg := Defaults()
		cfg.Polymarket.Wallet = "0xabc"
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			"empty wallet",
			func(c *Config) { c.Polymarket.Wallet = "  " },
			"wallet must not be empty",
		},
		{
			"bad mode",
			func(c *Config) { c.Mode = "stream" },
			"unknown mode",
		},
		{
			"bad log level",
			func(c *Config) { c.LogLevel = "trace" },
			"unknown log_level",
		},
		{
			"zero poll interval",
			func(c *Config) { c.Tracker.PollInterval = duration{} },
			"poll_interval must be > 0",
		},
		{
			"pool min above max",
			func(c *Config) {
				c.Postgres.PoolMinConns = 20
				c.Postgres.PoolMaxConns = 10
			},
			"pool_min_conns must not exceed pool_max_conns",
		},
		{
			"live quotes without ws host",
			func(c *Config) {
				c.Tracker.LiveQuotes = true
				c.Polymarket.WsHost = ""
			},
			"ws_host is required",
		},
		{
			"archive enabled without bucket",
			func(c *Config) {
				c.Archive.Enabled = true
				c.S3.Bucket = ""
			},
			"bucket must not be empty",
		},
		{
			"server port out of range",
			func(c *Config) { c.Server.Port = 70000 },
			"port must be 1-65535",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateSkipsHostChecksWithDSN(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.Polymarket.Wallet = "0xabc"
	cfg.Postgres.DSN = "postgres://u:p@db:5432/polytrack"
	cfg.Postgres.Host = ""
	cfg.Postgres.Database = ""

	assert.NoError(t, cfg.Validate())
}

func TestRedactedConfig(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.Postgres.Password = "pg-secret"
	cfg.Postgres.DSN = "postgres://u:p@db/polytrack"
	cfg.Redis.Password = "redis-secret"
	cfg.S3.AccessKey = "AKIA123"
	cfg.S3.SecretKey = "s3-secret"

	out := RedactedConfig(&cfg)

	assert.Equal(t, "***", out.Postgres.Password)
	assert.Equal(t, "***", out.Postgres.DSN)
	assert.Equal(t, "***", out.Redis.Password)
	assert.Equal(t, "***", out.S3.AccessKey)
	assert.Equal(t, "***", out.S3.SecretKey)

	// Original stays intact, non-secrets pass through.
	assert.Equal(t, "pg-secret", cfg.Postgres.Password)
	assert.Equal(t, cfg.Postgres.Host, out.Postgres.Host)
}
