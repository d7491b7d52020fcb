package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYTRACK_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYTRACK_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.DataHost, "POLYTRACK_POLYMARKET_DATA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "POLYTRACK_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.WsHost, "POLYTRACK_POLYMARKET_WS_HOST")
	setStr(&cfg.Polymarket.Wallet, "POLYTRACK_POLYMARKET_WALLET")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "POLYTRACK_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "POLYTRACK_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POLYTRACK_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "POLYTRACK_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "POLYTRACK_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POLYTRACK_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "POLYTRACK_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "POLYTRACK_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "POLYTRACK_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "POLYTRACK_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "POLYTRACK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYTRACK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYTRACK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYTRACK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYTRACK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYTRACK_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.QuoteTTL, "POLYTRACK_REDIS_QUOTE_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "POLYTRACK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYTRACK_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYTRACK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYTRACK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYTRACK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLYTRACK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLYTRACK_S3_FORCE_PATH_STYLE")

	// ── Tracker ──
	setDuration(&cfg.Tracker.PollInterval, "POLYTRACK_TRACKER_POLL_INTERVAL")
	setBool(&cfg.Tracker.LiveQuotes, "POLYTRACK_TRACKER_LIVE_QUOTES")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "POLYTRACK_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "POLYTRACK_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "POLYTRACK_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "POLYTRACK_SERVER_PORT")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYTRACK_MODE")
	setStr(&cfg.LogLevel, "POLYTRACK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
