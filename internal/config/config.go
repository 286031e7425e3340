// Package config loads server settings from the environment, optionally seeded by a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"tourney.db"`

	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	PoolMatchSize    int           `env:"POOL_MATCH_SIZE" envDefault:"2"`

	AdminJWTSecret     string        `env:"ADMIN_JWT_SECRET"`
	SessionLifetime    time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	Discord DiscordConfig
	Backup  BackupConfig
}

type DiscordConfig struct {
	Key         string `env:"DISCORD_KEY"`
	Secret      string `env:"DISCORD_SECRET"`
	CallbackURL string `env:"DISCORD_CALLBACK_URL"`
}

// Enabled reports whether sign-in with Discord was configured.
func (d DiscordConfig) Enabled() bool {
	return d.Key != "" && d.Secret != ""
}

type BackupConfig struct {
	AccountID       string `env:"R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	BucketName      string `env:"R2_BUCKET_NAME"`
	Endpoint        string `env:"R2_ENDPOINT"`
}

// Enabled is true once a bucket is named; the remaining fields are then required.
func (b BackupConfig) Enabled() bool {
	return b.BucketName != ""
}

// Load reads .env if present and parses the environment on top of it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.PoolMatchSize < 2 {
		return fmt.Errorf("POOL_MATCH_SIZE must be at least 2, got %d", c.PoolMatchSize)
	}
	if c.SnapshotInterval < 0 {
		return errors.New("SNAPSHOT_INTERVAL must not be negative")
	}
	if c.Backup.Enabled() && (c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" || (c.Backup.AccountID == "" && c.Backup.Endpoint == "")) {
		return errors.New("R2 backup needs R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_ACCOUNT_ID or R2_ENDPOINT")
	}
	return nil
}

// Level maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
