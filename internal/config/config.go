package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Bot     BotConfig
	DB      DBConfig
	Archive ArchiveConfig
	Sentry  SentryConfig
	Server  ServerConfig
}

// BotConfig holds Telegram bot configuration
type BotConfig struct {
	Token    string  `envconfig:"BOT_TOKEN" required:"true"`
	Workers  int     `envconfig:"BOT_WORKERS" default:"5"`
	SendRate float64 `envconfig:"BOT_SEND_RATE" default:"30"`
}

// DBConfig holds database configuration
type DBConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"sqlite"`
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       int    `envconfig:"DB_PORT" default:"3306"`
	User       string `envconfig:"DB_USER" default:"root"`
	Password   string `envconfig:"DB_PASSWORD"`
	Database   string `envconfig:"DB_NAME" default:"archive_bot"`
	MaxConns   int    `envconfig:"DB_MAX_CONNS" default:"10"`
	SQLitePath string `envconfig:"DB_SQLITE_PATH" default:"./archive_bot.sqlite"`
}

// ArchiveConfig holds the on-disk archive configuration
type ArchiveConfig struct {
	Dir             string        `envconfig:"ARCHIVE_DIR" default:"./files"`
	ZipMaxBytes     int64         `envconfig:"ARCHIVE_ZIP_MAX_BYTES" default:"47185920"`
	DownloadTimeout time.Duration `envconfig:"ARCHIVE_DOWNLOAD_TIMEOUT" default:"5m"`
	StatsInterval   time.Duration `envconfig:"ARCHIVE_STATS_INTERVAL" default:"10m"`
}

// SentryConfig holds error tracking configuration. An empty DSN disables reporting.
type SentryConfig struct {
	DSN         string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// DSN returns the data source name for the configured driver
func (c *DBConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", c.SQLitePath)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.Bot); err != nil {
		return nil, fmt.Errorf("failed to load bot config: %w", err)
	}

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Archive); err != nil {
		return nil, fmt.Errorf("failed to load archive config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Sentry); err != nil {
		return nil, fmt.Errorf("failed to load sentry config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.Bot.Workers <= 0 {
		return fmt.Errorf("BOT_WORKERS must be positive")
	}
	if c.Bot.SendRate <= 0 {
		return fmt.Errorf("BOT_SEND_RATE must be positive")
	}
	switch c.DB.Driver {
	case DriverMySQL:
		if c.DB.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for the mysql driver")
		}
	case DriverSQLite:
		if c.DB.SQLitePath == "" {
			return fmt.Errorf("DB_SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverMySQL, DriverSQLite, c.DB.Driver)
	}
	if c.Archive.Dir == "" {
		return fmt.Errorf("ARCHIVE_DIR is required")
	}
	if c.Archive.ZipMaxBytes <= 0 {
		return fmt.Errorf("ARCHIVE_ZIP_MAX_BYTES must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	return nil
}
