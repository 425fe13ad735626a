// config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Gateway  GatewayConfig  `koanf:"gateway"`
	Logging  LoggingConfig  `koanf:"logging"`
	Game     GameConfig     `koanf:"game"`
	Sync     SyncConfig     `koanf:"sync"`
	Redis    RedisConfig    `koanf:"redis"`
	Archive  ArchiveConfig  `koanf:"archive"`
}

type ServerConfig struct {
	Addr           string   `koanf:"addr" validate:"required"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	BodyLimit      int      `koanf:"body_limit" validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver" validate:"oneof=postgres sqlite"`
	DSN      string `koanf:"dsn" validate:"required"`
	LogLevel string `koanf:"log_level" validate:"oneof=silent error warn info"`
}

// GatewayConfig holds the shared secret the API gateway presents as a bearer token.
type GatewayConfig struct {
	ServiceToken string `koanf:"service_token" validate:"required"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type GameConfig struct {
	// Timezone for day/week/month boundaries. Empty means the server's local zone.
	Timezone string `koanf:"timezone"`
	// ChampionSweepInterval is the backstop reconciliation period; 0 disables it.
	ChampionSweepInterval time.Duration `koanf:"champion_sweep_interval" validate:"gte=0"`
	StreamPollInterval    time.Duration `koanf:"stream_poll_interval" validate:"gt=0"`
}

type SyncConfig struct {
	Enabled  bool          `koanf:"enabled"`
	BaseURL  string        `koanf:"base_url" validate:"required_if=Enabled true,omitempty,url"`
	Path     string        `koanf:"path"`
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
}

type RedisConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Addr           string        `koanf:"addr" validate:"required_if=Enabled true"`
	Password       string        `koanf:"password"`
	DB             int           `koanf:"db" validate:"gte=0"`
	LeaderboardTTL time.Duration `koanf:"leaderboard_ttl" validate:"gt=0"`
}

// ArchiveConfig points at the Cloudflare R2 bucket used for champion snapshots.
type ArchiveConfig struct {
	Enabled         bool   `koanf:"enabled"`
	AccountID       string `koanf:"account_id" validate:"required_if=Enabled true"`
	AccessKeyID     string `koanf:"access_key_id" validate:"required_if=Enabled true"`
	AccessKeySecret string `koanf:"access_key_secret" validate:"required_if=Enabled true"`
	Bucket          string `koanf:"bucket" validate:"required_if=Enabled true"`
	CDNBaseURL      string `koanf:"cdn_base_url"`
	Prefix          string `koanf:"prefix"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":5200",
			AllowedOrigins: []string{"http://localhost:3000"},
			BodyLimit:      4 * 1024 * 1024,
		},
		Database: DatabaseConfig{
			Driver:   "postgres",
			LogLevel: "warn",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Game: GameConfig{
			ChampionSweepInterval: 5 * time.Minute,
			StreamPollInterval:    2 * time.Second,
		},
		Sync: SyncConfig{
			Path:     "/api/v1/public/profiles",
			Interval: time.Minute,
		},
		Redis: RedisConfig{
			LeaderboardTTL: 30 * time.Second,
		},
		Archive: ArchiveConfig{
			Prefix: "champions",
		},
	}
}

// Load layers struct defaults under environment variables and validates the result.
// Call godotenv.Load first if a .env file should be honored.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := splitCommaList(k, "server.allowed_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Game.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Game.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Game.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid GAME_TIMEZONE %q: %w", c.Game.Timezone, err)
	}
	return loc, nil
}

func splitCommaList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

// envTransformFunc maps the service's environment variable names to koanf paths.
// Unmapped variables are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"server_addr":     "server.addr",
		"allowed_origins": "server.allowed_origins",
		"body_limit":      "server.body_limit",

		"db_driver":    "database.driver",
		"database_url": "database.dsn",
		"db_log_level": "database.log_level",

		"game_service_token": "gateway.service_token",

		"log_level":  "logging.level",
		"log_format": "logging.format",

		"game_timezone":           "game.timezone",
		"champion_sweep_interval": "game.champion_sweep_interval",
		"badge_stream_interval":   "game.stream_poll_interval",

		"sync_enabled":       "sync.enabled",
		"sync_service_url":   "sync.base_url",
		"sync_profiles_path": "sync.path",
		"sync_interval":      "sync.interval",

		"redis_enabled":         "redis.enabled",
		"redis_addr":            "redis.addr",
		"redis_password":        "redis.password",
		"redis_db":              "redis.db",
		"leaderboard_cache_ttl": "redis.leaderboard_ttl",

		"champion_archive_enabled": "archive.enabled",
		"cloudflare_account_id":    "archive.account_id",
		"r2_access_key_id":         "archive.access_key_id",
		"r2_access_key_secret":     "archive.access_key_secret",
		"r2_bucket_name":           "archive.bucket",
		"cdn_base_url":             "archive.cdn_base_url",
		"champion_archive_prefix":  "archive.prefix",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
