package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/mathlearn")
	t.Setenv("GAME_SERVICE_TOKEN", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":5200" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://localhost/mathlearn" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Game.ChampionSweepInterval != 5*time.Minute {
		t.Errorf("sweep interval = %v", cfg.Game.ChampionSweepInterval)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("CHAMPION_SWEEP_INTERVAL", "90s")
	t.Setenv("GAME_TIMEZONE", "Europe/Istanbul")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if got := strings.Join(cfg.Server.AllowedOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("origins = %q", got)
	}
	if cfg.Game.ChampionSweepInterval != 90*time.Second {
		t.Errorf("sweep interval = %v", cfg.Game.ChampionSweepInterval)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Istanbul" {
		t.Errorf("location = %v, %v", loc, err)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{"GAME_SERVICE_TOKEN": ""}},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"sync without url", map[string]string{"SYNC_ENABLED": "true"}},
		{"archive without bucket", map[string]string{"CHAMPION_ARCHIVE_ENABLED": "true"}},
		{"bad timezone", map[string]string{"GAME_TIMEZONE": "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
