package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Budget.DefaultProjectLimitUSD != 50 {
		t.Errorf("expected project limit 50, got %v", cfg.Budget.DefaultProjectLimitUSD)
	}
	if cfg.Budget.AlertCooldown != 120*time.Second {
		t.Errorf("expected alert cooldown 120s, got %v", cfg.Budget.AlertCooldown)
	}
	if cfg.Session.CompressionThreshold != 25 {
		t.Errorf("expected compression threshold 25, got %d", cfg.Session.CompressionThreshold)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
budget:
  default_project_limit_usd: 10
  alert_percentages: [50, 95, 100]
video:
  sequential_mode: true
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Budget.DefaultProjectLimitUSD != 10 {
		t.Errorf("expected project limit 10, got %v", cfg.Budget.DefaultProjectLimitUSD)
	}
	if len(cfg.Budget.AlertPercentages) != 3 {
		t.Errorf("expected 3 alert percentages, got %v", cfg.Budget.AlertPercentages)
	}
	if !cfg.Video.SequentialMode {
		t.Error("expected sequential mode enabled")
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/path.yaml"); err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("STUDIO_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("STUDIO_BUDGET_PROJECT_LIMIT", "12.5")
	t.Setenv("STUDIO_VIDEO_SEQUENTIAL", "true")
	t.Setenv("STUDIO_BREAKER_TIMEOUT", "1m")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("expected test DSN, got %s", cfg.Postgres.DSN)
	}
	if cfg.Budget.DefaultProjectLimitUSD != 12.5 {
		t.Errorf("expected project limit 12.5, got %v", cfg.Budget.DefaultProjectLimitUSD)
	}
	if !cfg.Video.SequentialMode {
		t.Error("expected sequential mode enabled")
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Session.CompressionThreshold = cfg.Session.MemoryWindow
	if err := validate(&cfg); err == nil {
		t.Error("expected error when compression threshold <= memory window")
	}

	cfg = Defaults()
	cfg.Budget.DefaultSessionLimitUSD = 0
	if err := validate(&cfg); err == nil {
		t.Error("expected error for zero session budget")
	}
}
