package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "studio.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "STUDIO_PORT")
	setString(&cfg.Server.CORSOrigin, "STUDIO_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "STUDIO_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "STUDIO_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "STUDIO_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "STUDIO_PG_MAX_CONN_IDLE_TIME")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.LLM.URL, "STUDIO_LLM_URL")
	setString(&cfg.LLM.APIKey, "STUDIO_LLM_API_KEY")
	setString(&cfg.LLM.Model, "STUDIO_LLM_MODEL")
	setString(&cfg.Video.Name, "STUDIO_VIDEO_PROVIDER")
	setString(&cfg.Video.URL, "STUDIO_VIDEO_URL")
	setString(&cfg.Video.APIKey, "STUDIO_VIDEO_API_KEY")
	setDuration(&cfg.Video.PollInterval, "STUDIO_VIDEO_POLL_INTERVAL")
	setDuration(&cfg.Video.PollTimeout, "STUDIO_VIDEO_POLL_TIMEOUT")
	setBool(&cfg.Video.SequentialMode, "STUDIO_VIDEO_SEQUENTIAL")
	setString(&cfg.Search.URL, "STUDIO_SEARCH_URL")
	setString(&cfg.Search.APIKey, "STUDIO_SEARCH_API_KEY")
	setString(&cfg.Storage.Dir, "STUDIO_STORAGE_DIR")
	setFloat64(&cfg.Budget.DefaultProjectLimitUSD, "STUDIO_BUDGET_PROJECT_LIMIT")
	setFloat64(&cfg.Budget.DefaultSessionLimitUSD, "STUDIO_BUDGET_SESSION_LIMIT")
	setDuration(&cfg.Budget.AlertCooldown, "STUDIO_BUDGET_ALERT_COOLDOWN")
	setFloat64(&cfg.Budget.RateSpikeMultiplier, "STUDIO_BUDGET_SPIKE_MULTIPLIER")
	setInt(&cfg.Session.MemoryWindow, "STUDIO_SESSION_MEMORY_WINDOW")
	setInt(&cfg.Session.CompressionThreshold, "STUDIO_SESSION_COMPRESSION_THRESHOLD")
	setString(&cfg.Logging.Level, "STUDIO_LOG_LEVEL")
	setString(&cfg.Logging.Service, "STUDIO_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "STUDIO_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "STUDIO_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "STUDIO_BREAKER_TIMEOUT")
	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTel.Enabled, "STUDIO_OTEL_ENABLED")
	setInt64(&cfg.Cache.MaxCostBytes, "STUDIO_CACHE_MAX_COST_BYTES")
	setDuration(&cfg.Cache.SummaryTTL, "STUDIO_CACHE_SUMMARY_TTL")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Budget.DefaultProjectLimitUSD <= 0 || cfg.Budget.DefaultSessionLimitUSD <= 0 {
		return errors.New("budget limits must be positive")
	}
	if cfg.Budget.AnomalyPauseCount < 1 {
		return errors.New("budget.anomaly_pause_count must be >= 1")
	}
	if cfg.Session.MemoryWindow < 1 {
		return errors.New("session.memory_window must be >= 1")
	}
	if cfg.Session.CompressionThreshold <= cfg.Session.MemoryWindow {
		return errors.New("session.compression_threshold must exceed memory_window")
	}
	return nil
}

func setString(dst *string, key string) {
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

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
