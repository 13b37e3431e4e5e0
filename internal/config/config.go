package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration of jobfeed.
type Config struct {
	UserID       string
	Database     DatabaseConfig
	Feed         FeedConfig
	Retry        RetryConfig
	AI           AIConfig
	Metering     MeteringConfig
	Scan         ScanConfig
	Notification NotificationConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// FeedConfig controls paging and reconciliation of the listing.
type FeedConfig struct {
	PageSize  int
	Reconcile string // "ignore" or "reload"
}

// RetryConfig is the backoff policy of every remote call.
type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
}

// AIConfig controls the semantic stage of advanced matching.
type AIConfig struct {
	Enabled              bool
	BaseURL              string // defaults to https://api.openai.com/v1
	Model                string
	APIKey               string // expanded from env var by Load
	Timeout              time.Duration
	InputCostPerMillion  float64
	OutputCostPerMillion float64
	MinDelay             time.Duration // minimum gap between LLM calls, zero disables
	BreakerFailures      uint32
}

// MeteringConfig selects where LLM usage is accumulated.
type MeteringConfig struct {
	Backend       string // "sqlite" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Timeout       time.Duration
}

// ScanConfig locates the remote scan function. An empty BaseURL disables
// scanning.
type ScanConfig struct {
	BaseURL  string
	APIKey   string
	MinDelay time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultModel         = "gpt-3.5-turbo-0125"
	defaultDatabasePath  = "jobfeed.db"
	defaultPageSize      = 30
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	UserID       string             `yaml:"user_id"`
	Database     rawDatabaseConfig  `yaml:"database"`
	Feed         rawFeedConfig      `yaml:"feed"`
	Retry        rawRetryConfig     `yaml:"retry"`
	AI           rawAIConfig        `yaml:"ai"`
	Metering     rawMeteringConfig  `yaml:"metering"`
	Scan         rawScanConfig      `yaml:"scan"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawDatabaseConfig struct {
	Path string `yaml:"path"`
}

type rawFeedConfig struct {
	PageSize  int    `yaml:"page_size"`
	Reconcile string `yaml:"reconcile"`
}

type rawRetryConfig struct {
	Attempts  int    `yaml:"attempts"`
	BaseDelay string `yaml:"base_delay"`
}

type rawAIConfig struct {
	Enabled              bool     `yaml:"enabled"`
	BaseURL              string   `yaml:"base_url"`
	Model                string   `yaml:"model"`
	APIKey               string   `yaml:"api_key"`
	Timeout              string   `yaml:"timeout"`
	InputCostPerMillion  *float64 `yaml:"input_cost_per_million"`
	OutputCostPerMillion *float64 `yaml:"output_cost_per_million"`
	MinDelay             string   `yaml:"min_delay"`
	BreakerFailures      uint32   `yaml:"breaker_failures"`
}

type rawMeteringConfig struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Timeout       string `yaml:"timeout"`
}

type rawScanConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	MinDelay string `yaml:"min_delay"`
}

// parseDuration parses value, returning def when value is empty.
func parseDuration(key, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	return d, nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	baseDelay, err := parseDuration("retry.base_delay", raw.Retry.BaseDelay, 300*time.Millisecond)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := parseDuration("ai.timeout", raw.AI.Timeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	aiMinDelay, err := parseDuration("ai.min_delay", raw.AI.MinDelay, 0)
	if err != nil {
		return nil, err
	}
	meteringTimeout, err := parseDuration("metering.timeout", raw.Metering.Timeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	scanMinDelay, err := parseDuration("scan.min_delay", raw.Scan.MinDelay, 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		UserID: strings.TrimSpace(raw.UserID),
		Database: DatabaseConfig{
			Path: raw.Database.Path,
		},
		Feed: FeedConfig{
			PageSize:  raw.Feed.PageSize,
			Reconcile: raw.Feed.Reconcile,
		},
		Retry: RetryConfig{
			Attempts:  raw.Retry.Attempts,
			BaseDelay: baseDelay,
		},
		AI: AIConfig{
			Enabled:              raw.AI.Enabled,
			BaseURL:              raw.AI.BaseURL,
			Model:                raw.AI.Model,
			APIKey:               raw.AI.APIKey,
			Timeout:              aiTimeout,
			InputCostPerMillion:  0.5,
			OutputCostPerMillion: 1.5,
			MinDelay:             aiMinDelay,
			BreakerFailures:      raw.AI.BreakerFailures,
		},
		Metering: MeteringConfig{
			Backend:       raw.Metering.Backend,
			RedisAddr:     raw.Metering.RedisAddr,
			RedisPassword: raw.Metering.RedisPassword,
			RedisDB:       raw.Metering.RedisDB,
			Timeout:       meteringTimeout,
		},
		Scan: ScanConfig{
			BaseURL:  raw.Scan.BaseURL,
			APIKey:   raw.Scan.APIKey,
			MinDelay: scanMinDelay,
		},
		Notification: raw.Notification,
	}
	if raw.AI.InputCostPerMillion != nil {
		cfg.AI.InputCostPerMillion = *raw.AI.InputCostPerMillion
	}
	if raw.AI.OutputCostPerMillion != nil {
		cfg.AI.OutputCostPerMillion = *raw.AI.OutputCostPerMillion
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDatabasePath
	}
	if cfg.Feed.PageSize == 0 {
		cfg.Feed.PageSize = defaultPageSize
	}
	if cfg.Feed.Reconcile == "" {
		cfg.Feed.Reconcile = "ignore"
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 5
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModel
	}
	if cfg.AI.BreakerFailures == 0 {
		cfg.AI.BreakerFailures = 5
	}
	if cfg.Metering.Backend == "" {
		cfg.Metering.Backend = "sqlite"
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
}

func validate(cfg *Config) error {
	if cfg.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if cfg.Feed.PageSize < 2 {
		return fmt.Errorf("feed.page_size must be at least 2, got %d", cfg.Feed.PageSize)
	}
	switch cfg.Feed.Reconcile {
	case "ignore", "reload":
	default:
		return fmt.Errorf("feed.reconcile must be \"ignore\" or \"reload\", got %q", cfg.Feed.Reconcile)
	}
	if cfg.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be positive, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay must be positive, got %v", cfg.Retry.BaseDelay)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.InputCostPerMillion < 0 || cfg.AI.OutputCostPerMillion < 0 {
			return fmt.Errorf("ai cost rates must not be negative")
		}
	}

	switch cfg.Metering.Backend {
	case "sqlite":
	case "redis":
		if cfg.Metering.RedisAddr == "" {
			return fmt.Errorf("metering.redis_addr is required when backend is \"redis\"")
		}
	default:
		return fmt.Errorf("metering.backend must be \"sqlite\" or \"redis\", got %q", cfg.Metering.Backend)
	}

	return nil
}
