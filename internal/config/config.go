package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP API
	ListenAddr     string `envconfig:"MC_LISTEN_ADDR" default:":8080"`
	APIKey         string `envconfig:"MC_API_KEY"`
	CORSOrigins    string `envconfig:"MC_CORS_ORIGINS"`
	RateLimitRPS   int    `envconfig:"MC_RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int    `envconfig:"MC_RATE_LIMIT_BURST" default:"0"`

	// Storage
	DBPath  string `envconfig:"MC_DB_PATH" default:"mission-control.db"`
	PlanDir string `envconfig:"MC_PLAN_DIR" default:"execution_plans"`

	// Workspace search index
	WorkspaceDir string `envconfig:"MC_WORKSPACE_DIR"`
	IndexExts    string `envconfig:"MC_INDEX_EXTS" default:".md,.txt,.ts,.js,.tsx,.jsx,.json"`
	IndexOnStart bool   `envconfig:"MC_INDEX_ON_START" default:"false"`

	// Execution dispatcher
	Workers   int `envconfig:"MC_WORKERS" default:"2"`
	QueueSize int `envconfig:"MC_QUEUE_SIZE" default:"256"`

	// Review surface
	SnoozeWindow  time.Duration `envconfig:"MC_SNOOZE_WINDOW" default:"24h"`
	ActivityLimit int           `envconfig:"MC_ACTIVITY_LIMIT" default:"50"`

	// Demo mode: seeds sample projects/suggestions via POST /api/v1/seed.
	// Sample data never leaks into normal operation.
	DemoMode bool `envconfig:"MC_DEMO_MODE" default:"false"`
}

// IndexExtList returns the parsed list of indexable file extensions.
func (c *Config) IndexExtList() []string {
	parts := strings.Split(c.IndexExts, ",")
	exts := make([]string, 0, len(parts))
	for _, e := range parts {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

// AuthEnabled returns true if API key auth is configured.
func (c *Config) AuthEnabled() bool {
	return c.APIKey != ""
}

// Validate checks cross-field constraints that envconfig defaults cannot express.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("MC_WORKERS must be positive, got %d", c.Workers)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("MC_QUEUE_SIZE must be positive, got %d", c.QueueSize)
	}
	if c.SnoozeWindow <= 0 {
		return fmt.Errorf("MC_SNOOZE_WINDOW must be positive, got %s", c.SnoozeWindow)
	}
	if c.ActivityLimit <= 0 {
		return fmt.Errorf("MC_ACTIVITY_LIMIT must be positive, got %d", c.ActivityLimit)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
