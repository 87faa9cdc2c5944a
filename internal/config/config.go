// Package config provides YAML-based configuration loading for the bot.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level bot configuration, loaded from config.yaml.
type Config struct {
	Discord     DiscordConfig     `yaml:"discord"`
	Database    DatabaseConfig    `yaml:"database"`
	Engine      EngineConfig      `yaml:"engine"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
	Alerts      AlertsConfig      `yaml:"alerts"`
	StorySync   StorySyncConfig   `yaml:"story_sync"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// DiscordConfig holds the bot's Discord credentials.
type DiscordConfig struct {
	Token string `yaml:"token"`
	AppID string `yaml:"app_id"`
}

// DatabaseConfig holds connection settings. Driver is "sqlite" or "mysql".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"` // sqlite only
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// EngineConfig tunes the story engine.
type EngineConfig struct {
	StepBudgetMs  int `yaml:"step_budget_ms"`
	LoopThreshold int `yaml:"loop_threshold"`
}

// StepBudget returns the per-sub-step time budget as a duration.
func (e EngineConfig) StepBudget() time.Duration {
	return time.Duration(e.StepBudgetMs) * time.Millisecond
}

// DashboardConfig controls the status dashboard HTTP server.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// AlertsConfig controls best-effort ops alerting.
type AlertsConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
}

// StorySyncConfig points at a GitHub repository holding story source files.
type StorySyncConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Path  string `yaml:"path"`
	Token string `yaml:"token"`
}

// MaintenanceConfig holds cron expressions for scheduled jobs.
type MaintenanceConfig struct {
	CleanupCron string `yaml:"cleanup_cron"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "bardbot.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Database == "" {
		c.Database.Database = "bardbot"
	}
	if c.Engine.StepBudgetMs == 0 {
		c.Engine.StepBudgetMs = 300
	}
	if c.Engine.LoopThreshold == 0 {
		c.Engine.LoopThreshold = 10
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Maintenance.CleanupCron == "" {
		c.Maintenance.CleanupCron = "0 4 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Discord.Token == "" {
		errs = append(errs, "discord.token is required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.Driver == "mysql" && c.Database.User == "" {
		errs = append(errs, "database.user is required for mysql")
	}
	if c.Engine.StepBudgetMs < 0 {
		errs = append(errs, "engine.step_budget_ms must be positive")
	}
	if c.Engine.LoopThreshold < 0 {
		errs = append(errs, "engine.loop_threshold must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
