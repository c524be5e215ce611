// Package config provides configuration management for the Sharpline engine.
package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Engine    EngineConfig    `mapstructure:"engine" validate:"required"`
	Sources   []SourceConfig  `mapstructure:"sources" validate:"required,min=1,dive"`
	API       APIConfig       `mapstructure:"api"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Publisher PublisherConfig `mapstructure:"publisher"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// EngineConfig holds the scan-cycle parameters. Defaults match the documented
// behavior: 10 minute match tolerance, 0.005 safety margin, 120s staleness,
// 30s scan interval, 2 sources minimum.
type EngineConfig struct {
	EventMatchToleranceMinutes int     `mapstructure:"event_match_tolerance_minutes" validate:"required,gt=0"`
	ArbitrageSafetyMargin      float64 `mapstructure:"arbitrage_safety_margin" validate:"gte=0,lt=1"`
	QuoteStalenessSeconds      int     `mapstructure:"quote_staleness_seconds" validate:"required,gt=0"`
	ScanIntervalSeconds        int     `mapstructure:"scan_interval_seconds" validate:"required,gt=0"`
	MinSourcesPerMarket        int     `mapstructure:"min_sources_per_market" validate:"required,gte=2"`
	ScanTimeoutSeconds         int     `mapstructure:"scan_timeout_seconds" validate:"required,gt=0"`
	Bankroll                   float64 `mapstructure:"bankroll" validate:"required,gt=0"`
}

// SourceConfig represents a single odds source configuration
type SourceConfig struct {
	Name                string   `mapstructure:"name" validate:"required"`
	Kind                string   `mapstructure:"kind" validate:"required,sourcekind"`
	Enabled             bool     `mapstructure:"enabled"`
	BaseURL             string   `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey              string   `mapstructure:"api_key"`
	Sports              []string `mapstructure:"sports"`
	PollIntervalSeconds int      `mapstructure:"poll_interval_seconds" validate:"omitempty,gt=0"`
	TimeoutSeconds      int      `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
	RateLimit           float64  `mapstructure:"rate_limit" validate:"omitempty,gt=0"`
}

// APIConfig represents the HTTP API configuration
type APIConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// AuditConfig represents the optional opportunity audit log
type AuditConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// PublisherConfig represents the optional Redis Stream publisher
type PublisherConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	RedisAddr string `mapstructure:"redis_addr"`
	Stream    string `mapstructure:"stream"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// MatchTolerance returns the event correlation window as a duration.
func (c *EngineConfig) MatchTolerance() time.Duration {
	return time.Duration(c.EventMatchToleranceMinutes) * time.Minute
}

// QuoteStaleness returns the quote expiry threshold as a duration.
func (c *EngineConfig) QuoteStaleness() time.Duration {
	return time.Duration(c.QuoteStalenessSeconds) * time.Second
}

// ScanInterval returns the scan cadence as a duration.
func (c *EngineConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

// ScanTimeout returns the per-cycle time budget as a duration.
func (c *EngineConfig) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutSeconds) * time.Second
}

// Source returns the source configuration with the given name, if present.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, src := range c.Sources {
		if src.Name == name {
			return src, true
		}
	}
	return SourceConfig{}, false
}
