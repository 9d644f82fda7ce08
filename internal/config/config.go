// Package config provides configuration management for the journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig holds storage configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// TradingConfig holds session and scheduler configuration.
type TradingConfig struct {
	// Timezone is the IANA timezone defining the trading day boundary.
	Timezone string `mapstructure:"timezone"`
	TraderID int64  `mapstructure:"trader_id"`
}

// DefaultsConfig holds the default parameters applied to new trading
// periods when the caller leaves them unset. Percentages are fractions
// of capital, not whole percents.
type DefaultsConfig struct {
	DailyTargetPct  float64 `mapstructure:"daily_target_pct"`
	PayoutPct       float64 `mapstructure:"payout_pct"`
	RiskPerTradePct float64 `mapstructure:"risk_per_trade_pct"`
	MartingaleSteps int     `mapstructure:"martingale_steps"`
	MaxDailyLossPct float64 `mapstructure:"max_daily_loss_pct"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/binary-trader"
	}
	return filepath.Join(home, ".config", "binary-trader")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		// Missing file: write the template and continue on defaults.
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("database.path", filepath.Join(configDir, "journal.db"))
	v.SetDefault("trading.timezone", "America/Bogota")
	v.SetDefault("trading.trader_id", 1)
	v.SetDefault("defaults.daily_target_pct", 0.15)
	v.SetDefault("defaults.payout_pct", 0.80)
	v.SetDefault("defaults.risk_per_trade_pct", 0.05)
	v.SetDefault("defaults.martingale_steps", 3)
	v.SetDefault("defaults.max_daily_loss_pct", 0.06)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "journal.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BINARY_TRADER_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BINARY_TRADER_TIMEZONE"); v != "" {
		cfg.Trading.Timezone = v
	}
	if v := os.Getenv("BINARY_TRADER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := time.LoadLocation(c.Trading.Timezone); err != nil {
		return fmt.Errorf("invalid trading timezone %q: %w", c.Trading.Timezone, err)
	}
	if c.Trading.TraderID <= 0 {
		return fmt.Errorf("trading.trader_id must be positive")
	}

	for _, pct := range []struct {
		name  string
		value float64
	}{
		{"defaults.daily_target_pct", c.Defaults.DailyTargetPct},
		{"defaults.payout_pct", c.Defaults.PayoutPct},
		{"defaults.risk_per_trade_pct", c.Defaults.RiskPerTradePct},
		{"defaults.max_daily_loss_pct", c.Defaults.MaxDailyLossPct},
	} {
		if pct.value < 0 || pct.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", pct.name)
		}
	}
	if c.Defaults.MartingaleSteps < 0 {
		return fmt.Errorf("defaults.martingale_steps must be non-negative")
	}

	return nil
}

// Location returns the configured trading timezone. Call Validate
// first; an invalid timezone falls back to UTC here.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Trading.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
