package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rewired-gh/stakewatch/internal/binance"
	"github.com/rewired-gh/stakewatch/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Binance  BinanceConfig  `mapstructure:"binance"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BinanceConfig holds status endpoint and polling configuration
type BinanceConfig struct {
	PollInterval time.Duration             `mapstructure:"poll_interval"`
	Timeout      time.Duration             `mapstructure:"timeout"`
	UserAgent    string                    `mapstructure:"user_agent"`
	Categories   map[string]CategoryConfig `mapstructure:"categories"`
}

// CategoryConfig holds the endpoint and watchlist of one staking category
type CategoryConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Watchlist string `mapstructure:"watchlist"`
	Enabled   bool   `mapstructure:"enabled"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	ChatID      string `mapstructure:"chat_id"`
	APIEndpoint string `mapstructure:"api_endpoint"`
	Enabled     bool   `mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g. STAKEWATCH_TELEGRAM_BOT_TOKEN
	v.SetEnvPrefix("STAKEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Binance defaults
	v.SetDefault("binance.poll_interval", "30s")
	v.SetDefault("binance.timeout", "15s")
	v.SetDefault("binance.user_agent", "stakewatch/1.0")
	v.SetDefault("binance.categories.locked.endpoint", binance.DefaultLockedEndpoint)
	v.SetDefault("binance.categories.locked.watchlist", "./watchlist_locked.csv")
	v.SetDefault("binance.categories.locked.enabled", true)
	v.SetDefault("binance.categories.defi.endpoint", binance.DefaultDefiEndpoint)
	v.SetDefault("binance.categories.defi.watchlist", "./watchlist_defi.csv")
	v.SetDefault("binance.categories.defi.enabled", true)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_endpoint", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Binance config
	if c.Binance.PollInterval < 5*time.Second {
		return fmt.Errorf("binance.poll_interval must be at least 5 seconds")
	}
	if c.Binance.Timeout <= 0 {
		return fmt.Errorf("binance.timeout must be positive")
	}
	names := make([]string, 0, len(c.Binance.Categories))
	for name := range c.Binance.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := models.ParseCategory(name); err != nil {
			return fmt.Errorf("binance.categories: %w", err)
		}
		cat := c.Binance.Categories[name]
		if !cat.Enabled {
			continue
		}
		if cat.Endpoint == "" {
			return fmt.Errorf("binance.categories.%s.endpoint is required", name)
		}
		if cat.Watchlist == "" {
			return fmt.Errorf("binance.categories.%s.watchlist is required", name)
		}
	}
	if len(c.EnabledCategories()) == 0 {
		return fmt.Errorf("binance.categories must enable at least one category")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// EnabledCategories returns the enabled categories in polling order.
func (c *Config) EnabledCategories() []models.Category {
	var out []models.Category
	for _, cat := range models.Categories {
		if cc, ok := c.Binance.Categories[string(cat)]; ok && cc.Enabled {
			out = append(out, cat)
		}
	}
	return out
}

// Category returns the configuration of one category.
func (c *Config) Category(cat models.Category) CategoryConfig {
	return c.Binance.Categories[string(cat)]
}
