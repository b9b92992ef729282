// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is built once at startup
// and passed explicitly to the components that need it.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Rewards   RewardsConfig   `mapstructure:"rewards"`
	Ranks     RanksConfig     `mapstructure:"ranks"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// RewardsConfig holds the economy constants: per-message grants, daily
// reward bases, the level-up coin bonus and the level progression curve.
type RewardsConfig struct {
	XPPerMessage    int64   `mapstructure:"xp_per_message"`
	CoinsPerMessage int64   `mapstructure:"coins_per_message"`
	DailyCoins      int64   `mapstructure:"daily_coins"`
	DailyXP         int64   `mapstructure:"daily_xp"`
	LevelUpBonus    int64   `mapstructure:"level_up_bonus"`
	BaseXP          int64   `mapstructure:"base_xp"`
	XPMultiplier    float64 `mapstructure:"xp_multiplier"`
}

// RanksConfig holds the purchasable rank price list, keyed by lowercased
// rank name.
type RanksConfig struct {
	Prices map[string]int64 `mapstructure:"prices"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DATABASE_HOST, REWARDS_XP_PER_MESSAGE.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine: env vars can provide all config.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "xpbot")
	v.SetDefault("database.name", "xpbot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Economy defaults
	v.SetDefault("rewards.xp_per_message", 5)
	v.SetDefault("rewards.coins_per_message", 2)
	v.SetDefault("rewards.daily_coins", 100)
	v.SetDefault("rewards.daily_xp", 50)
	v.SetDefault("rewards.level_up_bonus", 50)
	v.SetDefault("rewards.base_xp", 100)
	v.SetDefault("rewards.xp_multiplier", 1.5)

	// Purchasable rank prices
	v.SetDefault("ranks.prices", map[string]int64{
		"vip":     5000,
		"premium": 15000,
		"admin":   50000,
	})
}

// RankPrice returns the price of a purchasable rank.
// The lookup is case-insensitive; ok is false for unknown or free ranks.
func (c *Config) RankPrice(rank string) (int64, bool) {
	price, ok := c.Ranks.Prices[strings.ToLower(rank)]
	return price, ok
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
