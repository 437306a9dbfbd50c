// Package config provides configuration management using viper.
// It supports loading from YAML files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Game      GameConfig      `mapstructure:"game"`
	Web       WebConfig       `mapstructure:"web"`
	Journal   JournalConfig   `mapstructure:"journal"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token   string `mapstructure:"token"`
	Enabled bool   `mapstructure:"enabled"`
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

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// GameConfig holds the red or black game settings.
type GameConfig struct {
	InitialBalance     int64         `mapstructure:"initial_balance"`
	MinBet             int64         `mapstructure:"min_bet"`
	MaxBet             int64         `mapstructure:"max_bet"` // 0 means no maximum
	DoubleTimeout      time.Duration `mapstructure:"double_timeout"`
	CountDoubleInStats bool          `mapstructure:"count_double_in_stats"`
	SpinFrames         int           `mapstructure:"spin_frames"`
	SpinInterval       time.Duration `mapstructure:"spin_interval"`
	LockTimeout        time.Duration `mapstructure:"lock_timeout"`
}

// WebConfig holds the browser page server configuration.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// JournalConfig controls the PostgreSQL wager journal.
type JournalConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory. A .env file in the
// working directory is loaded into the process environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g., BOT_TOKEN, GAME_DOUBLE_TIMEOUT, WEB_ADDR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that would make the game misbehave.
func (c *Config) Validate() error {
	if c.Game.InitialBalance < 0 {
		return fmt.Errorf("game.initial_balance must not be negative")
	}
	if c.Game.MinBet < 1 {
		return fmt.Errorf("game.min_bet must be at least 1")
	}
	if c.Game.MaxBet != 0 && c.Game.MaxBet < c.Game.MinBet {
		return fmt.Errorf("game.max_bet must be 0 or at least game.min_bet")
	}
	if c.Game.DoubleTimeout <= 0 {
		return fmt.Errorf("game.double_timeout must be positive")
	}
	if c.Bot.Enabled && c.Bot.Token == "" {
		return fmt.Errorf("bot.token is required when the bot is enabled")
	}
	if !c.Bot.Enabled && !c.Web.Enabled {
		return fmt.Errorf("at least one of bot.enabled and web.enabled must be set")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Keys without a default are invisible to Unmarshal when they only come from env
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.enabled", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "redblack")
	v.SetDefault("database.name", "redblack")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Game defaults
	v.SetDefault("game.initial_balance", 1000)
	v.SetDefault("game.min_bet", 1)
	v.SetDefault("game.max_bet", 0)
	v.SetDefault("game.double_timeout", "30s")
	v.SetDefault("game.count_double_in_stats", false)
	v.SetDefault("game.spin_frames", 8)
	v.SetDefault("game.spin_interval", "500ms")
	v.SetDefault("game.lock_timeout", "5s")

	v.SetDefault("web.enabled", false)
	v.SetDefault("web.addr", ":3000")

	v.SetDefault("journal.enabled", false)
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
