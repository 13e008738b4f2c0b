package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is read from an optional YAML file, then overridden by the
// environment (and a .env file when present).
type Config struct {
	DiscordToken          string        `yaml:"discord_token" env:"DISCORD_TOKEN"`
	StoragePath           string        `yaml:"storage_path" env:"STORAGE_PATH"`
	LogLevel              string        `yaml:"log_level" env:"LOG_LEVEL"`
	LogFile               string        `yaml:"log_file" env:"LOG_FILE"`
	Prefix                string        `yaml:"prefix" env:"SAGE_PREFIX"`
	TestBotID             string        `yaml:"test_bot_id" env:"TEST_BOT_ID"`
	DiscordGuildBlacklist []string      `yaml:"guild_blacklist" env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	InitSlashCommands     bool          `yaml:"init_slash_commands" env:"INIT_SLASH_COMMANDS"`
	PromptTimeout         time.Duration `yaml:"prompt_timeout" env:"PROMPT_TIMEOUT"`

	// StorageBackend is "file" (StoragePath) or "redis".
	StorageBackend string `yaml:"storage_backend" env:"STORAGE_BACKEND"`
	RedisAddr      string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword  string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB        int    `yaml:"redis_db" env:"REDIS_DB"`
	RedisPrefix    string `yaml:"redis_prefix" env:"REDIS_PREFIX"`
}

// Defaults returns the values used when neither file nor environment set them.
func Defaults() Config {
	return Config{
		StoragePath:       "datastore.json",
		LogLevel:          "info",
		Prefix:            "sage",
		InitSlashCommands: true,
		PromptTimeout:     60 * time.Second,
		StorageBackend:    "file",
		RedisAddr:         "localhost:6379",
		RedisPrefix:       "sage:",
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DiscordToken == "" {
		return nil, errors.New("DISCORD_TOKEN is not set")
	}
	switch cfg.StorageBackend {
	case "file", "redis":
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if cfg.PromptTimeout <= 0 {
		cfg.PromptTimeout = Defaults().PromptTimeout
	}
	return &cfg, nil
}

// IsGuildBlacklisted reports whether the bot should stay out of guildID.
func (c *Config) IsGuildBlacklisted(guildID string) bool {
	for _, id := range c.DiscordGuildBlacklist {
		if id == guildID {
			return true
		}
	}
	return false
}
