package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sage.yaml")

	content := `
discord_token: "file-token"
storage_path: "/data/sage.json"
prefix: "rpg"
guild_blacklist:
  - "111"
  - "222"
prompt_timeout: 30s
init_slash_commands: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DiscordToken != "file-token" {
		t.Errorf("DiscordToken = %q, want %q", cfg.DiscordToken, "file-token")
	}
	if cfg.StoragePath != "/data/sage.json" {
		t.Errorf("StoragePath = %q", cfg.StoragePath)
	}
	if cfg.Prefix != "rpg" {
		t.Errorf("Prefix = %q, want rpg", cfg.Prefix)
	}
	if cfg.PromptTimeout != 30*time.Second {
		t.Errorf("PromptTimeout = %v, want 30s", cfg.PromptTimeout)
	}
	if cfg.InitSlashCommands {
		t.Error("InitSlashCommands = true, want false")
	}
	if !cfg.IsGuildBlacklisted("222") || cfg.IsGuildBlacklisted("333") {
		t.Errorf("blacklist = %v", cfg.DiscordGuildBlacklist)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sage.yaml")
	if err := os.WriteFile(configPath, []byte("discord_token: file\nprefix: rpg\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("TEST_BOT_ID", "42")
	t.Setenv("DISCORD_GUILD_BLACKLIST", "a,b")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DiscordToken != "env-token" {
		t.Errorf("DiscordToken = %q, want env-token", cfg.DiscordToken)
	}
	if cfg.Prefix != "rpg" {
		t.Errorf("Prefix = %q, want file value rpg", cfg.Prefix)
	}
	if cfg.TestBotID != "42" {
		t.Errorf("TestBotID = %q, want 42", cfg.TestBotID)
	}
	if len(cfg.DiscordGuildBlacklist) != 2 {
		t.Errorf("DiscordGuildBlacklist = %v", cfg.DiscordGuildBlacklist)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	want := Defaults()
	if cfg.StoragePath != want.StoragePath || cfg.Prefix != want.Prefix || cfg.PromptTimeout != want.PromptTimeout {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	if _, err := Load(""); err == nil {
		t.Error("Load() should error without a token")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/sage.yaml"); err == nil {
		t.Error("Load() should error on missing file")
	}
}

func TestStorageBackend(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StorageBackend != "redis" || cfg.RedisDB != 2 || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("redis settings = %q %d %q", cfg.StorageBackend, cfg.RedisDB, cfg.RedisAddr)
	}

	t.Setenv("STORAGE_BACKEND", "postgres")
	if _, err := Load(""); err == nil {
		t.Error("Load() accepted an unknown storage backend")
	}
}
