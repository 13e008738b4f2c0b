// cmd/sage/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/rpg-sage/internal/commands"
	"github.com/keshon/rpg-sage/internal/config"
	"github.com/keshon/rpg-sage/internal/discord"
	"github.com/keshon/rpg-sage/internal/logging"
	"github.com/keshon/rpg-sage/internal/prompt"
	"github.com/keshon/rpg-sage/internal/rediskv"
	"github.com/keshon/rpg-sage/internal/router"
	"github.com/keshon/rpg-sage/internal/sage"
	"github.com/keshon/rpg-sage/internal/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("SAGE_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Sage exited with error", zap.Error(err))
	}
	logger.Info("Sage exited cleanly")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting Sage", zap.String("prefix", cfg.Prefix), zap.String("storage", cfg.StorageBackend))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger.Named("storage"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", zap.Error(err))
		}
	}()

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}

	env := &sage.Env{Session: session, Games: store, Prefix: cfg.Prefix}
	r := router.New(env, logger.Named("router"), router.WithTestBotID(cfg.TestBotID))
	prompter := prompt.New(session, cfg.PromptTimeout, logger.Named("prompt"))

	bot := discord.New(cfg, session, r, store, func(r *router.Router) {
		commands.Register(r, commands.Deps{Store: store, Prompter: prompter, Log: logger.Named("commands")})
	}, logger.Named("discord"))

	return bot.Run(ctx)
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage.Storage, error) {
	if cfg.StorageBackend == "redis" {
		kv, err := rediskv.New(ctx, rediskv.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		return storage.NewWithBackend(kv), nil
	}
	return storage.New(cfg.StoragePath, logger)
}
