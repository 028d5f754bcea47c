package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentinel/internal/config"
	"sentinel/internal/daemon"
	"sentinel/internal/dispatch"
	"sentinel/internal/logging"
	"sentinel/internal/presence"
	"sentinel/internal/store"
	"sentinel/internal/tracker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := os.Getenv("SENTINEL_CONFIG")
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogPath()},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		os.Exit(1)
	}

	source := presence.New(cfg)
	sender := dispatch.NewSender(cfg)
	webhooks := dispatch.NewWebhookClient(time.Duration(cfg.Discord.RequestTimeout) * time.Second)
	dispatcher := dispatch.New(st, sender, webhooks, logger)
	engine := tracker.New(cfg, st, source, dispatcher, logger)

	validator, _ := sender.(dispatch.SessionValidator)
	d, err := daemon.New(cfg, st, engine, dispatcher, source, validator, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("sentineld shutting down")
}
