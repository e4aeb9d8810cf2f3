package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"syndicator/internal/activity"
	"syndicator/internal/commentsync"
	"syndicator/internal/config"
	"syndicator/internal/crosspost"
	"syndicator/internal/notify"
	"syndicator/internal/scheduler"
	"syndicator/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	reporter := activity.NewLogger(store, log)
	if cfg.TelegramBotToken != "" {
		notifier, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Error("create telegram notifier", "error", err)
			os.Exit(1)
		}
		reporter.SetNotifier(notifier)
	}

	dispatcher := crosspost.New(store, reporter, log, cfg.SiteURL)
	syncer := commentsync.New(store, reporter, log)

	sched := scheduler.New(store, dispatcher, syncer, log)
	sched.SetSyncInterval(time.Duration(cfg.CommentSyncMinutes) * time.Minute)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting syndicator", "site_url", cfg.SiteURL)

	sched.Run(ctx)

	log.Info("syndicator stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
