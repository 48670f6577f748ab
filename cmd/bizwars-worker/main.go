package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"bizwars/internal/config"
	"bizwars/internal/db"
	"bizwars/internal/game"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	store, closeStore, err := db.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL, cfg.SQLitePath, db.WorkerPoolOptions())
	if err != nil {
		logger.Error("store open failed", "err", err, "store", cfg.StoreDriver)
		os.Exit(1)
	}
	defer closeStore()

	svc := game.NewService(store, nil, nil, logger)

	purge := func() {
		if _, err := svc.PurgeFinished(ctx, cfg.PurgeAfter); err != nil {
			logger.Error("purge failed", "err", err)
		}
	}

	if cfg.RunOnce {
		purge()
		logger.Info("worker run-once completed")
		return
	}

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(cfg.PurgeCron, purge); err != nil {
		logger.Error("register purge job", "err", err, "spec", cfg.PurgeCron)
		os.Exit(1)
	}
	c.Start()
	logger.Info("worker started", "store", cfg.StoreDriver, "purge_cron", cfg.PurgeCron, "purge_after", cfg.PurgeAfter.String())

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("worker shutdown")
}
