package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bizwars/internal/api"
	"bizwars/internal/auth"
	"bizwars/internal/config"
	"bizwars/internal/db"
	"bizwars/internal/game"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	presets, err := config.LoadPresets(cfg.RulesFile)
	if err != nil {
		logger.Error("load rules failed", "err", err)
		os.Exit(1)
	}

	store, closeStore, err := db.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL, cfg.SQLitePath, db.APIPoolOptions())
	if err != nil {
		logger.Error("store open failed", "err", err, "store", cfg.StoreDriver)
		os.Exit(1)
	}
	defer closeStore()

	var rng game.RandSource
	if cfg.Seed != 0 {
		rng = game.NewRand(cfg.Seed)
	}
	gameSvc := game.NewService(store, game.NewEngine(rng), presets, logger)
	authClient := auth.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	hub := api.NewHub(logger)

	server := api.New(logger, authClient, gameSvc, hub)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("bizwars api listening", "addr", cfg.Addr, "store", cfg.StoreDriver)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
