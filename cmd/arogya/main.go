package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adda-Baaj/arogya-bot/internal/app"
	"github.com/Adda-Baaj/arogya-bot/internal/config"
	"github.com/Adda-Baaj/arogya-bot/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "arogya start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("arogya starting", "config", map[string]any{
		"env":          cfg.Env,
		"http_addr":    cfg.HTTPAddr,
		"cache_type":   cfg.CacheType,
		"nlu_type":     cfg.NLUType,
		"outbreak_url": cfg.OutbreakFeedURL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := app.NewServer(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize server", "error", err.Error())
		return err
	}

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server run: %w", err)
	}
	return nil
}
