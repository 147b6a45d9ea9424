package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sentiment-trader/internal/logger"
)

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	cfg, err := loadConfig(ctx)
	if err != nil {
		os.Exit(1)
	}

	app, err := buildApp(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to start", err)
		os.Exit(1)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	app.start(ctx)
	logger.Info(ctx, "Bot started", "symbol", cfg.Symbol, "mode", cfg.Mode, "interval", cfg.Interval.String())

	sig := <-sigc
	logger.Info(ctx, "Shutting down", "signal", sig.String())
	app.shutdown(ctx)
}
