package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nyumbani/internal/config"
	"nyumbani/internal/db"
	"nyumbani/internal/notify"
	"nyumbani/internal/payments"
)

// Standalone reminder/expiry worker for deployments that run the sweep
// outside the API process (cron-style, one instance).
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	gdb := db.Connect(cfg.DSN)

	notifier := notify.New(gdb, nil)
	sweeper := payments.NewSweeper(gdb, notifier, logger,
		cfg.SweepInterval, cfg.ReminderLead, cfg.PendingTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	go sweeper.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down sweeper...")
	cancel()
}
