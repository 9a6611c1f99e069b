package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"nyumbani/internal/config"
	"nyumbani/internal/db"
	httpserver "nyumbani/internal/http"
	"nyumbani/internal/mpesa"
	"nyumbani/internal/notify"
	"nyumbani/internal/payments"
	"nyumbani/internal/seed"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	gdb := db.Connect(cfg.DSN)
	db.AutoMigrate(gdb)

	if err := seed.FirstSetup(gdb); err != nil {
		log.Fatalf("❌ Seed failed: %v", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("❌ Failed to create upload dir: %v", err)
	}

	hub := notify.NewHub()
	notifier := notify.New(gdb, hub)

	gateway := mpesa.NewClient(
		cfg.MpesaBaseURL,
		cfg.MpesaConsumerKey,
		cfg.MpesaSecret,
		cfg.MpesaShortcode,
		cfg.MpesaPasskey,
		cfg.MpesaCallbackURL,
	)

	paySvc := payments.NewService(gdb, gateway, notifier, logger,
		cfg.UnlockPrice, cfg.UnlockWindow, cfg.PendingTimeout)

	sweeper := payments.NewSweeper(gdb, notifier, logger,
		cfg.SweepInterval, cfg.ReminderLead, cfg.PendingTimeout)
	go sweeper.Start(context.Background())

	r := httpserver.NewRouter(httpserver.Deps{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		UploadDir: cfg.UploadDir,
		Payments:  paySvc,
		Notifier:  notifier,
		Hub:       hub,
	})

	log.Printf("🚀 Server listening on :%s\n", cfg.AppPort)
	r.Run(fmt.Sprintf(":%s", cfg.AppPort))
}
