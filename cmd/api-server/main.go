package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"foodgram/database"
	"foodgram/internal/app"
	"foodgram/internal/config"
	"foodgram/internal/logging"
)

func main() {
	// 1️⃣ Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2️⃣ Connect to the database and build services
	a, err := app.New(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	if err := database.AutoMigrate(a.DB); err != nil {
		logging.Fatal().Err(err).Msg("migration failed")
	}

	// 3️⃣ Serve until SIGINT/SIGTERM
	if err := a.Serve(ctx); err != nil {
		logging.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	logging.Info().Msg("server stopped gracefully")
}
