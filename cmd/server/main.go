// Package main is the entry point for the ticker classifier HTTP service.
// It wires the cache database, provider clients, classifier, cache janitor
// and HTTP server, then runs until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/StephanAkkerman/ticker-classifier/internal/backup"
	"github.com/StephanAkkerman/ticker-classifier/internal/cache"
	"github.com/StephanAkkerman/ticker-classifier/internal/classify"
	"github.com/StephanAkkerman/ticker-classifier/internal/clients/coingecko"
	"github.com/StephanAkkerman/ticker-classifier/internal/clients/yahoo"
	"github.com/StephanAkkerman/ticker-classifier/internal/config"
	"github.com/StephanAkkerman/ticker-classifier/internal/database"
	"github.com/StephanAkkerman/ticker-classifier/internal/server"
	"github.com/StephanAkkerman/ticker-classifier/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("cache", cfg.CachePath).Msg("Starting ticker classifier")

	db, err := database.Open(cfg.CachePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer db.Close()

	store, err := cache.NewStore(db.Conn(), cfg.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache store")
	}

	var yahooOpts []yahoo.Option
	if cfg.YahooBaseURL != "" {
		yahooOpts = append(yahooOpts, yahoo.WithBaseURL(cfg.YahooBaseURL))
	}
	var cgOpts []coingecko.Option
	if cfg.CoinGeckoBaseURL != "" {
		cgOpts = append(cgOpts, coingecko.WithBaseURL(cfg.CoinGeckoBaseURL))
	}

	classifier := classify.New(
		store,
		yahoo.NewClient(log, yahooOpts...),
		coingecko.NewClient(log, cgOpts...),
		log,
		classify.WithWorkers(cfg.Workers),
		classify.WithProviderTimeout(cfg.ProviderTimeout),
	)

	// Optional S3 backup service
	var backupSvc *backup.Service
	if cfg.Backup.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		backupSvc, err = backup.New(ctx, cfg.Backup, cfg.CachePath, log)
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize backup service, continuing without backups")
			backupSvc = nil
		}
	}

	// Daily janitor for expired cache rows
	janitor := cron.New()
	if err := cache.NewCleanupJob(store, log).Schedule(janitor); err != nil {
		log.Error().Err(err).Msg("Failed to schedule cache cleanup job")
	}
	janitor.Start()
	defer janitor.Stop()

	srv := server.New(server.Config{
		Log:        log,
		Classifier: classifier,
		Store:      store,
		Backup:     backupSvc,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
