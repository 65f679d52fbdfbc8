// Package main is the entry point for the svtk portfolio tracker
// server. It loads or creates an encrypted portfolio file, exposes the
// tracker over a local HTTP API, and refreshes prices on a schedule.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"svtk/internal/config"
	"svtk/internal/scheduler"
	"svtk/internal/server"
	"svtk/internal/tracker"
	"svtk/pkg/logger"
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

	log.Info().Msg("Starting svtk")

	// Open the portfolio file, or start a fresh portfolio when the file
	// does not exist yet. The first save creates it.
	var t *tracker.Tracker
	if _, statErr := os.Stat(cfg.FilePath); statErr == nil {
		t, err = tracker.LoadFromFile(cfg.FilePath, cfg.Password, log)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.FilePath).Msg("Failed to open portfolio file")
		}
		log.Info().Str("path", cfg.FilePath).Int("events", t.EventCount()).Msg("Portfolio loaded")
	} else {
		t = tracker.New(log)
		if err := t.SaveToFile(cfg.FilePath, cfg.Password); err != nil {
			log.Fatal().Err(err).Str("path", cfg.FilePath).Msg("Failed to create portfolio file")
		}
		log.Info().Str("path", cfg.FilePath).Msg("Created new portfolio")
	}

	// One mutex guards the tracker across the HTTP server and the
	// refresh scheduler.
	var mu sync.Mutex

	srv := server.New(cfg, t, &mu, log)
	sched := scheduler.New(cfg, t, &mu, log)

	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Persist any unsaved changes before exiting.
	mu.Lock()
	if t.HasUnsavedChanges() {
		if err := t.SaveToFile(cfg.FilePath, cfg.Password); err != nil {
			log.Error().Err(err).Msg("Failed to save portfolio on shutdown")
		} else {
			log.Info().Msg("Portfolio saved")
		}
	}
	mu.Unlock()

	log.Info().Msg("Server stopped")
}
