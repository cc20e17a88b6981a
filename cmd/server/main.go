// Package main is the entry point for the FinanceBuddy trade-and-position
// coordinator. It serves a local API over the ledger, pricing and assistant
// collaborators and keeps portfolio and position caches reconciled.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/config"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/di"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/server"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger so the configuration error is still reported
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("ledger", cfg.LedgerBaseURL).
		Str("data_dir", cfg.DataDir).
		Msg("Starting FinanceBuddy")

	container, _, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Initial load: portfolio list first so the reconciler sees the restored
	// or defaulted active id. Failures are recorded on the caches and the
	// server still starts.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 2*cfg.HTTPTimeout)
	if !container.Directory.Refresh(startupCtx) {
		log.Warn().Str("error", container.Directory.Error()).Msg("Initial portfolio load failed")
	}
	container.Reconciler.Reconcile(startupCtx, "")
	startupCancel()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:           log,
		Port:          cfg.Port,
		DevMode:       cfg.DevMode,
		Container:     container,
		MutationRPS:   cfg.MutationRPS,
		MutationBurst: cfg.MutationBurst,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
