package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Bingo/internal/adapters/http"
	"github.com/dkeye/Bingo/internal/adapters/storage/memory"
	"github.com/dkeye/Bingo/internal/adapters/storage/postgres"
	"github.com/dkeye/Bingo/internal/app"
	"github.com/dkeye/Bingo/internal/app/orch"
	"github.com/dkeye/Bingo/internal/config"
	"github.com/dkeye/Bingo/internal/core"
)

func openStore(cfg *config.Config) (core.SessionStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		st, err := postgres.Open(cfg.Storage.DSN, cfg.Storage.SlowThreshold)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			if err := st.Close(); err != nil {
				log.Error().Err(err).Msg("close store")
			}
		}, nil
	default:
		return memory.NewStore(), func() {}, nil
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to open store")
	}
	defer closeStore()

	hub := app.NewHub(app.SimplePolicy{})
	o := orch.New(store, hub)
	if cfg.Gate.MaxAttempts > 0 {
		o.MaxAttempts = cfg.Gate.MaxAttempts
	}

	r := router.SetupRouter(ctx, cfg, o, hub)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("storage", cfg.Storage.Driver).Msg("Bingo server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	for _, ch := range hub.List() {
		hub.Stop(ch.Code)
	}
	log.Info().Msg("Server exited gracefully")
}
