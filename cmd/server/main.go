package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Messenger/internal/adapters/http"
	"github.com/dkeye/Messenger/internal/adapters/identity"
	"github.com/dkeye/Messenger/internal/adapters/metrics"
	"github.com/dkeye/Messenger/internal/adapters/store"
	"github.com/dkeye/Messenger/internal/app"
	"github.com/dkeye/Messenger/internal/app/orch"
	"github.com/dkeye/Messenger/internal/config"
	"github.com/dkeye/Messenger/internal/core"
)

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
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := store.Open(ctx, store.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer func() {
		if err := store.Close(db); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	users := store.NewUserRepository(db)
	calls := store.NewCallRepository(db)
	signals := core.NewMemorySignalStore(core.WithMaxCandidates(cfg.Signaling.MaxCandidates))
	observer := metrics.New()
	limiter := app.NewRateLimiter(cfg.Calls.InitiateLimit, cfg.Calls.InitiateWindow)

	o := &orch.Orchestrator{
		Users:    users,
		Calls:    calls,
		Signals:  signals,
		Policy:   app.SimplePolicy{},
		Limiter:  limiter,
		Observer: observer,
	}

	reaper := &app.Reaper{
		Signals:    signals,
		Calls:      calls,
		Limiter:    limiter,
		Observer:   observer,
		SessionTTL: cfg.Signaling.SessionTTL,
		PendingTTL: cfg.Calls.PendingTTL,
		Interval:   cfg.Signaling.ReapInterval,
	}
	reaper.Start(ctx)
	defer reaper.Stop()

	r := router.SetupRouter(cfg, router.Deps{
		Orch:     o,
		Users:    users,
		Messages: store.NewMessageRepository(db),
		Resolver: identity.DirectoryResolver{Users: users},
		Metrics:  observer.Handler(),
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Messenger server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
	log.Info().Msg("Server exited gracefully")
}
