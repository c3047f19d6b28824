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

	"github.com/dkeye/Chatter/internal/adapters/archive"
	router "github.com/dkeye/Chatter/internal/adapters/http"
	ws "github.com/dkeye/Chatter/internal/adapters/signal"
	"github.com/dkeye/Chatter/internal/app"
	"github.com/dkeye/Chatter/internal/auth"
	"github.com/dkeye/Chatter/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	var store *app.RoomStore
	if cfg.ArchivePath != "" {
		ar, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open archive")
		}
		defer ar.Close()
		store = app.NewRoomStore(cfg.RoomCapacity, ar)
		if err := store.Rehydrate(); err != nil {
			log.Error().Err(err).Msg("archive rehydrate failed")
		}
	} else {
		store = app.NewRoomStore(cfg.RoomCapacity, nil)
	}

	reg := app.NewRegistry()
	cast := app.NewBroadcaster(reg)
	presence := app.NewPresenceTracker(cast, cfg.TypingTTL)
	go presence.Run(ctx)

	ctrl := &ws.ChatWSController{
		Auth:         auth.NewTokenManager(cfg.Secret, cfg.TokenTTL),
		Registry:     reg,
		Store:        store,
		Cast:         cast,
		Presence:     presence,
		Limiter:      ws.NewMessageRateLimiter(cfg.MsgRateLimit, cfg.MsgRateWindow),
		HistoryLimit: cfg.HistoryLimit,
		ReadLimit:    cfg.ReadLimit,
	}

	r := router.SetupRouter(ctx, cfg, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Chatter server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
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
