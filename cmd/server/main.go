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
	"github.com/spf13/pflag"

	router "github.com/dkeye/Conf/internal/adapters/http"
	"github.com/dkeye/Conf/internal/app"
	"github.com/dkeye/Conf/internal/app/orch"
	"github.com/dkeye/Conf/internal/auth"
	"github.com/dkeye/Conf/internal/clock"
	"github.com/dkeye/Conf/internal/config"
	"github.com/dkeye/Conf/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("bad flags")
	}
	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer func() { _ = db.Close() }()

	tokens := auth.NewTokens(cfg.Secret, cfg.TokenTTL)
	if err := seed(ctx, cfg, db, tokens); err != nil {
		log.Fatal().Err(err).Msg("failed to seed fixtures")
	}

	o := orch.New(orch.Options{
		Store:          db,
		Auth:           tokens,
		Clock:          clock.Real(),
		Policy:         app.SimplePolicy{},
		PresenceTTL:    cfg.PresenceTTL,
		ChatRateLimit:  cfg.Chat.RateLimit,
		ChatRateWindow: cfg.Chat.RateWindow,
		ChatMaxLen:     cfg.Chat.MaxLen,
		Denylist:       cfg.Chat.Denylist,
		HistoryMax:     cfg.Chat.HistoryMax,
		SyncDefault:    cfg.Sync.DefaultLimit,
		SyncMax:        cfg.Sync.MaxLimit,
	})
	go sweepLimiter(ctx, o.Chat.Limiter, cfg.Chat.RateWindow)

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Conf server started")
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

// sweepLimiter drops idle rate limit windows so the map does not grow
// with every (room, user) ever seen.
func sweepLimiter(ctx context.Context, rl *app.RoomRateLimiter, every time.Duration) {
	t := time.NewTicker(every * 6)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := rl.Sweep(); n > 0 {
				log.Debug().Str("module", "main").Int("removed", n).Msg("rate limiter sweep")
			}
		}
	}
}
