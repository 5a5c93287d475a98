package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/dashboard"
	"github.com/skynet2/spending-dashboard/pkg/parser"
	"github.com/skynet2/spending-dashboard/pkg/repo"
)

func main() {
	var cfg common.Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(logger.WithContext(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repo.Open(&cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}

	app := dashboard.NewApp(&dashboard.Config{
		Store:         store,
		Parser:        parser.NewParser(),
		Prefix:        cfg.AppPrefix,
		FlushInterval: cfg.FilterFlushInterval,
		MaxAgeDays:    cfg.SessionMaxAgeDays,
	})
	app.Init(ctx)

	go app.Run(ctx)

	listenAddr := cfg.ListenAddr
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	srv := &http.Server{
		Handler:      NewHandler(app, cfg.ApiKey).Router(logger),
		Addr:         listenAddr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Err(shutdownErr).Msg("failed to shutdown server")
		}
	}()

	logger.Info().
		Str("addr", listenAddr).
		Str("storage", string(cfg.StorageBackend)).
		Str("tracking_id", app.TrackingID()).
		Msg("listening")

	if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server failed")
	}

	app.Dispose(logger.WithContext(context.Background()))
}
