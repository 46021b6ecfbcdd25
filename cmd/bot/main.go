package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/archive-bot-go/internal/archive"
	"github.com/user/archive-bot-go/internal/bot"
	"github.com/user/archive-bot-go/internal/config"
	"github.com/user/archive-bot-go/internal/scheduler"
	"github.com/user/archive-bot-go/internal/server"
	"github.com/user/archive-bot-go/internal/store"
	"github.com/user/archive-bot-go/internal/tracking"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second

	// version is reported as the release to error tracking
	version = "archive-bot@1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reporter, err := tracking.NewSentry(cfg.Sentry.DSN, cfg.Sentry.Environment, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize error tracking")
	}
	if sentry, ok := reporter.(*tracking.Sentry); ok {
		defer sentry.Flush(2 * time.Second)
		log.Info().Msg("Error tracking enabled")
	}

	sqlStore, err := store.NewSQLStore(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("Database connection established")

	files, err := archive.New(cfg.Archive.Dir, archive.NewGrabFetcher(cfg.Archive.DownloadTimeout), cfg.Archive.ZipMaxBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open archive")
	}
	log.Info().Str("dir", files.Root()).Msg("Archive initialized")

	telegramClient, err := bot.NewClient(cfg.Bot.Token, cfg.Bot.SendRate)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram client")
	}
	log.Info().Msg("Telegram client initialized")

	dispatcher := bot.NewDispatcher(sqlStore, telegramClient, reporter)
	commands := bot.NewCommands(telegramClient, files, "")
	botHandler := bot.NewHandler(dispatcher, commands)

	sched := scheduler.NewScheduler(sqlStore, files, cfg.Archive.StatsInterval)
	httpServer := server.NewServer(sqlStore)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	sched.Start(ctx)

	handlerDone := make(chan struct{})
	go func() {
		defer close(handlerDone)
		log.Info().Msg("Starting Telegram bot polling")
		botHandler.Run(ctx, telegramClient.GetUpdates(), cfg.Bot.Workers)
	}()

	log.Info().Msg("Archive Bot started successfully")

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	log.Info().Msg("Starting graceful shutdown...")

	sched.Stop()

	// Closing the update channel lets the workers finish the updates in flight
	telegramClient.StopReceivingUpdates()
	select {
	case <-handlerDone:
		log.Info().Msg("Telegram bot polling stopped")
	case <-shutdownCtx.Done():
		log.Warn().Msg("Shutdown timeout exceeded while handling updates")
	}
	cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	} else {
		log.Info().Msg("HTTP server stopped")
	}

	if err := sqlStore.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	} else {
		log.Info().Msg("Database connection closed")
	}

	log.Info().Msg("Graceful shutdown completed")
}
