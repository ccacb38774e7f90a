// Package main is the entry point for the expense tracker Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/expense-tracker/internal/bot"
	"gitlab.com/yelinaung/expense-tracker/internal/config"
	"gitlab.com/yelinaung/expense-tracker/internal/database"
	"gitlab.com/yelinaung/expense-tracker/internal/logger"
	"gitlab.com/yelinaung/expense-tracker/internal/repository"
	"gitlab.com/yelinaung/expense-tracker/internal/snapshot"
	"gitlab.com/yelinaung/expense-tracker/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const shutdownTimeout = 10 * time.Second

// backend is the record store plus the snapshot hub fed by its changes.
type backend struct {
	users    repository.UserStore
	expenses repository.ExpenseStore
	hub      *snapshot.Hub
	close    func()
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("expense-tracker %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	if err := logger.InitHashSalt(cfg.LogHashSalt); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialise log hashing")
	}

	providers, err := telemetry.Setup(ctx, cfg.OTelExporter)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	metrics, err := telemetry.NewMetrics(providers.MeterProvider)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create metrics")
	}

	be, err := openBackend(ctx, cfg, metrics)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("backend", cfg.DataBackend).Msg("Failed to open data backend")
	}
	defer be.close()

	telegramBot, err := bot.New(cfg, bot.Deps{
		Users:     be.users,
		Expenses:  be.expenses,
		Snapshots: be.hub,
		Metrics:   metrics,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	telegramBot.Start(ctx)

	logger.Log.Info().Msg("Shutting down...")
	telegramBot.Close()
}

// openBackend wires the configured store to a snapshot hub.
func openBackend(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (*backend, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		store := repository.NewMemoryStore(nil)
		hub := snapshot.NewHub(store, snapshot.WithMetrics(metrics))
		store.SetNotifier(hub)

		logger.Log.Warn().Msg("Using in-memory store, data is lost on restart")
		return &backend{users: store, expenses: store, hub: hub, close: hub.Close}, nil

	default:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}

		if err := database.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Log.Info().Msg("Database initialized successfully")

		expenses := repository.NewExpenseRepository(pool)
		hub := snapshot.NewHub(expenses, snapshot.WithMetrics(metrics))

		listenCtx, cancelListen := context.WithCancel(ctx)
		listenDone := make(chan struct{})
		go func() {
			defer close(listenDone)
			snapshot.NewPGListener(pool, hub).Run(listenCtx)
		}()

		return &backend{
			users:    repository.NewUserRepository(pool),
			expenses: expenses,
			hub:      hub,
			close: func() {
				cancelListen()
				<-listenDone
				hub.Close()
				pool.Close()
			},
		}, nil
	}
}
