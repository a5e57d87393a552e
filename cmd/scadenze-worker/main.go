package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"scadenze/internal/amqp"
	"scadenze/internal/budgets"
	gsheet "scadenze/internal/budgets/google"
	mem "scadenze/internal/budgets/memory"
	"scadenze/internal/config"
	applog "scadenze/internal/log"
	"scadenze/internal/services"
	"scadenze/internal/storage"
	"scadenze/internal/store"
)

// scadenze-worker keeps the instance window materialized: every tick it
// regenerates over the configured range, persisting whatever months are
// newly covered.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting scadenze-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	instances := store.New()
	existing, err := sqliteRepo.ListInstances(ctx)
	if err != nil {
		logger.Error("Failed to load instances", "error", err)
		os.Exit(1)
	}
	instances.Load(existing)

	var budgetSource budgets.Reader
	switch cfg.BudgetSource {
	case "sheets":
		cli, err := gsheet.NewFromEnv(ctx, cfg.BudgetCacheTTL)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets budget source", "error", err)
			os.Exit(1)
		}
		budgetSource = cli
		logger.Info("Initialized Google Sheets budget source", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		budgetSource = mem.NewSeeded()
		logger.Info("Initialized memory budget source")
	}

	// Generated-instance events feed the sync worker. AMQP being down
	// degrades to SQLite-only operation.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("AMQP client initialized - instance events will be published")
		}
	} else {
		logger.Info("AMQP disabled - instance events stay local")
	}

	planner := services.NewPlanner(sqliteRepo, instances, budgetSource, events, cfg.MonthsBack, cfg.MonthsAhead)

	logger.Info("Instance generator configured",
		"interval", cfg.GenerationInterval,
		"months_back", cfg.MonthsBack,
		"months_ahead", cfg.MonthsAhead,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.GenerationInterval)
	defer ticker.Stop()

	// Run initial generation on startup
	logger.Info("Running initial generation cycle...")
	if added, err := planner.Refresh(ctx, time.Now()); err != nil {
		logger.Error("Initial generation failed", "error", err)
	} else {
		logger.Info("Initial generation complete", "instances_added", added)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				added, err := planner.Refresh(ctx, now)
				if err != nil {
					logger.Error("Periodic generation failed", "error", err)
				} else {
					logger.Info("Periodic generation complete",
						"instances_added", added,
						"next_check", now.Add(cfg.GenerationInterval).Format("15:04:05"))
				}
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("scadenze-worker stopped")
}
