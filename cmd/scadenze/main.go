package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
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

// scadenze runs one full cycle: optional legacy import, instance
// generation over the configured window, then a forecast summary on
// stdout.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting scadenze")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	// Optional one-shot legacy import before anything else touches the
	// window.
	if cfg.LegacyImportFile != "" {
		if err := runLegacyImport(ctx, cfg.LegacyImportFile, sqliteRepo); err != nil {
			logger.Error("Legacy import failed", "error", err, "file", cfg.LegacyImportFile)
			os.Exit(1)
		}
	}

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

	// AMQP is optional; without it events simply stay local.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("AMQP client initialized")
		}
	}

	planner := services.NewPlanner(sqliteRepo, instances, budgetSource, events, cfg.MonthsBack, cfg.MonthsAhead)

	now := time.Now()
	added, err := planner.Refresh(ctx, now)
	if err != nil {
		logger.Error("Generation cycle failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Generation cycle complete", "instances_added", added)

	period, err := planner.ForecastAhead(ctx, now, cfg.MonthsAhead)
	if err != nil {
		logger.Error("Forecast failed", "error", err)
		os.Exit(1)
	}
	printForecast(period)
}

func runLegacyImport(ctx context.Context, path string, repo *storage.SQLiteRepository) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read legacy export: %w", err)
	}
	records, err := services.ParseLegacyExport(data)
	if err != nil {
		return fmt.Errorf("parse legacy export: %w", err)
	}

	result := services.Migrate(ctx, records, time.Now())
	for _, b := range result.BaseExpenses {
		if err := repo.SaveBaseExpense(ctx, b); err != nil {
			return fmt.Errorf("save migrated expense %s: %w", b.ExpenseID(), err)
		}
	}
	if err := repo.InsertInstances(ctx, result.Instances); err != nil {
		return fmt.Errorf("save migrated instances: %w", err)
	}

	for _, fault := range result.Skipped {
		slog.WarnContext(ctx, "Legacy record skipped",
			"index", fault.Index,
			"record_id", fault.ID,
			"error", fault.Err)
	}
	slog.InfoContext(ctx, "Legacy import complete",
		"expenses", len(result.BaseExpenses),
		"instances", len(result.Instances),
		"skipped", len(result.Skipped))
	return nil
}

func printForecast(period services.ForecastPeriod) {
	fmt.Println()
	fmt.Println("Forecast")
	for i, label := range period.Labels {
		totals := period.Totals[i]
		fmt.Printf("  %-10s rate %10s  variabili %10s  budget %10s  totale %10s\n",
			label,
			totals.Installments.String(),
			totals.Variable.String(),
			totals.Budgets.String(),
			totals.Total.String())
	}

	s := period.Summary
	fmt.Printf("\n  %d rate, %d spese variabili, %d budget su %d mesi\n",
		s.InstallmentCount, s.VariableCount, s.BudgetCount, s.Months)
	if s.Months > 0 {
		fmt.Printf("  mese più caro:   %s (%s)\n", s.HighestMonth.DisplayLabel(), s.HighestTotal.String())
		fmt.Printf("  mese più leggero: %s (%s)\n", s.LowestMonth.DisplayLabel(), s.LowestTotal.String())
	}
}
