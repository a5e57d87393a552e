package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	SQLiteDBPath string

	// Generation window
	MonthsBack  int
	MonthsAhead int

	// Worker
	GenerationInterval time.Duration
	ExportBatchSize    int
	ExportInterval     time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets (budget source and payment ledger)
	GoogleSpreadsheetID    string
	GoogleBudgetsSheetName string
	GoogleLedgerSheetName  string

	// Budget source selection
	BudgetSource string

	// Budget cache
	BudgetCacheTTL time.Duration

	// One-shot import
	LegacyImportFile string
}

func Load() *Config {
	cfg := &Config{
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/scadenze.db"),

		MonthsBack:  getEnvInt("MONTHS_BACK", 3),
		MonthsAhead: getEnvInt("MONTHS_AHEAD", 6),

		GenerationInterval: getEnvDuration("GENERATION_INTERVAL", 6*time.Hour),
		ExportBatchSize:    getEnvInt("EXPORT_BATCH_SIZE", 10),
		ExportInterval:     getEnvDuration("EXPORT_INTERVAL", 30*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "scadenze"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "instance_events"),

		GoogleSpreadsheetID:    getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleBudgetsSheetName: getEnv("GOOGLE_BUDGETS_SHEET_NAME", "Budgets"),
		GoogleLedgerSheetName:  getEnv("GOOGLE_LEDGER_SHEET_NAME", "Pagamenti"),

		BudgetSource: getEnv("BUDGET_SOURCE", "memory"),

		BudgetCacheTTL: getEnvDuration("BUDGET_CACHE_TTL", 5*time.Minute),

		LegacyImportFile: getEnv("LEGACY_IMPORT_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.MonthsBack < 0 {
		errors = append(errors, fmt.Sprintf("invalid months back %d: must not be negative", c.MonthsBack))
	}
	if c.MonthsAhead < 0 {
		errors = append(errors, fmt.Sprintf("invalid months ahead %d: must not be negative", c.MonthsAhead))
	}
	if c.MonthsBack > 120 || c.MonthsAhead > 120 {
		errors = append(errors, fmt.Sprintf("generation window %d back / %d ahead too wide: max 120 months each way", c.MonthsBack, c.MonthsAhead))
	}

	if c.GenerationInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid generation interval %v: must be at least 1 minute", c.GenerationInterval))
	}

	if c.ExportBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at least 1", c.ExportBatchSize))
	} else if c.ExportBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid export batch size %d: must be at most 1000", c.ExportBatchSize))
	}

	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate budget source selection
	validSources := []string{"memory", "sheets"}
	isValidSource := false
	for _, source := range validSources {
		if c.BudgetSource == source {
			isValidSource = true
			break
		}
	}
	if !isValidSource {
		errors = append(errors, fmt.Sprintf("invalid budget source '%s': must be one of %v", c.BudgetSource, validSources))
	}

	if c.BudgetSource == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets budget source")
		}
		if c.GoogleBudgetsSheetName == "" {
			errors = append(errors, "Google budgets sheet name is required when using sheets budget source")
		}
	}

	if c.BudgetCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid budget cache TTL %v: must not be negative", c.BudgetCacheTTL))
	}

	if c.LegacyImportFile != "" {
		if _, err := os.Stat(c.LegacyImportFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("legacy import file does not exist: %s", c.LegacyImportFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
