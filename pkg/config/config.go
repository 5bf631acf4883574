// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Ledger    LedgerConfig
	Import    ImportConfig
	Recurring RecurringConfig
	Logging   LoggingConfig
}

// LedgerConfig configures the backing ledger store.
type LedgerConfig struct {
	DatabasePath string // SQLite file; empty selects the in-memory store
	SearchPath   string // bleve index directory; empty disables search
}

// ImportConfig carries defaults applied to imported statements.
type ImportConfig struct {
	DefaultCurrency    string
	DefaultAccount     string
	RulesPath          string // YAML categorization rules file
	Timezone           string
	IncludeNeedsReview bool // commit flagged records instead of dropping them
}

// RecurringConfig configures materialization of recurring templates.
type RecurringConfig struct {
	TemplatesPath string // YAML template file; empty disables the scheduler
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string // debug, info, warn, error
}

// Load reads configuration from the environment, after merging in a .env
// file when one exists in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Ledger: LedgerConfig{
			DatabasePath: getEnv("LEDGER_DB_PATH", "homeledger.db"),
			SearchPath:   getEnv("LEDGER_SEARCH_PATH", ""),
		},
		Import: ImportConfig{
			DefaultCurrency:    getEnv("IMPORT_DEFAULT_CURRENCY", "RUB"),
			DefaultAccount:     getEnv("IMPORT_DEFAULT_ACCOUNT", "Карта"),
			RulesPath:          getEnv("IMPORT_RULES_PATH", ""),
			Timezone:           getEnv("IMPORT_TIMEZONE", ""),
			IncludeNeedsReview: getEnvAsBool("IMPORT_INCLUDE_NEEDS_REVIEW", false),
		},
		Recurring: RecurringConfig{
			TemplatesPath: getEnv("RECURRING_TEMPLATES_PATH", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
