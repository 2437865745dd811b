// Package cli holds the start-up steps shared by cmd/ledger and
// cmd/ledger-export.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/config"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// SetupLogger builds the process logger at the given level, writing to out,
// and installs it as the slog default. An unknown level falls back to info
// with a warning.
func SetupLogger(level string, out io.Writer) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Output = out
	lvl, err := config.ParseLevel(level)
	if err == nil {
		cfg.Level = lvl
	}

	logger := applog.New(cfg)
	applog.SetDefault(logger)
	if err != nil {
		logger.WarnContext(context.Background(), "Unknown log level, using info", "level", level)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.ErrorContext(context.Background(), "Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenLedger opens the ledger database and wraps it in a service.
// Exits the process when the store cannot be opened.
func OpenLedger(ctx context.Context, logger *applog.Logger, cfg *config.Config) *services.LedgerService {
	storeLog := logger.WithComponent(applog.ComponentStorage)

	store, err := storage.Open(ctx, cfg.Storage())
	if err != nil {
		storeLog.ErrorContext(ctx, "Failed to open ledger database",
			applog.FieldOperation, applog.OpStartup,
			"error", err,
			"path", cfg.DBPath)
		os.Exit(1)
	}

	storeLog.InfoContext(ctx, "Ledger database opened",
		applog.FieldOperation, applog.OpStartup,
		"path", store.Path(),
		"note_required", cfg.NoteRequired)

	ledger, err := services.NewLedgerService(store, cfg.Validation())
	if err != nil {
		storeLog.ErrorContext(ctx, "Failed to start ledger service", "error", err)
		os.Exit(1)
	}
	return ledger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
