package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	applog "ledger/internal/log"
)

func main() {
	os.Exit(run())
}

// run serves until a signal arrives and returns the process exit code. The
// ledger is closed before it returns.
func run() int {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	ledger := cli.OpenLedger(ctx, logger, cfg)
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close ledger database", "error", err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, ledger, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "Starting ledger server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"db_path", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(gctx, "Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "Server error", "error", err, "port", cfg.Port)
		return 1
	}

	logger.InfoContext(ctx, "Server stopped gracefully")
	return 0
}
