// Command ledger-export writes a CSV export of the ledger without starting
// the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ledger/internal/cli"
	"ledger/internal/core"
	"ledger/internal/export"
	applog "ledger/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, time.Now()))
}

// run returns the process exit code: 0 on success, 1 when the export
// fails, 2 for bad arguments. The ledger is closed before it returns.
func run(args []string, stdout, stderr io.Writer, now time.Time) int {
	fs := flag.NewFlagSet("ledger-export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		start   = fs.String("start", "", "first day of the range (YYYY-MM-DD), defaults to the current month")
		end     = fs.String("end", "", "last day of the range (YYYY-MM-DD), defaults to the current month")
		account = fs.Int64("account", 0, "account id, 0 for all accounts")
		out     = fs.String("out", "", "output file or directory; \"-\" writes to stdout")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cli.LoadEnvFile()

	// stdout may carry the CSV itself.
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), stderr).WithComponent(applog.ComponentExport)
	cfg := cli.LoadAndValidateConfig(logger)

	monthStart, monthEnd := core.CurrentMonthRange(now)
	if *start == "" {
		*start = monthStart.String()
	}
	if *end == "" {
		*end = monthEnd.String()
	}

	f, err := core.NewFilter(*start, *end, *account)
	if err != nil {
		fmt.Fprintln(stderr, "ledger-export:", err)
		return 2
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	ledger := cli.OpenLedger(ctx, logger, cfg)
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close ledger database", "error", err)
		}
	}()

	data, err := ledger.Export(ctx, f)
	if err != nil {
		logger.ErrorContext(ctx, "Export failed", "error", err)
		return 1
	}

	if *out == "-" {
		if _, err := stdout.Write(data); err != nil {
			logger.ErrorContext(ctx, "Failed to write export", "error", err)
			return 1
		}
		return 0
	}

	path := *out
	name := export.Filename(f.AccountID, f.Start, f.End)
	if path == "" {
		path = name
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, name)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.ErrorContext(ctx, "Failed to write export", "error", err, "path", path)
		return 1
	}

	logger.InfoContext(ctx, "Export written", "path", path, "bytes", len(data))
	return 0
}
