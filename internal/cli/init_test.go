package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/config"
	applog "ledger/internal/log"
)

func TestSetupLogger_Level(t *testing.T) {
	logger := SetupLogger("debug", io.Discard)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Equal(t, applog.ComponentApp, logger.Component())

	var buf bytes.Buffer
	logger = SetupLogger("loud", &buf)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.Contains(t, buf.String(), "Unknown log level")
	assert.Contains(t, buf.String(), "component=app")
}

func TestOpenLedger(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{DataDir: dir, DBPath: filepath.Join(dir, "ledger.sqlite"), NoteRequired: true}

	ledger := OpenLedger(context.Background(), SetupLogger("error", io.Discard), cfg)
	defer ledger.Close()

	require.NoError(t, ledger.Ready(context.Background()))
	assert.True(t, ledger.Options().NoteRequired)
	assert.FileExists(t, cfg.DBPath)
}
