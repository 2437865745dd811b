package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"ledger/internal/core"
)

// timestampLayout sorts lexically in chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Config locates the ledger file. It is resolved once by the caller and
// never mutated afterwards.
type Config struct {
	DataDir string
	DBPath  string
}

func (c Config) dir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Dir(c.DBPath)
}

func (c Config) dsn() string {
	return c.DBPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Manager owns the SQLite file and hands out transaction-scoped handles.
// Writers are serialized; readers run concurrently.
type Manager struct {
	db      *sqlx.DB
	cfg     Config
	writeMu sync.Mutex
	now     func() time.Time
}

// Open creates the data directory, opens the database and brings the
// schema up to date. Every failure is a *core.StorageUnavailableError.
func Open(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.DBPath == "" {
		return nil, core.Unavailable("open", fmt.Errorf("database path is empty"))
	}

	if err := os.MkdirAll(cfg.dir(), 0755); err != nil {
		return nil, core.Unavailable("create db directory", err)
	}

	db, err := sqlx.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, core.Unavailable("open sqlite database", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, core.Unavailable("ping database", err)
	}

	if err := RunMigrations(cfg.dsn()); err != nil {
		db.Close()
		return nil, core.Unavailable("run migrations", err)
	}

	slog.InfoContext(ctx, "Ledger storage ready", "db_path", cfg.DBPath)

	return newManager(db, cfg), nil
}

func newManager(db *sqlx.DB, cfg Config) *Manager {
	return &Manager{
		db:  db,
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Ping reports whether the database file is still reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return core.Unavailable("ping database", err)
	}
	return nil
}

// Path returns the configured database file.
func (m *Manager) Path() string {
	return m.cfg.DBPath
}

// Read runs fn inside a transaction that is always released.
func (m *Manager) Read(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	return m.inTx(ctx, op, fn)
}

// Write runs fn inside a transaction while holding the writer lock.
func (m *Manager) Write(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.inTx(ctx, op, fn)
}

func (m *Manager) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.Unavailable(op+": begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return core.Unavailable(op+": commit", err)
	}
	return nil
}

func (m *Manager) timestamp() string {
	return m.now().UTC().Format(timestampLayout)
}

// parseTimestamp accepts both the ledger layout and SQLite's datetime('now').
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
