package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// legacyColumns lists columns added after the first ledger files were
// written without a migrations table. They are backfilled before the
// versioned migrations run.
var legacyColumns = []struct {
	table, column, ddl string
}{
	{"transactions", "account_id", "ALTER TABLE transactions ADD COLUMN account_id INTEGER NOT NULL DEFAULT 1"},
	{"accounts", "archived", "ALTER TABLE accounts ADD COLUMN archived INTEGER NOT NULL DEFAULT 0"},
}

// Older files refreshed updated_at through triggers; the repository now
// writes both timestamps itself.
var legacyTriggers = []string{"transactions_updated_at", "accounts_updated_at"}

func RunMigrations(dsn string) error {
	// Create a separate connection for migrations to avoid interfering with the main connection
	migrateDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	if err := upgradeLegacySchema(migrateDB); err != nil {
		return fmt.Errorf("upgrade legacy schema: %w", err)
	}

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func upgradeLegacySchema(db *sql.DB) error {
	for _, lc := range legacyColumns {
		tableExists, err := tableExists(db, lc.table)
		if err != nil {
			return err
		}
		if !tableExists {
			continue
		}
		has, err := columnExists(db, lc.table, lc.column)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := db.Exec(lc.ddl); err != nil {
			return fmt.Errorf("add %s.%s: %w", lc.table, lc.column, err)
		}
	}
	for _, name := range legacyTriggers {
		if _, err := db.Exec(`DROP TRIGGER IF EXISTS ` + name); err != nil {
			return fmt.Errorf("drop trigger %s: %w", name, err)
		}
	}
	return nil
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspect table %s: %w", table, err)
	}
	return n > 0, nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT count(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspect %s columns: %w", table, err)
	}
	return n > 0, nil
}
