package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"ledger/internal/core"
)

const (
	accountColumns = `id, name, archived, created_at, updated_at`

	insertAccountSQL   = `INSERT INTO accounts (name, archived, created_at, updated_at) VALUES (?, 0, ?, ?)`
	getAccountSQL      = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	listAccountsSQL    = `SELECT ` + accountColumns + ` FROM accounts WHERE (? = 1 OR archived = 0) ORDER BY id ASC`
	renameAccountSQL   = `UPDATE accounts SET name = ?, updated_at = MAX(created_at, ?) WHERE id = ?`
	archiveAccountSQL  = `UPDATE accounts SET archived = ?, updated_at = MAX(created_at, ?) WHERE id = ?`
	countAccountTxnSQL = `SELECT count(*) FROM transactions WHERE account_id = ?`
	deleteAccountSQL   = `DELETE FROM accounts WHERE id = ?`
)

type accountRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Archived  bool   `db:"archived"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r accountRow) toCore() core.Account {
	return core.Account{
		ID:        r.ID,
		Name:      r.Name,
		Archived:  r.Archived,
		CreatedAt: parseTimestamp(r.CreatedAt),
		UpdatedAt: parseTimestamp(r.UpdatedAt),
	}
}

// AccountRepository manages the accounts transactions are filed under.
type AccountRepository struct {
	m *Manager
}

func NewAccountRepository(m *Manager) *AccountRepository {
	return &AccountRepository{m: m}
}

// Create adds an active account. Names are unique.
func (r *AccountRepository) Create(ctx context.Context, name string) (int64, error) {
	name, err := core.ValidateAccountName(name)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.m.Write(ctx, "create account", func(tx *sqlx.Tx) error {
		now := r.m.timestamp()
		res, err := tx.ExecContext(ctx, insertAccountSQL, name, now, now)
		if err != nil {
			return accountNameError(mapError("insert account", err))
		}
		id, err = res.LastInsertId()
		return mapError("insert account id", err)
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Account created", "account_id", id, "name", name)
	return id, nil
}

// List returns accounts ordered by id; archived ones only when asked.
func (r *AccountRepository) List(ctx context.Context, includeArchived bool) ([]core.Account, error) {
	var rows []accountRow
	err := r.m.Read(ctx, "list accounts", func(tx *sqlx.Tx) error {
		return mapError("list accounts", tx.SelectContext(ctx, &rows, listAccountsSQL, includeArchived))
	})
	if err != nil {
		return nil, err
	}

	out := make([]core.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCore())
	}
	return out, nil
}

// Get returns one account or core.ErrNotFound.
func (r *AccountRepository) Get(ctx context.Context, id int64) (core.Account, error) {
	var row accountRow
	err := r.m.Read(ctx, "get account", func(tx *sqlx.Tx) error {
		return getAccountRow(ctx, tx, id, &row)
	})
	if err != nil {
		return core.Account{}, err
	}
	return row.toCore(), nil
}

func (r *AccountRepository) Rename(ctx context.Context, id int64, name string) error {
	name, err := core.ValidateAccountName(name)
	if err != nil {
		return err
	}

	err = r.m.Write(ctx, "rename account", func(tx *sqlx.Tx) error {
		var row accountRow
		if err := getAccountRow(ctx, tx, id, &row); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, renameAccountSQL, name, r.m.timestamp(), id)
		return accountNameError(mapError("rename account", err))
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account renamed", "account_id", id, "name", name)
	return nil
}

// Archive makes an account read-only. The default account stays active.
func (r *AccountRepository) Archive(ctx context.Context, id int64) error {
	return r.setArchived(ctx, id, true)
}

func (r *AccountRepository) Restore(ctx context.Context, id int64) error {
	return r.setArchived(ctx, id, false)
}

func (r *AccountRepository) setArchived(ctx context.Context, id int64, archived bool) error {
	if archived && id == core.DefaultAccountID {
		return core.ErrDefaultAccount
	}

	err := r.m.Write(ctx, "archive account", func(tx *sqlx.Tx) error {
		var row accountRow
		if err := getAccountRow(ctx, tx, id, &row); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, archiveAccountSQL, archived, r.m.timestamp(), id)
		return mapError("archive account", err)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account archive state changed", "account_id", id, "archived", archived)
	return nil
}

// Delete removes an account that owns no transactions. A missing id is a
// successful no-op.
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	if id == core.DefaultAccountID {
		return core.ErrDefaultAccount
	}

	err := r.m.Write(ctx, "delete account", func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, countAccountTxnSQL, id); err != nil {
			return mapError("count account transactions", err)
		}
		if n > 0 {
			return fmt.Errorf("account %d owns %d transactions: %w", id, n, core.ErrAccountInUse)
		}
		_, err := tx.ExecContext(ctx, deleteAccountSQL, id)
		return mapError("delete account", err)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account deleted", "account_id", id)
	return nil
}

func getAccountRow(ctx context.Context, tx *sqlx.Tx, id int64, row *accountRow) error {
	err := tx.GetContext(ctx, row, getAccountSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	return mapError("get account", err)
}

// requireWritableAccount rejects unknown and archived accounts.
func requireWritableAccount(ctx context.Context, tx *sqlx.Tx, id int64) error {
	var row accountRow
	err := getAccountRow(ctx, tx, id, &row)
	if errors.Is(err, core.ErrNotFound) {
		return &core.ValidationError{Field: "account_id", Reason: fmt.Sprintf("account %d does not exist", id)}
	}
	if err != nil {
		return err
	}
	if row.Archived {
		return fmt.Errorf("account %d: %w", id, core.ErrAccountReadOnly)
	}
	return nil
}

func accountNameError(err error) error {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return &core.ValidationError{Field: "name", Reason: "account name already exists"}
	}
	return err
}
