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
	transactionColumns = `id, account_id, date, direction, amount_cents, category, note, created_at, updated_at`

	insertTransactionSQL = `
INSERT INTO transactions (account_id, date, direction, amount_cents, category, note, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	listTransactionsSQL = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE date >= ? AND date <= ? AND (? = 0 OR account_id = ?)
ORDER BY date DESC, id DESC`

	getTransactionSQL = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	updateTransactionSQL = `
UPDATE transactions
SET account_id = ?, date = ?, direction = ?, amount_cents = ?, category = ?, note = ?,
    updated_at = MAX(created_at, ?)
WHERE id = ?`

	deleteTransactionSQL = `DELETE FROM transactions WHERE id = ?`
)

// transactionRow mirrors one row of the transactions table.
type transactionRow struct {
	ID          int64  `db:"id"`
	AccountID   int64  `db:"account_id"`
	Date        string `db:"date"`
	Direction   string `db:"direction"`
	AmountCents int64  `db:"amount_cents"`
	Category    string `db:"category"`
	Note        string `db:"note"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r transactionRow) toCore() (core.Transaction, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %d has malformed date %q", r.ID, r.Date)
	}
	return core.Transaction{
		ID:          r.ID,
		AccountID:   r.AccountID,
		Date:        date,
		Direction:   core.Direction(r.Direction),
		AmountCents: r.AmountCents,
		Category:    r.Category,
		Note:        r.Note,
		CreatedAt:   parseTimestamp(r.CreatedAt),
		UpdatedAt:   parseTimestamp(r.UpdatedAt),
	}, nil
}

// TransactionRepository persists ledger transactions. It never caches rows.
type TransactionRepository struct {
	m *Manager
}

func NewTransactionRepository(m *Manager) *TransactionRepository {
	return &TransactionRepository{m: m}
}

// Create inserts one validated transaction and returns its id.
func (r *TransactionRepository) Create(ctx context.Context, nt core.NewTransaction) (int64, error) {
	if err := nt.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.m.Write(ctx, "create transaction", func(tx *sqlx.Tx) error {
		if err := requireWritableAccount(ctx, tx, nt.AccountID); err != nil {
			return err
		}

		now := r.m.timestamp()
		res, err := tx.ExecContext(ctx, insertTransactionSQL,
			nt.AccountID, nt.Date.String(), string(nt.Direction), nt.AmountCents, nt.Category, nt.Note, now, now)
		if err != nil {
			return mapError("insert transaction", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return mapError("insert transaction id", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.DebugContext(ctx, "Transaction inserted",
		"transaction_id", id,
		"account_id", nt.AccountID,
		"date", nt.Date.String(),
		"direction", nt.Direction,
		"amount_cents", nt.AmountCents,
		"category", nt.Category)

	return id, nil
}

// List returns transactions with f.Start <= date <= f.End, newest first,
// ties broken by id descending. No match yields an empty slice.
func (r *TransactionRepository) List(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	var rows []transactionRow
	err := r.m.Read(ctx, "list transactions", func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &rows, listTransactionsSQL,
			f.Start.String(), f.End.String(), f.AccountID, f.AccountID); err != nil {
			return mapError("list transactions", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toCore()
		if err != nil {
			return nil, core.Unavailable("list transactions", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Get returns one transaction or core.ErrNotFound.
func (r *TransactionRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	var row transactionRow
	err := r.m.Read(ctx, "get transaction", func(tx *sqlx.Tx) error {
		return getTransactionRow(ctx, tx, id, &row)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	t, err := row.toCore()
	if err != nil {
		return core.Transaction{}, core.Unavailable("get transaction", err)
	}
	return t, nil
}

// Update replaces every user-editable field of an existing transaction and
// refreshes updated_at, which never falls behind created_at.
func (r *TransactionRepository) Update(ctx context.Context, id int64, nt core.NewTransaction) error {
	if err := nt.Validate(); err != nil {
		return err
	}

	err := r.m.Write(ctx, "update transaction", func(tx *sqlx.Tx) error {
		var current transactionRow
		if err := getTransactionRow(ctx, tx, id, &current); err != nil {
			return err
		}
		if err := requireWritableAccount(ctx, tx, current.AccountID); err != nil {
			return err
		}
		if nt.AccountID != current.AccountID {
			if err := requireWritableAccount(ctx, tx, nt.AccountID); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, updateTransactionSQL,
			nt.AccountID, nt.Date.String(), string(nt.Direction), nt.AmountCents, nt.Category, nt.Note,
			r.m.timestamp(), id)
		return mapError("update transaction", err)
	})
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "Transaction updated",
		"transaction_id", id,
		"account_id", nt.AccountID,
		"amount_cents", nt.AmountCents)
	return nil
}

// Delete removes the transaction if present. A missing id, or an id owned
// by another account when accountID is non-zero, is a successful no-op.
func (r *TransactionRepository) Delete(ctx context.Context, id, accountID int64) error {
	deleted := false
	err := r.m.Write(ctx, "delete transaction", func(tx *sqlx.Tx) error {
		var current transactionRow
		err := getTransactionRow(ctx, tx, id, &current)
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if accountID != 0 && current.AccountID != accountID {
			return nil
		}
		if err := requireWritableAccount(ctx, tx, current.AccountID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, deleteTransactionSQL, id); err != nil {
			return mapError("delete transaction", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return err
	}

	if deleted {
		slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	} else {
		slog.DebugContext(ctx, "Transaction delete was a no-op", "transaction_id", id, "account_id", accountID)
	}
	return nil
}

func getTransactionRow(ctx context.Context, tx *sqlx.Tx, id int64, row *transactionRow) error {
	err := tx.GetContext(ctx, row, getTransactionSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return mapError("get transaction", err)
}
