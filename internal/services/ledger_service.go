package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledger/internal/core"
	"ledger/internal/export"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// LedgerService is the single entry point the transports call. It owns the
// storage manager and applies the configured validation policy.
type LedgerService struct {
	store    *storage.Manager
	txns     *storage.TransactionRepository
	accounts *storage.AccountRepository
	opts     core.ValidationOptions
}

// NewLedgerService builds the service over an open store. A nil store is
// reported as storage unavailable.
func NewLedgerService(store *storage.Manager, opts core.ValidationOptions) (*LedgerService, error) {
	if store == nil {
		return nil, core.Unavailable("new ledger service", errors.New("storage not initialized"))
	}
	return &LedgerService{
		store:    store,
		txns:     storage.NewTransactionRepository(store),
		accounts: storage.NewAccountRepository(store),
		opts:     opts,
	}, nil
}

// Options returns the validation policy in force.
func (s *LedgerService) Options() core.ValidationOptions {
	return s.opts
}

// CreateTransaction validates raw input and stores it.
func (s *LedgerService) CreateTransaction(ctx context.Context, in core.TransactionInput) (int64, error) {
	nt, err := core.ParseTransaction(in, s.opts)
	if err != nil {
		return 0, err
	}

	id, err := s.txns.Create(ctx, nt)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}
	return id, nil
}

// UpdateTransaction replaces the editable fields of transaction id.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) error {
	nt, err := core.ParseTransaction(in, s.opts)
	if err != nil {
		return err
	}
	if err := s.txns.Update(ctx, id, nt); err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := s.txns.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// ListTransactions returns the rows inside f, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	rows, err := s.txns.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return rows, nil
}

// DeleteTransaction removes id. A non-zero accountID restricts the delete to
// that account. Missing rows are not an error.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id, accountID int64) error {
	if err := s.txns.Delete(ctx, id, accountID); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// Summarize aggregates exactly the rows ListTransactions returns for f.
func (s *LedgerService) Summarize(ctx context.Context, f core.Filter) (core.Summary, error) {
	rows, err := s.ListTransactions(ctx, f)
	if err != nil {
		return core.Summary{}, err
	}
	summary, err := core.Summarize(rows)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize transactions: %w", err)
	}
	return summary, nil
}

// Export renders the rows inside f as CSV.
func (s *LedgerService) Export(ctx context.Context, f core.Filter) ([]byte, error) {
	rows, err := s.ListTransactions(ctx, f)
	if err != nil {
		return nil, err
	}

	b, err := export.ToCSV(rows)
	if err != nil {
		return nil, fmt.Errorf("export transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions exported",
		applog.FieldComponent, applog.ComponentExport,
		"rows", len(rows),
		"start", f.Start.String(),
		"end", f.End.String(),
		applog.FieldAccountID, f.AccountID)
	return b, nil
}

func (s *LedgerService) CreateAccount(ctx context.Context, name string) (int64, error) {
	id, err := s.accounts.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context, includeArchived bool) ([]core.Account, error) {
	accounts, err := s.accounts.List(ctx, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	a, err := s.accounts.Get(ctx, id)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (s *LedgerService) RenameAccount(ctx context.Context, id int64, name string) error {
	if err := s.accounts.Rename(ctx, id, name); err != nil {
		return fmt.Errorf("rename account %d: %w", id, err)
	}
	return nil
}

func (s *LedgerService) ArchiveAccount(ctx context.Context, id int64) error {
	if err := s.accounts.Archive(ctx, id); err != nil {
		return fmt.Errorf("archive account %d: %w", id, err)
	}
	return nil
}

func (s *LedgerService) RestoreAccount(ctx context.Context, id int64) error {
	if err := s.accounts.Restore(ctx, id); err != nil {
		return fmt.Errorf("restore account %d: %w", id, err)
	}
	return nil
}

func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

// Ready reports whether storage still answers.
func (s *LedgerService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close releases the storage manager.
func (s *LedgerService) Close() error {
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
