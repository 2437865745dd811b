package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func openTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := Open(context.Background(), Config{DataDir: dir, DBPath: filepath.Join(dir, "t.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func newTxn(date, direction string, cents int64, category, note string) core.NewTransaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.NewTransaction{
		AccountID:   core.DefaultAccountID,
		Date:        d,
		Direction:   core.Direction(direction),
		AmountCents: cents,
		Category:    category,
		Note:        note,
	}
}

func mustFilter(t *testing.T, start, end string, accountID int64) core.Filter {
	t.Helper()
	f, err := core.NewFilter(start, end, accountID)
	require.NoError(t, err)
	return f
}

func ids(rows []core.Transaction) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestTransactionRepository_CreateListDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(openTestManager(t))

	id, err := repo.Create(ctx, newTxn("2026-02-25", "expense", 1234, "food", "lunch"))
	require.NoError(t, err)
	assert.Positive(t, id)

	rows, err := repo.List(ctx, mustFilter(t, "2026-02-01", "2026-02-28", 0))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].ID)
	assert.Equal(t, int64(1234), rows[0].AmountCents)
	assert.Equal(t, core.Expense, rows[0].Direction)
	assert.Equal(t, "food", rows[0].Category)
	assert.Equal(t, "lunch", rows[0].Note)
	assert.Equal(t, core.DefaultAccountID, rows[0].AccountID)
	assert.False(t, rows[0].CreatedAt.IsZero())
	assert.Equal(t, rows[0].CreatedAt, rows[0].UpdatedAt)

	require.NoError(t, repo.Delete(ctx, id, 0))

	rows, err = repo.List(ctx, mustFilter(t, "2026-02-01", "2026-02-28", 0))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestTransactionRepository_ListOrderingAndBounds(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(openTestManager(t))

	create := func(date string) int64 {
		id, err := repo.Create(ctx, newTxn(date, "expense", 100, "misc", ""))
		require.NoError(t, err)
		return id
	}
	before := create("2026-01-31")
	first := create("2026-02-01")
	midA := create("2026-02-14")
	midB := create("2026-02-14")
	last := create("2026-02-28")
	after := create("2026-03-01")

	rows, err := repo.List(ctx, mustFilter(t, "2026-02-01", "2026-02-28", 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{last, midB, midA, first}, ids(rows))

	rows, err = repo.List(ctx, mustFilter(t, "2026-01-01", "2026-12-31", 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{after, last, midB, midA, first, before}, ids(rows))

	rows, err = repo.List(ctx, mustFilter(t, "2026-02-14", "2026-02-14", 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{midB, midA}, ids(rows))
}

func TestTransactionRepository_EmptyAndInvertedRanges(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(openTestManager(t))

	rows, err := repo.List(ctx, mustFilter(t, "2026-02-01", "2026-02-28", 0))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = repo.Create(ctx, newTxn("2026-02-10", "income", 500, "gift", ""))
	require.NoError(t, err)

	rows, err = repo.List(ctx, mustFilter(t, "2026-02-28", "2026-02-01", 0))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestTransactionRepository_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(openTestManager(t))

	keep, err := repo.Create(ctx, newTxn("2026-02-10", "income", 500, "gift", ""))
	require.NoError(t, err)
	gone, err := repo.Create(ctx, newTxn("2026-02-11", "expense", 700, "food", ""))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, gone, 0))
	require.NoError(t, repo.Delete(ctx, gone, 0))
	require.NoError(t, repo.Delete(ctx, 987654, 0))

	rows, err := repo.List(ctx, mustFilter(t, "2026-02-01", "2026-02-28", 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{keep}, ids(rows))
}

func TestTransactionRepository_CreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(openTestManager(t))

	bad := []core.NewTransaction{
		newTxn("2026-02-10", "transfer", 100, "misc", ""),
		newTxn("2026-02-10", "expense", -1, "misc", ""),
		newTxn("2026-02-10", "expense", 100, "   ", ""),
		{AccountID: 1, Direction: core.Expense, AmountCents: 1, Category: "misc"},
	}
	for _, nt := range bad {
		_, err := repo.Create(ctx, nt)
		assert.ErrorIs(t, err, core.ErrValidation)
	}

	unknownAccount := newTxn("2026-02-10", "expense", 100, "misc", "")
	unknownAccount.AccountID = 42
	_, err := repo.Create(ctx, unknownAccount)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "account_id", verr.Field)

	rows, err := repo.List(ctx, mustFilter(t, "2026-01-01", "2026-12-31", 0))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransactionRepository_UpdateRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	m := openTestManager(t)
	repo := NewTransactionRepository(m)

	created := time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return created }
	id, err := repo.Create(ctx, newTxn("2026-02-25", "expense", 1234, "food", "lunch"))
	require.NoError(t, err)

	// A clock that went backwards never moves updated_at before created_at.
	m.now = func() time.Time { return created.Add(-time.Hour) }
	require.NoError(t, repo.Update(ctx, id, newTxn("2026-02-25", "expense", 1500, "food", "lunch")))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.AmountCents)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, created, got.UpdatedAt)

	later := created.Add(90 * time.Minute)
	m.now = func() time.Time { return later }
	require.NoError(t, repo.Update(ctx, id, newTxn("2026-02-26", "income", 2000, "refund", "")))

	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-26", got.Date.String())
	assert.Equal(t, core.Income, got.Direction)
	assert.Equal(t, "refund", got.Category)
	assert.Empty(t, got.Note)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, later, got.UpdatedAt)
}

func TestTransactionRepository_GetAndUpdateMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(openTestManager(t))

	_, err := repo.Get(ctx, 99)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = repo.Update(ctx, 99, newTxn("2026-02-25", "expense", 1, "food", ""))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTransactionRepository_ScopedByAccount(t *testing.T) {
	ctx := context.Background()
	m := openTestManager(t)
	repo := NewTransactionRepository(m)
	accounts := NewAccountRepository(m)

	familyID, err := accounts.Create(ctx, "Family")
	require.NoError(t, err)

	defaultTxn := newTxn("2026-03-10", "income", 100000, "salary", "default account")
	defaultID, err := repo.Create(ctx, defaultTxn)
	require.NoError(t, err)

	familyTxn := newTxn("2026-03-11", "expense", 2500, "food", "family account")
	familyTxn.AccountID = familyID
	familyTxnID, err := repo.Create(ctx, familyTxn)
	require.NoError(t, err)

	rows, err := repo.List(ctx, mustFilter(t, "2026-03-01", "2026-03-31", core.DefaultAccountID))
	require.NoError(t, err)
	assert.Equal(t, []int64{defaultID}, ids(rows))

	rows, err = repo.List(ctx, mustFilter(t, "2026-03-01", "2026-03-31", familyID))
	require.NoError(t, err)
	assert.Equal(t, []int64{familyTxnID}, ids(rows))

	rows, err = repo.List(ctx, mustFilter(t, "2026-03-01", "2026-03-31", 0))
	require.NoError(t, err)
	assert.Equal(t, []int64{familyTxnID, defaultID}, ids(rows))

	// Deleting through the wrong account leaves the row in place.
	require.NoError(t, repo.Delete(ctx, familyTxnID, core.DefaultAccountID))
	rows, err = repo.List(ctx, mustFilter(t, "2026-03-01", "2026-03-31", familyID))
	require.NoError(t, err)
	assert.Equal(t, []int64{familyTxnID}, ids(rows))

	require.NoError(t, repo.Delete(ctx, familyTxnID, familyID))
	rows, err = repo.List(ctx, mustFilter(t, "2026-03-01", "2026-03-31", familyID))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransactionRepository_ArchivedAccountIsReadOnly(t *testing.T) {
	ctx := context.Background()
	m := openTestManager(t)
	repo := NewTransactionRepository(m)
	accounts := NewAccountRepository(m)

	tripID, err := accounts.Create(ctx, "Trip")
	require.NoError(t, err)
	nt := newTxn("2026-04-02", "expense", 4200, "hotel", "")
	nt.AccountID = tripID
	id, err := repo.Create(ctx, nt)
	require.NoError(t, err)

	require.NoError(t, accounts.Archive(ctx, tripID))

	_, err = repo.Create(ctx, nt)
	assert.ErrorIs(t, err, core.ErrAccountReadOnly)
	assert.ErrorIs(t, repo.Update(ctx, id, nt), core.ErrAccountReadOnly)
	assert.ErrorIs(t, repo.Delete(ctx, id, tripID), core.ErrAccountReadOnly)

	rows, err := repo.List(ctx, mustFilter(t, "2026-04-01", "2026-04-30", tripID))
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, ids(rows))

	require.NoError(t, accounts.Restore(ctx, tripID))
	require.NoError(t, repo.Delete(ctx, id, tripID))
}

func TestTransactionRepository_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(openTestManager(t))

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, newTxn("2026-05-01", "expense", 100, "misc", ""))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rows, err := repo.List(ctx, mustFilter(t, "2026-05-01", "2026-05-01", 0))
	require.NoError(t, err)
	assert.Len(t, rows, writers)
}
