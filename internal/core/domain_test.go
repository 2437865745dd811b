package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDirection(t *testing.T) {
	for _, in := range []string{"income", "expense"} {
		d, err := ValidateDirection(in)
		require.NoError(t, err)
		assert.Equal(t, Direction(in), d)
	}
	for _, in := range []string{"in", "out", "", "Income", "EXPENSE", " income", "income "} {
		_, err := ValidateDirection(in)
		assert.ErrorIs(t, err, ErrValidation, "input %q", in)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-25")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, 2, 25), d)
	assert.Equal(t, "2026-02-25", d.String())

	for _, in := range []string{"", "2026-02-30", "2026-13-01", "26-02-01", "2026/02/01", "2026-2-1", "yesterday"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrValidation, "input %q", in)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{NewDate(2026, 3, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2026-03-01"}`, string(b))

	var out struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2025-12-31"}`), &out))
	assert.Equal(t, NewDate(2025, 12, 31), out.D)
}

func TestParseTransaction(t *testing.T) {
	good := TransactionInput{
		Date:      "2026-02-25",
		Direction: "expense",
		Amount:    "12.34",
		Category:  " food ",
		Note:      " lunch ",
	}

	nt, err := ParseTransaction(good, ValidationOptions{})
	require.NoError(t, err)
	assert.Equal(t, NewTransaction{
		AccountID:   DefaultAccountID,
		Date:        NewDate(2026, 2, 25),
		Direction:   Expense,
		AmountCents: 1234,
		Category:    "food",
		Note:        "lunch",
	}, nt)

	bads := map[string]TransactionInput{
		"date":      {Date: "2026-02-30", Direction: "expense", Amount: "1", Category: "c"},
		"direction": {Date: "2026-02-01", Direction: "Expense", Amount: "1", Category: "c"},
		"amount":    {Date: "2026-02-01", Direction: "expense", Amount: "1.001", Category: "c"},
		"category":  {Date: "2026-02-01", Direction: "expense", Amount: "1", Category: "   "},
	}
	for field, in := range bads {
		_, err := ParseTransaction(in, ValidationOptions{})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "field %s", field)
		assert.Equal(t, field, verr.Field)
	}
}

func TestParseTransactionNotePolicy(t *testing.T) {
	in := TransactionInput{Date: "2026-03-01", Direction: "income", Amount: "500", Category: "salary", Note: "  "}

	t.Run("optional", func(t *testing.T) {
		nt, err := ParseTransaction(in, ValidationOptions{NoteRequired: false})
		require.NoError(t, err)
		assert.Equal(t, "", nt.Note)
	})

	t.Run("required", func(t *testing.T) {
		_, err := ParseTransaction(in, ValidationOptions{NoteRequired: true})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "note", verr.Field)

		in.Note = "payday"
		nt, err := ParseTransaction(in, ValidationOptions{NoteRequired: true})
		require.NoError(t, err)
		assert.Equal(t, "payday", nt.Note)
	})
}

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{AccountID: 1, Date: NewDate(2026, 1, 1), Direction: Income, AmountCents: 0, Category: "x"}
	require.NoError(t, good.Validate())

	bads := []NewTransaction{
		{AccountID: 0, Date: NewDate(2026, 1, 1), Direction: Income, Category: "x"},
		{AccountID: 1, Date: Date{}, Direction: Income, Category: "x"},
		{AccountID: 1, Date: NewDate(2026, 1, 1), Direction: "transfer", Category: "x"},
		{AccountID: 1, Date: NewDate(2026, 1, 1), Direction: Expense, AmountCents: -1, Category: "x"},
		{AccountID: 1, Date: NewDate(2026, 1, 1), Direction: Expense, Category: ""},
	}
	for i, nt := range bads {
		assert.ErrorIs(t, nt.Validate(), ErrValidation, "case %d", i)
	}
}

func TestFilter(t *testing.T) {
	f, err := NewFilter("2026-02-01", "2026-02-28", 0)
	require.NoError(t, err)
	assert.False(t, f.Inverted())

	in := Transaction{AccountID: 3, Date: NewDate(2026, 2, 1)}
	assert.True(t, f.Matches(in))
	in.Date = NewDate(2026, 2, 28)
	assert.True(t, f.Matches(in))
	in.Date = NewDate(2026, 3, 1)
	assert.False(t, f.Matches(in))

	f.AccountID = 2
	in.Date = NewDate(2026, 2, 10)
	assert.False(t, f.Matches(in))

	inv, err := NewFilter("2026-03-01", "2026-02-01", 0)
	require.NoError(t, err)
	assert.True(t, inv.Inverted())

	for _, bad := range []string{"", "2026-13-01", "2026-02-32", "2026-2-1", "soon"} {
		_, err = NewFilter("2026-02-01", bad, 0)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "end %q", bad)
		assert.Equal(t, "end", verr.Field)
	}
}

func TestFilter_OverflowingBounds(t *testing.T) {
	f, err := NewFilter("2026-02-01", "2026-02-29", 0)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", f.End.String())
	assert.False(t, f.Matches(Transaction{Date: NewDate(2026, 3, 1)}))

	f, err = NewFilter("2026-04-31", "2026-05-31", 0)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01", f.Start.String())
	assert.False(t, f.Matches(Transaction{Date: NewDate(2026, 4, 30)}))
}

func TestValidateAccountName(t *testing.T) {
	name, err := ValidateAccountName("  Family ")
	require.NoError(t, err)
	assert.Equal(t, "Family", name)

	_, err = ValidateAccountName(" ")
	assert.ErrorIs(t, err, ErrValidation)

	long := make([]rune, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = ValidateAccountName(string(long))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCurrentMonthRange(t *testing.T) {
	cases := []struct {
		today      time.Time
		start, end string
	}{
		{time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC), "2026-02-01", "2026-02-28"},
		{time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC), "2028-02-01", "2028-02-29"},
		{time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC), "2026-12-01", "2026-12-31"},
	}
	for _, tc := range cases {
		start, end := CurrentMonthRange(tc.today)
		assert.Equal(t, tc.start, start.String())
		assert.Equal(t, tc.end, end.String())
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Unavailable("insert transaction", cause)

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrValidation)

	verr := invalid("amount", "bad")
	assert.Same(t, verr, Unavailable("insert transaction", verr))
	assert.ErrorIs(t, Unavailable("get", ErrNotFound), ErrNotFound)
	assert.NoError(t, Unavailable("noop", nil))
}
