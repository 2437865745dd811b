package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	rows := []Transaction{
		{ID: 1, Direction: Income, AmountCents: 500000, Category: "salary"},
		{ID: 2, Direction: Expense, AmountCents: 1200, Category: "food"},
		{ID: 3, Direction: Expense, AmountCents: 800, Category: "food"},
		{ID: 4, Direction: Expense, AmountCents: 30000, Category: "rent"},
		{ID: 5, Direction: Income, AmountCents: 2000, Category: "food"},
	}

	s, err := Summarize(rows)
	require.NoError(t, err)

	assert.Equal(t, int64(502000), s.IncomeCents)
	assert.Equal(t, int64(32000), s.ExpenseCents)
	assert.Equal(t, int64(470000), s.BalanceCents())
	assert.Equal(t, []CategoryAmount{
		{Category: "rent", AmountCents: 30000},
		{Category: "food", AmountCents: 2000},
	}, s.ByCategory)
}

func TestSummarizeTiesByName(t *testing.T) {
	rows := []Transaction{
		{Direction: Expense, AmountCents: 100, Category: "zoo"},
		{Direction: Expense, AmountCents: 100, Category: "art"},
		{Direction: Expense, AmountCents: 100, Category: "mid"},
		{Direction: Expense, AmountCents: 300, Category: "big"},
	}

	s, err := Summarize(rows)
	require.NoError(t, err)

	assert.Equal(t, []CategoryAmount{
		{Category: "big", AmountCents: 300},
		{Category: "art", AmountCents: 100},
		{Category: "mid", AmountCents: 100},
		{Category: "zoo", AmountCents: 100},
	}, s.ByCategory)
}

func TestSummarizeEmpty(t *testing.T) {
	s, err := Summarize(nil)
	require.NoError(t, err)
	assert.Zero(t, s.IncomeCents)
	assert.Zero(t, s.ExpenseCents)
	assert.NotNil(t, s.ByCategory)
	assert.Empty(t, s.ByCategory)
}

func TestSummarizeOverflow(t *testing.T) {
	const big = math.MaxInt64 - 1

	cases := []struct {
		name string
		rows []Transaction
	}{
		{"income", []Transaction{
			{Direction: Income, AmountCents: big, Category: "salary"},
			{Direction: Income, AmountCents: big, Category: "salary"},
		}},
		{"expense across categories", []Transaction{
			{Direction: Expense, AmountCents: big, Category: "rent"},
			{Direction: Expense, AmountCents: 2, Category: "food"},
		}},
		{"one category", []Transaction{
			{Direction: Expense, AmountCents: big, Category: "x"},
			{Direction: Expense, AmountCents: big, Category: "x"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Summarize(tc.rows)
			assert.ErrorIs(t, err, ErrTotalOverflow)
			assert.Zero(t, s.IncomeCents)
			assert.Zero(t, s.ExpenseCents)
		})
	}
}

func TestSummarizeAtTheLimit(t *testing.T) {
	s, err := Summarize([]Transaction{
		{Direction: Income, AmountCents: math.MaxInt64 - 5},
		{Direction: Income, AmountCents: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), s.IncomeCents)
}
