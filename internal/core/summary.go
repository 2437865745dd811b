package core

import (
	"fmt"
	"math"
	"sort"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

// Summary is the aggregate view of one filtered row set.
type Summary struct {
	IncomeCents  int64            `json:"income_cents"`
	ExpenseCents int64            `json:"expense_cents"`
	ByCategory   []CategoryAmount `json:"by_category"`
}

// BalanceCents is income minus expense.
func (s Summary) BalanceCents() int64 {
	return s.IncomeCents - s.ExpenseCents
}

// Summarize totals rows by direction and breaks expenses down by category,
// largest total first, ties by category name ascending. A total that would
// overflow int64 cents yields ErrTotalOverflow instead of a wrapped value.
func Summarize(rows []Transaction) (Summary, error) {
	summary := Summary{ByCategory: []CategoryAmount{}}
	byCategory := make(map[string]int64)

	var ok bool
	for _, t := range rows {
		switch t.Direction {
		case Income:
			if summary.IncomeCents, ok = addCents(summary.IncomeCents, t.AmountCents); !ok {
				return Summary{}, fmt.Errorf("income total: %w", ErrTotalOverflow)
			}
		case Expense:
			if summary.ExpenseCents, ok = addCents(summary.ExpenseCents, t.AmountCents); !ok {
				return Summary{}, fmt.Errorf("expense total: %w", ErrTotalOverflow)
			}
			if byCategory[t.Category], ok = addCents(byCategory[t.Category], t.AmountCents); !ok {
				return Summary{}, fmt.Errorf("category %q total: %w", t.Category, ErrTotalOverflow)
			}
		}
	}

	for category, cents := range byCategory {
		summary.ByCategory = append(summary.ByCategory, CategoryAmount{Category: category, AmountCents: cents})
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if a.AmountCents != b.AmountCents {
			return a.AmountCents > b.AmountCents
		}
		return a.Category < b.Category
	})

	return summary, nil
}

// addCents reports false when a+b overflows int64.
func addCents(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
