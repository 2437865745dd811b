package http

import (
	"encoding/json"
	"net/http"
	"time"

	"ledger/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type transactionResponse struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	Date        core.Date `json:"date"`
	Direction   string    `json:"direction"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Date:        t.Date,
		Direction:   string(t.Direction),
		AmountCents: t.AmountCents,
		Amount:      core.FormatCents(t.AmountCents),
		Category:    t.Category,
		Note:        t.Note,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type listResponse struct {
	Start        core.Date             `json:"start"`
	End          core.Date             `json:"end"`
	AccountID    int64                 `json:"account_id"`
	Transactions []transactionResponse `json:"transactions"`
}

type categoryResponse struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

type summaryResponse struct {
	Start        core.Date          `json:"start"`
	End          core.Date          `json:"end"`
	AccountID    int64              `json:"account_id"`
	IncomeCents  int64              `json:"income_cents"`
	ExpenseCents int64              `json:"expense_cents"`
	BalanceCents int64              `json:"balance_cents"`
	Income       string             `json:"income"`
	Expense      string             `json:"expense"`
	Balance      string             `json:"balance"`
	ByCategory   []categoryResponse `json:"by_category"`
}

func newSummaryResponse(f core.Filter, s core.Summary) summaryResponse {
	out := summaryResponse{
		Start:        f.Start,
		End:          f.End,
		AccountID:    f.AccountID,
		IncomeCents:  s.IncomeCents,
		ExpenseCents: s.ExpenseCents,
		BalanceCents: s.BalanceCents(),
		Income:       core.FormatCents(s.IncomeCents),
		Expense:      core.FormatCents(s.ExpenseCents),
		Balance:      core.FormatCents(s.BalanceCents()),
		ByCategory:   make([]categoryResponse, 0, len(s.ByCategory)),
	}
	for _, c := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryResponse{
			Category:    c.Category,
			AmountCents: c.AmountCents,
			Amount:      core.FormatCents(c.AmountCents),
		})
	}
	return out
}

type accountResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newAccountResponse(a core.Account) accountResponse {
	return accountResponse(a)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
