package http

import (
	"net/http"
	"strconv"

	"ledger/internal/core"
	"ledger/internal/export"
	applog "ledger/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	rows, err := s.ledger.ListTransactions(r.Context(), f)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	resp := listResponse{
		Start:        f.Start,
		End:          f.End,
		AccountID:    f.AccountID,
		Transactions: make([]transactionResponse, 0, len(rows)),
	}
	for _, t := range rows {
		resp.Transactions = append(resp.Transactions, newTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	t, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeBadRequest(w, err)
		return
	}
	in, err := transactionInput(p)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	id, err := s.ledger.CreateTransaction(r.Context(), in)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	s.logSaved(r, applog.OpCreate, id, in)
	w.Header().Set("Location", "/api/transactions/"+strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeBadRequest(w, err)
		return
	}
	in, err := transactionInput(p)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	// An update that omits account_id keeps the row where it is.
	if p.Get("account_id") == "" {
		current, err := s.ledger.GetTransaction(r.Context(), id)
		if err != nil {
			writeError(w, r, applog.OpUpdate, err)
			return
		}
		in.AccountID = current.AccountID
	}

	if err := s.ledger.UpdateTransaction(r.Context(), id, in); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	s.logSaved(r, applog.OpUpdate, id, in)
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

// handleDeleteTransaction always answers 204 for a reachable store, even
// when the id is unknown. account_id, when given, scopes the delete.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	accountID, err := parseAccountID(r.URL.Query().Get("account_id"), 0)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), id, accountID); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, applog.OpSummary, err)
		return
	}

	summary, err := s.ledger.Summarize(r.Context(), f)
	if err != nil {
		writeError(w, r, applog.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(f, summary))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, applog.OpExport, err)
		return
	}

	b, err := s.ledger.Export(r.Context(), f)
	if err != nil {
		writeError(w, r, applog.OpExport, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(f.AccountID, f.Start, f.End)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// logSaved records a write the ledger already accepted, so in has passed
// validation and its amount parses.
func (s *Server) logSaved(r *http.Request, op string, id int64, in core.TransactionInput) {
	ctx := r.Context()
	cents, _ := core.ParseAmountToCents(in.Amount)
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogTransactionSaved(ctx, op, id, in.AccountID, in.Direction, cents, in.Category)
}
