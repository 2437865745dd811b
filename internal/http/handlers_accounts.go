package http

import (
	"context"
	"net/http"
	"strconv"

	applog "ledger/internal/log"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context(), parseBool(r.URL.Query().Get("include_archived")))
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, newAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": resp})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	a, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountResponse(a))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeBadRequest(w, err)
		return
	}

	id, err := s.ledger.CreateAccount(r.Context(), p.Get("name"))
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/accounts/"+strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleRenameAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpRename, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := s.ledger.RenameAccount(r.Context(), id, p.Get("name")); err != nil {
		writeError(w, r, applog.OpRename, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchiveAccount(w http.ResponseWriter, r *http.Request) {
	s.accountAction(w, r, applog.OpArchive, s.ledger.ArchiveAccount)
}

func (s *Server) handleRestoreAccount(w http.ResponseWriter, r *http.Request) {
	s.accountAction(w, r, applog.OpRestore, s.ledger.RestoreAccount)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	s.accountAction(w, r, applog.OpDelete, s.ledger.DeleteAccount)
}

func (s *Server) accountAction(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, int64) error) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		writeError(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
