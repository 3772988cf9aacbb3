package http

import (
	"fmt"
	"net/http"
	"strings"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

// parseFilter reads the shared filter query parameters: type, status,
// categoryId, subcategoryId, accountId, startDate, endDate, tags
// (comma-separated).
func parseFilter(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	f := ledger.Filter{
		Type:          core.TransactionType(q.Get("type")),
		Status:        core.StatusType(q.Get("status")),
		CategoryID:    q.Get("categoryId"),
		SubcategoryID: q.Get("subcategoryId"),
		AccountID:     q.Get("accountId"),
	}
	if f.Type != "" && !f.Type.IsValid() {
		return f, fmt.Errorf("%w: unknown transaction type %q", core.ErrValidation, f.Type)
	}
	if f.Status != "" && !f.Status.IsValid() {
		return f, fmt.Errorf("%w: unknown transaction status %q", core.ErrValidation, f.Status)
	}
	if v := q.Get("startDate"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("%w: %v", core.ErrValidation, err)
		}
		f.StartDate = d
	}
	if v := q.Get("endDate"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("%w: %v", core.ErrValidation, err)
		}
		f.EndDate = d
	}
	if v := q.Get("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	transactions, err := s.ledger.GetTransactions(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, transactions)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.ledger.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, t)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var in ledger.TransactionInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	t, err := s.ledger.AddTransaction(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var up ledger.TransactionUpdate
	if err := decodeBody(r, &up); err != nil {
		s.respondError(w, r, err)
		return
	}
	t, err := s.ledger.UpdateTransaction(r.Context(), r.PathValue("id"), up)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRealizeTransaction(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ActualAmount *float64 `json:"actualAmount"`
	}
	if err := decodeBodyOptional(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	t, err := s.ledger.RealizePlannedTransaction(r.Context(), r.PathValue("id"), in.ActualAmount)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusOK, t)
}
