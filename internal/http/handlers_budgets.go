package http

import (
	"fmt"
	"net/http"
	"strconv"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.ledger.GetBudgets(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, budgets)
}

func (s *Server) handleAddBudget(w http.ResponseWriter, r *http.Request) {
	var in ledger.BudgetInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	b, err := s.ledger.AddBudget(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var up ledger.BudgetUpdate
	if err := decodeBody(r, &up); err != nil {
		s.respondError(w, r, err)
		return
	}
	b, err := s.ledger.UpdateBudget(r.Context(), r.PathValue("id"), up)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteBudget(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// handleBudgetAnalysis compares planned budgets against actual spend for
// year (required) and month (optional; omitting it selects yearly budgets).
func (s *Server) handleBudgetAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: year is required", core.ErrValidation))
		return
	}
	var month *int
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			s.respondError(w, r, fmt.Errorf("%w: month must be between 1 and 12", core.ErrValidation))
			return
		}
		month = &m
	}

	s.cached(w, r, func() (any, error) {
		doc, err := s.ledger.Snapshot(r.Context())
		if err != nil {
			return nil, err
		}
		return s.analyzer.Analyze(r.Context(), doc, year, month), nil
	})
}
