package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"moneta/internal/core"
)

// cached memoizes a read-only response body keyed by path and query. The
// cache is flushed on every mutation, so a hit always reflects the current
// document.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, compute func() (any, error)) {
	key := r.URL.Path + "?" + r.URL.RawQuery
	if body, ok := s.statsCache.Get(key); ok {
		s.respondRaw(w, body)
		return
	}

	data, err := compute()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	body, err := json.Marshal(dataEnvelope{Data: data})
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: encode response: %v", core.ErrPersistence, err))
		return
	}
	s.statsCache.Set(key, body)
	s.respondRaw(w, body)
}

func (s *Server) handleSummaryStats(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.cached(w, r, func() (any, error) {
		return s.ledger.GetSummaryStats(r.Context(), f)
	})
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var year int
	if v := r.URL.Query().Get("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: invalid year %q", core.ErrValidation, v))
			return
		}
	}
	s.cached(w, r, func() (any, error) {
		return s.ledger.GetMonthlyStats(r.Context(), f, year)
	})
}

func (s *Server) handleCategoryStats(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	typ := core.TransactionType(r.URL.Query().Get("type"))
	s.cached(w, r, func() (any, error) {
		return s.ledger.GetCategoryStats(r.Context(), typ, f)
	})
}

func (s *Server) handleTagStats(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.cached(w, r, func() (any, error) {
		return s.ledger.GetTagStats(r.Context(), f)
	})
}
