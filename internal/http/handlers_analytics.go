package http

import (
	"net/http"
	"time"

	"moneta/internal/analytics"
	"moneta/internal/core"
)

// analyticsPayload wraps an analysis result. Below the analysis's minimum
// data threshold Result is null and InsufficientData is set, so clients can
// tell "no data yet" from an empty result.
type analyticsPayload struct {
	Result           any  `json:"result"`
	InsufficientData bool `json:"insufficientData"`
}

func payload(result any, ok bool) analyticsPayload {
	if !ok {
		return analyticsPayload{InsufficientData: true}
	}
	return analyticsPayload{Result: result}
}

func (s *Server) snapshot(r *http.Request) (*core.Document, error) {
	return s.ledger.Snapshot(r.Context())
}

func (s *Server) handleRFM(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (any, error) {
		doc, err := s.snapshot(r)
		if err != nil {
			return nil, err
		}
		scores, ok := analytics.RFM(doc.Transactions, doc.Categories, time.Now())
		return payload(scores, ok), nil
	})
}

func (s *Server) handlePareto(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (any, error) {
		doc, err := s.snapshot(r)
		if err != nil {
			return nil, err
		}
		result, ok := analytics.Pareto(doc.Transactions, doc.Categories)
		return payload(result, ok), nil
	})
}

func (s *Server) handleCohorts(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (any, error) {
		doc, err := s.snapshot(r)
		if err != nil {
			return nil, err
		}
		result, ok := analytics.Cohorts(doc.Transactions, doc.Categories)
		return payload(result, ok), nil
	})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (any, error) {
		doc, err := s.snapshot(r)
		if err != nil {
			return nil, err
		}
		result, ok := analytics.Forecast(doc.Transactions)
		return payload(result, ok), nil
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (any, error) {
		doc, err := s.snapshot(r)
		if err != nil {
			return nil, err
		}
		recs, ok := analytics.Recommendations(doc.Transactions, doc.Categories, time.Now())
		return payload(recs, ok), nil
	})
}
