// Package http exposes the ledger's command and query surface as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"moneta/internal/budget"
	"moneta/internal/cache"
	"moneta/internal/ledger"
	"moneta/internal/log"
)

// Server wires the ledger service behind a JSON API. Derived read results
// (stats, analytics, budget analysis) are memoized in an LRU cache that is
// flushed on every mutation.
type Server struct {
	http.Server

	ledger   *ledger.Service
	analyzer *budget.Analyzer
	logger   *log.Logger

	limiter    *rateLimiter
	statsCache *cache.LRUCache[[]byte]
	janitor    *cache.Janitor

	shutdownOnce sync.Once
}

// Options tunes the server; zero values fall back to defaults.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

func NewServer(addr string, svc *ledger.Service, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server:     http.Server{Addr: addr},
		ledger:     svc,
		analyzer:   budget.NewAnalyzer(logger.Logger),
		logger:     logger.WithComponent(log.ComponentHTTP),
		limiter:    newRateLimiter(),
		statsCache: cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		janitor:    cache.NewJanitor(),
	}
	s.janitor.Register(s.statsCache)
	go s.janitor.Run(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleAddTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/transactions/{id}/realize", s.handleRealizeTransaction)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)
	mux.HandleFunc("PATCH /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)
	mux.HandleFunc("POST /api/categories/{id}/subcategories", s.handleAddSubcategory)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleAddAccount)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)

	mux.HandleFunc("GET /api/tags", s.handleListTags)
	mux.HandleFunc("POST /api/tags", s.handleAddTag)
	mux.HandleFunc("PATCH /api/tags/{id}", s.handleUpdateTag)
	mux.HandleFunc("DELETE /api/tags/{id}", s.handleDeleteTag)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleAddBudget)
	mux.HandleFunc("PATCH /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("GET /api/budgets/analysis", s.handleBudgetAnalysis)

	mux.HandleFunc("GET /api/stats/summary", s.handleSummaryStats)
	mux.HandleFunc("GET /api/stats/monthly", s.handleMonthlyStats)
	mux.HandleFunc("GET /api/stats/categories", s.handleCategoryStats)
	mux.HandleFunc("GET /api/stats/tags", s.handleTagStats)

	mux.HandleFunc("GET /api/analytics/rfm", s.handleRFM)
	mux.HandleFunc("GET /api/analytics/pareto", s.handlePareto)
	mux.HandleFunc("GET /api/analytics/cohorts", s.handleCohorts)
	mux.HandleFunc("GET /api/analytics/forecast", s.handleForecast)
	mux.HandleFunc("GET /api/analytics/recommendations", s.handleRecommendations)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/reconcile", s.handleReconcile)
	mux.HandleFunc("POST /api/reconcile/repair", s.handleRepair)

	s.Handler = log.Middleware(logger)(s.withRateLimit(mux))
	return s
}

// invalidate drops memoized read results after a mutation.
func (s *Server) invalidate() {
	s.statsCache.Flush()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleReady verifies the storage backend answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.Snapshot(r.Context()); err != nil {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Shutdown stops the background loops before closing the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
