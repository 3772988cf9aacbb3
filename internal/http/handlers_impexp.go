package http

import (
	"fmt"
	"io"
	"net/http"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

// maxImportSize bounds the import payload to keep a runaway upload from
// exhausting memory.
const maxImportSize = 32 << 20

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.ledger.Export(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger-export.json"`)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write export", "error", err)
	}
}

// handleImport ingests an exported document. The mode query parameter
// selects replace or merge; replace is the default.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mode := ledger.ImportMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = ledger.ImportReplace
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: read import payload: %v", core.ErrValidation, err))
		return
	}
	if err := s.ledger.Import(r.Context(), data, mode); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusOK, map[string]string{"mode": string(mode)})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	drifts, err := s.ledger.ReconcileBalances(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, drifts)
}

func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	drifts, err := s.ledger.RepairBalances(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidate()
	s.respond(w, http.StatusOK, drifts)
}
