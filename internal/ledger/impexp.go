package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"moneta/internal/core"
	"moneta/internal/events"
	"moneta/internal/storage"
)

// ImportMode selects how an imported document combines with the current one.
type ImportMode string

const (
	// ImportReplace discards the current document entirely.
	ImportReplace ImportMode = "replace"
	// ImportMerge folds the imported document into the current one with
	// skip-if-already-present semantics; merge never overwrites.
	ImportMerge ImportMode = "merge"
)

// exportEnvelope wraps the document with an export timestamp and the schema
// version it was written at.
type exportEnvelope struct {
	ExportedAt    time.Time      `json:"exportedAt"`
	SchemaVersion int            `json:"schemaVersion"`
	Data          *core.Document `json:"data"`
}

// Export returns the whole document pretty-printed with an export timestamp
// and schema version.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(exportEnvelope{
		ExportedAt:    s.now(),
		SchemaVersion: core.SchemaVersion,
		Data:          doc,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode export: %v", core.ErrPersistence, err)
	}
	return data, nil
}

// Import ingests an exported document. The payload must contain at minimum a
// transactions list and a categories collection; a missing or malformed
// budgets field is tolerated and coerced to empty.
func (s *Service) Import(ctx context.Context, data []byte, mode ImportMode) error {
	if mode != ImportReplace && mode != ImportMerge {
		return fmt.Errorf("%w: unknown import mode %q", core.ErrValidation, mode)
	}

	// Accept both the export envelope and a bare document.
	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	body := data
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: unparseable import payload: %v", core.ErrValidation, err)
	}
	if len(probe.Data) > 0 && string(probe.Data) != "null" {
		body = probe.Data
	}

	var shape struct {
		Transactions json.RawMessage `json:"transactions"`
		Categories   json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(body, &shape); err != nil {
		return fmt.Errorf("%w: unparseable import document: %v", core.ErrValidation, err)
	}
	if len(shape.Transactions) == 0 || string(shape.Transactions) == "null" {
		return fmt.Errorf("%w: import requires a transactions list", core.ErrValidation)
	}
	if len(shape.Categories) == 0 || string(shape.Categories) == "null" {
		return fmt.Errorf("%w: import requires a categories collection", core.ErrValidation)
	}

	imported, err := storage.DecodeDocument(ctx, body)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var next *core.Document
	switch mode {
	case ImportReplace:
		next = imported
	case ImportMerge:
		current, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		mergeDocuments(current, imported)
		next = current
	}

	if err := s.store.Save(ctx, next); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Imported ledger document",
		"mode", mode,
		"transactions", len(imported.Transactions),
		"categories", len(imported.Categories))
	s.publish(ctx, events.KindDocumentImported, "")
	return nil
}

// mergeDocuments folds src into dst: transactions merge by id, categories by
// name within each type, accounts by name, budgets by id, tags by name.
// Entries already present are skipped, never overwritten.
func mergeDocuments(dst, src *core.Document) {
	for _, t := range src.Transactions {
		if dst.Transaction(t.ID) == nil {
			dst.Transactions = append(dst.Transactions, t)
		}
	}

	for _, c := range src.Categories {
		if categoryByName(dst, c.Name, c.Type) == nil {
			dst.Categories = append(dst.Categories, c)
		}
	}

	for _, a := range src.Accounts {
		if accountByName(dst, a.Name) == nil {
			dst.Accounts = append(dst.Accounts, a)
		}
	}

	for _, b := range src.Budgets {
		if dst.Budget(b.ID) == nil {
			dst.Budgets = append(dst.Budgets, b)
		}
	}

	for _, tag := range src.Tags {
		if dst.TagByName(tag.Name) == nil {
			dst.Tags = append(dst.Tags, tag)
		}
	}
}

func categoryByName(doc *core.Document, name string, typ core.TransactionType) *core.Category {
	for i := range doc.Categories {
		if doc.Categories[i].Type == typ && strings.EqualFold(doc.Categories[i].Name, name) {
			return &doc.Categories[i]
		}
	}
	return nil
}

func accountByName(doc *core.Document, name string) *core.Account {
	for i := range doc.Accounts {
		if strings.EqualFold(doc.Accounts[i].Name, name) {
			return &doc.Accounts[i]
		}
	}
	return nil
}
