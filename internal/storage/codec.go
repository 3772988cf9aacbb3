package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"moneta/internal/core"
)

// rawDocument defers decoding of each collection so that a single malformed
// field degrades to an empty collection instead of failing the whole load.
type rawDocument struct {
	SchemaVersion       int             `json:"schemaVersion"`
	Transactions        json.RawMessage `json:"transactions"`
	Categories          json.RawMessage `json:"categories"`
	Accounts            json.RawMessage `json:"accounts"`
	Budgets             json.RawMessage `json:"budgets"`
	Tags                json.RawMessage `json:"tags"`
	Settings            json.RawMessage `json:"settings"`
	PlannedTransactions json.RawMessage `json:"plannedTransactions"`
}

// DecodeDocument parses a persisted document, coercing malformed collections
// to empty ones (logged, never fatal) and normalizing legacy shapes.
func DecodeDocument(ctx context.Context, data []byte) (*core.Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	doc := &core.Document{SchemaVersion: raw.SchemaVersion}
	decodeCollection(ctx, "transactions", raw.Transactions, &doc.Transactions)
	decodeCollection(ctx, "categories", raw.Categories, &doc.Categories)
	decodeCollection(ctx, "accounts", raw.Accounts, &doc.Accounts)
	decodeCollection(ctx, "budgets", raw.Budgets, &doc.Budgets)
	decodeCollection(ctx, "tags", raw.Tags, &doc.Tags)
	decodeCollection(ctx, "plannedTransactions", raw.PlannedTransactions, &doc.PlannedTransactions)

	if len(raw.Settings) > 0 {
		if err := json.Unmarshal(raw.Settings, &doc.Settings); err != nil {
			slog.WarnContext(ctx, "Malformed settings in stored document, using defaults", "error", err)
			doc.Settings = core.Settings{}
		}
	}

	if migrated := doc.Normalize(); migrated > 0 {
		slog.InfoContext(ctx, "Migrated legacy planned transactions into unified list", "count", migrated)
	}
	return doc, nil
}

func decodeCollection[T any](ctx context.Context, name string, raw json.RawMessage, out *[]T) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	if err := json.Unmarshal(raw, out); err != nil {
		slog.WarnContext(ctx, "Malformed collection in stored document, coercing to empty",
			"collection", name, "error", err)
		*out = nil
	}
}

// EncodeDocument serializes a document for storage.
func EncodeDocument(doc *core.Document) ([]byte, error) {
	doc.SchemaVersion = core.SchemaVersion
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}
