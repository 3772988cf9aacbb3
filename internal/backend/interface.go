package backend

import (
	"context"

	"moneta/internal/core"
)

// Store is the single persistence contract the domain layer sees: the whole
// ledger document in, the whole ledger document out. The domain layer never
// knows which implementation is active.
type Store interface {
	// Load returns the current document, or a well-defined default when no
	// record exists yet.
	Load(ctx context.Context) (*core.Document, error)

	// Save persists the entire document; there is no partial-record API.
	Save(ctx context.Context, doc *core.Document) error

	Close() error
}

// Result contains the selected store and the backend it resolved to.
type Result struct {
	Store Store
	Kind  Kind
}

// Kind identifies which backend the factory selected.
type Kind string

const (
	SQLiteKind Kind = "sqlite"
	FileKind   Kind = "file"
)
