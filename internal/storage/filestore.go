package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"moneta/internal/core"
)

// fileName is the fixed key of the flat key-value fallback: one file, one record.
const fileName = "ledger.json"

// FileStore is the flat key-value fallback backend: the whole document lives
// in a single JSON file, replaced atomically on every save.
type FileStore struct {
	path string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, fileName)}, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Load(ctx context.Context) (*core.Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		slog.InfoContext(ctx, "No ledger file found, starting from defaults", "path", s.path)
		return core.DefaultDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrPersistence, s.path, err)
	}

	doc, err := DecodeDocument(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	return doc, nil
}

// Save writes the whole document via a temp file and rename so a failed
// write never leaves a half-written record behind.
func (s *FileStore) Save(ctx context.Context, doc *core.Document) error {
	doc.SchemaVersion = core.SchemaVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode document: %v", core.ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", core.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", core.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", core.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", core.ErrPersistence, s.path, err)
	}

	slog.DebugContext(ctx, "Ledger file saved", "path", s.path, "bytes", len(data))
	return nil
}
