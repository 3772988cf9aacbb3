package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"moneta/internal/core"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

// documentKey is the fixed key of the single ledger document.
const documentKey = "ledger"

// SQLiteStore keeps the whole ledger document as one row in an embedded
// sqlite database and writes it transactionally.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateSchema brings the document table up to date on the store's own
// connection, using the migration files embedded at build time.
func migrateSchema(db *sql.DB) error {
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	defer source.Close()

	// m is not closed here: closing it would also close the shared db handle.
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads the ledger document, handing back the default document when no
// record exists yet.
func (s *SQLiteStore) Load(ctx context.Context) (*core.Document, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE key = ?`, documentKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		slog.InfoContext(ctx, "No ledger document found, starting from defaults")
		return core.DefaultDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read document: %v", core.ErrPersistence, err)
	}

	doc, err := DecodeDocument(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	return doc, nil
}

// Save writes the whole document in one transaction: the caller always
// persists the entire aggregate, never a partial patch.
func (s *SQLiteStore) Save(ctx context.Context, doc *core.Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", core.ErrPersistence, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		documentKey, data)
	if err != nil {
		return fmt.Errorf("%w: write document: %v", core.ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrPersistence, err)
	}

	slog.DebugContext(ctx, "Ledger document saved",
		"bytes", len(data),
		"transactions", len(doc.Transactions))
	return nil
}
