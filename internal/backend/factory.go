package backend

import (
	"fmt"
	"log/slog"

	"moneta/internal/config"
	"moneta/internal/storage"
)

// Factory selects the storage backend once at startup. The choice is fixed
// for the session: the transactional sqlite store when it initializes, the
// flat file store otherwise.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Open resolves the configured backend. With DataBackend "auto" it tries
// sqlite first and degrades to the file store if initialization fails;
// "sqlite" and "file" force one implementation and report its errors.
func (f *Factory) Open(cfg *config.Config) (*Result, error) {
	switch cfg.DataBackend {
	case "sqlite":
		return f.openSQLite(cfg)
	case "file":
		return f.openFile(cfg)
	case "auto":
		result, err := f.openSQLite(cfg)
		if err == nil {
			return result, nil
		}
		f.logger.Warn("SQLite backend unavailable, falling back to file store",
			"error", err, "db_path", cfg.SQLiteDBPath)
		return f.openFile(cfg)
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

func (f *Factory) openSQLite(cfg *config.Config) (*Result, error) {
	store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}
	f.logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: store, Kind: SQLiteKind}, nil
}

func (f *Factory) openFile(cfg *config.Config) (*Result, error) {
	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initialize file store: %w", err)
	}
	f.logger.Info("Initialized file backend", "data_dir", cfg.DataDir)
	return &Result{Store: store, Kind: FileKind}, nil
}
