package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/apperr"
	"github.com/expensedesk/expensedesk/internal/domain/entity"
)

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQLiteStore keeps the state document in a single-row snapshot table.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens the database and prepares the snapshot table.
func NewSQLiteStore(cfg Config, logger *zap.Logger) (*SQLiteStore, error) {
	// Enable WAL mode for better concurrency
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", cfg.Path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}

	logger.Info("State store opened", zap.String("path", cfg.Path))
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS app_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			document TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (*entity.AppState, error) {
	var document string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM app_state WHERE id = 1").Scan(&document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to load state document", zap.Error(err))
		return nil, fmt.Errorf("%w: load: %v", apperr.ErrStorage, err)
	}

	var state entity.AppState
	if err := json.Unmarshal([]byte(document), &state); err != nil {
		s.logger.Error("Failed to decode state document", zap.Error(err))
		return nil, fmt.Errorf("%w: decode: %v", apperr.ErrStorage, err)
	}
	return &state, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, state *entity.AppState) error {
	document, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", apperr.ErrStorage, err)
	}

	query := `
		INSERT INTO app_state (id, document, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			document = excluded.document,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, string(document)); err != nil {
		s.logger.Error("Failed to save state document", zap.Error(err))
		return fmt.Errorf("%w: save: %v", apperr.ErrStorage, err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM app_state WHERE id = 1"); err != nil {
		s.logger.Error("Failed to clear state document", zap.Error(err))
		return fmt.Errorf("%w: clear: %v", apperr.ErrStorage, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.logger.Info("Closing state store")
	return s.db.Close()
}

// Verify interface compliance
var _ Store = (*SQLiteStore)(nil)
