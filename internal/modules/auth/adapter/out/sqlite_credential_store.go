package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"todoterm/internal/modules/auth/domain"
	"todoterm/internal/platform/clock"
	apperrors "todoterm/internal/platform/errors"

	_ "modernc.org/sqlite"
)

// SQLiteCredentialStore keeps one row per origin in the local state database.
type SQLiteCredentialStore struct {
	db     *sql.DB
	origin string
	clock  clock.Clock
}

func NewSQLiteCredentialStore(dbPath, origin string, clk clock.Clock) (*SQLiteCredentialStore, error) {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteCredentialStore{db: db, origin: origin, clock: clk}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteCredentialStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS credentials (
  origin TEXT NOT NULL,
  key TEXT NOT NULL,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (origin, key)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create credentials table: %w", err)
	}
	return nil
}

func (s *SQLiteCredentialStore) Get(ctx context.Context) (domain.Credential, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE origin = ? AND key = ?`, s.origin, domain.TokenKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	credential := domain.Credential(value)
	if !credential.Present() {
		return "", apperrors.ErrNoCredential
	}
	return credential, nil
}

func (s *SQLiteCredentialStore) Set(ctx context.Context, credential domain.Credential) error {
	const stmt = `
INSERT INTO credentials (origin, key, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(origin, key) DO UPDATE SET
  value=excluded.value,
  updated_at=excluded.updated_at;
`
	if _, err := s.db.ExecContext(ctx, stmt, s.origin, domain.TokenKey, string(credential), s.clock.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

func (s *SQLiteCredentialStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE origin = ? AND key = ?`, s.origin, domain.TokenKey); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (s *SQLiteCredentialStore) Close() error {
	return s.db.Close()
}
