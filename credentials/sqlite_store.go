package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is the persistent scope, backed by a single-table SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the credential database at
// dbPath. ":memory:" gives a throwaway store for tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create credential store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	// one connection, so ":memory:" is a single database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS credentials (
			slot   TEXT PRIMARY KEY,
			value  TEXT NOT NULL
		);`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init 'credentials' table schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (*oauth2.Token, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slot, value FROM credentials;`)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	defer rows.Close()

	token := &oauth2.Token{}
	for rows.Next() {
		var slot, value string
		if err := rows.Scan(&slot, &value); err != nil {
			return nil, fmt.Errorf("failed to scan credential row: %w", err)
		}
		switch slot {
		case AccessTokenKey:
			token.AccessToken = value
		case RefreshTokenKey:
			token.RefreshToken = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, ErrNotFound
	}
	return token, nil
}

func (s *SQLiteStore) Save(ctx context.Context, token *oauth2.Token) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin credential write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials;`); err != nil {
		return fmt.Errorf("failed to replace credentials: %w", err)
	}
	for slot, value := range map[string]string{
		AccessTokenKey:  token.AccessToken,
		RefreshTokenKey: token.RefreshToken,
	} {
		if value == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO credentials (slot, value) VALUES (?, ?);`,
			slot, value,
		); err != nil {
			return fmt.Errorf("failed to write %s: %w", slot, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials;`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
