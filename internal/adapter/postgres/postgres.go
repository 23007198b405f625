// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// NewFromSQL wraps an existing connection without pinging or migrating.
// Used by tests that substitute a mock driver.
func NewFromSQL(s *sql.DB) *DB {
	return &DB{sql: s}
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, email TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, name TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS page_visits (id BIGSERIAL PRIMARY KEY, user_id BIGINT REFERENCES users(id) ON DELETE CASCADE, page_url TEXT NOT NULL, ts TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_page_visits_ts ON page_visits(ts);",
		"CREATE INDEX IF NOT EXISTS idx_page_visits_user_id ON page_visits(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_page_visits_page_url ON page_visits(page_url);",
		"CREATE TABLE IF NOT EXISTS token_history (id BIGSERIAL PRIMARY KEY, email TEXT NOT NULL, jti TEXT NOT NULL, recorded_at TIMESTAMPTZ NOT NULL, state TEXT NOT NULL CHECK(state IN ('created','revoked')));",
		"CREATE INDEX IF NOT EXISTS idx_token_history_jti ON token_history(jti, state);",
		"CREATE INDEX IF NOT EXISTS idx_token_history_email ON token_history(email);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
