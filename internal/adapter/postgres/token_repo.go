package postgres

import (
	"context"
	"time"

	"pagetrace/internal/domain"
)

// TokenRepo implements the append-only token audit log on DB.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo wraps a DB as a TokenLedger.
func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// RecordIssued appends a created entry for the token.
func (r *TokenRepo) RecordIssued(ctx context.Context, email, jti string, at time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO token_history (email, jti, recorded_at, state) VALUES ($1, $2, $3, $4)",
		email, jti, at.UTC(), domain.TokenStateCreated)
	return err
}

// RecordRevoked appends a revoked entry for the token. The guard keeps the
// ledger at most one revoked record per token even if logout is replayed.
func (r *TokenRepo) RecordRevoked(ctx context.Context, email, jti string, at time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO token_history (email, jti, recorded_at, state) SELECT $1, $2, $3, $4 WHERE NOT EXISTS (SELECT 1 FROM token_history WHERE jti = $2 AND state = $4)",
		email, jti, at.UTC(), domain.TokenStateRevoked)
	return err
}

// IsRevoked reports whether a revoked entry exists for the token.
func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM token_history WHERE jti = $1 AND state = $2)",
		jti, domain.TokenStateRevoked).Scan(&revoked)
	return revoked, err
}
