package domain

import (
	"context"
	"time"
)

// TokenState is the lifecycle state recorded for a ledger entry.
type TokenState string

const (
	TokenStateCreated TokenState = "created"
	TokenStateRevoked TokenState = "revoked"
)

// TokenRecord is one entry of the append-only token audit log. Every issued
// token has exactly one created record and at most one revoked record,
// keyed by the token's unique ID rather than the signed value itself.
type TokenRecord struct {
	ID         int64
	Email      string
	JTI        string
	RecordedAt time.Time
	State      TokenState
}

// TokenLedger defines the port for the token audit log. A token counts as
// revoked when a revoked entry exists for its ID.
type TokenLedger interface {
	RecordIssued(ctx context.Context, email, jti string, at time.Time) error
	RecordRevoked(ctx context.Context, email, jti string, at time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
