package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pagetrace/internal/domain"
	"pagetrace/internal/token"

	"go.uber.org/zap"
)

// ErrTokenRevoked indicates a syntactically valid, unexpired token that was
// explicitly invalidated, typically by logout.
var ErrTokenRevoked = errors.New("token revoked")

// TokenService issues, validates, and revokes session tokens. Every issued
// token is recorded in the append-only ledger, and validation rejects
// tokens with a revoked ledger entry even when signature and expiry checks
// pass.
type TokenService struct {
	manager *token.Manager
	ledger  domain.TokenLedger
	logger  *zap.Logger
}

// NewTokenService creates a TokenService from a token manager and ledger.
func NewTokenService(manager *token.Manager, ledger domain.TokenLedger, logger *zap.Logger) *TokenService {
	return &TokenService{manager: manager, ledger: ledger, logger: logger}
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.manager.TTL()
}

// Issue signs a token for subject and appends a created entry to the
// ledger.
func (s *TokenService) Issue(ctx context.Context, subject string, now time.Time) (string, error) {
	raw, jti, err := s.manager.Issue(subject, now)
	if err != nil {
		return "", err
	}

	if err := s.ledger.RecordIssued(ctx, subject, jti, now); err != nil {
		return "", fmt.Errorf("record issued token: %w", err)
	}

	s.logger.Debug("issued session token", zap.String("subject", subject), zap.String("jti", jti))
	return raw, nil
}

// Validate checks signature and expiry, consults the revocation ledger, and
// returns the token's subject. Failures are distinct error kinds internally;
// the HTTP boundary collapses them into a uniform authentication failure.
func (s *TokenService) Validate(ctx context.Context, raw string, now time.Time) (string, error) {
	subject, jti, err := s.manager.Parse(raw, now)
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return "", err
	}

	revoked, err := s.ledger.IsRevoked(ctx, jti)
	if err != nil {
		return "", fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		s.logger.Debug("token rejected", zap.String("jti", jti), zap.Error(ErrTokenRevoked))
		return "", ErrTokenRevoked
	}

	return subject, nil
}

// Revoke appends a revoked entry for raw, invalidating it ahead of its
// natural expiry. The token must still parse; revoking garbage is not
// recorded.
func (s *TokenService) Revoke(ctx context.Context, raw string, now time.Time) error {
	subject, jti, err := s.manager.Parse(raw, now)
	if err != nil {
		return err
	}

	if err := s.ledger.RecordRevoked(ctx, subject, jti, now); err != nil {
		return fmt.Errorf("record revoked token: %w", err)
	}

	s.logger.Debug("revoked session token", zap.String("subject", subject), zap.String("jti", jti))
	return nil
}
