// Package token signs and verifies the time-limited session tokens that
// prove prior authentication.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrExpired indicates the token's expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrInvalidSignature indicates the signature does not match the
	// configured secret.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrMalformed indicates the token could not be decoded or is missing
	// required claims.
	ErrMalformed = errors.New("token malformed")
)

// Manager issues and parses HMAC-signed JWTs. The signing algorithm and
// secret are fixed at construction.
type Manager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewManager creates a Manager for the given shared secret, algorithm name
// (HS256, HS384 or HS512) and token lifetime.
func NewManager(secret, algorithm string, ttl time.Duration) (*Manager, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not HMAC-based", algorithm)
	}
	if secret == "" {
		return nil, errors.New("signing secret must not be empty")
	}
	return &Manager{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for subject, valid from now until now plus the
// configured TTL. The returned jti uniquely identifies this token in the
// revocation ledger.
func (m *Manager) Issue(subject string, now time.Time) (raw string, jti string, err error) {
	jti = uuid.NewString()
	t := jwt.NewWithClaims(m.method, jwt.RegisteredClaims{
		Subject:   subject,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})

	raw, err = t.SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}
	return raw, jti, nil
}

// Parse verifies raw against the configured secret and algorithm and
// returns the embedded subject and jti. Expiry is evaluated at now.
func (m *Manager) Parse(raw string, now time.Time) (subject string, jti string, err error) {
	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", "", ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", "", ErrInvalidSignature
	default:
		return "", "", ErrMalformed
	}

	if claims.Subject == "" || claims.ID == "" {
		return "", "", ErrMalformed
	}
	return claims.Subject, claims.ID, nil
}
