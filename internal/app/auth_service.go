// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"

	"pagetrace/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided email or password was
	// incorrect. Unknown email and wrong password are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// AuthService handles registration, credential verification, and profile
// management.
type AuthService struct {
	users domain.UserRepository
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register creates a user with a bcrypt-hashed password. It fails with
// domain.ErrDuplicateEmail when the email is already taken; concurrent
// registrations for the same email are serialized by the store's
// uniqueness constraint.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, string(hash), name)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies email and password and returns the matching user.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetProfile returns the user identified by email.
func (s *AuthService) GetProfile(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies a partial update to the user identified by email.
// A new password, if supplied, is hashed before persisting.
func (s *AuthService) UpdateProfile(ctx context.Context, email string, name, password *string) (*domain.User, error) {
	user, err := s.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}

	upd := domain.ProfileUpdate{Name: name}
	if password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hashed := string(hash)
		upd.PasswordHash = &hashed
	}

	return s.users.Update(ctx, user.ID, upd)
}

// DeleteAccount removes the user identified by email. The store cascades
// the delete to the user's visit records.
func (s *AuthService) DeleteAccount(ctx context.Context, email string) error {
	user, err := s.GetProfile(ctx, email)
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, user.ID)
}

// EnsureUser returns the user for email, provisioning one when missing.
// Provisioned users get an empty password hash and can only sign in via
// SSO; a password comparison against an empty hash always fails.
func (s *AuthService) EnsureUser(ctx context.Context, email, name string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = s.users.Create(ctx, email, "", name)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		// Lost a provisioning race; the row exists now.
		return s.users.GetByEmail(ctx, email)
	}
	return user, err
}
