// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateEmail indicates that a user with the same email already exists.
// Concurrent registrations are serialized by the store's uniqueness
// constraint; the loser surfaces this error.
var ErrDuplicateEmail = errors.New("email already registered")

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries the optional fields of a partial profile edit.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name         *string
	PasswordHash *string
}

// UserRepository defines the port for user persistence operations.
// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, email, passwordHash, name string) (*User, error)
	Update(ctx context.Context, id int64, upd ProfileUpdate) (*User, error)
	Delete(ctx context.Context, id int64) error
}
