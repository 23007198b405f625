package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pagetrace/internal/domain"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// GetByEmail retrieves a user by email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, email, password_hash, name, created_at, updated_at FROM users WHERE email = $1",
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, email, password_hash, name, created_at, updated_at FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create creates a new user. A unique-constraint violation on email maps to
// domain.ErrDuplicateEmail.
func (d *DB) Create(ctx context.Context, email, passwordHash, name string) (*domain.User, error) {
	now := time.Now()
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO users (email, password_hash, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id, email, password_hash, name, created_at, updated_at",
		email, passwordHash, name, now,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

// Update applies a partial update and returns the stored row.
func (d *DB) Update(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"UPDATE users SET name = COALESCE($2, name), password_hash = COALESCE($3, password_hash), updated_at = $4 WHERE id = $1 RETURNING id, email, password_hash, name, created_at, updated_at",
		id, upd.Name, upd.PasswordHash, time.Now(),
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes a user. Associated visits go with it via ON DELETE CASCADE.
func (d *DB) Delete(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	return err
}
