package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestTokenRepoRecordIssued(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO token_history (email, jti, recorded_at, state) VALUES ($1, $2, $3, $4)").
		WithArgs("a@x.com", "jti-1", at, "created").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.RecordIssued(context.Background(), "a@x.com", "jti-1", at))
}

func TestTokenRepoRecordRevokedGuarded(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	query := "INSERT INTO token_history (email, jti, recorded_at, state) SELECT $1, $2, $3, $4 WHERE NOT EXISTS (SELECT 1 FROM token_history WHERE jti = $2 AND state = $4)"

	mock.ExpectExec(query).
		WithArgs("a@x.com", "jti-1", at, "revoked").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.RecordRevoked(context.Background(), "a@x.com", "jti-1", at))

	// A replayed logout inserts nothing but still succeeds.
	mock.ExpectExec(query).
		WithArgs("a@x.com", "jti-1", at, "revoked").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.RecordRevoked(context.Background(), "a@x.com", "jti-1", at))
}

func TestTokenRepoIsRevoked(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	query := "SELECT EXISTS (SELECT 1 FROM token_history WHERE jti = $1 AND state = $2)"

	mock.ExpectQuery(query).
		WithArgs("jti-1", "revoked").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	revoked, err := repo.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	mock.ExpectQuery(query).
		WithArgs("jti-1", "revoked").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	revoked, err = repo.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)
}
