package app

import (
	"context"
	"errors"
	"testing"

	"pagetrace/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn    func(ctx context.Context, id int64) (*domain.User, error)
	createFn     func(ctx context.Context, email, passwordHash, name string) (*domain.User, error)
	updateFn     func(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error)
	deleteFn     func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFn(ctx, email)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockUserRepo) Create(ctx context.Context, email, passwordHash, name string) (*domain.User, error) {
	return m.createFn(ctx, email, passwordHash, name)
}

func (m *mockUserRepo) Update(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error) {
	return m.updateFn(ctx, id, upd)
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

func TestRegisterHashesPassword(t *testing.T) {
	var storedHash string
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, email, passwordHash, name string) (*domain.User, error) {
			storedHash = passwordHash
			return &domain.User{ID: 1, Email: email, PasswordHash: passwordHash, Name: name}, nil
		},
	}

	svc := NewAuthService(repo)
	user, err := svc.Register(context.Background(), "a@x.com", "pw1", "Alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "a@x.com" || user.Name != "Alice" {
		t.Errorf("unexpected user %+v", user)
	}
	if storedHash == "pw1" {
		t.Error("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("pw1")); err != nil {
		t.Errorf("stored hash does not verify the password: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, email, passwordHash, name string) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}

	svc := NewAuthService(repo)
	if _, err := svc.Register(context.Background(), "a@x.com", "pw1", ""); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("pw1"), bcrypt.DefaultCost)
	repo := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			if email == "a@x.com" {
				return &domain.User{ID: 1, Email: email, PasswordHash: string(hash)}, nil
			}
			return nil, nil
		},
	}
	svc := NewAuthService(repo)

	user, err := svc.Authenticate(context.Background(), "a@x.com", "pw1")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != 1 {
		t.Errorf("unexpected user ID %d", user.ID)
	}

	if _, err := svc.Authenticate(context.Background(), "a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "b@x.com", "pw1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateEmptyHashAlwaysFails(t *testing.T) {
	// SSO-provisioned accounts have no password.
	repo := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email, PasswordHash: ""}, nil
		},
	}
	svc := NewAuthService(repo)

	if _, err := svc.Authenticate(context.Background(), "sso@x.com", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUpdateProfileHashesNewPassword(t *testing.T) {
	var captured domain.ProfileUpdate
	repo := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 7, Email: email}, nil
		},
		updateFn: func(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error) {
			captured = upd
			return &domain.User{ID: id}, nil
		},
	}
	svc := NewAuthService(repo)

	name := "Bob"
	password := "newpw"
	if _, err := svc.UpdateProfile(context.Background(), "a@x.com", &name, &password); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if captured.Name == nil || *captured.Name != "Bob" {
		t.Errorf("name not passed through: %+v", captured.Name)
	}
	if captured.PasswordHash == nil {
		t.Fatal("password hash not set")
	}
	if *captured.PasswordHash == "newpw" {
		t.Error("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*captured.PasswordHash), []byte("newpw")); err != nil {
		t.Errorf("stored hash does not verify the new password: %v", err)
	}
}

func TestDeleteAccountUnknownUser(t *testing.T) {
	repo := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return nil, nil
		},
	}
	svc := NewAuthService(repo)

	if err := svc.DeleteAccount(context.Background(), "ghost@x.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestEnsureUserProvisioningRace(t *testing.T) {
	calls := 0
	repo := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			calls++
			if calls == 1 {
				return nil, nil
			}
			return &domain.User{ID: 3, Email: email}, nil
		},
		createFn: func(ctx context.Context, email, passwordHash, name string) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	svc := NewAuthService(repo)

	user, err := svc.EnsureUser(context.Background(), "a@x.com", "Alice")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if user == nil || user.ID != 3 {
		t.Errorf("expected the concurrently created user, got %+v", user)
	}
}
