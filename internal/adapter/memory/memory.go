// Package memory implements an in-memory repository for development and
// testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pagetrace/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu     sync.Mutex
	users  []*domain.User
	visits []domain.PageVisit
	tokens []domain.TokenRecord

	userIDCounter  int64
	visitIDCounter int64
	tokenIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.VisitRepository = (*VisitRepo)(nil)
var _ domain.TokenLedger = (*TokenRepo)(nil)

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, email, passwordHash, name string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return nil, domain.ErrDuplicateEmail
		}
	}

	db.userIDCounter++
	now := time.Now().UTC()
	u := &domain.User{
		ID:           db.userIDCounter,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	db.users = append(db.users, u)
	cp := *u
	return &cp, nil
}

// Update applies a partial update.
func (db *DB) Update(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			if upd.Name != nil {
				u.Name = *upd.Name
			}
			if upd.PasswordHash != nil {
				u.PasswordHash = *upd.PasswordHash
			}
			u.UpdatedAt = time.Now().UTC()
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Delete removes a user and, mirroring the store's cascade, the user's
// visits.
func (db *DB) Delete(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, u := range db.users {
		if u.ID == id {
			db.users = append(db.users[:i], db.users[i+1:]...)
			break
		}
	}

	kept := db.visits[:0]
	for _, v := range db.visits {
		if v.UserID == nil || *v.UserID != id {
			kept = append(kept, v)
		}
	}
	db.visits = kept
	return nil
}

// --- VisitRepository ---

// VisitRepo implements visit persistence.
type VisitRepo struct {
	db *DB
}

// NewVisitRepo creates a new visit repository.
func (db *DB) NewVisitRepo() *VisitRepo {
	return &VisitRepo{db: db}
}

// Add appends one visit.
func (r *VisitRepo) Add(ctx context.Context, userID *int64, pageURL string, ts time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.visitIDCounter++
	id := r.db.visitIDCounter

	var uid *int64
	if userID != nil {
		v := *userID
		uid = &v
	}
	r.db.visits = append(r.db.visits, domain.PageVisit{
		ID:        id,
		UserID:    uid,
		PageURL:   pageURL,
		Timestamp: ts.UTC(),
	})
	return id, nil
}

func matches(v domain.PageVisit, f domain.VisitFilter) bool {
	if f.UserID != nil && (v.UserID == nil || *v.UserID != *f.UserID) {
		return false
	}
	if f.PageURL != nil && v.PageURL != *f.PageURL {
		return false
	}
	if f.Start != nil && v.Timestamp.Before(f.Start.UTC()) {
		return false
	}
	if f.End != nil && v.Timestamp.After(f.End.UTC()) {
		return false
	}
	return true
}

// List returns matching visits in insertion order.
func (r *VisitRepo) List(ctx context.Context, f domain.VisitFilter) ([]domain.PageVisit, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.PageVisit
	for _, v := range r.db.visits {
		if matches(v, f) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Count returns the cardinality of the matching set.
func (r *VisitRepo) Count(ctx context.Context, f domain.VisitFilter) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var count int64
	for _, v := range r.db.visits {
		if matches(v, f) {
			count++
		}
	}
	return count, nil
}

// CountUniqueUsers counts distinct non-nil user IDs in the window.
func (r *VisitRepo) CountUniqueUsers(ctx context.Context, start, end *time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	seen := map[int64]struct{}{}
	f := domain.VisitFilter{Start: start, End: end}
	for _, v := range r.db.visits {
		if v.UserID != nil && matches(v, f) {
			seen[*v.UserID] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

// TopPages groups matching visits by page, ordered by visit count
// descending, truncated to limit.
func (r *VisitRepo) TopPages(ctx context.Context, f domain.VisitFilter, limit int) ([]domain.PageCount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	counts := map[string]*domain.PageCount{}
	uniques := map[string]map[int64]struct{}{}
	var order []string

	for _, v := range r.db.visits {
		if !matches(v, f) {
			continue
		}
		pc, ok := counts[v.PageURL]
		if !ok {
			pc = &domain.PageCount{PageURL: v.PageURL}
			counts[v.PageURL] = pc
			uniques[v.PageURL] = map[int64]struct{}{}
			order = append(order, v.PageURL)
		}
		pc.Visits++
		if v.UserID != nil {
			uniques[v.PageURL][*v.UserID] = struct{}{}
		}
	}

	out := make([]domain.PageCount, 0, len(order))
	for _, url := range order {
		pc := *counts[url]
		pc.UniqueUsers = int64(len(uniques[url]))
		out = append(out, pc)
	}

	// Stable sort keeps first-seen order for ties.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Visits > out[j].Visits
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- TokenLedger ---

// TokenRepo implements the append-only token audit log.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo creates a new token ledger.
func (db *DB) NewTokenRepo() *TokenRepo {
	return &TokenRepo{db: db}
}

func (r *TokenRepo) append(email, jti string, at time.Time, state domain.TokenState) {
	r.db.tokenIDCounter++
	r.db.tokens = append(r.db.tokens, domain.TokenRecord{
		ID:         r.db.tokenIDCounter,
		Email:      email,
		JTI:        jti,
		RecordedAt: at.UTC(),
		State:      state,
	})
}

// RecordIssued appends a created entry.
func (r *TokenRepo) RecordIssued(ctx context.Context, email, jti string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.append(email, jti, at, domain.TokenStateCreated)
	return nil
}

// RecordRevoked appends a revoked entry unless one already exists.
func (r *TokenRepo) RecordRevoked(ctx context.Context, email, jti string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, rec := range r.db.tokens {
		if rec.JTI == jti && rec.State == domain.TokenStateRevoked {
			return nil
		}
	}
	r.append(email, jti, at, domain.TokenStateRevoked)
	return nil
}

// IsRevoked reports whether a revoked entry exists for the token.
func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, rec := range r.db.tokens {
		if rec.JTI == jti && rec.State == domain.TokenStateRevoked {
			return true, nil
		}
	}
	return false, nil
}
