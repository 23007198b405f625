package memory

import (
	"context"
	"testing"
	"time"

	"pagetrace/internal/domain"
)

func TestCreateDuplicateEmail(t *testing.T) {
	db := New()
	ctx := context.Background()

	if _, err := db.Create(ctx, "a@x.com", "hash", "Alice"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, "a@x.com", "other", "Imposter"); err != domain.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestLookupsReturnNilWhenAbsent(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.GetByEmail(ctx, "ghost@x.com")
	if err != nil || u != nil {
		t.Errorf("GetByEmail: expected (nil, nil), got (%v, %v)", u, err)
	}
	u, err = db.GetByID(ctx, 42)
	if err != nil || u != nil {
		t.Errorf("GetByID: expected (nil, nil), got (%v, %v)", u, err)
	}
}

func TestUpdatePartial(t *testing.T) {
	db := New()
	ctx := context.Background()

	created, err := db.Create(ctx, "a@x.com", "hash", "Alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "Alicia"
	updated, err := db.Update(ctx, created.ID, domain.ProfileUpdate{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Alicia" {
		t.Errorf("name not updated: %q", updated.Name)
	}
	if updated.PasswordHash != "hash" {
		t.Errorf("password hash changed on a name-only update: %q", updated.PasswordHash)
	}
}

func TestDeleteCascadesVisits(t *testing.T) {
	db := New()
	ctx := context.Background()
	visits := db.NewVisitRepo()

	alice, _ := db.Create(ctx, "a@x.com", "hash", "Alice")
	bob, _ := db.Create(ctx, "b@x.com", "hash", "Bob")

	now := time.Now()
	if _, err := visits.Add(ctx, &alice.ID, "/home", now); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := visits.Add(ctx, &bob.ID, "/home", now); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := db.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	remaining, err := visits.List(ctx, domain.VisitFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 || *remaining[0].UserID != bob.ID {
		t.Errorf("expected only bob's visit to survive, got %+v", remaining)
	}
}

func TestTopPagesTiesKeepFirstSeenOrder(t *testing.T) {
	db := New()
	ctx := context.Background()
	visits := db.NewVisitRepo()
	now := time.Now()

	for _, page := range []string{"/a", "/b", "/a", "/b"} {
		if _, err := visits.Add(ctx, nil, page, now); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	pages, err := visits.TopPages(ctx, domain.VisitFilter{}, 10)
	if err != nil {
		t.Fatalf("TopPages: %v", err)
	}
	if len(pages) != 2 || pages[0].PageURL != "/a" || pages[1].PageURL != "/b" {
		t.Errorf("tie order not stable: %+v", pages)
	}
	if pages[0].UniqueUsers != 0 {
		t.Errorf("anonymous visits must not count as unique users, got %d", pages[0].UniqueUsers)
	}
}

func TestTokenLedgerRevocation(t *testing.T) {
	db := New()
	ctx := context.Background()
	ledger := db.NewTokenRepo()
	now := time.Now()

	if err := ledger.RecordIssued(ctx, "a@x.com", "jti-1", now); err != nil {
		t.Fatalf("RecordIssued: %v", err)
	}

	revoked, err := ledger.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Errorf("fresh token reported revoked: (%v, %v)", revoked, err)
	}

	if err := ledger.RecordRevoked(ctx, "a@x.com", "jti-1", now); err != nil {
		t.Fatalf("RecordRevoked: %v", err)
	}
	// Idempotent: a second revocation leaves the ledger unchanged.
	if err := ledger.RecordRevoked(ctx, "a@x.com", "jti-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("second RecordRevoked: %v", err)
	}

	revoked, err = ledger.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Errorf("revoked token not reported: (%v, %v)", revoked, err)
	}

	var count int
	for _, rec := range db.tokens {
		if rec.JTI == "jti-1" && rec.State == domain.TokenStateRevoked {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one revoked record, got %d", count)
	}
}
