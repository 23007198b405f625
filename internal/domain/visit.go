package domain

import (
	"context"
	"time"
)

// PageVisit is one tracked page view. UserID is nil for anonymous visits;
// the authenticated tracking path always sets it. Visits are never mutated
// after creation and are removed only when the owning user is deleted.
type PageVisit struct {
	ID        int64
	UserID    *int64
	PageURL   string
	Timestamp time.Time
}

// VisitFilter narrows statistics queries. All fields are optional and
// conjunctive; the zero value matches every visit. End is inclusive.
type VisitFilter struct {
	UserID  *int64
	PageURL *string
	Start   *time.Time
	End     *time.Time
}

// PageCount is one row of a per-page aggregation.
type PageCount struct {
	PageURL     string
	Visits      int64
	UniqueUsers int64
}

// VisitRepository defines the port for visit persistence and aggregation.
type VisitRepository interface {
	Add(ctx context.Context, userID *int64, pageURL string, ts time.Time) (int64, error)
	List(ctx context.Context, f VisitFilter) ([]PageVisit, error)
	Count(ctx context.Context, f VisitFilter) (int64, error)
	CountUniqueUsers(ctx context.Context, start, end *time.Time) (int64, error)
	TopPages(ctx context.Context, f VisitFilter, limit int) ([]PageCount, error)
}
