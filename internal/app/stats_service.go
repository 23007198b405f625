package app

import (
	"context"
	"errors"
	"time"

	"pagetrace/internal/domain"
)

// ErrUnknownUser indicates that a visit was recorded for an identity that
// does not resolve to a stored user.
var ErrUnknownUser = errors.New("unknown user")

const defaultTopPages = 10

// PagePopularity is one entry of a popular-pages ranking.
type PagePopularity struct {
	PageURL     string `json:"page_url"`
	Visits      int64  `json:"visits"`
	UniqueUsers int64  `json:"unique_users"`
}

// PageVisits is a per-page visit count without the unique-user dimension,
// used for single-user activity where it would always be one.
type PageVisits struct {
	PageURL string `json:"page_url"`
	Visits  int64  `json:"visits"`
}

// Summary is the site-wide aggregate returned by the summary endpoint.
type Summary struct {
	TotalVisits  int64            `json:"total_visits"`
	UniqueUsers  int64            `json:"unique_users"`
	PopularPages []PagePopularity `json:"popular_pages"`
}

// UserActivity aggregates one user's visits within an optional window.
type UserActivity struct {
	TotalVisits  int64        `json:"total_visits"`
	PopularPages []PageVisits `json:"popular_pages"`
}

// StatsService records page visits and computes visit statistics.
type StatsService struct {
	users  domain.UserRepository
	visits domain.VisitRepository
}

// NewStatsService creates a StatsService backed by the given repositories.
func NewStatsService(users domain.UserRepository, visits domain.VisitRepository) *StatsService {
	return &StatsService{users: users, visits: visits}
}

// RecordVisit resolves the identity to a user and appends one visit row.
func (s *StatsService) RecordVisit(ctx context.Context, email, pageURL string, now time.Time) (int64, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUnknownUser
	}
	return s.visits.Add(ctx, &user.ID, pageURL, now)
}

// ListVisits returns visit records matching the filter, in storage order.
func (s *StatsService) ListVisits(ctx context.Context, f domain.VisitFilter) ([]domain.PageVisit, error) {
	return s.visits.List(ctx, f)
}

// CountVisits returns the number of visit records matching the filter.
func (s *StatsService) CountVisits(ctx context.Context, f domain.VisitFilter) (int64, error) {
	return s.visits.Count(ctx, f)
}

// CountUniqueUsers counts distinct non-anonymous visitors within the
// optional window.
func (s *StatsService) CountUniqueUsers(ctx context.Context, start, end *time.Time) (int64, error) {
	return s.visits.CountUniqueUsers(ctx, start, end)
}

// TopPages returns up to limit pages ordered by visit count descending.
// A non-positive limit falls back to the default of 10.
func (s *StatsService) TopPages(ctx context.Context, limit int, start, end *time.Time) ([]PagePopularity, error) {
	if limit <= 0 {
		limit = defaultTopPages
	}

	rows, err := s.visits.TopPages(ctx, domain.VisitFilter{Start: start, End: end}, limit)
	if err != nil {
		return nil, err
	}

	pages := make([]PagePopularity, 0, len(rows))
	for _, row := range rows {
		pages = append(pages, PagePopularity{PageURL: row.PageURL, Visits: row.Visits, UniqueUsers: row.UniqueUsers})
	}
	return pages, nil
}

// Summary computes the site-wide totals and the default popular-pages
// ranking over the full history.
func (s *StatsService) Summary(ctx context.Context) (*Summary, error) {
	total, err := s.visits.Count(ctx, domain.VisitFilter{})
	if err != nil {
		return nil, err
	}

	unique, err := s.visits.CountUniqueUsers(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	popular, err := s.TopPages(ctx, defaultTopPages, nil, nil)
	if err != nil {
		return nil, err
	}

	return &Summary{TotalVisits: total, UniqueUsers: unique, PopularPages: popular}, nil
}

// UserActivity returns one user's total visit count and top five pages
// within the optional window.
func (s *StatsService) UserActivity(ctx context.Context, userID int64, start, end *time.Time) (*UserActivity, error) {
	f := domain.VisitFilter{UserID: &userID, Start: start, End: end}

	total, err := s.visits.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	rows, err := s.visits.TopPages(ctx, f, 5)
	if err != nil {
		return nil, err
	}

	pages := make([]PageVisits, 0, len(rows))
	for _, row := range rows {
		pages = append(pages, PageVisits{PageURL: row.PageURL, Visits: row.Visits})
	}

	return &UserActivity{TotalVisits: total, PopularPages: pages}, nil
}
