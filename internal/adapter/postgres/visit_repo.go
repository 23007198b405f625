package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pagetrace/internal/domain"
)

// VisitRepo implements visit persistence and aggregation on DB.
type VisitRepo struct {
	db *DB
}

// NewVisitRepo wraps a DB as a VisitRepository.
func NewVisitRepo(db *DB) *VisitRepo {
	return &VisitRepo{db: db}
}

// Add appends one visit row.
func (r *VisitRepo) Add(ctx context.Context, userID *int64, pageURL string, ts time.Time) (int64, error) {
	var id int64
	err := r.db.sql.QueryRowContext(ctx,
		"INSERT INTO page_visits (user_id, page_url, ts) VALUES ($1, $2, $3) RETURNING id",
		userID, pageURL, ts.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// whereClause renders the conjunctive filter conditions. The end bound is
// inclusive.
func whereClause(f domain.VisitFilter) (string, []any) {
	var conds []string
	var args []any

	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.PageURL != nil {
		args = append(args, *f.PageURL)
		conds = append(conds, fmt.Sprintf("page_url = $%d", len(args)))
	}
	if f.Start != nil {
		args = append(args, f.Start.UTC())
		conds = append(conds, fmt.Sprintf("ts >= $%d", len(args)))
	}
	if f.End != nil {
		args = append(args, f.End.UTC())
		conds = append(conds, fmt.Sprintf("ts <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns matching visit rows in storage order.
func (r *VisitRepo) List(ctx context.Context, f domain.VisitFilter) ([]domain.PageVisit, error) {
	where, args := whereClause(f)
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT id, user_id, page_url, ts FROM page_visits"+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PageVisit
	for rows.Next() {
		var v domain.PageVisit
		if err := rows.Scan(&v.ID, &v.UserID, &v.PageURL, &v.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Count returns the cardinality of the matching set.
func (r *VisitRepo) Count(ctx context.Context, f domain.VisitFilter) (int64, error) {
	where, args := whereClause(f)
	var count int64
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT COUNT(id) FROM page_visits"+where, args...).Scan(&count)
	return count, err
}

// CountUniqueUsers counts distinct non-null user_id values in the window.
func (r *VisitRepo) CountUniqueUsers(ctx context.Context, start, end *time.Time) (int64, error) {
	where, args := whereClause(domain.VisitFilter{Start: start, End: end})
	var count int64
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT user_id) FROM page_visits"+where, args...).Scan(&count)
	return count, err
}

// TopPages groups matching visits by page, ordered by visit count
// descending and truncated to limit. Ties keep the store's iteration order.
func (r *VisitRepo) TopPages(ctx context.Context, f domain.VisitFilter, limit int) ([]domain.PageCount, error) {
	where, args := whereClause(f)
	args = append(args, limit)
	query := fmt.Sprintf(
		"SELECT page_url, COUNT(id) AS visits, COUNT(DISTINCT user_id) AS unique_users FROM page_visits%s GROUP BY page_url ORDER BY visits DESC LIMIT $%d",
		where, len(args))

	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PageCount
	for rows.Next() {
		var p domain.PageCount
		if err := rows.Scan(&p.PageURL, &p.Visits, &p.UniqueUsers); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
