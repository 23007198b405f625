package adapthttp

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pagetrace/internal/app"
	"pagetrace/internal/domain"

	"github.com/go-chi/chi/v5"
)

type visitResponse struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	PageURL   string    `json:"page_url"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleTrackVisit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageURL string `json:"page_url"`
	}
	if err := parseJSON(r, &req); err != nil || req.PageURL == "" {
		writeError(w, http.StatusBadRequest, "page_url is required")
		return
	}

	id, err := s.stats.RecordVisit(r.Context(), identityFrom(r.Context()), req.PageURL, time.Now())
	if errors.Is(err, app.ErrUnknownUser) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Visit tracked successfully", "visit_id": id})
}

// visitFilter builds the conjunctive filter from the query string.
func visitFilter(r *http.Request) (domain.VisitFilter, error) {
	var f domain.VisitFilter
	var err error

	if f.UserID, err = int64Query(r, "user_id"); err != nil {
		return f, err
	}
	if v := r.URL.Query().Get("page_url"); v != "" {
		f.PageURL = &v
	}
	if f.Start, err = timeQuery(r, "start_date"); err != nil {
		return f, err
	}
	if f.End, err = timeQuery(r, "end_date"); err != nil {
		return f, err
	}
	return f, nil
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	f, err := visitFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	visits, err := s.stats.ListVisits(r.Context(), f)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	out := make([]visitResponse, 0, len(visits))
	for _, v := range visits {
		out = append(out, visitResponse{ID: v.ID, UserID: v.UserID, PageURL: v.PageURL, Timestamp: v.Timestamp})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.stats.Summary(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleUserActivity(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	start, err := timeQuery(r, "start_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := timeQuery(r, "end_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	activity, err := s.stats.UserActivity(r.Context(), userID, start, end)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}
