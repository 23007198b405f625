package adapthttp

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pagetrace/internal/app"
	"pagetrace/internal/domain"
)

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !strings.Contains(req.Email, "@") || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := s.auth.Authenticate(r.Context(), username, password)
	if errors.Is(err, app.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(r.Context(), user.Email, time.Now())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged in"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.GetProfile(r.Context(), identityFrom(r.Context()))
	if errors.Is(err, app.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := s.auth.UpdateProfile(r.Context(), identityFrom(r.Context()), req.Name, req.Password)
	if errors.Is(err, app.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	email := identityFrom(r.Context())
	err := s.auth.DeleteAccount(r.Context(), email)
	if errors.Is(err, app.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully deleted", "user_email": email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	email := identityFrom(r.Context())
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		raw := strings.TrimPrefix(cookie.Value, "Bearer ")
		if err := s.tokens.Revoke(r.Context(), raw, time.Now()); err != nil {
			s.internalError(w, r, err)
			return
		}
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out", "user_email": email})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "Bearer " + token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.tokens.TTL().Seconds()),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
