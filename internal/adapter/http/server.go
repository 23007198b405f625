// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"pagetrace/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// SessionCookie is the cookie carrying the bearer token.
const SessionCookie = "access_token"

// OIDC holds the provider handle and OAuth2 client configuration for the
// optional SSO login flow.
type OIDC struct {
	Provider *oidc.Provider
	OAuth2   oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth   *app.AuthService
	tokens *app.TokenService
	stats  *app.StatsService
	sso    *OIDC
	logger *zap.Logger
}

// New creates a Server wired to the given application services. sso may be
// nil, which disables the SSO routes.
func New(auth *app.AuthService, tokens *app.TokenService, stats *app.StatsService, sso *OIDC, logger *zap.Logger) *Server {
	return &Server{auth: auth, tokens: tokens, stats: stats, sso: sso, logger: logger}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Get("/sso/login", s.handleSSOLogin)
		r.Get("/sso/callback", s.handleSSOCallback)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/me", s.handleMe)
			r.Patch("/me", s.handleUpdateMe)
			r.Delete("/me", s.handleDeleteMe)
			r.Post("/logout", s.handleLogout)
		})
	})

	r.Route("/stats", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/visits", s.handleTrackVisit)
		})
		r.Get("/statistics", s.handleStatistics)
		r.Get("/statistics/summary", s.handleSummary)
		r.Get("/users/{userID}/activity", s.handleUserActivity)
	})

	return r
}
