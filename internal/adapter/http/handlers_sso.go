package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		writeError(w, http.StatusNotFound, "sso disabled")
		return
	}

	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.sso.OAuth2.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		writeError(w, http.StatusNotFound, "sso disabled")
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, "invalid state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	oauthToken, err := s.sso.OAuth2.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to exchange token")
		return
	}

	rawIDToken, ok := oauthToken.Extra("id_token").(string)
	if !ok {
		writeError(w, http.StatusInternalServerError, "no id_token")
		return
	}

	idToken, err := s.sso.Provider.Verifier(&oidc.Config{ClientID: s.sso.OAuth2.ClientID}).Verify(r.Context(), rawIDToken)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to verify token")
		return
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Sub   string `json:"sub"`
	}
	if err = idToken.Claims(&claims); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to parse claims")
		return
	}

	email := claims.Email
	if email == "" {
		email = claims.Sub
	}

	user, err := s.auth.EnsureUser(r.Context(), email, claims.Name)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	sessionToken, err := s.tokens.Issue(r.Context(), user.Email, time.Now())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	s.setSessionCookie(w, sessionToken)
	http.Redirect(w, r, "/", http.StatusFound)
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
