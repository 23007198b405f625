package adapthttp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type contextKey string

const identityContextKey contextKey = "identity"

// identityFrom returns the authenticated email placed in the context by
// requireSession.
func identityFrom(ctx context.Context) string {
	email, _ := ctx.Value(identityContextKey).(string)
	return email
}

// requireSession validates the bearer token carried by the session cookie
// and injects the authenticated identity into the request context. All
// failure kinds collapse to the same 401 at this boundary; the token
// service logs the distinction.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		raw := strings.TrimPrefix(cookie.Value, "Bearer ")
		email, err := s.tokens.Validate(r.Context(), raw, time.Now())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
