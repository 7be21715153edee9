package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/markethub/pkg/auth"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/response"
	"github.com/shashiranjanraj/markethub/pkg/session"
)

// Auth rejects requests without a valid bearer token whose session is still
// live, and stores that session in the request context. Websocket clients
// may pass the token as ?token= instead of the header.
func Auth(store session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := resolve(r, store)
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}

// OptionalAuth attaches the session when a valid token is present and lets
// anonymous requests through untouched.
func OptionalAuth(store session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, err := resolve(r, store); err == nil {
				r = r.WithContext(session.WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

var (
	errMissingToken = errors.New("Unauthorized")
	errBadToken     = errors.New("Invalid token")
	errNoSession    = errors.New("Session expired or signed out")
)

func resolve(r *http.Request, store session.Store) (*session.Session, error) {
	token := bearer(r)
	if token == "" {
		return nil, errMissingToken
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, errBadToken
	}
	s, err := store.Find(r.Context(), claims.SessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.WithCtx(r.Context()).Error("auth: session lookup failed", "error", err)
		}
		return nil, errNoSession
	}
	if s.UserID != claims.UserID {
		return nil, errBadToken
	}
	return s, nil
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return r.URL.Query().Get("token")
}
