package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/nimven/autotourney/services"
)

type contextKey string

const sessionContextKey contextKey = "session"

const sessionCookieName = "session"

// SessionVerifier is implemented by *services.AuthService.
type SessionVerifier interface {
	VerifySession(token string) (*services.Session, error)
}

// Authenticate resolves the session cookie into a *services.Session and puts
// it on the request context. Requests without a valid session are rejected.
func Authenticate(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil {
				unauthorizedResponse(w, r, "authentication required")
				return
			}

			session, err := verifier.VerifySession(cookie.Value)
			if err != nil {
				unauthorizedResponse(w, r, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFromContext returns the session placed by Authenticate.
func sessionFromContext(ctx context.Context) (*services.Session, error) {
	session, ok := ctx.Value(sessionContextKey).(*services.Session)
	if !ok || session == nil {
		return nil, errors.New("no session on request context")
	}
	return session, nil
}
