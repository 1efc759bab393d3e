package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const SessionCookie = "quiz_session"

type contextKey struct{}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(contextKey{}).(User)
	return user, ok
}

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (User, error)
}

// Gate holds the two composable request guards.
type Gate struct {
	authn Authenticator
}

func NewGate(authn Authenticator) *Gate {
	return &Gate{authn: authn}
}

// RequireAuthenticated rejects requests without a valid session with 401 and
// a bearer challenge.
func (g *Gate) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			challenge(w, "login required")
			return
		}

		user, err := g.authn.Authenticate(r.Context(), token)
		if errors.Is(err, ErrInvalidToken) {
			challenge(w, ErrInvalidToken.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "request failed")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequirePrivileged runs RequireAuthenticated first, then answers 403 for
// users without the admin flag.
func (g *Gate) RequirePrivileged(next http.Handler) http.Handler {
	return g.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			challenge(w, "login required")
			return
		}
		if !user.IsAdmin {
			writeError(w, http.StatusForbidden, "administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func challenge(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="quizhub"`)
	writeError(w, http.StatusUnauthorized, message)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
