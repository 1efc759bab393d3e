package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubAuthenticator map[string]User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (User, error) {
	if token == "broken" {
		return User{}, errors.New("store down")
	}
	user, ok := s[token]
	if !ok {
		return User{}, ErrInvalidToken
	}
	return user, nil
}

func TestGate(t *testing.T) {
	gate := NewGate(stubAuthenticator{
		"user-token":  {ID: 1, Username: "alice"},
		"admin-token": {ID: 2, Username: "root", IsAdmin: true},
	})
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, found := UserFromContext(r.Context())
		if !found {
			t.Fatalf("user missing from context")
		}
		w.Header().Set("X-User", user.Username)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		handler    http.Handler
		header     string
		cookie     string
		wantStatus int
	}{
		{"NoToken", gate.RequireAuthenticated(ok), "", "", http.StatusUnauthorized},
		{"BadToken", gate.RequireAuthenticated(ok), "Bearer nope", "", http.StatusUnauthorized},
		{"StoreError", gate.RequireAuthenticated(ok), "Bearer broken", "", http.StatusInternalServerError},
		{"Bearer", gate.RequireAuthenticated(ok), "Bearer user-token", "", http.StatusOK},
		{"Cookie", gate.RequireAuthenticated(ok), "", "user-token", http.StatusOK},
		{"NotAdmin", gate.RequirePrivileged(ok), "bearer user-token", "", http.StatusForbidden},
		{"Admin", gate.RequirePrivileged(ok), "Bearer admin-token", "", http.StatusOK},
		{"AdminNoToken", gate.RequirePrivileged(ok), "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
