package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	protected := Middleware(logs.GetLoggerFromLevel(slog.LevelDebug), issuer)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(userID))
		}))

	valid, err := issuer.GenerateToken("user-1")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not a bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer not.a.jwt", http.StatusForbidden, ""},
		{"valid token", "Bearer " + valid, http.StatusOK, "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			protected.ServeHTTP(w, r)

			req.Equal(tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				req.Equal(tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestMiddleware_Query_Token(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	protected := Middleware(logs.GetLoggerFromLevel(slog.LevelDebug), issuer, BearerHeader, QueryParam("token"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			_, _ = w.Write([]byte(userID))
		}))

	valid, err := issuer.GenerateToken("user-1")
	require.NoError(t, err)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"no token at all", "/ws", http.StatusUnauthorized},
		{"empty query token", "/ws?token=", http.StatusUnauthorized},
		{"invalid query token", "/ws?token=not.a.jwt", http.StatusForbidden},
		{"valid query token", "/ws?token=" + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			w := httptest.NewRecorder()

			protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			req.Equal(tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				req.Equal("user-1", w.Body.String())
			}
		})
	}
}
