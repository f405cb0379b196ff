package auth

import (
	"chat-relay/domain"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenSource extracts a raw token from a request, empty when absent.
type TokenSource func(r *http.Request) string

// BearerHeader reads "Authorization: Bearer <token>".
func BearerHeader(r *http.Request) string {
	tokenStr, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(tokenStr)
}

// QueryParam reads the token from the URL, for browser websocket upgrades
// which cannot set headers.
func QueryParam(name string) TokenSource {
	return func(r *http.Request) string {
		return strings.TrimSpace(r.URL.Query().Get(name))
	}
}

// Middleware guards routes with a token, taken from the first source that
// has one (the Bearer header when no source is given):
// 401 when the token is missing, 403 when it does not validate.
// The authenticated user id is injected into the request context.
func Middleware(log *slog.Logger, issuer *TokenIssuer, sources ...TokenSource) func(http.Handler) http.Handler {
	if len(sources) == 0 {
		sources = []TokenSource{BearerHeader}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string
			for _, source := range sources {
				if tokenStr = source(r); tokenStr != "" {
					break
				}
			}
			if tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "authorization token is missing")
				return
			}

			claims, err := issuer.ValidateToken(tokenStr)
			if err != nil {
				log.Debug("Rejected token", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), domain.UserID(claims.UserID))))
		})
	}
}

func WithUserID(ctx context.Context, userID domain.UserID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (domain.UserID, bool) {
	userID, ok := ctx.Value(userIDKey).(domain.UserID)
	return userID, ok && !userID.IsEmpty()
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
