package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/wordbattle/internal/api/apierr"
	"github.com/mcoot/wordbattle/internal/services/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// PasswordHeader lets scripts authenticate with the raw admin password
const PasswordHeader = "X-Admin-Password"

// AdminAuth requires an admin session token or the admin password
func AdminAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if password := r.Header.Get(PasswordHeader); password != "" {
				if err := authService.CheckPassword(password); err != nil {
					apierr.WriteError(w, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := ExtractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken extracts the session token from the request
func ExtractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetSession returns the admin session from the request context.
// Nil when the request authenticated with the raw password.
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}
