package httputil

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/actworks/control-tower/internal/domain"
)

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Check if origin is allowed
			if originsSet[origin] || originsSet["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			// Handle preflight OPTIONS request
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

// UserKey stores the authenticated user in the request context.
const UserKey contextKey = "user"

// TokenValidator resolves an access token to the authenticated user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (domain.User, error)
}

// AuthMiddleware creates authentication middleware. The access token is
// read from the auth cookie when present, falling back to a bearer
// Authorization header for API clients. Cookie-authenticated requests with
// state-changing methods must also carry a double-submit CSRF token.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := tokenFromRequest(r)
			if token == "" {
				Error(w, http.StatusUnauthorized, "missing credentials")
				return
			}

			if fromCookie && isStateChanging(r.Method) && !validCSRF(r) {
				Error(w, http.StatusForbidden, "missing or invalid CSRF token")
				return
			}

			user, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole creates an allow-list authorization middleware. The request
// proceeds only when the authenticated user's role is one of allowed; there
// is no role hierarchy or rule evaluation.
func RequireRole(allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(UserKey).(domain.User)
			if !ok {
				Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !domain.IsAuthorized(user.Role, allowed) {
				Error(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUser extracts the authenticated user from context. The zero User is
// returned for unauthenticated requests.
func GetUser(ctx context.Context) domain.User {
	if user, ok := ctx.Value(UserKey).(domain.User); ok {
		return user
	}
	return domain.User{}
}

func tokenFromRequest(r *http.Request) (token string, fromCookie bool) {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1], false
	}
	return "", false
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// validCSRF compares the CSRF header against the csrf_token cookie
// (double-submit pattern). The cookie is not HttpOnly so the frontend can
// read it and echo it back in the header.
func validCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFTokenCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	header := r.Header.Get(CSRFTokenHeader)
	return header != "" && subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) == 1
}
