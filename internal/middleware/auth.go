package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/advista/advista-server-go/internal/model"
	"github.com/advista/advista-server-go/internal/repository"
	"github.com/advista/advista-server-go/internal/service"
)

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

type AuthMiddleware struct {
	auth     *service.AuthService
	userRepo repository.UserRepository
}

func NewAuthMiddleware(auth *service.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, userRepo: userRepo}
}

// Handler rejects requests without a valid bearer token.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.resolveUser(w, r, true)
		if !ok {
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches the user when a valid token is present and passes the
// request through anonymously otherwise. Chat endpoints accept both.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if extractToken(r) == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, ok := m.resolveUser(w, r, false)
		if user == nil && !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveUser returns (user, true) on success. With required set, failures
// are written to the response and (nil, false) is returned; otherwise the
// caller falls back to anonymous.
func (m *AuthMiddleware) resolveUser(w http.ResponseWriter, r *http.Request, required bool) (*model.User, bool) {
	token := extractToken(r)
	if token == "" {
		if required {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing authentication token",
			})
		}
		return nil, false
	}

	email, err := m.auth.VerifyToken(token)
	if err != nil {
		if required {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
		}
		return nil, false
	}

	user, err := m.userRepo.FindByEmail(r.Context(), email)
	if err != nil {
		log.Error().Err(err).Msg("auth middleware: database error")
		if required {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Authentication failed",
			})
		}
		return nil, false
	}
	if user == nil {
		if required {
			log.Warn().Msg("auth middleware: token for unknown user")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
		}
		return nil, false
	}

	return user, true
}

func extractToken(r *http.Request) string {
	// SSE clients cannot set headers from EventSource, so the token may
	// arrive as a query parameter.
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
