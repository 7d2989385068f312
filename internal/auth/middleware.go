package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/redmonkez12/identity-api/internal/httputil"
	"github.com/redmonkez12/identity-api/internal/logging"
	"github.com/redmonkez12/identity-api/internal/token"
	"github.com/redmonkez12/identity-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserEmailContextKey ContextKey = "user_email"

// TokenAuthenticator verifies raw tokens. *token.Service satisfies it.
type TokenAuthenticator interface {
	Authenticate(raw string) (*token.Claims, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	tokens TokenAuthenticator
}

func NewMiddleware(tokens TokenAuthenticator) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireAuth is a middleware that validates the bearer token in the
// Authorization header
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		raw, err := token.ParseBearer(authHeader)
		if err != nil {
			logger.Warn("rejected authorization header", "error", err.Error())
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.Authenticate(raw)
		if err != nil {
			var tokenErr *token.InvalidTokenError
			if errors.As(err, &tokenErr) && tokenErr.Expired {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			logger.Warn("rejected token", "error", err.Error())
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		email := user.NormalizeEmail(claims.Subject)
		ctx := context.WithValue(r.Context(), UserEmailContextKey, email)
		ctx = logging.WithLogger(ctx, logger.WithFields(map[string]any{
			"subject":  email,
			"token_id": claims.ID,
		}))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserEmailFromContext extracts the authenticated email from the request context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailContextKey).(string)
	return email, ok
}
