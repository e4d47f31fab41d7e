package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
)

// Cookie names shared by the auth middleware (reads) and the session cookie
// codec in the web layer (writes).
const (
	AccessTokenCookie  = "sb_access_token"
	RefreshTokenCookie = "sb_refresh_token"
)

// ContextUserKey is the gin context key under which the resolved user is
// stored. A nil value under this key means "anonymous" (optional mode).
const ContextUserKey = "auth_user"

// UserResolver resolves an access token to a user. Satisfied by
// logic/v1.AuthService, which layers bounded retry over the provider.
type UserResolver interface {
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
}

// ExtractToken pulls the access token from the Authorization header
// ("Bearer <token>") or, failing that, from the access cookie.
func ExtractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		scheme, token, found := strings.Cut(authHeader, " ")
		if found && scheme == "Bearer" && token != "" {
			return token
		}
	}

	if token, err := c.Cookie(AccessTokenCookie); err == nil {
		return token
	}
	return ""
}

// RequireAuth gates a route on a valid access token. The resolved user is
// attached to the gin context for downstream handlers.
func RequireAuth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		user, err := resolver.GetUser(c.Request.Context(), token)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("Token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: invalid token"})
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// OptionalAuth resolves identity when possible but never blocks the request.
// Handlers see a nil user for anonymous callers.
func OptionalAuth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user *domain.User

		if token := ExtractToken(c); token != "" {
			resolved, err := resolver.GetUser(c.Request.Context(), token)
			if err != nil {
				zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("Optional auth token rejected")
			} else {
				user = resolved
			}
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// UserFromContext returns the user attached by RequireAuth or OptionalAuth.
// The second return is false when no middleware ran or the caller was
// anonymous.
func UserFromContext(c *gin.Context) (*domain.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*domain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
