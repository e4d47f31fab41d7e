package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
	logicv1 "github.com/pixelforge/imagegen-service/internal/logic/v1"
	"github.com/pixelforge/imagegen-service/middleware"
)

// AuthHandler groups the HTTP handlers for the auth API.
// Dependencies are injected via the constructor — no global state.
type AuthHandler struct {
	auth    *logicv1.AuthService
	cookies *CookieCodec
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *logicv1.AuthService, cookies *CookieCodec) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

// RegisterRoutes registers the auth routes on the given router group.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", h.Signup)
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/logout", h.Logout)
	rg.GET("/auth/me", h.GetMe)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Signup failed")
		writeAuthError(c, err)
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("Signup successful")
	c.JSON(http.StatusCreated, gin.H{"message": "Signup successful", "user": user})
}

// Login handles POST /auth/login. On success both session cookies are set;
// tokens never appear in the response body.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Login failed")
		writeAuthError(c, err)
		return
	}

	h.cookies.SetSession(c, session)

	logger.Info().Str("user_id", session.User.ID).Msg("Login successful")
	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

// Logout handles POST /auth/logout. Both cookies are cleared unconditionally;
// logging out without a session still succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.ClearSession(c)
	c.Status(http.StatusNoContent)
}

// GetMe handles GET /auth/me. This is the self-refreshing endpoint: an
// expired access cookie is transparently exchanged via the refresh cookie and
// both cookies are rotated on success.
func (h *AuthHandler) GetMe(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	accessToken, _ := c.Cookie(middleware.AccessTokenCookie)
	refreshToken, _ := c.Cookie(middleware.RefreshTokenCookie)

	user, rotated, err := h.auth.ResolveIdentity(ctx, accessToken, refreshToken)
	if err != nil {
		span.RecordError(err)

		if errors.Is(err, logicv1.ErrNotAuthenticated) {
			// Nothing was presented, so there is nothing to clear.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		// Refresh was attempted and rejected: the pair is dead weight.
		logger.Warn().Err(err).Msg("Identity resolution failed")
		h.cookies.ClearSession(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
		return
	}

	if rotated != nil {
		h.cookies.SetSession(c, rotated)
		logger.Info().Str("user_id", user.ID).Msg("Session rotated")
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// writeAuthError maps logic-layer errors to HTTP responses. Validation errors
// keep their user-facing message; provider errors surface the provider's own
// status and message; anything else is a generic 500.
func writeAuthError(c *gin.Context, err error) {
	var providerErr *domain.ProviderError

	switch {
	case errors.Is(err, logicv1.ErrCredentialsRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
	case errors.Is(err, logicv1.ErrInvalidEmailFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format."})
	case errors.Is(err, logicv1.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters long."})
	case errors.Is(err, logicv1.ErrNoSession):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No session returned"})
	case errors.As(err, &providerErr):
		status := providerErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": providerErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
