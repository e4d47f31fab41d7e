package v1

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
	"github.com/pixelforge/imagegen-service/middleware"
)

// AuthService implements the session lifecycle business rules. It depends on
// the AuthProvider interface (injected via constructor) and never touches
// HTTP or cookies directly; handlers apply the cookie side effects this
// service reports back.
type AuthService struct {
	provider domain.AuthProvider
}

// NewAuthService creates a new AuthService with the given provider dependency.
func NewAuthService(provider domain.AuthProvider) *AuthService {
	return &AuthService{provider: provider}
}

// SignUp validates credentials and registers the user with the provider.
// No session is issued on signup.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.signup", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if err := ValidateCredentials(email, password); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, err
	}

	user, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("provider signup: %w", err)
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID),
		attribute.Bool("signup.success", true),
	)

	return user, nil
}

// Login validates credentials and exchanges them for a token pair. The caller
// sets both cookies from the returned session; tokens never travel in a
// response body.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if err := ValidateCredentials(email, password); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, err
	}

	session, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("provider password grant: %w", err)
	}
	if session == nil {
		span.RecordError(ErrNoSession)
		return nil, fmt.Errorf("login %q: %w", email, ErrNoSession)
	}

	span.SetAttributes(
		attribute.String("user.id", session.User.ID),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")

	return session, nil
}

// GetUser resolves the user owning an access token, retrying transient
// transport failures. Provider rejections (invalid token) are terminal.
func (s *AuthService) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	return WithRetry(ctx, retryAttempts, retryDelay, func(ctx context.Context) (*domain.User, error) {
		return s.provider.GetUser(ctx, accessToken)
	})
}

// ResolveIdentity runs the transparent-refresh state machine for a request
// carrying an access and/or refresh cookie.
//
// The access token is always tried first; the refresh token is consulted only
// when the access token is absent or rejected, never proactively. On a
// successful refresh the rotated session is returned so the caller re-sets
// both cookies. ErrRefreshFailed instructs the caller to clear both cookies;
// ErrNotAuthenticated means nothing was presented and nothing needs clearing.
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken, refreshToken string) (*domain.User, *domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.resolve_identity", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if accessToken != "" {
		user, err := s.GetUser(ctx, accessToken)
		if err == nil {
			span.SetAttributes(attribute.String("auth.state", "access_valid"))
			return user, nil, nil
		}
		// The access token was invalid or the lookup kept failing; fall
		// through to the refresh path.
		span.AddEvent("access_token.rejected")
	}

	if refreshToken != "" {
		session, err := s.provider.RefreshSession(ctx, refreshToken)
		if err != nil || session == nil {
			if err != nil {
				span.RecordError(err)
			}
			span.SetAttributes(attribute.String("auth.state", "refresh_invalid"))
			return nil, nil, fmt.Errorf("refresh session: %w", ErrRefreshFailed)
		}

		span.SetAttributes(
			attribute.String("auth.state", "refresh_valid"),
			attribute.String("user.id", session.User.ID),
		)
		span.AddEvent("session.rotated")
		return &session.User, session, nil
	}

	span.SetAttributes(attribute.String("auth.state", "unauthenticated"))
	return nil, nil, ErrNotAuthenticated
}
