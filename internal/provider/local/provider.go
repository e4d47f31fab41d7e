// Package local implements domain.AuthProvider on top of Postgres, used when
// no external identity service is configured. Tokens are opaque random
// strings persisted in the sessions table; refreshing rotates the whole
// session so the previous access token stops being accepted.
package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
)

const (
	accessTokenTTL = time.Hour
	// Sessions stay resolvable by refresh token well past access expiry.
	refreshTokenTTL = 30 * 24 * time.Hour
)

// Provider implements domain.AuthProvider with bcrypt credential verification.
type Provider struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
}

// New creates a Provider with the given repository dependencies.
func New(users domain.UserRepository, sessions domain.SessionRepository) *Provider {
	return &Provider{users: users, sessions: sessions}
}

// SignUp registers a new user.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	exists, err := p.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, &domain.ProviderError{Status: http.StatusBadRequest, Message: "User already registered"}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := p.users.Create(ctx, email, string(passwordHash))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &domain.User{ID: userID, Email: email}, nil
}

// SignInWithPassword verifies credentials and issues a token pair.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	row, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if row == nil {
		// Don't reveal whether the user exists.
		return nil, &domain.ProviderError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, &domain.ProviderError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	}

	// Best-effort, don't fail the login.
	_ = p.users.UpdateLastLogin(ctx, row.ID)

	return p.issueSession(ctx, domain.User{ID: row.ID, Email: row.Email})
}

// GetUser resolves the user owning the given access token.
func (p *Provider) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	row, err := p.sessions.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	if row == nil {
		return nil, &domain.ProviderError{Status: http.StatusUnauthorized, Message: "invalid token"}
	}
	if time.Now().After(row.ExpiresAt) {
		return nil, &domain.ProviderError{Status: http.StatusUnauthorized, Message: "token expired"}
	}

	return &domain.User{ID: row.UserID, Email: row.Email}, nil
}

// RefreshSession exchanges a refresh token for a fresh token pair. The old
// session is deleted first; its access token is no longer accepted afterwards.
func (p *Provider) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	row, err := p.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	if row == nil {
		return nil, &domain.ProviderError{Status: http.StatusUnauthorized, Message: "Invalid Refresh Token"}
	}
	if time.Since(row.ExpiresAt) > refreshTokenTTL-accessTokenTTL {
		return nil, &domain.ProviderError{Status: http.StatusUnauthorized, Message: "Refresh Token Expired"}
	}

	if err := p.sessions.DeleteByID(ctx, row.ID); err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	return p.issueSession(ctx, domain.User{ID: row.UserID, Email: row.Email})
}

func (p *Provider) issueSession(ctx context.Context, user domain.User) (*domain.Session, error) {
	accessToken := newToken()
	refreshToken := newToken()

	expiresAt := time.Now().Add(accessTokenTTL)
	if err := p.sessions.Create(ctx, user.ID, accessToken, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &domain.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
		User:         user,
	}, nil
}

func newToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
