package domain

import (
	"context"
	"time"
)

// SessionRow represents a token session joined with its owner user, returned
// by session lookup queries of the local identity provider.
type SessionRow struct {
	ID           string
	UserID       string
	Email        string
	RefreshToken string
	ExpiresAt    time.Time
}

// SessionRepository defines the data-access contract for token sessions of
// the local identity provider. Implementations live in
// internal/core/repository.
type SessionRepository interface {
	// Create inserts a new session holding the token pair for the given user.
	Create(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error

	// GetByAccessToken looks up the session by access token and returns the
	// associated user data together with the session expiry time.
	// Returns (nil, nil) when the token does not match any session.
	GetByAccessToken(ctx context.Context, accessToken string) (*SessionRow, error)

	// GetByRefreshToken looks up the session by refresh token.
	// Returns (nil, nil) when the token does not match any session.
	GetByRefreshToken(ctx context.Context, refreshToken string) (*SessionRow, error)

	// DeleteByID removes the session, invalidating both of its tokens.
	DeleteByID(ctx context.Context, id string) error
}
