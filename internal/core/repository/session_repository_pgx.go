package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
)

// PgxSessionRepository implements domain.SessionRepository using pgxpool.
type PgxSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PgxSessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PgxSessionRepository {
	return &PgxSessionRepository{pool: pool}
}

// Create inserts a new session holding the token pair for the given user.
func (r *PgxSessionRepository) Create(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `INSERT INTO sessions (user_id, access_token, refresh_token, expires_at) VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, userID, accessToken, refreshToken, expiresAt)
	return err
}

// GetByAccessToken looks up the session by access token and returns the
// associated user data together with the session expiry time.
// Returns (nil, nil) when the token does not match any session.
func (r *PgxSessionRepository) GetByAccessToken(ctx context.Context, accessToken string) (*domain.SessionRow, error) {
	query := `
		SELECT s.id, u.id, u.email, s.refresh_token, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.access_token = $1
	`
	return r.scanSession(ctx, query, accessToken)
}

// GetByRefreshToken looks up the session by refresh token.
// Returns (nil, nil) when the token does not match any session.
func (r *PgxSessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.SessionRow, error) {
	query := `
		SELECT s.id, u.id, u.email, s.refresh_token, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.refresh_token = $1
	`
	return r.scanSession(ctx, query, refreshToken)
}

// DeleteByID removes the session, invalidating both of its tokens.
func (r *PgxSessionRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *PgxSessionRepository) scanSession(ctx context.Context, query, token string) (*domain.SessionRow, error) {
	var row domain.SessionRow
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&row.ID, &row.UserID, &row.Email, &row.RefreshToken, &row.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}
