package domain

import "context"

// UserRow represents a user record returned from the database.
// It includes the password hash so the local identity provider can verify
// credentials.
type UserRow struct {
	ID           string
	Email        string
	PasswordHash string
}

// UserRepository defines the data-access contract for user operations backing
// the self-hosted identity provider. Implementations live in
// internal/core/repository; callers depend on this interface only, never on
// SQL or pgx directly.
type UserRepository interface {
	// GetByEmail returns the user matching the given email.
	// Returns (nil, nil) when no user is found.
	GetByEmail(ctx context.Context, email string) (*UserRow, error)

	// ExistsByEmail returns true when a user with the given email already
	// exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create inserts a new user and returns the generated user ID.
	Create(ctx context.Context, email, passwordHash string) (string, error)

	// UpdateLastLogin sets the last_login timestamp to now for the given user.
	UpdateLastLogin(ctx context.Context, userID string) error
}
