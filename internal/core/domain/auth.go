package domain

import "context"

// User is the identity record returned by the auth provider. Only the fields
// this service reads are modeled; anything else the provider returns is dropped
// at the adapter boundary.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session carries the token pair issued by the auth provider. Access and
// refresh tokens are always set together; a Session with only one of them is
// never constructed.
type Session struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access-token lifetime in seconds as reported by the
	// provider. Zero means the provider did not say; callers fall back to an
	// hour.
	ExpiresIn int
	User      User
}

// ProviderError is an error response from the identity provider that should
// surface to the client with the provider's own status and message.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// AuthProvider is the contract for the external identity service.
// Implementations live in internal/provider; the logic layer depends on this
// interface only.
type AuthProvider interface {
	// SignUp registers a new user. No session is issued (email verification
	// policies are the provider's concern).
	SignUp(ctx context.Context, email, password string) (*User, error)

	// SignInWithPassword verifies credentials and issues a token pair.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// GetUser resolves the user owning the given access token.
	GetUser(ctx context.Context, accessToken string) (*User, error)

	// RefreshSession exchanges a refresh token for a fresh token pair.
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
}
