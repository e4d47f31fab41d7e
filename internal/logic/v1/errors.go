// Package v1 provides the authentication and generation business logic for
// API version 1.
//
// Error Handling:
// This package defines sentinel errors that represent the failure taxonomy.
// These errors should be wrapped with context using fmt.Errorf("%w") when
// returned from business logic methods.
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrPromptRequired):
//	    c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt required"})
//	case errors.Is(err, logicv1.ErrForbidden):
//	    c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
//	}
//
// Provider-originated failures additionally carry *domain.ProviderError, which
// preserves the upstream status code and message for the signup/login paths.
package v1

import "errors"

// Sentinel errors for authentication and generation operations.
var (
	// ErrCredentialsRequired indicates email or password was empty.
	// HTTP Status: 400 Bad Request
	ErrCredentialsRequired = errors.New("email and password are required")

	// ErrInvalidEmailFormat indicates the email does not look like an address.
	// HTTP Status: 400 Bad Request
	ErrInvalidEmailFormat = errors.New("invalid email format")

	// ErrPasswordTooShort indicates the password is under the minimum length.
	// HTTP Status: 400 Bad Request
	ErrPasswordTooShort = errors.New("password too short")

	// ErrNoSession indicates the provider accepted credentials but returned
	// no session, which should not happen.
	// HTTP Status: 500 Internal Server Error
	ErrNoSession = errors.New("no session returned")

	// ErrNotAuthenticated indicates no credentials were presented at all.
	// HTTP Status: 401 Unauthorized (no cookie mutation — nothing to clear)
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefreshFailed indicates the refresh token was rejected after the
	// access token already failed. Handlers must clear both cookies.
	// HTTP Status: 401 Unauthorized
	ErrRefreshFailed = errors.New("authentication refresh failed")

	// ErrPromptRequired indicates the generation prompt was empty.
	// HTTP Status: 400 Bad Request
	ErrPromptRequired = errors.New("prompt required")

	// ErrImageURLRequired indicates a save request carried no image URL.
	// HTTP Status: 400 Bad Request
	ErrImageURLRequired = errors.New("image url required")

	// ErrGenerationNotFound indicates the referenced record does not exist.
	// HTTP Status: 404 Not Found
	ErrGenerationNotFound = errors.New("generation not found")

	// ErrForbidden indicates the requester is not the record's owner.
	// HTTP Status: 403 Forbidden
	ErrForbidden = errors.New("forbidden")
)
