package domain

import "context"

// ImageGenerator is the contract for the external text/image generation
// service. Both operations have deterministic fallbacks at the adapter level,
// so callers may still receive errors only when the adapter chooses to
// surface them.
type ImageGenerator interface {
	// EnhancePrompt rewrites a raw prompt into a more detailed one.
	EnhancePrompt(ctx context.Context, prompt string) (string, error)

	// GenerateImage produces PNG bytes for the prompt.
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// ObjectStore is the contract for the binary artifact store. Public URL naming
// quirks of concrete backends are normalized inside implementations.
type ObjectStore interface {
	// Upload stores data under name and returns a publicly retrievable URL.
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)

	// Remove deletes the object with the given name. Removing a missing
	// object is not an error.
	Remove(ctx context.Context, name string) error
}
