package domain

import (
	"context"
	"time"
)

// GenerationRecord is a persisted image generation. UserID is empty for guest
// generations and immutable once written; records are never updated in place.
type GenerationRecord struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"`
	OriginalPrompt string    `json:"original_prompt"`
	EnhancedPrompt string    `json:"enhanced_prompt,omitempty"`
	ImageURL       string    `json:"image_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// GenerationRepository defines the data-access contract for generation
// records. Implementations live in internal/core/repository.
type GenerationRepository interface {
	// Insert persists a new record.
	Insert(ctx context.Context, rec *GenerationRecord) error

	// ListByUser returns the user's records, newest first.
	ListByUser(ctx context.Context, userID string) ([]GenerationRecord, error)

	// GetByID returns the record with the given id.
	// Returns (nil, nil) when no record is found.
	GetByID(ctx context.Context, id string) (*GenerationRecord, error)

	// DeleteByID removes the record with the given id.
	DeleteByID(ctx context.Context, id string) error
}
