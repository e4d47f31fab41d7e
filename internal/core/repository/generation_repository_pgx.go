package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
)

// PgxGenerationRepository implements domain.GenerationRepository using pgxpool.
type PgxGenerationRepository struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository creates a new PgxGenerationRepository.
func NewGenerationRepository(pool *pgxpool.Pool) *PgxGenerationRepository {
	return &PgxGenerationRepository{pool: pool}
}

// Insert persists a new generation record. A NULL user_id marks a guest
// generation.
func (r *PgxGenerationRepository) Insert(ctx context.Context, rec *domain.GenerationRecord) error {
	query := `
		INSERT INTO generations (id, user_id, original_prompt, enhanced_prompt, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		nullIfEmpty(rec.UserID),
		rec.OriginalPrompt,
		nullIfEmpty(rec.EnhancedPrompt),
		rec.ImageURL,
		rec.CreatedAt,
	)
	return err
}

// ListByUser returns the user's records, newest first.
func (r *PgxGenerationRepository) ListByUser(ctx context.Context, userID string) ([]domain.GenerationRecord, error) {
	query := `
		SELECT id, user_id, original_prompt, enhanced_prompt, image_url, created_at
		FROM generations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.GenerationRecord
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// GetByID returns the record with the given id.
// Returns (nil, nil) when no record is found.
func (r *PgxGenerationRepository) GetByID(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	query := `
		SELECT id, user_id, original_prompt, enhanced_prompt, image_url, created_at
		FROM generations
		WHERE id = $1
	`

	rec, err := scanGeneration(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return rec, nil
}

// DeleteByID removes the record with the given id.
func (r *PgxGenerationRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM generations WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func scanGeneration(row pgx.Row) (*domain.GenerationRecord, error) {
	var rec domain.GenerationRecord
	var userID, enhanced *string

	err := row.Scan(&rec.ID, &userID, &rec.OriginalPrompt, &enhanced, &rec.ImageURL, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if userID != nil {
		rec.UserID = *userID
	}
	if enhanced != nil {
		rec.EnhancedPrompt = *enhanced
	}

	return &rec, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
