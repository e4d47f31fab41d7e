package v1

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
	"github.com/pixelforge/imagegen-service/middleware"
)

// placeholderPNG is a 1x1 transparent PNG, base64-encoded. It substitutes for
// the generated image whenever the generator is unavailable so /generate
// never hard-fails on an upstream outage.
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mP8Xw8AAnUB9nVxS6cAAAAASUVORK5CYII="

// enhanceFallbackSuffix is appended to the original prompt when the
// enhancement call fails; enhancement is advisory and must always produce
// output.
const enhanceFallbackSuffix = ", cinematic luxury ad, glossy lighting, soft shadows"

// ImageService orchestrates the generation pipeline: enhancement, image
// generation, artifact storage and record persistence, each step independently
// fault-tolerant. Store and repo may be nil when the corresponding backend is
// unconfigured; the pipeline degrades instead of failing.
type ImageService struct {
	generator domain.ImageGenerator
	store     domain.ObjectStore
	repo      domain.GenerationRepository
}

// NewImageService creates a new ImageService. store and repo may be nil.
func NewImageService(generator domain.ImageGenerator, store domain.ObjectStore, repo domain.GenerationRepository) *ImageService {
	return &ImageService{
		generator: generator,
		store:     store,
		repo:      repo,
	}
}

// Enhance rewrites the prompt via the generator, falling back to a
// deterministic templated enhancement when the call fails.
func (s *ImageService) Enhance(ctx context.Context, prompt string) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "image.enhance", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if prompt == "" {
		return "", ErrPromptRequired
	}

	enhanced, err := s.generator.EnhancePrompt(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("enhance.fallback", true))
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Prompt enhancement failed, using templated fallback")
		return prompt + enhanceFallbackSuffix, nil
	}

	return enhanced, nil
}

// Generate runs the full pipeline for one prompt and returns a usable image
// reference. userID is empty for guest generations.
//
// Failure handling, step by step: generator down means placeholder image,
// store down means inline data URI, repository down means the record is lost
// but the response still succeeds. Only an empty prompt is a user-visible
// error.
func (s *ImageService) Generate(ctx context.Context, userID, prompt, enhancedPrompt string) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "image.generate", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Bool("request.guest", userID == ""),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	if prompt == "" {
		return "", ErrPromptRequired
	}

	imageURL := ""
	data, err := s.generator.GenerateImage(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("generate.fallback", true))
		logger.Warn().Err(err).Msg("Image generation failed, using placeholder")
		imageURL = "data:image/png;base64," + placeholderPNG
	} else {
		imageURL = s.storeImage(ctx, userID, data)
	}

	s.persistRecord(ctx, &domain.GenerationRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		OriginalPrompt: prompt,
		EnhancedPrompt: enhancedPrompt,
		ImageURL:       imageURL,
		CreatedAt:      time.Now().UTC(),
	})

	return imageURL, nil
}

// storeImage uploads real image bytes under a collision-free per-call name
// and falls back to an inline data URI when the store is unavailable.
func (s *ImageService) storeImage(ctx context.Context, userID string, data []byte) string {
	owner := userID
	if owner == "" {
		owner = "guest"
	}
	name := fmt.Sprintf("%s-%s.png", owner, uuid.NewString())

	if s.store != nil {
		url, err := s.store.Upload(ctx, name, data, "image/png")
		if err == nil {
			return url
		}
		zerolog.Ctx(ctx).Error().Err(err).Str("object", name).Msg("Object store upload failed, inlining image")
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

// persistRecord inserts the record best-effort. The image was already
// produced, so a persistence failure is logged and swallowed.
func (s *ImageService) persistRecord(ctx context.Context, rec *domain.GenerationRecord) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("generation_id", rec.ID).Msg("Failed to save generation")
	}
}

// List returns the user's generations, newest first.
func (s *ImageService) List(ctx context.Context, userID string) ([]domain.GenerationRecord, error) {
	if s.repo == nil {
		return nil, nil
	}

	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	return records, nil
}

// Delete removes a generation after verifying ownership. Both the stored
// artifact and the database row are attempted even if one fails, favoring
// eventual consistency over a strict two-phase delete.
func (s *ImageService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := middleware.StartSpan(ctx, "image.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("generation.id", id),
	))
	defer span.End()

	if s.repo == nil {
		return ErrGenerationNotFound
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch generation %q: %w", id, err)
	}
	if rec == nil {
		return fmt.Errorf("generation %q: %w", id, ErrGenerationNotFound)
	}
	if rec.UserID != userID {
		span.AddEvent("ownership.denied")
		return fmt.Errorf("generation %q: %w", id, ErrForbidden)
	}

	if name := objectName(rec.ImageURL); name != "" && s.store != nil {
		if err := s.store.Remove(ctx, name); err != nil {
			span.RecordError(err)
			zerolog.Ctx(ctx).Error().Err(err).Str("object", name).Msg("Object store removal failed")
		}
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete generation %q: %w", id, err)
	}

	return nil
}

// Save persists an already-generated image reference without re-invoking the
// generator. Returns a human-readable status message; an unconfigured
// persistence backend is an explicit no-op, not an error.
func (s *ImageService) Save(ctx context.Context, userID, prompt, enhancedPrompt, imageURL string) (string, error) {
	if imageURL == "" {
		return "", ErrImageURLRequired
	}

	if s.repo == nil {
		return "Persistence not configured; skipping save.", nil
	}

	rec := &domain.GenerationRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		OriginalPrompt: prompt,
		EnhancedPrompt: enhancedPrompt,
		ImageURL:       imageURL,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return "", fmt.Errorf("save generation: %w", err)
	}

	return "Saved", nil
}

// objectName extracts the trailing path segment of a stored URL. Inline data
// URIs have no backing object.
func objectName(imageURL string) string {
	if imageURL == "" || strings.HasPrefix(imageURL, "data:") {
		return ""
	}
	if i := strings.LastIndex(imageURL, "/"); i >= 0 {
		return imageURL[i+1:]
	}
	return imageURL
}
