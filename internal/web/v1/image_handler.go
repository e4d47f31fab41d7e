package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
	logicv1 "github.com/pixelforge/imagegen-service/internal/logic/v1"
	"github.com/pixelforge/imagegen-service/middleware"
)

// ImageHandler groups the HTTP handlers for prompt enhancement and the
// generation pipeline.
type ImageHandler struct {
	images *logicv1.ImageService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images *logicv1.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// RegisterRoutes registers the enhancement and generation routes. The
// generate endpoint allows guests; list, save and delete require identity.
func (h *ImageHandler) RegisterRoutes(rg *gin.RouterGroup, auth middleware.UserResolver) {
	rg.POST("/enhance", h.Enhance)

	gen := rg.Group("/generate")
	gen.POST("", middleware.OptionalAuth(auth), h.Generate)
	gen.POST("/save", middleware.RequireAuth(auth), h.Save)
	gen.GET("/generations", middleware.RequireAuth(auth), h.List)
	gen.DELETE("/generations/:id", middleware.RequireAuth(auth), h.Delete)
}

type enhanceRequest struct {
	Prompt string `json:"prompt"`
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	EnhancedPrompt string `json:"enhancedPrompt"`
}

type saveRequest struct {
	Prompt         string `json:"prompt"`
	EnhancedPrompt string `json:"enhancedPrompt"`
	ImageURL       string `json:"imageUrl"`
}

// Enhance handles POST /enhance. Public; always produces an enhancement, the
// service falls back to a templated one when the generator is down.
func (h *ImageHandler) Enhance(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enhanced, err := h.images.Enhance(ctx, req.Prompt)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, logicv1.ErrPromptRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enhance prompt"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enhancedPrompt": enhanced})
}

// Generate handles POST /generate. Runs behind optional auth: guests get
// unattributed generations.
func (h *ImageHandler) Generate(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := ""
	if user, ok := middleware.UserFromContext(c); ok {
		userID = user.ID
	}

	imageURL, err := h.images.Generate(ctx, userID, req.Prompt, req.EnhancedPrompt)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, logicv1.ErrPromptRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt required"})
			return
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("Generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Image generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imageUrl": imageURL})
}

// Save handles POST /generate/save for images generated outside this
// pipeline.
func (h *ImageHandler) Save(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := ""
	if user, ok := middleware.UserFromContext(c); ok {
		userID = user.ID
	}

	message, err := h.images.Save(ctx, userID, req.Prompt, req.EnhancedPrompt, req.ImageURL)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, logicv1.ErrImageURLRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "imageUrl required"})
			return
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("Save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save generation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// List handles GET /generate/generations for the authenticated user.
func (h *ImageHandler) List(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	records, err := h.images.List(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Msg("List generations failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch generations"})
		return
	}

	if records == nil {
		records = []domain.GenerationRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"generations": records})
}

// Delete handles DELETE /generate/generations/:id with an ownership check.
func (h *ImageHandler) Delete(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.images.Delete(ctx, user.ID, c.Param("id"))
	if err != nil {
		span.RecordError(err)

		switch {
		case errors.Is(err, logicv1.ErrGenerationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
		case errors.Is(err, logicv1.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		default:
			zerolog.Ctx(ctx).Error().Err(err).Msg("Delete generation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete generation"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}
