package handlers

import (
	"errors"
	"net/http"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/artboards"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/backgrounds"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/dom"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/repositories"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/media"
	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, repositories.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrGenerationInProgress),
		errors.Is(err, dom.ErrFrameClosed):
		return http.StatusConflict
	case errors.Is(err, services.ErrGeneratorUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, dom.ErrInvalidStyle),
		errors.Is(err, dom.ErrInvalidQuery),
		errors.Is(err, dom.ErrReservedAttribute),
		errors.Is(err, dom.ErrInvalidAttribute),
		errors.Is(err, dom.ErrUnsafeFragment),
		errors.Is(err, artboards.ErrInvalidDevice),
		errors.Is(err, artboards.ErrInvalidName),
		errors.Is(err, backgrounds.ErrInvalidAsset),
		errors.Is(err, media.ErrEmptyImage),
		errors.Is(err, media.ErrUnsupportedImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// respondApplied answers an editor write. A nil result means the target did
// not resolve and nothing changed.
func respondApplied(c *gin.Context, key string, result any, applied bool) {
	c.JSON(http.StatusOK, gin.H{key: result, "applied": applied})
}
