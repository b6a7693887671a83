package http

import (
	"errors"
	"net/http"

	"subtube/domain/apperror"
	"subtube/infrastructure/logger"
	"subtube/usecase"

	"github.com/gin-gonic/gin"
)

// IExtractHandler triggers extraction runs over HTTP.
type IExtractHandler interface {
	Extract(ctx *gin.Context)
}

type ExtractHandler struct {
	extractionUseCase usecase.IExtractionUseCase
}

func NewExtractHandler(extractionUseCase usecase.IExtractionUseCase) IExtractHandler {
	return &ExtractHandler{extractionUseCase: extractionUseCase}
}

// Extract handles POST /api/extract and blocks until the run finishes.
func (h *ExtractHandler) Extract(ctx *gin.Context) {
	summary, err := h.extractionUseCase.Run(ctx.Request.Context())
	if err != nil {
		var auth *apperror.AuthError
		var limited *apperror.RateLimitError
		switch {
		case errors.As(err, &auth):
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.As(err, &limited):
			ctx.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		default:
			logger.GetLogger().WithField("error", err).Error("Extraction run failed")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}
