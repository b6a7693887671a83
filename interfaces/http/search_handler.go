package http

import (
	"errors"
	"net/http"
	"strconv"

	"subtube/domain/apperror"
	"subtube/domain/dto"
	"subtube/infrastructure/logger"
	"subtube/usecase"

	"github.com/gin-gonic/gin"
)

// ISearchHandler defines the search HTTP surface.
type ISearchHandler interface {
	Search(ctx *gin.Context)
}

type SearchHandler struct {
	searchUseCase usecase.ISearchUseCase
}

func NewSearchHandler(searchUseCase usecase.ISearchUseCase) ISearchHandler {
	return &SearchHandler{searchUseCase: searchUseCase}
}

// Search handles GET /search?query=&source=&page=&seq=. The optional seq
// parameter is echoed back untouched; the page uses it to drop responses that
// arrive after a newer request has been issued.
func (h *SearchHandler) Search(ctx *gin.Context) {
	query := ctx.Query("query")
	source := ctx.DefaultQuery("source", usecase.SourceJSON)
	seq := ctx.Query("seq")

	page := 1
	if raw := ctx.Query("page"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val < 1 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return
		}
		page = val
	}

	result, err := h.searchUseCase.Search(ctx.Request.Context(), query, source, page)
	if err != nil {
		renderSearchError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSearchResponse(result, seq))
}

func renderSearchError(ctx *gin.Context, err error) {
	var invalidQuery *apperror.InvalidQueryError
	var invalidSource *apperror.InvalidSourceError
	var unavailable *apperror.BackendUnavailableError
	var rejected *apperror.BackendRequestError
	switch {
	case errors.As(err, &invalidQuery), errors.As(err, &invalidSource):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &unavailable):
		logger.GetLogger().WithField("error", err).Error("Search backend unavailable")
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &rejected):
		logger.GetLogger().WithField("error", err).Error("Search backend rejected the query")
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.GetLogger().WithField("error", err).Error("Search failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
	}
}
