package server

import (
	"net/http"
	"time"

	httpHandler "subtube/interfaces/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	searchHandler httpHandler.ISearchHandler,
	extractHandler httpHandler.IExtractHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:8000", "http://127.0.0.1:8000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/search", searchHandler.Search)

	api := router.Group("api")
	// Extraction requires a configured source client; without credentials the
	// server runs in search-only mode.
	if extractHandler != nil {
		api.POST("/extract", extractHandler.Extract)
	} else {
		api.POST("/extract", func(ctx *gin.Context) {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "source API credentials not configured"})
		})
	}

	return router
}
