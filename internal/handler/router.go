package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cinerag/cinerag/internal/middleware"
)

type RouterDeps struct {
	Chat            *ChatHandler
	Movies          *MovieHandler
	Admin           *AdminHandler
	JWTSecret       []byte
	RateLimitWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	// Routes that trigger paid embedding/completion calls get a per-caller
	// rate limit.
	api.POST("/chat/ask", middleware.RateLimit(deps.RateLimitWindow), deps.Chat.Ask)
	api.GET("/chat/history", deps.Chat.History)

	api.GET("/movies", deps.Movies.List)
	api.GET("/movies/search", deps.Movies.Search)
	api.GET("/movies/count", deps.Movies.Count)
	api.GET("/movies/:id", deps.Movies.Get)

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	adminGroup.POST("/load", middleware.RateLimit(deps.RateLimitWindow), deps.Admin.Load)
	adminGroup.GET("/stats", deps.Admin.Stats)
	adminGroup.POST("/embed-cache/cleanup", deps.Admin.CleanupEmbedCache)
}
