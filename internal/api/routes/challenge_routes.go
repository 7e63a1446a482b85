package routes

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/nutripace/backend/internal/api/handlers"
	"github.com/nutripace/backend/internal/api/middleware"
)

type ChallengeRoutes struct {
	handler   *handlers.ChallengeHandler
	jwtSecret string
}

func NewChallengeRoutes(handler *handlers.ChallengeHandler, jwtSecret string) *ChallengeRoutes {
	return &ChallengeRoutes{
		handler:   handler,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers all challenge-related routes
func (r *ChallengeRoutes) RegisterRoutes(router *gin.Engine, cache *middleware.CacheMiddleware) {
	challenges := router.Group("/api/challenges")
	challenges.Use(middleware.NewAuthMiddleware(r.jwtSecret))

	// List routes first so they are not shadowed by /:id
	challenges.GET("", cache.CacheResponse(), gzip.Gzip(gzip.DefaultCompression), r.handler.ListChallenges)
	challenges.POST("", cache.CacheInvalidate("challenges:*"), r.handler.CreateChallenge)
	challenges.GET("/active", cache.CacheResponse(), gzip.Gzip(gzip.DefaultCompression), r.handler.ListActiveChallenges)

	// Checklist items
	challenges.PATCH("/items/:id", cache.CacheInvalidate("challenges:*"), r.handler.ToggleItem)

	// CRUD operations with parameters
	challenges.GET("/:id", cache.CacheResponse(), gzip.Gzip(gzip.DefaultCompression), r.handler.GetChallenge)
	challenges.PUT("/:id", cache.CacheInvalidate("challenges:*"), r.handler.UpdateChallenge)
	challenges.DELETE("/:id", cache.CacheInvalidate("challenges:*"), r.handler.DeleteChallenge)

	// Lifecycle and evaluation
	challenges.POST("/:id/complete", cache.CacheInvalidate("challenges:*"), r.handler.CompleteChallenge)
	challenges.POST("/:id/logs", cache.CacheInvalidate("challenges:*"), r.handler.RecordDailyLog)
}
