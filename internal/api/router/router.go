package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ytget/ytinfo/internal/api/handlers"
	"github.com/ytget/ytinfo/internal/api/middleware"
)

type Options struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// New wires the API routes onto a fresh gin engine. Background work started
// for the routes stops when ctx is done.
func New(ctx context.Context, opts Options, resolve *handlers.ResolveHandler, health *handlers.HealthHandler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationID())

	engine.GET("/health", health.Health)
	engine.GET("/live", health.Liveness)

	api := engine.Group("/api/v1")
	api.Use(middleware.RateLimit(ctx, opts.RateLimitRequests, opts.RateLimitWindow))
	{
		api.GET("/resolve", resolve.Resolve)
	}
	return engine
}
