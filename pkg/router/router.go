package router

import (
	"feedback-insights-demo/backend/internal/api"
	"feedback-insights-demo/backend/pkg/config"
	"feedback-insights-demo/backend/pkg/di"
	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/logger"
	"feedback-insights-demo/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Router assembles the gin engine and the route tree on top of the DI
// container.
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New builds the engine with the shared middleware chain: request IDs,
// request-scoped logging, the error envelope, panic recovery, and
// per-client rate limiting.
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)
	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.Recovery())

	rateLimiter := middleware.NewRateLimiter(container.Logger)
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers the v1 API surface. Everything except health
// requires a valid bearer token.
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware())

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	feedbackHandler := api.NewFeedbackHandler(r.Container.FeedbackService)
	themingHandler := api.NewThemingHandler(r.Container.ThemingService)
	clusterHandler := api.NewClusterHandler(r.Container.ClusterService)
	solutionHandler := api.NewSolutionHandler(r.Container.SolutionService)

	v1 := r.Engine.Group("/api/v1")

	r.setupHealthRoutes(v1)

	protected := v1.Group("/")
	protected.Use(jwtAuth)
	{
		feedback := protected.Group("/feedback")
		{
			feedback.POST("", feedbackHandler.Submit)
			feedback.POST("/bulk", feedbackHandler.SubmitBulk)
			feedback.GET("", feedbackHandler.List)
			feedback.GET("/pending", feedbackHandler.ListPending)
			feedback.GET("/pending/count", feedbackHandler.PendingCount)
			feedback.GET("/stats", feedbackHandler.Stats)
			feedback.POST("/:id/theme", themingHandler.ThemeOne)
			feedback.POST("/theme/bulk", themingHandler.BulkTheme)
		}

		clusters := protected.Group("/clusters")
		{
			clusters.GET("/themes", clusterHandler.ListClusters)
			clusters.GET("/themes/:theme", clusterHandler.ThemeDetail)
		}

		solutions := protected.Group("/solutions")
		{
			solutions.POST("/themes/:theme/generate", solutionHandler.Generate)
			solutions.GET("", solutionHandler.List)
			solutions.GET("/themes/:theme", solutionHandler.GetByTheme)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
