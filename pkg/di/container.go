package di

import (
	"context"
	"fmt"
	"time"

	"feedback-insights-demo/backend/ai"
	"feedback-insights-demo/backend/internal/repository"
	"feedback-insights-demo/backend/internal/service"
	"feedback-insights-demo/backend/pkg/cache"
	"feedback-insights-demo/backend/pkg/config"
	"feedback-insights-demo/backend/pkg/health"
	"feedback-insights-demo/backend/pkg/jwt"
	"feedback-insights-demo/backend/pkg/logger"
	"feedback-insights-demo/backend/pkg/secrets"
	"feedback-insights-demo/backend/shared/redis"

	"gorm.io/gorm"
)

// Container wires the repositories, services, and supporting pieces the
// HTTP layer consumes.
type Container struct {
	DB     *gorm.DB
	Config *config.Config
	Logger *logger.Logger

	JWTService *jwt.Service
	Cache      service.Cache
	Redis      *redis.Client
	Classifier *ai.Client
	Health     *health.Checker

	FeedbackRepo repository.FeedbackRepository
	SolutionRepo repository.SolutionRepository

	FeedbackService *service.FeedbackService
	ThemingService  *service.ThemingService
	ClusterService  *service.ClusterService
	SolutionService *service.SolutionService
}

// New builds the container. The classifier API key is resolved through the
// secrets manager with the environment value as fallback; a missing key is
// an error because theming and solutions cannot run without it.
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{
		DB:     db,
		Config: cfg,
		Logger: log,
	}

	c.JWTService = jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Redis when enabled, in-process cache otherwise. Both satisfy the
	// same interface so the services never know which one they got.
	if cfg.Redis.Enabled {
		c.Redis = redis.NewClient(cfg.Redis.Addr)
		if err := c.Redis.Ping(context.Background()); err != nil {
			return nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		c.Cache = c.Redis
	} else {
		c.Cache = cache.New(time.Minute)
	}

	apiKey := secrets.GetSecretWithDefault(context.Background(), "groq-api-key", cfg.Groq.APIKey)
	classifier, err := ai.NewClient(ai.Config{
		APIKey:  apiKey,
		Model:   cfg.Groq.Model,
		BaseURL: cfg.Groq.BaseURL,
		Timeout: cfg.Groq.Timeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier client: %w", err)
	}
	c.Classifier = classifier

	c.FeedbackRepo = repository.NewGormFeedbackRepository(db)
	c.SolutionRepo = repository.NewGormSolutionRepository(db)

	c.FeedbackService = service.NewFeedbackService(c.FeedbackRepo, c.Cache, cfg.Redis.TTL, log)
	c.ThemingService = service.NewThemingService(c.FeedbackRepo, c.Classifier, c.Cache, service.ThemingServiceConfig{
		MaxAttempts:  cfg.Theming.MaxAttempts,
		Timeout:      cfg.Groq.Timeout,
		MaxBulkLimit: cfg.Theming.MaxBulkLimit,
		Workers:      cfg.Theming.BulkWorkers,
	}, log)
	c.ClusterService = service.NewClusterService(c.FeedbackRepo, log)
	c.SolutionService = service.NewSolutionService(c.SolutionRepo, c.FeedbackRepo, c.Classifier, cfg.Groq.Timeout, log)

	c.Health = health.NewChecker(log, 30*time.Second)
	c.Health.RegisterDatabaseCheck(func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})
	c.Health.RegisterClassifierCheck(func() bool { return apiKey != "" })

	return c, nil
}

// Close releases held connections.
func (c *Container) Close() error {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			return err
		}
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		return sqlDB.Close()
	}
	return nil
}
