package service

import (
	"context"
	"time"

	"feedback-insights-demo/backend/ai"
)

// Classifier is the external text-classification capability the pipeline
// depends on. Implemented by ai.Client; substituted in tests.
type Classifier interface {
	ClassifyTheme(ctx context.Context, message string) (*ai.ThemingResult, error)
	GenerateSolution(ctx context.Context, theme string, messages []string) (*ai.SolutionPlan, error)
}

// Cache is the read-through cache behind the hot count endpoints.
// Implemented by shared/redis and by the in-memory pkg/cache fallback.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
	Del(ctx context.Context, keys ...string)
}
