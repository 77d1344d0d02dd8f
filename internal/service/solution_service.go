package service

import (
	"context"
	goerrors "errors"
	"time"

	"feedback-insights-demo/backend/internal/models"
	"feedback-insights-demo/backend/internal/repository"
	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	minSolutionLimit     = 5
	maxSolutionLimit     = 50
	defaultSolutionLimit = 25
)

// SolutionResult is a generation response: the plan plus whether it was
// served from cache.
type SolutionResult struct {
	Cached   bool
	Solution *models.ClusterSolution
}

// SolutionService maintains the cached remediation plan per (user, theme)
// pair.
type SolutionService struct {
	solutions  repository.SolutionRepository
	feedbacks  repository.FeedbackRepository
	classifier Classifier
	timeout    time.Duration
	log        *logger.Logger
}

func NewSolutionService(
	solutions repository.SolutionRepository,
	feedbacks repository.FeedbackRepository,
	classifier Classifier,
	timeout time.Duration,
	log *logger.Logger,
) *SolutionService {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &SolutionService{
		solutions:  solutions,
		feedbacks:  feedbacks,
		classifier: classifier,
		timeout:    timeout,
		log:        log,
	}
}

// Generate produces (or returns the cached) solution plan for a theme.
// The atomic lock-and-check phase lives in the repository; the slow
// classifier call runs after the lock is released. Any failure past the
// claim leaves the row in the failed state, recoverable by a later
// attempt.
func (s *SolutionService) Generate(ctx context.Context, userID uuid.UUID, rawTheme string, limit int, force bool) (*SolutionResult, error) {
	theme, err := NormalizeTheme(rawTheme)
	if err != nil {
		return nil, err
	}

	if limit == 0 {
		limit = defaultSolutionLimit
	}
	if limit < minSolutionLimit {
		limit = minSolutionLimit
	}
	if limit > maxSolutionLimit {
		limit = maxSolutionLimit
	}

	start, err := s.solutions.BeginGeneration(ctx, userID, theme, force)
	if err != nil {
		if goerrors.Is(err, repository.ErrNoThemedFeedback) {
			return nil, errors.NewNotFoundError(errors.CodeNoFeedbackForTheme, "No feedback found for this theme.")
		}
		s.log.LogError(err, "solution generation claim failed", "theme", theme)
		return nil, errors.NewInternalServerError(errors.CodeSolutionFailed, "Failed to generate solution.")
	}

	if start.Cached {
		solutionGenerations.WithLabelValues("cached").Inc()
		return &SolutionResult{Cached: true, Solution: &start.Solution}, nil
	}

	solution, err := s.generateFresh(ctx, userID, theme, limit, start.LatestFeedbackAt)
	if err != nil {
		solutionGenerations.WithLabelValues("failed").Inc()
		if failErr := s.solutions.FailGeneration(context.WithoutCancel(ctx), userID, theme); failErr != nil {
			s.log.LogError(failErr, "failed to mark solution generation failed", "theme", theme)
		}
		return nil, err
	}

	solutionGenerations.WithLabelValues("generated").Inc()
	return &SolutionResult{Cached: false, Solution: solution}, nil
}

func (s *SolutionService) generateFresh(ctx context.Context, userID uuid.UUID, theme string, limit int, latestFeedbackAt time.Time) (*models.ClusterSolution, error) {
	messages, err := s.feedbacks.MessagesByTheme(ctx, userID, theme, limit)
	if err != nil || len(messages) == 0 {
		return nil, errors.NewInternalServerError(errors.CodeSolutionFailed, "Failed to generate solution.")
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	plan, err := s.classifier.GenerateSolution(cctx, theme, messages)
	if err != nil {
		s.log.LogError(err, "solution generation failed", "theme", theme)
		return nil, errors.NewInternalServerError(errors.CodeSolutionFailed, "Failed to generate solution.")
	}

	total, err := s.feedbacks.CountDoneByTheme(ctx, userID, theme)
	if err != nil {
		return nil, errors.NewInternalServerError(errors.CodeSolutionFailed, "Failed to generate solution.")
	}

	solution, err := s.solutions.CompleteGeneration(context.WithoutCancel(ctx), userID, theme, repository.SolutionContent{
		TotalFeedbacks:  int(total),
		SolutionSummary: plan.SolutionSummary,
		RootCause:       plan.RootCause,
		QuickFix:        plan.QuickFix,
		LongTermFix:     plan.LongTermFix,
		ActionSteps:     plan.ActionSteps,
		Priority:        plan.Priority,
		Confidence:      plan.Confidence,
		LastFeedbackAt:  latestFeedbackAt,
	})
	if err != nil {
		return nil, errors.NewInternalServerError(errors.CodeSolutionFailed, "Failed to generate solution.")
	}
	return solution, nil
}

// List returns all of the user's solution records, most recently updated
// first.
func (s *SolutionService) List(ctx context.Context, userID uuid.UUID) ([]models.ClusterSolution, error) {
	solutions, err := s.solutions.List(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to fetch solutions.")
	}
	return solutions, nil
}

// GetByTheme returns one solution record; absence is a plain not-found.
func (s *SolutionService) GetByTheme(ctx context.Context, userID uuid.UUID, rawTheme string) (*models.ClusterSolution, error) {
	theme, err := NormalizeTheme(rawTheme)
	if err != nil {
		return nil, err
	}

	solution, err := s.solutions.GetByTheme(ctx, userID, theme)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(errors.CodeSolutionNotFound, "Solution not found.")
		}
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to fetch solution.")
	}
	return solution, nil
}
