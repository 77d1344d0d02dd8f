package service

import (
	"context"

	"feedback-insights-demo/backend/internal/models"
	"feedback-insights-demo/backend/internal/repository"
	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/logger"

	"github.com/google/uuid"
)

// ThemeDetail is one theme cluster with its most recent items.
type ThemeDetail struct {
	Theme     string            `json:"theme"`
	Total     int64             `json:"total"`
	Limit     int               `json:"limit"`
	Feedbacks []models.Feedback `json:"feedbacks"`
}

// ClusterService serves the derived theme-cluster views. Clusters are
// recomputed on every read, never persisted.
type ClusterService struct {
	repo repository.FeedbackRepository
	log  *logger.Logger
}

func NewClusterService(repo repository.FeedbackRepository, log *logger.Logger) *ClusterService {
	return &ClusterService{repo: repo, log: log}
}

// ListClusters returns the user's theme clusters, largest first.
func (s *ClusterService) ListClusters(ctx context.Context, userID uuid.UUID) ([]models.ThemeCount, error) {
	clusters, err := s.repo.CountByTheme(ctx, userID)
	if err != nil {
		s.log.LogError(err, "failed to compute theme clusters", "user_id", userID)
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to fetch clusters.")
	}
	return clusters, nil
}

// ThemeDetail returns the done items behind one cluster, newest first.
func (s *ClusterService) ThemeDetail(ctx context.Context, userID uuid.UUID, rawTheme string, limit int) (*ThemeDetail, error) {
	theme, err := NormalizeTheme(rawTheme)
	if err != nil {
		return nil, err
	}

	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := s.repo.CountDoneByTheme(ctx, userID, theme)
	if err != nil {
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to fetch theme feedbacks.")
	}
	feedbacks, err := s.repo.ListDoneByTheme(ctx, userID, theme, limit)
	if err != nil {
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to fetch theme feedbacks.")
	}

	return &ThemeDetail{
		Theme:     theme,
		Total:     total,
		Limit:     limit,
		Feedbacks: feedbacks,
	}, nil
}
