package service

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"strings"
	"time"

	"feedback-insights-demo/backend/internal/models"
	"feedback-insights-demo/backend/internal/repository"
	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeedbackService handles feedback intake and read paths. Hot count
// endpoints go through the cache; intake invalidates the affected keys.
type FeedbackService struct {
	repo     repository.FeedbackRepository
	cache    Cache
	cacheTTL time.Duration
	log      *logger.Logger
}

func NewFeedbackService(repo repository.FeedbackRepository, cache Cache, cacheTTL time.Duration, log *logger.Logger) *FeedbackService {
	return &FeedbackService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func validateMessage(msg string) error {
	if msg == "" {
		return errors.NewBadRequestError(errors.CodeValidation, "Feedback message is required.")
	}
	if len(msg) > models.MaxMessageLength {
		return errors.NewBadRequestError(errors.CodeValidation,
			fmt.Sprintf("Feedback must be under %d characters.", models.MaxMessageLength))
	}
	return nil
}

// Submit stores one feedback item in the pending state.
func (s *FeedbackService) Submit(ctx context.Context, userID uuid.UUID, message string) (*models.Feedback, error) {
	clean := strings.TrimSpace(message)
	if err := validateMessage(clean); err != nil {
		return nil, err
	}

	feedback := &models.Feedback{
		UserID:      userID,
		Message:     clean,
		ThemeStatus: models.ThemeStatusPending,
	}
	if err := s.repo.Create(ctx, feedback); err != nil {
		s.log.LogError(err, "failed to store feedback", "user_id", userID)
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to store feedback.")
	}

	s.invalidateCounts(ctx, userID)
	return feedback, nil
}

// SubmitBulk stores up to MaxBulkCount feedback items atomically. Blank
// entries are dropped before validation; any remaining invalid message
// fails the whole batch.
func (s *FeedbackService) SubmitBulk(ctx context.Context, userID uuid.UUID, messages []string) ([]*models.Feedback, error) {
	cleaned := make([]string, 0, len(messages))
	for _, m := range messages {
		if t := strings.TrimSpace(m); t != "" {
			cleaned = append(cleaned, t)
		}
	}

	if len(cleaned) == 0 {
		return nil, errors.NewBadRequestError(errors.CodeValidation, "At least one feedback message is required.")
	}
	if len(cleaned) > models.MaxBulkCount {
		return nil, errors.NewBadRequestError(errors.CodeValidation,
			fmt.Sprintf("Maximum %d feedbacks allowed.", models.MaxBulkCount))
	}
	for _, msg := range cleaned {
		if err := validateMessage(msg); err != nil {
			return nil, err
		}
	}

	feedbacks := make([]*models.Feedback, len(cleaned))
	for i, msg := range cleaned {
		feedbacks[i] = &models.Feedback{
			UserID:      userID,
			Message:     msg,
			ThemeStatus: models.ThemeStatusPending,
		}
	}

	if err := s.repo.CreateBatch(ctx, feedbacks); err != nil {
		s.log.LogError(err, "failed to store bulk feedback", "user_id", userID, "count", len(feedbacks))
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to store feedback.")
	}

	s.invalidateCounts(ctx, userID)
	return feedbacks, nil
}

// PageParams clamps client paging input.
func PageParams(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

func (s *FeedbackService) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Feedback, int, int, error) {
	page, limit, offset := PageParams(page, limit)
	feedbacks, err := s.repo.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, page, limit, errors.NewInternalServerError(errors.CodeInternal, "Failed to fetch feedbacks.")
	}
	return feedbacks, page, limit, nil
}

func (s *FeedbackService) ListPending(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Feedback, int, int, error) {
	page, limit, offset := PageParams(page, limit)
	feedbacks, err := s.repo.ListPending(ctx, userID, limit, offset)
	if err != nil {
		return nil, page, limit, errors.NewInternalServerError(errors.CodeInternal, "Failed to fetch pending feedbacks.")
	}
	return feedbacks, page, limit, nil
}

// GetByID returns an owner-scoped item; cross-user ids look absent.
func (s *FeedbackService) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Feedback, error) {
	feedback, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(errors.CodeFeedbackNotFound, "Feedback not found or access denied.")
		}
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to fetch feedback.")
	}
	return feedback, nil
}

// PendingCount returns the user's pending-item count, served from cache
// when fresh.
func (s *FeedbackService) PendingCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := pendingCountKey(userID)
	if cached, ok := s.cache.Get(ctx, key); ok {
		var total int64
		if err := json.Unmarshal([]byte(cached), &total); err == nil {
			return total, nil
		}
	}

	total, err := s.repo.CountPending(ctx, userID)
	if err != nil {
		return 0, errors.NewInternalServerError(errors.CodeInternal, "Failed to count pending feedbacks.")
	}

	if encoded, err := json.Marshal(total); err == nil {
		s.cache.Set(ctx, key, string(encoded), s.cacheTTL)
	}
	return total, nil
}

// Stats returns total and today intake counts, cached.
func (s *FeedbackService) Stats(ctx context.Context, userID uuid.UUID) (*models.FeedbackStats, error) {
	key := statsKey(userID)
	if cached, ok := s.cache.Get(ctx, key); ok {
		var stats models.FeedbackStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
	}

	total, err := s.repo.Count(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to compute feedback stats.")
	}
	today, err := s.repo.CountToday(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to compute feedback stats.")
	}

	stats := &models.FeedbackStats{Total: total, Today: today}
	if encoded, err := json.Marshal(stats); err == nil {
		s.cache.Set(ctx, key, string(encoded), s.cacheTTL)
	}
	return stats, nil
}

func (s *FeedbackService) invalidateCounts(ctx context.Context, userID uuid.UUID) {
	s.cache.Del(ctx, pendingCountKey(userID), statsKey(userID))
}

func pendingCountKey(userID uuid.UUID) string {
	return "feedback:pending_count:" + userID.String()
}

func statsKey(userID uuid.UUID) string {
	return "feedback:stats:" + userID.String()
}
