package repository

import (
	"context"
	"time"

	"feedback-insights-demo/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedbackRepository is the single write path for feedback rows and their
// theming sub-state. All mutation of theme_status goes through the Mark*
// transition writers.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	CreateBatch(ctx context.Context, feedbacks []*models.Feedback) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Feedback, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Feedback, error)
	ListPending(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Feedback, error)
	CountPending(ctx context.Context, userID uuid.UUID) (int64, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
	CountToday(ctx context.Context, userID uuid.UUID) (int64, error)

	// ClaimPending atomically selects up to limit pending items with
	// attempts below maxAttempts and transitions them to processing,
	// bumping attempts and clearing the prior error. Concurrent claimants
	// skip rows already locked by each other, so no item is ever handed
	// to two callers. Items come back in oldest-created-first order.
	ClaimPending(ctx context.Context, userID uuid.UUID, maxAttempts, limit int) ([]models.Feedback, error)

	// MarkProcessing transitions one item to processing and bumps its
	// attempt counter, guarded by the attempts cap in the same statement.
	// Returns false when the cap (or ownership) rejected the transition,
	// so concurrent callers can never push attempts past the cap.
	MarkProcessing(ctx context.Context, userID, id uuid.UUID, maxAttempts int) (bool, error)
	MarkDone(ctx context.Context, userID, id uuid.UUID, analysis models.ThemeAnalysis) error
	MarkFailed(ctx context.Context, userID, id uuid.UUID, errText string) error

	CountByTheme(ctx context.Context, userID uuid.UUID) ([]models.ThemeCount, error)
	ListDoneByTheme(ctx context.Context, userID uuid.UUID, theme string, limit int) ([]models.Feedback, error)
	CountDoneByTheme(ctx context.Context, userID uuid.UUID, theme string) (int64, error)
	MessagesByTheme(ctx context.Context, userID uuid.UUID, theme string, limit int) ([]string, error)
}

type GormFeedbackRepository struct {
	db *gorm.DB
}

func NewGormFeedbackRepository(db *gorm.DB) *GormFeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

func (r *GormFeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

// CreateBatch inserts all feedbacks in one transaction; any failure rolls
// back the whole batch.
func (r *GormFeedbackRepository) CreateBatch(ctx context.Context, feedbacks []*models.Feedback) error {
	if len(feedbacks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&feedbacks).Error
	})
}

// GetByID is ownership-scoped: an id that exists but belongs to another
// user comes back as gorm.ErrRecordNotFound, indistinguishable from true
// absence.
func (r *GormFeedbackRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Feedback, error) {
	var feedback models.Feedback
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&feedback).Error
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *GormFeedbackRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&feedbacks).Error
	if feedbacks == nil {
		feedbacks = []models.Feedback{}
	}
	return feedbacks, err
}

func (r *GormFeedbackRepository) ListPending(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND theme_status = ?", userID, models.ThemeStatusPending).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&feedbacks).Error
	if feedbacks == nil {
		feedbacks = []models.Feedback{}
	}
	return feedbacks, err
}

func (r *GormFeedbackRepository) CountPending(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("user_id = ? AND theme_status = ?", userID, models.ThemeStatusPending).
		Count(&total).Error
	return total, err
}

func (r *GormFeedbackRepository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

func (r *GormFeedbackRepository) CountToday(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("user_id = ? AND created_at::date = CURRENT_DATE", userID).
		Count(&total).Error
	return total, err
}

func (r *GormFeedbackRepository) ClaimPending(ctx context.Context, userID uuid.UUID, maxAttempts, limit int) ([]models.Feedback, error) {
	var claimed []models.Feedback
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("user_id = ? AND theme_status = ? AND theme_attempts < ?",
				userID, models.ThemeStatusPending, maxAttempts).
			Order("created_at ASC").
			Limit(limit).
			Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(claimed))
		for i, f := range claimed {
			ids[i] = f.ID
		}

		now := time.Now()
		if err := tx.Model(&models.Feedback{}).
			Where("user_id = ? AND id IN ?", userID, ids).
			Updates(map[string]interface{}{
				"theme_status":     models.ThemeStatusProcessing,
				"theme_attempts":   gorm.Expr("theme_attempts + 1"),
				"theme_error":      nil,
				"theme_updated_at": now,
			}).Error; err != nil {
			return err
		}

		// Reflect the transition on the returned snapshot.
		for i := range claimed {
			claimed[i].ThemeStatus = models.ThemeStatusProcessing
			claimed[i].ThemeAttempts++
			claimed[i].ThemeError = nil
			claimed[i].ThemeUpdatedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		claimed = []models.Feedback{}
	}
	return claimed, nil
}

func (r *GormFeedbackRepository) MarkProcessing(ctx context.Context, userID, id uuid.UUID, maxAttempts int) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("id = ? AND user_id = ? AND theme_attempts < ?", id, userID, maxAttempts).
		Updates(map[string]interface{}{
			"theme_status":     models.ThemeStatusProcessing,
			"theme_attempts":   gorm.Expr("theme_attempts + 1"),
			"theme_error":      nil,
			"theme_updated_at": time.Now(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *GormFeedbackRepository) MarkDone(ctx context.Context, userID, id uuid.UUID, analysis models.ThemeAnalysis) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"theme":            analysis.Theme,
			"sentiment":        analysis.Sentiment,
			"confidence":       analysis.Confidence,
			"summary":          analysis.Summary,
			"theme_status":     models.ThemeStatusDone,
			"themed_at":        now,
			"theme_updated_at": now,
		}).Error
}

func (r *GormFeedbackRepository) MarkFailed(ctx context.Context, userID, id uuid.UUID, errText string) error {
	return r.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"theme_status":     models.ThemeStatusFailed,
			"theme_error":      errText,
			"theme_updated_at": time.Now(),
		}).Error
}

func (r *GormFeedbackRepository) CountByTheme(ctx context.Context, userID uuid.UUID) ([]models.ThemeCount, error) {
	var clusters []models.ThemeCount
	err := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Select("theme, COUNT(*) AS total").
		Where("user_id = ? AND theme_status = ? AND theme IS NOT NULL", userID, models.ThemeStatusDone).
		Group("theme").
		Order("total DESC").
		Scan(&clusters).Error
	if clusters == nil {
		clusters = []models.ThemeCount{}
	}
	return clusters, err
}

func (r *GormFeedbackRepository) ListDoneByTheme(ctx context.Context, userID uuid.UUID, theme string, limit int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND theme = ? AND theme_status = ?", userID, theme, models.ThemeStatusDone).
		Order("created_at DESC").
		Limit(limit).
		Find(&feedbacks).Error
	if feedbacks == nil {
		feedbacks = []models.Feedback{}
	}
	return feedbacks, err
}

func (r *GormFeedbackRepository) CountDoneByTheme(ctx context.Context, userID uuid.UUID, theme string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("user_id = ? AND theme = ? AND theme_status = ?", userID, theme, models.ThemeStatusDone).
		Count(&total).Error
	return total, err
}

func (r *GormFeedbackRepository) MessagesByTheme(ctx context.Context, userID uuid.UUID, theme string, limit int) ([]string, error) {
	var messages []string
	err := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("user_id = ? AND theme = ? AND theme_status = ?", userID, theme, models.ThemeStatusDone).
		Order("created_at DESC").
		Limit(limit).
		Pluck("message", &messages).Error
	if messages == nil {
		messages = []string{}
	}
	return messages, err
}
