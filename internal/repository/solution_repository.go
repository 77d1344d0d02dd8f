package repository

import (
	"context"
	"errors"
	"time"

	"feedback-insights-demo/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoThemedFeedback is returned by BeginGeneration when the theme has no
// done-status feedback; no ClusterSolution row survives in that case.
var ErrNoThemedFeedback = errors.New("no themed feedback exists for this theme")

// GenerationStart is the locked snapshot taken at the start of a solution
// generation request.
type GenerationStart struct {
	// Solution is the row as it stood under the lock (freshly created when
	// the pair had no row yet).
	Solution models.ClusterSolution
	// LatestFeedbackAt is the newest done-feedback creation time for the
	// theme, computed inside the same transaction.
	LatestFeedbackAt time.Time
	// Cached is true when the existing content is still fresh and can be
	// returned without regeneration. The row's status is left untouched on
	// this path.
	Cached bool
}

// SolutionContent carries the generated plan plus the bookkeeping written
// on successful generation.
type SolutionContent struct {
	TotalFeedbacks  int
	SolutionSummary string
	RootCause       string
	QuickFix        string
	LongTermFix     string
	ActionSteps     []string
	Priority        string
	Confidence      float64
	LastFeedbackAt  time.Time
}

// SolutionRepository owns the cluster_solutions table. BeginGeneration /
// CompleteGeneration / FailGeneration implement the lock-check-generate
// protocol: the row lock is held only for the staleness check, never
// across the slow external call.
type SolutionRepository interface {
	BeginGeneration(ctx context.Context, userID uuid.UUID, theme string, force bool) (*GenerationStart, error)
	CompleteGeneration(ctx context.Context, userID uuid.UUID, theme string, content SolutionContent) (*models.ClusterSolution, error)
	FailGeneration(ctx context.Context, userID uuid.UUID, theme string) error
	List(ctx context.Context, userID uuid.UUID) ([]models.ClusterSolution, error)
	GetByTheme(ctx context.Context, userID uuid.UUID, theme string) (*models.ClusterSolution, error)
}

type GormSolutionRepository struct {
	db *gorm.DB
}

func NewGormSolutionRepository(db *gorm.DB) *GormSolutionRepository {
	return &GormSolutionRepository{db: db}
}

// BeginGeneration runs the atomic lock-and-check phase. Within one
// transaction it locks (or creates) the (user, theme) row, computes the
// newest themed-feedback timestamp, and decides between the cached and
// regenerate paths. Two concurrent generations for the same pair serialize
// on the row lock, so only one observes a stale cache and proceeds.
func (r *GormSolutionRepository) BeginGeneration(ctx context.Context, userID uuid.UUID, theme string, force bool) (*GenerationStart, error) {
	var start GenerationStart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ClusterSolution
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND theme = ?", userID, theme).
			First(&existing).Error
		created := false
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
		} else if err != nil {
			return err
		}

		var latest *time.Time
		if err := tx.Model(&models.Feedback{}).
			Select("MAX(created_at)").
			Where("user_id = ? AND theme = ? AND theme_status = ?", userID, theme, models.ThemeStatusDone).
			Scan(&latest).Error; err != nil {
			return err
		}
		// Rolling back here also undoes any row we would have created, so
		// a ClusterSolution never exists without at least one themed item.
		if latest == nil {
			return ErrNoThemedFeedback
		}
		start.LatestFeedbackAt = *latest

		if created {
			existing = models.ClusterSolution{
				UserID: userID,
				Theme:  theme,
				Status: models.SolutionStatusProcessing,
			}
			if err := tx.Create(&existing).Error; err != nil {
				return err
			}
			start.Solution = existing
			return nil
		}

		if !force && !existing.Stale(*latest) {
			// Cache hit: content is returned as-is and status is not
			// mutated, so a cached read never strands the row in
			// "processing".
			start.Cached = true
			start.Solution = existing
			return nil
		}

		if err := tx.Model(&models.ClusterSolution{}).
			Where("user_id = ? AND theme = ?", userID, theme).
			Updates(map[string]interface{}{
				"status":     models.SolutionStatusProcessing,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}
		existing.Status = models.SolutionStatusProcessing
		start.Solution = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &start, nil
}

func (r *GormSolutionRepository) CompleteGeneration(ctx context.Context, userID uuid.UUID, theme string, content SolutionContent) (*models.ClusterSolution, error) {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.ClusterSolution{}).
		Where("user_id = ? AND theme = ?", userID, theme).
		Updates(map[string]interface{}{
			"total_feedbacks":   content.TotalFeedbacks,
			"solution_summary":  content.SolutionSummary,
			"root_cause":        content.RootCause,
			"quick_fix":         content.QuickFix,
			"long_term_fix":     content.LongTermFix,
			"action_steps":      models.ActionSteps(content.ActionSteps),
			"priority":          content.Priority,
			"confidence":        content.Confidence,
			"last_generated_at": now,
			"last_feedback_at":  content.LastFeedbackAt,
			"status":            models.SolutionStatusIdle,
			"updated_at":        now,
		}).Error
	if err != nil {
		return nil, err
	}
	return r.GetByTheme(ctx, userID, theme)
}

// FailGeneration marks the row failed but keeps it recoverable for a
// future attempt.
func (r *GormSolutionRepository) FailGeneration(ctx context.Context, userID uuid.UUID, theme string) error {
	return r.db.WithContext(ctx).Model(&models.ClusterSolution{}).
		Where("user_id = ? AND theme = ?", userID, theme).
		Updates(map[string]interface{}{
			"status":     models.SolutionStatusFailed,
			"updated_at": time.Now(),
		}).Error
}

func (r *GormSolutionRepository) List(ctx context.Context, userID uuid.UUID) ([]models.ClusterSolution, error) {
	var solutions []models.ClusterSolution
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&solutions).Error
	if solutions == nil {
		solutions = []models.ClusterSolution{}
	}
	return solutions, err
}

func (r *GormSolutionRepository) GetByTheme(ctx context.Context, userID uuid.UUID, theme string) (*models.ClusterSolution, error) {
	var solution models.ClusterSolution
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND theme = ?", userID, theme).
		First(&solution).Error
	if err != nil {
		return nil, err
	}
	return &solution, nil
}
