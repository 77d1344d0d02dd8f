package service

import (
	"context"
	goerrors "errors"
	"time"

	"feedback-insights-demo/backend/ai"
	"feedback-insights-demo/backend/internal/models"
	"feedback-insights-demo/backend/internal/repository"
	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultBulkLimit = 20

// BulkThemeOutcome is one item's result inside a bulk theming run.
type BulkThemeOutcome struct {
	FeedbackID uuid.UUID         `json:"feedbackId"`
	OK         bool              `json:"ok"`
	Analysis   *ai.ThemingResult `json:"analysis,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// BulkThemeReport aggregates a bulk theming run. Results preserve claim
// order.
type BulkThemeReport struct {
	Total   int                `json:"total"`
	Results []BulkThemeOutcome `json:"results"`
}

// ThemingServiceConfig bounds the theming pipeline.
type ThemingServiceConfig struct {
	// MaxAttempts caps theming retries per item.
	MaxAttempts int
	// Timeout bounds each classifier call.
	Timeout time.Duration
	// MaxBulkLimit caps the batch size a single bulk call may claim.
	MaxBulkLimit int
	// Workers bounds concurrent classifier calls during bulk execution.
	Workers int
}

// DefaultThemingServiceConfig mirrors the product limits: three attempts,
// a 25 second classifier budget, at most 100 items per bulk call.
func DefaultThemingServiceConfig() ThemingServiceConfig {
	return ThemingServiceConfig{
		MaxAttempts:  models.MaxThemeAttempts,
		Timeout:      25 * time.Second,
		MaxBulkLimit: 100,
		Workers:      4,
	}
}

// ThemingService drives the per-item theming state machine and the bulk
// claim-then-classify pipeline.
type ThemingService struct {
	repo       repository.FeedbackRepository
	classifier Classifier
	cache      Cache
	cfg        ThemingServiceConfig
	log        *logger.Logger
}

func NewThemingService(repo repository.FeedbackRepository, classifier Classifier, cache Cache, cfg ThemingServiceConfig, log *logger.Logger) *ThemingService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = models.MaxThemeAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}
	if cfg.MaxBulkLimit <= 0 {
		cfg.MaxBulkLimit = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &ThemingService{
		repo:       repo,
		classifier: classifier,
		cache:      cache,
		cfg:        cfg,
		log:        log,
	}
}

// ThemeOne runs the pending→processing→done/failed state machine for a
// single item. Every path that enters processing ends in exactly one
// terminal write.
func (s *ThemingService) ThemeOne(ctx context.Context, userID, feedbackID uuid.UUID) (*ai.ThemingResult, error) {
	feedback, err := s.repo.GetByID(ctx, userID, feedbackID)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(errors.CodeFeedbackNotFound, "Feedback not found or access denied.")
		}
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to fetch feedback.")
	}

	// The attempts cap is enforced by the guarded transition itself, not
	// by the read above, so two concurrent calls on the same item cannot
	// both consume the last attempt.
	claimed, err := s.repo.MarkProcessing(ctx, userID, feedbackID, s.cfg.MaxAttempts)
	if err != nil {
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to start theming.")
	}
	if !claimed {
		return nil, errors.NewTooManyRequestsError(errors.CodeAttemptsExhausted, "Maximum theming attempts reached.")
	}
	themingAttempts.Inc()
	s.cache.Del(ctx, pendingCountKey(userID))

	analysis, err := s.classify(ctx, feedback.Message)
	if err != nil {
		s.failItem(ctx, userID, feedbackID, err)
		return nil, classificationError(err)
	}

	if err := s.markDone(ctx, userID, feedbackID, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// BulkTheme claims up to limit eligible pending items in one atomic phase,
// then themes each claimed item independently. Partial failure is the
// expected steady state: the call errors only when the claim phase itself
// fails.
func (s *ThemingService) BulkTheme(ctx context.Context, userID uuid.UUID, limit int) (*BulkThemeReport, error) {
	if limit <= 0 {
		limit = defaultBulkLimit
	}
	if limit > s.cfg.MaxBulkLimit {
		limit = s.cfg.MaxBulkLimit
	}

	claimed, err := s.repo.ClaimPending(ctx, userID, s.cfg.MaxAttempts, limit)
	if err != nil {
		s.log.LogError(err, "bulk claim phase failed", "user_id", userID)
		return nil, errors.NewInternalServerError(errors.CodeInternal, "Failed to claim pending feedbacks.")
	}

	report := &BulkThemeReport{
		Total:   len(claimed),
		Results: make([]BulkThemeOutcome, len(claimed)),
	}
	if len(claimed) == 0 {
		return report, nil
	}

	themingAttempts.Add(float64(len(claimed)))
	bulkClaims.Add(float64(len(claimed)))
	s.cache.Del(ctx, pendingCountKey(userID))

	// Execution phase: outside the claim transaction, one worker slot per
	// classifier call. Workers never return errors so one item's failure
	// cannot cancel another's classification.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, item := range claimed {
		i, item := i, item
		g.Go(func() error {
			report.Results[i] = s.themeClaimed(gctx, userID, item)
			return nil
		})
	}
	g.Wait()

	return report, nil
}

// themeClaimed resolves one already-claimed (processing) item to a
// terminal state.
func (s *ThemingService) themeClaimed(ctx context.Context, userID uuid.UUID, item models.Feedback) BulkThemeOutcome {
	analysis, err := s.classify(ctx, item.Message)
	if err != nil {
		s.failItem(ctx, userID, item.ID, err)
		return BulkThemeOutcome{FeedbackID: item.ID, OK: false, Error: truncateError(err)}
	}

	if err := s.markDone(ctx, userID, item.ID, analysis); err != nil {
		return BulkThemeOutcome{FeedbackID: item.ID, OK: false, Error: truncateError(err)}
	}
	return BulkThemeOutcome{FeedbackID: item.ID, OK: true, Analysis: analysis}
}

func (s *ThemingService) classify(ctx context.Context, message string) (*ai.ThemingResult, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return s.classifier.ClassifyTheme(cctx, message)
}

// markDone writes the terminal done state. The write runs detached from
// request cancellation so a processing item is never stranded.
func (s *ThemingService) markDone(ctx context.Context, userID, id uuid.UUID, analysis *ai.ThemingResult) error {
	err := s.repo.MarkDone(context.WithoutCancel(ctx), userID, id, models.ThemeAnalysis{
		Theme:      analysis.Theme,
		Sentiment:  analysis.Sentiment,
		Confidence: analysis.Confidence,
		Summary:    analysis.Summary,
	})
	if err != nil {
		s.log.LogError(err, "failed to persist theming result", "feedback_id", id)
		s.failItem(ctx, userID, id, err)
		return errors.NewInternalServerError(errors.CodeInternal, "Failed to persist theming result.")
	}
	themingOutcomes.WithLabelValues("done").Inc()
	return nil
}

func (s *ThemingService) failItem(ctx context.Context, userID, id uuid.UUID, cause error) {
	themingOutcomes.WithLabelValues("failed").Inc()
	if err := s.repo.MarkFailed(context.WithoutCancel(ctx), userID, id, truncateError(cause)); err != nil {
		s.log.LogError(err, "failed to record theming failure", "feedback_id", id)
	}
}

// truncateError caps the persisted failure reason.
func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > models.MaxThemeErrorLen {
		msg = msg[:models.MaxThemeErrorLen]
	}
	return msg
}

// classificationError maps a gateway failure to the caller-facing error.
// Timeouts and classification failures carry distinct codes but the same
// status.
func classificationError(err error) *errors.AppError {
	if goerrors.Is(err, context.DeadlineExceeded) {
		return errors.NewInternalServerError(errors.CodeClassifierTimeout, "Classification timed out.")
	}
	return errors.NewInternalServerError(errors.CodeClassification, "Classification failed.")
}
