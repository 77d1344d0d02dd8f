package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"feedback-insights-demo/backend/ai"
	"feedback-insights-demo/backend/internal/models"
	"feedback-insights-demo/backend/internal/repository"
	"feedback-insights-demo/backend/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: false})
}

// fakeFeedbackRepo is an in-memory FeedbackRepository with the same
// transition semantics as the gorm implementation.
type fakeFeedbackRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Feedback

	createErr error
	claimErr  error
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{items: map[uuid.UUID]*models.Feedback{}}
}

func (r *fakeFeedbackRepo) add(f *models.Feedback) *models.Feedback {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	if f.ThemeStatus == "" {
		f.ThemeStatus = models.ThemeStatusPending
	}
	r.items[f.ID] = f
	return f
}

func (r *fakeFeedbackRepo) get(id uuid.UUID) models.Feedback {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.items[id]
}

func (r *fakeFeedbackRepo) Create(ctx context.Context, feedback *models.Feedback) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.add(feedback)
	return nil
}

func (r *fakeFeedbackRepo) CreateBatch(ctx context.Context, feedbacks []*models.Feedback) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, f := range feedbacks {
		r.add(f)
	}
	return nil
}

func (r *fakeFeedbackRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[id]
	if !ok || f.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f
	return &copied, nil
}

func (r *fakeFeedbackRepo) byUser(userID uuid.UUID, filter func(*models.Feedback) bool) []models.Feedback {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Feedback{}
	for _, f := range r.items {
		if f.UserID == userID && (filter == nil || filter(f)) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func page(items []models.Feedback, limit, offset int) []models.Feedback {
	if offset >= len(items) {
		return []models.Feedback{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (r *fakeFeedbackRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Feedback, error) {
	return page(r.byUser(userID, nil), limit, offset), nil
}

func (r *fakeFeedbackRepo) ListPending(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Feedback, error) {
	return page(r.byUser(userID, func(f *models.Feedback) bool {
		return f.ThemeStatus == models.ThemeStatusPending
	}), limit, offset), nil
}

func (r *fakeFeedbackRepo) CountPending(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(r.byUser(userID, func(f *models.Feedback) bool {
		return f.ThemeStatus == models.ThemeStatusPending
	}))), nil
}

func (r *fakeFeedbackRepo) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(r.byUser(userID, nil))), nil
}

func (r *fakeFeedbackRepo) CountToday(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := time.Now()
	return int64(len(r.byUser(userID, func(f *models.Feedback) bool {
		y1, m1, d1 := f.CreatedAt.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}))), nil
}

func (r *fakeFeedbackRepo) ClaimPending(ctx context.Context, userID uuid.UUID, maxAttempts, limit int) ([]models.Feedback, error) {
	if r.claimErr != nil {
		return nil, r.claimErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	eligible := []*models.Feedback{}
	for _, f := range r.items {
		if f.UserID == userID && f.ThemeStatus == models.ThemeStatusPending && f.ThemeAttempts < maxAttempts {
			eligible = append(eligible, f)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].CreatedAt.Before(eligible[j].CreatedAt) })
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	claimed := make([]models.Feedback, 0, len(eligible))
	for _, f := range eligible {
		f.ThemeStatus = models.ThemeStatusProcessing
		f.ThemeAttempts++
		f.ThemeError = nil
		claimed = append(claimed, *f)
	}
	return claimed, nil
}

func (r *fakeFeedbackRepo) MarkProcessing(ctx context.Context, userID, id uuid.UUID, maxAttempts int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[id]
	if !ok || f.UserID != userID || f.ThemeAttempts >= maxAttempts {
		return false, nil
	}
	f.ThemeStatus = models.ThemeStatusProcessing
	f.ThemeAttempts++
	f.ThemeError = nil
	return true, nil
}

func (r *fakeFeedbackRepo) MarkDone(ctx context.Context, userID, id uuid.UUID, analysis models.ThemeAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[id]
	if !ok || f.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	f.ThemeStatus = models.ThemeStatusDone
	f.Theme = &analysis.Theme
	f.Sentiment = &analysis.Sentiment
	f.Confidence = &analysis.Confidence
	f.Summary = &analysis.Summary
	f.ThemeError = nil
	f.ThemedAt = &now
	f.ThemeUpdatedAt = &now
	return nil
}

func (r *fakeFeedbackRepo) MarkFailed(ctx context.Context, userID, id uuid.UUID, errText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.items[id]
	if !ok || f.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	f.ThemeStatus = models.ThemeStatusFailed
	f.ThemeError = &errText
	f.ThemeUpdatedAt = &now
	return nil
}

func (r *fakeFeedbackRepo) CountByTheme(ctx context.Context, userID uuid.UUID) ([]models.ThemeCount, error) {
	counts := map[string]int64{}
	for _, f := range r.byUser(userID, func(f *models.Feedback) bool {
		return f.ThemeStatus == models.ThemeStatusDone && f.Theme != nil
	}) {
		counts[*f.Theme]++
	}
	out := []models.ThemeCount{}
	for theme, total := range counts {
		out = append(out, models.ThemeCount{Theme: theme, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

func (r *fakeFeedbackRepo) doneByTheme(userID uuid.UUID, theme string) []models.Feedback {
	return r.byUser(userID, func(f *models.Feedback) bool {
		return f.ThemeStatus == models.ThemeStatusDone && f.Theme != nil && strings.EqualFold(*f.Theme, theme)
	})
}

func (r *fakeFeedbackRepo) ListDoneByTheme(ctx context.Context, userID uuid.UUID, theme string, limit int) ([]models.Feedback, error) {
	return page(r.doneByTheme(userID, theme), limit, 0), nil
}

func (r *fakeFeedbackRepo) CountDoneByTheme(ctx context.Context, userID uuid.UUID, theme string) (int64, error) {
	return int64(len(r.doneByTheme(userID, theme))), nil
}

func (r *fakeFeedbackRepo) MessagesByTheme(ctx context.Context, userID uuid.UUID, theme string, limit int) ([]string, error) {
	out := []string{}
	for _, f := range page(r.doneByTheme(userID, theme), limit, 0) {
		out = append(out, f.Message)
	}
	return out, nil
}

// fakeClassifier scripts the classifier responses.
type fakeClassifier struct {
	mu            sync.Mutex
	themeCalls    int
	solutionCalls int

	themeResult *ai.ThemingResult
	themeErr    error
	// themeErrFor fails only messages containing this substring.
	themeErrFor string

	plan    *ai.SolutionPlan
	planErr error
}

func (c *fakeClassifier) ClassifyTheme(ctx context.Context, message string) (*ai.ThemingResult, error) {
	c.mu.Lock()
	c.themeCalls++
	c.mu.Unlock()

	if c.themeErr != nil {
		return nil, c.themeErr
	}
	if c.themeErrFor != "" && strings.Contains(message, c.themeErrFor) {
		return nil, context.DeadlineExceeded
	}
	if c.themeResult != nil {
		result := *c.themeResult
		return &result, nil
	}
	return &ai.ThemingResult{
		Theme:      "bug_report",
		Sentiment:  "negative",
		Confidence: 0.9,
		Summary:    "something is broken",
	}, nil
}

func (c *fakeClassifier) GenerateSolution(ctx context.Context, theme string, messages []string) (*ai.SolutionPlan, error) {
	c.mu.Lock()
	c.solutionCalls++
	c.mu.Unlock()

	if c.planErr != nil {
		return nil, c.planErr
	}
	if c.plan != nil {
		plan := *c.plan
		return &plan, nil
	}
	return &ai.SolutionPlan{
		SolutionSummary: "fix the bug",
		RootCause:       "regression",
		QuickFix:        "rollback",
		LongTermFix:     "add tests",
		ActionSteps:     []string{"triage", "patch"},
		Priority:        "high",
		Confidence:      0.8,
	}, nil
}

// fakeSolutionRepo scripts the lock-check-generate protocol.
type fakeSolutionRepo struct {
	mu sync.Mutex

	beginResult *repository.GenerationStart
	beginErr    error

	completed     *repository.SolutionContent
	completeErr   error
	failCalls     int
	completeCalls int

	solutions map[string]*models.ClusterSolution
}

func newFakeSolutionRepo() *fakeSolutionRepo {
	return &fakeSolutionRepo{solutions: map[string]*models.ClusterSolution{}}
}

func (r *fakeSolutionRepo) BeginGeneration(ctx context.Context, userID uuid.UUID, theme string, force bool) (*repository.GenerationStart, error) {
	if r.beginErr != nil {
		return nil, r.beginErr
	}
	result := *r.beginResult
	// force bypasses the cached path even when the row is fresh, matching
	// the regenerate branch of the row-locked check.
	if force {
		result.Cached = false
		result.Solution.Status = models.SolutionStatusProcessing
	}
	return &result, nil
}

func (r *fakeSolutionRepo) CompleteGeneration(ctx context.Context, userID uuid.UUID, theme string, content repository.SolutionContent) (*models.ClusterSolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completeCalls++
	if r.completeErr != nil {
		return nil, r.completeErr
	}
	r.completed = &content
	return &models.ClusterSolution{
		UserID:          userID,
		Theme:           theme,
		Status:          models.SolutionStatusIdle,
		TotalFeedbacks:  content.TotalFeedbacks,
		SolutionSummary: content.SolutionSummary,
		RootCause:       content.RootCause,
		QuickFix:        content.QuickFix,
		LongTermFix:     content.LongTermFix,
		ActionSteps:     models.ActionSteps(content.ActionSteps),
		Priority:        content.Priority,
		Confidence:      content.Confidence,
	}, nil
}

func (r *fakeSolutionRepo) FailGeneration(ctx context.Context, userID uuid.UUID, theme string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failCalls++
	return nil
}

func (r *fakeSolutionRepo) List(ctx context.Context, userID uuid.UUID) ([]models.ClusterSolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.ClusterSolution{}
	for _, s := range r.solutions {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSolutionRepo) GetByTheme(ctx context.Context, userID uuid.UUID, theme string) (*models.ClusterSolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.solutions[theme]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}
