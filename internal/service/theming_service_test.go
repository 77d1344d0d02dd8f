package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"feedback-insights-demo/backend/internal/models"
	"feedback-insights-demo/backend/pkg/cache"
	"feedback-insights-demo/backend/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThemingService(repo *fakeFeedbackRepo, classifier *fakeClassifier) *ThemingService {
	return NewThemingService(repo, classifier, cache.New(time.Minute), DefaultThemingServiceConfig(), testLogger())
}

func TestThemeOneSuccess(t *testing.T) {
	repo := newFakeFeedbackRepo()
	classifier := &fakeClassifier{}
	svc := newThemingService(repo, classifier)
	userID := uuid.New()

	item := repo.add(&models.Feedback{UserID: userID, Message: "it crashes"})

	analysis, err := svc.ThemeOne(context.Background(), userID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "bug_report", analysis.Theme)

	stored := repo.get(item.ID)
	assert.Equal(t, models.ThemeStatusDone, stored.ThemeStatus)
	assert.Equal(t, 1, stored.ThemeAttempts)
	assert.True(t, stored.Themed())
	assert.Nil(t, stored.ThemeError)
}

func TestThemeOneNotFound(t *testing.T) {
	svc := newThemingService(newFakeFeedbackRepo(), &fakeClassifier{})

	_, err := svc.ThemeOne(context.Background(), uuid.New(), uuid.New())
	assert.Equal(t, errors.CodeFeedbackNotFound, errors.GetErrorCode(err))
	assert.Equal(t, 404, errors.GetStatusCode(err))
}

func TestThemeOneAttemptsExhausted(t *testing.T) {
	repo := newFakeFeedbackRepo()
	classifier := &fakeClassifier{}
	svc := newThemingService(repo, classifier)
	userID := uuid.New()

	item := repo.add(&models.Feedback{
		UserID:        userID,
		Message:       "never works",
		ThemeStatus:   models.ThemeStatusFailed,
		ThemeAttempts: models.MaxThemeAttempts,
	})

	_, err := svc.ThemeOne(context.Background(), userID, item.ID)
	assert.Equal(t, errors.CodeAttemptsExhausted, errors.GetErrorCode(err))
	assert.Equal(t, 429, errors.GetStatusCode(err))
	assert.Zero(t, classifier.themeCalls, "exhausted items never reach the classifier")
}

func TestThemeOneClassifierFailureMarksFailed(t *testing.T) {
	repo := newFakeFeedbackRepo()
	classifier := &fakeClassifier{themeErr: assert.AnError}
	svc := newThemingService(repo, classifier)
	userID := uuid.New()

	item := repo.add(&models.Feedback{UserID: userID, Message: "broken"})

	_, err := svc.ThemeOne(context.Background(), userID, item.ID)
	assert.Equal(t, errors.CodeClassification, errors.GetErrorCode(err))

	stored := repo.get(item.ID)
	assert.Equal(t, models.ThemeStatusFailed, stored.ThemeStatus)
	assert.Equal(t, 1, stored.ThemeAttempts)
	require.NotNil(t, stored.ThemeError)
	assert.NotEmpty(t, *stored.ThemeError)
}

func TestThemeOneTimeoutCode(t *testing.T) {
	repo := newFakeFeedbackRepo()
	classifier := &fakeClassifier{themeErr: context.DeadlineExceeded}
	svc := newThemingService(repo, classifier)
	userID := uuid.New()

	item := repo.add(&models.Feedback{UserID: userID, Message: "slow"})

	_, err := svc.ThemeOne(context.Background(), userID, item.ID)
	assert.Equal(t, errors.CodeClassifierTimeout, errors.GetErrorCode(err))
}

func TestThemeOneRetryAfterFailure(t *testing.T) {
	repo := newFakeFeedbackRepo()
	classifier := &fakeClassifier{themeErr: assert.AnError}
	svc := newThemingService(repo, classifier)
	userID := uuid.New()

	item := repo.add(&models.Feedback{UserID: userID, Message: "flaky"})

	_, err := svc.ThemeOne(context.Background(), userID, item.ID)
	require.Error(t, err)

	classifier.themeErr = nil
	analysis, err := svc.ThemeOne(context.Background(), userID, item.ID)
	require.NoError(t, err)
	assert.NotNil(t, analysis)

	stored := repo.get(item.ID)
	assert.Equal(t, models.ThemeStatusDone, stored.ThemeStatus)
	assert.Equal(t, 2, stored.ThemeAttempts)
	assert.Nil(t, stored.ThemeError, "a successful retry clears the prior error")
}

func TestBulkThemeEmptyBacklog(t *testing.T) {
	svc := newThemingService(newFakeFeedbackRepo(), &fakeClassifier{})

	report, err := svc.BulkTheme(context.Background(), uuid.New(), 10)
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Empty(t, report.Results)
}

func TestBulkThemePartialFailure(t *testing.T) {
	repo := newFakeFeedbackRepo()
	classifier := &fakeClassifier{themeErrFor: "poison"}
	svc := newThemingService(repo, classifier)
	userID := uuid.New()

	now := time.Now()
	good := repo.add(&models.Feedback{UserID: userID, Message: "fine", CreatedAt: now.Add(-2 * time.Minute)})
	bad := repo.add(&models.Feedback{UserID: userID, Message: "poison pill", CreatedAt: now.Add(-time.Minute)})

	report, err := svc.BulkTheme(context.Background(), userID, 10)
	require.NoError(t, err, "item failures never fail the bulk call itself")
	require.Equal(t, 2, report.Total)
	require.Len(t, report.Results, 2)

	// Results come back in claim order, oldest first.
	assert.Equal(t, good.ID, report.Results[0].FeedbackID)
	assert.True(t, report.Results[0].OK)
	require.NotNil(t, report.Results[0].Analysis)

	assert.Equal(t, bad.ID, report.Results[1].FeedbackID)
	assert.False(t, report.Results[1].OK)
	assert.NotEmpty(t, report.Results[1].Error)
	assert.Nil(t, report.Results[1].Analysis)

	assert.Equal(t, models.ThemeStatusDone, repo.get(good.ID).ThemeStatus)
	assert.Equal(t, models.ThemeStatusFailed, repo.get(bad.ID).ThemeStatus)
}

func TestBulkThemeSkipsExhaustedItems(t *testing.T) {
	repo := newFakeFeedbackRepo()
	classifier := &fakeClassifier{}
	svc := newThemingService(repo, classifier)
	userID := uuid.New()

	repo.add(&models.Feedback{
		UserID:        userID,
		Message:       "exhausted",
		ThemeAttempts: models.MaxThemeAttempts,
	})
	fresh := repo.add(&models.Feedback{UserID: userID, Message: "fresh"})

	report, err := svc.BulkTheme(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Equal(t, 1, report.Total)
	assert.Equal(t, fresh.ID, report.Results[0].FeedbackID)
}

func TestBulkThemeClaimFailure(t *testing.T) {
	repo := newFakeFeedbackRepo()
	repo.claimErr = assert.AnError
	svc := newThemingService(repo, &fakeClassifier{})

	_, err := svc.BulkTheme(context.Background(), uuid.New(), 10)
	assert.Equal(t, 500, errors.GetStatusCode(err))
}

func TestBulkThemeLimitClamp(t *testing.T) {
	repo := newFakeFeedbackRepo()
	classifier := &fakeClassifier{}
	svc := newThemingService(repo, classifier)
	userID := uuid.New()

	for i := 0; i < 30; i++ {
		repo.add(&models.Feedback{UserID: userID, Message: "item", CreatedAt: time.Now().Add(time.Duration(-i) * time.Second)})
	}

	// Zero limit uses the default batch size.
	report, err := svc.BulkTheme(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultBulkLimit, report.Total)
}

func TestThemeOneConcurrentCallsRespectAttemptsCap(t *testing.T) {
	repo := newFakeFeedbackRepo()
	classifier := &fakeClassifier{}
	svc := newThemingService(repo, classifier)
	userID := uuid.New()

	// One attempt left: of two racing calls, exactly one may consume it.
	item := repo.add(&models.Feedback{
		UserID:        userID,
		Message:       "export keeps timing out",
		ThemeStatus:   models.ThemeStatusFailed,
		ThemeAttempts: models.MaxThemeAttempts - 1,
	})

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ThemeOne(context.Background(), userID, item.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, exhausted int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, errors.CodeAttemptsExhausted, errors.GetErrorCode(err))
		exhausted++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, exhausted)
	require.LessOrEqual(t, repo.get(item.ID).ThemeAttempts, models.MaxThemeAttempts)
	assert.Equal(t, 1, classifier.themeCalls, "the losing call never reaches the classifier")
}

func TestBulkThemeConcurrentRunsClaimDisjointSets(t *testing.T) {
	repo := newFakeFeedbackRepo()
	classifier := &fakeClassifier{}
	svc := newThemingService(repo, classifier)
	userID := uuid.New()

	const backlog = 12
	for i := 0; i < backlog; i++ {
		repo.add(&models.Feedback{
			UserID:    userID,
			Message:   fmt.Sprintf("item %d", i),
			CreatedAt: time.Now().Add(time.Duration(-i) * time.Second),
		})
	}

	reports := make([]*BulkThemeReport, 2)
	runErrs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i], runErrs[i] = svc.BulkTheme(context.Background(), userID, backlog/2)
		}()
	}
	wg.Wait()

	claims := map[uuid.UUID]int{}
	total := 0
	for i, report := range reports {
		require.NoError(t, runErrs[i])
		total += report.Total
		for _, res := range report.Results {
			claims[res.FeedbackID]++
		}
	}
	assert.Equal(t, backlog, total)
	require.Len(t, claims, backlog)
	for id, n := range claims {
		assert.Equalf(t, 1, n, "feedback %s handed to more than one run", id)
		assert.Equal(t, 1, repo.get(id).ThemeAttempts)
	}
}
