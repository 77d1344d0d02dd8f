package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feedback-insights-demo/backend/internal/models"
	"feedback-insights-demo/backend/internal/repository"
	"feedback-insights-demo/backend/internal/service"
	"feedback-insights-demo/backend/pkg/cache"
	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/logger"
	"feedback-insights-demo/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFeedbackRepo covers only the paths these handler tests touch;
// everything else panics through the embedded nil interface.
type stubFeedbackRepo struct {
	repository.FeedbackRepository
	created []*models.Feedback
}

func (r *stubFeedbackRepo) Create(ctx context.Context, feedback *models.Feedback) error {
	feedback.ID = uuid.New()
	feedback.CreatedAt = time.Now()
	r.created = append(r.created, feedback)
	return nil
}

func (r *stubFeedbackRepo) CreateBatch(ctx context.Context, feedbacks []*models.Feedback) error {
	for _, f := range feedbacks {
		r.Create(ctx, f)
	}
	return nil
}

func (r *stubFeedbackRepo) CountPending(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(r.created)), nil
}

func (r *stubFeedbackRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Feedback, error) {
	out := []models.Feedback{}
	for _, f := range r.created {
		out = append(out, *f)
	}
	return out, nil
}

func newTestEngine(t *testing.T, repo repository.FeedbackRepository, userID uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New(logger.Config{Level: "error"})
	svc := service.NewFeedbackService(repo, cache.New(time.Minute), time.Second, log)
	handler := NewFeedbackHandler(svc)

	engine := gin.New()
	engine.Use(errors.ErrorHandler())
	engine.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.UserIDContextKey, userID)
		}
		c.Next()
	})

	engine.POST("/api/v1/feedback", handler.Submit)
	engine.POST("/api/v1/feedback/bulk", handler.SubmitBulk)
	engine.GET("/api/v1/feedback", handler.List)
	engine.GET("/api/v1/feedback/pending/count", handler.PendingCount)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSubmitFeedback(t *testing.T) {
	repo := &stubFeedbackRepo{}
	engine := newTestEngine(t, repo, uuid.New())

	w := doJSON(t, engine, http.MethodPost, "/api/v1/feedback", `{"message":"the app crashes"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Feedback models.Feedback `json:"feedback"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "the app crashes", resp.Feedback.Message)
	assert.Equal(t, models.ThemeStatusPending, resp.Feedback.ThemeStatus)
	assert.Len(t, repo.created, 1)
}

func TestSubmitFeedbackValidationEnvelope(t *testing.T) {
	engine := newTestEngine(t, &stubFeedbackRepo{}, uuid.New())

	w := doJSON(t, engine, http.MethodPost, "/api/v1/feedback", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.CodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Message)
}

func TestSubmitFeedbackMalformedBody(t *testing.T) {
	engine := newTestEngine(t, &stubFeedbackRepo{}, uuid.New())

	w := doJSON(t, engine, http.MethodPost, "/api/v1/feedback", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitFeedbackUnauthenticated(t *testing.T) {
	engine := newTestEngine(t, &stubFeedbackRepo{}, uuid.Nil)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/feedback", `{"message":"hello"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitBulkFeedback(t *testing.T) {
	repo := &stubFeedbackRepo{}
	engine := newTestEngine(t, repo, uuid.New())

	w := doJSON(t, engine, http.MethodPost, "/api/v1/feedback/bulk", `{"messages":["one"," ","two"]}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Count     int               `json:"count"`
		Feedbacks []models.Feedback `json:"feedbacks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Feedbacks, 2)
}

func TestListFeedbackDefaults(t *testing.T) {
	repo := &stubFeedbackRepo{}
	engine := newTestEngine(t, repo, uuid.New())

	w := doJSON(t, engine, http.MethodGet, "/api/v1/feedback?page=abc&limit=-1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
}

func TestPendingCount(t *testing.T) {
	repo := &stubFeedbackRepo{}
	engine := newTestEngine(t, repo, uuid.New())

	doJSON(t, engine, http.MethodPost, "/api/v1/feedback", `{"message":"one"}`)
	w := doJSON(t, engine, http.MethodGet, "/api/v1/feedback/pending/count", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
}
