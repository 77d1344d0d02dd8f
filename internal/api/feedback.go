package api

import (
	"net/http"
	"strconv"

	"feedback-insights-demo/backend/internal/service"
	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	service *service.FeedbackService
}

func NewFeedbackHandler(service *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

type submitFeedbackRequest struct {
	Message string `json:"message"`
}

type submitBulkRequest struct {
	Messages []string `json:"messages"`
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError(errors.CodeValidation, "Invalid request body."))
		return
	}

	feedback, err := h.service.Submit(c.Request.Context(), userID, req.Message)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"feedback": feedback})
}

func (h *FeedbackHandler) SubmitBulk(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	var req submitBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError(errors.CodeValidation, "Invalid request body."))
		return
	}

	feedbacks, err := h.service.SubmitBulk(c.Request.Context(), userID, req.Messages)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"count":     len(feedbacks),
		"feedbacks": feedbacks,
	})
}

func (h *FeedbackHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	feedbacks, page, limit, err := h.service.List(c.Request.Context(), userID, page, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":      page,
		"limit":     limit,
		"feedbacks": feedbacks,
	})
}

func (h *FeedbackHandler) ListPending(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	feedbacks, page, limit, err := h.service.ListPending(c.Request.Context(), userID, page, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":      page,
		"limit":     limit,
		"feedbacks": feedbacks,
	})
}

func (h *FeedbackHandler) PendingCount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	total, err := h.service.PendingCount(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (h *FeedbackHandler) Stats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// queryInt parses a query parameter, falling back to def on absence or
// garbage. Range clamping belongs to the services.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
