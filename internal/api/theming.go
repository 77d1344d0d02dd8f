package api

import (
	"net/http"

	"feedback-insights-demo/backend/internal/service"
	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ThemingHandler struct {
	service *service.ThemingService
}

func NewThemingHandler(service *service.ThemingService) *ThemingHandler {
	return &ThemingHandler{service: service}
}

// ThemeOne classifies a single feedback item in the request path.
func (h *ThemingHandler) ThemeOne(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	feedbackID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(errors.NewBadRequestError(errors.CodeValidation, "Invalid feedback id."))
		return
	}

	analysis, err := h.service.ThemeOne(c.Request.Context(), userID, feedbackID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

// BulkTheme claims a batch of pending items and classifies them
// concurrently. Partial failures are reported per item with a 200.
func (h *ThemingHandler) BulkTheme(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	limit := queryInt(c, "limit", 0)

	report, err := h.service.BulkTheme(c.Request.Context(), userID, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, report)
}
