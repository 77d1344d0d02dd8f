package api

import (
	"net/http"

	"feedback-insights-demo/backend/internal/service"
	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type ClusterHandler struct {
	service *service.ClusterService
}

func NewClusterHandler(service *service.ClusterService) *ClusterHandler {
	return &ClusterHandler{service: service}
}

func (h *ClusterHandler) ListClusters(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	clusters, err := h.service.ListClusters(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}

func (h *ClusterHandler) ThemeDetail(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	limit := queryInt(c, "limit", 0)

	detail, err := h.service.ThemeDetail(c.Request.Context(), userID, c.Param("theme"), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, detail)
}
