package api

import (
	"net/http"

	"feedback-insights-demo/backend/internal/service"
	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type SolutionHandler struct {
	service *service.SolutionService
}

func NewSolutionHandler(service *service.SolutionService) *SolutionHandler {
	return &SolutionHandler{service: service}
}

// Generate returns the cached plan when it is still fresh, otherwise runs
// a new generation. force=true always regenerates.
func (h *SolutionHandler) Generate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	limit := queryInt(c, "limit", 0)
	force := c.Query("force") == "true"

	result, err := h.service.Generate(c.Request.Context(), userID, c.Param("theme"), limit, force)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cached":   result.Cached,
		"theme":    result.Solution.Theme,
		"solution": result.Solution,
	})
}

func (h *SolutionHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	solutions, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"solutions": solutions})
}

func (h *SolutionHandler) GetByTheme(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required."))
		return
	}

	solution, err := h.service.GetByTheme(c.Request.Context(), userID, c.Param("theme"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"solution": solution})
}
