package router

import (
	"os"
	"path/filepath"

	"feedback-insights-demo/backend/pkg/validator"
)

// AddOpenAPIValidation turns on schema validation for incoming requests
// and serves the document under /api/docs. A missing schema file only
// logs a warning so local development keeps working.
func (r *Router) AddOpenAPIValidation(schemaPath string) {
	if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
		r.Logger.Warn("OpenAPI schema file not found, skipping validation", "path", schemaPath)
		return
	}

	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		r.Logger.Error("failed to initialize OpenAPI validator", "error", err)
		return
	}

	r.Engine.Use(v.Middleware())
	r.Logger.Info("OpenAPI validation enabled", "schema", schemaPath)

	r.Engine.Static("/api/docs", filepath.Dir(schemaPath))
}
