package router

import (
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// setupHealthRoutes registers the public health endpoints: the simple
// liveness view under the API group and the full component snapshot from
// the periodic checker.
func (r *Router) setupHealthRoutes(v1 *gin.RouterGroup) {
	v1.GET("/health", func(c *gin.Context) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		c.JSON(200, gin.H{
			"status":    "ok",
			"version":   os.Getenv("APP_VERSION"),
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
			"memory": gin.H{
				"alloc_mb":  memStats.Alloc / 1024 / 1024,
				"sys_mb":    memStats.Sys / 1024 / 1024,
				"gc_cycles": memStats.NumGC,
			},
		})
	})

	r.Engine.GET("/health", gin.WrapF(r.Container.Health.HTTPHandler()))
}
