package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedback-insights-demo/backend/internal/models"
	"feedback-insights-demo/backend/pkg/config"
	"feedback-insights-demo/backend/pkg/di"
	"feedback-insights-demo/backend/pkg/logger"
	"feedback-insights-demo/backend/pkg/router"
	"feedback-insights-demo/backend/pkg/secrets"
	"feedback-insights-demo/backend/shared/observability"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	logConfig := logger.DefaultConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logConfig.Level = level
	}
	logConfig.JSON = os.Getenv("LOG_FORMAT") != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting feedback insights service", "version", os.Getenv("APP_VERSION"))

	cfg := config.New()

	if err := secrets.Init(log); err != nil {
		log.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(&models.Feedback{}, &models.ClusterSolution{}); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	shutdownTracing := observability.SetupTracing("feedback-insights", log)
	defer shutdownTracing()
	observability.SetupPrometheusMetrics(":2112", log)

	container, err := di.New(db, cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	defer container.Close()

	container.Health.Start()

	r := router.New(container)
	if schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH"); schemaPath != "" {
		r.AddOpenAPIValidation(schemaPath)
	}
	r.SetupRoutes()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}
