package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/analysis"
	"github.com/aegis-sec/aegis-analyzer/internal/api"
	"github.com/aegis-sec/aegis-analyzer/internal/config"
	"github.com/aegis-sec/aegis-analyzer/internal/monitoring"
	"github.com/aegis-sec/aegis-analyzer/internal/notifications"
	"github.com/aegis-sec/aegis-analyzer/internal/scheduler"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Aegis Analyzer")

	engine := analysis.NewEngine(analysis.Options{
		SimilarityThreshold: cfg.SimilarityThreshold,
		MinGroupSize:        cfg.MinGroupSize,
	})

	// Initialize notification services
	notificationService := notifications.NewService(cfg)

	// Initialize analyzer service
	analyzerService := monitoring.NewService(cfg, engine, notificationService)

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, analyzerService)

	// Start scheduler
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     api.NewRouter(analyzerService, engine, cfg.CORSOrigins),
		ReadTimeout: 30 * time.Second,
		// Instagram analysis scrapes and moderates synchronously
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
