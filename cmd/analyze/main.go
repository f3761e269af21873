package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/analysis"
	"github.com/aegis-sec/aegis-analyzer/internal/config"
	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/aegis-sec/aegis-analyzer/internal/monitoring"
	"github.com/aegis-sec/aegis-analyzer/internal/notifications"
	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: analyze <video_url_or_id> [keywords]")
		fmt.Println("Example: analyze dQw4w9WgXcQ")
		fmt.Println("Example: analyze https://www.youtube.com/watch?v=dQw4w9WgXcQ movie,leak")
		os.Exit(1)
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var keywords []string
	if len(os.Args) > 2 {
		keywords = strings.Split(os.Args[2], ",")
	}

	engine := analysis.NewEngine(analysis.Options{
		SimilarityThreshold: cfg.SimilarityThreshold,
		MinGroupSize:        cfg.MinGroupSize,
	})
	service := monitoring.NewService(cfg, engine, notifications.NewService(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := service.AnalyzeVideo(ctx, os.Args[1], keywords, cfg.DefaultCommentLimit)
	if err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}

	printSummary(report)

	outputFile := fmt.Sprintf("analysis_%s_%s.json", report.VideoID, time.Now().Format("20060102_150405"))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", outputFile, err)
	}

	fmt.Printf("\n💾 Full analysis saved to: %s\n", outputFile)
}

func printSummary(report *models.AnalysisReport) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("📊 ANALYSIS RESULTS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Video ID: %s\n", report.VideoID)
	fmt.Printf("Video URL: %s\n", report.VideoURL)
	fmt.Printf("Total Comments: %d\n", report.Statistics.TotalComments)
	fmt.Printf("Bot Comments: %d\n", report.Statistics.BotComments)
	fmt.Printf("Harassment Comments: %d\n", report.Statistics.HarassmentComments)
	fmt.Printf("Copyright Violations: %d\n", report.Statistics.CopyrightViolations)
	fmt.Printf("Threat Level: %s\n", report.Statistics.ThreatLevel)
	fmt.Println(strings.Repeat("=", 60))
}
