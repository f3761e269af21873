package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/analysis"
	"github.com/aegis-sec/aegis-analyzer/internal/config"
	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/aegis-sec/aegis-analyzer/internal/monitoring"
)

const outputDir = "test_output"

// TerminalNotificationService prints alerts instead of sending them
type TerminalNotificationService struct{}

func (t *TerminalNotificationService) SendAlert(alert *models.Alert) error {
	fmt.Println("\n🚨 ALERT")
	fmt.Printf("Type: %s\n", alert.Type)
	fmt.Printf("Title: %s\n", alert.Title)
	fmt.Printf("Message: %s\n", alert.Message)
	return nil
}

func sampleComments() []models.RawComment {
	var raw []models.RawComment
	add := func(author, text string, likes interface{}) {
		raw = append(raw, models.RawComment{
			"id":     fmt.Sprintf("sample_%d", len(raw)+1),
			"author": author,
			"text":   text,
			"time":   time.Now().Add(-time.Duration(len(raw)) * time.Hour).Format(time.RFC3339),
			"likes":  likes,
		})
	}

	for i := 0; i < 8; i++ {
		add(fmt.Sprintf("promo_bot_%d", i), "Check out my channel for daily uploads!!", 0)
	}
	for i, suffix := range []string{"", "!", "!!", " :)", " <3"} {
		add(fmt.Sprintf("fan_account_%d", i), "great content as always, keep it up"+suffix, 1)
	}

	add("angry_viewer", "you are so ugly and pathetic", 3)
	add("troll_42", "stupid idiot, nobody watches this garbage", 0)
	add("anon", "i will find you and hurt you", 0)
	add("movie_links", "full movie free download in my bio", 12)
	add("leaker", "episode 5 leaked already, torrent link below", 7)

	add("regular_viewer", "The lighting in the second half is beautiful", "1.2K")
	add("curious_cat", "What camera did you use for this?", 40)
	add("", "first time here, subscribed", 2)

	return raw
}

func saveReport(report *models.AnalysisReport) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}

	filename := filepath.Join(outputDir, fmt.Sprintf("analysis_%s_%s.json", report.VideoID, report.Timestamp.Format("20060102_150405")))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}

	return filename, os.WriteFile(filename, data, 0644)
}

func main() {
	fmt.Println("🛡️  Aegis Analyzer - Sample Report Generator")
	fmt.Println("============================================")

	// Create test configuration
	cfg := &config.Config{
		DefaultCommentLimit:   200,
		MaxCommentLimit:       1000,
		InstagramCommentLimit: 30,
		ScrapeTimeout:         30 * time.Second,
	}

	notifications := &TerminalNotificationService{}
	service := monitoring.NewService(cfg, analysis.NewEngine(analysis.DefaultOptions()), notifications)

	comments := sampleComments()
	fmt.Printf("\n📊 Analyzing %d sample comments...\n", len(comments))

	report, err := service.AnalyzeComments("sample_video", comments, []string{"episode 5"})
	if err != nil {
		fmt.Printf("❌ Analysis failed: %v\n", err)
		os.Exit(1)
	}

	stats := report.Statistics
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("📊 SAMPLE ANALYSIS REPORT")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("📈 Total Comments: %d\n", stats.TotalComments)
	fmt.Printf("🤖 Bot Comments: %d\n", stats.BotComments)
	fmt.Printf("⚠️  Harassment Comments: %d\n", stats.HarassmentComments)
	fmt.Printf("©️  Copyright Violations: %d\n", stats.CopyrightViolations)
	fmt.Printf("🚦 Threat Level: %s\n", stats.ThreatLevel)

	fmt.Println("\n🤖 Bot Indicators:")
	for _, indicator := range report.BotIndicators {
		fmt.Printf("   • %-15s %d comments (%s)\n", indicator.Type+":", indicator.Count, indicator.Severity)
	}

	fmt.Println("\n📝 Conclusion:")
	for _, line := range strings.Split(report.Conclusion, "\n") {
		fmt.Printf("   %s\n", line)
	}

	if alert := service.AlertFor(report); alert != nil {
		notifications.SendAlert(alert)
	}

	filename, err := saveReport(report)
	if err != nil {
		fmt.Printf("\n⚠️  Warning: Could not save to file: %v\n", err)
	} else {
		fmt.Printf("\n💾 Report saved to: %s\n", filename)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Run 'go test ./...' for the full test suite")
	fmt.Println("   • Set YOUTUBE_API_KEY and run 'go run ./cmd/analyze <video>' against a real video")
}
