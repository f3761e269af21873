package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port        string
	Debug       bool
	CORSOrigins []string

	// Scraping configuration
	YouTubeAPIKey         string
	ApifyToken            string
	InstagramActorID      string
	DefaultCommentLimit   int
	MaxCommentLimit       int
	InstagramCommentLimit int
	ScrapeTimeout         time.Duration

	// Third-party moderation (Groq, OpenAI-compatible)
	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string

	// Classification thresholds
	SimilarityThreshold float64
	MinGroupSize        int

	// Watch list: videos re-analyzed on a schedule
	WatchVideos   []string
	WatchKeywords []string
	WatchSchedule string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		Debug:       getBoolEnv("DEBUG", false),
		CORSOrigins: getSliceEnv("CORS_ORIGINS", []string{"*"}),

		YouTubeAPIKey:         getEnv("YOUTUBE_API_KEY", ""),
		ApifyToken:            getEnv("APIFY_TOKEN", ""),
		InstagramActorID:      getEnv("ACTOR_ID", ""),
		DefaultCommentLimit:   getIntEnv("DEFAULT_COMMENT_LIMIT", 200),
		MaxCommentLimit:       getIntEnv("MAX_COMMENT_LIMIT", 1000),
		InstagramCommentLimit: getIntEnv("INSTAGRAM_COMMENT_LIMIT", 30),
		ScrapeTimeout:         getDurationEnv("SCRAPE_TIMEOUT", 30*time.Second),

		GroqAPIKey:  getEnv("GROQ_API_KEY", ""),
		GroqModel:   getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
		GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),

		SimilarityThreshold: getFloatEnv("SIMILARITY_THRESHOLD", 0.85),
		MinGroupSize:        getIntEnv("MIN_GROUP_SIZE", 3),

		WatchVideos:   getSliceEnv("WATCH_VIDEOS", nil),
		WatchKeywords: getSliceEnv("WATCH_KEYWORDS", nil),
		WatchSchedule: getEnv("WATCH_SCHEDULE", "0 0 */6 * * *"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1], got %v", c.SimilarityThreshold)
	}

	if c.MinGroupSize < 2 {
		return fmt.Errorf("MIN_GROUP_SIZE must be at least 2, got %d", c.MinGroupSize)
	}

	if c.DefaultCommentLimit <= 0 || c.MaxCommentLimit <= 0 || c.InstagramCommentLimit <= 0 {
		return fmt.Errorf("comment limits must be positive")
	}

	if c.DefaultCommentLimit > c.MaxCommentLimit {
		return fmt.Errorf("DEFAULT_COMMENT_LIMIT (%d) exceeds MAX_COMMENT_LIMIT (%d)", c.DefaultCommentLimit, c.MaxCommentLimit)
	}

	if c.ScrapeTimeout <= 0 {
		return fmt.Errorf("SCRAPE_TIMEOUT must be positive")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if len(c.WatchVideos) > 0 {
		if c.TeamsWebhookURL == "" && c.NotificationEmail == "" {
			return fmt.Errorf("WATCH_VIDEOS requires a notification method (TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL)")
		}
		if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.WatchSchedule); err != nil {
			return fmt.Errorf("invalid WATCH_SCHEDULE %q: %w", c.WatchSchedule, err)
		}
	}

	return nil
}

// ClampLimit bounds a requested comment limit, substituting the default for
// non-positive values
func (c *Config) ClampLimit(requested int) int {
	if requested <= 0 {
		return c.DefaultCommentLimit
	}
	if requested > c.MaxCommentLimit {
		return c.MaxCommentLimit
	}
	return requested
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items
	}
	return defaultValue
}
