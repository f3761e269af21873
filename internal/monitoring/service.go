package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/analysis"
	"github.com/aegis-sec/aegis-analyzer/internal/config"
	"github.com/aegis-sec/aegis-analyzer/internal/metrics"
	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/aegis-sec/aegis-analyzer/internal/moderation"
	"github.com/aegis-sec/aegis-analyzer/internal/notifications"
	"github.com/aegis-sec/aegis-analyzer/internal/sources"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	watchRunTimeout       = 30 * time.Minute
	instagramFetchTimeout = 60 * time.Second
	moderationWorkers     = 5

	platformYouTube   = "youtube"
	platformInstagram = "instagram"
	platformManual    = "manual"

	// DefaultTargetID labels reports for client-supplied comments
	DefaultTargetID = "manual"
)

var (
	// ErrNoComments is returned when a scrape yields nothing to analyze
	ErrNoComments = errors.New("no comments found or unable to scrape")
	// ErrMissingTarget is returned when an Instagram request names no post or user
	ErrMissingTarget = errors.New("provide either post_url or username")
	// ErrScrapeFailed wraps every source failure
	ErrScrapeFailed = errors.New("scrape failed")
	// ErrWatchInProgress is returned when a watch run is requested while one is running
	ErrWatchInProgress = errors.New("watch run already in progress")
)

// Service wires the comment sources, the analysis engine and alerting
type Service struct {
	config              *config.Config
	engine              *analysis.Engine
	notificationService notifications.NotificationInterface
	youtube             sources.Source
	instagram           sources.Source
	moderator           moderation.Reviewer
	metrics             *Metrics
	mu                  sync.RWMutex
	watchMu             sync.Mutex
}

// Metrics holds analyzer metrics
type Metrics struct {
	TotalAnalyses     int            `json:"total_analyses"`
	CommentsAnalyzed  int            `json:"comments_analyzed"`
	PlatformBreakdown map[string]int `json:"platform_breakdown"`
	ThreatBreakdown   map[string]int `json:"threat_breakdown"`
	ErrorCount        int            `json:"error_count"`
	AlertsSent        int            `json:"alerts_sent"`
	LastAnalysis      time.Time      `json:"last_analysis"`
	LastWatchRun      time.Time      `json:"last_watch_run"`
	LastWatchDuration string         `json:"last_watch_duration"`
}

// InstagramRequest names the post or profile to analyze
type InstagramRequest struct {
	PostURL       string `json:"post_url"`
	Username      string `json:"username"`
	CommentsLimit int    `json:"comments_limit"`
}

// NewService creates a new analyzer service
func NewService(cfg *config.Config, engine *analysis.Engine, notificationService notifications.NotificationInterface) *Service {
	service := &Service{
		config:              cfg,
		engine:              engine,
		notificationService: notificationService,
		moderator:           moderation.NewGroqModerator(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqBaseURL),
		metrics: &Metrics{
			PlatformBreakdown: make(map[string]int),
			ThreatBreakdown:   make(map[string]int),
		},
	}

	// Initialize data sources
	service.initializeSources()

	return service
}

func (s *Service) initializeSources() {
	s.youtube = sources.NewYouTubeSource(s.config.YouTubeAPIKey, s.config.ScrapeTimeout)
	s.instagram = sources.NewInstagramSource(s.config.ApifyToken, s.config.InstagramActorID, instagramFetchTimeout)
}

// ScrapeVideo resolves urlOrID and fetches up to limit comments. A
// non-positive limit uses the configured default.
func (s *Service) ScrapeVideo(ctx context.Context, urlOrID string, limit int) (string, []models.RawComment, error) {
	videoID, err := sources.ExtractVideoID(urlOrID)
	if err != nil {
		return "", nil, err
	}

	raw, err := s.fetch(ctx, s.youtube, videoID, s.config.ClampLimit(limit))
	if err != nil {
		return videoID, nil, err
	}
	return videoID, raw, nil
}

// AnalyzeVideo scrapes and analyzes one YouTube video
func (s *Service) AnalyzeVideo(ctx context.Context, urlOrID string, keywords []string, limit int) (*models.AnalysisReport, error) {
	videoID, raw, err := s.ScrapeVideo(ctx, urlOrID, limit)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoComments
	}

	report, err := s.analyze(platformYouTube, videoID, raw, keywords)
	if err != nil {
		return nil, err
	}
	report.VideoURL = sources.VideoURL(videoID)
	return report, nil
}

// AnalyzeComments analyzes client-supplied comments. An empty targetID is
// reported as DefaultTargetID.
func (s *Service) AnalyzeComments(targetID string, raw []models.RawComment, keywords []string) (*models.AnalysisReport, error) {
	if targetID == "" {
		targetID = DefaultTargetID
	}
	return s.analyze(platformManual, targetID, raw, keywords)
}

// AnalyzeInstagram scrapes a post or profile, reviews each comment with the
// moderator and runs the engine over the same comments
func (s *Service) AnalyzeInstagram(ctx context.Context, req InstagramRequest) (*models.InstagramReport, error) {
	target := strings.TrimSpace(req.PostURL)
	if target == "" {
		target = strings.TrimSpace(req.Username)
	}
	if target == "" {
		return nil, ErrMissingTarget
	}

	limit := req.CommentsLimit
	if limit <= 0 {
		limit = s.config.InstagramCommentLimit
	}
	limit = min(limit, s.config.MaxCommentLimit)

	raw, err := s.fetch(ctx, s.instagram, target, limit)
	if err != nil {
		return nil, err
	}

	targetURL, _ := sources.TargetURL(target)
	reviewed := s.reviewComments(ctx, raw)
	scannedAt := time.Now().UTC().Format(time.RFC3339)

	flagged := make([]models.FlaggedAccount, 0)
	for _, c := range reviewed {
		if risk, ok := moderation.Risk(c.ToxicityAnalysis); ok {
			lastSeen := c.Time
			if lastSeen == "" {
				lastSeen = scannedAt
			}
			flagged = append(flagged, models.FlaggedAccount{
				Handle:   c.Username,
				Platform: "Instagram",
				Risk:     risk,
				Comment:  c.Text,
				LastSeen: lastSeen,
				URL:      targetURL,
			})
		}
	}

	report, err := s.analyze(platformInstagram, targetURL, raw, nil)
	if err != nil {
		return nil, err
	}
	report.VideoURL = targetURL

	logrus.Infof("Instagram analysis of %s: %d comments, %d flagged", targetURL, len(reviewed), len(flagged))

	return &models.InstagramReport{
		Success:   true,
		ScanID:    "ig_" + uuid.New().String(),
		URL:       targetURL,
		Comments:  reviewed,
		Flagged:   flagged,
		Sentiment: summarizeSentiment(len(reviewed), len(flagged)),
		Summary:   fmt.Sprintf("Analyzed %d comments; flagged %d potentially harmful.", len(reviewed), len(flagged)),
		Report:    report,
	}, nil
}

func summarizeSentiment(total, hate int) models.SentimentSummary {
	neutral := total / 5
	return models.SentimentSummary{
		Positive: max(0, total-hate-neutral),
		Neutral:  neutral,
		Hate:     hate,
	}
}

// reviewComments fans moderation out over a small worker pool, keeping input order
func (s *Service) reviewComments(ctx context.Context, raw []models.RawComment) []models.ReviewedComment {
	reviewed := make([]models.ReviewedComment, len(raw))
	sem := make(chan struct{}, moderationWorkers)
	var wg sync.WaitGroup

	for i := range raw {
		comment := analysis.NormalizeComment(raw[i], i)
		reviewed[i] = models.ReviewedComment{Username: comment.Author, Text: comment.Text}
		if ts, ok := comment.Time.(string); ok {
			reviewed[i].Time = ts
		}

		wg.Add(1)
		go func(idx int, text string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			verdict := s.moderator.Review(ctx, text)
			metrics.ModerationRequests.WithLabelValues(verdict.OverallSafety).Inc()
			reviewed[idx].ToxicityAnalysis = verdict
		}(i, comment.Text)
	}

	wg.Wait()
	return reviewed
}

func (s *Service) fetch(ctx context.Context, source sources.Source, target string, limit int) ([]models.RawComment, error) {
	start := time.Now()
	raw, err := source.FetchComments(ctx, target, limit)
	metrics.ScrapeLatency.WithLabelValues(source.GetName()).Observe(time.Since(start).Seconds())

	if err != nil {
		s.recordError()
		metrics.AnalysisErrors.WithLabelValues(source.GetName(), "scrape").Inc()
		return nil, fmt.Errorf("%w: %s: %w", ErrScrapeFailed, source.GetName(), err)
	}

	metrics.CommentsScraped.WithLabelValues(source.GetName()).Add(float64(len(raw)))
	return raw, nil
}

func (s *Service) analyze(platform, targetID string, raw []models.RawComment, keywords []string) (*models.AnalysisReport, error) {
	start := time.Now()
	report, err := s.engine.Analyze(targetID, raw, keywords)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		stage := "unknown"
		var failure *analysis.AnalysisFailure
		if errors.As(err, &failure) {
			stage = failure.Stage
		}
		metrics.AnalysisErrors.WithLabelValues(platform, stage).Inc()
		s.recordError()
		return nil, err
	}

	metrics.AnalysesTotal.WithLabelValues(platform, string(report.Statistics.ThreatLevel)).Inc()
	s.recordAnalysis(platform, report)

	logrus.WithFields(logrus.Fields{
		"platform":     platform,
		"target":       targetID,
		"comments":     report.Statistics.TotalComments,
		"threat_level": report.Statistics.ThreatLevel,
	}).Info("Analysis completed")

	return report, nil
}

// RunWatch analyzes every watch list video concurrently and raises an alert
// for each HIGH or CRITICAL result. Only one run executes at a time; an
// overlapping call returns ErrWatchInProgress.
func (s *Service) RunWatch() error {
	if !s.watchMu.TryLock() {
		logrus.Warn("Watch run requested while another is running, skipping")
		return ErrWatchInProgress
	}
	defer s.watchMu.Unlock()

	if len(s.config.WatchVideos) == 0 {
		logrus.Debug("Watch list empty, nothing to do")
		return nil
	}

	start := time.Now()
	logrus.Infof("Starting watch run over %d videos", len(s.config.WatchVideos))

	ctx, cancel := context.WithTimeout(context.Background(), watchRunTimeout)
	defer cancel()

	var wg sync.WaitGroup
	reportsChan := make(chan *models.AnalysisReport, len(s.config.WatchVideos))
	errorsChan := make(chan error, len(s.config.WatchVideos))

	// Analyze all videos concurrently
	for _, video := range s.config.WatchVideos {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()

			report, err := s.AnalyzeVideo(ctx, target, s.config.WatchKeywords, s.config.DefaultCommentLimit)
			if err != nil {
				logrus.Errorf("Watch analysis of %s failed: %v", target, err)
				errorsChan <- err
				return
			}

			reportsChan <- report
		}(video)
	}

	// Close channels when all goroutines complete
	go func() {
		wg.Wait()
		close(reportsChan)
		close(errorsChan)
	}()

	var alertErrors []string
	analyzed := 0
	for report := range reportsChan {
		analyzed++
		alert := s.AlertFor(report)
		if alert == nil {
			continue
		}

		if err := s.notificationService.SendAlert(alert); err != nil {
			logrus.Errorf("Failed to send alert for %s: %v", report.VideoID, err)
			alertErrors = append(alertErrors, fmt.Sprintf("%s: %v", report.VideoID, err))
			continue
		}

		metrics.AlertsSent.Inc()
		s.mu.Lock()
		s.metrics.AlertsSent++
		s.mu.Unlock()
	}

	// Count errors
	errorCount := 0
	for range errorsChan {
		errorCount++
	}

	s.mu.Lock()
	s.metrics.LastWatchRun = time.Now()
	s.metrics.LastWatchDuration = time.Since(start).String()
	s.mu.Unlock()

	logrus.Infof("Watch run completed in %v: %d analyzed, %d failed", time.Since(start), analyzed, errorCount)

	if len(alertErrors) > 0 {
		return fmt.Errorf("failed to send alerts: %s", strings.Join(alertErrors, "; "))
	}
	return nil
}

// AlertFor returns nil unless the report is HIGH or CRITICAL
func (s *Service) AlertFor(report *models.AnalysisReport) *models.Alert {
	level := report.Statistics.ThreatLevel
	if level != models.ThreatHigh && level != models.ThreatCritical {
		return nil
	}

	return &models.Alert{
		ID:    uuid.New().String(),
		Type:  strings.ToLower(string(level)),
		Title: fmt.Sprintf("%s threat on %s", level, report.VideoID),
		Message: fmt.Sprintf("Watch list analysis of %d comments found %d bot, %d harassment and %d copyright comments",
			report.Statistics.TotalComments, report.Statistics.BotComments,
			report.Statistics.HarassmentComments, report.Statistics.CopyrightViolations),
		Report:    report,
		CreatedAt: time.Now(),
	}
}

func (s *Service) recordAnalysis(platform string, report *models.AnalysisReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalAnalyses++
	s.metrics.CommentsAnalyzed += report.Statistics.TotalComments
	s.metrics.PlatformBreakdown[platform]++
	s.metrics.ThreatBreakdown[string(report.Statistics.ThreatLevel)]++
	s.metrics.LastAnalysis = report.Timestamp
}

func (s *Service) recordError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.ErrorCount++
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
