package analysis

import (
	"fmt"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/sirupsen/logrus"
)

// AnalysisFailure is returned when the pipeline hits a programmer error.
// Malformed comments never cause one.
type AnalysisFailure struct {
	Stage string
	Cause interface{}
}

func (f *AnalysisFailure) Error() string {
	return fmt.Sprintf("analysis failed during %s: %v", f.Stage, f.Cause)
}

// Options tunes the grouper
type Options struct {
	SimilarityThreshold float64
	MinGroupSize        int
}

// DefaultOptions returns the stock thresholds
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: DefaultSimilarityThreshold,
		MinGroupSize:        DefaultMinGroupSize,
	}
}

// Engine runs the classification pipeline. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	grouper    *Grouper
	spam       *SpamMatcher
	harassment *HarassmentMatcher
	copyright  *CopyrightMatcher
	now        func() time.Time
}

// NewEngine creates an engine. Zero-valued options fall back to the defaults.
func NewEngine(opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = defaults.SimilarityThreshold
	}
	if opts.MinGroupSize <= 0 {
		opts.MinGroupSize = defaults.MinGroupSize
	}

	return &Engine{
		grouper:    NewGrouper(opts.SimilarityThreshold, opts.MinGroupSize),
		spam:       NewSpamMatcher(),
		harassment: NewHarassmentMatcher(),
		copyright:  NewCopyrightMatcher(),
		now:        time.Now,
	}
}

// Analyze normalizes raw comments and produces the full report for targetID.
// An empty comment set yields zeroed statistics.
func (e *Engine) Analyze(targetID string, raw []models.RawComment, keywords []string) (report *models.AnalysisReport, err error) {
	stage := "normalize"
	defer recoverFailure(&stage, &err)

	comments := NormalizeComments(raw)

	stage = "bot detection"
	logrus.Debugf("Detecting bot comments in %d comments for %s", len(comments), targetID)
	bots := e.detectBots(comments)

	stage = "harassment detection"
	harassmentIndicators, harassmentComments := e.harassment.Detect(comments)

	stage = "copyright detection"
	violations := e.copyright.Detect(comments, NewKeywordSet(keywords))

	stage = "aggregation"
	stats := Aggregate(len(comments), bots, harassmentComments, violations)

	report = &models.AnalysisReport{
		Success:              true,
		VideoID:              targetID,
		Timestamp:            e.now(),
		Statistics:           stats,
		Comments:             comments,
		BotIndicators:        bots,
		HarassmentIndicators: harassmentIndicators,
		HarassmentComments:   harassmentComments,
		CopyrightViolations:  violations,
		Conclusion:           BuildConclusion(stats, harassmentIndicators),
	}
	return report, nil
}

// DetectBots returns duplicate, similar and spam indicators for raw comments
func (e *Engine) DetectBots(raw []models.RawComment) (indicators []models.BotIndicator, err error) {
	stage := "bot detection"
	defer recoverFailure(&stage, &err)

	return e.detectBots(NormalizeComments(raw)), nil
}

// DetectHarassment returns harassment indicators and flagged comments
func (e *Engine) DetectHarassment(raw []models.RawComment) (indicators []models.HarassmentIndicator, comments []models.HarassmentComment, err error) {
	stage := "harassment detection"
	defer recoverFailure(&stage, &err)

	indicators, comments = e.harassment.Detect(NormalizeComments(raw))
	return indicators, comments, nil
}

// DetectCopyright returns copyright violations for raw comments
func (e *Engine) DetectCopyright(raw []models.RawComment, keywords []string) (violations []models.CopyrightViolation, err error) {
	stage := "copyright detection"
	defer recoverFailure(&stage, &err)

	return e.copyright.Detect(NormalizeComments(raw), NewKeywordSet(keywords)), nil
}

func (e *Engine) detectBots(comments []models.Comment) []models.BotIndicator {
	indicators := make([]models.BotIndicator, 0)
	indicators = append(indicators, e.grouper.Group(comments)...)
	if spam := e.spam.Detect(comments); spam != nil {
		indicators = append(indicators, *spam)
	}
	return indicators
}

func recoverFailure(stage *string, err *error) {
	if r := recover(); r != nil {
		logrus.Errorf("Analysis panicked during %s: %v", *stage, r)
		*err = &AnalysisFailure{Stage: *stage, Cause: r}
	}
}
