package models

import "time"

// RawComment is a loosely typed comment payload as returned by a scraper or
// posted by a client. Field names and presence vary by platform.
type RawComment map[string]interface{}

// Comment is the normalized unit of analysis
type Comment struct {
	ID      string      `json:"id"`
	Text    string      `json:"text"`
	Author  string      `json:"author"`
	Time    interface{} `json:"time"`    // passed through as received
	Likes   interface{} `json:"likes"`   // int or platform string such as "1.2K"
	Replies interface{} `json:"replies"` // int or platform string
}

// Severity of a single finding
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ThreatLevel is the video-level verdict
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "LOW"
	ThreatModerate ThreatLevel = "MODERATE"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatCritical ThreatLevel = "CRITICAL"
)

// Bot indicator types
const (
	IndicatorDuplicateText = "duplicate_text"
	IndicatorSimilarText   = "similar_text"
	IndicatorSpamPattern   = "spam_pattern"
)

// PatternMatch is the result of testing one comment against one rule category
type PatternMatch struct {
	Category        string   `json:"category"`
	Severity        Severity `json:"severity"`
	MatchedPatterns []string `json:"matched_patterns"`
}

// SpamExample is one sampled comment in a spam_pattern indicator
type SpamExample struct {
	Author  string `json:"author"`
	Text    string `json:"text"`
	Pattern string `json:"pattern"`
}

// BotIndicator summarizes a group of comments that look automated.
// Duplicate and similar groups carry Text/Authors/CommentIDs; spam carries Examples.
type BotIndicator struct {
	Type       string        `json:"type"`
	Severity   Severity      `json:"severity"`
	Count      int           `json:"count"`
	Text       string        `json:"text,omitempty"`
	Similarity string        `json:"similarity,omitempty"`
	Authors    []string      `json:"authors,omitempty"`
	CommentIDs []string      `json:"comment_ids,omitempty"`
	Examples   []SpamExample `json:"examples,omitempty"`
}

// HarassmentComment is a comment flagged by the harassment matcher
type HarassmentComment struct {
	Author          string      `json:"author"`
	Text            string      `json:"text"`
	Time            interface{} `json:"time"`
	Likes           interface{} `json:"likes"`
	MatchedPatterns []string    `json:"matched_patterns"`
	Severity        Severity    `json:"severity"`
	CommentID       string      `json:"comment_id"`
	Type            string      `json:"type"`
}

// HarassmentIndicator groups harassment comments of one sub-type
type HarassmentIndicator struct {
	Type     string              `json:"type"`
	Severity Severity            `json:"severity"`
	Count    int                 `json:"count"`
	Examples []HarassmentComment `json:"examples"`
}

// CopyrightViolation is a comment flagged by the piracy matcher
type CopyrightViolation struct {
	Author          string      `json:"author"`
	Text            string      `json:"text"`
	Time            interface{} `json:"time"`
	Likes           interface{} `json:"likes"`
	MatchedPatterns []string    `json:"matched_patterns"`
	KeywordMatches  []string    `json:"keyword_matches"`
	Severity        Severity    `json:"severity"`
	CommentID       string      `json:"comment_id"`
}

// Statistics holds the aggregate counts of a report
type Statistics struct {
	TotalComments       int         `json:"total_comments"`
	BotComments         int         `json:"bot_comments"`
	HarassmentComments  int         `json:"harassment_comments"`
	CopyrightViolations int         `json:"copyright_violations"`
	ThreatLevel         ThreatLevel `json:"threat_level"`
}

// AnalysisReport is the full verdict for one video or post
type AnalysisReport struct {
	Success              bool                  `json:"success"`
	VideoID              string                `json:"video_id"`
	VideoURL             string                `json:"video_url,omitempty"`
	Timestamp            time.Time             `json:"timestamp"`
	Statistics           Statistics            `json:"statistics"`
	Comments             []Comment             `json:"comments"`
	BotIndicators        []BotIndicator        `json:"bot_indicators"`
	HarassmentIndicators []HarassmentIndicator `json:"harassment_indicators"`
	HarassmentComments   []HarassmentComment   `json:"harassment_comments"`
	CopyrightViolations  []CopyrightViolation  `json:"copyright_violations"`
	Conclusion           string                `json:"conclusion"`
}

// ToxicityAnalysis is the third-party moderation verdict for one comment
type ToxicityAnalysis struct {
	ToxicityLevel   string `json:"toxicity_level"`
	ThreatLevel     string `json:"threat_level"`
	HarassmentLevel string `json:"harassment_level"`
	OverallSafety   string `json:"overall_safety"`
	Explanation     string `json:"explanation"`
}

// ReviewedComment pairs an Instagram comment with its moderation verdict
type ReviewedComment struct {
	Username         string           `json:"username"`
	Text             string           `json:"text"`
	Time             string           `json:"time,omitempty"`
	ToxicityAnalysis ToxicityAnalysis `json:"toxicity_analysis"`
}

// FlaggedAccount is an account whose comment was reviewed as medium or high risk
type FlaggedAccount struct {
	Handle   string `json:"handle"`
	Platform string `json:"platform"`
	Risk     string `json:"risk"`
	Comment  string `json:"comment"`
	LastSeen string `json:"last_seen"`
	URL      string `json:"url"`
}

// SentimentSummary splits reviewed comments into coarse buckets. Hate counts
// flagged comments, neutral is a fixed fifth of the total and positive is the
// remainder.
type SentimentSummary struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Hate     int `json:"hate"`
}

// InstagramReport is the result of an Instagram post or profile analysis
type InstagramReport struct {
	Success   bool              `json:"success"`
	ScanID    string            `json:"scan_id"`
	URL       string            `json:"url"`
	Comments  []ReviewedComment `json:"comments"`
	Flagged   []FlaggedAccount  `json:"flagged"`
	Sentiment SentimentSummary  `json:"sentiment"`
	Summary   string            `json:"summary"`
	Report    *AnalysisReport   `json:"report"`
}

// Alert represents an urgent notification about a watched video
type Alert struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"` // "critical", "high"
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Report    *AnalysisReport `json:"report,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
