package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	reviewTemperature = 0.1
	reviewMaxTokens   = 200
	reviewTimeout     = 20 * time.Second
)

const reviewPrompt = `Analyze the following social media comment for toxicity, threats, and harassment.
Provide a JSON response with the following structure:
{
  "toxicity_level": "low/medium/high",
  "threat_level": "none/low/medium/high",
  "harassment_level": "none/low/medium/high",
  "overall_safety": "safe/concerning/dangerous",
  "explanation": "brief explanation of the analysis"
}

Comment to analyze: %q

Respond only with valid JSON.`

// Reviewer scores a single comment for toxicity
type Reviewer interface {
	Enabled() bool
	Review(ctx context.Context, text string) models.ToxicityAnalysis
}

// GroqModerator reviews comments with a Groq hosted model through its
// OpenAI-compatible API
type GroqModerator struct {
	client *openai.Client
	model  string
}

// Ensure GroqModerator implements Reviewer
var _ Reviewer = (*GroqModerator)(nil)

// NewGroqModerator creates a moderator. An empty apiKey yields a disabled
// moderator that never calls out.
func NewGroqModerator(apiKey, model, baseURL string) *GroqModerator {
	if apiKey == "" {
		return &GroqModerator{model: model}
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &GroqModerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (g *GroqModerator) Enabled() bool {
	return g.client != nil
}

// Review never fails: empty text is safe, and any upstream or parse error
// degrades to an "unknown" verdict
func (g *GroqModerator) Review(ctx context.Context, text string) models.ToxicityAnalysis {
	if strings.TrimSpace(text) == "" {
		return EmptyVerdict()
	}
	if !g.Enabled() {
		return unknownVerdict("Moderation disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, reviewTimeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: reviewTemperature,
		MaxTokens:   reviewMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(reviewPrompt, text)},
		},
	})
	if err != nil {
		logrus.Warnf("Groq review failed: %v", err)
		return unknownVerdict("Analysis failed")
	}
	if len(resp.Choices) == 0 {
		logrus.Warn("Groq review returned no choices")
		return unknownVerdict("Analysis failed")
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		logrus.Warnf("Failed to parse Groq verdict: %v", err)
		return unknownVerdict("Analysis failed")
	}
	return verdict
}

// parseVerdict tolerates a fenced or prefixed reply by decoding the outermost
// JSON object in content
func parseVerdict(content string) (models.ToxicityAnalysis, error) {
	var verdict models.ToxicityAnalysis

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return verdict, fmt.Errorf("no JSON object in response")
	}

	if err := json.Unmarshal([]byte(content[start:end+1]), &verdict); err != nil {
		return verdict, fmt.Errorf("invalid verdict JSON: %w", err)
	}
	return verdict, nil
}

// EmptyVerdict is the verdict for a blank comment
func EmptyVerdict() models.ToxicityAnalysis {
	return models.ToxicityAnalysis{
		ToxicityLevel:   "none",
		ThreatLevel:     "none",
		HarassmentLevel: "none",
		OverallSafety:   "safe",
		Explanation:     "Empty comment",
	}
}

func unknownVerdict(explanation string) models.ToxicityAnalysis {
	return models.ToxicityAnalysis{
		ToxicityLevel:   "unknown",
		ThreatLevel:     "unknown",
		HarassmentLevel: "unknown",
		OverallSafety:   "unknown",
		Explanation:     explanation,
	}
}

// Risk grades a verdict for the flagged-accounts list. The second result is
// false when the comment should not be flagged.
func Risk(v models.ToxicityAnalysis) (string, bool) {
	switch {
	case v.ToxicityLevel == "high" || v.HarassmentLevel == "high":
		return "High", true
	case v.ToxicityLevel == "medium" || v.HarassmentLevel == "medium":
		return "Medium", true
	default:
		return "", false
	}
}
