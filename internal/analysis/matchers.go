package analysis

import (
	"github.com/aegis-sec/aegis-analyzer/internal/models"
)

const (
	maxExamples      = 5
	spamTextPreview  = 100
	crowdedTypeLimit = 5 // a sub-type with more members than this is high severity
)

// SpamMatcher flags promotional and solicitation comments
type SpamMatcher struct {
	patterns []Pattern
}

// NewSpamMatcher creates a matcher over SpamPatterns
func NewSpamMatcher() *SpamMatcher {
	return &SpamMatcher{patterns: SpamPatterns}
}

// Match returns the first pattern that fires on text
func (m *SpamMatcher) Match(text string) (*models.PatternMatch, bool) {
	for _, p := range m.patterns {
		if p.MatchString(text) {
			return &models.PatternMatch{
				Category:        p.Group,
				Severity:        models.SeverityMedium,
				MatchedPatterns: []string{p.Expr},
			}, true
		}
	}
	return nil, false
}

// Detect batches every spam comment into a single spam_pattern indicator.
// It returns nil when nothing matched.
func (m *SpamMatcher) Detect(comments []models.Comment) *models.BotIndicator {
	count := 0
	var examples []models.SpamExample
	for _, c := range comments {
		match, ok := m.Match(c.Text)
		if !ok {
			continue
		}
		count++
		if len(examples) < maxExamples {
			examples = append(examples, models.SpamExample{
				Author:  c.Author,
				Text:    truncate(c.Text, spamTextPreview),
				Pattern: match.MatchedPatterns[0],
			})
		}
	}

	if count == 0 {
		return nil
	}
	return &models.BotIndicator{
		Type:     models.IndicatorSpamPattern,
		Severity: models.SeverityMedium,
		Count:    count,
		Examples: examples,
	}
}

// HarassmentMatcher flags abusive comments and assigns each one sub-type
type HarassmentMatcher struct {
	patterns []Pattern
}

// NewHarassmentMatcher creates a matcher over HarassmentPatterns
func NewHarassmentMatcher() *HarassmentMatcher {
	return &HarassmentMatcher{patterns: HarassmentPatterns}
}

// Match collects every harassment pattern that fires on text
func (m *HarassmentMatcher) Match(text string) (*models.PatternMatch, bool) {
	var matched []string
	for _, p := range m.patterns {
		if p.MatchString(text) {
			matched = append(matched, p.Expr)
		}
	}
	if len(matched) == 0 {
		return nil, false
	}

	severity := models.SeverityMedium
	if len(matched) > 1 {
		severity = models.SeverityHigh
	}
	return &models.PatternMatch{
		Category:        ClassifyHarassment(matched),
		Severity:        severity,
		MatchedPatterns: matched,
	}, true
}

// Detect returns one indicator per sub-type present (in order of first
// appearance) and the full list of flagged comments.
func (m *HarassmentMatcher) Detect(comments []models.Comment) ([]models.HarassmentIndicator, []models.HarassmentComment) {
	flagged := make([]models.HarassmentComment, 0)
	for _, c := range comments {
		match, ok := m.Match(c.Text)
		if !ok {
			continue
		}
		flagged = append(flagged, models.HarassmentComment{
			Author:          c.Author,
			Text:            c.Text,
			Time:            c.Time,
			Likes:           c.Likes,
			MatchedPatterns: match.MatchedPatterns,
			Severity:        match.Severity,
			CommentID:       c.ID,
			Type:            match.Category,
		})
	}

	byType := make(map[string][]models.HarassmentComment)
	var order []string
	for _, h := range flagged {
		if _, ok := byType[h.Type]; !ok {
			order = append(order, h.Type)
		}
		byType[h.Type] = append(byType[h.Type], h)
	}

	indicators := make([]models.HarassmentIndicator, 0, len(order))
	for _, kind := range order {
		items := byType[kind]
		severity := models.SeverityMedium
		if len(items) > crowdedTypeLimit {
			severity = models.SeverityHigh
		}
		examples := items
		if len(examples) > maxExamples {
			examples = examples[:maxExamples]
		}
		indicators = append(indicators, models.HarassmentIndicator{
			Type:     kind,
			Severity: severity,
			Count:    len(items),
			Examples: examples,
		})
	}

	return indicators, flagged
}

// CopyrightMatcher flags piracy language and caller-supplied keywords
type CopyrightMatcher struct {
	patterns []Pattern
}

// NewCopyrightMatcher creates a matcher over PiracyPatterns
func NewCopyrightMatcher() *CopyrightMatcher {
	return &CopyrightMatcher{patterns: PiracyPatterns}
}

// Detect returns one violation per comment matching a fixed pattern or a keyword
func (m *CopyrightMatcher) Detect(comments []models.Comment, keywords *KeywordSet) []models.CopyrightViolation {
	violations := make([]models.CopyrightViolation, 0)
	for _, c := range comments {
		matched := make([]string, 0)
		for _, p := range m.patterns {
			if p.MatchString(c.Text) {
				matched = append(matched, p.Expr)
			}
		}

		keywordMatches := keywords.Match(c.Text)
		if keywordMatches == nil {
			keywordMatches = []string{}
		}

		if len(matched) == 0 && len(keywordMatches) == 0 {
			continue
		}

		severity := models.SeverityMedium
		if len(matched) > 0 {
			severity = models.SeverityHigh
		}
		violations = append(violations, models.CopyrightViolation{
			Author:          c.Author,
			Text:            c.Text,
			Time:            c.Time,
			Likes:           c.Likes,
			MatchedPatterns: matched,
			KeywordMatches:  keywordMatches,
			Severity:        severity,
			CommentID:       c.ID,
		})
	}
	return violations
}
