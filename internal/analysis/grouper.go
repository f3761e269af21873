package analysis

import (
	"fmt"

	"github.com/aegis-sec/aegis-analyzer/internal/models"
)

const (
	// DefaultSimilarityThreshold is the ratio a pair must exceed to cluster
	DefaultSimilarityThreshold = 0.85
	// DefaultMinGroupSize is the smallest duplicate or similar group reported
	DefaultMinGroupSize = 3

	groupTextPreview = 100
)

// Grouper partitions a comment set into exact-duplicate groups and greedy
// similarity clusters.
type Grouper struct {
	similarityThreshold float64
	minGroupSize        int
}

// NewGrouper creates a grouper with the given thresholds
func NewGrouper(similarityThreshold float64, minGroupSize int) *Grouper {
	return &Grouper{
		similarityThreshold: similarityThreshold,
		minGroupSize:        minGroupSize,
	}
}

// processedSet holds comment indices already assigned to a reported group or
// cluster; they are never compared again.
type processedSet map[int]struct{}

func (p processedSet) has(i int) bool {
	_, ok := p[i]
	return ok
}

func (p processedSet) add(i int) {
	p[i] = struct{}{}
}

// Group returns duplicate_text indicators followed by similar_text indicators
func (g *Grouper) Group(comments []models.Comment) []models.BotIndicator {
	normalized := make([]string, len(comments))
	for i, c := range comments {
		normalized[i] = normalizeText(c.Text)
	}

	processed := make(processedSet)
	indicators := g.exactDuplicates(comments, normalized, processed)
	indicators = append(indicators, g.similarClusters(comments, normalized, processed)...)
	return indicators
}

// exactDuplicates buckets comments by normalized text and reports every bucket
// of at least minGroupSize, in order of first appearance. Members of reported
// buckets are added to processed.
func (g *Grouper) exactDuplicates(comments []models.Comment, normalized []string, processed processedSet) []models.BotIndicator {
	buckets := make(map[string][]int)
	var order []string
	for i, text := range normalized {
		if _, seen := buckets[text]; !seen {
			order = append(order, text)
		}
		buckets[text] = append(buckets[text], i)
	}

	var indicators []models.BotIndicator
	for _, text := range order {
		indices := buckets[text]
		if len(indices) < g.minGroupSize {
			continue
		}
		for _, i := range indices {
			processed.add(i)
		}
		indicators = append(indicators, g.indicator(models.IndicatorDuplicateText, models.SeverityHigh, text, comments, indices))
	}
	return indicators
}

// similarClusters runs the greedy seed pass: each unprocessed comment seeds a
// cluster, and every later unprocessed comment whose ratio against the seed
// exceeds the threshold joins it and is marked processed. Membership is not
// transitive and depends on seed order.
func (g *Grouper) similarClusters(comments []models.Comment, normalized []string, processed processedSet) []models.BotIndicator {
	var indicators []models.BotIndicator
	for i := range comments {
		if processed.has(i) {
			continue
		}

		cluster := []int{i}
		for j := i + 1; j < len(comments); j++ {
			if processed.has(j) {
				continue
			}
			if SimilarityRatio(normalized[i], normalized[j]) > g.similarityThreshold {
				cluster = append(cluster, j)
				processed.add(j)
			}
		}

		if len(cluster) >= g.minGroupSize {
			indicator := g.indicator(models.IndicatorSimilarText, models.SeverityMedium, normalized[i], comments, cluster)
			indicator.Similarity = g.similarityLabel()
			indicators = append(indicators, indicator)
		}
	}
	return indicators
}

func (g *Grouper) indicator(kind string, severity models.Severity, text string, comments []models.Comment, indices []int) models.BotIndicator {
	authors := make([]string, 0, len(indices))
	ids := make([]string, 0, len(indices))
	for _, i := range indices {
		authors = append(authors, comments[i].Author)
		ids = append(ids, comments[i].ID)
	}
	return models.BotIndicator{
		Type:       kind,
		Severity:   severity,
		Text:       truncate(text, groupTextPreview),
		Count:      len(indices),
		Authors:    authors,
		CommentIDs: ids,
	}
}

func (g *Grouper) similarityLabel() string {
	return fmt.Sprintf("%.0f%%+", g.similarityThreshold*100)
}
