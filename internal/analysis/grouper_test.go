package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commentsFromTexts(texts ...string) []models.Comment {
	comments := make([]models.Comment, 0, len(texts))
	for i, text := range texts {
		comments = append(comments, models.Comment{
			ID:     fmt.Sprintf("c%d", i),
			Text:   text,
			Author: fmt.Sprintf("user%d", i),
		})
	}
	return comments
}

func indicatorsOfType(indicators []models.BotIndicator, kind string) []models.BotIndicator {
	var out []models.BotIndicator
	for _, indicator := range indicators {
		if indicator.Type == kind {
			out = append(out, indicator)
		}
	}
	return out
}

func TestSimilarityRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "Identical", a: "hello", b: "hello", expected: 1.0},
		{name: "Both empty", a: "", b: "", expected: 1.0},
		{name: "One empty", a: "abc", b: "", expected: 0.0},
		{name: "Shifted window", a: "abcd", b: "bcde", expected: 0.75},
		{name: "Disjoint", a: "abc", b: "xyz", expected: 0.0},
		{name: "Single characters", a: "a", b: "a", expected: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SimilarityRatio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestGrouper_ExactDuplicates(t *testing.T) {
	grouper := NewGrouper(DefaultSimilarityThreshold, DefaultMinGroupSize)

	t.Run("Normalized text is bucketed regardless of position", func(t *testing.T) {
		comments := commentsFromTexts("Nice video!", "first", " nice VIDEO! ", "something else entirely", "NICE video!")
		duplicates := indicatorsOfType(grouper.Group(comments), models.IndicatorDuplicateText)

		require.Len(t, duplicates, 1)
		assert.Equal(t, 3, duplicates[0].Count)
		assert.Equal(t, models.SeverityHigh, duplicates[0].Severity)
		assert.Equal(t, "nice video!", duplicates[0].Text)
		assert.Equal(t, []string{"c0", "c2", "c4"}, duplicates[0].CommentIDs)
		assert.Equal(t, []string{"user0", "user2", "user4"}, duplicates[0].Authors)
	})

	t.Run("Two copies are not flagged", func(t *testing.T) {
		comments := commentsFromTexts("same", "same", "different words here")
		assert.Empty(t, indicatorsOfType(grouper.Group(comments), models.IndicatorDuplicateText))
	})

	t.Run("Empty texts follow the same rule", func(t *testing.T) {
		comments := commentsFromTexts("", "  ", "", "real comment")
		duplicates := indicatorsOfType(grouper.Group(comments), models.IndicatorDuplicateText)
		require.Len(t, duplicates, 1)
		assert.Equal(t, 3, duplicates[0].Count)
		assert.Equal(t, "", duplicates[0].Text)
	})

	t.Run("Preview is capped at 100 characters", func(t *testing.T) {
		long := strings.Repeat("spam ", 40)
		duplicates := indicatorsOfType(grouper.Group(commentsFromTexts(long, long, long)), models.IndicatorDuplicateText)
		require.Len(t, duplicates, 1)
		assert.Len(t, []rune(duplicates[0].Text), 100)
	})
}

func TestGrouper_SimilarClusters(t *testing.T) {
	grouper := NewGrouper(DefaultSimilarityThreshold, DefaultMinGroupSize)

	t.Run("Near duplicates form a medium cluster", func(t *testing.T) {
		comments := commentsFromTexts(
			"this is an amazing video",
			"totally unrelated remark",
			"this is an amazing video!!",
			"this is an amazing video!",
		)
		similar := indicatorsOfType(grouper.Group(comments), models.IndicatorSimilarText)

		require.Len(t, similar, 1)
		assert.Equal(t, 3, similar[0].Count)
		assert.Equal(t, models.SeverityMedium, similar[0].Severity)
		assert.Equal(t, "85%+", similar[0].Similarity)
		assert.Equal(t, []string{"c0", "c2", "c3"}, similar[0].CommentIDs)
	})

	t.Run("Exact duplicate members are excluded from fuzzy pass", func(t *testing.T) {
		comments := commentsFromTexts("buy followers now", "buy followers now", "buy followers now", "hello there")
		indicators := grouper.Group(comments)
		assert.Len(t, indicatorsOfType(indicators, models.IndicatorDuplicateText), 1)
		assert.Empty(t, indicatorsOfType(indicators, models.IndicatorSimilarText))
	})

	t.Run("Reordering within a cluster keeps the grouping", func(t *testing.T) {
		forward := grouper.Group(commentsFromTexts("great content bro", "great content bro!", "great content bro!!"))
		reversed := grouper.Group(commentsFromTexts("great content bro!!", "great content bro!", "great content bro"))

		require.Len(t, forward, 1)
		require.Len(t, reversed, 1)
		assert.Equal(t, forward[0].Count, reversed[0].Count)
	})

	t.Run("A comment belongs to at most one cluster", func(t *testing.T) {
		comments := commentsFromTexts(
			"love this song so much",
			"love this song so much!",
			"love this song so much!!",
			"love this song so much!!!",
			"love this song so much?",
			"love this song so much.",
		)
		similar := indicatorsOfType(grouper.Group(comments), models.IndicatorSimilarText)
		total := 0
		seen := make(map[string]bool)
		for _, indicator := range similar {
			total += indicator.Count
			for _, id := range indicator.CommentIDs {
				assert.False(t, seen[id], "comment %s clustered twice", id)
				seen[id] = true
			}
		}
		assert.LessOrEqual(t, total, len(comments))
	})

	t.Run("Thresholds are configurable", func(t *testing.T) {
		loose := NewGrouper(0.4, 2)
		similar := indicatorsOfType(loose.Group(commentsFromTexts("abcdef", "abcxyz")), models.IndicatorSimilarText)
		require.Len(t, similar, 1)
		assert.Equal(t, "40%+", similar[0].Similarity)
	})
}
