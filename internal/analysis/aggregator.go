package analysis

import "github.com/aegis-sec/aegis-analyzer/internal/models"

// tierLimits are exclusive upper bounds; exceeding any one selects the tier
type tierLimits struct {
	Bot        int
	Violations int
	Harassment int
}

// threatTiers is evaluated top to bottom; the first tier that fires wins
var threatTiers = []struct {
	Level  models.ThreatLevel
	Limits tierLimits
}{
	{Level: models.ThreatCritical, Limits: tierLimits{Bot: 20, Violations: 10, Harassment: 15}},
	{Level: models.ThreatHigh, Limits: tierLimits{Bot: 10, Violations: 5, Harassment: 8}},
	{Level: models.ThreatModerate, Limits: tierLimits{Bot: 5, Violations: 2, Harassment: 3}},
}

// limitsFor returns the limits that select level, or zero limits for LOW
func limitsFor(level models.ThreatLevel) tierLimits {
	for _, tier := range threatTiers {
		if tier.Level == level {
			return tier.Limits
		}
	}
	return tierLimits{}
}

// ThreatLevelFor maps aggregate counts to a threat level
func ThreatLevelFor(bot, violations, harassment int) models.ThreatLevel {
	for _, tier := range threatTiers {
		if bot > tier.Limits.Bot || violations > tier.Limits.Violations || harassment > tier.Limits.Harassment {
			return tier.Level
		}
	}
	return models.ThreatLow
}

// BotCommentCount sums duplicate and similar groups. Spam hits are not bot comments.
func BotCommentCount(indicators []models.BotIndicator) int {
	total := 0
	for _, indicator := range indicators {
		if indicator.Type == models.IndicatorDuplicateText || indicator.Type == models.IndicatorSimilarText {
			total += indicator.Count
		}
	}
	return total
}

// Aggregate builds the statistics block of a report
func Aggregate(total int, bots []models.BotIndicator, harassment []models.HarassmentComment, violations []models.CopyrightViolation) models.Statistics {
	stats := models.Statistics{
		TotalComments:       total,
		BotComments:         BotCommentCount(bots),
		HarassmentComments:  len(harassment),
		CopyrightViolations: len(violations),
	}
	stats.ThreatLevel = ThreatLevelFor(stats.BotComments, stats.CopyrightViolations, stats.HarassmentComments)
	return stats
}
