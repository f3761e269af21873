package analysis

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aegis-sec/aegis-analyzer/internal/models"
)

// BuildConclusion renders the narrative for a report. Sections are, in order:
// headline and alerts, bot activity, copyright, recommendation, and the
// harassment breakdown.
func BuildConclusion(stats models.Statistics, indicators []models.HarassmentIndicator) string {
	types := harassmentTypeSummaries(indicators)
	total := stats.TotalComments
	bots := stats.BotComments
	harassment := stats.HarassmentComments
	violations := stats.CopyrightViolations

	var parts []string
	add := func(format string, args ...interface{}) {
		parts = append(parts, fmt.Sprintf(format, args...))
	}

	// a section is cited only when its count alone exceeds the tier limit
	limits := limitsFor(stats.ThreatLevel)

	switch stats.ThreatLevel {
	case models.ThreatCritical:
		add("⚠️ CRITICAL THREAT DETECTED: This video has %d comments with severe issues.", total)
		if harassment > limits.Harassment {
			add("🚨 HARASSMENT ALERT: %d comments contain harassment, including %s.", harassment, joinFirst(types, 3))
			add("Immediate action required. Multiple users are engaging in coordinated harassment and personal attacks.")
		}
		if bots > limits.Bot {
			add("🤖 BOT ACTIVITY: %d bot/spam comments detected, indicating coordinated manipulation.", bots)
		}
		if violations > limits.Violations {
			add("⚖️ COPYRIGHT VIOLATIONS: %d comments contain piracy links or copyright violations.", violations)
		}
		add("RECOMMENDATION: Report to platform immediately. Consider legal action for harassment and copyright violations.")

	case models.ThreatHigh:
		add("⚠️ HIGH THREAT LEVEL: Analysis of %d comments reveals significant concerns.", total)
		if harassment > limits.Harassment {
			add("🚨 %d harassment comments detected: %s.", harassment, joinFirst(types, 2))
			add("Multiple users are engaging in harmful behavior including body shaming and personal attacks.")
		}
		if bots > limits.Bot {
			add("🤖 %d bot comments suggest coordinated spam activity.", bots)
		}
		if violations > limits.Violations {
			add("⚖️ %d copyright violations found in comments.", violations)
		}
		add("RECOMMENDATION: Monitor closely and report violating accounts. Document evidence for potential action.")

	case models.ThreatModerate:
		add("⚠️ MODERATE CONCERNS: %d comments analyzed with some issues detected.", total)
		if harassment > 0 {
			add("⚠️ %d comments contain harassment: %s.", harassment, joinFirst(types, len(types)))
			add("Some users are engaging in negative behavior that should be monitored.")
		}
		if bots > 0 {
			add("🤖 %d potential bot/spam comments detected.", bots)
		}
		if violations > 0 {
			add("⚖️ %d potential copyright violations found.", violations)
		}
		add("RECOMMENDATION: Continue monitoring. Report specific violating comments to platform.")

	default:
		add("✅ LOW THREAT: Analysis of %d comments shows minimal concerns.", total)
		if harassment > 0 {
			add("Minor issues: %d comments flagged for review.", harassment)
		} else {
			add("No significant harassment, bot activity, or copyright violations detected.")
		}
		if bots == 0 && violations == 0 && harassment == 0 {
			add("This video has a healthy comment section with positive community engagement.")
		}
		add("RECOMMENDATION: Routine monitoring sufficient. Community appears well-moderated.")
	}

	if len(types) > 0 {
		add("\n📋 HARASSMENT BREAKDOWN: %s", strings.Join(types, ", "))
	}

	return strings.Join(parts, "\n\n")
}

// harassmentTypeSummaries renders "Body Shaming (3 instances)" per indicator
func harassmentTypeSummaries(indicators []models.HarassmentIndicator) []string {
	// a Caser is stateful, so each call gets its own
	caser := cases.Title(language.English)
	summaries := make([]string, 0, len(indicators))
	for _, indicator := range indicators {
		name := caser.String(strings.ReplaceAll(indicator.Type, "_", " "))
		summaries = append(summaries, fmt.Sprintf("%s (%d instances)", name, indicator.Count))
	}
	return summaries
}

func joinFirst(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}
