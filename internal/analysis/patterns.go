package analysis

import (
	"regexp"
	"strings"
)

// Pattern is one case-insensitive rule. Expr doubles as the identifier
// reported in matched_patterns.
type Pattern struct {
	Group string
	Expr  string
	re    *regexp.Regexp
}

func newPattern(group, expr string) Pattern {
	return Pattern{Group: group, Expr: expr, re: regexp.MustCompile(expr)}
}

// MatchString reports whether the pattern occurs anywhere in text
func (p Pattern) MatchString(text string) bool {
	return p.re.MatchString(text)
}

// Spam groups
const (
	SpamPromotion   = "promotional_links"
	SpamGiveaway    = "giveaway"
	SpamSubExchange = "subscribe_exchange"
	SpamContact     = "off_platform_contact"
	SpamMoney       = "money_making"
)

// Harassment sub-types
const (
	HarassmentBodyShaming     = "body_shaming"
	HarassmentPersonalAttacks = "personal_attacks"
	HarassmentHateSpeech      = "hate_speech"
	HarassmentThreats         = "threats"
	HarassmentGeneral         = "general_harassment"
)

// Piracy groups
const (
	PiracyDownload  = "download"
	PiracyFullMedia = "full_media"
	PiracyLeak      = "leak"
	PiracyRip       = "rip"
	PiracyStreaming = "unauthorized_streaming"
	PiracyIllegal   = "illegal_copy"
)

// SpamPatterns is tested in order; the first hit wins
var SpamPatterns = []Pattern{
	newPattern(SpamPromotion, `(?i)(click here|visit|check out|link in bio)`),
	newPattern(SpamGiveaway, `(?i)(free|win|prize|gift|giveaway)`),
	newPattern(SpamSubExchange, `(?i)(subscribe|sub4sub|follow)`),
	newPattern(SpamContact, `(?i)(whatsapp|telegram|contact)`),
	newPattern(SpamMoney, `(?i)(earn money|make money|get rich)`),
}

// HarassmentPatterns are all tested against every comment
var HarassmentPatterns = []Pattern{
	newPattern(HarassmentBodyShaming, `(?i)(fat|ugly|disgusting|gross|hideous)`),
	newPattern(HarassmentBodyShaming, `(?i)(lose weight|too fat|too skinny|anorexic)`),
	newPattern(HarassmentBodyShaming, `(?i)(pig|whale|cow|beast)`),
	newPattern(HarassmentPersonalAttacks, `(?i)(stupid|idiot|moron|dumb|retard)`),
	newPattern(HarassmentPersonalAttacks, `(?i)(kill yourself|die|kys|end yourself)`),
	newPattern(HarassmentPersonalAttacks, `(?i)(loser|failure|worthless|pathetic)`),
	newPattern(HarassmentHateSpeech, `(?i)(hate you|despise|disgusting person)`),
	newPattern(HarassmentHateSpeech, `(?i)(trash|garbage|scum)`),
	newPattern(HarassmentThreats, `(?i)(gonna kill|will kill|threat|hurt you)`),
	newPattern(HarassmentThreats, `(?i)(beat you|fight you|come after)`),
}

// PiracyPatterns are all tested against every comment
var PiracyPatterns = []Pattern{
	newPattern(PiracyDownload, `(?i)(download|torrent|magnet|pirate)`),
	newPattern(PiracyFullMedia, `(?i)(free download|full movie|full video)`),
	newPattern(PiracyLeak, `(?i)(leaked|leak|rip)`),
	newPattern(PiracyRip, `(?i)(camrip|cam rip|dvdrip|webrip)`),
	newPattern(PiracyStreaming, `(?i)(watch free|stream free)`),
	newPattern(PiracyIllegal, `(?i)(illegal|pirated|cracked)`),
}

// harassmentTypeRule assigns a sub-type when any keyword occurs in the joined
// text of the matched patterns
type harassmentTypeRule struct {
	Type     string
	Keywords []string
}

// harassmentTypeRules is a decision list; the first rule that fires wins
var harassmentTypeRules = []harassmentTypeRule{
	{Type: HarassmentBodyShaming, Keywords: []string{"fat", "ugly", "weight", "skinny", "pig", "whale"}},
	{Type: HarassmentThreats, Keywords: []string{"kill", "die", "kys", "threat", "hurt"}},
	{Type: HarassmentPersonalAttacks, Keywords: []string{"stupid", "idiot", "moron", "dumb"}},
	{Type: HarassmentHateSpeech, Keywords: []string{"hate", "despise", "trash", "garbage"}},
}

// ClassifyHarassment picks the sub-type for a comment from the patterns it matched
func ClassifyHarassment(matchedPatterns []string) string {
	joined := strings.ToLower(strings.Join(matchedPatterns, " "))
	for _, rule := range harassmentTypeRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(joined, keyword) {
				return rule.Type
			}
		}
	}
	return HarassmentGeneral
}
