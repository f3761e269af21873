package analysis

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// KeywordSet matches caller-supplied keywords as case-insensitive literal
// substrings. It is built once per request and scans each text in a single
// pass.
type KeywordSet struct {
	keywords []string // as supplied, blanks removed
	folded   []string // lower-cased form of keywords
	matcher  *ahocorasick.Matcher
	lookup   map[string]int // folded keyword -> dictionary index
}

// NewKeywordSet compiles keywords. Blank keywords are dropped.
func NewKeywordSet(keywords []string) *KeywordSet {
	ks := &KeywordSet{lookup: make(map[string]int)}
	var dictionary []string
	for _, keyword := range keywords {
		if strings.TrimSpace(keyword) == "" {
			continue
		}
		folded := strings.ToLower(keyword)
		ks.keywords = append(ks.keywords, keyword)
		ks.folded = append(ks.folded, folded)
		if _, ok := ks.lookup[folded]; !ok {
			ks.lookup[folded] = len(dictionary)
			dictionary = append(dictionary, folded)
		}
	}
	if len(dictionary) > 0 {
		ks.matcher = ahocorasick.NewStringMatcher(dictionary)
	}
	return ks
}

// Match returns the keywords found in text, in the order they were supplied
func (ks *KeywordSet) Match(text string) []string {
	if ks.matcher == nil {
		return nil
	}

	hits := ks.matcher.Match([]byte(strings.ToLower(text)))
	if len(hits) == 0 {
		return nil
	}
	found := make(map[int]struct{}, len(hits))
	for _, hit := range hits {
		found[hit] = struct{}{}
	}

	var matches []string
	for i, folded := range ks.folded {
		if _, ok := found[ks.lookup[folded]]; ok {
			matches = append(matches, ks.keywords[i])
		}
	}
	return matches
}
