package analysis

import "github.com/pmezard/go-difflib/difflib"

// SimilarityRatio returns the Ratcliff/Obershelp matching-block ratio of a and
// b in [0,1], compared character by character. Two empty strings score 1.
func SimilarityRatio(a, b string) float64 {
	return difflib.NewMatcher(splitChars(a), splitChars(b)).Ratio()
}

func splitChars(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}
