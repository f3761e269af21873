package analysis

import (
	"fmt"
	"strings"

	"github.com/aegis-sec/aegis-analyzer/internal/models"
)

// UnknownAuthor is substituted when a comment carries no author
const UnknownAuthor = "Unknown"

// Field aliases used by the scrapers we accept payloads from, in lookup order
var (
	idFields      = []string{"id", "cid"}
	textFields    = []string{"text"}
	authorFields  = []string{"author", "ownerUsername", "username"}
	timeFields    = []string{"time", "timestamp"}
	likesFields   = []string{"likes", "votes", "likesCount"}
	repliesFields = []string{"replies", "repliesCount"}
)

// NormalizeComment converts a raw payload into a Comment. Missing fields are
// defaulted; it never fails.
func NormalizeComment(raw models.RawComment, index int) models.Comment {
	comment := models.Comment{
		ID:      fmt.Sprintf("comment_%d", index),
		Author:  UnknownAuthor,
		Time:    "",
		Likes:   0,
		Replies: 0,
	}

	if v, ok := lookup(raw, idFields); ok {
		if id := stringify(v); id != "" {
			comment.ID = id
		}
	}
	if v, ok := lookup(raw, textFields); ok {
		comment.Text = stringify(v)
	}
	if v, ok := lookup(raw, authorFields); ok {
		if author := stringify(v); author != "" {
			comment.Author = author
		}
	}
	if v, ok := lookup(raw, timeFields); ok {
		comment.Time = v
	}
	if v, ok := lookup(raw, likesFields); ok {
		comment.Likes = v
	}
	if v, ok := lookup(raw, repliesFields); ok {
		comment.Replies = v
	}

	return comment
}

// NormalizeComments normalizes a batch, preserving input order
func NormalizeComments(raw []models.RawComment) []models.Comment {
	comments := make([]models.Comment, 0, len(raw))
	for i, r := range raw {
		comments = append(comments, NormalizeComment(r, i))
	}
	return comments
}

func lookup(raw models.RawComment, keys []string) (interface{}, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// normalizeText is the comparison form used by the grouper
func normalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// truncate returns at most n characters of s
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
