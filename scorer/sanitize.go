package scorer

import (
	"strings"
	"unicode"
)

// sanitizeArticle normalizes the text fields inserted into prompts. Feed
// content routinely carries stray control characters and runs of whitespace
// that waste prompt tokens and can break template output.
func sanitizeArticle(article Article) Article {
	article.Title = sanitizeText(article.Title)
	article.Summary = sanitizeText(article.Summary)
	article.Source = sanitizeText(article.Source)
	return article
}

// sanitizeText trims surrounding whitespace, collapses internal whitespace
// runs to a single space, and drops non-printable characters apart from
// newlines and tabs.
func sanitizeText(s string) string {
	s = strings.TrimSpace(s)

	var result strings.Builder
	result.Grow(len(s))
	wasSpace := false

	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			result.WriteRune(r)
			wasSpace = false
		case unicode.IsSpace(r):
			if !wasSpace {
				result.WriteRune(' ')
				wasSpace = true
			}
		case unicode.IsPrint(r):
			result.WriteRune(r)
			wasSpace = false
		}
	}

	return result.String()
}
