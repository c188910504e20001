package tts

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	citationAuthorYear   = regexp.MustCompile(`[(\[]\w+, \d{4}(;\s\w+, \d{4})*[)\]]`)
	citationNumbersComma = regexp.MustCompile(`\[\d+(,\s*\d+)*\]`)
	wikiReference        = regexp.MustCompile(`\[+[0-9]+\]`)

	textCleaners = []struct {
		re  *regexp.Regexp
		sub string
	}{
		{regexp.MustCompile(`\n`), ". "},
		{regexp.MustCompile(`&`), "and"},
	}

	tagEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// CleanText drops the low control characters and rewrites newlines and
// ampersands into something a speech engine reads naturally.
func CleanText(text string) string {
	text = strings.Map(func(r rune) rune {
		if r >= 0 && r < 8 {
			return -1
		}
		return r
	}, text)
	for _, c := range textCleaners {
		text = c.re.ReplaceAllString(text, c.sub)
	}
	return text
}

// Normalize produces the canonical form of a request's text. Both the
// fingerprint and the chunker work on this form.
func Normalize(text string) string {
	return CleanText(norm.NFC.String(text))
}

// EscapeTags escapes markup characters but leaves quotes untouched.
func EscapeTags(text string) string {
	return tagEscaper.Replace(text)
}

// ReduceCite removes numeric and author-year citations pasted from papers.
func ReduceCite(text string) string {
	text = citationNumbersComma.ReplaceAllString(text, "")
	return citationAuthorYear.ReplaceAllString(text, "")
}

// WikiText strips reference markers copied along with Wikipedia articles.
func WikiText(text string) string {
	text = wikiReference.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "[clarification needed]", "")
	return strings.ReplaceAll(text, "[citation needed]", "")
}
