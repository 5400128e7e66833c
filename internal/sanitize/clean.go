// Package sanitize provides the text cleaning and field validation
// primitives used by the extraction stages and the payload builder.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// htmlEscaper escapes the characters that could smuggle markup into the
// review dashboard. The apostrophe uses the hex entity form.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// EscapeHTML escapes <, >, &, and both quote characters to their entity
// equivalents. Deterministic: the same input always yields the same output.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

var (
	spaceRuns   = regexp.MustCompile(`[ \t\r\f\v]+`)
	newlineRuns = regexp.MustCompile(`\n{2,}`)
	anySpace    = regexp.MustCompile(`\s+`)
)

// controlStripper removes control characters except newline and tab, which
// CleanText handles itself.
var controlStripper = runes.Remove(runes.Predicate(func(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t'
}))

// CleanText strips control characters and collapses whitespace. With
// preserveNewlines, runs of blank lines become a single newline and spaces
// collapse within each line; otherwise all whitespace collapses to single
// spaces. The result is trimmed.
func CleanText(text string, preserveNewlines bool) string {
	stripped, _, err := transform.String(controlStripper, text)
	if err != nil {
		stripped = text
	}

	if preserveNewlines {
		stripped = spaceRuns.ReplaceAllString(stripped, " ")
		stripped = newlineRuns.ReplaceAllString(stripped, "\n")
		lines := strings.Split(stripped, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimSpace(l)
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}

	return strings.TrimSpace(anySpace.ReplaceAllString(stripped, " "))
}

// StripHTML extracts the text content of an HTML fragment. Crawler input
// occasionally arrives with residual markup; plain text passes through
// unchanged apart from whitespace.
func StripHTML(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

// Truncate cuts text to at most max runes, appending an ellipsis marker
// when content was dropped. max <= 3 returns a bare prefix.
func Truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// diacriticFolder decomposes runes and removes combining marks.
var diacriticFolder = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FoldDiacritics returns text with diacritic marks removed, lowercased.
// Used for accent-insensitive keyword matching during language detection.
func FoldDiacritics(text string) string {
	folded, _, err := transform.String(diacriticFolder, text)
	if err != nil {
		return strings.ToLower(text)
	}
	return strings.ToLower(folded)
}
