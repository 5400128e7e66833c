package sanitize

import (
	"regexp"
	"time"

	"github.com/rotisserie/eris"
)

// ValidateConfidenceScore checks that a confidence value lies in [0, 1].
func ValidateConfidenceScore(score float64) error {
	if score < 0 || score > 1 {
		return eris.Errorf("confidence score %.4f outside [0, 1]", score)
	}
	return nil
}

// ValidateRelevance checks that a quote relevance value lies in [1, 5].
func ValidateRelevance(relevance int) error {
	if relevance < 1 || relevance > 5 {
		return eris.Errorf("relevance %d outside [1, 5]", relevance)
	}
	return nil
}

// ValidateOffsetRange checks character offsets. Both nil is valid and means
// no offsets are known. A single nil, a negative value, or end < start fails.
func ValidateOffsetRange(start, end *int) error {
	if start == nil && end == nil {
		return nil
	}
	if start == nil || end == nil {
		return eris.New("offset range must set both start and end, or neither")
	}
	if *start < 0 || *end < 0 {
		return eris.Errorf("offset range (%d, %d) contains negative value", *start, *end)
	}
	if *end < *start {
		return eris.Errorf("offset range end %d precedes start %d", *end, *start)
	}
	return nil
}

var wikidataURIPattern = regexp.MustCompile(`^(https?://)?(www\.)?wikidata\.org/(wiki|entity)/Q\d+$`)

// ValidateWikidataURI checks that a URI points at a Wikidata item page.
func ValidateWikidataURI(uri string) error {
	if !wikidataURIPattern.MatchString(uri) {
		return eris.Errorf("invalid wikidata URI %q", uri)
	}
	return nil
}

// dateLayouts are the calendar formats accepted for optional date fields,
// tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseDateOptional parses an optional date string. Empty input yields
// (nil, nil); otherwise the value must parse as a calendar date.
func ParseDateOptional(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, eris.Errorf("unparseable date %q", s)
}
