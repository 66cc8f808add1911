package ai

import (
	"context"
	"regexp"
	"strings"
)

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

// Tried in order, first match wins.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:next|this) (?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`\b(?:tomorrow|today|tonight)\b`),
	regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)? ` + monthPattern + `(?:\s*,?\s*\d{4})?`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`\b` + monthPattern + ` \d{1,2}(?:st|nd|rd|th)?\b(?:\s*,?\s*\d{4})?`),
}

var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:at\s+)?\d{1,2}(?::?\d{2})?\s*(?:am|pm)\b`),
	regexp.MustCompile(`\b(?:at\s+)?(?:[01]?\d|2[0-3]):[0-5]\d\b`),
}

// Rules extracts entities with keyword tables and regular expressions. It
// needs no network access and never fails.
type Rules struct{}

func NewRules() *Rules {
	return &Rules{}
}

func (r *Rules) Extract(_ context.Context, text string) (*Entities, error) {
	lower := strings.ToLower(text)
	e := &Entities{
		DatePhrase: firstMatch(datePatterns, lower),
		TimePhrase: firstMatch(timePatterns, lower),
		Department: FindDepartment(lower),
	}
	e.Confidence = Confidence(e)
	return e, nil
}

func firstMatch(patterns []*regexp.Regexp, s string) string {
	for _, re := range patterns {
		if m := re.FindString(s); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
