package ai

import (
	"math"
	"strings"
)

// Entities are the appointment fragments found in free text. Empty strings
// mean the fragment was not found.
type Entities struct {
	DatePhrase string  `json:"date_phrase"`
	TimePhrase string  `json:"time_phrase"`
	Department string  `json:"department"`
	Confidence float64 `json:"entities_confidence"`
}

// extraction is the structured output requested from LLM backends.
type extraction struct {
	DatePhrase string `json:"date_phrase" jsonschema_description:"The date expression exactly as written, e.g. 'next friday' or '12th March'. Empty string if there is none."`
	TimePhrase string `json:"time_phrase" jsonschema_description:"The time-of-day expression exactly as written, e.g. '3pm' or '15:30'. Empty string if there is none."`
	Department string `json:"department" jsonschema_description:"One of the listed departments, or empty string if none is clearly meant."`
}

func (x extraction) entities() *Entities {
	e := &Entities{
		DatePhrase: strings.TrimSpace(x.DatePhrase),
		TimePhrase: strings.TrimSpace(x.TimePhrase),
		Department: CanonicalDepartment(x.Department),
	}
	e.Confidence = Confidence(e)
	return e
}

// Confidence scores how complete an extraction is: 0.5 base, +0.2 for a
// date, +0.2 for a time, +0.1 for a department, capped at 0.99.
func Confidence(e *Entities) float64 {
	c := 0.5
	if e.DatePhrase != "" {
		c += 0.2
	}
	if e.TimePhrase != "" {
		c += 0.2
	}
	if e.Department != "" {
		c += 0.1
	}
	c = math.Min(0.99, c)
	return math.Round(c*100) / 100
}
