package normalize

import (
	"fmt"
	"time"
)

// Clarification reasons produced by the normalizer.
const (
	ReasonInvalidDate = "Invalid or missing date"
	ReasonInvalidTime = "Invalid time format"
)

// ResolvedConfidence is the confidence reported with every resolved slot.
const ResolvedConfidence = 0.9

// Phrases is the unit handed over by entity extraction. An empty string
// means the field was not found.
type Phrases struct {
	Date     string
	Time     string
	Category string
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func dateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Clock is a time of day without a date component.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseDefaultClock parses an "HH:MM" 24-hour setting such as the
// configured default time of day.
func ParseDefaultClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid default time %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Normalized is a resolved appointment slot.
type Normalized struct {
	Date string `json:"date"`
	Time string `json:"time"`
	TZ   string `json:"tz"`
}

// Outcome is either a clarification (Reason set, Normalized nil) or a
// resolved slot.
type Outcome struct {
	Reason     string      `json:"message,omitempty"`
	Normalized *Normalized `json:"normalized,omitempty"`
	Confidence float64     `json:"normalization_confidence,omitempty"`
}

func clarify(reason string) Outcome {
	return Outcome{Reason: reason}
}

// NeedsClarification reports whether the outcome carries no usable slot.
func (o Outcome) NeedsClarification() bool {
	return o.Normalized == nil
}

// DateResolver turns a date phrase into a calendar date. ok is false when
// the phrase is not understood; that is not an error.
type DateResolver interface {
	ResolveDate(phrase string, ref time.Time) (d Date, ok bool)
}

// ClockResolver turns a time phrase into a time of day.
type ClockResolver interface {
	ResolveClock(phrase string, ref time.Time) (c Clock, ok bool)
}

// DateResolverFunc adapts a function to DateResolver.
type DateResolverFunc func(phrase string, ref time.Time) (Date, bool)

func (f DateResolverFunc) ResolveDate(phrase string, ref time.Time) (Date, bool) {
	return f(phrase, ref)
}

// ClockResolverFunc adapts a function to ClockResolver.
type ClockResolverFunc func(phrase string, ref time.Time) (Clock, bool)

func (f ClockResolverFunc) ResolveClock(phrase string, ref time.Time) (Clock, bool) {
	return f(phrase, ref)
}
