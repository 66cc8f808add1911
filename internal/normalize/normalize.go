// Package normalize resolves extracted date and time phrases into a single
// appointment slot in one fixed operational timezone.
//
// Nothing in this package reads the system clock: every call takes the
// reference instant explicitly, so results are reproducible.
package normalize

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DefaultTimezone = "Asia/Kolkata"
	DefaultTime     = "09:00"
)

// ErrNoReference is returned when Normalize is called without a reference
// instant. It is a caller bug, not a user-input problem.
var ErrNoReference = errors.New("normalize: reference instant is required")

// Normalizer combines a resolved date and time of day into a slot and
// applies the one-week rollover for slots that have already passed.
// It is safe for concurrent use.
type Normalizer struct {
	loc          *time.Location
	defaultClock Clock
	dates        []DateResolver
	clocks       []ClockResolver
	logger       *slog.Logger
}

type Option func(*Normalizer)

// WithDefaultClock sets the time of day used when no time phrase is given.
func WithDefaultClock(c Clock) Option {
	return func(n *Normalizer) { n.defaultClock = c }
}

// WithDateResolvers replaces the ordered list of date resolvers.
func WithDateResolvers(rs ...DateResolver) Option {
	return func(n *Normalizer) { n.dates = rs }
}

// WithClockResolvers replaces the ordered list of time-of-day resolvers.
func WithClockResolvers(rs ...ClockResolver) Option {
	return func(n *Normalizer) { n.clocks = rs }
}

func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// New returns a normalizer for the named IANA zone. By default dates go
// through the relative weekday resolver then the general date parser, and
// times through the explicit clock parser then the natural fallback.
func New(timezone string, opts ...Option) (*Normalizer, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}

	n := &Normalizer{
		loc:          loc,
		defaultClock: Clock{Hour: 9},
		dates: []DateResolver{
			DateResolverFunc(ResolveWeekday),
			NewDateParser(nil),
		},
		clocks: []ClockResolver{
			ExplicitClock,
			NewNaturalClock(),
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(n)
	}
	return n, nil
}

// Location is the operational timezone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Normalize resolves the phrases against ref. Empty phrases are absent.
// A time that cannot be read is reported before a date that cannot.
func (n *Normalizer) Normalize(datePhrase, timePhrase string, ref time.Time) (Outcome, error) {
	if ref.IsZero() {
		return Outcome{}, ErrNoReference
	}
	ref = ref.In(n.loc)

	date, dateOK := n.resolveDate(datePhrase, ref)

	clock := n.defaultClock
	if strings.TrimSpace(timePhrase) != "" {
		var ok bool
		clock, ok = n.resolveClock(timePhrase, ref)
		if !ok {
			n.logger.Debug("time phrase not understood", "time_phrase", timePhrase)
			return clarify(ReasonInvalidTime), nil
		}
	}

	if !dateOK {
		n.logger.Debug("date phrase not understood", "date_phrase", datePhrase)
		return clarify(ReasonInvalidDate), nil
	}

	slot := time.Date(date.Year, date.Month, date.Day, clock.Hour, clock.Minute, 0, 0, n.loc)
	if slot.Before(ref) && !strings.Contains(strings.ToLower(datePhrase), "next") {
		rolled := slot.AddDate(0, 0, 7)
		n.logger.Debug("slot already passed, rolling over one week",
			"slot", slot.Format(time.RFC3339),
			"rolled", rolled.Format(time.RFC3339),
		)
		slot = rolled
	}

	return Outcome{Normalized: &Normalized{
		Date: slot.Format("2006-01-02"),
		Time: slot.Format("15:04"),
		TZ:   n.loc.String(),
	}, Confidence: ResolvedConfidence}, nil
}

func (n *Normalizer) resolveDate(phrase string, ref time.Time) (Date, bool) {
	if strings.TrimSpace(phrase) == "" {
		return Date{}, false
	}
	for _, r := range n.dates {
		if d, ok := r.ResolveDate(phrase, ref); ok {
			return d, true
		}
	}
	return Date{}, false
}

func (n *Normalizer) resolveClock(phrase string, ref time.Time) (Clock, bool) {
	for _, r := range n.clocks {
		if c, ok := r.ResolveClock(phrase, ref); ok {
			return c, true
		}
	}
	return Clock{}, false
}
