package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

// NaturalParser is a general natural-language date capability.
type NaturalParser func(phrase string, ref time.Time) (time.Time, error)

// FutureNaturalParser resolves ambiguous relative phrases into the future.
func FutureNaturalParser(phrase string, ref time.Time) (time.Time, error) {
	return naturaldate.Parse(phrase, ref, naturaldate.WithDirection(naturaldate.Future))
}

type dateLayout struct {
	layout string
	// noYear layouts take the reference year, moving to the next year
	// when the date has already passed.
	noYear bool
}

// Month-first is the default convention. Month-and-year layouts resolve
// to the first day of the month.
var monthFirstLayouts = []dateLayout{
	{layout: "2006-01-02"},
	{layout: "2006/01/02"},
	{layout: "1/2/2006"},
	{layout: "1-2-2006"},
	{layout: "January 2 2006"},
	{layout: "Jan 2 2006"},
	{layout: "January 2", noYear: true},
	{layout: "Jan 2", noYear: true},
	{layout: "January 2006"},
	{layout: "Jan 2006"},
}

var dayFirstLayouts = []dateLayout{
	{layout: "2/1/2006"},
	{layout: "2-1-2006"},
	{layout: "2.1.2006"},
	{layout: "2 January 2006"},
	{layout: "2 Jan 2006"},
	{layout: "2 January", noYear: true},
	{layout: "2 Jan", noYear: true},
}

var ordinalSuffix = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)\b`)

var tonight = regexp.MustCompile(`\btonight\b`)

// DateParser wraps the general date capability. Explicit layouts are tried
// first, month-first then day-first; only phrases no layout reads go to the
// natural-language parser.
type DateParser struct {
	natural NaturalParser
}

// NewDateParser returns a parser backed by natural, or by go-naturaldate
// with a future preference when natural is nil.
func NewDateParser(natural NaturalParser) *DateParser {
	if natural == nil {
		natural = FutureNaturalParser
	}
	return &DateParser{natural: natural}
}

func (p *DateParser) ResolveDate(phrase string, ref time.Time) (Date, bool) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return Date{}, false
	}
	cleaned := cleanDatePhrase(phrase)

	if cleaned == "today" {
		return dateOf(ref), true
	}
	if d, ok := parseLayouts(cleaned, monthFirstLayouts, ref); ok {
		return d, true
	}
	if d, ok := parseLayouts(cleaned, dayFirstLayouts, ref); ok {
		return d, true
	}
	if t, err := p.natural(cleaned, ref); err == nil && understood(t, ref, cleaned) {
		return dateOf(t.In(ref.Location())), true
	}
	return Date{}, false
}

// understood filters results where the natural parser echoed the
// reference back without having matched anything.
func understood(t, ref time.Time, cleaned string) bool {
	if t.IsZero() {
		return false
	}
	if !t.Equal(ref) {
		return true
	}
	for _, w := range strings.Fields(cleaned) {
		if w == "today" || w == "now" {
			return true
		}
	}
	return false
}

func cleanDatePhrase(phrase string) string {
	s := strings.ToLower(phrase)
	s = strings.TrimPrefix(s, "on ")
	s = tonight.ReplaceAllString(s, "today")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, " of ", " ")
	return strings.Join(strings.Fields(s), " ")
}

func parseLayouts(s string, layouts []dateLayout, ref time.Time) (Date, bool) {
	for _, l := range layouts {
		t, err := time.ParseInLocation(l.layout, s, ref.Location())
		if err != nil {
			continue
		}
		if l.noYear {
			t = time.Date(ref.Year(), t.Month(), t.Day(), 0, 0, 0, 0, ref.Location())
			if dateOf(t).before(dateOf(ref)) {
				t = t.AddDate(1, 0, 0)
			}
		}
		return dateOf(t), true
	}
	return Date{}, false
}

func (d Date) before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}
