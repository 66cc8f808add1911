package normalize

import (
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ResolveWeekday handles "next <weekday>" and "this <weekday>". The result
// is always strictly after the reference date: the nearest occurrence, with
// the reference weekday itself counting as a week away. "next" on the
// reference weekday skips one more week.
func ResolveWeekday(phrase string, ref time.Time) (Date, bool) {
	words := strings.Fields(strings.ToLower(phrase))
	if len(words) != 2 {
		return Date{}, false
	}

	qualifier := words[0]
	if qualifier != "next" && qualifier != "this" {
		return Date{}, false
	}

	target, ok := weekdayNames[words[1]]
	if !ok {
		return Date{}, false
	}

	offset := (int(target) - int(ref.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	if qualifier == "next" && ref.Weekday() == target {
		offset += 7
	}

	return dateOf(ref.AddDate(0, 0, offset)), true
}
