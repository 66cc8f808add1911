package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	hourMeridiemPattern       = regexp.MustCompile(`^(\d{1,2})(am|pm)$`)
	hourMinuteMeridiemPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(am|pm)$`)
	hourMinute24Pattern       = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
)

// ParseClock parses explicit clock times: "3pm", "3:30pm" and "15:00",
// with an optional "at " prefix and any embedded spaces. The first pattern
// that matches decides the format.
func ParseClock(phrase string) (Clock, bool) {
	s := strings.TrimSpace(strings.ToLower(phrase))
	s = strings.TrimPrefix(s, "at ")
	s = strings.ReplaceAll(s, " ", "")

	if m := hourMeridiemPattern.FindStringSubmatch(s); m != nil {
		return twelveHour(m[1], "00", m[2])
	}
	if m := hourMinuteMeridiemPattern.FindStringSubmatch(s); m != nil {
		return twelveHour(m[1], m[2], m[3])
	}
	if m := hourMinute24Pattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		if h > 23 || mins > 59 {
			return Clock{}, false
		}
		return Clock{Hour: h, Minute: mins}, true
	}
	return Clock{}, false
}

func twelveHour(hour, minute, meridiem string) (Clock, bool) {
	h, _ := strconv.Atoi(hour)
	mins, _ := strconv.Atoi(minute)
	if h < 1 || h > 12 || mins > 59 {
		return Clock{}, false
	}
	h %= 12
	if meridiem == "pm" {
		h += 12
	}
	return Clock{Hour: h, Minute: mins}, true
}

// ExplicitClock is ParseClock as a ClockResolver.
var ExplicitClock = ClockResolverFunc(func(phrase string, _ time.Time) (Clock, bool) {
	return ParseClock(phrase)
})

// NaturalClock is the unconstrained fallback: any time expression the
// general English parser understands, with its time of day taken.
type NaturalClock struct {
	w *when.Parser
}

func NewNaturalClock() *NaturalClock {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &NaturalClock{w: w}
}

func (n *NaturalClock) ResolveClock(phrase string, ref time.Time) (Clock, bool) {
	r, err := n.w.Parse(phrase, ref)
	if err != nil || r == nil {
		return Clock{}, false
	}
	t := r.Time.In(ref.Location())
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, true
}
