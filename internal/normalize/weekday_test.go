package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

// Wednesday 2026-10-14 10:00 IST.
func wednesdayRef(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 10, 14, 10, 0, 0, 0, kolkata(t))
}

func TestResolveWeekday(t *testing.T) {
	ref := wednesdayRef(t)

	tests := []struct {
		name   string
		phrase string
		want   string
	}{
		{"this friday is the same week", "this friday", "2026-10-16"},
		{"next friday is the nearest friday", "next friday", "2026-10-16"},
		{"next tuesday wraps around", "next tuesday", "2026-10-20"},
		{"this on reference weekday is a week away", "this wednesday", "2026-10-21"},
		{"next on reference weekday is two weeks away", "next wednesday", "2026-10-28"},
		{"case insensitive", "Next FRIDAY", "2026-10-16"},
		{"extra whitespace", "  this   thursday ", "2026-10-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveWeekday(tt.phrase, ref)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolveWeekday_NoMatch(t *testing.T) {
	ref := wednesdayRef(t)

	for _, phrase := range []string{
		"friday",
		"next week",
		"last friday",
		"next fri",
		"next friday evening",
		"this funday",
		"",
	} {
		t.Run(phrase, func(t *testing.T) {
			_, ok := ResolveWeekday(phrase, ref)
			assert.False(t, ok)
		})
	}
}

func TestResolveWeekday_AlwaysFutureAndOnTarget(t *testing.T) {
	loc := kolkata(t)
	start := time.Date(2026, 10, 12, 23, 30, 0, 0, loc) // a Monday

	for day := 0; day < 7; day++ {
		ref := start.AddDate(0, 0, day)
		refDate := dateOf(ref)

		for name, target := range weekdayNames {
			for _, qualifier := range []string{"next", "this"} {
				got, ok := ResolveWeekday(qualifier+" "+name, ref)
				require.True(t, ok)

				resolved := time.Date(got.Year, got.Month, got.Day, 0, 0, 0, 0, loc)
				assert.Equal(t, target, resolved.Weekday(), "%s %s from %s", qualifier, name, ref.Weekday())
				assert.True(t, refDate.before(got), "%s %s from %s resolved to %s", qualifier, name, refDate, got)
			}
		}
	}
}
