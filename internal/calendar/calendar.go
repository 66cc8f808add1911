package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"
)

// Event represents a parsed calendar event.
type Event struct {
	Summary   string
	StartTime time.Time
	EndTime   time.Time
}

// Fetch retrieves and parses iCalendar events from a URL or file path,
// returning events that overlap with the given time window.
func Fetch(ctx context.Context, source string, windowStart, windowEnd time.Time) ([]Event, error) {
	events, err := FetchAll(ctx, source)
	if err != nil {
		return nil, err
	}
	return overlapping(events, windowStart, windowEnd), nil
}

// FetchAll retrieves every well-formed event from a URL or file path.
func FetchAll(ctx context.Context, source string) ([]Event, error) {
	var r io.ReadCloser

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening calendar file: %w", err)
		}
		r = f
	}
	defer r.Close()

	dec := ical.NewDecoder(r)
	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			start, err := event.DateTimeStart(nil)
			if err != nil {
				continue // skip malformed events
			}
			end, err := event.DateTimeEnd(nil)
			if err != nil {
				continue
			}

			summary, _ := event.Props.Text(ical.PropSummary)
			if summary == "" {
				summary = "(busy)"
			}
			events = append(events, Event{
				Summary:   summary,
				StartTime: start,
				EndTime:   end,
			})
		}
	}

	return events, nil
}

func overlapping(events []Event, windowStart, windowEnd time.Time) []Event {
	var out []Event
	for _, e := range events {
		if e.StartTime.Before(windowEnd) && e.EndTime.After(windowStart) {
			out = append(out, e)
		}
	}
	return out
}

// Conflicts returns the events from source that overlap the appointment,
// with times in the appointment's zone.
func Conflicts(ctx context.Context, source string, a Appointment) ([]Event, error) {
	events, err := Fetch(ctx, source, a.Start, a.End())
	if err != nil {
		return nil, err
	}
	return inZone(events, a.Start.Location()), nil
}

func inZone(events []Event, loc *time.Location) []Event {
	for i := range events {
		events[i].StartTime = events[i].StartTime.In(loc)
		events[i].EndTime = events[i].EndTime.In(loc)
	}
	return events
}

// Describe joins event summaries and times with "; " for display.
func Describe(events []Event) string {
	if len(events) == 0 {
		return ""
	}
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = fmt.Sprintf("%s (%s-%s)", e.Summary, e.StartTime.Format("15:04"), e.EndTime.Format("15:04"))
	}
	return strings.Join(parts, "; ")
}
