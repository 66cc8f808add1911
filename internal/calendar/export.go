package calendar

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/christopherklint97/bookr/internal/guardrail"
)

const (
	DefaultDuration = 30 * time.Minute

	productID = "-//bookr//Appointments//EN"
)

// Appointment is a booked slot ready to be written as a VEVENT.
type Appointment struct {
	ID         string
	Department string
	Start      time.Time
	Duration   time.Duration
}

func (a Appointment) End() time.Time {
	d := a.Duration
	if d <= 0 {
		d = DefaultDuration
	}
	return a.Start.Add(d)
}

// FromResult builds an appointment from a guardrail appointment. The wall
// clock date and time are interpreted in the appointment's timezone.
func FromResult(id string, a *guardrail.Appointment, duration time.Duration) (Appointment, error) {
	loc, err := time.LoadLocation(a.TZ)
	if err != nil {
		return Appointment{}, fmt.Errorf("loading timezone %q: %w", a.TZ, err)
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, loc)
	if err != nil {
		return Appointment{}, fmt.Errorf("parsing appointment slot: %w", err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	return Appointment{ID: id, Department: a.Department, Start: start, Duration: duration}, nil
}

// Encode writes one VCALENDAR holding a VEVENT per appointment.
func Encode(w io.Writer, appts ...Appointment) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	now := time.Now().UTC()
	for _, a := range appts {
		vevent := ical.NewComponent(ical.CompEvent)
		vevent.Props.SetText(ical.PropUID, a.ID+"@bookr")
		vevent.Props.SetText(ical.PropSummary, a.Department+" appointment")
		vevent.Props.SetDateTime(ical.PropDateTimeStart, a.Start)
		vevent.Props.SetDateTime(ical.PropDateTimeEnd, a.End())
		vevent.Props.SetDateTime(ical.PropDateTimeStamp, now)
		cal.Children = append(cal.Children, vevent)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

// WriteFile writes a to dir/<id>.ics and returns the path.
func WriteFile(dir string, a Appointment) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating ics directory: %w", err)
	}
	path := filepath.Join(dir, a.ID+".ics")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating ics file: %w", err)
	}
	defer f.Close()

	if err := Encode(f, a); err != nil {
		return "", err
	}
	return path, f.Close()
}
