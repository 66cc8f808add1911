// Package notify sends desktop notifications for bookings.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/christopherklint97/bookr/internal/guardrail"
)

type Notifier interface {
	Notify(title, message string) error
}

// Desktop notifies through the OS notification center.
type Desktop struct {
	Icon string
}

func (d Desktop) Notify(title, message string) error {
	if err := beeep.Notify(title, message, d.Icon); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(string, string) error { return nil }

func New(enabled bool) Notifier {
	if !enabled {
		return Nop{}
	}
	return Desktop{}
}

func Booked(n Notifier, a *guardrail.Appointment) error {
	return n.Notify("bookr", BookedMessage(a))
}

func BookedMessage(a *guardrail.Appointment) string {
	return fmt.Sprintf("%s booked for %s at %s (%s)", a.Department, a.Date, a.Time, a.TZ)
}
