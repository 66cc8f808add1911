// Package guardrail decides whether a normalized slot plus a department is
// a usable appointment.
package guardrail

import "github.com/christopherklint97/bookr/internal/normalize"

const (
	StatusOK                 = "ok"
	StatusNeedsClarification = "needs_clarification"

	ReasonMissingDepartment = "Ambiguous or missing department"
)

type Appointment struct {
	Department string `json:"department"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	TZ         string `json:"tz"`
}

// Result is the response returned to callers: an appointment when Status
// is StatusOK, a human-readable Message otherwise.
type Result struct {
	Status      string       `json:"status"`
	Message     string       `json:"message,omitempty"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

func (r Result) OK() bool {
	return r.Status == StatusOK
}

func Clarify(message string) Result {
	return Result{Status: StatusNeedsClarification, Message: message}
}

// Decide propagates a normalization clarification unchanged, requires a
// department, and otherwise builds the appointment. Date and time validity
// is not re-checked here.
func Decide(department string, outcome normalize.Outcome) Result {
	if outcome.NeedsClarification() {
		return Clarify(outcome.Reason)
	}
	if department == "" {
		return Clarify(ReasonMissingDepartment)
	}

	n := outcome.Normalized
	return Result{
		Status: StatusOK,
		Appointment: &Appointment{
			Department: department,
			Date:       n.Date,
			Time:       n.Time,
			TZ:         n.TZ,
		},
	}
}
