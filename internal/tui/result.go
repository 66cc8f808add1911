package tui

import (
	"fmt"
	"strings"

	"github.com/christopherklint97/bookr/internal/pipeline"
)

type resultModel struct {
	report    *pipeline.Report
	conflicts string
}

func newResultModel(r *pipeline.Report, conflicts string) resultModel {
	return resultModel{report: r, conflicts: conflicts}
}

func field(label, value string) string {
	return labelStyle.Render(label) + " " + value + "\n"
}

func (m resultModel) View() string {
	res := m.report.Result
	e := m.report.Entities

	if !res.OK() {
		var sb strings.Builder
		sb.WriteString(clarifyStyle.Render("Clarification needed"))
		sb.WriteString("\n")
		sb.WriteString(res.Message)
		sb.WriteString("\n\n")
		sb.WriteString(field("Date", fmt.Sprintf("%q", e.DatePhrase)))
		sb.WriteString(field("Time", fmt.Sprintf("%q", e.TimePhrase)))
		sb.WriteString(field("Department", fmt.Sprintf("%q", e.Department)))
		sb.WriteString(keysStyle.Render("[r]etry with more detail • [s]kip"))
		return clarifyBoxStyle.Render(sb.String())
	}

	a := res.Appointment
	var sb strings.Builder

	sb.WriteString(headerStyle.Render("Proposed Appointment"))
	sb.WriteString("\n")
	sb.WriteString(field("Department", departmentStyle.Render(a.Department)))
	sb.WriteString(field("Date", a.Date))
	sb.WriteString(field("Time", a.Time+" "+mutedStyle.Render(a.TZ)))
	sb.WriteString(field("Confidence", mutedStyle.Render(fmt.Sprintf("%.0f%%", e.Confidence*100))))

	if m.conflicts != "" {
		sb.WriteString("\n")
		sb.WriteString(conflictStyle.Render("Conflicts: "))
		sb.WriteString(m.conflicts)
		sb.WriteString("\n")
	}

	sb.WriteString(keysStyle.Render("[a]ccept • [r]etry • [s]kip"))

	return appointmentBoxStyle.Render(sb.String())
}
