package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

type inputModel struct {
	textarea textarea.Model
	refInfo  string
	width    int
	height   int
}

func newInputModel(refInfo string, prefill string) inputModel {
	ta := textarea.New()
	ta.Placeholder = "e.g. Book a dentist next Friday at 3pm"
	ta.Focus()
	ta.CharLimit = 500
	ta.SetWidth(60)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	if prefill != "" {
		ta.SetValue(prefill)
	}

	return inputModel{
		textarea: ta,
		refInfo:  refInfo,
	}
}

func (m inputModel) Update(msg tea.Msg) (inputModel, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		if ws.Width > 4 && ws.Width < 64 {
			m.textarea.SetWidth(ws.Width - 4)
		}
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	header := headerStyle.Render("bookr: new appointment")
	refLabel := referenceStyle.Render(m.refInfo)
	help := keysStyle.Render("Enter: submit • Ctrl+C: cancel")

	return header + "\n" + refLabel + "\n" + m.textarea.View() + "\n" + help
}

func (m inputModel) Value() string {
	return m.textarea.Value()
}
