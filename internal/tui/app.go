package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/bookr/internal/pipeline"
)

type viewState int

const (
	inputView viewState = iota
	loadingView
	resultView
	confirmationView
)

// Parser turns request text into a report.
type Parser interface {
	ParseText(ctx context.Context, text string) (*pipeline.Report, error)
}

// Deps are the side effects the booking flow needs. Book and Conflicts
// may be nil.
type Deps struct {
	Parser Parser
	// Book confirms an ok report and returns a short description of what
	// was done (e.g. the ICS file written).
	Book func(ctx context.Context, r *pipeline.Report) (string, error)
	// Conflicts describes calendar events overlapping an ok report.
	Conflicts func(ctx context.Context, r *pipeline.Report) (string, error)
	Timeout   time.Duration
}

type Result struct {
	Skipped bool
	Booked  bool
	Detail  string
	Report  *pipeline.Report
}

type parsedMsg struct {
	report    *pipeline.Report
	conflicts string
	err       error
}

type bookedMsg struct {
	detail string
	err    error
}

type App struct {
	state   viewState
	input   inputModel
	spinner spinner.Model
	view    resultModel
	report  *pipeline.Report
	result  *Result
	errMsg  string
	loading string

	deps Deps
}

// NewApp starts at the input view, or, when prefill is set, with prefill
// already submitted.
func NewApp(deps Deps, ref time.Time, prefill string) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	if deps.Timeout <= 0 {
		deps.Timeout = 60 * time.Second
	}

	refInfo := "Reference: " + ref.Format("Mon 2 Jan 2006 15:04 MST")
	return &App{
		state:   inputView,
		input:   newInputModel(refInfo, prefill),
		spinner: s,
		deps:    deps,
	}
}

func (a *App) Init() tea.Cmd {
	if v := a.input.Value(); v != "" {
		a.state = loadingView
		a.loading = "Reading request..."
		return tea.Batch(a.spinner.Tick, a.parse(v))
	}
	return tea.Batch(a.input.textarea.Focus(), a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsMsg, ok := msg.(tea.WindowSizeMsg); ok {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(wsMsg)
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.result = &Result{Skipped: true, Report: a.report}
			return a, tea.Quit
		}
	case parsedMsg:
		return a.handleParsed(msg)
	case bookedMsg:
		return a.handleBooked(msg)
	}

	switch a.state {
	case inputView:
		return a.updateInput(msg)
	case loadingView:
		return a.updateLoading(msg)
	case resultView:
		return a.updateResult(msg)
	case confirmationView:
		return a.updateConfirmation(msg)
	}

	return a, nil
}

func (a *App) View() string {
	switch a.state {
	case inputView:
		return a.input.View()
	case loadingView:
		return a.spinner.View() + " " + a.loading
	case resultView:
		return a.view.View()
	case confirmationView:
		if a.errMsg != "" {
			return failureStyle.Render("Error: ") + a.errMsg + "\n\n" + keysStyle.Render("Press any key to exit")
		}
		msg := bookedStyle.Render("Appointment booked!")
		if a.result != nil && a.result.Detail != "" {
			msg += "\n" + mutedStyle.Render(a.result.Detail)
		}
		return msg + "\n\n" + keysStyle.Render("Press any key to exit")
	}
	return ""
}

func (a *App) GetResult() *Result {
	return a.result
}

func (a *App) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "enter" && a.input.Value() != "" {
			a.state = loadingView
			a.loading = "Reading request..."
			return a, tea.Batch(a.spinner.Tick, a.parse(a.input.Value()))
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.spinner, cmd = a.spinner.Update(msg)
	return a, cmd
}

func (a *App) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	switch keyMsg.String() {
	case "a":
		if !a.report.Result.OK() {
			return a, nil
		}
		a.state = loadingView
		a.loading = "Booking..."
		return a, tea.Batch(a.spinner.Tick, a.book(a.report))
	case "r":
		a.state = inputView
		retry := newInputModel(a.input.refInfo, a.input.Value())
		retry, _ = retry.Update(tea.WindowSizeMsg{Width: a.input.width, Height: a.input.height})
		a.input = retry
		return a, a.input.textarea.Focus()
	case "s":
		a.result = &Result{Skipped: true, Report: a.report}
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) updateConfirmation(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleParsed(msg parsedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.state = confirmationView
		a.errMsg = msg.err.Error()
		return a, nil
	}

	a.report = msg.report
	a.view = newResultModel(msg.report, msg.conflicts)
	a.state = resultView
	return a, nil
}

func (a *App) handleBooked(msg bookedMsg) (tea.Model, tea.Cmd) {
	a.state = confirmationView
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		return a, nil
	}

	a.result = &Result{Booked: true, Detail: msg.detail, Report: a.report}
	return a, nil
}

func (a *App) parse(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.deps.Timeout)
		defer cancel()

		report, err := a.deps.Parser.ParseText(ctx, text)
		if err != nil {
			return parsedMsg{err: err}
		}

		var conflicts string
		if report.Result.OK() && a.deps.Conflicts != nil {
			c, err := a.deps.Conflicts(ctx, report)
			if err != nil {
				conflicts = fmt.Sprintf("could not check calendar: %v", err)
			} else {
				conflicts = c
			}
		}
		return parsedMsg{report: report, conflicts: conflicts}
	}
}

func (a *App) book(r *pipeline.Report) tea.Cmd {
	return func() tea.Msg {
		if a.deps.Book == nil {
			return bookedMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.deps.Timeout)
		defer cancel()

		detail, err := a.deps.Book(ctx, r)
		return bookedMsg{detail: detail, err: err}
	}
}
