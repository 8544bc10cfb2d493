package grn

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version info
const (
	Version = "1.0.0"
	Author  = "Mikel Calvo"
	Year    = "2026"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	creditStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2)

	alertInfoStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FF9500")).
			Padding(1, 2)

	alertFailureStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(lipgloss.Color("#FF4444")).
				Padding(1, 2)

	draftBadge = lipgloss.NewStyle().
			Background(lipgloss.Color("#FFA500")).
			Foreground(lipgloss.Color("#000")).
			Padding(0, 1)
)

// Model is the main TUI model. The screen follows the workflow state.
type Model struct {
	app    *App
	sink   *MemorySink
	ctx    context.Context
	snap   Snapshot
	screen State

	width  int
	height int

	loginInput   textinput.Model
	barcodeInput textinput.Model
	updateInput  textinput.Model
	fields       []formField
	focusIndex   int
	results      table.Model

	alerts  []Notification
	message string
	spinner spinner.Model
	loading bool
	baseURL string
}

// Messages
type startedMsg struct {
	baseURL string
}

type actionDoneMsg struct {
	op  string
	err error
}

type transportersLoadedMsg struct{}

// NewTUI creates the TUI model. sink must be the sink the app notifies.
func NewTUI(ctx context.Context, app *App, sink *MemorySink) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	m := Model{
		app:          app,
		sink:         sink,
		ctx:          ctx,
		loginInput:   newInput("Username", 64),
		barcodeInput: newInput("Barcode number", 32),
		updateInput:  newInput("Next barcode", 32),
		results:      newResultsTable(),
		spinner:      s,
		loading:      true,
		screen:       StateLoggedOut,
	}
	m.loginInput.Focus()
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	return ti
}

func newResultsTable() table.Model {
	widths := []int{12, 28, 10, 10, 20, 18, 8}
	cols := make([]table.Column, len(TableColumns))
	for i, title := range TableColumns {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithHeight(PlaceholderRows+1),
		table.WithFocused(false),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#7D56F4")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Cell
	t.SetStyles(s)
	return t
}

func tableRows(rows []DeliveryLineResult) []table.Row {
	rendered := RenderRows(rows)
	out := make([]table.Row, len(rendered))
	for i, r := range rendered {
		r := r
		out[i] = table.Row(r[:])
	}
	return out
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.startSession(),
		m.spinner.Tick,
	)
}

func (m Model) startSession() tea.Cmd {
	return func() tea.Msg {
		if m.app.Workflow.Start(m.ctx) {
			m.app.Workflow.LoadTransporters(m.ctx)
		}
		return startedMsg{baseURL: m.app.Client.BaseURL(m.ctx)}
	}
}

// run performs op on the workflow off the UI goroutine
func (m Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{op: op, err: fn(m.ctx)}
	}
}

func (m Model) reloadTransporters() tea.Cmd {
	return func() tea.Msg {
		m.app.Workflow.LoadTransporters(m.ctx)
		return transportersLoadedMsg{}
	}
}

// sync pulls the workflow state and pending alerts into the model
func (m *Model) sync() {
	m.snap = m.app.Workflow.Snapshot()
	m.alerts = append(m.alerts, m.sink.Drain()...)
	if m.snap.State != m.screen {
		m.enter(m.snap.State)
	}
	m.results.SetRows(tableRows(m.snap.Rows))
}

// enter prepares the inputs of the screen for state
func (m *Model) enter(state State) {
	m.screen = state
	m.loginInput.Blur()
	m.barcodeInput.Blur()
	m.updateInput.Blur()

	switch state {
	case StateLoggedOut:
		m.loginInput.Reset()
		m.loginInput.Focus()
	case StateLoggedIn:
		m.barcodeInput.Reset()
		m.barcodeInput.Focus()
	case StateChallanOpen:
		m.fields = newChallanFields(m.snap.Form, m.snap.Transporters)
		m.focusIndex = 0
		m.updateFocus()
	case StateConfirmed:
		m.updateInput.Reset()
		m.updateInput.Focus()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case startedMsg:
		m.loading = false
		m.baseURL = msg.baseURL
		m.sync()
		return m, nil

	case transportersLoadedMsg:
		m.loading = false
		m.sync()
		if m.screen == StateChallanOpen {
			m.setTransporterOptions(m.snap.Transporters)
		}
		return m, nil

	case actionDoneMsg:
		m.loading = false
		m.sync()
		if msg.err == nil {
			switch msg.op {
			case "update":
				m.updateInput.SetValue("")
			case "clear-cache":
				m.message = "DB cache clear requested"
			}
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if len(m.alerts) > 0 {
			switch msg.String() {
			case "enter", "esc", " ":
				m.alerts = m.alerts[1:]
			}
			return m, nil
		}
		if m.loading {
			return m, nil
		}
		m.message = ""

		switch msg.String() {
		case "ctrl+l":
			if m.screen != StateLoggedOut {
				m.loading = true
				return m, m.run("logout", m.app.Workflow.Logout)
			}
			return m, nil
		case "ctrl+k":
			m.loading = true
			return m, m.run("clear-cache", func(ctx context.Context) error {
				m.app.Workflow.ClearCache(ctx)
				return nil
			})
		}

		switch m.screen {
		case StateLoggedOut:
			return m.updateLogin(msg)
		case StateLoggedIn:
			return m.updateBarcode(msg)
		case StateChallanOpen:
			cmd := m.updateFormInputs(msg)
			return m, cmd
		case StateConfirmed:
			return m.updateConfirmation(msg)
		}
	}

	return m, nil
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		username := m.loginInput.Value()
		m.loading = true
		return m, m.run("login", func(ctx context.Context) error {
			return m.app.Workflow.Login(ctx, username)
		})
	}
	var cmd tea.Cmd
	m.loginInput, cmd = m.loginInput.Update(msg)
	return m, cmd
}

func (m Model) updateBarcode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		barcode := m.barcodeInput.Value()
		m.loading = true
		return m, m.run("initiate", func(ctx context.Context) error {
			return m.app.Workflow.Initiate(ctx, barcode)
		})
	case "ctrl+o":
		if m.app.Workflow.Resume() {
			m.sync()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.barcodeInput, cmd = m.barcodeInput.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		barcode := m.updateInput.Value()
		m.loading = true
		return m, m.run("update", func(ctx context.Context) error {
			return m.app.Workflow.Update(ctx, barcode)
		})
	case "esc":
		if m.app.Workflow.Back() {
			m.sync()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.updateInput, cmd = m.updateInput.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var content string
	switch m.screen {
	case StateLoggedOut:
		content = m.renderLogin()
	case StateLoggedIn:
		content = m.renderBarcode()
	case StateChallanOpen:
		content = m.renderChallanForm()
	case StateConfirmed:
		content = m.renderConfirmation()
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.app.Config.Brand))
	b.WriteString(" ")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	if len(m.alerts) > 0 {
		b.WriteString(m.renderAlert(m.alerts[0]))
		b.WriteString("\n\n")
	}

	b.WriteString(content)

	if m.loading {
		b.WriteString(fmt.Sprintf("\n\n  %s Working...", m.spinner.View()))
	} else if m.message != "" {
		b.WriteString("\n\n")
		b.WriteString(successStyle.Render("✓ " + m.message))
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())
	b.WriteString("\n")
	b.WriteString(m.renderCredits())

	return b.String()
}

func (m Model) renderStatusBar() string {
	database := FixedDatabase
	user := "not logged in"
	if m.snap.Session != nil {
		database = m.snap.Session.SelectedDatabase
		user = m.snap.Session.Username
	}
	status := fmt.Sprintf(" %s | %s | %s ", database, m.baseURL, user)
	return statusBarStyle.Render(status)
}

func (m Model) renderAlert(n Notification) string {
	style := alertInfoStyle
	prefix := "! "
	if n.Severity == SeverityFailure {
		style = alertFailureStyle
		prefix = "✗ "
	}
	body := prefix + n.Message + "\n\n" + helpStyle.Render("enter: dismiss")
	if len(m.alerts) > 1 {
		body += helpStyle.Render(fmt.Sprintf(" • %d more", len(m.alerts)-1))
	}
	return style.Render(body)
}

func (m Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Login ") + "\n\n")
	b.WriteString(fmt.Sprintf("  Database: %s\n\n", FixedDatabase))
	b.WriteString("  " + m.loginInput.View() + "\n")
	if m.snap.LoginError != "" {
		b.WriteString("\n  " + errorStyle.Render(m.snap.LoginError) + "\n")
	}
	return boxStyle.Render(b.String())
}

func (m Model) renderBarcode() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Initiate Challan ") + "\n\n")
	b.WriteString("  " + m.barcodeInput.View() + "\n")
	if d := m.snap.Draft; d != nil {
		b.WriteString("\n  " + draftBadge.Render("Draft") +
			fmt.Sprintf(" %s for %s (ctrl+o to reopen)\n", d.Barcode, d.LedgerName))
	}
	return boxStyle.Render(b.String())
}

func (m Model) renderConfirmation() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Delivery Note Saved ") + "\n\n")

	if c := m.snap.Confirmation; c != nil {
		b.WriteString(fmt.Sprintf("  Delivery Note: %s\n", selectedStyle.Render(c.DeliveryNoteNumber.String())))
		b.WriteString(fmt.Sprintf("  Client: %s\n", c.Data.ClientName))
		b.WriteString(fmt.Sprintf("  Mode of Transport: %s\n", c.Data.ModeOfTransport))
		b.WriteString(fmt.Sprintf("  Container: %s | Seal: %s\n", c.Data.ContainerNumber, c.Data.SealNumber))
		b.WriteString(fmt.Sprintf("  Transporter: %s | Vehicle: %s\n", c.Data.TransporterName, c.Data.VehicleNumber))
	}

	b.WriteString("\n  Add barcode: " + m.updateInput.View() + "\n\n")
	b.WriteString(m.results.View())
	return boxStyle.Render(b.String())
}

func (m Model) renderHelp() string {
	var help string
	switch m.screen {
	case StateLoggedOut:
		help = "enter: login • ctrl+k: clear DB cache • ctrl+c: quit"
	case StateLoggedIn:
		help = "enter: initiate • ctrl+o: reopen draft • ctrl+l: logout • ctrl+c: quit"
	case StateChallanOpen:
		help = "tab/↑/↓: move • ←/→: choose • ctrl+r: reload transporters • enter: save • esc: back • ctrl+l: logout"
	case StateConfirmed:
		help = "enter: add barcode • esc: back to form • ctrl+l: logout • ctrl+c: quit"
	}
	return helpStyle.Render(help)
}

func (m Model) renderCredits() string {
	return creditStyle.Render(fmt.Sprintf("grn-cli v%s • © %s %s", Version, Year, Author))
}

// RunTUI starts the TUI
func RunTUI(ctx context.Context, app *App, sink *MemorySink) error {
	p := tea.NewProgram(NewTUI(ctx, app, sink), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
