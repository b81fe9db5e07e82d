package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DashboardView ViewState = iota
	ErrorsView
	DetailView
)

// DefaultInterval is the polling period when none is given.
const DefaultInterval = 5 * time.Second

// errorLimit is how many recent failures are fetched per poll.
const errorLimit = 50

// Model represents the monitor state.
type Model struct {
	ctx      context.Context
	source   Source
	interval time.Duration
	view     ViewState
	width    int
	height   int

	snapshot  *Snapshot
	rows      []ErrorRow
	errorList list.Model
	selected  *ErrorRow
	updated   time.Time
	err       error

	help help.Model
	keys keyMap
}

// NewModel creates a monitor polling source every interval.
func NewModel(ctx context.Context, source Source, interval time.Duration) *Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	errorList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	errorList.Title = "Recent errors"
	return &Model{
		ctx:       ctx,
		source:    source,
		interval:  interval,
		view:      DashboardView,
		errorList: errorList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init fetches the first snapshot and schedules polling.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchStatus(), m.fetchErrors(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.errorList.SetSize(max(msg.Width-4, 0), max(msg.Height-6, 0))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.view == ErrorsView {
		m.errorList, cmd = m.errorList.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTick:
		return m, tea.Batch(m.fetchStatus(), m.fetchErrors(), m.tick())

	case MsgStatusFetched:
		res := msg.data.(statusResult)
		m.err = res.err
		if res.err == nil {
			m.snapshot = res.snapshot
			m.updated = time.Now()
		}
		return m, nil

	case MsgErrorsFetched:
		res := msg.data.(errorsResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.rows = res.rows
		items := make([]list.Item, len(res.rows))
		for i, row := range res.rows {
			items[i] = errorItem{row: row}
		}
		return m, m.errorList.SetItems(items)
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view == ErrorsView && m.errorList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.errorList, cmd = m.errorList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, tea.Batch(m.fetchStatus(), m.fetchErrors())
	case key.Matches(msg, m.keys.tab):
		if m.view == DashboardView {
			m.view = ErrorsView
		} else {
			m.view = DashboardView
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		switch m.view {
		case DetailView:
			m.view = ErrorsView
			m.selected = nil
		case ErrorsView:
			m.view = DashboardView
		}
		return m, nil
	case key.Matches(msg, m.keys.enter) && m.view == ErrorsView:
		if item, ok := m.errorList.SelectedItem().(errorItem); ok {
			row := item.row
			m.selected = &row
			m.view = DetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == ErrorsView {
		m.errorList, cmd = m.errorList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case DashboardView:
		body = m.renderDashboard()
	case ErrorsView:
		body = m.errorList.View()
	case DetailView:
		body = m.renderDetail()
	}

	footer := m.help.ShortHelpView(m.helpKeys())
	if m.err != nil {
		footer = styles.err.Render("Error: "+m.err.Error()) + "\n" + footer
	}
	return fmt.Sprintf("%s\n\n%s", body, footer)
}

func (m *Model) helpKeys() []key.Binding {
	switch m.view {
	case ErrorsView:
		return []key.Binding{m.keys.enter, m.keys.tab, m.keys.refresh, m.keys.quit}
	case DetailView:
		return []key.Binding{m.keys.back, m.keys.quit}
	}
	return m.keys.ShortHelp()
}

func (m *Model) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.interval)
		defer cancel()
		snap, err := m.source.Status(ctx)
		return statusFetchedMsg(snap, err)
	}
}

func (m *Model) fetchErrors() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.interval)
		defer cancel()
		rows, err := m.source.Errors(ctx, errorLimit)
		return errorsFetchedMsg(rows, err)
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg() })
}

func (m *Model) line(label, value string) string {
	return styles.label.Render(label) + value
}

func (m *Model) renderDashboard() string {
	title := styles.title.Render("ytmp monitor")
	if m.snapshot == nil {
		return title + "\n" + styles.help.Render("Waiting for the first status report...")
	}
	s := m.snapshot

	lines := []string{
		m.line("Status", styles.status(s.Status)),
		m.line("Message", s.Message),
		m.line("Version", s.Version),
		m.line("Uptime", s.Uptime),
		m.line("Breaker", fmt.Sprintf("%s (%d failures in a row)", styles.status(s.Breaker.State), s.Breaker.ConsecutiveFailures)),
	}
	if s.Probe != nil {
		lines = append(lines, m.line("Last probe", fmt.Sprintf("%s in %dms at %s",
			styles.status(string(s.Probe.Status)), s.Probe.DurationMs, s.Probe.CheckedAt.Local().Format("15:04:05"))))
	}
	if s.Issue != "" {
		lines = append(lines, m.line("Issue", styles.warn.Render(s.Issue)))
	}
	if s.Recommendation != "" {
		lines = append(lines, m.line("Recommended", s.Recommendation))
	}
	if s.Process != nil {
		lines = append(lines, m.line("Process", fmt.Sprintf("%d goroutines, %s RSS, %.1f%% CPU",
			s.Process.Goroutines, s.Process.MemRSS, s.Process.CPUPercent)))
	}
	status := styles.panel.Render(strings.Join(lines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, title, status, "", m.renderCounts(),
		styles.help.Render(fmt.Sprintf("Updated %s, polling every %s", m.updated.Format("15:04:05"), m.interval)))
}

func (m *Model) renderCounts() string {
	if len(m.snapshot.ErrorCounts) == 0 {
		return styles.ok.Render("No errors in the last hour")
	}
	kinds := make([]string, 0, len(m.snapshot.ErrorCounts))
	for k := range m.snapshot.ErrorCounts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	lines := []string{styles.warn.Render("Errors in the last hour")}
	for _, k := range kinds {
		lines = append(lines, m.line(k, fmt.Sprintf("%d", m.snapshot.ErrorCounts[k])))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	r := m.selected
	lines := []string{
		m.line("Operation", r.Operation),
		m.line("Kind", r.Kind),
		m.line("Status", styles.code(r.Status).Render(fmt.Sprintf("%d", r.Status))),
		m.line("Message", r.Message),
		m.line("Request", fmt.Sprintf("%s %s", r.Method, r.Path)),
		m.line("Request ID", r.RequestID),
		m.line("At", r.CreatedAt.Local().Format(time.RFC3339)),
	}
	if r.Identifier != "" {
		lines = append(lines, m.line("Identifier", r.Identifier))
	}
	if r.TechnicalDetails != "" {
		lines = append(lines, "", styles.help.Render(r.TechnicalDetails))
	}
	return styles.title.Render("Error detail") + "\n" + styles.panel.Render(strings.Join(lines, "\n"))
}
