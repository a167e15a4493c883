package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
	"github.com/MrJamesThe3rd/payrecon/internal/reconcile"
)

const payloadPreview = 600

var reasonFilters = []deadletter.Reason{
	"",
	deadletter.ReasonUnresolved,
	deadletter.ReasonAmbiguous,
	deadletter.ReasonUnknownStatus,
}

// LettersModel lists dead letters and retries them through the reconciler.
type LettersModel struct {
	letters    *deadletter.Service
	reconciler *reconcile.Service

	table   table.Model
	items   []*deadletter.Letter
	detail  bool
	showAll bool

	reasonIdx int

	loading bool
	err     error
	status  string
}

func NewLettersModel(letters *deadletter.Service, reconciler *reconcile.Service) LettersModel {
	columns := []table.Column{
		{Title: "Created", Width: 16},
		{Title: "Provider", Width: 12},
		{Title: "Event", Width: 24},
		{Title: "Reason", Width: 14},
		{Title: "Tries", Width: 5},
		{Title: "Next attempt", Width: 16},
		{Title: "Last error", Width: 40},
	}

	return LettersModel{
		letters:    letters,
		reconciler: reconciler,
		table:      newTable(columns),
		loading:    true,
	}
}

func (m LettersModel) Title() string { return "Dead Letters" }
func (m LettersModel) ShortHelp() string {
	return "Esc: back | enter: payload | t: retry | f: reason filter | a: show resolved | r: refresh"
}

func (m LettersModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m LettersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadLettersMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.items = msg.letters
		m.refreshTable()

		return m, nil

	case retryMsg:
		m.status = msg.describe()
		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.detail {
				m.detail = false
				return m, nil
			}

			return m, Back
		case "enter":
			m.detail = !m.detail
			return m, nil
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "t":
			return m, m.retryCmd()
		case "f":
			m.reasonIdx = (m.reasonIdx + 1) % len(reasonFilters)
			return m, m.loadCmd()
		case "a":
			m.showAll = !m.showAll
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m LettersModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading dead letters...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	reason := "All"
	if r := reasonFilters[m.reasonIdx]; r != "" {
		reason = string(r)
	}

	scope := "Open"
	if m.showAll {
		scope = "All"
	}

	header := fmt.Sprintf("Filter: [f] Reason: %s | [a] Scope: %s | %d letters",
		activeStyle(reason), activeStyle(scope), len(m.items))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		framed(m.table),
	)

	if l := m.selected(); m.detail && l != nil {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel("Letter "+l.ID.String(), letterDetail(l)))
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m LettersModel) selected() *deadletter.Letter {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return nil
	}

	return m.items[idx]
}

func (m *LettersModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.items))
	for _, l := range m.items {
		next := FormatTime(l.NextAttemptAt)
		if l.Resolved() {
			next = "resolved"
		} else if !l.Retryable {
			next = "manual"
		}

		rows = append(rows, table.Row{
			FormatTime(&l.CreatedAt),
			string(l.Provider),
			l.ProviderEventID,
			string(l.Reason),
			strconv.Itoa(l.Attempts),
			next,
			l.LastError,
		})
	}

	m.table.SetRows(rows)
}

func letterDetail(l *deadletter.Letter) string {
	payload := l.Payload

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, l.Payload, "", "  "); err == nil {
		payload = pretty.Bytes()
	}

	if len(payload) > payloadPreview {
		payload = append(payload[:payloadPreview:payloadPreview], []byte("\n...")...)
	}

	lastErr := l.LastError
	if lastErr == "" {
		lastErr = "-"
	}

	return fmt.Sprintf("Event: %s\nReason: %s\nLast error: %s\n\n%s", l.ProviderEventID, l.Reason, lastErr, payload)
}

// Messages

type loadLettersMsg struct {
	letters []*deadletter.Letter
	err     error
}

func (m LettersModel) loadCmd() tea.Cmd {
	filter := deadletter.ListFilter{OnlyOpen: !m.showAll, Limit: 200}
	if r := reasonFilters[m.reasonIdx]; r != "" {
		filter.Reason = &r
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		letters, err := m.letters.List(ctx, filter)

		return loadLettersMsg{letters: letters, err: err}
	}
}

type retryMsg struct {
	letter *deadletter.Letter
	result *reconcile.Result
	err    error
}

func (msg retryMsg) describe() string {
	switch {
	case msg.result != nil && msg.result.DeadLetter == nil:
		return fmt.Sprintf("Resolved %s: %s", msg.letter.ProviderEventID, msg.result.Status())
	case msg.err != nil:
		return fmt.Sprintf("Retry of %s failed: %v", msg.letter.ProviderEventID, msg.err)
	default:
		return fmt.Sprintf("%s already resolved", msg.letter.ProviderEventID)
	}
}

func (m LettersModel) retryCmd() tea.Cmd {
	l := m.selected()
	if l == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := m.reconciler.Retry(ctx, l)

		return retryMsg{letter: l, result: res, err: err}
	}
}
