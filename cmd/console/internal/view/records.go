package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	"github.com/MrJamesThe3rd/payrecon/internal/reconcile"
)

type recordsState int

const (
	recordsStateBrowse recordsState = iota
	recordsStateForce
)

var (
	kindFilters   = []payable.Kind{"", payable.KindOrder, payable.KindSubscription}
	statusFilters = []payable.Status{
		"",
		payable.StatusPending,
		payable.StatusProcessing,
		payable.StatusCompleted,
		payable.StatusActive,
		payable.StatusCancelled,
	}
)

// RecordsModel lists payable records and forces transitions on them.
type RecordsModel struct {
	records    *payable.Service
	reconciler *reconcile.Service
	actor      string

	state recordsState
	table table.Model
	items []*payable.Record
	form  *huh.Form

	kindIdx   int
	statusIdx int

	loading bool
	err     error
	status  string

	// Form bindings
	formStatus *payable.Status
	formReason *string
}

func NewRecordsModel(records *payable.Service, reconciler *reconcile.Service, actor string) RecordsModel {
	columns := []table.Column{
		{Title: "Reference", Width: 24},
		{Title: "Kind", Width: 12},
		{Title: "Status", Width: 11},
		{Title: "Amount", Width: 14},
		{Title: "Cycle", Width: 5},
		{Title: "Last event", Width: 16},
		{Title: "Customer", Width: 28},
	}

	return RecordsModel{
		records:    records,
		reconciler: reconciler,
		actor:      actor,
		table:      newTable(columns),
		loading:    true,
	}
}

func (m RecordsModel) Title() string { return "Records" }
func (m RecordsModel) ShortHelp() string {
	if m.state == recordsStateForce {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | x: force transition | k: kind filter | s: status filter | r: refresh"
}

func (m RecordsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m RecordsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRecordsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.items = msg.records
		m.refreshTable()

		return m, nil

	case forceMsg:
		m.status = msg.describe()
		m.state = recordsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case recordsStateBrowse:
		return m.updateBrowse(msg)
	case recordsStateForce:
		return m.updateForce(msg)
	}

	return m, nil
}

func (m RecordsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "x":
			return m.enterForceMode()
		case "k":
			m.kindIdx = (m.kindIdx + 1) % len(kindFilters)
			return m, m.loadCmd()
		case "s":
			m.statusIdx = (m.statusIdx + 1) % len(statusFilters)
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

// targets lists the states rec could be forced into.
func targets(rec *payable.Record) []huh.Option[payable.Status] {
	var opts []huh.Option[payable.Status]
	for _, s := range statusFilters[1:] {
		if s != rec.Status && rec.Kind.Allows(s) && s != payable.StatusPending {
			opts = append(opts, huh.NewOption(string(s), s))
		}
	}

	return opts
}

func (m RecordsModel) enterForceMode() (tea.Model, tea.Cmd) {
	rec := m.selected()
	if rec == nil {
		return m, nil
	}

	opts := targets(rec)
	if len(opts) == 0 {
		return m, nil
	}

	m.formStatus = new(opts[0].Value)
	m.formReason = new("")

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[payable.Status]().
				Key("status").
				Title("New status").
				Options(opts...).
				Value(m.formStatus),

			huh.NewInput().
				Key("reason").
				Title("Reason").
				Placeholder("why is this override needed?").
				Value(m.formReason).
				Validate(func(s string) error {
					if len(strings.TrimSpace(s)) < 3 {
						return fmt.Errorf("reason must be at least 3 characters")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = recordsStateForce
	m.table.Blur()

	return m, m.form.Init()
}

func (m RecordsModel) updateForce(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = recordsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.forceCmd(m.selected(), *m.formStatus, *m.formReason)
}

func (m RecordsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading records...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	kind, status := "All", "All"
	if k := kindFilters[m.kindIdx]; k != "" {
		kind = string(k)
	}

	if s := statusFilters[m.statusIdx]; s != "" {
		status = string(s)
	}

	header := fmt.Sprintf("Filter: [k] Kind: %s | [s] Status: %s", activeStyle(kind), activeStyle(status))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		framed(m.table),
	)

	if rec := m.selected(); m.state == recordsStateForce && m.form != nil && rec != nil {
		body := fmt.Sprintf("%s %s is %s\nActor: %s\n\n%s", rec.Kind, rec.ExternalReference, rec.Status, m.actor, m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel("Force Transition", body))
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m RecordsModel) selected() *payable.Record {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return nil
	}

	return m.items[idx]
}

func (m *RecordsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.items))
	for _, rec := range m.items {
		rows = append(rows, table.Row{
			rec.ExternalReference,
			string(rec.Kind),
			string(rec.Status),
			FormatAmount(rec.Amount, rec.Currency),
			strconv.Itoa(rec.BillingCycle),
			FormatTime(rec.LastEventAt),
			rec.Customer.Email,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadRecordsMsg struct {
	records []*payable.Record
	err     error
}

func (m RecordsModel) loadCmd() tea.Cmd {
	var filter payable.ListFilter
	if k := kindFilters[m.kindIdx]; k != "" {
		filter.Kind = &k
	}

	if s := statusFilters[m.statusIdx]; s != "" {
		filter.Status = &s
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		records, err := m.records.List(ctx, filter)

		return loadRecordsMsg{records: records, err: err}
	}
}

type forceMsg struct {
	record *payable.Record
	result *reconcile.Result
	err    error
}

func (msg forceMsg) describe() string {
	if msg.err != nil {
		return fmt.Sprintf("Force on %s failed: %v", msg.record.ExternalReference, msg.err)
	}

	d := msg.result.Decision

	return fmt.Sprintf("%s %s: %s -> %s", msg.record.ExternalReference, msg.result.Status(), d.From, d.Status)
}

func (m RecordsModel) forceCmd(rec *payable.Record, target payable.Status, reason string) tea.Cmd {
	if rec == nil {
		return nil
	}

	actor := m.actor
	reason = strings.TrimSpace(reason)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := m.reconciler.ForceTransition(ctx, rec.ID, target, actor, reason)

		return forceMsg{record: rec, result: res, err: err}
	}
}
