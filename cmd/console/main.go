package main

import (
	"context"
	"log/slog"
	"os"
	"os/user"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/payrecon/cmd/console/internal/view"
	"github.com/MrJamesThe3rd/payrecon/internal/config"
	"github.com/MrJamesThe3rd/payrecon/internal/database"
	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
	deadletterStore "github.com/MrJamesThe3rd/payrecon/internal/deadletter/store"
	"github.com/MrJamesThe3rd/payrecon/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/payrecon/internal/matching/store"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	payableStore "github.com/MrJamesThe3rd/payrecon/internal/payable/store"
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
	"github.com/MrJamesThe3rd/payrecon/internal/provider/registry"
	"github.com/MrJamesThe3rd/payrecon/internal/reconcile"
)

type model struct {
	records    *payable.Service
	letters    *deadletter.Service
	reconciler *reconcile.Service
	actor      string

	currentView View

	lettersView view.LettersModel
	recordsView view.RecordsModel
}

type View int

const (
	ViewMenu    View = 0
	ViewLetters View = 1
	ViewRecords View = 2
)

func actorFrom(cfg *config.Config) string {
	if cfg.Admin.ConsoleActor != "" {
		return cfg.Admin.ConsoleActor
	}

	if u, err := user.Current(); err == nil && u.Username != "" {
		return "console:" + u.Username
	}

	return "console"
}

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString(), database.Pool{MaxOpenConns: 2})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	providers := provider.NewService(registry.FromConfig(cfg))

	records := payable.NewService(payableStore.New(db))
	letters := deadletter.NewService(deadletterStore.New(db), deadletter.Policy{BaseDelay: cfg.Sweeper.BaseDelay, MaxDelay: cfg.Sweeper.MaxDelay})
	reconciler := reconcile.NewService(providers, matching.NewService(matchingStore.New(db), providers), records, letters)

	actor := actorFrom(cfg)

	return model{
		records:     records,
		letters:     letters,
		reconciler:  reconciler,
		actor:       actor,
		currentView: ViewMenu,
		lettersView: view.NewLettersModel(letters, reconciler),
		recordsView: view.NewRecordsModel(records, reconciler, actor),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewLetters
				m.lettersView = view.NewLettersModel(m.letters, m.reconciler)

				return m, m.lettersView.Init()
			case "2":
				m.currentView = ViewRecords
				m.recordsView = view.NewRecordsModel(m.records, m.reconciler, m.actor)

				return m, m.recordsView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLetters:
		var newModel tea.Model
		newModel, cmd = m.lettersView.Update(msg)
		m.lettersView = newModel.(view.LettersModel)
	case ViewRecords:
		var newModel tea.Model
		newModel, cmd = m.recordsView.Update(msg)
		m.recordsView = newModel.(view.RecordsModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"payrecon console\n\n" +
				"1. Dead Letters\n" +
				"2. Records\n\n" +
				"Acting as " + m.actor + "\n\n" +
				"q. Quit",
		)
	case ViewLetters:
		return screen(m.lettersView)
	case ViewRecords:
		return screen(m.recordsView)
	}

	return "Unknown View"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).PaddingLeft(1).PaddingTop(1)
	helpStyle  = lipgloss.NewStyle().Faint(true).PaddingLeft(1)
)

func screen(v view.View) string {
	return titleStyle.Render(v.Title()) + "\n" + v.View() + "\n" + helpStyle.Render(v.ShortHelp())
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run console", "error", err)
		os.Exit(1)
	}
}
