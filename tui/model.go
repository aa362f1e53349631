// Package tui is the terminal front end: it shows load progress, then one
// email at a time, and turns key presses into triage engine commands.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/bassamadnan/mailsort/inbox"
	"github.com/bassamadnan/mailsort/triage"
)

type viewState int

const (
	viewLoading viewState = iota
	viewReview
	viewCommitting
)

// Loader produces the working set. *inbox.Loader implements it.
type Loader interface {
	Load(ctx context.Context, progress func(count int)) []triage.Email
}

type Model struct {
	ctx       context.Context
	loader    Loader
	committer inbox.Committer
	events    chan tea.Msg
	log       *logrus.Entry

	keys KeyMap
	help help.Model

	currentView viewState
	loaded      int
	engine      *triage.Engine
	lastKey     string
	exhausted   bool

	width, height int
	statusBarText string
	statusIsError bool
	statusIsTemp  bool
}

// NewModel returns a model that loads through loader when the program
// starts. A nil committer makes commit only filter the working set.
func NewModel(ctx context.Context, loader Loader, committer inbox.Committer, log *logrus.Entry) Model {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return Model{
		ctx:           ctx,
		loader:        loader,
		committer:     committer,
		events:        make(chan tea.Msg, 16),
		log:           log.WithField("pkg", "tui"),
		keys:          DefaultKeyMap(),
		help:          help.New(),
		currentView:   viewLoading,
		statusBarText: "Loading emails...",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		startLoadCmd(m.ctx, m.loader, m.events),
		waitForEventCmd(m.events),
	)
}

// Exhausted reports whether the session ended because no emails were left.
func (m Model) Exhausted() bool {
	return m.exhausted
}

// Records returns the working set in review order, nil before loading ends.
func (m Model) Records() []triage.Email {
	if m.engine == nil {
		return nil
	}
	return m.engine.Records()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case ProgressMsg:
		m.loaded = msg.Count
		return m, waitForEventCmd(m.events)

	case LoadedMsg:
		emails := msg.Emails
		triage.Order(emails)
		engine, err := triage.New(emails)
		if err != nil {
			m.log.WithError(err).Info("Nothing to review")
			m.exhausted = true
			return m, tea.Quit
		}
		m.engine = engine
		m.loaded = engine.Len()
		m.currentView = viewReview
		m.setStandardStatus()

	case loadStoppedMsg:
		if m.currentView == viewLoading {
			return m, tea.Quit
		}

	case commitDoneMsg:
		m.currentView = viewReview
		if msg.err != nil {
			m.log.WithError(msg.err).Error("Commit failed")
			m.updateStatusError(fmt.Sprintf("Commit failed: %v", msg.err))
			return m, nil
		}
		m.log.WithField("emails", msg.count).Info("Committed")
		if cmd := m.apply(triage.CommitFilter()); cmd != nil {
			return m, cmd
		}
		m.showTemporaryStatus(fmt.Sprintf("Committed %d emails", msg.count))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.currentView {
	case viewLoading:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	case viewCommitting:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	}

	m.lastKey = msg.String()
	cmd := m.keys.command(msg)

	if cmd.Op == triage.OpCommitFilter && m.committer != nil {
		m.currentView = viewCommitting
		m.updateStatusBar("Committing...")
		return m, commitCmd(m.ctx, m.committer, m.engine.Records())
	}

	m.statusIsTemp = false
	if quit := m.apply(cmd); quit != nil {
		return m, quit
	}
	m.setStandardStatus()
	return m, nil
}

// apply runs cmd on the engine and returns tea.Quit when the session is over.
func (m *Model) apply(cmd triage.Command) tea.Cmd {
	out := m.engine.Apply(cmd)
	if !out.Done() {
		return nil
	}
	m.exhausted = out == triage.Exhausted
	return tea.Quit
}

func (m *Model) showTemporaryStatus(text string) {
	m.statusBarText = text
	m.statusIsError = false
	m.statusIsTemp = true
}

func (m *Model) updateStatusBar(text string) {
	m.statusBarText = text
	m.statusIsError = false
	m.statusIsTemp = false
}

func (m *Model) updateStatusError(text string) {
	m.statusBarText = text
	m.statusIsError = true
	m.statusIsTemp = false
}

func (m *Model) setStandardStatus() {
	m.updateStatusBar("Command: " + m.lastKey)
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing terminal size..."
	}

	statusBar := m.renderStatusBar()
	helpView := m.help.View(m.keys)
	contentHeight := m.height - lipgloss.Height(statusBar) - lipgloss.Height(helpView)
	if contentHeight < 0 {
		contentHeight = 0
	}

	var mainUIView string
	switch m.currentView {
	case viewLoading:
		mainUIView = lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center,
			LoadingStyle.Render(fmt.Sprintf("Read %d emails", m.loaded)))
	default:
		mainUIView = m.renderEmail(m.width, contentHeight)
	}

	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, mainUIView, statusBar, helpView))
}

func (m Model) renderEmail(paneWidth, paneHeight int) string {
	if paneWidth <= 0 || paneHeight <= 0 || m.engine == nil {
		return ""
	}
	snap := m.engine.Snapshot()
	email := snap.Current

	status := fmt.Sprintf("%s %d of %d %s",
		HeaderKeyStyle.Render("Status:"),
		snap.Cursor+1,
		snap.Total,
		dispositionStyle(email.Status).Render(email.Status.String()),
	)
	if snap.HasPending {
		status += " " + PendingStyle.Render("-> "+snap.Pending.String())
	}

	var b strings.Builder
	b.WriteString(status + "\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n\n", HeaderKeyStyle.Render("Date:"), HeaderValStyle.Render(formatEmailDate(email.Date))))
	b.WriteString(fmt.Sprintf("%s %s\n\n", HeaderKeyStyle.Render("From:"), HeaderValStyle.Render(truncate(email.Sender(), paneWidth-10))))
	b.WriteString(fmt.Sprintf("%s %s\n", HeaderKeyStyle.Render("Subject:"), HeaderValStyle.Render(email.Subject)))
	b.WriteString(BodyStyle.Render(strings.ReplaceAll(email.Body, "\r\n", "\n")))

	title := TitleStyle.Render(truncate(email.Subject, paneWidth-(TitleStyle.GetHorizontalPadding()+4)))
	innerWidth := paneWidth - ContentBoxStyle.GetHorizontalFrameSize()
	innerHeight := paneHeight - lipgloss.Height(title) - ContentBoxStyle.GetVerticalFrameSize()
	if innerWidth < 0 {
		innerWidth = 0
	}
	if innerHeight < 0 {
		innerHeight = 0
	}
	content := lipgloss.NewStyle().Width(innerWidth).MaxHeight(innerHeight).Render(b.String())

	return ContentBoxStyle.Width(paneWidth - ContentBoxStyle.GetHorizontalBorderSize()).Render(
		lipgloss.JoinVertical(lipgloss.Top, title, content),
	)
}

func (m Model) renderStatusBar() string {
	styleToUse := StatusBarNormalStyle
	if m.statusIsError {
		styleToUse = StatusBarErrorStyle
	} else if m.statusIsTemp {
		styleToUse = StatusBarSuccessStyle
	}
	return styleToUse.Width(m.width).Render(truncate(m.statusBarText, m.width-styleToUse.GetHorizontalPadding()))
}
