// Package app implements the interactive terminal UI.
package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/blendgit/internal/app/screen"
	"github.com/chmouel/blendgit/internal/config"
	"github.com/chmouel/blendgit/internal/dispatch"
	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/models"
	"github.com/chmouel/blendgit/internal/repo"
	"github.com/chmouel/blendgit/internal/theme"
)

type tab int

const (
	tabFiles tab = iota
	tabBranches
	tabStashes
	tabLog
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabFiles:
		return "Files"
	case tabBranches:
		return "Branches"
	case tabStashes:
		return "Stashes"
	case tabLog:
		return "Log"
	}
	return ""
}

// Message types for the Bubble Tea app
type (
	stateMsg struct {
		ctx models.RepositoryContext
		ok  bool
	}
	noticeMsg struct {
		message  string
		severity string
	}
	reportMsg struct {
		title  string
		report dispatch.Report
		err    error
		show   bool
	}
	linesMsg struct {
		title string
		lines []string
		err   error
	}
	reloadedMsg struct{ err error }
	commitMsg   struct {
		summary    string
		allowEmpty bool
	}
)

// Model is the Bubble Tea model of the repository browser.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	state *repo.State
	disp  *dispatch.Dispatcher
	cfg   *config.AppConfig
	theme *theme.Theme
	notes *Notifier

	keys    keyMap
	help    help.Model
	output  viewport.Model
	spinner spinner.Model

	updates     <-chan models.RepositoryContext
	unsubscribe func()
	snap        models.RepositoryContext

	tab     tab
	cursors [tabCount]int
	screen  screen.Screen

	showOutput  bool
	outputTitle string

	statusMsg      string
	statusSeverity string

	busy     int
	width    int
	height   int
	quitting bool
}

// New builds the model. notes may be nil when nothing forwards
// notifications.
func New(state *repo.State, disp *dispatch.Dispatcher, cfg *config.AppConfig, notes *Notifier) *Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	thm := theme.GetTheme(cfg.Theme)
	ctx, cancel := context.WithCancel(context.Background())
	updates, unsubscribe := state.Subscribe()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(thm.Accent)

	return &Model{
		ctx:         ctx,
		cancel:      cancel,
		state:       state,
		disp:        disp,
		cfg:         cfg,
		theme:       thm,
		notes:       notes,
		keys:        defaultKeyMap(),
		help:        help.New(),
		output:      viewport.New(80, 10),
		spinner:     sp,
		updates:     updates,
		unsubscribe: unsubscribe,
		snap:        state.Snapshot(),
		width:       80,
		height:      24,
	}
}

// Init starts listening for state updates and notifications.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.updates), waitForNotice(m.notes))
}

func waitForState(ch <-chan models.RepositoryContext) tea.Cmd {
	return func() tea.Msg {
		ctx, ok := <-ch
		return stateMsg{ctx: ctx, ok: ok}
	}
}

func waitForNotice(n *Notifier) tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		return <-n.ch
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case stateMsg:
		if !msg.ok {
			return m, nil
		}
		m.snap = msg.ctx
		m.clampCursors()
		return m, waitForState(m.updates)

	case noticeMsg:
		m.setStatus(msg.message, msg.severity)
		return m, waitForNotice(m.notes)

	case reportMsg:
		m.done()
		if msg.err != nil {
			m.setStatus(msg.title+": "+msg.err.Error(), "error")
			return m, nil
		}
		if msg.show && len(msg.report.Lines) > 0 {
			m.setOutput(msg.title, msg.report.Output(), false)
		}
		if msg.report.Severity == git.SeverityNone {
			m.setStatus(msg.title+": done", "info")
		}
		return m, nil

	case linesMsg:
		m.done()
		if msg.err != nil {
			m.setStatus(msg.title+": "+msg.err.Error(), "error")
			return m, nil
		}
		m.setOutput(msg.title, strings.Join(msg.lines, "\n"), true)
		return m, nil

	case reloadedMsg:
		m.done()
		if msg.err != nil {
			m.setStatus("reload: "+msg.err.Error(), "error")
			return m, nil
		}
		m.setStatus("Repository reloaded", "info")
		return m, nil

	case commitMsg:
		return m, m.showCommitDescription(msg)

	case spinner.TickMsg:
		if m.busy == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.screen != nil {
		next, cmd := m.screen.Update(msg)
		m.screen = next
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.ScrollUp):
		m.output.HalfPageUp()
	case key.Matches(msg, m.keys.ScrollDn):
		m.output.HalfPageDown()
	case key.Matches(msg, m.keys.Clear):
		m.showOutput = false
		m.statusMsg = ""
		m.resize()
	case key.Matches(msg, m.keys.Reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.Stage):
		return m, m.stageSelected()
	case key.Matches(msg, m.keys.Unstage):
		return m, m.unstageSelected()
	case key.Matches(msg, m.keys.Ignore):
		return m, m.ignoreSelected(false)
	case key.Matches(msg, m.keys.Notice):
		return m, m.ignoreSelected(true)
	case key.Matches(msg, m.keys.Commit):
		return m, m.showCommit()
	case key.Matches(msg, m.keys.New):
		return m, m.showNew()
	case key.Matches(msg, m.keys.Delete):
		return m, m.deleteSelected()
	case key.Matches(msg, m.keys.Select):
		return m, m.activateSelected()
	case key.Matches(msg, m.keys.Command):
		return m, m.showCommand()
	}
	return m, nil
}

// Close cancels pending git commands and stops listening for updates.
func (m *Model) Close() {
	m.cancel()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Model) setStatus(message, severity string) {
	message = strings.TrimSpace(message)
	first, rest, multi := strings.Cut(message, "\n")
	if multi && strings.TrimSpace(rest) != "" {
		first += " …"
	}
	m.statusMsg = first
	m.statusSeverity = severity
}

func (m *Model) setOutput(title, content string, highlight bool) {
	if highlight {
		content = highlightDiff(content, m.theme.Chroma)
	}
	m.outputTitle = title
	m.showOutput = true
	m.output.SetContent(content)
	m.output.GotoTop()
	m.resize()
}

// run marks the model busy for the duration of cmd and starts the spinner
// for the first pending command.
func (m *Model) run(cmd tea.Cmd) tea.Cmd {
	m.busy++
	if m.busy == 1 {
		return tea.Batch(cmd, m.spinner.Tick)
	}
	return cmd
}

func (m *Model) done() {
	if m.busy > 0 {
		m.busy--
	}
}

func (m *Model) move(delta int) {
	n := m.itemCount(m.tab)
	if n == 0 {
		m.cursors[m.tab] = 0
		return
	}
	m.cursors[m.tab] = min(max(m.cursors[m.tab]+delta, 0), n-1)
}

func (m *Model) clampCursors() {
	for t := range tabCount {
		n := m.itemCount(t)
		if m.cursors[t] >= n {
			m.cursors[t] = max(n-1, 0)
		}
	}
}

func (m *Model) itemCount(t tab) int {
	switch t {
	case tabFiles:
		return len(m.files())
	case tabBranches:
		return len(m.snap.Branches)
	case tabStashes:
		return len(m.snap.Stashes)
	case tabLog:
		return len(m.snap.Logs)
	}
	return 0
}

// files returns the working tree entries worth listing: everything but
// unmodified tracked files.
func (m *Model) files() []models.FileStatus {
	return m.snap.FilesWith(^models.StatusUnmodified)
}

func (m *Model) selectedFile() (models.FileStatus, bool) {
	files := m.files()
	i := m.cursors[tabFiles]
	if i < 0 || i >= len(files) {
		return models.FileStatus{}, false
	}
	return files[i], true
}

func (m *Model) selectedBranch() (models.Branch, bool) {
	i := m.cursors[tabBranches]
	if i < 0 || i >= len(m.snap.Branches) {
		return models.Branch{}, false
	}
	return m.snap.Branches[i], true
}

func (m *Model) selectedStash() (models.Stash, bool) {
	i := m.cursors[tabStashes]
	if i < 0 || i >= len(m.snap.Stashes) {
		return models.Stash{}, false
	}
	return m.snap.Stashes[i], true
}

func (m *Model) selectedCommit() (models.CommitLogEntry, bool) {
	i := m.cursors[tabLog]
	if i < 0 || i >= len(m.snap.Logs) {
		return models.CommitLogEntry{}, false
	}
	return m.snap.Logs[i], true
}

// selection maps the cursor of every tab to keyword values.
func (m *Model) selection() dispatch.Selection {
	var sel dispatch.Selection
	if f, ok := m.selectedFile(); ok {
		sel.File = f.Path
	}
	if b, ok := m.selectedBranch(); ok {
		sel.Branch = b.Name
	}
	if s, ok := m.selectedStash(); ok {
		sel.Stash = s.Revision
	}
	if c, ok := m.selectedCommit(); ok {
		sel.Commit = c.Hash
	}
	return sel
}
