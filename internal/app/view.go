package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/blendgit/internal/cli"
	"github.com/chmouel/blendgit/internal/log"
	"github.com/muesli/reflow/truncate"
)

const (
	headerHeight = 2 // title and tab bar
	footerHeight = 1 // status line
	minListRows  = 3
)

func highlightDiff(content, style string) string {
	out, err := cli.Highlight(content, style, true)
	if err != nil {
		log.Printf("highlight: %v", err)
		return content
	}
	return out
}

func (m *Model) helpHeight() int {
	return lipgloss.Height(m.help.View(m.keys))
}

// outputHeight is the height of the bordered output pane, 0 when hidden.
func (m *Model) outputHeight() int {
	if !m.showOutput {
		return 0
	}
	return max((m.height-headerHeight-footerHeight-m.helpHeight())/2, 4)
}

func (m *Model) listHeight() int {
	return max(m.height-headerHeight-footerHeight-m.helpHeight()-m.outputHeight(), minListRows)
}

func (m *Model) resize() {
	m.help.Width = m.width
	m.output.Width = max(m.width-2, 10)
	m.output.Height = max(m.outputHeight()-2, 1)
}

// View renders the UI.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderTabs(),
		m.renderList(),
	}
	if m.showOutput {
		sections = append(sections, m.renderOutput())
	}
	sections = append(sections, m.renderStatus(), m.help.View(m.keys))
	view := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.screen != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.screen.View())
	}
	return view
}

func (m *Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Accent).Render("blendgit")
	if !m.snap.IsRepository {
		muted := lipgloss.NewStyle().Foreground(m.theme.MutedFg)
		return title + " " + muted.Render("no repository loaded")
	}

	branch := "(no branch)"
	if b, ok := m.snap.ActiveBranch(); ok {
		branch = b.Name
	}
	status := m.snap.Status()
	parts := []string{
		title,
		lipgloss.NewStyle().Foreground(m.theme.TextFg).Render(filepath.Base(m.snap.RootDir)),
		lipgloss.NewStyle().Foreground(m.theme.Accent).Render(" " + branch),
		lipgloss.NewStyle().Foreground(m.theme.StatusColor(status)).Render(status.String()),
	}
	if m.snap.IsCommitReady() && m.snap.IsDirty() {
		parts = append(parts, lipgloss.NewStyle().Foreground(m.theme.SuccessFg).Render("ready to commit"))
	}
	if m.busy > 0 {
		parts = append(parts, m.spinner.View())
	}
	return m.fit(strings.Join(parts, "  "))
}

func (m *Model) renderTabs() string {
	active := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.AccentFg).
		Background(m.theme.Accent).
		Padding(0, 1)
	inactive := lipgloss.NewStyle().
		Foreground(m.theme.MutedFg).
		Padding(0, 1)

	tabs := make([]string, 0, tabCount)
	for t := range tabCount {
		label := fmt.Sprintf("%s (%d)", t, m.itemCount(t))
		if t == m.tab {
			tabs = append(tabs, active.Render(label))
		} else {
			tabs = append(tabs, inactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) rows() []string {
	var rows []string
	switch m.tab {
	case tabFiles:
		for _, f := range m.files() {
			name := f.Path
			if f.OrigPath != "" {
				name = f.OrigPath + " -> " + f.Path
			}
			style := lipgloss.NewStyle().Foreground(m.theme.StatusColor(f.Status))
			rows = append(rows, style.Render(fmt.Sprintf("%-2s %s", f.Code, name)))
		}
	case tabBranches:
		for _, b := range m.snap.Branches {
			if b.Current {
				rows = append(rows, lipgloss.NewStyle().Foreground(m.theme.SuccessFg).Render("* "+b.Name))
				continue
			}
			rows = append(rows, "  "+b.Name)
		}
	case tabStashes:
		for _, s := range m.snap.Stashes {
			if s.Revision == "" {
				rows = append(rows, s.Line)
				continue
			}
			rev := lipgloss.NewStyle().Foreground(m.theme.WarnFg).Render(s.Revision)
			rows = append(rows, fmt.Sprintf("%s %s %s", rev, s.Branch, s.Message))
		}
	case tabLog:
		for _, entry := range m.snap.Logs {
			line := entry.Summary()
			if entry.Thumbnail != "" {
				line += " [thumbnail]"
			}
			rows = append(rows, line)
		}
	}
	return rows
}

func (m *Model) renderList() string {
	height := m.listHeight()
	rows := m.rows()
	if len(rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(m.theme.MutedFg).Render("nothing to show")
		return lipgloss.NewStyle().Height(height).Render(empty)
	}

	cursor := m.cursors[m.tab]
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(start+height, len(rows))

	selected := lipgloss.NewStyle().Background(m.theme.BorderDim).Bold(true)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := m.fit(rows[i])
		if i == cursor {
			line = selected.Render("> ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderOutput() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Accent).Render(m.outputTitle)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border).
		Width(max(m.width-2, 10))
	return title + "\n" + box.Render(m.output.View())
}

func (m *Model) renderStatus() string {
	if m.statusMsg == "" {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(m.theme.SeverityColor(m.statusSeverity))
	return style.Render(m.fit(m.statusMsg))
}

// fit truncates s to the terminal width, keeping ANSI sequences intact.
func (m *Model) fit(s string) string {
	if m.width <= 2 {
		return s
	}
	return truncate.StringWithTail(s, uint(m.width-2), "…") //nolint:gosec
}
