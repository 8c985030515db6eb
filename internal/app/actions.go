package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chmouel/blendgit/internal/app/screen"
	"github.com/chmouel/blendgit/internal/dispatch"
	"github.com/chmouel/blendgit/internal/models"
)

func (m *Model) reload() tea.Cmd {
	ctx, state := m.ctx, m.state
	return m.run(func() tea.Msg {
		return reloadedMsg{err: state.Reload(ctx)}
	})
}

// execute runs a built action; build errors are reported without running
// anything.
func (m *Model) execute(title string, action dispatch.Action, err error) tea.Cmd {
	if err != nil {
		m.setStatus(err.Error(), "error")
		return nil
	}
	ctx, disp := m.ctx, m.disp
	return m.run(func() tea.Msg {
		report, err := disp.Execute(ctx, action)
		return reportMsg{title: title, report: report, err: err}
	})
}

func (m *Model) lines(title string, args ...string) tea.Cmd {
	ctx, disp := m.ctx, m.disp
	return m.run(func() tea.Msg {
		out, err := disp.Lines(ctx, args...)
		return linesMsg{title: title, lines: out, err: err}
	})
}

func (m *Model) stageSelected() tea.Cmd {
	if m.tab != tabFiles {
		return nil
	}
	f, ok := m.selectedFile()
	if !ok {
		return nil
	}
	action, err := dispatch.Stage(f.Path)
	return m.execute("stage "+f.Path, action, err)
}

func (m *Model) unstageSelected() tea.Cmd {
	if m.tab != tabFiles {
		return nil
	}
	f, ok := m.selectedFile()
	if !ok {
		return nil
	}
	action, err := dispatch.Unstage(f.Path, f.Status.Has(models.StatusUnmerged))
	return m.execute("unstage "+f.Path, action, err)
}

// ignoreSelected appends the selected path to the ignore file, or its
// negation when notice is set.
func (m *Model) ignoreSelected(notice bool) tea.Cmd {
	if m.tab != tabFiles {
		return nil
	}
	f, ok := m.selectedFile()
	if !ok {
		return nil
	}
	title := "ignore " + f.Path
	if notice {
		title = "notice " + f.Path
	}
	ctx, disp, path := m.ctx, m.disp, f.Path
	return m.run(func() tea.Msg {
		return reportMsg{title: title, err: disp.Ignore(ctx, path, notice)}
	})
}

// activateSelected switches to a branch, applies a stash or shows the
// diff of a file or commit.
func (m *Model) activateSelected() tea.Cmd {
	switch m.tab {
	case tabFiles:
		f, ok := m.selectedFile()
		if !ok {
			return nil
		}
		args := []string{"diff", "--", f.Path}
		if f.Status.Has(models.StatusStaged) && !f.Status.Has(models.StatusNotStaged) {
			args = []string{"diff", "--cached", "--", f.Path}
		}
		return m.lines("diff "+f.Path, args...)
	case tabBranches:
		b, ok := m.selectedBranch()
		if !ok || b.Current {
			return nil
		}
		action, err := dispatch.Switch(b.Name)
		return m.execute("switch "+b.Name, action, err)
	case tabStashes:
		s, ok := m.selectedStash()
		if !ok {
			return nil
		}
		action, err := dispatch.StashApply(s.Revision)
		return m.execute("stash apply "+s.Revision, action, err)
	case tabLog:
		c, ok := m.selectedCommit()
		if !ok || c.Hash == "" {
			return nil
		}
		return m.lines("show "+c.Hash, "show", c.Hash)
	}
	return nil
}

func (m *Model) deleteSelected() tea.Cmd {
	var (
		question string
		action   dispatch.Action
		err      error
	)
	switch m.tab {
	case tabBranches:
		b, ok := m.selectedBranch()
		if !ok || b.Current {
			return nil
		}
		question = fmt.Sprintf("Delete branch %s?", b.Name)
		action, err = dispatch.BranchDelete(b.Name, false)
	case tabStashes:
		s, ok := m.selectedStash()
		if !ok {
			return nil
		}
		question = fmt.Sprintf("Drop %s?", s.Revision)
		action, err = dispatch.StashDrop(s.Revision)
	default:
		return nil
	}
	if err != nil {
		m.setStatus(err.Error(), "error")
		return nil
	}
	title := action.Name
	if !m.cfg.ConfirmDestructive {
		return m.execute(title, action, nil)
	}
	confirm := screen.NewConfirmScreen(question, m.theme)
	confirm.OnConfirm = func() tea.Cmd {
		return m.execute(title, action, nil)
	}
	m.screen = confirm
	return nil
}

// showNew asks for a branch name on the branches tab and for a stash
// message on the stashes tab.
func (m *Model) showNew() tea.Cmd {
	switch m.tab {
	case tabBranches:
		input := screen.NewInputScreen("New branch", "branch name", "", m.theme)
		input.Validate = func(v string) string {
			if strings.TrimSpace(v) == "" {
				return "Branch name is required"
			}
			return ""
		}
		input.OnSubmit = func(value string, _ bool) tea.Cmd {
			name := strings.TrimSpace(value)
			action, err := dispatch.BranchAdd(name)
			return m.execute("branch "+name, action, err)
		}
		m.screen = input
	case tabStashes:
		input := screen.NewInputScreen("Stash message", "work in progress", "", m.theme)
		input.SetCheckbox("Include untracked files", false)
		input.Validate = func(v string) string {
			if strings.TrimSpace(v) == "" {
				return "Stash message is required"
			}
			return ""
		}
		input.OnSubmit = func(value string, untracked bool) tea.Cmd {
			action, err := dispatch.StashSave(strings.TrimSpace(value), untracked)
			return m.execute("stash save", action, err)
		}
		m.screen = input
	}
	return nil
}

func (m *Model) showCommit() tea.Cmd {
	if !m.snap.IsCommitReady() {
		m.setStatus(dispatch.ErrNotCommitReady.Error(), "warning")
		return nil
	}
	input := screen.NewInputScreen("Commit summary", "what changed", "", m.theme)
	input.SetCheckbox("Allow empty commit", false)
	input.Validate = func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "Commit summary is required"
		}
		return ""
	}
	input.OnSubmit = func(value string, allowEmpty bool) tea.Cmd {
		summary := strings.TrimSpace(value)
		return func() tea.Msg { return commitMsg{summary: summary, allowEmpty: allowEmpty} }
	}
	m.screen = input
	return nil
}

func (m *Model) showCommitDescription(msg commitMsg) tea.Cmd {
	input := screen.NewInputScreen("Description (optional)", "", "", m.theme)
	input.OnSubmit = func(value string, _ bool) tea.Cmd {
		ctx, disp := m.ctx, m.disp
		return m.run(func() tea.Msg {
			report, err := disp.Commit(ctx, msg.summary, strings.TrimSpace(value), msg.allowEmpty)
			return reportMsg{title: "commit", report: report, err: err}
		})
	}
	m.screen = input
	return nil
}

// showCommand prompts for a free-form git command whose keywords expand
// to the selected items. A configured shortcut name runs its command.
func (m *Model) showCommand() tea.Cmd {
	input := screen.NewInputScreen("git", "log --oneline -- "+dispatch.KeywordFile, "", m.theme)
	input.Validate = func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "Command is required"
		}
		return ""
	}
	input.OnSubmit = func(value string, _ bool) tea.Cmd {
		command := strings.TrimSpace(value)
		if sc, ok := m.cfg.Shortcuts[command]; ok && sc != nil {
			command = sc.Command
		}
		sel := m.selection()
		ctx, disp := m.ctx, m.disp
		return m.run(func() tea.Msg {
			report, err := disp.RunCommand(ctx, command, sel)
			return reportMsg{title: "git " + command, report: report, err: err, show: true}
		})
	}
	m.screen = input
	return nil
}
