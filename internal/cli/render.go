// Package cli renders repository state for the terminal and asks the user
// for input outside the TUI.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/blendgit/internal/dispatch"
	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/models"
	"github.com/chmouel/blendgit/internal/theme"
	devicons "github.com/epilande/go-devicons"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/term"
)

const defaultWidth = 100

// isTerminal is swapped in tests.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec
}

// terminalWidth is swapped in tests.
var terminalWidth = func(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd())) //nolint:gosec
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// Printer writes styled listings.
type Printer struct {
	out   io.Writer
	theme *theme.Theme
	icons bool
	color bool
	width int
}

// NewPrinter returns a Printer for out. Colours, icons and width follow the
// terminal when out is one.
func NewPrinter(out io.Writer, th *theme.Theme, icons bool) *Printer {
	p := &Printer{out: out, theme: th, icons: icons, width: defaultWidth}
	if f, ok := out.(*os.File); ok && isTerminal(f) {
		p.color = true
		p.width = terminalWidth(f)
	} else {
		p.icons = false
	}
	return p
}

func (p *Printer) style(c lipgloss.Color) lipgloss.Style {
	if !p.color {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(c)
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.out, truncate.StringWithTail(s, uint(max(p.width, 10)), "…")) //nolint:gosec
}

func (p *Printer) header(title string) {
	st := p.style(p.theme.Accent)
	if p.color {
		st = st.Bold(true)
	}
	_, _ = fmt.Fprintln(p.out, st.Render(title))
}

// Status prints the branch line and every file entry.
func (p *Printer) Status(ctx models.RepositoryContext) {
	branch := "(no branch)"
	if b, ok := ctx.ActiveBranch(); ok {
		branch = b.Name
	}
	p.header(fmt.Sprintf("On %s", branch))

	status := ctx.Status()
	summary := p.style(p.theme.StatusColor(status)).Render(status.String())
	if ctx.IsCommitReady() && ctx.IsDirty() {
		summary += p.style(p.theme.SuccessFg).Render(" (ready to commit)")
	}
	_, _ = fmt.Fprintln(p.out, summary)

	for _, f := range ctx.Files {
		if f.Status == models.StatusUnmodified {
			continue
		}
		p.println(p.fileLine(f))
	}
}

// Files prints every entry, including unmodified tracked files.
func (p *Printer) Files(files []models.FileStatus) {
	for _, f := range files {
		p.println(p.fileLine(f))
	}
}

func (p *Printer) fileLine(f models.FileStatus) string {
	code := p.style(p.theme.StatusColor(f.Status)).Render(f.Code)
	name := f.Path
	if f.OrigPath != "" {
		name = f.OrigPath + " -> " + f.Path
	}
	return fmt.Sprintf("%s %s%s", code, p.icon(f.Path), name)
}

func (p *Printer) icon(path string) string {
	if !p.icons {
		return ""
	}
	style := devicons.IconForInfo(iconFileInfo{name: filepath.Base(path)})
	if style.Icon == "" {
		return ""
	}
	return style.Icon + " "
}

// Branches prints local branches, marking the current one.
func (p *Printer) Branches(branches []models.Branch) {
	for _, b := range branches {
		if b.Current {
			p.println(p.style(p.theme.SuccessFg).Render("* " + b.Name))
			continue
		}
		p.println("  " + b.Name)
	}
}

// Stashes prints stash entries.
func (p *Printer) Stashes(stashes []models.Stash) {
	for _, s := range stashes {
		if s.Revision == "" {
			p.println(s.Line)
			continue
		}
		rev := p.style(p.theme.Accent).Render(s.Revision)
		branch := p.style(p.theme.MutedFg).Render(s.Branch)
		p.println(fmt.Sprintf("%s %s %s", rev, branch, s.Message))
	}
}

// Log prints commit log entries. Entries with a thumbnail are marked.
func (p *Printer) Log(entries []models.CommitLogEntry) {
	for _, e := range entries {
		for i, line := range strings.Split(e.Text, "\n") {
			if i == 0 && e.Thumbnail != "" {
				line += p.style(p.theme.MutedFg).Render(" [thumbnail]")
			}
			p.println(line)
		}
	}
}

// Lines prints raw command output.
func (p *Printer) Lines(lines []string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(p.out, line)
	}
}

// Report prints the output of an executed action, coloured by severity.
func (p *Printer) Report(r dispatch.Report) {
	st := p.style(p.theme.SeverityColor(r.Severity.String()))
	for _, line := range r.Lines {
		_, _ = fmt.Fprintln(p.out, st.Render(line))
	}
}

// Notify prints a notification message.
func (p *Printer) Notify(message, severity string) {
	if message == "" {
		return
	}
	prefix := ""
	if severity == git.SeverityError.String() {
		prefix = "Error: "
	}
	_, _ = fmt.Fprintln(p.out, p.style(p.theme.SeverityColor(severity)).Render(prefix+message))
}

type iconFileInfo struct {
	name string
}

func (i iconFileInfo) Name() string       { return i.name }
func (i iconFileInfo) Size() int64        { return 0 }
func (i iconFileInfo) Mode() os.FileMode  { return 0 }
func (i iconFileInfo) ModTime() time.Time { return time.Time{} }
func (i iconFileInfo) IsDir() bool        { return false }
func (i iconFileInfo) Sys() any           { return nil }
