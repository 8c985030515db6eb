// Package theme provides the colour palettes shared by the TUI and the CLI.
package theme

import (
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/blendgit/internal/models"
	"golang.org/x/term"
)

// Theme defines all colors used in the application UI.
type Theme struct {
	Accent    lipgloss.Color
	AccentFg  lipgloss.Color // Foreground color for text on Accent background
	Border    lipgloss.Color
	BorderDim lipgloss.Color
	MutedFg   lipgloss.Color
	TextFg    lipgloss.Color
	SuccessFg lipgloss.Color
	WarnFg    lipgloss.Color
	ErrorFg   lipgloss.Color

	Staged    lipgloss.Color
	NotStaged lipgloss.Color
	Untracked lipgloss.Color
	Unmerged  lipgloss.Color
	Ignored   lipgloss.Color

	// Chroma is the syntax highlighting style used for diffs.
	Chroma string
	Light  bool
}

// Theme names.
const (
	DraculaName         = "dracula"
	DraculaLightName    = "dracula-light"
	NordName            = "nord"
	GruvboxDarkName     = "gruvbox-dark"
	SolarizedLightName  = "solarized-light"
	CatppuccinMochaName = "catppuccin-mocha"
)

// Dracula returns the Dracula theme (dark background, vibrant colors).
func Dracula() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#BD93F9"),
		AccentFg:  lipgloss.Color("#282A36"),
		Border:    lipgloss.Color("#6272A4"),
		BorderDim: lipgloss.Color("#44475A"),
		MutedFg:   lipgloss.Color("#6272A4"),
		TextFg:    lipgloss.Color("#F8F8F2"),
		SuccessFg: lipgloss.Color("#50FA7B"),
		WarnFg:    lipgloss.Color("#FFB86C"),
		ErrorFg:   lipgloss.Color("#FF5555"),
		Staged:    lipgloss.Color("#50FA7B"),
		NotStaged: lipgloss.Color("#FFB86C"),
		Untracked: lipgloss.Color("#8BE9FD"),
		Unmerged:  lipgloss.Color("#FF79C6"),
		Ignored:   lipgloss.Color("#6272A4"),
		Chroma:    "dracula",
	}
}

// DraculaLight returns the Dracula theme adapted for light backgrounds.
func DraculaLight() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#c6dbe5"),
		AccentFg:  lipgloss.Color("#24292F"),
		Border:    lipgloss.Color("#D0D7DE"),
		BorderDim: lipgloss.Color("#E8E8E8"),
		MutedFg:   lipgloss.Color("#6E7781"),
		TextFg:    lipgloss.Color("#24292F"),
		SuccessFg: lipgloss.Color("#059669"),
		WarnFg:    lipgloss.Color("#D97706"),
		ErrorFg:   lipgloss.Color("#DC2626"),
		Staged:    lipgloss.Color("#059669"),
		NotStaged: lipgloss.Color("#D97706"),
		Untracked: lipgloss.Color("#0891B2"),
		Unmerged:  lipgloss.Color("#DB2777"),
		Ignored:   lipgloss.Color("#8C959F"),
		Chroma:    "github",
		Light:     true,
	}
}

// Nord returns the Nord theme.
func Nord() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#88C0D0"),
		AccentFg:  lipgloss.Color("#2E3440"),
		Border:    lipgloss.Color("#4C566A"),
		BorderDim: lipgloss.Color("#3B4252"),
		MutedFg:   lipgloss.Color("#616E88"),
		TextFg:    lipgloss.Color("#ECEFF4"),
		SuccessFg: lipgloss.Color("#A3BE8C"),
		WarnFg:    lipgloss.Color("#EBCB8B"),
		ErrorFg:   lipgloss.Color("#BF616A"),
		Staged:    lipgloss.Color("#A3BE8C"),
		NotStaged: lipgloss.Color("#EBCB8B"),
		Untracked: lipgloss.Color("#81A1C1"),
		Unmerged:  lipgloss.Color("#B48EAD"),
		Ignored:   lipgloss.Color("#4C566A"),
		Chroma:    "nord",
	}
}

// GruvboxDark returns the Gruvbox dark theme.
func GruvboxDark() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#FABD2F"),
		AccentFg:  lipgloss.Color("#282828"),
		Border:    lipgloss.Color("#665C54"),
		BorderDim: lipgloss.Color("#3C3836"),
		MutedFg:   lipgloss.Color("#928374"),
		TextFg:    lipgloss.Color("#EBDBB2"),
		SuccessFg: lipgloss.Color("#B8BB26"),
		WarnFg:    lipgloss.Color("#FE8019"),
		ErrorFg:   lipgloss.Color("#FB4934"),
		Staged:    lipgloss.Color("#B8BB26"),
		NotStaged: lipgloss.Color("#FE8019"),
		Untracked: lipgloss.Color("#83A598"),
		Unmerged:  lipgloss.Color("#D3869B"),
		Ignored:   lipgloss.Color("#665C54"),
		Chroma:    "gruvbox",
	}
}

// SolarizedLight returns the Solarized light theme.
func SolarizedLight() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#268BD2"),
		AccentFg:  lipgloss.Color("#FDF6E3"),
		Border:    lipgloss.Color("#93A1A1"),
		BorderDim: lipgloss.Color("#EEE8D5"),
		MutedFg:   lipgloss.Color("#93A1A1"),
		TextFg:    lipgloss.Color("#586E75"),
		SuccessFg: lipgloss.Color("#859900"),
		WarnFg:    lipgloss.Color("#CB4B16"),
		ErrorFg:   lipgloss.Color("#DC322F"),
		Staged:    lipgloss.Color("#859900"),
		NotStaged: lipgloss.Color("#CB4B16"),
		Untracked: lipgloss.Color("#2AA198"),
		Unmerged:  lipgloss.Color("#D33682"),
		Ignored:   lipgloss.Color("#93A1A1"),
		Chroma:    "solarized-light",
		Light:     true,
	}
}

// CatppuccinMocha returns the Catppuccin Mocha theme.
func CatppuccinMocha() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#CBA6F7"),
		AccentFg:  lipgloss.Color("#1E1E2E"),
		Border:    lipgloss.Color("#585B70"),
		BorderDim: lipgloss.Color("#313244"),
		MutedFg:   lipgloss.Color("#7F849C"),
		TextFg:    lipgloss.Color("#CDD6F4"),
		SuccessFg: lipgloss.Color("#A6E3A1"),
		WarnFg:    lipgloss.Color("#FAB387"),
		ErrorFg:   lipgloss.Color("#F38BA8"),
		Staged:    lipgloss.Color("#A6E3A1"),
		NotStaged: lipgloss.Color("#FAB387"),
		Untracked: lipgloss.Color("#89DCEB"),
		Unmerged:  lipgloss.Color("#F5C2E7"),
		Ignored:   lipgloss.Color("#585B70"),
		Chroma:    "catppuccin-mocha",
	}
}

var themes = map[string]func() *Theme{
	DraculaName:         Dracula,
	DraculaLightName:    DraculaLight,
	NordName:            Nord,
	GruvboxDarkName:     GruvboxDark,
	SolarizedLightName:  SolarizedLight,
	CatppuccinMochaName: CatppuccinMocha,
}

// GetTheme returns a theme by name, or Dracula if not found.
func GetTheme(name string) *Theme {
	if fn, ok := themes[name]; ok {
		return fn()
	}
	return Dracula()
}

// NormalizeName returns the canonical theme name, or "" when unknown.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := themes[name]; ok {
		return name
	}
	return ""
}

// IsLight returns true if the theme is a light theme.
func IsLight(name string) bool {
	return GetTheme(name).Light
}

// DefaultDark returns the default dark theme name.
func DefaultDark() string {
	return DraculaName
}

// DefaultLight returns the default light theme name.
func DefaultLight() string {
	return DraculaLightName
}

// AvailableThemes returns a sorted list of available theme names.
func AvailableThemes() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// isTerminal is swapped in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec
}

// Detect picks the default dark or light theme from the terminal
// background. Without a terminal the dark theme is used.
func Detect() string {
	if isTerminal() && !lipgloss.HasDarkBackground() {
		return DefaultLight()
	}
	return DefaultDark()
}

// StatusColor returns the colour for a file status. Union statuses use
// the most urgent member.
func (t *Theme) StatusColor(s models.StatusCategory) lipgloss.Color {
	switch {
	case s.Has(models.StatusUnmerged):
		return t.Unmerged
	case s.Has(models.StatusNotStaged):
		return t.NotStaged
	case s.Has(models.StatusStaged):
		return t.Staged
	case s.Has(models.StatusUntracked):
		return t.Untracked
	case s.Has(models.StatusIgnored):
		return t.Ignored
	}
	return t.TextFg
}

// SeverityColor returns the colour for a notification severity name.
func (t *Theme) SeverityColor(severity string) lipgloss.Color {
	switch severity {
	case "error":
		return t.ErrorFg
	case "warning":
		return t.WarnFg
	case "info":
		return t.SuccessFg
	}
	return t.MutedFg
}
