// Package config loads blendgit settings from YAML, git config and command
// line overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/theme"
	"gopkg.in/yaml.v3"
)

// DefaultServeAddr is where the state publisher listens by default.
const DefaultServeAddr = "127.0.0.1:7070"

// Shortcut is a named free-form git command.
type Shortcut struct {
	Command     string
	Description string
	ShowOutput  bool
	NeedConfirm bool
}

// AppConfig defines the blendgit configuration options.
type AppConfig struct {
	GitExecPath        string            // Empty means the platform default location
	ArchiveDir         string            // Empty archives inside the working tree
	ArchiveIncludeLog  bool              // Add commit_log.txt to archives by default
	LogCommand         string            // Empty means the built-in graph log
	LogCommands        map[string]string // Named alternatives for LogCommand
	Shortcuts          map[string]*Shortcut
	Theme              string
	DebugLog           string
	ShowIcons          bool // Render Nerd Font icons in status views (default: true)
	AutoReload         bool // Reload on filesystem changes in the TUI
	Classifier         string
	ServeAddr          string
	ConfirmDestructive bool // Ask before reset --hard, branch -D and stash clear (default: true)
	WatchDebounceMs    int  // Quiet period before a filesystem change triggers a reload
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		LogCommands: map[string]string{
			"graph":   "log --graph --oneline --all",
			"oneline": "log --oneline",
			"stat":    "log --stat -n 20",
		},
		Shortcuts: map[string]*Shortcut{
			"fetch": {
				Command:     "fetch --all --prune",
				Description: "Fetch every remote",
				ShowOutput:  true,
			},
			"lfs-pull": {
				Command:     "lfs pull",
				Description: "Download LFS objects",
				ShowOutput:  true,
			},
		},
		ShowIcons:          true,
		Classifier:         git.ClassifierSubstring,
		ServeAddr:          DefaultServeAddr,
		ConfirmDestructive: true,
		WatchDebounceMs:    600,
	}
}

func coerceBool(value any, defaultVal bool) bool {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		text := strings.ToLower(strings.TrimSpace(v))
		switch text {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultVal
}

func coerceInt(value any, defaultVal int) int {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return defaultVal
	case int:
		return v
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return defaultVal
		}
		if i, err := strconv.Atoi(text); err == nil {
			return i
		}
	}
	return defaultVal
}

func coerceString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	case []any:
		// repeated keys: the last one wins
		if len(v) > 0 {
			return coerceString(v[len(v)-1])
		}
	case nil:
		return "", false
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v)), true
	}
	return "", false
}

// normalizeKey folds git-config style names (archive-dir, archivedir) onto
// the YAML spelling (archive_dir).
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "-", "_")
	if canonical, ok := compactKeys[strings.ReplaceAll(key, "_", "")]; ok {
		return canonical
	}
	return key
}

var knownKeys = []string{
	"git_execpath", "archive_dir", "archive_include_log", "log_command",
	"log_commands", "shortcuts", "theme", "debug_log", "show_icons",
	"auto_reload", "classifier", "serve_addr", "confirm_destructive",
	"watch_debounce_ms",
}

var compactKeys = map[string]string{}

func init() {
	for _, key := range knownKeys {
		compactKeys[strings.ReplaceAll(key, "_", "")] = key
	}
}

// Keys lists the top-level configuration keys.
func Keys() []string {
	return slices.Clone(knownKeys)
}

func parseShortcut(raw any) *Shortcut {
	switch v := raw.(type) {
	case string:
		if cmd := strings.TrimSpace(v); cmd != "" {
			return &Shortcut{Command: cmd}
		}
	case map[string]any:
		sc := &Shortcut{}
		if cmd, ok := v["command"].(string); ok {
			sc.Command = strings.TrimSpace(cmd)
		}
		if desc, ok := v["description"].(string); ok {
			sc.Description = strings.TrimSpace(desc)
		}
		sc.ShowOutput = coerceBool(v["show_output"], false)
		sc.NeedConfirm = coerceBool(v["need_confirm"], false)
		if sc.Command != "" {
			return sc
		}
	}
	return nil
}

func parseStringMap(raw any) map[string]string {
	out := map[string]string{}
	m, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	for key, val := range m {
		if text, ok := coerceString(val); ok && text != "" {
			out[key] = text
		}
	}
	return out
}

// applyConfig overlays data on cfg. Absent keys keep their current value
// and invalid values are ignored.
func applyConfig(cfg *AppConfig, data map[string]any) {
	normalized := make(map[string]any, len(data))
	for key, val := range data {
		name := normalizeKey(key)
		// git config subsections: shortcut.<name>, log_command.<alias>
		if prefix, sub, ok := strings.Cut(key, "."); ok {
			switch normalizeKey(prefix) {
			case "shortcut", "shortcuts":
				if sc := parseShortcut(lastValue(val)); sc != nil {
					cfg.Shortcuts[sub] = sc
				}
				continue
			case "log_command", "log_commands":
				if text, ok := coerceString(val); ok && text != "" {
					cfg.LogCommands[sub] = text
				}
				continue
			}
		}
		normalized[name] = val
	}
	data = normalized

	for key, dst := range map[string]*string{
		"git_execpath": &cfg.GitExecPath,
		"archive_dir":  &cfg.ArchiveDir,
		"log_command":  &cfg.LogCommand,
		"debug_log":    &cfg.DebugLog,
	} {
		if text, ok := coerceString(data[key]); ok && text != "" {
			*dst = text
		}
	}

	if addr, ok := coerceString(data["serve_addr"]); ok && addr != "" {
		cfg.ServeAddr = addr
	}
	if name, ok := coerceString(data["theme"]); ok {
		if canonical := theme.NormalizeName(name); canonical != "" {
			cfg.Theme = canonical
		}
	}
	if name, ok := coerceString(data["classifier"]); ok {
		switch strings.ToLower(name) {
		case git.ClassifierSubstring, git.ClassifierExitCode:
			cfg.Classifier = strings.ToLower(name)
		}
	}

	cfg.ArchiveIncludeLog = coerceBool(lastValue(data["archive_include_log"]), cfg.ArchiveIncludeLog)
	cfg.ShowIcons = coerceBool(lastValue(data["show_icons"]), cfg.ShowIcons)
	cfg.AutoReload = coerceBool(lastValue(data["auto_reload"]), cfg.AutoReload)
	cfg.ConfirmDestructive = coerceBool(lastValue(data["confirm_destructive"]), cfg.ConfirmDestructive)

	cfg.WatchDebounceMs = coerceInt(lastValue(data["watch_debounce_ms"]), cfg.WatchDebounceMs)
	if cfg.WatchDebounceMs < 0 {
		cfg.WatchDebounceMs = 0
	}

	for alias, cmd := range parseStringMap(data["log_commands"]) {
		cfg.LogCommands[alias] = cmd
	}
	if raw, ok := data["shortcuts"].(map[string]any); ok {
		for name, val := range raw {
			if sc := parseShortcut(val); sc != nil {
				cfg.Shortcuts[name] = sc
			}
		}
	}
}

func lastValue(v any) any {
	if list, ok := v.([]any); ok && len(list) > 0 {
		return list[len(list)-1]
	}
	return v
}

func parseConfig(data map[string]any) *AppConfig {
	cfg := DefaultConfig()
	applyConfig(cfg, data)
	return cfg
}

// ResolveLogCommand returns the log command for an alias, or the
// configured default when alias is empty. Unknown aliases are used as
// commands verbatim.
func (c *AppConfig) ResolveLogCommand(alias string) string {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return c.LogCommand
	}
	if cmd, ok := c.LogCommands[alias]; ok {
		return cmd
	}
	return alias
}

func getConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// ConfigDir returns the blendgit configuration directory.
func ConfigDir() string {
	return filepath.Clean(filepath.Join(getConfigDir(), "blendgit"))
}

// LoadConfig reads the application configuration from a YAML file. With an
// empty configPath, config.yaml then config.yml in ConfigDir are tried.
func LoadConfig(configPath string) (*AppConfig, error) {
	configBase := ConfigDir()

	var paths []string

	if configPath != "" {
		expanded, err := ExpandPath(configPath)
		if err != nil {
			return DefaultConfig(), err
		}
		absPath, err := filepath.Abs(expanded)
		if err != nil {
			return DefaultConfig(), err
		}
		if !isPathWithin(configBase, absPath) {
			return DefaultConfig(), fmt.Errorf("config path must reside inside %s", configBase)
		}
		paths = []string{absPath}
	} else {
		paths = []string{
			filepath.Join(configBase, "config.yaml"),
			filepath.Join(configBase, "config.yml"),
		}
	}

	var cfg *AppConfig

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		// #nosec G304 -- path is constrained to the config directory after validation
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var yamlData map[string]any
		if err := yaml.Unmarshal(data, &yamlData); err != nil {
			return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
		}

		cfg = parseConfig(yamlData)
		break
	}

	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.expandPaths()
	return cfg, nil
}

func (c *AppConfig) expandPaths() {
	for _, p := range []*string{&c.GitExecPath, &c.ArchiveDir, &c.DebugLog} {
		if *p == "" {
			continue
		}
		if expanded, err := ExpandPath(*p); err == nil {
			*p = expanded
		}
	}
}

// ResolveTheme fills an unset theme from the terminal background.
func (c *AppConfig) ResolveTheme() {
	if c.Theme == "" {
		c.Theme = theme.Detect()
	}
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}

func isPathWithin(base, target string) bool {
	base = filepath.Clean(base)
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return true
}
