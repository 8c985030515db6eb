package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Empty(t, cfg.GitExecPath)
	assert.Empty(t, cfg.ArchiveDir)
	assert.Empty(t, cfg.LogCommand)
	assert.Empty(t, cfg.Theme)
	assert.Empty(t, cfg.DebugLog)
	assert.True(t, cfg.ShowIcons)
	assert.False(t, cfg.AutoReload)
	assert.True(t, cfg.ConfirmDestructive)
	assert.Equal(t, "substring", cfg.Classifier)
	assert.Equal(t, DefaultServeAddr, cfg.ServeAddr)
	assert.Equal(t, 600, cfg.WatchDebounceMs)
	assert.Contains(t, cfg.LogCommands, "graph")
	assert.Contains(t, cfg.Shortcuts, "fetch")
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		name       string
		input      any
		defaultVal bool
		expected   bool
	}{
		{name: "nil with default true", input: nil, defaultVal: true, expected: true},
		{name: "nil with default false", input: nil, defaultVal: false, expected: false},
		{name: "bool true", input: true, defaultVal: false, expected: true},
		{name: "bool false", input: false, defaultVal: true, expected: false},
		{name: "int 1", input: 1, defaultVal: false, expected: true},
		{name: "int 0", input: 0, defaultVal: true, expected: false},
		{name: "string yes", input: "yes", defaultVal: false, expected: true},
		{name: "string off", input: " OFF ", defaultVal: true, expected: false},
		{name: "string garbage keeps default", input: "maybe", defaultVal: true, expected: true},
		{name: "float keeps default", input: 1.5, defaultVal: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, coerceBool(tt.input, tt.defaultVal))
		})
	}
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name       string
		input      any
		defaultVal int
		expected   int
	}{
		{name: "nil", input: nil, defaultVal: 5, expected: 5},
		{name: "int", input: 42, defaultVal: 5, expected: 42},
		{name: "bool keeps default", input: true, defaultVal: 5, expected: 5},
		{name: "numeric string", input: " 250 ", defaultVal: 5, expected: 250},
		{name: "empty string", input: "", defaultVal: 5, expected: 5},
		{name: "garbage string", input: "abc", defaultVal: 5, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, coerceInt(tt.input, tt.defaultVal))
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"archive_dir":        "archive_dir",
		"archive-dir":        "archive_dir",
		"archivedir":         "archive_dir",
		"ArchiveDir":         "archive_dir",
		"confirmdestructive": "confirm_destructive",
		"unknown-key":        "unknown_key",
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, normalizeKey(input))
		})
	}
}

func TestParseConfig(t *testing.T) {
	t.Run("every key", func(t *testing.T) {
		cfg := parseConfig(map[string]any{
			"git_execpath":        "/opt/git/bin/git",
			"archive_dir":         "/srv/archives",
			"archive_include_log": true,
			"log_command":         "log --oneline -n 50",
			"log_commands":        map[string]any{"mine": "log --author=me"},
			"theme":               " Nord ",
			"debug_log":           "/tmp/blendgit.log",
			"show_icons":          false,
			"auto_reload":         "yes",
			"classifier":          "EXIT-CODE",
			"serve_addr":          ":9000",
			"confirm_destructive": "off",
			"watch_debounce_ms":   250,
			"shortcuts": map[string]any{
				"lfs":  map[string]any{"command": "lfs ls-files", "show_output": true, "need_confirm": "1"},
				"gc":   "gc --auto",
				"bad":  map[string]any{"description": "no command"},
				"none": 42,
			},
		})

		assert.Equal(t, "/opt/git/bin/git", cfg.GitExecPath)
		assert.Equal(t, "/srv/archives", cfg.ArchiveDir)
		assert.True(t, cfg.ArchiveIncludeLog)
		assert.Equal(t, "log --oneline -n 50", cfg.LogCommand)
		assert.Equal(t, "log --author=me", cfg.LogCommands["mine"])
		assert.Equal(t, "log --graph --oneline --all", cfg.LogCommands["graph"], "defaults are kept")
		assert.Equal(t, "nord", cfg.Theme)
		assert.Equal(t, "/tmp/blendgit.log", cfg.DebugLog)
		assert.False(t, cfg.ShowIcons)
		assert.True(t, cfg.AutoReload)
		assert.Equal(t, "exit-code", cfg.Classifier)
		assert.Equal(t, ":9000", cfg.ServeAddr)
		assert.False(t, cfg.ConfirmDestructive)
		assert.Equal(t, 250, cfg.WatchDebounceMs)

		assert.Equal(t, &Shortcut{Command: "lfs ls-files", ShowOutput: true, NeedConfirm: true}, cfg.Shortcuts["lfs"])
		assert.Equal(t, &Shortcut{Command: "gc --auto"}, cfg.Shortcuts["gc"])
		assert.NotContains(t, cfg.Shortcuts, "bad")
		assert.NotContains(t, cfg.Shortcuts, "none")
		assert.Contains(t, cfg.Shortcuts, "fetch")
	})

	t.Run("invalid values keep defaults", func(t *testing.T) {
		cfg := parseConfig(map[string]any{
			"theme":             "neon",
			"classifier":        "regex",
			"serve_addr":        "  ",
			"watch_debounce_ms": -5,
		})
		def := DefaultConfig()
		assert.Equal(t, def.Theme, cfg.Theme)
		assert.Equal(t, def.Classifier, cfg.Classifier)
		assert.Equal(t, def.ServeAddr, cfg.ServeAddr)
		assert.Equal(t, 0, cfg.WatchDebounceMs)
	})

	t.Run("empty map", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), parseConfig(map[string]any{}))
	})
}

func TestResolveLogCommand(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.ResolveLogCommand(""))
	assert.Equal(t, "log --oneline", cfg.ResolveLogCommand("oneline"))
	assert.Equal(t, "log -n 3", cfg.ResolveLogCommand(" log -n 3 "))

	cfg.LogCommand = "log --oneline -n 10"
	assert.Equal(t, "log --oneline -n 10", cfg.ResolveLogCommand(""))
}

func TestLoadConfig(t *testing.T) {
	t.Run("no config file returns defaults", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", tmpDir)

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("default location", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", tmpDir)
		configPath := filepath.Join(tmpDir, "blendgit", "config.yml")
		require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o750))
		require.NoError(t, os.WriteFile(configPath, []byte("theme: gruvbox-dark\n"), 0o600))

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "gruvbox-dark", cfg.Theme)
	})

	t.Run("valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", tmpDir)
		t.Setenv("BG_ARCHIVES", "/mnt/archives")
		configPath := filepath.Join(tmpDir, "blendgit", "config.yaml")

		yamlContent := `archive_dir: $BG_ARCHIVES
log_command: log --graph --oneline
shortcuts:
  pull:
    command: pull --rebase
    need_confirm: true
auto_reload: true
`
		require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o750))
		require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o600))

		cfg, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, "/mnt/archives", cfg.ArchiveDir)
		assert.Equal(t, "log --graph --oneline", cfg.LogCommand)
		assert.True(t, cfg.AutoReload)
		require.Contains(t, cfg.Shortcuts, "pull")
		assert.True(t, cfg.Shortcuts["pull"].NeedConfirm)
	})

	t.Run("invalid YAML is reported", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", tmpDir)
		configPath := filepath.Join(tmpDir, "blendgit", "config.yaml")
		require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o750))
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: [[["), 0o600))

		cfg, err := LoadConfig(configPath)
		require.Error(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("path outside the config directory", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		outside := filepath.Join(t.TempDir(), "config.yaml")

		_, err := LoadConfig(outside)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must reside inside")
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("CUSTOM_VAR", "/custom")

	tests := []struct {
		input string
		want  string
	}{
		{"/absolute/path", "/absolute/path"},
		{"~/test/path", filepath.Join(home, "test", "path")},
		{"$CUSTOM_VAR/test", "/custom/test"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPathWithin(t *testing.T) {
	assert.True(t, isPathWithin("/a/b", "/a/b"))
	assert.True(t, isPathWithin("/a/b", "/a/b/c.yaml"))
	assert.False(t, isPathWithin("/a/b", "/a/bc/config.yaml"))
	assert.False(t, isPathWithin("/a/b", "/a"))
}
