package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/chmouel/blendgit/internal/git"
)

// KeyPrefix namespaces blendgit keys in git config and CLI overrides.
const KeyPrefix = "bg."

// gitConfigMock allows tests to mock git config output.
var gitConfigMock func(args []string, repoPath string) (string, error)

// runGitConfig executes git config command and returns raw output.
func runGitConfig(ctx context.Context, execPath string, args []string, repoPath string) (string, error) {
	if gitConfigMock != nil {
		return gitConfigMock(args, repoPath)
	}

	runner := git.NewRunner(git.DetectExecutable(execPath))
	if !runner.Operative() {
		return "", nil
	}
	out, res := git.Output(runner.Stream(ctx, repoPath, args))
	// git config returns exit code 1 when key not found (not an error)
	if res.ExitCode == 1 {
		return "", nil
	}
	if err := res.AsError(out); err != nil {
		return "", err
	}
	return out, nil
}

// parseGitConfigOutput parses git config output into multi-value map.
// Input format: "bg.archive-dir /path/to/dir\nbg.auto-reload true\n"
func parseGitConfigOutput(output string) map[string][]string {
	configMap := make(map[string][]string)
	for line := range strings.SplitSeq(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// values may contain spaces; a key without value is a boolean
		key, value, found := strings.Cut(line, " ")
		if !found {
			value = "true"
		}
		key = strings.TrimPrefix(key, KeyPrefix)
		configMap[key] = append(configMap[key], value)
	}
	return configMap
}

// convertGitConfigToParseConfig converts to format expected by applyConfig.
func convertGitConfigToParseConfig(gitCfg map[string][]string) map[string]any {
	result := make(map[string]any)

	for key, values := range gitCfg {
		if len(values) == 0 {
			continue
		}

		if len(values) > 1 {
			anySlice := make([]any, len(values))
			for i, v := range values {
				anySlice[i] = v
			}
			result[key] = anySlice
			continue
		}

		// coerceBool/coerceInt handle conversion of single values
		result[key] = values[0]
	}

	return result
}

// loadGitConfig reads git config values for one scope.
func loadGitConfig(ctx context.Context, execPath string, globalOnly bool, repoPath string) (map[string]any, error) {
	args := []string{"config"}
	if globalOnly {
		args = append(args, "--global")
	} else {
		args = append(args, "--local")
	}
	args = append(args, "--get-regexp", `^bg\.`)

	output, err := runGitConfig(ctx, execPath, args, repoPath)
	if err != nil {
		return nil, err
	}
	return convertGitConfigToParseConfig(parseGitConfigOutput(output)), nil
}

// ApplyGitConfig overlays bg.* keys from the global git config, then from
// the local config of repoPath when it is set.
func (c *AppConfig) ApplyGitConfig(ctx context.Context, repoPath string) error {
	global, err := loadGitConfig(ctx, c.GitExecPath, true, "")
	if err != nil {
		return fmt.Errorf("global git config: %w", err)
	}
	applyConfig(c, global)

	// outside a repository --local fails; the global scope still applies
	if repoPath != "" {
		if local, err := loadGitConfig(ctx, c.GitExecPath, false, repoPath); err == nil {
			applyConfig(c, local)
		}
	}
	c.expandPaths()
	return nil
}

// parseCLIConfigOverrides parses --config=bg.key=value format.
// Returns a map suitable for applyConfig.
func parseCLIConfigOverrides(overrides []string) (map[string]any, error) {
	result := make(map[string]any)
	keyCount := make(map[string]int)

	for _, override := range overrides {
		fullKey, value, ok := strings.Cut(override, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config override: %q, expected format: bg.key=value (note: use = not space)", override)
		}

		if !strings.HasPrefix(fullKey, KeyPrefix) {
			return nil, fmt.Errorf("config override key must start with 'bg.': %q", fullKey)
		}

		key := strings.TrimPrefix(fullKey, KeyPrefix)
		if key == "" {
			return nil, fmt.Errorf("empty config key in override: %q", override)
		}

		// repeated keys become a list
		keyCount[key]++
		switch keyCount[key] {
		case 1:
			result[key] = value
		case 2:
			result[key] = []any{result[key], value}
		default:
			result[key] = append(result[key].([]any), value)
		}
	}

	return result, nil
}

// ApplyCLIOverrides applies bg.key=value overrides given on the command line.
func (c *AppConfig) ApplyCLIOverrides(overrides []string) error {
	if len(overrides) == 0 {
		return nil
	}
	data, err := parseCLIConfigOverrides(overrides)
	if err != nil {
		return err
	}
	applyConfig(c, data)
	c.expandPaths()
	return nil
}
