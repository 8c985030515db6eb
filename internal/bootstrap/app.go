package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/chmouel/blendgit/internal/buildinfo"
	"github.com/chmouel/blendgit/internal/config"
	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/log"
	"github.com/chmouel/blendgit/internal/theme"
	urfavecli "github.com/urfave/cli/v3"
)

// Run builds the command tree and runs it with args (os.Args in main).
func Run(ctx context.Context, args []string) error {
	defer func() { _ = log.Close() }()
	return newRootCommand().Run(ctx, args)
}

func newRootCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:                  "blendgit",
		Usage:                 "Version control for Blender projects, on top of git",
		Version:               buildinfo.String(),
		EnableShellCompletion: true,
		Writer:                stdout,
		ErrWriter:             stderr,
		Flags:                 globalFlags(),
		Commands:              commands(),
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			if cmd.Bool("show-themes") {
				printThemes()
				return nil
			}
			return runUI(ctx, cmd)
		},
		ShellComplete: completeRoot,
	}
}

func commands() []*urfavecli.Command {
	return []*urfavecli.Command{
		reloadCommand(),
		statusCommand(),
		branchesCommand(),
		logCommand(),
		showCommand(),
		stageCommand(),
		unstageCommand(),
		untrackCommand(),
		ignoreCommand(),
		ignoreCleanCommand(),
		commitCommand(),
		branchCommand(),
		switchCommand(),
		mergeCommand(),
		stashCommand(),
		resetCommand(),
		revertCommand(),
		archiveCommand(),
		checkoutFileCommand(),
		exportFileCommand(),
		thumbnailCommand(),
		runCommand(),
		initCommand(),
		watchCommand(),
		serveCommand(),
		uiCommand(),
	}
}

func printThemes() {
	_, _ = fmt.Fprintln(stdout, "Available themes:")
	for _, name := range theme.AvailableThemes() {
		_, _ = fmt.Fprintf(stdout, "  %s\n", name)
	}
}

// completeRoot lists subcommands, or config keys and values after --config.
func completeRoot(_ context.Context, cmd *urfavecli.Command) {
	args := cmd.Args().Slice()
	if len(args) > 0 {
		last := args[len(args)-1]
		if prev, ok := previousArg(args); ok && prev == "--config" {
			for _, s := range suggestConfig(last) {
				_, _ = fmt.Fprintln(stdout, s)
			}
			return
		}
	}
	for _, sub := range cmd.Commands {
		if sub.Hidden {
			continue
		}
		_, _ = fmt.Fprintf(stdout, "%s:%s\n", sub.Name, sub.Usage)
	}
}

func previousArg(args []string) (string, bool) {
	if len(args) < 2 {
		return "", false
	}
	return args[len(args)-2], true
}

// suggestConfig completes "bg.key=value" overrides.
func suggestConfig(word string) []string {
	word = strings.TrimPrefix(word, config.KeyPrefix)
	if key, value, ok := strings.Cut(word, "="); ok {
		var matches []string
		for _, v := range suggestConfigValues(key) {
			if strings.HasPrefix(v, value) {
				matches = append(matches, config.KeyPrefix+key+"="+v)
			}
		}
		return matches
	}
	var matches []string
	for _, key := range config.Keys() {
		if strings.HasPrefix(key, word) {
			matches = append(matches, config.KeyPrefix+key+"=")
		}
	}
	return matches
}

func suggestConfigValues(key string) []string {
	switch key {
	case "theme":
		return theme.AvailableThemes()
	case "classifier":
		return []string{git.ClassifierSubstring, git.ClassifierExitCode}
	case "archive_include_log", "show_icons", "auto_reload", "confirm_destructive":
		return []string{"true", "false"}
	default:
		return nil
	}
}
