package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chmouel/blendgit/internal/cli"
	"github.com/chmouel/blendgit/internal/dispatch"
	"github.com/chmouel/blendgit/internal/repo"
	urfavecli "github.com/urfave/cli/v3"
)

// promptCommitFunc asks for a commit message; tests replace it.
var promptCommitFunc = cli.PromptCommit

type envAction func(ctx context.Context, cmd *urfavecli.Command, e *env) error

// withEnv resolves the configuration and git wiring before running fn.
func withEnv(fn envAction) urfavecli.ActionFunc {
	return func(ctx context.Context, cmd *urfavecli.Command) error {
		e, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, e)
	}
}

// requireArgs returns the first len(names) arguments, failing with the
// name of the first missing one.
func requireArgs(cmd *urfavecli.Command, names ...string) ([]string, error) {
	args := cmd.Args().Slice()
	if len(args) < len(names) {
		return nil, fmt.Errorf("%s: missing %s argument", cmd.Name, names[len(args)])
	}
	return args[:len(names)], nil
}

func reloadCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "reload",
		Usage: "Reload every list of the repository and print its status",
		Action: withEnv(func(ctx context.Context, _ *urfavecli.Command, e *env) error {
			if err := e.reload(ctx); err != nil {
				return err
			}
			e.out.Status(e.state.Snapshot())
			return nil
		}),
	}
}

func statusCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:    "status",
		Aliases: []string{"st"},
		Usage:   "Show the working tree status",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{
				Name:  "json",
				Usage: "Print the whole repository context as JSON",
			},
			&urfavecli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "List unmodified tracked files too",
			},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			if cmd.Bool("json") {
				if err := e.reload(ctx); err != nil {
					return err
				}
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(e.state.Snapshot())
			}
			if err := e.refresh(ctx, repo.KindFiles, repo.KindBranches); err != nil {
				return err
			}
			snap := e.state.Snapshot()
			if cmd.Bool("all") {
				e.out.Files(snap.Files)
				return nil
			}
			e.out.Status(snap)
			return nil
		}),
	}
}

func branchesCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "branches",
		Usage: "List local branches",
		Action: withEnv(func(ctx context.Context, _ *urfavecli.Command, e *env) error {
			if err := e.refresh(ctx, repo.KindBranches); err != nil {
				return err
			}
			e.out.Branches(e.state.Snapshot().Branches)
			return nil
		}),
	}
}

func logCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "log",
		Usage: "Show the commit log",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:  "command",
				Usage: "Log command or alias from log_commands",
			},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			if alias := cmd.String("command"); alias != "" {
				if err := e.state.SetLogCommand(e.cfg.ResolveLogCommand(alias)); err != nil {
					return fmt.Errorf("log command: %w", err)
				}
			}
			if err := e.refresh(ctx, repo.KindLogs); err != nil {
				return err
			}
			e.out.Log(e.state.Snapshot().Logs)
			return nil
		}),
	}
}

func showCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "show",
		Usage:     "Show a commit with its diff",
		ArgsUsage: "<hash>",
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			action, err := dispatch.Show(cmd.Args().First())
			if err != nil {
				return err
			}
			if err := e.load(ctx); err != nil {
				return err
			}
			lines, err := e.disp.Lines(ctx, action.Args...)
			if err != nil {
				return err
			}
			return e.out.Show(lines)
		}),
	}
}

// pathsCommand runs build for every path argument, rebased onto the root.
func pathsCommand(name, usage string, flags []urfavecli.Flag, build func(cmd *urfavecli.Command, path string) (dispatch.Action, error)) *urfavecli.Command {
	return &urfavecli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<path>...",
		Flags:     flags,
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			if _, err := requireArgs(cmd, "path"); err != nil {
				return err
			}
			if err := e.load(ctx); err != nil {
				return err
			}
			for _, arg := range cmd.Args().Slice() {
				path, err := e.repoPath(arg)
				if err != nil {
					return err
				}
				action, buildErr := build(cmd, path)
				if err := e.execute(ctx, action, buildErr); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func stageCommand() *urfavecli.Command {
	return pathsCommand("stage", "Add files to the index", nil,
		func(_ *urfavecli.Command, path string) (dispatch.Action, error) {
			return dispatch.Stage(path)
		})
}

func unstageCommand() *urfavecli.Command {
	flags := []urfavecli.Flag{
		&urfavecli.BoolFlag{
			Name:  "theirs",
			Usage: "Resolve a conflict by taking their version",
		},
	}
	return pathsCommand("unstage", "Remove files from the index", flags,
		func(cmd *urfavecli.Command, path string) (dispatch.Action, error) {
			return dispatch.Unstage(path, cmd.Bool("theirs"))
		})
}

func untrackCommand() *urfavecli.Command {
	return pathsCommand("untrack", "Stop tracking files, keeping them on disk", nil,
		func(_ *urfavecli.Command, path string) (dispatch.Action, error) {
			return dispatch.Untrack(path)
		})
}

func ignoreCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "ignore",
		Usage:     "Append a pattern to the ignore file",
		ArgsUsage: "<pattern>",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{
				Name:  "notice",
				Usage: "Add the negated pattern so matching files are tracked again",
			},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			args, err := requireArgs(cmd, "pattern")
			if err != nil {
				return err
			}
			if err := e.load(ctx); err != nil {
				return err
			}
			return e.disp.Ignore(ctx, args[0], cmd.Bool("notice"))
		}),
	}
}

func ignoreCleanCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "ignore-clean",
		Usage: "Remove duplicate patterns from the ignore file",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the changes as a diff without writing them",
			},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			if err := e.load(ctx); err != nil {
				return err
			}
			if cmd.Bool("dry-run") {
				diff, err := repo.PreviewIgnore(e.state.Root())
				if err != nil {
					return err
				}
				if diff == "" {
					_, _ = fmt.Fprintf(stdout, "%s is already clean\n", repo.IgnoreFile)
					return nil
				}
				return e.out.Show(strings.Split(strings.TrimRight(diff, "\n"), "\n"))
			}
			changed, err := e.disp.CleanIgnore(ctx)
			if err != nil {
				return err
			}
			if !changed {
				_, _ = fmt.Fprintf(stdout, "%s is already clean\n", repo.IgnoreFile)
			}
			return nil
		}),
	}
}

func commitCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "commit",
		Usage: "Commit the index",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "Commit summary",
			},
			&urfavecli.StringFlag{
				Name:  "description",
				Usage: "Commit description, added after a blank line",
			},
			&urfavecli.BoolFlag{
				Name:  "allow-empty",
				Usage: "Commit even when nothing is staged",
			},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			if err := e.refresh(ctx, repo.KindFiles); err != nil {
				return err
			}
			if !e.state.Snapshot().IsCommitReady() {
				return dispatch.ErrNotCommitReady
			}
			summary, description := cmd.String("message"), cmd.String("description")
			if summary == "" && description == "" {
				var err error
				summary, description, err = promptCommitFunc(summary, description)
				if err != nil {
					return err
				}
			}
			report, err := e.disp.Commit(ctx, summary, description, cmd.Bool("allow-empty"))
			if err != nil {
				return err
			}
			return reportError(report)
		}),
	}
}
