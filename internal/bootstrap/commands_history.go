package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/chmouel/blendgit/internal/dispatch"
	"github.com/chmouel/blendgit/internal/repo"
	"github.com/chmouel/blendgit/internal/utils"
	urfavecli "github.com/urfave/cli/v3"
)

func forceFlag() urfavecli.Flag {
	return &urfavecli.BoolFlag{
		Name:    "force",
		Aliases: []string{"f"},
		Usage:   "Overwrite or delete regardless of the branch state",
	}
}

func branchCommand() *urfavecli.Command {
	pair := func(name, usage string, build func(from, to string, force bool) (dispatch.Action, error)) *urfavecli.Command {
		return &urfavecli.Command{
			Name:      name,
			Usage:     usage,
			ArgsUsage: "<branch> <new-name>",
			Flags:     []urfavecli.Flag{forceFlag()},
			Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
				args, err := requireArgs(cmd, "branch", "new-name")
				if err != nil {
					return err
				}
				action, err := build(args[0], args[1], cmd.Bool("force"))
				return e.execute(ctx, action, err)
			}),
		}
	}

	return &urfavecli.Command{
		Name:  "branch",
		Usage: "Manage local branches",
		Commands: []*urfavecli.Command{
			{
				Name:      "add",
				Usage:     "Create a branch at HEAD",
				ArgsUsage: "<name>",
				Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
					action, err := dispatch.BranchAdd(cmd.Args().First())
					return e.execute(ctx, action, err)
				}),
			},
			pair("rename", "Rename a branch", dispatch.BranchRename),
			pair("copy", "Copy a branch", dispatch.BranchCopy),
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a branch",
				ArgsUsage: "<name>",
				Flags:     []urfavecli.Flag{forceFlag()},
				Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
					name, force := cmd.Args().First(), cmd.Bool("force")
					action, err := dispatch.BranchDelete(name, force)
					if err != nil {
						return err
					}
					if force {
						if err := e.confirm(fmt.Sprintf("Delete branch %s?", name), "Unmerged commits will be lost."); err != nil {
							return err
						}
					}
					return e.execute(ctx, action, nil)
				}),
			},
		},
		Action: branchesCommand().Action,
	}
}

func switchCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "switch",
		Usage:     "Switch to a branch",
		ArgsUsage: "<branch>",
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			action, err := dispatch.Switch(cmd.Args().First())
			return e.execute(ctx, action, err)
		}),
	}
}

// mergeMode maps the mutually exclusive fast-forward flags.
func mergeMode(cmd *urfavecli.Command) (string, error) {
	var modes []string
	for flag, mode := range map[string]string{
		"ff":     dispatch.FastForward,
		"no-ff":  dispatch.NoFastForward,
		"squash": dispatch.Squash,
	} {
		if cmd.Bool(flag) {
			modes = append(modes, mode)
		}
	}
	if len(modes) > 1 {
		return "", errors.New("--ff, --no-ff and --squash are mutually exclusive")
	}
	if len(modes) == 0 {
		return "", nil
	}
	return modes[0], nil
}

func mergeStrategy(value string) (string, error) {
	switch value {
	case "":
		return "", nil
	case "ours":
		return dispatch.StrategyOurs, nil
	case "theirs":
		return dispatch.StrategyTheirs, nil
	}
	return "", fmt.Errorf("%w: strategy option %q (expected ours or theirs)", dispatch.ErrInvalidArgument, value)
}

func mergeCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "merge",
		Usage:     "Merge a branch into the current one",
		ArgsUsage: "<branch>",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{Name: "ff", Usage: "Fast-forward when possible"},
			&urfavecli.BoolFlag{Name: "no-ff", Usage: "Always create a merge commit"},
			&urfavecli.BoolFlag{Name: "squash", Usage: "Squash the branch into the index"},
			&urfavecli.StringFlag{
				Name:  "X",
				Usage: "Resolve conflicts with ours or theirs",
			},
			&urfavecli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "Merge commit message",
			},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			mode, err := mergeMode(cmd)
			if err != nil {
				return err
			}
			strategy, err := mergeStrategy(cmd.String("X"))
			if err != nil {
				return err
			}
			action, err := dispatch.Merge(dispatch.MergeOptions{
				Branch:      cmd.Args().First(),
				FastForward: mode,
				Strategy:    strategy,
				Message:     cmd.String("message"),
			})
			return e.execute(ctx, action, err)
		}),
	}
}

// firstStash returns the revision argument or the newest stash.
func firstStash(ctx context.Context, cmd *urfavecli.Command, e *env) (string, error) {
	if rev := cmd.Args().First(); rev != "" {
		return rev, nil
	}
	if err := e.refresh(ctx, repo.KindStashes); err != nil {
		return "", err
	}
	stashes := e.state.Snapshot().Stashes
	if len(stashes) == 0 || stashes[0].Revision == "" {
		return "", errors.New("no stash entries")
	}
	return stashes[0].Revision, nil
}

func stashCommand() *urfavecli.Command {
	list := withEnv(func(ctx context.Context, _ *urfavecli.Command, e *env) error {
		if err := e.refresh(ctx, repo.KindStashes); err != nil {
			return err
		}
		e.out.Stashes(e.state.Snapshot().Stashes)
		return nil
	})

	return &urfavecli.Command{
		Name:  "stash",
		Usage: "Save and restore uncommitted changes",
		Commands: []*urfavecli.Command{
			{
				Name:   "list",
				Usage:  "List stash entries",
				Action: list,
			},
			{
				Name:      "save",
				Usage:     "Stash the working tree changes",
				ArgsUsage: "[message]",
				Flags: []urfavecli.Flag{
					&urfavecli.BoolFlag{
						Name:    "include-untracked",
						Aliases: []string{"u"},
						Usage:   "Stash untracked files too",
					},
				},
				Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
					message := cmd.Args().First()
					if message == "" {
						message = utils.RandomName()
					}
					action, err := dispatch.StashSave(message, cmd.Bool("include-untracked"))
					return e.execute(ctx, action, err)
				}),
			},
			{
				Name:      "apply",
				Usage:     "Apply a stash entry, the newest by default",
				ArgsUsage: "[stash]",
				Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
					rev, err := firstStash(ctx, cmd, e)
					if err != nil {
						return err
					}
					action, err := dispatch.StashApply(rev)
					return e.execute(ctx, action, err)
				}),
			},
			{
				Name:      "drop",
				Usage:     "Drop a stash entry, the newest by default",
				ArgsUsage: "[stash]",
				Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
					rev, err := firstStash(ctx, cmd, e)
					if err != nil {
						return err
					}
					action, err := dispatch.StashDrop(rev)
					if err != nil {
						return err
					}
					if err := e.confirm(fmt.Sprintf("Drop %s?", rev), "The stashed changes will be lost."); err != nil {
						return err
					}
					return e.execute(ctx, action, nil)
				}),
			},
			{
				Name:  "clear",
				Usage: "Drop every stash entry",
				Action: withEnv(func(ctx context.Context, _ *urfavecli.Command, e *env) error {
					if err := e.confirm("Drop all stash entries?", "Every stashed change will be lost."); err != nil {
						return err
					}
					return e.execute(ctx, dispatch.StashClear(), nil)
				}),
			},
		},
		Action: list,
	}
}

func resetCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "reset",
		Usage:     "Move HEAD to a commit",
		ArgsUsage: "<hash>",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{Name: "soft", Usage: "Keep the index and working tree"},
			&urfavecli.BoolFlag{Name: "mixed", Usage: "Reset the index, keep the working tree (default)"},
			&urfavecli.BoolFlag{Name: "hard", Usage: "Discard every change"},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			var modes []string
			for _, m := range []string{"soft", "mixed", "hard"} {
				if cmd.Bool(m) {
					modes = append(modes, "--"+m)
				}
			}
			if len(modes) > 1 {
				return errors.New("--soft, --mixed and --hard are mutually exclusive")
			}
			mode := dispatch.ResetMixed
			if len(modes) == 1 {
				mode = modes[0]
			}
			hash := cmd.Args().First()
			action, err := dispatch.Reset(hash, mode)
			if err != nil {
				return err
			}
			if mode == dispatch.ResetHard {
				if err := e.confirm(fmt.Sprintf("Hard reset to %s?", hash), "Uncommitted changes will be lost."); err != nil {
					return err
				}
			}
			return e.execute(ctx, action, nil)
		}),
	}
}

func revertCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "revert",
		Usage:     "Create a commit undoing another one",
		ArgsUsage: "<hash>",
		Flags: []urfavecli.Flag{
			&urfavecli.IntFlag{
				Name:    "mainline",
				Aliases: []string{"m"},
				Usage:   "Parent number to revert to, required for merge commits",
			},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			args, err := requireArgs(cmd, "hash")
			if err != nil {
				return err
			}
			if err := e.load(ctx); err != nil {
				return err
			}
			report, err := e.disp.Revert(ctx, args[0], cmd.Int("mainline"))
			if err != nil {
				return err
			}
			return reportError(report)
		}),
	}
}

func archiveCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "archive",
		Usage:     "Export the tree of a commit as a zip file",
		ArgsUsage: "<hash>",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Zip path (default: <archive_dir>/<project>/<hash>.zip)",
			},
			&urfavecli.BoolFlag{
				Name:  "include-log",
				Usage: "Add the commit log as " + dispatch.CommitLogName,
			},
			&urfavecli.StringSliceFlag{
				Name:  "extra",
				Usage: "Untracked file to add to the zip (repeatable)",
			},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			args, err := requireArgs(cmd, "hash")
			if err != nil {
				return err
			}
			if err := e.load(ctx); err != nil {
				return err
			}
			var extras []string
			for _, arg := range cmd.StringSlice("extra") {
				extra, err := e.repoPath(arg)
				if err != nil {
					return err
				}
				extras = append(extras, extra)
			}
			if len(extras) > 0 {
				untracked, err := e.disp.UntrackedFiles(ctx)
				if err != nil {
					return err
				}
				for _, extra := range extras {
					if !slices.Contains(untracked, extra) {
						return fmt.Errorf("%w: %s is not an untracked file", dispatch.ErrInvalidArgument, extra)
					}
				}
			}
			out, _, err := e.disp.Archive(ctx, dispatch.ArchiveOptions{
				Hash:       args[0],
				BaseDir:    e.cfg.ArchiveDir,
				Output:     e.resolve(cmd.String("output")),
				IncludeLog: cmd.Bool("include-log") || e.cfg.ArchiveIncludeLog,
				Extras:     extras,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, out)
			return nil
		}),
	}
}

func checkoutFileCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "checkout-file",
		Usage:     "Restore a file as recorded in a commit",
		ArgsUsage: "<hash> <path>",
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			args, err := requireArgs(cmd, "hash", "path")
			if err != nil {
				return err
			}
			if err := e.load(ctx); err != nil {
				return err
			}
			path, err := e.repoPath(args[1])
			if err != nil {
				return err
			}
			action, err := dispatch.CheckoutFile(args[0], path)
			if err != nil {
				return err
			}
			if err := e.confirm(fmt.Sprintf("Overwrite %s?", path), "Local changes to the file will be lost."); err != nil {
				return err
			}
			return e.execute(ctx, action, nil)
		}),
	}
}

func exportFileCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "export-file",
		Usage:     "Write a file as recorded in a commit somewhere else",
		ArgsUsage: "<hash> <path>",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Destination file, - for stdout",
				Required: true,
			},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) (err error) {
			args, err := requireArgs(cmd, "hash", "path")
			if err != nil {
				return err
			}
			if err := e.load(ctx); err != nil {
				return err
			}
			path, err := e.repoPath(args[1])
			if err != nil {
				return err
			}
			var w io.Writer = stdout
			if out := e.resolve(cmd.String("output")); out != "-" {
				f, err := os.Create(out) //nolint:gosec
				if err != nil {
					return err
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}
			return e.disp.ExportFile(ctx, args[0], path, w)
		}),
	}
}

func thumbnailCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "thumbnail",
		Usage: "Attach preview images to commits",
		Commands: []*urfavecli.Command{
			{
				Name:      "set",
				Usage:     "Use a PNG image as the preview of a commit",
				ArgsUsage: "<hash> <image.png>",
				Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
					args, err := requireArgs(cmd, "hash", "image")
					if err != nil {
						return err
					}
					if err := e.load(ctx); err != nil {
						return err
					}
					dst, err := e.state.SetThumbnail(args[0], e.resolve(args[1]))
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintln(stdout, dst)
					return nil
				}),
			},
			{
				Name:      "unset",
				Usage:     "Remove the preview of a commit",
				ArgsUsage: "<hash>",
				Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
					args, err := requireArgs(cmd, "hash")
					if err != nil {
						return err
					}
					if err := e.load(ctx); err != nil {
						return err
					}
					return e.state.RemoveThumbnail(args[0])
				}),
			},
		},
	}
}
