package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chmouel/blendgit/internal/app"
	"github.com/chmouel/blendgit/internal/dispatch"
	"github.com/chmouel/blendgit/internal/log"
	"github.com/chmouel/blendgit/internal/server"
	"github.com/chmouel/blendgit/internal/watch"
	urfavecli "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

var (
	// runProgramFunc runs the terminal UI; tests replace it.
	runProgramFunc = func(ctx context.Context, m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	}
	// newWatcherFunc starts a filesystem watcher; tests replace it.
	newWatcherFunc = func(root string, debounce time.Duration) (changeSource, error) {
		return watch.New(root, debounce)
	}
)

// changeSource is the part of the watcher the commands drive.
type changeSource interface {
	Run(ctx context.Context, onChange func(context.Context) error) error
	Close() error
}

func selectionFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{Name: "branch", Usage: "Value of " + dispatch.KeywordBranch},
		&urfavecli.StringFlag{Name: "file", Usage: "Value of " + dispatch.KeywordFile},
		&urfavecli.StringFlag{Name: "stash", Usage: "Value of " + dispatch.KeywordStash},
		&urfavecli.StringFlag{Name: "commit", Usage: "Value of " + dispatch.KeywordCommit},
	}
}

func runCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "run",
		Usage:     "Run a git command or a configured shortcut",
		ArgsUsage: "<command|shortcut>",
		Description: "Keywords " + dispatch.KeywordBranch + ", " + dispatch.KeywordFile + ", " +
			dispatch.KeywordStash + " and " + dispatch.KeywordCommit +
			" expand to the flag values, or to the current branch and the first file, stash and commit.",
		Flags: selectionFlags(),
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			args, err := requireArgs(cmd, "command")
			if err != nil {
				return err
			}
			line, show := args[0], true
			if cmd.NArg() > 1 {
				line = joinArgs(cmd.Args().Slice())
			}
			if sc, ok := e.cfg.Shortcuts[line]; ok {
				if sc.NeedConfirm {
					if err := e.confirm(fmt.Sprintf("Run %s?", line), sc.Command); err != nil {
						return err
					}
				}
				line, show = sc.Command, sc.ShowOutput
			}

			if err := e.reload(ctx); err != nil {
				return err
			}
			sel := dispatch.Selection{
				Branch: cmd.String("branch"),
				File:   cmd.String("file"),
				Stash:  cmd.String("stash"),
				Commit: cmd.String("commit"),
			}
			argv, err := dispatch.CommandArgs(line, sel.Or(dispatch.DefaultSelection(e.state.Snapshot())))
			if err != nil {
				return err
			}
			lines, err := e.disp.Lines(ctx, argv...)
			if err != nil {
				return err
			}
			if show {
				e.out.Lines(lines)
			}
			return nil
		}),
	}
}

// joinArgs rebuilds a command line from separate arguments, quoting the
// ones holding blanks.
func joinArgs(args []string) string {
	var line string
	for i, arg := range args {
		if i > 0 {
			line += " "
		}
		line += dispatch.QuoteArg(arg)
	}
	return line
}

func initCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "init",
		Usage:     "Create a repository with an ignore file",
		ArgsUsage: "[dir]",
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			dir := e.dir
			if arg := cmd.Args().First(); arg != "" {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return err
				}
				dir = abs
			}
			if err := e.state.Init(ctx, dir); err != nil {
				return err
			}
			e.out.Status(e.state.Snapshot())
			return nil
		}),
	}
}

func (e *env) debounce() time.Duration {
	return time.Duration(e.cfg.WatchDebounceMs) * time.Millisecond
}

// watchLoop reloads the state after every settled change until ctx ends.
func (e *env) watchLoop(ctx context.Context, after func()) error {
	w, err := newWatcherFunc(e.state.Root(), e.debounce())
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	return w.Run(ctx, func(ctx context.Context) error {
		if err := e.state.Reload(ctx); err != nil {
			return err
		}
		if after != nil {
			after()
		}
		return nil
	})
}

func watchCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "watch",
		Usage: "Reload and print the status whenever the working tree changes",
		Action: withEnv(func(ctx context.Context, _ *urfavecli.Command, e *env) error {
			if err := e.reload(ctx); err != nil {
				return err
			}
			e.out.Status(e.state.Snapshot())
			return e.watchLoop(ctx, func() {
				_, _ = fmt.Fprintln(stdout)
				e.out.Status(e.state.Snapshot())
			})
		}),
	}
}

func serveCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "serve",
		Usage: "Publish the repository state over HTTP and websocket",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from serve_addr)",
			},
			&urfavecli.BoolFlag{
				Name:  "watch",
				Usage: "Reload when the working tree changes",
				Value: true,
			},
		},
		Action: withEnv(func(ctx context.Context, cmd *urfavecli.Command, e *env) error {
			if err := e.reload(ctx); err != nil {
				return err
			}
			addr := cmd.String("addr")
			if addr == "" {
				addr = e.cfg.ServeAddr
			}
			srv := server.New(e.state, addr)
			defer srv.Close()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(gctx)
			})
			if cmd.Bool("watch") {
				g.Go(func() error {
					return e.watchLoop(gctx, nil)
				})
			}
			_, _ = fmt.Fprintf(stderr, "Serving %s on http://%s\n", e.state.Root(), addr)
			return g.Wait()
		}),
	}
}

func uiCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:   "ui",
		Usage:  "Open the terminal UI (default)",
		Action: runUI,
	}
}

func runUI(ctx context.Context, cmd *urfavecli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	notes := app.NewNotifier()
	e.sink = notes.Notify
	if err := e.reload(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if e.cfg.AutoReload {
		go func() {
			if err := e.watchLoop(ctx, nil); err != nil {
				log.Printf("watch: %v", err)
			}
		}()
	}

	model := app.New(e.state, e.disp, e.cfg, notes)
	defer model.Close()
	return runProgramFunc(ctx, model)
}
