package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chmouel/blendgit/internal/cli"
	"github.com/chmouel/blendgit/internal/config"
	"github.com/chmouel/blendgit/internal/dispatch"
	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/log"
	"github.com/chmouel/blendgit/internal/repo"
	"github.com/chmouel/blendgit/internal/theme"
	urfavecli "github.com/urfave/cli/v3"
)

// gitRunner is what the state and the dispatcher need from git.
type gitRunner interface {
	repo.Runner
	dispatch.RawRunner
}

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	// newRunnerFunc builds the git runner; tests swap in a scripted fake.
	newRunnerFunc = func(cfg *config.AppConfig) (gitRunner, error) {
		runner := git.NewRunner(git.DetectExecutable(cfg.GitExecPath))
		if err := runner.Check(); err != nil {
			return nil, err
		}
		return runner, nil
	}
	confirmFunc        = cli.Confirm
	applyGitConfigFunc = func(ctx context.Context, cfg *config.AppConfig, dir string) error {
		return cfg.ApplyGitConfig(ctx, dir)
	}
)

// env is everything a command needs once configuration is resolved.
type env struct {
	cfg       *config.AppConfig
	dir       string
	runner    gitRunner
	state     *repo.State
	disp      *dispatch.Dispatcher
	out       *cli.Printer
	errOut    *cli.Printer
	assumeYes bool
	// sink receives every notification instead of stderr when set.
	sink repo.NotifyFn
}

// setupLogging points the debug log at the flag value, then at the
// configured file. Without either the buffered lines are discarded.
func setupLogging(flagPath, cfgPath string) {
	path := flagPath
	if path == "" {
		path = cfgPath
	}
	if path != "" {
		if expanded, err := config.ExpandPath(path); err == nil {
			path = expanded
		}
	}
	if err := log.SetFile(path); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error opening debug log file %q: %v\n", path, err)
	}
}

// loadConfig layers the YAML file, git config and --config overrides.
func loadConfig(ctx context.Context, cmd *urfavecli.Command, dir string) (*config.AppConfig, error) {
	cfg, err := config.LoadConfig(cmd.String("config-file"))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if err := applyGitConfigFunc(ctx, cfg, dir); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error reading git config: %v\n", err)
	}
	if gitPath := cmd.String("git-path"); gitPath != "" {
		cfg.GitExecPath = gitPath
	}
	if overrides := cmd.StringSlice("config"); len(overrides) > 0 {
		if err := cfg.ApplyCLIOverrides(overrides); err != nil {
			return nil, fmt.Errorf("error applying config overrides: %w", err)
		}
	}
	if err := applyThemeConfig(cfg, cmd.String("theme")); err != nil {
		return nil, err
	}
	cfg.ResolveTheme()
	return cfg, nil
}

// applyThemeConfig applies theme configuration from command line flag.
func applyThemeConfig(cfg *config.AppConfig, themeName string) error {
	if themeName == "" {
		return nil
	}
	normalized := theme.NormalizeName(themeName)
	if normalized == "" {
		return fmt.Errorf("unknown theme %q", themeName)
	}
	cfg.Theme = normalized
	return nil
}

// setup resolves configuration and builds the runner, state and
// dispatcher. The repository is not loaded yet.
func setup(ctx context.Context, cmd *urfavecli.Command) (*env, error) {
	dir, err := filepath.Abs(cmd.String("repo"))
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(ctx, cmd, dir)
	if err != nil {
		return nil, err
	}
	setupLogging(cmd.String("debug-log"), cfg.DebugLog)

	runner, err := newRunnerFunc(cfg)
	if err != nil {
		return nil, err
	}

	th := theme.GetTheme(cfg.Theme)
	e := &env{
		cfg:       cfg,
		dir:       dir,
		runner:    runner,
		out:       cli.NewPrinter(stdout, th, cfg.ShowIcons),
		errOut:    cli.NewPrinter(stderr, th, false),
		assumeYes: cmd.Bool("yes"),
	}

	version, _ := git.Output(runner.Stream(ctx, dir, []string{"version"}))
	if err := git.CheckVersion(version); err != nil {
		e.errOut.Notify(err.Error(), git.SeverityWarning.String())
	}

	e.state = repo.New(runner, repo.WithNotify(e.stateNotify))
	if err := e.state.SetLogCommand(cfg.ResolveLogCommand("")); err != nil {
		return nil, fmt.Errorf("log command: %w", err)
	}
	e.disp = dispatch.New(e.state, runner,
		dispatch.WithClassifier(git.ClassifierFor(cfg.Classifier)),
		dispatch.WithNotify(e.notify),
	)
	return e, nil
}

// stateNotify drops the informational chatter of reloads; warnings and
// errors still reach stderr.
func (e *env) stateNotify(message, severity string) {
	if e.sink != nil {
		e.sink(message, severity)
		return
	}
	if severity == git.SeverityInfo.String() {
		log.Printf("state: %s", message)
		return
	}
	e.errOut.Notify(message, severity)
}

func (e *env) notify(message, severity string) {
	if e.sink != nil {
		e.sink(message, severity)
		return
	}
	e.errOut.Notify(message, severity)
}

// load makes the repository at dir current.
func (e *env) load(ctx context.Context) error {
	return e.state.Load(ctx, e.dir)
}

// resolve anchors a path given on the command line at the directory
// blendgit runs in. "-" and absolute paths are kept.
func (e *env) resolve(path string) string {
	if path == "" || path == "-" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(realDir(e.dir), path)
}

// repoPath rebases a path given on the command line onto the working tree
// root, the directory git runs in. The repository must be loaded.
func (e *env) repoPath(path string) (string, error) {
	rel, err := filepath.Rel(realDir(e.state.Root()), e.resolve(path))
	if err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s is outside the working tree", dispatch.ErrInvalidArgument, path)
	}
	return filepath.ToSlash(rel), nil
}

func realDir(dir string) string {
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		return real
	}
	return dir
}

// reload loads the repository and refreshes every list.
func (e *env) reload(ctx context.Context) error {
	if err := e.load(ctx); err != nil {
		return err
	}
	return e.state.Reload(ctx)
}

// refresh loads the repository and refreshes only the given lists.
func (e *env) refresh(ctx context.Context, kinds ...repo.Kind) error {
	if err := e.load(ctx); err != nil {
		return err
	}
	return e.state.Refresh(ctx, kinds...)
}

// confirm asks before destructive actions unless --yes is given or the
// configuration disables confirmations.
func (e *env) confirm(title, description string) error {
	return confirmFunc(title, description, e.assumeYes || !e.cfg.ConfirmDestructive)
}

// execute runs an action built by one of the dispatch constructors. A
// failing git command makes the command fail too.
func (e *env) execute(ctx context.Context, action dispatch.Action, buildErr error) error {
	if buildErr != nil {
		return buildErr
	}
	if err := e.load(ctx); err != nil {
		return err
	}
	report, err := e.disp.Execute(ctx, action)
	if err != nil {
		return err
	}
	return reportError(report)
}

func reportError(report dispatch.Report) error {
	if report.Failed() {
		return fmt.Errorf("%s failed", report.Action)
	}
	return report.Result.AsError(report.Output())
}
