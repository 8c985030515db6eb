// Package repo keeps the in-memory mirror of one git working tree.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/log"
	"github.com/chmouel/blendgit/internal/models"
	"github.com/chmouel/blendgit/internal/parser"
	"golang.org/x/sync/errgroup"
)

// DefaultLogCommand lists the commit log when none is configured.
const DefaultLogCommand = "log --graph --oneline --all"

const notRepositoryMarker = "fatal: not a git repository"

var (
	// ErrNotRepository is returned when the probed directory is not inside
	// a working tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrNotLoaded is returned by refreshes before a repository is loaded.
	ErrNotLoaded = errors.New("no repository loaded")
	// ErrAlreadyRepository is returned by Init inside an existing repository.
	ErrAlreadyRepository = errors.New("selected directory is already a repository")
)

// Runner starts git processes.
type Runner interface {
	Stream(ctx context.Context, dir string, args []string) *git.Stream
}

// NotifyFn receives user-facing notifications.
type NotifyFn func(message string, severity string)

// Option configures a State.
type Option func(*State)

// WithNotify sets the notification callback.
func WithNotify(fn NotifyFn) Option {
	return func(s *State) {
		if fn != nil {
			s.notify = fn
		}
	}
}

// State is the process-wide repository mirror. Each refresh replaces one
// list wholesale; readers get consistent copies through Snapshot.
type State struct {
	runner Runner
	notify NotifyFn
	logger *log.Logger

	mu         sync.RWMutex
	ctx        models.RepositoryContext
	logCommand []string

	subsMu  sync.Mutex
	subs    map[int]chan models.RepositoryContext
	nextSub int
}

// New returns an empty, unloaded State.
func New(runner Runner, opts ...Option) *State {
	s := &State{
		runner:     runner,
		notify:     func(string, string) {},
		logger:     log.Named("repo"),
		logCommand: strings.Fields(DefaultLogCommand),
		subs:       make(map[int]chan models.RepositoryContext),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogCommand changes the git command used to list the log. An empty
// command restores DefaultLogCommand.
func (s *State) SetLogCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		command = DefaultLogCommand
	}
	args, err := git.SplitArgs(command)
	if err != nil {
		return fmt.Errorf("log command: %w", err)
	}
	s.mu.Lock()
	s.logCommand = args
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current repository context.
func (s *State) Snapshot() models.RepositoryContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.Clone()
}

// Root returns the working tree root, or "" when nothing is loaded.
func (s *State) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.RootDir
}

func (s *State) root() (string, error) {
	root := s.Root()
	if root == "" {
		return "", ErrNotLoaded
	}
	return root, nil
}

// Load probes dir and makes its working tree the current repository.
func (s *State) Load(ctx context.Context, dir string) error {
	version, _ := git.Output(s.runner.Stream(ctx, dir, []string{"version"}))

	if info, err := os.Stat(dir); err != nil {
		s.Unload()
		return fmt.Errorf("load %s: %w", dir, err)
	} else if !info.IsDir() {
		s.Unload()
		return fmt.Errorf("load %s: not a directory", dir)
	}

	out, res := git.Output(s.runner.Stream(ctx, dir, []string{"rev-parse", "--show-toplevel"}))
	if strings.Contains(out, notRepositoryMarker) {
		s.Unload()
		s.notify("Not a git repository", "warning")
		return fmt.Errorf("%s: %w", dir, ErrNotRepository)
	}
	if err := res.AsError(out); err != nil {
		s.Unload()
		return err
	}

	root := filepath.FromSlash(strings.TrimSpace(out))
	s.mu.Lock()
	if s.ctx.RootDir != root {
		s.ctx = models.RepositoryContext{}
	}
	s.ctx.Version = strings.TrimSpace(version)
	s.ctx.RootDir = root
	s.ctx.IsRepository = true
	s.mu.Unlock()
	s.logger.Printf("loaded %s (%s)", root, strings.TrimSpace(version))
	return nil
}

// Unload forgets the current repository.
func (s *State) Unload() {
	s.mu.Lock()
	version := s.ctx.Version
	s.ctx = models.RepositoryContext{Version: version}
	s.mu.Unlock()
	s.publish()
}

// Init creates a repository in dir, then loads and reloads it.
func (s *State) Init(ctx context.Context, dir string) error {
	out, res := git.Output(s.runner.Stream(ctx, dir, []string{"rev-parse", "--show-toplevel"}))
	if res.Skipped {
		return git.ErrNotOperative
	}
	if !strings.Contains(out, "fatal") {
		return ErrAlreadyRepository
	}

	out, res = git.Output(s.runner.Stream(ctx, dir, []string{"init"}))
	if err := res.AsError(out); err != nil {
		return err
	}
	if out != "" {
		s.notify(out, "info")
	}
	if err := EnsureIgnoreFile(dir); err != nil {
		return err
	}
	if err := s.Load(ctx, dir); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// Reload refreshes every list concurrently, then normalizes the ignore
// file. The first failing refresh is returned.
func (s *State) Reload(ctx context.Context) error {
	root, err := s.root()
	if err != nil {
		return err
	}
	if err := s.refresh(ctx, AllKinds...); err != nil {
		s.publish()
		return err
	}
	if _, err := NormalizeIgnore(root); err != nil {
		s.logger.Printf("normalize %s: %v", IgnoreFile, err)
	}
	s.publish()
	s.notify("Reloaded repository.", "info")
	return nil
}

// Refresh re-reads the given lists concurrently.
func (s *State) Refresh(ctx context.Context, kinds ...Kind) error {
	err := s.refresh(ctx, kinds...)
	s.publish()
	return err
}

func (s *State) refresh(ctx context.Context, kinds ...Kind) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range dedupeKinds(kinds) {
		g.Go(func() error {
			if err := s.refreshKind(gctx, kind); err != nil {
				return fmt.Errorf("refresh %s: %w", kind, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *State) refreshKind(ctx context.Context, kind Kind) error {
	switch kind {
	case KindFiles:
		return s.refreshFiles(ctx)
	case KindBranches:
		return s.refreshBranches(ctx)
	case KindStashes:
		return s.refreshStashes(ctx)
	case KindLogs:
		return s.refreshLogs(ctx)
	}
	return fmt.Errorf("unknown list %d", kind)
}

// RefreshFiles re-reads file statuses.
func (s *State) RefreshFiles(ctx context.Context) error { return s.Refresh(ctx, KindFiles) }

// RefreshBranches re-reads local branches.
func (s *State) RefreshBranches(ctx context.Context) error { return s.Refresh(ctx, KindBranches) }

// RefreshStashes re-reads the stash list.
func (s *State) RefreshStashes(ctx context.Context) error { return s.Refresh(ctx, KindStashes) }

// RefreshLogs re-reads the commit log.
func (s *State) RefreshLogs(ctx context.Context) error { return s.Refresh(ctx, KindLogs) }

func (s *State) lines(ctx context.Context, root string, args []string) ([]string, error) {
	lines, res := git.Collect(s.runner.Stream(ctx, root, args))
	if err := res.AsError(strings.Join(lines, "\n")); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *State) refreshFiles(ctx context.Context) error {
	root, err := s.root()
	if err != nil {
		return err
	}
	statusLines, err := s.lines(ctx, root, []string{"status", "-s", "--ignored"})
	if err != nil {
		return err
	}
	tracked, err := s.lines(ctx, root, []string{"ls-files", "-c"})
	if err != nil {
		return err
	}

	files := make([]models.FileStatus, 0, len(statusLines)+len(tracked))
	seen := make(map[string]struct{}, len(statusLines))
	for _, line := range statusLines {
		entry, err := parser.ParseStatusLine(line)
		if err != nil {
			s.logger.Printf("skipping status line: %v", err)
			continue
		}
		files = append(files, entry)
		seen[entry.Path] = struct{}{}
	}
	for _, path := range tracked {
		path = strings.Trim(path, `"`)
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		files = append(files, parser.Unmodified(path))
	}

	s.mu.Lock()
	s.ctx.Files = files
	s.mu.Unlock()
	return nil
}

func (s *State) refreshBranches(ctx context.Context) error {
	root, err := s.root()
	if err != nil {
		return err
	}
	lines, err := s.lines(ctx, root, []string{"branch"})
	if err != nil {
		return err
	}
	branches := make([]models.Branch, 0, len(lines))
	for _, line := range lines {
		branch, err := parser.ParseBranchLine(line)
		if err != nil {
			s.logger.Printf("skipping branch line: %v", err)
			continue
		}
		branches = append(branches, branch)
	}

	s.mu.Lock()
	s.ctx.Branches = branches
	s.mu.Unlock()
	return nil
}

func (s *State) refreshStashes(ctx context.Context) error {
	root, err := s.root()
	if err != nil {
		return err
	}
	lines, err := s.lines(ctx, root, []string{"stash", "list"})
	if err != nil {
		return err
	}
	stashes := make([]models.Stash, 0, len(lines))
	for _, line := range lines {
		stash, err := parser.ParseStashLine(line)
		if err != nil {
			s.logger.Printf("skipping stash line: %v", err)
			continue
		}
		stashes = append(stashes, stash)
	}

	s.mu.Lock()
	s.ctx.Stashes = stashes
	s.mu.Unlock()
	return nil
}

func (s *State) refreshLogs(ctx context.Context) error {
	root, err := s.root()
	if err != nil {
		return err
	}
	s.mu.RLock()
	args := append([]string(nil), s.logCommand...)
	s.mu.RUnlock()

	lines, err := s.lines(ctx, root, args)
	if err != nil {
		return err
	}
	logs := parser.MergeLogLines(lines)
	for i := range logs {
		if logs[i].Hash == "" {
			continue
		}
		if path := ThumbnailPath(root, logs[i].Hash); fileExists(path) {
			logs[i].Thumbnail = path
		}
	}

	s.mu.Lock()
	s.ctx.Logs = logs
	s.mu.Unlock()
	return nil
}

// Subscribe returns a channel receiving a snapshot after every refresh.
// Slow readers only see the latest snapshot. Call cancel to unsubscribe.
func (s *State) Subscribe() (<-chan models.RepositoryContext, func()) {
	ch := make(chan models.RepositoryContext, 1)
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

func (s *State) publish() {
	snap := s.Snapshot()
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
