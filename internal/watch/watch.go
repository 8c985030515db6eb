// Package watch reports filesystem activity in a working tree and its git
// directory so the repository mirror can be reloaded.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chmouel/blendgit/internal/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a burst of events triggers a
// reload.
const DefaultDebounce = 600 * time.Millisecond

// Watcher watches the git directory (HEAD, index, refs, logs) and every
// directory of the working tree.
type Watcher struct {
	root     string
	gitDir   string
	debounce time.Duration
	roots    []string

	fsw    *fsnotify.Watcher
	events chan struct{}
	done   chan struct{}
	once   sync.Once
	logger *log.Logger

	mu    sync.Mutex
	paths map[string]struct{}
}

// New starts watching the working tree at root. A negative debounce uses
// DefaultDebounce.
func New(root string, debounce time.Duration) (*Watcher, error) {
	if debounce < 0 {
		debounce = DefaultDebounce
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	gitDir, err := resolveGitDir(root)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		gitDir:   gitDir,
		debounce: debounce,
		fsw:      fsw,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   log.Named("watch"),
		paths:    make(map[string]struct{}),
	}
	w.roots = []string{
		root,
		filepath.Join(gitDir, "refs"),
		filepath.Join(gitDir, "logs"),
	}

	w.addWatchDir(gitDir)
	for _, r := range w.roots {
		w.addWatchTree(r)
	}
	w.logger.Printf("watching %d directories under %s", len(w.Paths()), root)

	go w.run()
	return w, nil
}

// resolveGitDir follows the "gitdir:" pointer of linked worktrees and
// submodules.
func resolveGitDir(root string) (string, error) {
	dotGit := filepath.Join(root, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return dotGit, nil
	}

	// #nosec G304 -- .git inside the working tree being watched
	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", err
	}
	target := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "gitdir:"))
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	return filepath.Clean(target), nil
}

// Events delivers one signal per burst of relevant activity, before
// debouncing.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Paths returns the watched directories, sorted.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.paths))
	for p := range w.paths {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

// Run calls onChange once the watched tree has been quiet for the debounce
// period after a change. It blocks until ctx is cancelled or the watcher is
// closed. Errors from onChange are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case <-w.events:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := onChange(ctx); err != nil {
				w.logger.Printf("reload after change failed: %v", err)
			}
		}
	}
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.maybeWatchNewDir(event.Name)
			}
			w.signal()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watcher error: %v", err)
		}
	}
}

// relevant drops attribute changes, lock files and object database writes.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if strings.HasSuffix(event.Name, ".lock") {
		return false
	}
	objects := filepath.Join(w.gitDir, "objects")
	return event.Name != objects && !strings.HasPrefix(event.Name, objects+string(filepath.Separator))
}

func (w *Watcher) signal() {
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.events <- struct{}{}:
	default:
	}
}

func (w *Watcher) isUnderRoot(path string) bool {
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) maybeWatchNewDir(path string) {
	if !w.isUnderRoot(path) || (w.insideGitDir(path) && !w.isGitRoot(path)) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.addWatchTree(path)
}

func (w *Watcher) insideGitDir(path string) bool {
	return path == w.gitDir || strings.HasPrefix(path, w.gitDir+string(filepath.Separator))
}

// isGitRoot reports whether path lies in one of the watched git subtrees.
func (w *Watcher) isGitRoot(path string) bool {
	for _, root := range w.roots[1:] {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addWatchDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Printf("add failed for %s: %v", path, err)
		return
	}
	w.paths[path] = struct{}{}
}

// addWatchTree adds root and its subdirectories. Inside the working tree
// the git directory is skipped; its interesting parts are watched apart.
func (w *Watcher) addWatchTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if w.insideGitDir(path) && !w.isGitRoot(path) {
			return filepath.SkipDir
		}
		w.addWatchDir(path)
		return nil
	})
}
