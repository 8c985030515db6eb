package dispatch

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/gittest"
	"github.com/chmouel/blendgit/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	message  string
	severity string
}

type notes struct {
	mu  sync.Mutex
	got []note
}

func (n *notes) notify(message, severity string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, note{message, severity})
}

func (n *notes) all() []note {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]note(nil), n.got...)
}

func fakeRepo(root string) *gittest.FakeRunner {
	return gittest.NewFakeRunner().
		On("version", 0, "git version 2.45.1").
		On("rev-parse --show-toplevel", 0, root).
		On("branch", 0, "* main", "  dev").
		On("log --graph --oneline --all", 0, "* 1a2b3c4 (HEAD -> main) second", "* 0a1b2c3 first")
}

func newDispatcher(t *testing.T, runner *gittest.FakeRunner, root string, opts ...Option) (*Dispatcher, *notes) {
	t.Helper()
	n := &notes{}
	state := repo.New(runner)
	require.NoError(t, state.Load(context.Background(), root))
	opts = append([]Option{WithNotify(n.notify)}, opts...)
	return New(state, runner, opts...), n
}

func TestActionConstructors(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (Action, error)
		args    []string
		refresh Refresh
	}{
		{"stage", func() (Action, error) { return Stage("a.txt") }, []string{"add", "a.txt"}, RefreshFiles},
		{"unstage", func() (Action, error) { return Unstage("a.txt", false) }, []string{"restore", "--staged", "a.txt"}, RefreshFiles},
		{"unstage conflict", func() (Action, error) { return Unstage("a.txt", true) }, []string{"restore", "--theirs", "a.txt"}, RefreshFiles},
		{"untrack", func() (Action, error) { return Untrack("a.txt") }, []string{"rm", "--cached", "a.txt"}, RefreshFiles},
		{"branch add", func() (Action, error) { return BranchAdd("dev") }, []string{"branch", "dev"}, RefreshBranches | RefreshLogs},
		{"branch rename", func() (Action, error) { return BranchRename("a", "b", false) }, []string{"branch", "-m", "a", "b"}, RefreshBranches | RefreshLogs},
		{"branch rename force", func() (Action, error) { return BranchRename("a", "b", true) }, []string{"branch", "-M", "a", "b"}, RefreshBranches | RefreshLogs},
		{"branch copy", func() (Action, error) { return BranchCopy("a", "b", false) }, []string{"branch", "-c", "a", "b"}, RefreshBranches | RefreshLogs},
		{"branch copy force", func() (Action, error) { return BranchCopy("a", "b", true) }, []string{"branch", "-C", "a", "b"}, RefreshBranches | RefreshLogs},
		{"branch delete", func() (Action, error) { return BranchDelete("a", false) }, []string{"branch", "-d", "a"}, RefreshBranches | RefreshLogs},
		{"branch delete force", func() (Action, error) { return BranchDelete("a", true) }, []string{"branch", "-D", "a"}, RefreshBranches | RefreshLogs},
		{"switch", func() (Action, error) { return Switch("dev") }, []string{"switch", "dev"}, RefreshAll},
		{"merge", func() (Action, error) {
			return Merge(MergeOptions{Branch: "dev", FastForward: NoFastForward, Strategy: StrategyTheirs, Message: "merge dev"})
		}, []string{"merge", "dev", "--no-ff", "-Xtheirs", "-m", "merge dev"}, RefreshAll},
		{"merge plain", func() (Action, error) { return Merge(MergeOptions{Branch: "dev"}) }, []string{"merge", "dev"}, RefreshAll},
		{"reset", func() (Action, error) { return Reset("abc1234", ResetHard) }, []string{"reset", "--hard", "abc1234"}, RefreshAll},
		{"reset default mode", func() (Action, error) { return Reset("abc1234", "") }, []string{"reset", "--mixed", "abc1234"}, RefreshAll},
		{"revert", func() (Action, error) { return Revert("abc1234", 0) }, []string{"revert", "abc1234", "--no-edit"}, RefreshAll},
		{"revert parent", func() (Action, error) { return Revert("abc1234", 2) }, []string{"revert", "abc1234", "--no-edit", "-m", "2"}, RefreshAll},
		{"commit", func() (Action, error) { return Commit("msg", false) }, []string{"commit", "-m", "msg"}, RefreshAll},
		{"commit empty", func() (Action, error) { return Commit("msg", true) }, []string{"commit", "-m", "msg", "--allow-empty"}, RefreshAll},
		{"stash save", func() (Action, error) { return StashSave("wip", false) }, []string{"stash", "save", "wip"}, RefreshAll},
		{"stash save untracked", func() (Action, error) { return StashSave("wip", true) }, []string{"stash", "save", "wip", "-u"}, RefreshAll},
		{"stash apply", func() (Action, error) { return StashApply("stash@{0}") }, []string{"stash", "apply", "stash@{0}"}, RefreshAll},
		{"stash drop", func() (Action, error) { return StashDrop("stash@{1}") }, []string{"stash", "drop", "stash@{1}"}, RefreshStashes | RefreshLogs},
		{"stash clear", func() (Action, error) { return StashClear(), nil }, []string{"stash", "clear"}, RefreshStashes | RefreshLogs},
		{"checkout file", func() (Action, error) { return CheckoutFile("abc1234", "a.txt") }, []string{"checkout", "abc1234", "--", "a.txt"}, RefreshFiles},
		{"archive", func() (Action, error) { return Archive("abc1234", "/tmp/abc1234.zip") }, []string{"archive", "abc1234", "-o", "/tmp/abc1234.zip"}, RefreshNone},
		{"show", func() (Action, error) { return Show("abc1234") }, []string{"show", "abc1234"}, RefreshNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.args, action.Args)
			assert.Equal(t, tt.refresh, action.Refresh)
		})
	}
}

func TestActionValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Action, error)
	}{
		{"empty path", func() (Action, error) { return Stage(" ") }},
		{"empty branch", func() (Action, error) { return BranchAdd("") }},
		{"empty rename target", func() (Action, error) { return BranchRename("a", "", false) }},
		{"bad fast-forward", func() (Action, error) { return Merge(MergeOptions{Branch: "dev", FastForward: "--rebase"}) }},
		{"bad strategy", func() (Action, error) { return Merge(MergeOptions{Branch: "dev", Strategy: "-Xpatience"}) }},
		{"bad reset mode", func() (Action, error) { return Reset("abc1234", "--keep") }},
		{"negative parent", func() (Action, error) { return Revert("abc1234", -1) }},
		{"empty stash message", func() (Action, error) { return StashSave("", true) }},
		{"empty stash rev", func() (Action, error) { return StashDrop("") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	_, err := Commit("  ", false)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSwitchSkipsRefreshOnError(t *testing.T) {
	action, err := Switch("dev")
	require.NoError(t, err)
	assert.Equal(t, "error", action.SkipRefreshOn)
}

func TestCommitMessage(t *testing.T) {
	msg, err := CommitMessage("Fix lighting", "")
	require.NoError(t, err)
	assert.Equal(t, "Fix lighting", msg)

	msg, err = CommitMessage("Fix lighting", "Bake the probes again.")
	require.NoError(t, err)
	assert.Equal(t, "Fix lighting\n\nBake the probes again.", msg)

	_, err = CommitMessage(" ", "\n")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, "Comment is empty", ErrEmptyMessage.Error())
}

func TestRefreshKinds(t *testing.T) {
	assert.Empty(t, RefreshNone.Kinds())
	assert.Equal(t, []repo.Kind{repo.KindBranches, repo.KindLogs}, (RefreshBranches | RefreshLogs).Kinds())
	assert.Equal(t, repo.AllKinds, (RefreshFiles | RefreshBranches | RefreshStashes | RefreshLogs).Kinds())
}

func TestExecuteRequiresLoadedRepository(t *testing.T) {
	runner := gittest.NewFakeRunner()
	d := New(repo.New(runner), runner)
	_, err := d.Execute(context.Background(), StashClear())
	assert.ErrorIs(t, err, repo.ErrNotLoaded)
	assert.Empty(t, runner.Calls())
}

func TestExecuteRunsInRootAndRefreshes(t *testing.T) {
	root := t.TempDir()
	runner := fakeRepo(root).On("branch dev2", 0)
	d, _ := newDispatcher(t, runner, root)
	runner.Reset()

	action, err := BranchAdd("dev2")
	require.NoError(t, err)
	report, err := d.Execute(context.Background(), action)
	require.NoError(t, err)

	assert.Equal(t, git.SeverityNone, report.Severity)
	assert.True(t, report.Refreshed)
	assert.Len(t, report.OpID, 8)
	cmds := runner.Commands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, "branch dev2", cmds[0])
	assert.ElementsMatch(t, []string{"branch", "log --graph --oneline --all"}, cmds[1:])
	for _, call := range runner.Calls() {
		assert.Equal(t, root, call.Dir)
	}
	assert.Len(t, d.State().Snapshot().Branches, 2)
}

func TestExecuteClassifiesAndNotifies(t *testing.T) {
	tests := []struct {
		name     string
		exit     int
		output   []string
		severity git.Severity
	}{
		{"fatal", 128, []string{"fatal: bad revision"}, git.SeverityError},
		{"clean stash", 0, []string{git.NoLocalChanges}, git.SeverityWarning},
		{"chatty", 0, []string{"Saved working directory"}, git.SeverityInfo},
		{"silent", 0, nil, git.SeverityNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			runner := fakeRepo(root).On("stash save wip", tt.exit, tt.output...)
			d, n := newDispatcher(t, runner, root)

			action, err := StashSave("wip", false)
			require.NoError(t, err)
			report, err := d.Execute(context.Background(), action)
			require.NoError(t, err, "command failures are reported, not returned")
			assert.Equal(t, tt.severity, report.Severity)
			assert.Equal(t, tt.exit, report.Result.ExitCode)

			if tt.severity == git.SeverityNone {
				assert.Empty(t, n.all())
				return
			}
			assert.Contains(t, n.all(), note{report.Output(), tt.severity.String()})
		})
	}
}

func TestExecuteExitCodeClassifier(t *testing.T) {
	root := t.TempDir()
	runner := fakeRepo(root).On("stash clear", 1, "something odd")
	d, _ := newDispatcher(t, runner, root, WithClassifier(git.ExitCodeClassifier{}))

	report, err := d.Execute(context.Background(), StashClear())
	require.NoError(t, err)
	assert.True(t, report.Failed())
}

func TestSwitchErrorSkipsReload(t *testing.T) {
	root := t.TempDir()
	runner := fakeRepo(root).On("switch nope", 128, "fatal: invalid reference: nope", "error: pathspec")
	d, _ := newDispatcher(t, runner, root)
	runner.Reset()

	action, err := Switch("nope")
	require.NoError(t, err)
	report, err := d.Execute(context.Background(), action)
	require.NoError(t, err)
	assert.False(t, report.Refreshed)
	assert.Equal(t, []string{"switch nope"}, runner.Commands())
}

func TestExecuteNotOperative(t *testing.T) {
	root := t.TempDir()
	fake := fakeRepo(root)
	state := repo.New(fake)
	require.NoError(t, state.Load(context.Background(), root))

	d := New(state, git.NewRunner(filepath.Join(root, "missing-git")))
	_, err := d.Execute(context.Background(), StashClear())
	assert.ErrorIs(t, err, git.ErrNotOperative)
}

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("empty message", func(t *testing.T) {
		root := t.TempDir()
		d, n := newDispatcher(t, fakeRepo(root), root)
		_, err := d.Commit(ctx, "", "", false)
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Contains(t, n.all(), note{"Comment is empty", "error"})
	})

	t.Run("not ready", func(t *testing.T) {
		root := t.TempDir()
		runner := fakeRepo(root).On("status -s --ignored", 0, " M scene.blend")
		d, _ := newDispatcher(t, runner, root)
		require.NoError(t, d.State().RefreshFiles(ctx))

		_, err := d.Commit(ctx, "msg", "", false)
		assert.ErrorIs(t, err, ErrNotCommitReady)
		assert.False(t, runner.Ran("commit -m msg"))
	})

	t.Run("clean tree allows empty", func(t *testing.T) {
		root := t.TempDir()
		runner := fakeRepo(root).On("ls-files -c", 0, "scene.blend")
		d, _ := newDispatcher(t, runner, root)
		require.NoError(t, d.State().RefreshFiles(ctx))

		_, err := d.Commit(ctx, "msg", "body", false)
		require.NoError(t, err)
		assert.True(t, runner.Ran("commit -m msg\n\nbody --allow-empty"))
	})

	t.Run("staged changes", func(t *testing.T) {
		root := t.TempDir()
		runner := fakeRepo(root).On("status -s --ignored", 0, "M  scene.blend")
		d, _ := newDispatcher(t, runner, root)
		require.NoError(t, d.State().RefreshFiles(ctx))

		_, err := d.Commit(ctx, "msg", "", false)
		require.NoError(t, err)
		assert.True(t, runner.Ran("commit -m msg"))
	})
}

func TestRevert(t *testing.T) {
	ctx := context.Background()
	mergeShow := []string{
		"commit 9f8e7d6c5b4a",
		"Merge: 1a2b3c4 5d6e7f8",
		"Author: Test <test@example.com>",
		"",
		"    Merge branch 'dev'",
	}

	t.Run("merge needs parent", func(t *testing.T) {
		root := t.TempDir()
		runner := fakeRepo(root).On("show 9f8e7d6", 0, mergeShow...)
		d, _ := newDispatcher(t, runner, root)

		_, err := d.Revert(ctx, "9f8e7d6", 0)
		assert.ErrorIs(t, err, ErrParentRequired)
		_, err = d.Revert(ctx, "9f8e7d6", 3)
		assert.ErrorIs(t, err, ErrParentRequired)
	})

	t.Run("merge with parent", func(t *testing.T) {
		root := t.TempDir()
		runner := fakeRepo(root).On("show 9f8e7d6", 0, mergeShow...)
		d, _ := newDispatcher(t, runner, root)

		_, err := d.Revert(ctx, "9f8e7d6", 1)
		require.NoError(t, err)
		assert.True(t, runner.Ran("revert 9f8e7d6 --no-edit -m 1"))
	})

	t.Run("ordinary commit ignores parent", func(t *testing.T) {
		root := t.TempDir()
		runner := fakeRepo(root).On("show 1a2b3c4", 0, "commit 1a2b3c4", "Author: Test", "", "    second")
		d, _ := newDispatcher(t, runner, root)

		_, err := d.Revert(ctx, "1a2b3c4", 2)
		require.NoError(t, err)
		assert.True(t, runner.Ran("revert 1a2b3c4 --no-edit"))
	})

	t.Run("unknown commit", func(t *testing.T) {
		root := t.TempDir()
		runner := fakeRepo(root).On("show zzz", 128, "fatal: bad object zzz")
		d, _ := newDispatcher(t, runner, root)

		_, err := d.Revert(ctx, "zzz", 0)
		var cmdErr *git.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, 128, cmdErr.ExitCode)
	})
}

func TestKeywordExpansion(t *testing.T) {
	sel := Selection{Branch: "main", File: "my scene.blend", Stash: "stash@{0}", Commit: "1a2b3c4"}
	assert.Equal(t, `diff 1a2b3c4 -- "my scene.blend"`, ExpandKeywords("diff <commit> -- <file>", sel))

	args, err := CommandArgs("git log <branch> -- <file>", sel)
	require.NoError(t, err)
	assert.Equal(t, []string{"log", "main", "--", "my scene.blend"}, args)

	args, err = CommandArgs(`stash show <stash>`, Selection{Stash: `odd "name"`})
	require.NoError(t, err)
	assert.Equal(t, []string{"stash", "show", `odd "name"`}, args)

	_, err = CommandArgs("git", sel)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = CommandArgs(`log "unterminated`, sel)
	assert.ErrorIs(t, err, git.ErrUnterminatedQuote)
}

func TestRunCommandDefaultsFromContext(t *testing.T) {
	root := t.TempDir()
	runner := fakeRepo(root).
		On("status -s --ignored", 0, "!! build/", "?? notes.txt").
		On("log main -1", 0, "* 1a2b3c4 second")
	d, _ := newDispatcher(t, runner, root)
	ctx := context.Background()
	require.NoError(t, d.State().Reload(ctx))

	report, err := d.RunCommand(ctx, "log <branch> -1", Selection{})
	require.NoError(t, err)
	assert.Equal(t, []string{"* 1a2b3c4 second"}, report.Lines)
	assert.False(t, report.Refreshed)

	sel := DefaultSelection(d.State().Snapshot())
	assert.Equal(t, Selection{Branch: "main", File: "notes.txt", Commit: "1a2b3c4"}, sel)
}

func TestBlobsAndExport(t *testing.T) {
	root := t.TempDir()
	runner := fakeRepo(root).
		On("ls-tree -r 1a2b3c4", 0,
			"100644 blob 3b18e512dba79e4c8300dd08aeb37f8e728b8dad\tscene.blend",
			"160000 commit 5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f0a1b2c3d4e\tvendor/lib",
			"100644 blob 7c4a013e52c76442ab80ee5572399a30373600a2\tdocs/read me.md").
		On("cat-file blob 7c4a013e52c76442ab80ee5572399a30373600a2", 0, "# Docs")
	d, _ := newDispatcher(t, runner, root)
	ctx := context.Background()

	blobs, err := d.Blobs(ctx, "1a2b3c4")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"scene.blend":     "3b18e512dba79e4c8300dd08aeb37f8e728b8dad",
		"docs/read me.md": "7c4a013e52c76442ab80ee5572399a30373600a2",
	}, blobs)

	var buf bytes.Buffer
	require.NoError(t, d.ExportFile(ctx, "1a2b3c4", "docs/read me.md", &buf))
	assert.Equal(t, "# Docs\n", buf.String())

	err = d.ExportFile(ctx, "1a2b3c4", "missing.txt", io.Discard)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIgnoreAndClean(t *testing.T) {
	root := t.TempDir()
	runner := fakeRepo(root)
	d, n := newDispatcher(t, runner, root)
	ctx := context.Background()
	runner.Reset()

	require.NoError(t, d.Ignore(ctx, "renders/", false))
	require.NoError(t, d.Ignore(ctx, "renders/", true))
	assert.True(t, runner.Ran("status -s --ignored"))

	changed, err := d.CleanIgnore(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, n.all(), note{"Cleaned .gitignore", "info"})

	data, err := os.ReadFile(filepath.Join(root, repo.IgnoreFile)) //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "!renders/\n", string(data))

	changed, err = d.CleanIgnore(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestArchivePaths(t *testing.T) {
	root := filepath.Join("work", "spaceship")
	assert.Equal(t, filepath.Join(root, "archive"), ArchiveDir("", root))
	assert.Equal(t, filepath.Join("store", "spaceship"), ArchiveDir("store", root))
	assert.Equal(t, filepath.Join("store", "spaceship", "1a2b3c4.zip"), ArchivePath("store", root, "1a2b3c4"))
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path) //nolint:gosec
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, body := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	out := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(data)
	}
	return out
}

func TestArchiveAugmentsZip(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "snap.zip")
	writeZip(t, out, map[string]string{"scene.blend": "blend"})
	require.NoError(t, os.WriteFile(filepath.Join(root, "render.png"), []byte("png"), 0o600))

	runner := fakeRepo(root).On("show 1a2b3c4", 0, "commit 1a2b3c4", "", "    second")
	d, n := newDispatcher(t, runner, root)

	path, _, err := d.Archive(context.Background(), ArchiveOptions{
		Hash:       "1a2b3c4",
		Output:     out,
		IncludeLog: true,
		Extras:     []string{"render.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, out, path)
	assert.True(t, runner.Ran("archive 1a2b3c4 -o "+out))

	assert.Equal(t, map[string]string{
		"scene.blend": "blend",
		CommitLogName: "commit 1a2b3c4\n\n    second\n",
		"render.png":  "png",
	}, readZip(t, out))

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(out), ".archive-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	notes := n.all()
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[len(notes)-1].message, "Archived 1a2b3c4 to "+out)
}

func TestArchiveRelativeOutputUsesRoot(t *testing.T) {
	root := t.TempDir()
	t.Chdir(t.TempDir())
	out := filepath.Join(root, "snap.zip")
	writeZip(t, out, map[string]string{"scene.blend": "blend"})

	runner := fakeRepo(root).On("show 1a2b3c4", 0, "commit 1a2b3c4")
	d, _ := newDispatcher(t, runner, root)

	path, _, err := d.Archive(context.Background(), ArchiveOptions{
		Hash:       "1a2b3c4",
		Output:     "snap.zip",
		IncludeLog: true,
	})
	require.NoError(t, err)
	assert.Equal(t, out, path)
	assert.True(t, runner.Ran("archive 1a2b3c4 -o "+out))
	assert.Equal(t, "commit 1a2b3c4\n", readZip(t, out)[CommitLogName])
	assert.NoFileExists(t, "snap.zip")
}

func TestArchiveRejectsExtrasOutsideTree(t *testing.T) {
	root := t.TempDir()
	runner := fakeRepo(root)
	d, _ := newDispatcher(t, runner, root)

	out := filepath.Join(t.TempDir(), "snap.zip")
	for _, extra := range []string{"../secret.txt", "renders/../../secret.txt", "/etc/passwd"} {
		_, _, err := d.Archive(context.Background(), ArchiveOptions{
			Hash:   "1a2b3c4",
			Output: out,
			Extras: []string{extra},
		})
		require.ErrorIs(t, err, ErrInvalidArgument, extra)
	}
	assert.False(t, runner.Ran("archive 1a2b3c4 -o "+out))
}

func TestArchiveFailure(t *testing.T) {
	root := t.TempDir()
	runner := fakeRepo(root).On("archive nope -o "+ArchivePath("", root, "nope"), 128, "fatal: not a valid object name: nope")
	d, _ := newDispatcher(t, runner, root)

	_, report, err := d.Archive(context.Background(), ArchiveOptions{Hash: "nope"})
	require.Error(t, err)
	assert.True(t, report.Failed())
	assert.DirExists(t, filepath.Join(root, "archive"))

	data, err := os.ReadFile(filepath.Join(root, repo.IgnoreFile)) //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "archive/\n", string(data))
}

func TestArchiveRealGit(t *testing.T) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not installed")
	}
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	run("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(root, "scene.txt"), []byte("v1\n"), 0o600))
	run("add", ".")
	run("commit", "-q", "-m", "first")

	runner := git.NewRunner(gitPath)
	state := repo.New(runner)
	ctx := context.Background()
	require.NoError(t, state.Load(ctx, root))
	require.NoError(t, state.Reload(ctx))
	hash := state.Snapshot().Logs[0].Hash

	require.NoError(t, os.WriteFile(filepath.Join(root, "extra.txt"), []byte("extra\n"), 0o600))
	d := New(state, runner)
	untracked, err := d.UntrackedFiles(ctx)
	require.NoError(t, err)
	assert.Contains(t, untracked, "extra.txt")

	tracked, err := d.TrackedFilesAt(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []string{"scene.txt"}, tracked)

	path, _, err := d.Archive(ctx, ArchiveOptions{Hash: hash, IncludeLog: true, Extras: []string{"extra.txt"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "archive", hash+".zip"), path)

	files := readZip(t, path)
	assert.Equal(t, "v1\n", files["scene.txt"])
	assert.Equal(t, "extra\n", files["extra.txt"])
	assert.Contains(t, files[CommitLogName], "first")

	var buf bytes.Buffer
	require.NoError(t, d.ExportFile(ctx, hash, "scene.txt", &buf))
	assert.Equal(t, "v1\n", buf.String())
}
