package repo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// realGit returns a runner for the installed git, skipping when absent.
func realGit(t *testing.T) *git.Runner {
	t.Helper()
	path, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not installed")
	}
	return git.NewRunner(path)
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func statusOf(ctx models.RepositoryContext, path string) (models.StatusCategory, bool) {
	for _, f := range ctx.Files {
		if f.Path == path {
			return f.Status, true
		}
	}
	return 0, false
}

func TestRealRepositoryRoundTrip(t *testing.T) {
	runner := realGit(t)
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	gitCmd(t, dir, "init", "-q", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.txt"), []byte("v1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.bak\n*.bak\n"), 0o600))
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-q", "-m", "first")

	s := New(runner)
	require.NoError(t, s.Load(ctx, dir))
	assert.Equal(t, dir, s.Root())
	require.NoError(t, s.Reload(ctx))

	snap := s.Snapshot()
	status, ok := statusOf(snap, "scene.txt")
	require.True(t, ok)
	assert.Equal(t, models.StatusUnmodified, status)
	assert.False(t, snap.IsDirty())
	require.Len(t, snap.Logs, 1)
	assert.NotEmpty(t, snap.Logs[0].Hash)
	active, ok := snap.ActiveBranch()
	require.True(t, ok)
	assert.Equal(t, "main", active.Name)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore")) //nolint:gosec
	require.NoError(t, err)
	assert.Equal(t, "*.bak\n", string(data), "reload normalizes the ignore file")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.txt"), []byte("v2\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.bak"), []byte("x\n"), 0o600))
	require.NoError(t, s.RefreshFiles(ctx))

	snap = s.Snapshot()
	status, _ = statusOf(snap, "scene.txt")
	assert.Equal(t, models.StatusNotStaged, status)
	status, _ = statusOf(snap, "new.txt")
	assert.Equal(t, models.StatusUntracked, status)
	status, _ = statusOf(snap, "old.bak")
	assert.Equal(t, models.StatusIgnored, status)

	gitCmd(t, dir, "add", "scene.txt")
	require.NoError(t, s.RefreshFiles(ctx))
	status, _ = statusOf(s.Snapshot(), "scene.txt")
	assert.Equal(t, models.StatusStaged, status)

	before := s.Snapshot()
	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, before.Files, s.Snapshot().Files, "reload without changes is stable")
}

func TestRealRepositoryNotRepository(t *testing.T) {
	runner := realGit(t)
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	err := New(runner).Load(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestThumbnails(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	s := New(scriptedRepo(root))
	require.NoError(t, s.Load(ctx, root))
	require.NoError(t, s.RefreshLogs(ctx))

	src := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o600))

	dst, err := s.SetThumbnail("0a1b2c3", src)
	require.NoError(t, err)
	assert.Equal(t, ThumbnailPath(root, "0a1b2c3"), dst)
	assert.FileExists(t, dst)
	entry, ok := s.Snapshot().LogFromHash("0a1b2c3")
	require.True(t, ok)
	assert.Equal(t, dst, entry.Thumbnail)

	require.NoError(t, s.RemoveThumbnail("0a1b2c3"))
	assert.NoFileExists(t, dst)
	require.NoError(t, s.RemoveThumbnail("0a1b2c3"))
	entry, _ = s.Snapshot().LogFromHash("0a1b2c3")
	assert.Empty(t, entry.Thumbnail)
}

func TestThumbnailRejectsNonHashKeys(t *testing.T) {
	root := t.TempDir()
	s := New(scriptedRepo(root))
	require.NoError(t, s.Load(context.Background(), root))
	src := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o600))

	for _, hash := range []string{"", "../../x", "0a1b2c3/../../x", "HEAD"} {
		_, err := s.SetThumbnail(hash, src)
		require.ErrorIs(t, err, ErrInvalidHash, hash)
		require.ErrorIs(t, s.RemoveThumbnail(hash), ErrInvalidHash, hash)
	}
	assert.NoFileExists(t, filepath.Join(root, "x.png"))
	assert.NoDirExists(t, filepath.Join(root, ".git", thumbnailDir))
}
