package parser

import (
	"testing"

	"github.com/chmouel/blendgit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		code string
		want models.StatusCategory
	}{
		{"!!", models.StatusIgnored},
		{"??", models.StatusUntracked},
		{"DD", models.StatusUnmerged},
		{"AU", models.StatusUnmerged},
		{"UD", models.StatusUnmerged},
		{"UA", models.StatusUnmerged},
		{"DU", models.StatusUnmerged},
		{"AA", models.StatusUnmerged},
		{"UU", models.StatusUnmerged},
		{" M", models.StatusNotStaged},
		{" D", models.StatusNotStaged},
		{"MM", models.StatusNotStaged},
		{"AM", models.StatusNotStaged},
		{"RM", models.StatusNotStaged},
		{"M ", models.StatusStaged},
		{"A ", models.StatusStaged},
		{"D ", models.StatusStaged},
		{"R ", models.StatusStaged},
		{"C ", models.StatusStaged},
		{"H ", models.StatusUnmodified},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := DeriveStatus(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveStatusUnknown(t *testing.T) {
	for _, code := range []string{" T", "T ", "XY", "", "M"} {
		_, err := DeriveStatus(code)
		assert.ErrorIs(t, err, ErrUnknownStatus, "code %q", code)
	}
}

func TestParseStatusLine(t *testing.T) {
	entry, err := ParseStatusLine(`?? "my file.txt"`)
	require.NoError(t, err)
	assert.Equal(t, "my file.txt", entry.Path)
	assert.Equal(t, "??", entry.Code)
	assert.Equal(t, models.StatusUntracked, entry.Status)

	entry, err = ParseStatusLine("R  old.txt -> new.txt")
	require.NoError(t, err)
	assert.Equal(t, "new.txt", entry.Path)
	assert.Equal(t, "old.txt", entry.OrigPath)
	assert.Equal(t, models.StatusStaged, entry.Status)

	_, err = ParseStatusLine("M")
	assert.ErrorIs(t, err, ErrMalformedLine)

	_, err = ParseStatusLine(" T link")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestUnmodified(t *testing.T) {
	entry := Unmodified("scene.blend")
	assert.Equal(t, "H  scene.blend", entry.Line)
	assert.Equal(t, models.StatusUnmodified, entry.Status)
	assert.Equal(t, "scene.blend", entry.Path)
}

func TestParseBranchLine(t *testing.T) {
	branch, err := ParseBranchLine("* main")
	require.NoError(t, err)
	assert.Equal(t, models.Branch{Name: "main", Current: true, Line: "* main"}, branch)

	branch, err = ParseBranchLine("  feature/x")
	require.NoError(t, err)
	assert.Equal(t, "feature/x", branch.Name)
	assert.False(t, branch.Current)

	_, err = ParseBranchLine("*")
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestParseStashLine(t *testing.T) {
	stash, err := ParseStashLine("stash@{0}: On main: wip changes")
	require.NoError(t, err)
	assert.Equal(t, "stash@{0}", stash.Revision)
	assert.Equal(t, "On main", stash.Branch)
	assert.Equal(t, "wip changes", stash.Message)

	stash, err = ParseStashLine("stash@{1}: WIP on dev: 1a2b3c4 fix: typo")
	require.NoError(t, err)
	assert.Equal(t, "1a2b3c4 fix: typo", stash.Message)

	stash, err = ParseStashLine("garbage")
	assert.ErrorIs(t, err, ErrMalformedStash)
	assert.Equal(t, "garbage", stash.Line)
}

func TestExtractHash(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"commit token", "* commit abc123 msg1", "abc123"},
		{"oneline graph", "* 1a2b3c4 (HEAD -> main) Add scene", "1a2b3c4"},
		{"nested graph", "| * 89abcdef Merge branch", "89abcdef"},
		{"plain log", "commit 0123456789abcdef0123456789abcdef01234567", "0123456789abcdef0123456789abcdef01234567"},
		{"hex words ignored", "* added decade", ""},
		{"commit in message body", "|     This commit added support", ""},
		{"commit after summary", "* 1a2b3c4 revert commit face", "1a2b3c4"},
		{"continuation", "    extra text", ""},
		{"graph edge", "|\\", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractHash(tt.line))
		})
	}
}

func TestMergeLogLines(t *testing.T) {
	entries := MergeLogLines([]string{
		"* commit abc123 msg1",
		"  extra text",
		"* commit def456 msg2",
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "abc123", entries[0].Hash)
	assert.Equal(t, "* commit abc123 msg1\n  extra text", entries[0].Text)
	assert.Equal(t, "def456", entries[1].Hash)
}

func TestMergeLogLinesBodyMentionsCommit(t *testing.T) {
	entries := MergeLogLines([]string{
		"* commit 1a2b3c4d5e6f7a8b Add parser",
		"|     This commit added support for stashes",
		"* commit 9f8e7d6c5b4a3f2e Fix stash drop",
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "1a2b3c4d5e6f7a8b", entries[0].Hash)
	assert.Equal(t, "* commit 1a2b3c4d5e6f7a8b Add parser\n|     This commit added support for stashes", entries[0].Text)
	assert.Equal(t, "9f8e7d6c5b4a3f2e", entries[1].Hash)
}

func TestMergeLogLinesGraph(t *testing.T) {
	entries := MergeLogLines([]string{
		"*   9f8e7d6 Merge branch 'feature'",
		"|\\",
		"| * 1a2b3c4 Feature work",
		"|/",
		"* 0a1b2c3 Initial",
	})

	require.Len(t, entries, 3)
	assert.Equal(t, "*   9f8e7d6 Merge branch 'feature'\n|\\", entries[0].Text)
	assert.Equal(t, "1a2b3c4", entries[1].Hash)
	assert.Equal(t, "| * 1a2b3c4 Feature work\n|/", entries[1].Text)
	assert.Equal(t, "0a1b2c3", entries[2].Hash)
}

func TestMergeLogLinesLeadingContinuation(t *testing.T) {
	entries := MergeLogLines([]string{"orphan", "* 1a2b3c4 first"})
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Hash)
	assert.Equal(t, "orphan", entries[0].Text)
}

func TestMergeParents(t *testing.T) {
	lines := []string{"commit 9f8e7d6", "Merge: 1a2b3c4 5d6e7f8", "Author: x"}
	assert.Equal(t, []string{"1a2b3c4", "5d6e7f8"}, MergeParents(lines))
	assert.Nil(t, MergeParents([]string{"commit 9f8e7d6", "Author: x"}))
}
