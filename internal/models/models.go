// Package models defines the data objects shared across blendgit packages.
package models

import (
	"slices"
	"strings"
)

// Branch is one local branch as listed by `git branch`.
type Branch struct {
	Name    string `json:"name"`
	Current bool   `json:"current"`
	Line    string `json:"line"`
}

// FileStatus is one working-tree entry from `git status -s` or a tracked,
// unmodified file synthesized from `git ls-files`.
type FileStatus struct {
	Path     string         `json:"path"`
	OrigPath string         `json:"orig_path,omitempty"` // rename source
	Code     string         `json:"code"`                // raw XY code
	Status   StatusCategory `json:"status"`
	Line     string         `json:"line"`
}

// Stash is one entry of `git stash list`.
type Stash struct {
	Revision string `json:"revision"`
	Branch   string `json:"branch"`
	Message  string `json:"message"`
	Line     string `json:"line"`
}

// CommitLogEntry is one commit of the log view. Text may span several lines
// when the log command prints continuation lines.
type CommitLogEntry struct {
	Text      string `json:"text"`
	Hash      string `json:"hash,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Summary returns the first line of the entry text.
func (c CommitLogEntry) Summary() string {
	first, _, _ := strings.Cut(c.Text, "\n")
	return first
}

// RepositoryContext aggregates the mirrored state of one repository.
type RepositoryContext struct {
	Version      string           `json:"version"`
	RootDir      string           `json:"root_dir"`
	IsRepository bool             `json:"is_repository"`
	Branches     []Branch         `json:"branches"`
	Files        []FileStatus     `json:"files"`
	Stashes      []Stash          `json:"stashes"`
	Logs         []CommitLogEntry `json:"logs"`
}

// Status returns the union of every file category. A repository without any
// file entry reports StatusIgnored.
func (c RepositoryContext) Status() StatusCategory {
	if len(c.Files) == 0 {
		return StatusIgnored
	}
	var status StatusCategory
	for _, f := range c.Files {
		status |= f.Status
	}
	return status
}

// IsDirty reports whether any entry is neither unmodified nor ignored.
func (c RepositoryContext) IsDirty() bool {
	return c.Status()>>1 != 0
}

// IsCommitReady reports whether nothing untracked, unmerged or unstaged
// remains in the working tree.
func (c RepositoryContext) IsCommitReady() bool {
	return c.Status()&(StatusUntracked|StatusUnmerged|StatusNotStaged) == 0
}

// ActiveBranch returns the checked out branch.
func (c RepositoryContext) ActiveBranch() (Branch, bool) {
	for _, b := range c.Branches {
		if b.Current {
			return b, true
		}
	}
	return Branch{}, false
}

// FilesWith returns the entries whose category intersects mask.
func (c RepositoryContext) FilesWith(mask StatusCategory) []FileStatus {
	out := []FileStatus{}
	for _, f := range c.Files {
		if f.Status&mask != 0 {
			out = append(out, f)
		}
	}
	return out
}

// LogFromHash finds the log entry for a full or abbreviated hash.
func (c RepositoryContext) LogFromHash(hash string) (CommitLogEntry, bool) {
	if hash == "" {
		return CommitLogEntry{}, false
	}
	for _, entry := range c.Logs {
		if entry.Hash == "" {
			continue
		}
		if strings.HasPrefix(entry.Hash, hash) || strings.HasPrefix(hash, entry.Hash) {
			return entry, true
		}
	}
	return CommitLogEntry{}, false
}

// Clone returns a deep copy safe to hand to other goroutines.
func (c RepositoryContext) Clone() RepositoryContext {
	return RepositoryContext{
		Version:      c.Version,
		RootDir:      c.RootDir,
		IsRepository: c.IsRepository,
		Branches:     slices.Clone(c.Branches),
		Files:        slices.Clone(c.Files),
		Stashes:      slices.Clone(c.Stashes),
		Logs:         slices.Clone(c.Logs),
	}
}
