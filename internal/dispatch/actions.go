// Package dispatch maps version-control actions to git argument vectors,
// runs them and refreshes the repository mirror afterwards.
package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/chmouel/blendgit/internal/repo"
)

// ErrInvalidArgument is returned by action constructors for bad input.
var ErrInvalidArgument = errors.New("invalid argument")

// Refresh says which lists must be re-read after an action.
type Refresh int

// Refresh directives. RefreshAll requests a full reload.
const (
	RefreshNone     Refresh = 0
	RefreshFiles    Refresh = 1 << (iota - 1)
	RefreshBranches
	RefreshStashes
	RefreshLogs
	RefreshAll
)

// Kinds lists the repository lists named by r, ignoring RefreshAll.
func (r Refresh) Kinds() []repo.Kind {
	var kinds []repo.Kind
	for flag, kind := range map[Refresh]repo.Kind{
		RefreshFiles:    repo.KindFiles,
		RefreshBranches: repo.KindBranches,
		RefreshStashes:  repo.KindStashes,
		RefreshLogs:     repo.KindLogs,
	} {
		if r&flag != 0 {
			kinds = append(kinds, kind)
		}
	}
	slices.Sort(kinds)
	return kinds
}

// Action is one git invocation plus what to refresh once it finishes.
type Action struct {
	Name    string
	Args    []string
	Refresh Refresh
	// SkipRefreshOn suppresses the refresh when the output contains it.
	SkipRefreshOn string
}

// Merge fast-forward modes.
const (
	FastForward   = "--ff"
	NoFastForward = "--no-ff"
	Squash        = "--squash"
)

// Merge conflict strategies.
const (
	StrategyOurs   = "-Xours"
	StrategyTheirs = "-Xtheirs"
)

// Reset modes.
const (
	ResetSoft  = "--soft"
	ResetMixed = "--mixed"
	ResetHard  = "--hard"
)

func required(what, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: empty %s", ErrInvalidArgument, what)
	}
	return nil
}

func oneOf(what, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%w: %s %q not one of %s", ErrInvalidArgument, what, value, strings.Join(allowed, ", "))
}

// Stage adds path to the index.
func Stage(path string) (Action, error) {
	if err := required("path", path); err != nil {
		return Action{}, err
	}
	return Action{Name: "stage", Args: []string{"add", path}, Refresh: RefreshFiles}, nil
}

// Unstage removes path from the index, or resolves a conflict with the
// incoming side when resolveConflict is set.
func Unstage(path string, resolveConflict bool) (Action, error) {
	if err := required("path", path); err != nil {
		return Action{}, err
	}
	flag := "--staged"
	if resolveConflict {
		flag = "--theirs"
	}
	return Action{Name: "unstage", Args: []string{"restore", flag, path}, Refresh: RefreshFiles}, nil
}

// Untrack stops tracking path while keeping it on disk.
func Untrack(path string) (Action, error) {
	if err := required("path", path); err != nil {
		return Action{}, err
	}
	return Action{Name: "untrack", Args: []string{"rm", "--cached", path}, Refresh: RefreshFiles}, nil
}

// BranchAdd creates a branch at HEAD.
func BranchAdd(name string) (Action, error) {
	if err := required("branch name", name); err != nil {
		return Action{}, err
	}
	return Action{Name: "branch-add", Args: []string{"branch", name}, Refresh: RefreshBranches | RefreshLogs}, nil
}

func branchPair(name, op, soft, hard, from, to string, force bool) (Action, error) {
	if err := required("source branch", from); err != nil {
		return Action{}, err
	}
	if err := required("target branch", to); err != nil {
		return Action{}, err
	}
	flag := soft
	if force {
		flag = hard
	}
	return Action{Name: name, Args: []string{op, flag, from, to}, Refresh: RefreshBranches | RefreshLogs}, nil
}

// BranchRename renames from to to; force overwrites an existing target.
func BranchRename(from, to string, force bool) (Action, error) {
	return branchPair("branch-rename", "branch", "-m", "-M", from, to, force)
}

// BranchCopy copies from to to; force overwrites an existing target.
func BranchCopy(from, to string, force bool) (Action, error) {
	return branchPair("branch-copy", "branch", "-c", "-C", from, to, force)
}

// BranchDelete deletes a branch; force deletes it even when unmerged.
func BranchDelete(name string, force bool) (Action, error) {
	if err := required("branch name", name); err != nil {
		return Action{}, err
	}
	flag := "-d"
	if force {
		flag = "-D"
	}
	return Action{Name: "branch-delete", Args: []string{"branch", flag, name}, Refresh: RefreshBranches | RefreshLogs}, nil
}

// Switch checks out branch. The reload is skipped when git reports an error.
func Switch(branch string) (Action, error) {
	if err := required("branch name", branch); err != nil {
		return Action{}, err
	}
	return Action{Name: "switch", Args: []string{"switch", branch}, Refresh: RefreshAll, SkipRefreshOn: "error"}, nil
}

// MergeOptions configures Merge. Empty fields are omitted from the command.
type MergeOptions struct {
	Branch      string
	FastForward string
	Strategy    string
	Message     string
}

// Merge merges a branch into the current one.
func Merge(opts MergeOptions) (Action, error) {
	if err := required("branch name", opts.Branch); err != nil {
		return Action{}, err
	}
	args := []string{"merge", opts.Branch}
	if opts.FastForward != "" {
		if err := oneOf("fast-forward mode", opts.FastForward, FastForward, NoFastForward, Squash); err != nil {
			return Action{}, err
		}
		args = append(args, opts.FastForward)
	}
	if opts.Strategy != "" {
		if err := oneOf("strategy", opts.Strategy, StrategyOurs, StrategyTheirs); err != nil {
			return Action{}, err
		}
		args = append(args, opts.Strategy)
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}
	return Action{Name: "merge", Args: args, Refresh: RefreshAll}, nil
}

// Reset moves HEAD to hash.
func Reset(hash, mode string) (Action, error) {
	if err := required("commit", hash); err != nil {
		return Action{}, err
	}
	if mode == "" {
		mode = ResetMixed
	}
	if err := oneOf("reset mode", mode, ResetSoft, ResetMixed, ResetHard); err != nil {
		return Action{}, err
	}
	return Action{Name: "reset", Args: []string{"reset", mode, hash}, Refresh: RefreshAll}, nil
}

// Revert reverts hash. parent selects the mainline of a merge commit; zero
// omits it.
func Revert(hash string, parent int) (Action, error) {
	if err := required("commit", hash); err != nil {
		return Action{}, err
	}
	if parent < 0 {
		return Action{}, fmt.Errorf("%w: parent %d", ErrInvalidArgument, parent)
	}
	args := []string{"revert", hash, "--no-edit"}
	if parent > 0 {
		args = append(args, "-m", strconv.Itoa(parent))
	}
	return Action{Name: "revert", Args: args, Refresh: RefreshAll}, nil
}

// CommitMessage joins a summary and an optional description.
func CommitMessage(summary, description string) (string, error) {
	summary = strings.TrimSpace(summary)
	description = strings.TrimSpace(description)
	if summary == "" && description == "" {
		return "", ErrEmptyMessage
	}
	if description == "" {
		return summary, nil
	}
	return summary + "\n\n" + description, nil
}

// Commit records the index with message.
func Commit(message string, allowEmpty bool) (Action, error) {
	if strings.TrimSpace(message) == "" {
		return Action{}, ErrEmptyMessage
	}
	args := []string{"commit", "-m", message}
	if allowEmpty {
		args = append(args, "--allow-empty")
	}
	return Action{Name: "commit", Args: args, Refresh: RefreshAll}, nil
}

// StashSave stashes local changes, untracked files included on request.
func StashSave(message string, includeUntracked bool) (Action, error) {
	if err := required("stash message", message); err != nil {
		return Action{}, err
	}
	args := []string{"stash", "save", message}
	if includeUntracked {
		args = append(args, "-u")
	}
	return Action{Name: "stash-save", Args: args, Refresh: RefreshAll}, nil
}

// StashApply applies the stash rev without dropping it.
func StashApply(rev string) (Action, error) {
	if err := required("stash", rev); err != nil {
		return Action{}, err
	}
	return Action{Name: "stash-apply", Args: []string{"stash", "apply", rev}, Refresh: RefreshAll}, nil
}

// StashDrop deletes the stash rev.
func StashDrop(rev string) (Action, error) {
	if err := required("stash", rev); err != nil {
		return Action{}, err
	}
	return Action{Name: "stash-drop", Args: []string{"stash", "drop", rev}, Refresh: RefreshStashes | RefreshLogs}, nil
}

// StashClear deletes every stash.
func StashClear() Action {
	return Action{Name: "stash-clear", Args: []string{"stash", "clear"}, Refresh: RefreshStashes | RefreshLogs}
}

// CheckoutFile restores path as it was at hash.
func CheckoutFile(hash, path string) (Action, error) {
	if err := required("commit", hash); err != nil {
		return Action{}, err
	}
	if err := required("path", path); err != nil {
		return Action{}, err
	}
	return Action{Name: "checkout-file", Args: []string{"checkout", hash, "--", path}, Refresh: RefreshFiles}, nil
}

// Archive writes the tree of hash to out; the format follows its extension.
func Archive(hash, out string) (Action, error) {
	if err := required("commit", hash); err != nil {
		return Action{}, err
	}
	if err := required("output", out); err != nil {
		return Action{}, err
	}
	return Action{Name: "archive", Args: []string{"archive", hash, "-o", out}}, nil
}

// Show prints the commit hash with its patch.
func Show(hash string) (Action, error) {
	if err := required("commit", hash); err != nil {
		return Action{}, err
	}
	return Action{Name: "show", Args: []string{"show", hash}}, nil
}
