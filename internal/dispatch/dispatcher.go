package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/log"
	"github.com/chmouel/blendgit/internal/parser"
	"github.com/chmouel/blendgit/internal/repo"
	"github.com/google/uuid"
)

var (
	// ErrEmptyMessage is returned when a commit has neither summary nor
	// description.
	ErrEmptyMessage = errors.New("Comment is empty") //nolint:staticcheck
	// ErrNotCommitReady is returned when unstaged, untracked or conflicted
	// files are present.
	ErrNotCommitReady = errors.New("working tree is not ready to commit")
	// ErrParentRequired is returned when reverting a merge commit without
	// choosing a mainline parent.
	ErrParentRequired = errors.New("merge commit needs a parent number")
	// ErrRawUnsupported is returned by blob export when the runner cannot
	// copy raw output.
	ErrRawUnsupported = errors.New("runner cannot copy raw output")
)

// RawRunner copies git stdout without line decoding.
type RawRunner interface {
	Raw(ctx context.Context, dir string, args []string, w io.Writer) (git.Result, error)
}

// Report is the outcome of one executed action.
type Report struct {
	Action   string
	OpID     string
	Lines    []string
	Severity git.Severity
	Result   git.Result
	// Refreshed is false when the action asked for no refresh or when its
	// output suppressed it.
	Refreshed bool
}

// Output returns the joined command output.
func (r Report) Output() string {
	return strings.Join(r.Lines, "\n")
}

// Failed reports whether the output was graded as an error.
func (r Report) Failed() bool {
	return r.Severity == git.SeverityError
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClassifier sets how command output is graded.
func WithClassifier(c git.Classifier) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.classifier = c
		}
	}
}

// WithNotify sets the notification callback.
func WithNotify(fn repo.NotifyFn) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.notify = fn
		}
	}
}

// Dispatcher runs actions inside the loaded repository root and refreshes
// the mirror afterwards.
type Dispatcher struct {
	state      *repo.State
	runner     repo.Runner
	classifier git.Classifier
	notify     repo.NotifyFn
	logger     *log.Logger
}

// New returns a dispatcher bound to state and runner.
func New(state *repo.State, runner repo.Runner, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		state:      state,
		runner:     runner,
		classifier: git.SubstringClassifier{},
		notify:     func(string, string) {},
		logger:     log.Named("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the repository mirror the dispatcher refreshes.
func (d *Dispatcher) State() *repo.State {
	return d.state
}

func newOpID() string {
	return uuid.NewString()[:8]
}

func (d *Dispatcher) root() (string, error) {
	root := d.state.Root()
	if root == "" {
		return "", repo.ErrNotLoaded
	}
	return root, nil
}

// Execute runs a, reports its graded output and applies its refresh.
// Failing git commands are reported, not returned: the error is non-nil
// only when nothing could run or the refresh itself failed.
func (d *Dispatcher) Execute(ctx context.Context, a Action) (Report, error) {
	report := Report{Action: a.Name, OpID: newOpID()}
	root, err := d.root()
	if err != nil {
		return report, err
	}
	logger := d.logger.With("op=" + report.OpID)
	logger.Printf("%s: git %s", a.Name, strings.Join(a.Args, " "))

	report.Lines, report.Result = git.Collect(d.runner.Stream(ctx, root, a.Args))
	if report.Result.Skipped {
		return report, git.ErrNotOperative
	}
	if report.Result.Err != nil {
		logger.Printf("%s: %v", a.Name, report.Result.Err)
		return report, fmt.Errorf("%s: %w", a.Name, report.Result.Err)
	}

	output := report.Output()
	report.Severity = d.classifier.Classify(output, report.Result)
	logger.Printf("%s: exit=%d severity=%s", a.Name, report.Result.ExitCode, report.Severity)
	if report.Severity != git.SeverityNone {
		d.notify(output, report.Severity.String())
	}

	if a.SkipRefreshOn != "" && strings.Contains(output, a.SkipRefreshOn) {
		logger.Printf("%s: refresh skipped", a.Name)
		return report, nil
	}
	if err := d.apply(ctx, a.Refresh); err != nil {
		return report, err
	}
	report.Refreshed = a.Refresh != RefreshNone
	return report, nil
}

func (d *Dispatcher) apply(ctx context.Context, r Refresh) error {
	switch {
	case r&RefreshAll != 0:
		return d.state.Reload(ctx)
	case r != RefreshNone:
		return d.state.Refresh(ctx, r.Kinds()...)
	}
	return nil
}

// Commit commits the index. An empty commit is allowed when requested or
// when the working tree is clean.
func (d *Dispatcher) Commit(ctx context.Context, summary, description string, allowEmpty bool) (Report, error) {
	message, err := CommitMessage(summary, description)
	if err != nil {
		d.notify(err.Error(), git.SeverityError.String())
		return Report{Action: "commit"}, err
	}
	snap := d.state.Snapshot()
	if !snap.IsCommitReady() {
		return Report{Action: "commit"}, ErrNotCommitReady
	}
	action, err := Commit(message, allowEmpty || !snap.IsDirty())
	if err != nil {
		return Report{Action: "commit"}, err
	}
	return d.Execute(ctx, action)
}

// MergeParents returns the parent hashes of a merge commit, or nothing for
// an ordinary commit. Only the header of `git show` is read.
func (d *Dispatcher) MergeParents(ctx context.Context, hash string) ([]string, error) {
	root, err := d.root()
	if err != nil {
		return nil, err
	}
	stream := d.runner.Stream(ctx, root, []string{"show", hash})
	var header []string
	complete := false
	for line := range stream.Lines() {
		if line == "" {
			complete = true
			break
		}
		header = append(header, line)
	}
	res := stream.Wait()
	if res.Skipped {
		return nil, git.ErrNotOperative
	}
	// an early stop kills git, so its exit status says nothing
	if !complete {
		if err := res.AsError(strings.Join(header, "\n")); err != nil {
			return nil, err
		}
	}
	return parser.MergeParents(header), nil
}

// Revert reverts hash. A merge commit needs parent in 1..n; for an
// ordinary commit parent must be zero.
func (d *Dispatcher) Revert(ctx context.Context, hash string, parent int) (Report, error) {
	parents, err := d.MergeParents(ctx, hash)
	if err != nil {
		return Report{Action: "revert"}, err
	}
	switch {
	case len(parents) > 1 && (parent < 1 || parent > len(parents)):
		return Report{Action: "revert"}, fmt.Errorf("%w: %s has %d parents", ErrParentRequired, hash, len(parents))
	case len(parents) <= 1:
		parent = 0
	}
	action, err := Revert(hash, parent)
	if err != nil {
		return Report{Action: "revert"}, err
	}
	return d.Execute(ctx, action)
}

// Lines runs a read-only git command in the root and returns its output.
func (d *Dispatcher) Lines(ctx context.Context, args ...string) ([]string, error) {
	root, err := d.root()
	if err != nil {
		return nil, err
	}
	lines, res := git.Collect(d.runner.Stream(ctx, root, args))
	if err := res.AsError(strings.Join(lines, "\n")); err != nil {
		return nil, err
	}
	return lines, nil
}

// UntrackedFiles lists files git does not track, ignored ones included.
func (d *Dispatcher) UntrackedFiles(ctx context.Context) ([]string, error) {
	return d.Lines(ctx, "ls-files", "-o")
}

// TrackedFilesAt lists the files recorded in the tree of hash.
func (d *Dispatcher) TrackedFilesAt(ctx context.Context, hash string) ([]string, error) {
	if err := required("commit", hash); err != nil {
		return nil, err
	}
	return d.Lines(ctx, "ls-tree", "-r", "--name-only", hash)
}

// Blobs maps every path in the tree of hash to its blob id.
func (d *Dispatcher) Blobs(ctx context.Context, hash string) (map[string]string, error) {
	if err := required("commit", hash); err != nil {
		return nil, err
	}
	lines, err := d.Lines(ctx, "ls-tree", "-r", hash)
	if err != nil {
		return nil, err
	}
	blobs := make(map[string]string, len(lines))
	for _, line := range lines {
		// <mode> SP <type> SP <object> TAB <path>
		meta, path, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) != 3 || fields[1] != "blob" {
			continue
		}
		blobs[path] = fields[2]
	}
	return blobs, nil
}

// ExportFile writes the content of path as recorded at hash to w.
func (d *Dispatcher) ExportFile(ctx context.Context, hash, path string, w io.Writer) error {
	raw, ok := d.runner.(RawRunner)
	if !ok {
		return ErrRawUnsupported
	}
	root, err := d.root()
	if err != nil {
		return err
	}
	blobs, err := d.Blobs(ctx, hash)
	if err != nil {
		return err
	}
	id, ok := blobs[path]
	if !ok {
		return fmt.Errorf("%w: %s not in %s", ErrInvalidArgument, path, hash)
	}
	_, err = raw.Raw(ctx, root, []string{"cat-file", "blob", id}, w)
	return err
}

// Ignore appends pattern to the ignore file, or its negation when notice is
// set, and refreshes the file list.
func (d *Dispatcher) Ignore(ctx context.Context, pattern string, notice bool) error {
	root, err := d.root()
	if err != nil {
		return err
	}
	if notice {
		pattern = "!" + pattern
	}
	if err := repo.AppendIgnore(root, pattern); err != nil {
		return err
	}
	return d.state.RefreshFiles(ctx)
}

// CleanIgnore normalizes the ignore file and refreshes the file list when
// it changed.
func (d *Dispatcher) CleanIgnore(ctx context.Context) (bool, error) {
	root, err := d.root()
	if err != nil {
		return false, err
	}
	changed, err := repo.NormalizeIgnore(root)
	if err != nil || !changed {
		return changed, err
	}
	d.notify("Cleaned "+repo.IgnoreFile, git.SeverityInfo.String())
	return true, d.state.RefreshFiles(ctx)
}
