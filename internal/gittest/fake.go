// Package gittest provides a scripted stand-in for the git runner.
package gittest

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/chmouel/blendgit/internal/git"
)

type response struct {
	lines []string
	exit  int
}

// Call records one invocation.
type Call struct {
	Dir  string
	Args []string
}

// Command returns the joined argument vector.
func (c Call) Command() string {
	return strings.Join(c.Args, " ")
}

// FakeRunner answers git invocations from scripted responses keyed by the
// space-joined argument vector. Queued responses are consumed in order and
// the last one repeats. Unknown commands print nothing and succeed.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string][]response
	calls     []Call
}

// NewFakeRunner returns an empty fake.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string][]response)}
}

// On queues lines and an exit code for command.
func (f *FakeRunner) On(command string, exit int, lines ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[command] = append(f.responses[command], response{lines: lines, exit: exit})
	return f
}

// Stream implements the runner interfaces.
func (f *FakeRunner) Stream(_ context.Context, dir string, args []string) *git.Stream {
	key := strings.Join(args, " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Dir: dir, Args: slices.Clone(args)})
	queue := f.responses[key]
	if len(queue) == 0 {
		return git.NewStream(nil, 0)
	}
	resp := queue[0]
	if len(queue) > 1 {
		f.responses[key] = queue[1:]
	}
	return git.NewStream(resp.lines, resp.exit)
}

// Raw writes the scripted lines, newline terminated, to w.
func (f *FakeRunner) Raw(ctx context.Context, dir string, args []string, w io.Writer) (git.Result, error) {
	lines, res := git.Collect(f.Stream(ctx, dir, args))
	if err := res.AsError(strings.Join(lines, "\n")); err != nil {
		return res, err
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Calls returns every invocation so far.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Commands returns the joined argument vector of every invocation.
func (f *FakeRunner) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Command()
	}
	return out
}

// Ran reports whether command was invoked.
func (f *FakeRunner) Ran(command string) bool {
	return slices.Contains(f.Commands(), command)
}

// Reset forgets recorded calls.
func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
