// Package git runs the git executable and interprets what it prints.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/chmouel/blendgit/internal/log"
)

// ErrNotOperative is reported when the configured git executable is missing.
var ErrNotOperative = errors.New("git executable not found")

// commandContext builds processes. Tests swap it to observe invocations.
var commandContext = exec.CommandContext

// Runner spawns git processes. The zero value is not operative.
type Runner struct {
	execPath  string
	operative bool
	logger    *log.Logger
}

// NewRunner returns a runner for the executable at execPath. The runner is
// operative only when execPath names an existing regular file.
func NewRunner(execPath string) *Runner {
	r := &Runner{execPath: execPath, logger: log.Named("git")}
	if info, err := os.Stat(execPath); err == nil && info.Mode().IsRegular() {
		r.operative = true
	}
	return r
}

// ExecPath returns the configured executable path.
func (r *Runner) ExecPath() string {
	return r.execPath
}

// Operative reports whether commands are actually run.
func (r *Runner) Operative() bool {
	return r != nil && r.operative
}

// Check returns ErrNotOperative with the offending path when the runner
// cannot run anything.
func (r *Runner) Check() error {
	if r.Operative() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrNotOperative, r.ExecPath())
}

// Stream starts git with args inside dir and returns its merged output.
// A non-operative runner returns an empty stream marked as skipped.
func (r *Runner) Stream(ctx context.Context, dir string, args []string) *Stream {
	if !r.Operative() {
		return skippedStream(args)
	}
	r.logger.Printf("run: git %s (cwd=%s)", strings.Join(args, " "), dir)

	ctx, cancel := context.WithCancel(ctx)
	// #nosec G204 -- the executable is the configured git binary and args are passed without a shell
	cmd := commandContext(ctx, r.execPath, args...)
	cmd.Dir = dir

	pr, pw, err := os.Pipe()
	if err != nil {
		cancel()
		return failedStream(args, err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		cancel()
		r.logger.Printf("error: git %s: %v", strings.Join(args, " "), err)
		return failedStream(args, err)
	}
	_ = pw.Close()

	return &Stream{
		args:   args,
		reader: newLineReader(pr),
		pipe:   pr,
		cmd:    cmd,
		cancel: cancel,
	}
}

// Raw runs git with stdout copied byte for byte into w. Stderr is folded
// into the returned error when the command fails.
func (r *Runner) Raw(ctx context.Context, dir string, args []string, w io.Writer) (Result, error) {
	if !r.Operative() {
		return Result{Args: args, Skipped: true}, r.Check()
	}
	r.logger.Printf("raw: git %s (cwd=%s)", strings.Join(args, " "), dir)

	var stderr bytes.Buffer
	// #nosec G204 -- the executable is the configured git binary and args are passed without a shell
	cmd := commandContext(ctx, r.execPath, args...)
	cmd.Dir = dir
	cmd.Stdout = w
	cmd.Stderr = &stderr

	res := resultFrom(args, cmd.Run())
	return res, res.AsError(stderr.String())
}

// Version returns the output of `git version`.
func (r *Runner) Version(ctx context.Context, dir string) (string, error) {
	if err := r.Check(); err != nil {
		return "", err
	}
	out, res := Output(r.Stream(ctx, dir, []string{"version"}))
	if err := res.AsError(out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
