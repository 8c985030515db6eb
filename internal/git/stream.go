package git

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os/exec"
	"strings"
	"sync"
)

// Result describes how one git invocation ended.
type Result struct {
	Args     []string
	ExitCode int
	// Err is set when the process could not be started or waited for.
	Err error
	// Skipped is set when the runner is not operative and nothing ran.
	Skipped bool
}

// OK reports a clean zero exit.
func (r Result) OK() bool {
	return r.Err == nil && !r.Skipped && r.ExitCode == 0
}

// Command returns the argument vector joined for display.
func (r Result) Command() string {
	return strings.Join(r.Args, " ")
}

// AsError converts a finished invocation into an error, using output as
// the failure detail. A clean exit yields nil.
func (r Result) AsError(output string) error {
	switch {
	case r.Skipped:
		return ErrNotOperative
	case r.Err != nil:
		return fmt.Errorf("git %s: %w", r.Command(), r.Err)
	case r.ExitCode != 0:
		return &CommandError{Args: r.Args, ExitCode: r.ExitCode, Output: strings.TrimSpace(output)}
	}
	return nil
}

// CommandError reports a git invocation that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

// Stream is the combined stdout and stderr of one git process, decoded
// lazily one line at a time.
type Stream struct {
	args   []string
	reader *bufio.Reader
	pipe   io.Closer
	cmd    *exec.Cmd
	cancel context.CancelFunc
	eof    bool

	once   sync.Once
	result Result
}

// NewStream returns a stream replaying fixed lines with the given exit code.
func NewStream(lines []string, exitCode int) *Stream {
	text := strings.Join(lines, "\n")
	s := &Stream{
		reader: bufio.NewReader(strings.NewReader(text)),
		result: Result{ExitCode: exitCode},
	}
	if len(lines) == 0 {
		s.eof = true
	}
	return s
}

func skippedStream(args []string) *Stream {
	return &Stream{args: args, eof: true, result: Result{Args: args, Skipped: true}}
}

func failedStream(args []string, err error) *Stream {
	return &Stream{args: args, eof: true, result: Result{Args: args, ExitCode: -1, Err: err}}
}

// Next returns the next output line without its line terminator.
func (s *Stream) Next() (string, bool) {
	if s.eof || s.reader == nil {
		return "", false
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		s.eof = true
		if line == "" {
			return "", false
		}
	}
	return strings.TrimRight(line, "\r\n"), true
}

// Lines yields every remaining line. Stopping early terminates the process.
func (s *Stream) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, ok := s.Next()
			if !ok {
				s.Wait()
				return
			}
			if !yield(line) {
				s.Close()
				return
			}
		}
	}
}

// Wait discards unread output and returns the exit status.
func (s *Stream) Wait() Result {
	return s.finish(true)
}

// Close terminates the process if it is still running.
func (s *Stream) Close() Result {
	return s.finish(false)
}

func (s *Stream) finish(drain bool) Result {
	s.once.Do(func() {
		if s.cmd == nil {
			if s.result.Args == nil {
				s.result.Args = s.args
			}
			return
		}
		if drain && s.reader != nil {
			_, _ = io.Copy(io.Discard, s.reader)
		} else {
			s.cancel()
		}
		err := s.cmd.Wait()
		_ = s.pipe.Close()
		s.cancel()
		s.eof = true
		s.result = resultFrom(s.args, err)
	})
	return s.result
}

func resultFrom(args []string, err error) Result {
	res := Result{Args: args}
	if err == nil {
		return res
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res
	}
	res.ExitCode = -1
	res.Err = err
	return res
}

// Collect reads the whole stream.
func Collect(s *Stream) ([]string, Result) {
	lines := []string{}
	for line := range s.Lines() {
		lines = append(lines, line)
	}
	return lines, s.Wait()
}

// Output reads the whole stream and joins it with newlines.
func Output(s *Stream) (string, Result) {
	lines, res := Collect(s)
	return strings.Join(lines, "\n"), res
}

func newLineReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, 64*1024)
}
