package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chmouel/blendgit/internal/models"
)

// ErrMalformedStash is returned for stash lines without the three
// "revision: branch: message" fields.
var ErrMalformedStash = errors.New("malformed stash line")

// ParseBranchLine parses one `git branch` line ("* main" or "  feature").
func ParseBranchLine(line string) (models.Branch, error) {
	if len(line) < 3 {
		return models.Branch{Line: line}, fmt.Errorf("%w: branch %q", ErrMalformedLine, line)
	}
	return models.Branch{
		Name:    strings.TrimSpace(line[2:]),
		Current: strings.HasPrefix(line, "*"),
		Line:    line,
	}, nil
}

// ParseStashLine parses one `git stash list` line. The message keeps any
// further ": " it contains.
func ParseStashLine(line string) (models.Stash, error) {
	parts := strings.SplitN(line, ": ", 3)
	if len(parts) < 3 {
		return models.Stash{Line: line}, fmt.Errorf("%w: %q", ErrMalformedStash, line)
	}
	return models.Stash{
		Revision: parts[0],
		Branch:   parts[1],
		Message:  parts[2],
		Line:     line,
	}, nil
}
