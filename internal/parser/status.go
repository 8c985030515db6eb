// Package parser turns raw git output lines into model records.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chmouel/blendgit/internal/models"
)

// UnmodifiedCode is the synthetic XY code given to tracked files that git
// status does not list.
const UnmodifiedCode = "H "

var (
	// ErrMalformedLine is returned for lines too short to carry a record.
	ErrMalformedLine = errors.New("malformed line")
	// ErrUnknownStatus is returned for XY codes outside the status table.
	ErrUnknownStatus = errors.New("unknown status code")
)

var unmergedCodes = map[string]struct{}{
	"DD": {}, "AU": {}, "UD": {}, "UA": {}, "DU": {}, "AA": {}, "UU": {},
}

// DeriveStatus maps a two-character XY status code to its category.
func DeriveStatus(code string) (models.StatusCategory, error) {
	if len(code) != 2 {
		return models.StatusUnmodified, fmt.Errorf("%w: %q", ErrUnknownStatus, code)
	}
	x, y := code[0], code[1]
	switch {
	case code == "!!":
		return models.StatusIgnored, nil
	case code == "??":
		return models.StatusUntracked, nil
	}
	if _, ok := unmergedCodes[code]; ok {
		return models.StatusUnmerged, nil
	}
	switch {
	case strings.IndexByte("AMDRC", y) >= 0:
		return models.StatusNotStaged, nil
	case strings.IndexByte("DMARC", x) >= 0:
		return models.StatusStaged, nil
	case x == 'H':
		return models.StatusUnmodified, nil
	}
	return models.StatusUnmodified, fmt.Errorf("%w: %q", ErrUnknownStatus, code)
}

// ParseStatusLine parses one `git status -s` line ("XY path").
func ParseStatusLine(line string) (models.FileStatus, error) {
	if len(line) < 4 {
		return models.FileStatus{Line: line}, fmt.Errorf("%w: status %q", ErrMalformedLine, line)
	}
	code := line[:2]
	status, err := DeriveStatus(code)
	if err != nil {
		return models.FileStatus{Line: line, Code: code}, err
	}

	entry := models.FileStatus{
		Code:   code,
		Status: status,
		Line:   line,
	}
	ref := line[3:]
	if before, after, ok := strings.Cut(ref, " -> "); ok {
		entry.OrigPath = unquotePath(before)
		ref = after
	}
	entry.Path = unquotePath(ref)
	return entry, nil
}

// Unmodified synthesizes the entry of a tracked file absent from status.
func Unmodified(path string) models.FileStatus {
	return models.FileStatus{
		Path:   path,
		Code:   UnmodifiedCode,
		Status: models.StatusUnmodified,
		Line:   UnmodifiedCode + " " + path,
	}
}

// unquotePath strips the double quotes git puts around unusual paths.
func unquotePath(path string) string {
	return strings.Trim(path, `"`)
}
