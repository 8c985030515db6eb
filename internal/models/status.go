package models

import "strings"

// StatusCategory classifies a working-tree entry. Values are bit flags so the
// aggregate status of a repository can be expressed as their union.
type StatusCategory int

// Status categories, ordered by severity.
const (
	StatusUnmodified StatusCategory = 0
	StatusIgnored    StatusCategory = 1 << (iota - 1)
	StatusUntracked
	StatusUnmerged
	StatusNotStaged
	StatusStaged
)

var statusNames = []struct {
	flag StatusCategory
	name string
}{
	{StatusIgnored, "ignored"},
	{StatusUntracked, "untracked"},
	{StatusUnmerged, "unmerged"},
	{StatusNotStaged, "not-staged"},
	{StatusStaged, "staged"},
}

// Has reports whether every flag in other is set on s.
func (s StatusCategory) Has(other StatusCategory) bool {
	return s&other == other
}

// String returns the category name, or a "|" joined list for unions.
func (s StatusCategory) String() string {
	if s == StatusUnmodified {
		return "unmodified"
	}
	names := make([]string, 0, len(statusNames))
	for _, entry := range statusNames {
		if s&entry.flag != 0 {
			names = append(names, entry.name)
		}
	}
	return strings.Join(names, "|")
}

// Symbol returns a single-letter marker used by compact listings.
func (s StatusCategory) Symbol() string {
	switch s {
	case StatusIgnored:
		return "!"
	case StatusUntracked:
		return "?"
	case StatusUnmerged:
		return "U"
	case StatusNotStaged:
		return "M"
	case StatusStaged:
		return "S"
	default:
		return " "
	}
}
