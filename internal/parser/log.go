package parser

import (
	"regexp"
	"strings"

	"github.com/chmouel/blendgit/internal/models"
)

var (
	// A hash printed after a leading "commit" token may use git's minimum
	// abbreviation of four characters. Only graph edges may precede the
	// token, so "commit" inside a message body never yields a hash.
	commitTokenHash = regexp.MustCompile(`^[|/\\_ *.-]*commit\s+([0-9a-f]{4,40})\b`)
	// After a graph node marker only runs of seven or more hex digits count,
	// so words such as "added" or "decade" are not taken for hashes.
	graphNodeHash = regexp.MustCompile(`\*.*?\b([0-9a-f]{7,40})\b`)
)

// ExtractHash returns the commit hash mentioned first in a log line, or "".
func ExtractHash(text string) string {
	best, bestAt := "", -1
	for _, re := range []*regexp.Regexp{commitTokenHash, graphNodeHash} {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if bestAt < 0 || loc[2] < bestAt {
			best, bestAt = text[loc[2]:loc[3]], loc[2]
		}
	}
	return best
}

// hasGraphMarker reports whether the line starts a commit node once the
// graph edge characters are skipped.
func hasGraphMarker(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, `|/\_ -.`), "*")
}

// MergeLogLines groups log output into commit entries. A line without a hash
// and without a graph node marker continues the previous entry.
func MergeLogLines(lines []string) []models.CommitLogEntry {
	entries := make([]models.CommitLogEntry, 0, len(lines))
	for _, line := range lines {
		hash := ExtractHash(line)
		if hash == "" && !hasGraphMarker(line) && len(entries) > 0 {
			last := &entries[len(entries)-1]
			last.Text += "\n" + line
			continue
		}
		entries = append(entries, models.CommitLogEntry{Text: line, Hash: hash})
	}
	return entries
}

// MergeParents returns the parents listed on the "Merge:" line of
// `git show` output, or nil for ordinary commits.
func MergeParents(lines []string) []string {
	for _, line := range lines {
		if rest, ok := strings.CutPrefix(line, "Merge: "); ok {
			return strings.Fields(rest)
		}
	}
	return nil
}
