package repo

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// IgnoreFile is the ignore file managed at the working tree root.
const IgnoreFile = ".gitignore"

const ignoreFilePerms = 0o644

func ignorePath(root string) string {
	return filepath.Join(root, IgnoreFile)
}

// EnsureIgnoreFile creates an empty ignore file when none exists.
func EnsureIgnoreFile(root string) error {
	path := ignorePath(root)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	// #nosec G304 -- path is the ignore file of the working tree
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, ignoreFilePerms)
	if err != nil {
		return err
	}
	return f.Close()
}

// AppendIgnore appends pattern as a new line of the ignore file.
func AppendIgnore(root, pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || pattern == "!" {
		return errors.New("empty ignore pattern")
	}
	path := ignorePath(root)
	prefix := ""
	// #nosec G304 -- path is the ignore file of the working tree
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 && data[len(data)-1] != '\n' {
		prefix = "\n"
	}
	// #nosec G304 -- path is the ignore file of the working tree
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, ignoreFilePerms)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(prefix + pattern + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// NormalizeIgnore rewrites the ignore file without duplicate patterns and
// reports whether anything changed. A missing file is not an error.
func NormalizeIgnore(root string) (bool, error) {
	current, err := readIgnore(root)
	if err != nil || current == nil {
		return false, err
	}
	normalized := normalizeIgnoreLines(current)
	if slices.Equal(current, normalized) {
		return false, nil
	}
	data := strings.Join(normalized, "\n")
	if data != "" {
		data += "\n"
	}
	return true, os.WriteFile(ignorePath(root), []byte(data), ignoreFilePerms)
}

// PreviewIgnore renders what NormalizeIgnore would change as a unified
// diff, or "" when the file is already normalized.
func PreviewIgnore(root string) (string, error) {
	current, err := readIgnore(root)
	if err != nil || current == nil {
		return "", err
	}
	normalized := normalizeIgnoreLines(current)
	if slices.Equal(current, normalized) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withNewlines(current),
		B:        withNewlines(normalized),
		FromFile: "a/" + IgnoreFile,
		ToFile:   "b/" + IgnoreFile,
		Context:  3,
	})
}

func readIgnore(root string) ([]string, error) {
	// #nosec G304 -- path is the ignore file of the working tree
	data, err := os.ReadFile(ignorePath(root))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	text := strings.TrimRight(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

// normalizeIgnoreLines keeps the last occurrence of every line, then folds
// "pattern" and "!pattern" together: the pattern stays where it first
// appears and takes the negation of its last declaration. Blank lines are
// dropped.
func normalizeIgnoreLines(lines []string) []string {
	last := make(map[string]int, len(lines))
	for i, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			last[line] = i
		}
	}

	var order []string
	negated := make(map[string]bool, len(last))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || last[line] != i {
			continue
		}
		key := strings.TrimLeft(line, "!")
		if key == "" {
			continue
		}
		if _, ok := negated[key]; !ok {
			order = append(order, key)
		}
		negated[key] = strings.HasPrefix(line, "!")
	}

	out := make([]string, 0, len(order))
	for _, key := range order {
		if negated[key] {
			key = "!" + key
		}
		out = append(out, key)
	}
	return out
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + "\n"
	}
	return out
}
