package dispatch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/repo"
	humanize "github.com/dustin/go-humanize"
)

const (
	archiveDirName = "archive"
	archiveDirPerm = 0o750
	// CommitLogName is the zip entry holding the `git show` output.
	CommitLogName = "commit_log.txt"
)

// ArchiveOptions configures Dispatcher.Archive.
type ArchiveOptions struct {
	Hash string
	// BaseDir is the configured archive directory. Empty archives inside
	// the working tree.
	BaseDir string
	// Output overrides the computed zip path. BaseDir and Output are
	// relative to the root, where git writes the archive.
	Output     string
	IncludeLog bool
	// Extras are untracked files, relative to the root, added to the zip.
	// They must stay inside the working tree.
	Extras []string
}

// ArchiveDir returns where archives of the tree at root are written:
// <baseDir>/<name of root> when baseDir is set, <root>/archive otherwise.
func ArchiveDir(baseDir, root string) string {
	if baseDir == "" {
		return filepath.Join(root, archiveDirName)
	}
	return filepath.Join(baseDir, filepath.Base(root))
}

// ArchivePath returns the zip path for hash.
func ArchivePath(baseDir, root, hash string) string {
	return filepath.Join(ArchiveDir(baseDir, root), hash+".zip")
}

type zipEntry struct {
	name string
	data []byte
	path string
}

// Archive writes the tree of a commit as a zip, then adds the commit log
// and untracked extras to it when requested. It returns the zip path.
func (d *Dispatcher) Archive(ctx context.Context, opts ArchiveOptions) (string, Report, error) {
	root, err := d.root()
	if err != nil {
		return "", Report{Action: "archive"}, err
	}
	for _, extra := range opts.Extras {
		if !filepath.IsLocal(extra) {
			return "", Report{Action: "archive"}, fmt.Errorf("%w: %s is outside the working tree", ErrInvalidArgument, extra)
		}
	}
	out := opts.Output
	if out == "" {
		out = ArchivePath(rootRelative(root, opts.BaseDir), root, opts.Hash)
	}
	out = rootRelative(root, out)
	action, err := Archive(opts.Hash, out)
	if err != nil {
		return "", Report{Action: "archive"}, err
	}
	if err := d.ensureArchiveDir(root, filepath.Dir(out)); err != nil {
		return "", Report{Action: "archive"}, err
	}

	report, err := d.Execute(ctx, action)
	if err != nil {
		return "", report, err
	}
	if report.Failed() || !report.Result.OK() {
		if err := report.Result.AsError(report.Output()); err != nil {
			return "", report, err
		}
		return "", report, fmt.Errorf("archive %s: %s", opts.Hash, report.Output())
	}

	var entries []zipEntry
	if opts.IncludeLog {
		lines, err := d.Lines(ctx, "show", opts.Hash)
		if err != nil {
			return out, report, fmt.Errorf("commit log: %w", err)
		}
		entries = append(entries, zipEntry{name: CommitLogName, data: []byte(strings.Join(lines, "\n") + "\n")})
	}
	for _, extra := range opts.Extras {
		entries = append(entries, zipEntry{
			name: filepath.ToSlash(filepath.Clean(extra)),
			path: filepath.Join(root, extra),
		})
	}
	if len(entries) > 0 {
		if err := appendToZip(out, entries); err != nil {
			return out, report, fmt.Errorf("augment %s: %w", out, err)
		}
	}

	size := "?"
	if info, err := os.Stat(out); err == nil {
		size = humanize.Bytes(uint64(info.Size())) //nolint:gosec
	}
	d.notify(fmt.Sprintf("Archived %s to %s (%s)", opts.Hash, out, size), git.SeverityInfo.String())
	return out, report, nil
}

// rootRelative anchors a relative path at root.
func rootRelative(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// ensureArchiveDir creates dir. A fresh "archive" directory inside the
// working tree is added to the ignore file.
func (d *Dispatcher) ensureArchiveDir(root, dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(dir, archiveDirPerm); err != nil {
		return err
	}
	if filepath.Base(dir) != archiveDirName {
		return nil
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return repo.AppendIgnore(root, filepath.ToSlash(rel)+"/")
}

// appendToZip rewrites the zip at path with entries added, through a temp
// file renamed over the original.
func appendToZip(path string, entries []zipEntry) (err error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".archive-*.zip")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := zip.NewWriter(tmp)
	for _, f := range r.File {
		if err := w.Copy(f); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := writeZipEntry(w, e); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	_ = r.Close()
	return os.Rename(tmp.Name(), path)
}

func writeZipEntry(w *zip.Writer, e zipEntry) error {
	header := &zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: time.Now()}
	var src io.Reader
	if e.path != "" {
		// #nosec G304 -- extras are files inside the working tree
		f, err := os.Open(e.path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if info, err := f.Stat(); err == nil {
			header.Modified = info.ModTime()
			header.SetMode(info.Mode())
		}
		src = f
	} else {
		src = bytes.NewReader(e.data)
	}
	fw, err := w.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(fw, src)
	return err
}
