package repo

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

const thumbnailDir = ".git_thumbnails"

var thumbnailHash = regexp.MustCompile(`^[0-9a-fA-F]{4,64}$`)

// ErrInvalidHash is returned for thumbnail keys that are not a commit hash.
var ErrInvalidHash = errors.New("thumbnail: invalid commit hash")

func checkThumbnailHash(hash string) error {
	if !thumbnailHash.MatchString(hash) {
		return fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}
	return nil
}

// ThumbnailPath is where the preview image of a commit is stored.
func ThumbnailPath(root, hash string) string {
	return filepath.Join(root, ".git", thumbnailDir, hash+".png")
}

// SetThumbnail copies the PNG image at src as the preview of hash.
func (s *State) SetThumbnail(hash, src string) (string, error) {
	root, err := s.root()
	if err != nil {
		return "", err
	}
	if err := checkThumbnailHash(hash); err != nil {
		return "", err
	}
	dst := ThumbnailPath(root, hash)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", err
	}
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("thumbnail: %w", err)
	}
	s.setThumbnail(hash, dst)
	return dst, nil
}

// RemoveThumbnail deletes the preview of hash, if any.
func (s *State) RemoveThumbnail(hash string) error {
	root, err := s.root()
	if err != nil {
		return err
	}
	if err := checkThumbnailHash(hash); err != nil {
		return err
	}
	if err := os.Remove(ThumbnailPath(root, hash)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.setThumbnail(hash, "")
	return nil
}

func (s *State) setThumbnail(hash, path string) {
	s.mu.Lock()
	for i := range s.ctx.Logs {
		if s.ctx.Logs[i].Hash == hash {
			s.ctx.Logs[i].Thumbnail = path
		}
	}
	s.mu.Unlock()
	s.publish()
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src is a user selected image
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// #nosec G304 -- dst lives under the repository git directory
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
