// Package storage keeps locally uploaded course videos on disk. Files are
// addressed by a generated storage key; the courses table stores only the
// key. Removal is best-effort: a filesystem failure is logged and never
// blocks the record-level operation that triggered it.
package storage

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store writes and removes asset files under a single directory.
type Store struct {
	dir string
	log *zap.Logger
}

// NewStore creates the upload directory if needed.
func NewStore(dir string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the directory files are stored in, for static serving.
func (s *Store) Dir() string { return s.dir }

// Save stages an uploaded file under a fresh uuid-based key and returns the
// key. The original filename only contributes its extension.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := uuid.NewString() + sanitizeExt(fh.Filename)
	dst, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return key, nil
}

// Remove deletes the file for a key. Missing files are fine (removal is
// idempotent); any other failure is logged and swallowed.
func (s *Store) Remove(key string) {
	if key == "" {
		return
	}
	if !ValidKey(key) {
		s.log.Warn("refusing to remove asset with suspicious key", zap.String("key", key))
		return
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("asset file removal failed", zap.String("key", key), zap.Error(err))
	}
}

// ValidKey rejects keys containing path separators or traversal segments.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	if strings.ContainsAny(key, `/\`) {
		return false
	}
	return true
}

// sanitizeExt returns a lowercase extension of at most 10 characters, or ""
// when the filename has none worth keeping.
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext[min(1, len(ext)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
