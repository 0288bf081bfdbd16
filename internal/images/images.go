// Package images manages product image files in a flat directory. Files
// are keyed by a deterministic name derived from entity kind and primary
// key, so a record and its image can always be matched up without extra
// bookkeeping.
package images

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scarletbooks/pkg/domain"
)

// WriteError wraps a filesystem failure while storing an image.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write image %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store saves and removes image files under a base directory.
type Store struct {
	basePath string
}

// NewStore creates the image directory if missing.
func NewStore(basePath string) (*Store, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("image base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// FileNameFor returns the deterministic image filename for a record:
// "{kind}_{itemID}.jpeg".
func FileNameFor(kind domain.Kind, itemID string) string {
	return fmt.Sprintf("%s_%s.jpeg", string(kind), itemID)
}

// Save writes the image bytes under fileName, replacing any prior file of
// the same name, and returns the stored path.
func (s *Store) Save(data []byte, fileName string) (string, error) {
	target := filepath.Join(s.basePath, filepath.Base(fileName))
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return "", &WriteError{Path: target, Err: err}
	}
	// Replace, never append: a re-upload for the same key must win.
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return "", &WriteError{Path: target, Err: err}
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", &WriteError{Path: target, Err: err}
	}
	return target, nil
}

// DeleteIfExists removes the file when present. Deleting an absent file is
// a logged no-op, never a failure for the caller.
func (s *Store) DeleteIfExists(fileName string) {
	target := filepath.Join(s.basePath, filepath.Base(fileName))
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("image already absent", "file", fileName)
			return
		}
		slog.Warn("delete image failed", "file", fileName, "err", err)
	}
}

// Path returns the on-disk path for a stored filename, or false when the
// file does not exist. The filename is flattened to its base to keep reads
// inside the image directory.
func (s *Store) Path(fileName string) (string, bool) {
	target := filepath.Join(s.basePath, filepath.Base(fileName))
	if _, err := os.Stat(target); err != nil {
		return "", false
	}
	return target, true
}
