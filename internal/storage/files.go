// Package storage persists attachment files under an uploads root
// partitioned by year/month of upload.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStore stores and reclaims attachment content. Save returns the path of
// the stored file relative to the store's root; Remove takes that same path.
type FileStore interface {
	Save(r io.Reader, originalName string, now time.Time) (string, error)
	Remove(path string) error
}

// DiskStore keeps files on the local filesystem under Root.
type DiskStore struct {
	Root string
}

// NewDiskStore returns a DiskStore rooted at root.
func NewDiskStore(root string) *DiskStore {
	return &DiskStore{Root: root}
}

// Save writes the reader's content under gastos/YYYY/MM/<uuid><ext>. The
// original filename only contributes its extension; the stored name is a
// fresh uuid so concurrent uploads of the same file never collide.
func (s *DiskStore) Save(r io.Reader, originalName string, now time.Time) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	rel := filepath.Join("gastos", fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), uuid.NewString()+ext)
	full := filepath.Join(s.Root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored file. A file that is already gone is not an error,
// so record deletion stays idempotent.
func (s *DiskStore) Remove(path string) error {
	err := os.Remove(filepath.Join(s.Root, path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload file: %w", err)
	}
	return nil
}
