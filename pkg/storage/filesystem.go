package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystemObjectStore implements ObjectStore on the local filesystem
type FileSystemObjectStore struct {
	rootDir string
}

// NewFileSystemObjectStore creates a new filesystem-based object store
func NewFileSystemObjectStore(rootDir string) (*FileSystemObjectStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FileSystemObjectStore{rootDir: rootDir}, nil
}

func (s *FileSystemObjectStore) pathFor(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.rootDir, filepath.FromSlash(clean)), nil
}

// PutObject implements ObjectStore.PutObject. The content type is not kept.
func (s *FileSystemObjectStore) PutObject(ctx context.Context, key string, content io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create object file: %w", err)
	}
	tmp := f.Name()
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

// GetObject implements ObjectStore.GetObject
func (s *FileSystemObjectStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read object %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return f, nil
}

// DeleteObject implements ObjectStore.DeleteObject. Missing objects are not an error.
func (s *FileSystemObjectStore) DeleteObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// LogoKey returns the object key of a garage logo uploaded as filename
func LogoKey(garageID, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(filepath.ToSlash(filename))))
	if len(ext) > 8 {
		ext = ""
	}
	return "garages/" + garageID + "/logo" + ext
}
