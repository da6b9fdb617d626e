package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes images under the media root; they are served from MediaURL
type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage creates the upload directory under root
func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(filepath.Join(root, uploadDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &LocalStorage{root: root, baseURL: baseURL}, nil
}

// Save copies the upload to disk and returns its key
func (s *LocalStorage) Save(_ context.Context, name, _ string, r io.Reader, _ int64) (string, error) {
	key := objectKey(name)
	out, err := os.Create(s.path(key))
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", key, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(s.path(key))
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return key, nil
}

// Delete removes a stored image; a missing file is not an error
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the public URL of a stored image
func (s *LocalStorage) URL(key string) string {
	return strings.TrimRight(s.baseURL, "/") + "/" + strings.TrimLeft(key, "/")
}

func (s *LocalStorage) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+key)))
}
