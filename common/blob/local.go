package blob

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes files under a directory that the HTTP server exposes
// at publicPath. Only meant for non-production use.
type LocalStore struct {
	rootDir    string
	publicPath string
}

func NewLocalStore(rootDir, publicPath string) (*LocalStore, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &LocalStore{
		rootDir:    rootDir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
	}, nil
}

func (s *LocalStore) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.rootDir, name)

	// Atomic write: write to temp file, then rename
	tmpPath := fullPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing temp upload: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming upload: %w", err)
	}

	return s.publicPath + "/" + url.PathEscape(name), nil
}

func (s *LocalStore) Backend() string {
	return "local"
}

func (s *LocalStore) Dir() string {
	return s.rootDir
}
