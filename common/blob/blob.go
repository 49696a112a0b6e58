package blob

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

var ErrInvalidName = errors.New("invalid object name")

// Store writes uploaded bytes and returns the public URL they are served at.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Backend() string
}

func validateName(name string) error {
	if name == "" || strings.Contains(name, "..") || filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
