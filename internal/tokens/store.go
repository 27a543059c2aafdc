package tokens

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store persists the refresh token between process restarts.
type Store interface {
	// Load returns the persisted refresh token, or "" when nothing has been saved.
	Load(ctx context.Context) (string, error)
	// Save replaces the persisted refresh token.
	Save(ctx context.Context, refreshToken string) error
}

// FileStore keeps the refresh token in a single text file.
type FileStore struct {
	path string
}

// NewFileStore creates a [FileStore] backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the token file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the token file. A missing file means no token.
func (s *FileStore) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save overwrites the token file by writing a temp file in the same directory and renaming it into place.
func (s *FileStore) Save(ctx context.Context, refreshToken string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.WriteString(tmp, refreshToken+"\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	return nil
}

// OpenStore builds the [Store] for driver ("file" or "sqlite") at path.
//
// The returned closer releases the store's resources and is never nil.
func OpenStore(driver, path string) (Store, io.Closer, error) {
	switch driver {
	case "", "file":
		return NewFileStore(path), io.NopCloser(nil), nil
	case "sqlite":
		store, err := OpenSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store driver %q", driver)
	}
}
