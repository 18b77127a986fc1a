package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a stored file does not exist
	ErrNotFound = errors.New("file not found")
	// ErrInvalidPath is returned for absolute paths or paths escaping the store root
	ErrInvalidPath = errors.New("invalid storage path")
)

// StorageClient persists chart exports (CSV, SVG, HTML) under slash-separated relative paths
type StorageClient interface {
	// Close releases the underlying client
	Close() error

	// StoreFile writes data at path, creating parent directories as needed
	StoreFile(ctx context.Context, path string, data []byte) error

	// GetFile reads the file at path; a missing file yields ErrNotFound
	GetFile(ctx context.Context, path string) ([]byte, error)

	// ListDir lists file paths under dir, sorted; recursive includes nested directories
	ListDir(ctx context.Context, dir string, recursive bool) ([]string, error)

	// FileExists reports whether a file exists at path
	FileExists(ctx context.Context, path string) (bool, error)
}
