package storage

import (
	"context"
	"errors"
	"fmt"

	"windscope/internal/config"
)

// NewStorageClient creates the export store selected by cfg.StorageMode
func NewStorageClient(ctx context.Context, cfg *config.Config) (StorageClient, error) {
	if cfg == nil {
		return nil, errors.New("storage config is required")
	}
	switch cfg.StorageMode {
	case config.StorageLocal, "":
		dir := cfg.LocalExportsDir
		if dir == "" {
			dir = "exports"
		}
		client, err := NewLocalStorageClient(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage client: %w", err)
		}
		return client, nil
	case config.StorageGCS:
		client, err := NewGCSClient(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.StorageMode)
	}
}
