package reports

import (
	"context"
	"fmt"
	"path"
	"sort"

	"windscope/internal/logger"
	"windscope/internal/storage"
)

// StorageOrchestrator handles storing generated report files through a storage client
type StorageOrchestrator struct {
	storage storage.StorageClient
	log     *logger.Logger
}

// NewStorageOrchestrator creates a new storage orchestrator
func NewStorageOrchestrator(client storage.StorageClient) *StorageOrchestrator {
	return &StorageOrchestrator{
		storage: client,
		log:     logger.GetGlobalLogger().WithComponent("reports"),
	}
}

// StoreAllFiles writes every generated file under the report folder and returns the stored paths.
// index.html goes last so a listed report is always complete.
func (so *StorageOrchestrator) StoreAllFiles(ctx context.Context, files *GeneratedFiles) ([]string, error) {
	if files == nil || len(files.Files) == 0 {
		return nil, fmt.Errorf("no files to store")
	}

	names := make([]string, 0, len(files.Files))
	for name := range files.Files {
		if name != IndexFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := files.Files[IndexFile]; ok {
		names = append(names, IndexFile)
	}

	stored := make([]string, 0, len(names))
	for _, name := range names {
		p := path.Join(files.FolderPath, name)
		if err := so.storage.StoreFile(ctx, p, files.Files[name]); err != nil {
			return stored, fmt.Errorf("failed to store %s: %w", p, err)
		}
		stored = append(stored, p)
	}
	so.log.Info("Report stored", map[string]interface{}{"folder": files.FolderPath, "files": len(stored)})
	return stored, nil
}
