package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"windscope/internal/logger"
)

// GCSClient stores exports in a Google Cloud Storage bucket
type GCSClient struct {
	client *storage.Client
	bucket string
	log    *logger.Logger
}

// NewGCSClient creates a client using application default credentials
func NewGCSClient(ctx context.Context, bucketName string) (*GCSClient, error) {
	if bucketName == "" {
		return nil, errors.New("GCS bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSClient{
		client: client,
		bucket: bucketName,
		log:    logger.GetGlobalLogger().WithComponent("storage"),
	}, nil
}

// Close closes the GCS client
func (g *GCSClient) Close() error {
	return g.client.Close()
}

// StoreFile uploads data with a content type derived from the extension
func (g *GCSClient) StoreFile(ctx context.Context, path string, data []byte) error {
	object, err := CleanPath(path)
	if err != nil {
		return err
	}

	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = GetContentType(object)
	w.CacheControl = "private, max-age=300"
	w.Metadata = map[string]string{
		"generated-at": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write file to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS file upload: %w", err)
	}

	g.log.Info("Stored export", map[string]interface{}{
		"object": fmt.Sprintf("gs://%s/%s", g.bucket, object),
		"bytes":  len(data),
	})
	return nil
}

// GetFile downloads an object
func (g *GCSClient) GetFile(ctx context.Context, path string) ([]byte, error) {
	object, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	r, err := g.client.Bucket(g.bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for file %s: %w", path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// ListDir lists object names under the dir prefix. Without recursion the "/" delimiter limits the
// listing to direct children.
func (g *GCSClient) ListDir(ctx context.Context, dir string, recursive bool) ([]string, error) {
	query := &storage.Query{}
	if d := strings.Trim(dir, "/"); d != "" {
		clean, err := CleanPath(d)
		if err != nil {
			return nil, err
		}
		query.Prefix = clean + "/"
	}
	if !recursive {
		query.Delimiter = "/"
	}

	var names []string
	it := g.client.Bucket(g.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		// synthetic prefix entries carry no name
		if attrs.Name == "" {
			continue
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)
	return names, nil
}

// FileExists checks object attributes
func (g *GCSClient) FileExists(ctx context.Context, path string) (bool, error) {
	object, err := CleanPath(path)
	if err != nil {
		return false, err
	}
	_, err = g.client.Bucket(g.bucket).Object(object).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get attributes of %s: %w", path, err)
	}
	return true, nil
}
