package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// ExportPath builds the storage path of one chart export.
// Format: YYYY/MM/DD/<chart>-YYYY-MM-DD-HH-MM-SS.<ext>
func ExportPath(timestamp time.Time, chartID, ext string) string {
	ts := timestamp.UTC()
	return fmt.Sprintf("%04d/%02d/%02d/%s-%s.%s",
		ts.Year(), ts.Month(), ts.Day(),
		chartID, ts.Format("2006-01-02-15-04-05"),
		strings.TrimPrefix(ext, "."))
}

// CleanPath normalizes a relative storage path. Absolute paths and paths that climb above the
// root are rejected.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	return clean, nil
}

var contentTypes = map[string]string{
	".csv":  "text/csv; charset=utf-8",
	".svg":  "image/svg+xml",
	".html": "text/html; charset=utf-8",
	".json": "application/json",
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown",
	".css":  "text/css",
	".png":  "image/png",
}

// GetContentType determines the MIME content type from the file extension
func GetContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
