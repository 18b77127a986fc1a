package fetchers

import (
	"context"
	"fmt"
	"os"

	"windscope/internal/models"
)

// Source produces an analysis result for the dashboard
type Source interface {
	Name() string
	Load(ctx context.Context) (*models.AnalysisResult, error)
}

// FileSource reads a saved backend response from disk
type FileSource struct {
	Path string
}

// Name identifies the source in logs
func (f FileSource) Name() string { return "file:" + f.Path }

// Load reads and decodes the file
func (f FileSource) Load(ctx context.Context) (*models.AnalysisResult, error) {
	return LoadFile(f.Path)
}

// LoadFile decodes an analysis result file, wrapped or bare
func LoadFile(path string) (*models.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis file %s: %w", path, err)
	}
	result, err := models.DecodeAnalysisResult(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode analysis file %s: %w", path, err)
	}
	return result, nil
}

// BackendSource runs the backend's sample analysis
type BackendSource struct {
	Client       *AnalysisClient
	RatedPowerKW float64
}

// Name identifies the source in logs
func (b BackendSource) Name() string { return "backend" }

// Load fetches a fresh sample analysis
func (b BackendSource) Load(ctx context.Context) (*models.AnalysisResult, error) {
	return b.Client.FetchSample(ctx, b.RatedPowerKW)
}

// SourceFunc adapts a function, such as the sample generator, to a Source
type SourceFunc struct {
	Label string
	Fn    func(ctx context.Context) (*models.AnalysisResult, error)
}

// Name identifies the source in logs
func (s SourceFunc) Name() string { return s.Label }

// Load calls the function
func (s SourceFunc) Load(ctx context.Context) (*models.AnalysisResult, error) {
	return s.Fn(ctx)
}
