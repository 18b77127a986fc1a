package mocks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"windscope/internal/logger"
	"windscope/internal/models"
)

// analysisFile is the saved backend response looked up inside the mocks directory
const analysisFile = "analysis.json"

// MockService serves analysis results without a backend: a saved response when the mocks
// directory has one, otherwise the synthetic sample
type MockService struct {
	mocksDir string
	opts     SampleOptions
	log      *logger.Logger
}

// NewMockService creates a mock service reading from mocksDir/data. An empty mocksDir always
// generates.
func NewMockService(mocksDir string, opts SampleOptions) *MockService {
	dir := ""
	if mocksDir != "" {
		dir = filepath.Join(mocksDir, "data")
	}
	return &MockService{
		mocksDir: dir,
		opts:     opts.withDefaults(),
		log:      logger.GetGlobalLogger().WithComponent("mocks"),
	}
}

// Name identifies the source in logs
func (m *MockService) Name() string { return "mock" }

// Load returns the mock analysis result
func (m *MockService) Load(ctx context.Context) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := m.loadSavedResult()
	switch {
	case err == nil:
		return result, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	result = GenerateSample(m.opts)
	m.log.Info("Generated sample analysis", map[string]interface{}{
		"rows":        m.opts.Rows,
		"seed":        m.opts.Seed,
		"rated_kw":    m.opts.RatedPowerKW,
		"power_curve": result.PowerCurve.Len(),
	})
	return result, nil
}

// loadSavedResult decodes mocksDir/data/analysis.json, fs.ErrNotExist when absent
func (m *MockService) loadSavedResult() (*models.AnalysisResult, error) {
	if m.mocksDir == "" {
		return nil, fs.ErrNotExist
	}
	path := filepath.Join(m.mocksDir, analysisFile)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read mock analysis: %w", err)
	}
	result, err := models.DecodeAnalysisResult(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mock analysis %s: %w", path, err)
	}
	if result.RatedPowerKW == 0 {
		result.RatedPowerKW = m.opts.RatedPowerKW
	}
	m.log.Info("Loaded mock analysis", map[string]interface{}{"path": path})
	return result, nil
}

// SaveResult writes a result to the mocks directory so later runs replay it
func (m *MockService) SaveResult(result *models.AnalysisResult) error {
	if m.mocksDir == "" {
		return errors.New("mock service has no directory")
	}
	body, err := models.EncodeAnalysisResult(result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.mocksDir, 0755); err != nil {
		return fmt.Errorf("failed to create mocks directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.mocksDir, analysisFile), body, 0644); err != nil {
		return fmt.Errorf("failed to write mock analysis: %w", err)
	}
	return nil
}
