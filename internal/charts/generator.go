package charts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"windscope/internal/chartview"
	"windscope/internal/logger"
)

// ChartGenerator renders chart frames to SVG images and interactive HTML snippets
type ChartGenerator struct {
	outputDir string
	log       *logger.Logger
}

// NewChartGenerator creates a new chart generator writing files under outputDir
func NewChartGenerator(outputDir string) *ChartGenerator {
	return &ChartGenerator{
		outputDir: outputDir,
		log:       logger.GetGlobalLogger().WithComponent("charts"),
	}
}

// RenderSVG draws a frame as a standalone SVG document
func (cg *ChartGenerator) RenderSVG(f chartview.Frame) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch {
	case f.Empty():
		err = writePlaceholderSVG(&buf, f)
	case f.Kind == chartview.ChartPolar:
		err = writePolarSVG(&buf, f)
	default:
		err = renderCartesianSVG(&buf, f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", f.ChartID, err)
	}
	return buf.Bytes(), nil
}

// GenerateCharts writes one SVG per view into the output directory and returns the file paths
func (cg *ChartGenerator) GenerateCharts(views []chartview.View) ([]string, error) {
	if err := os.MkdirAll(cg.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}
	var chartFiles []string
	for _, v := range views {
		svg, err := cg.RenderSVG(v.Frame())
		if err != nil {
			cg.log.Warn("Skipping chart", map[string]interface{}{"chart": v.ID(), "error": err.Error()})
			continue
		}
		filename := filepath.Join(cg.outputDir, v.ID()+".svg")
		if err := os.WriteFile(filename, svg, 0644); err != nil {
			return chartFiles, fmt.Errorf("failed to write %s: %w", filename, err)
		}
		chartFiles = append(chartFiles, filename)
	}
	cg.log.Info("Charts generated", map[string]interface{}{"count": len(chartFiles), "dir": cg.outputDir})
	return chartFiles, nil
}

// GenerateSnippets builds the interactive snippet of every view, skipping ones that fail
func (cg *ChartGenerator) GenerateSnippets(views []chartview.View) []ChartSnippet {
	snippets := make([]ChartSnippet, 0, len(views))
	for _, v := range views {
		s, err := cg.RenderSnippet(v.Frame())
		if err != nil {
			cg.log.Warn("Skipping chart snippet", map[string]interface{}{"chart": v.ID(), "error": err.Error()})
			continue
		}
		snippets = append(snippets, s)
	}
	return snippets
}
