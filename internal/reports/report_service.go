package reports

import (
	"context"
	"fmt"
	"time"

	"windscope/internal/chartview"
	"windscope/internal/charts"
	"windscope/internal/logger"
	"windscope/internal/models"
)

// Snapshot file names inside a report folder
const (
	IndexFile       = "index.html"
	InteractiveFile = "interactive.html"
	AnalysisFile    = "analysis.json"
)

// GeneratedFiles contains all files generated for a dashboard snapshot
type GeneratedFiles struct {
	HTMLContent string
	Files       map[string][]byte // name inside FolderPath -> content
	FolderPath  string
}

// ReportService renders a dashboard into a self-contained set of files
type ReportService struct {
	builder *HTMLBuilder
	charts  *charts.ChartGenerator
	log     *logger.Logger
}

// NewReportService creates a report service drawing charts with chartGen
func NewReportService(chartGen *charts.ChartGenerator) *ReportService {
	return &ReportService{
		builder: NewHTMLBuilder(chartGen),
		charts:  chartGen,
		log:     logger.GetGlobalLogger().WithComponent("reports"),
	}
}

// Builder exposes the page builder used for the live dashboard
func (rs *ReportService) Builder() *HTMLBuilder {
	return rs.builder
}

// ReportFolderPath builds the snapshot folder for a timestamp.
// Format: YYYY/MM/DD/dashboard-YYYY-MM-DD-HH-MM-SS
func ReportFolderPath(timestamp time.Time) string {
	ts := timestamp.UTC()
	return fmt.Sprintf("%04d/%02d/%02d/dashboard-%s", ts.Year(), ts.Month(), ts.Day(), ts.Format("2006-01-02-15-04-05"))
}

// GenerateReport renders the static and interactive pages, one SVG and one CSV of the visible data
// per chart, and the analysis result as JSON
func (rs *ReportService) GenerateReport(ctx context.Context, dash *chartview.Dashboard, timestamp time.Time) (*GeneratedFiles, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files := &GeneratedFiles{
		Files:      make(map[string][]byte),
		FolderPath: ReportFolderPath(timestamp),
	}
	views := dash.Views()
	result := dash.Result()

	// 1. Per-chart SVG and CSV
	exported := map[string]bool{}
	for _, v := range views {
		f := v.Frame()
		svg, err := rs.charts.RenderSVG(f)
		if err != nil {
			rs.log.Warn("Failed to render chart", map[string]interface{}{"chart": v.ID(), "error": err.Error()})
		} else {
			files.Files[v.ID()+".svg"] = svg
		}
		if f.Empty() {
			continue
		}
		csv, err := v.ExportVisible()
		if err != nil {
			rs.log.Warn("Failed to export chart data", map[string]interface{}{"chart": v.ID(), "error": err.Error()})
			continue
		}
		files.Files[v.ID()+".csv"] = []byte(csv)
		exported[v.ID()] = true
	}

	// 2. Pages
	csvLink := func(id string) string {
		if exported[id] {
			return id + ".csv"
		}
		return ""
	}
	page, err := rs.builder.BuildDashboard(result, views, PageOptions{DatasetVersion: dash.Version(), CSVPath: csvLink})
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard page: %w", err)
	}
	files.HTMLContent = page
	files.Files[IndexFile] = []byte(page)

	interactive, err := rs.builder.BuildDashboard(result, views, PageOptions{DatasetVersion: dash.Version(), Interactive: true, CSVPath: csvLink})
	if err != nil {
		return nil, fmt.Errorf("failed to build interactive page: %w", err)
	}
	files.Files[InteractiveFile] = []byte(interactive)

	// 3. Analysis result
	if result != nil {
		body, err := models.EncodeAnalysisResult(result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode analysis result: %w", err)
		}
		files.Files[AnalysisFile] = body
	}

	rs.log.Info("Report generated", map[string]interface{}{"folder": files.FolderPath, "files": len(files.Files)})
	return files, nil
}
