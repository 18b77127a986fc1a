package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"windscope/internal/chartview"
	"windscope/internal/charts"
	"windscope/internal/fetchers"
	"windscope/internal/logger"
	"windscope/internal/mocks"
	"windscope/internal/reports"
	"windscope/internal/storage"
)

// renderOptions holds the command line flags
type renderOptions struct {
	input     string
	backend   string
	outputDir string
	ratedKW   float64
	rows      int
	seed      int64
	window    int
	width     int
	height    int
	saveMock  string
	logLevel  string
}

// RenderSummary is printed as JSON when rendering finishes
type RenderSummary struct {
	Status     string   `json:"status"`
	Source     string   `json:"source"`
	Version    string   `json:"version"`
	OutputDir  string   `json:"output_dir"`
	ReportDir  string   `json:"report_dir"`
	Charts     []string `json:"charts"`
	Snippets   []string `json:"snippets"`
	Stored     int      `json:"stored_files"`
	DurationMS int64    `json:"duration_ms"`
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := renderOptions{}
	cmd := &cobra.Command{
		Use:   "render-charts",
		Short: "Render every chart of an analysis result to files",
		Long: `Render the time series, power curve, monthly stats and wind rose charts of an analysis
result to SVG, ECharts HTML and CSV, plus a complete dashboard snapshot.

The result comes from --input (a saved backend response), --backend (a live sample analysis)
or, when neither is given, the built-in sample generator.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Configure(opts.logLevel, "text"); err != nil {
				return err
			}
			summary, err := render(cmd.Context(), opts, time.Now())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
		SilenceUsage: true,
	}

	defaults := mocks.DefaultSampleOptions()
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Analysis result JSON file")
	cmd.Flags().StringVarP(&opts.backend, "backend", "b", "", "Analysis backend URL to run the sample analysis on")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "charts-output", "Output directory")
	cmd.Flags().Float64Var(&opts.ratedKW, "rated-power-kw", defaults.RatedPowerKW, "Rated power of the turbine")
	cmd.Flags().IntVar(&opts.rows, "rows", defaults.Rows, "Hours of generated sample data")
	cmd.Flags().Int64Var(&opts.seed, "seed", defaults.Seed, "Seed of the sample generator")
	cmd.Flags().IntVar(&opts.window, "window", 0, "Moving average window (0 keeps the default)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Chart width in pixels (0 keeps the default)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Chart height in pixels (0 keeps the default)")
	cmd.Flags().StringVar(&opts.saveMock, "save-mock", "", "Also save the result as the mock analysis of this mocks directory")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.MarkFlagsMutuallyExclusive("input", "backend")

	return cmd
}

// source picks where the analysis result comes from
func (o renderOptions) source() fetchers.Source {
	switch {
	case o.input != "":
		return fetchers.FileSource{Path: o.input}
	case o.backend != "":
		return fetchers.BackendSource{Client: fetchers.NewAnalysisClient(o.backend), RatedPowerKW: o.ratedKW}
	}
	sample := mocks.DefaultSampleOptions()
	sample.Rows = o.rows
	sample.Seed = o.seed
	sample.RatedPowerKW = o.ratedKW
	return mocks.NewMockService("", sample)
}

func render(ctx context.Context, opts renderOptions, now time.Time) (*RenderSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.GetGlobalLogger().WithComponent("render-charts")
	start := time.Now()

	src := opts.source()
	log.Info("Loading analysis", map[string]interface{}{"source": src.Name()})
	result, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	dash, err := chartview.NewDashboard(chartview.Options{Width: opts.width, Height: opts.height, Window: opts.window})
	if err != nil {
		return nil, err
	}
	if err := dash.SetResult(result); err != nil {
		return nil, fmt.Errorf("failed to load analysis into the charts: %w", err)
	}

	if opts.saveMock != "" {
		if err := mocks.NewMockService(opts.saveMock, mocks.DefaultSampleOptions()).SaveResult(result); err != nil {
			return nil, err
		}
	}

	// 1. Standalone charts
	chartGen := charts.NewChartGenerator(filepath.Join(opts.outputDir, "charts"))
	chartFiles, err := chartGen.GenerateCharts(dash.Views())
	if err != nil {
		return nil, err
	}
	var snippetFiles []string
	for _, snippet := range chartGen.GenerateSnippets(dash.Views()) {
		path := filepath.Join(opts.outputDir, "charts", snippet.ID+".html")
		if err := os.WriteFile(path, []byte(snippet.HTML), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		snippetFiles = append(snippetFiles, path)
	}

	// 2. Dashboard snapshot
	client, err := storage.NewLocalStorageClient(opts.outputDir)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	files, err := reports.NewReportService(chartGen).GenerateReport(ctx, dash, now)
	if err != nil {
		return nil, err
	}
	stored, err := reports.NewStorageOrchestrator(client).StoreAllFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	summary := &RenderSummary{
		Status:     "success",
		Source:     src.Name(),
		Version:    dash.Version(),
		OutputDir:  opts.outputDir,
		ReportDir:  filepath.Join(opts.outputDir, filepath.FromSlash(files.FolderPath)),
		Charts:     chartFiles,
		Snippets:   snippetFiles,
		Stored:     len(stored),
		DurationMS: time.Since(start).Milliseconds(),
	}
	log.Info("Charts rendered", map[string]interface{}{
		"charts":     len(chartFiles),
		"report_dir": summary.ReportDir,
	})
	return summary, nil
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
