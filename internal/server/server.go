package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"windscope/internal/chartview"
	"windscope/internal/charts"
	"windscope/internal/config"
	"windscope/internal/fetchers"
	"windscope/internal/logger"
	"windscope/internal/mocks"
	"windscope/internal/models"
	"windscope/internal/reports"
	"windscope/internal/storage"
)

// Server represents the main application server
type Server struct {
	Config      *config.Config
	Dashboard   *chartview.Dashboard
	Charts      *charts.ChartGenerator
	Reports     *reports.ReportService
	Storage     storage.StorageClient
	Backend     *fetchers.AnalysisClient
	MockService *mocks.MockService

	// mu serializes every access to the dashboard; views are not safe for concurrent use
	mu            sync.Mutex
	generateMutex sync.Mutex

	now func() time.Time
	log *logger.Logger
}

// DashboardOptions maps the chart settings of the configuration onto the chart engine
func DashboardOptions(cfg *config.Config) chartview.Options {
	return chartview.Options{
		Width:      cfg.ChartWidth,
		Height:     cfg.ChartHeight,
		Window:     cfg.MovingAverageWindow,
		DomainStep: cfg.DomainStep,
		Headroom:   cfg.DomainHeadroom,
		Colors:     cfg.SeriesColors,
	}
}

// NewServer creates a new server instance persisting exports through client
func NewServer(cfg *config.Config, client storage.StorageClient) (*Server, error) {
	dash, err := chartview.NewDashboard(DashboardOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard: %w", err)
	}
	chartGen := charts.NewChartGenerator(cfg.LocalExportsDir)

	server := &Server{
		Config:    cfg,
		Dashboard: dash,
		Charts:    chartGen,
		Reports:   reports.NewReportService(chartGen),
		Storage:   client,
		Backend:   fetchers.NewAnalysisClient(cfg.BackendURL),
		now:       time.Now,
		log:       logger.GetGlobalLogger().WithComponent("server"),
	}

	// Initialize mock service if mockup mode is enabled
	if cfg.MockupMode {
		mocksDir := filepath.Join("internal", "mocks")
		opts := mocks.DefaultSampleOptions()
		opts.RatedPowerKW = cfg.RatedPowerKW
		server.MockService = mocks.NewMockService(mocksDir, opts)
		server.log.Info("Mockup mode enabled", map[string]interface{}{"mocks_dir": mocksDir})
	}

	return server, nil
}

// sampleSource picks where POST /dataset/sample gets its analysis from
func (s *Server) sampleSource(ratedPowerKW float64) fetchers.Source {
	if s.MockService != nil {
		opts := mocks.DefaultSampleOptions()
		opts.RatedPowerKW = ratedPowerKW
		return fetchers.SourceFunc{
			Label: s.MockService.Name(),
			Fn: func(ctx context.Context) (*models.AnalysisResult, error) {
				if ratedPowerKW == s.Config.RatedPowerKW {
					return s.MockService.Load(ctx)
				}
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				return mocks.GenerateSample(opts), nil
			},
		}
	}
	return fetchers.BackendSource{Client: s.Backend, RatedPowerKW: ratedPowerKW}
}

// LoadSource replaces the dashboard dataset with the result of src
func (s *Server) LoadSource(ctx context.Context, src fetchers.Source) error {
	start := time.Now()
	result, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", src.Name(), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Dashboard.SetResult(result); err != nil {
		return fmt.Errorf("failed to apply %s: %w", src.Name(), err)
	}
	s.log.Info("Dataset loaded", map[string]interface{}{
		"source":      src.Name(),
		"version":     s.Dashboard.Version(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// SetupRoutes configures HTTP routes for the server
func (s *Server) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.HandleHealth)

	mux.HandleFunc("POST /dataset", s.HandleLoadDataset)
	mux.HandleFunc("POST /dataset/sample", s.HandleLoadSample)

	mux.HandleFunc("GET /charts", s.HandleListCharts)
	mux.HandleFunc("GET /charts/{id}", s.HandleChartFrame)
	mux.HandleFunc("GET /charts/{id}/svg", s.HandleChartSVG)
	mux.HandleFunc("GET /charts/{id}/html", s.HandleChartHTML)
	mux.HandleFunc("GET /charts/{id}/hover", s.HandleHover)
	mux.HandleFunc("GET /charts/{id}/export.csv", s.HandleExportCSV)
	mux.HandleFunc("POST /charts/{id}/pointer", s.HandlePointer)
	mux.HandleFunc("POST /charts/{id}/series/{series}/toggle", s.HandleToggleSeries)
	mux.HandleFunc("POST /charts/{id}/reset", s.HandleReset)
	mux.HandleFunc("POST /charts/{id}/expand", s.HandleExpand)

	mux.HandleFunc("POST /reports", s.HandleGenerate)
	mux.HandleFunc("GET /reports", s.HandleListReports)
	mux.HandleFunc("GET /files/{path...}", s.HandleFileProxy)

	// Handle root path last (catch-all)
	mux.HandleFunc("GET /{$}", s.HandleRoot)

	return mux
}

// Close cleans up server resources
func (s *Server) Close() error {
	if s.Storage != nil {
		return s.Storage.Close()
	}
	return nil
}
