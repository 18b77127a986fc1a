package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"windscope/internal/config"
	"windscope/internal/fetchers"
	"windscope/internal/logger"
	"windscope/internal/server"
	"windscope/internal/storage"
)

// newHTTPServer wraps the routes with the service timeouts
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Longer timeout for sample analysis and report generation
		IdleTimeout:  60 * time.Second,
	}
}

// buildServer wires storage and the chart server, preloading ANALYSIS_FILE when set
func buildServer(ctx context.Context, cfg *config.Config) (*server.Server, error) {
	client, err := storage.NewStorageClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	srv, err := server.NewServer(cfg, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	if cfg.AnalysisFile != "" {
		if err := srv.LoadSource(ctx, fetchers.FileSource{Path: cfg.AnalysisFile}); err != nil {
			srv.Close()
			return nil, fmt.Errorf("failed to preload analysis: %w", err)
		}
	}
	return srv, nil
}

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetGlobalLogger().WithComponent("main")

	log.Info("Starting wind turbine chart service", map[string]interface{}{
		"port":         cfg.Port,
		"environment":  cfg.Environment,
		"version":      config.GetVersion(),
		"storage_mode": cfg.StorageMode,
		"mockup_mode":  cfg.MockupMode,
	})

	srv, err := buildServer(ctx, cfg)
	if err != nil {
		log.Error("Failed to create server", err)
		os.Exit(1)
	}
	defer srv.Close()

	httpServer := newHTTPServer(cfg, srv.SetupRoutes())

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	log.Info("Server stopped")
}
