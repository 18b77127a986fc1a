package fetchers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const backendPayload = `{
  "status": "success",
  "filename": "sample_scada.csv",
  "rated_power_kw": 2500,
  "results": {
    "method": "IEC 61400-12-1 (simplified)",
    "time_series": [
      {"timestamp": "2025-01-01T00:00:00", "wind_speed": 5.1, "power": 100.0},
      {"timestamp": "2025-01-01T01:00:00", "wind_speed": 6.3, "power": 180.0}
    ],
    "power_curve": [{"wind_speed_bin": 3.5, "mean_power": 40.2, "std_power": 12.1, "count": 22}],
    "monthly_stats": [],
    "wind_rose": [{"direction": "N", "angle": 0, "frequency": 10.0, "0-3": 4.0, "3-6": 6.0}]
  }
}`

func fastClient(url string) *AnalysisClient {
	return NewAnalysisClient(url, WithTimeout(5*time.Second), WithRetry(2, 10*time.Millisecond))
}

func TestFetchSample(t *testing.T) {
	var gotPath, gotRated, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		gotRated = r.URL.Query().Get("rated_power_kw")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(backendPayload))
	}))
	defer srv.Close()

	result, err := fastClient(srv.URL+"/").FetchSample(context.Background(), 2500)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != analyzeSamplePath {
		t.Errorf("Expected POST %s, got %s %s", analyzeSamplePath, gotMethod, gotPath)
	}
	if gotRated != "2500" {
		t.Errorf("Expected rated_power_kw=2500, got %q", gotRated)
	}
	if result.TimeSeries.Len() != 2 || result.PowerCurve.Len() != 1 || len(result.WindRose) != 1 {
		t.Errorf("Unexpected result sizes: %d/%d/%d", result.TimeSeries.Len(), result.PowerCurve.Len(), len(result.WindRose))
	}
	if !result.MonthlyStats.Empty() {
		t.Error("Expected empty monthly stats")
	}
	if result.RatedPowerKW != 2500 {
		t.Errorf("Expected rated power 2500, got %v", result.RatedPowerKW)
	}
}

func TestFetchSampleRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(backendPayload))
	}))
	defer srv.Close()

	if _, err := fastClient(srv.URL).FetchSample(context.Background(), 2000); err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("Expected 3 calls, got %d", n)
	}
}

func TestFetchSampleErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		backend bool
		errText string
	}{
		{"fastapi detail", http.StatusInternalServerError, `{"detail": "analysis failed: no data"}`, true, "analysis failed: no data"},
		{"client error", http.StatusUnprocessableEntity, `{"detail": [{"msg": "bad rated power"}]}`, true, "bad rated power"},
		{"plain text", http.StatusBadGateway, "upstream down", true, "upstream down"},
		{"broken json", http.StatusOK, `{"status": "success", "results": {`, false, "decode"},
		{"empty body", http.StatusOK, "", false, "empty analysis payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := fastClient(srv.URL).FetchSample(context.Background(), 2000)
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if errors.Is(err, ErrBackend) != tt.backend {
				t.Errorf("Expected ErrBackend=%v, got %v", tt.backend, err)
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error to contain %q, got %v", tt.errText, err)
			}
		})
	}
}

func TestFetchSampleCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(backendPayload))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fastClient(srv.URL).FetchSample(ctx, 2000); err == nil {
		t.Error("Expected error for a cancelled context")
	}
}

func TestHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != healthPath || !healthy.Load() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer srv.Close()

	client := fastClient(srv.URL)
	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Expected healthy backend, got: %v", err)
	}
	healthy.Store(false)
	if err := client.Health(context.Background()); !errors.Is(err, ErrBackend) {
		t.Errorf("Expected ErrBackend, got: %v", err)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.json")
	if err := os.WriteFile(path, []byte(backendPayload), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	src := FileSource{Path: path}
	result, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.TimeSeries.Len() != 2 {
		t.Errorf("Expected 2 time series points, got %d", result.TimeSeries.Len())
	}
	if !strings.HasSuffix(src.Name(), "result.json") {
		t.Errorf("Unexpected source name %s", src.Name())
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for a missing file")
	}
}
