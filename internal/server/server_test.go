package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"windscope/internal/chartview"
	"windscope/internal/config"
	"windscope/internal/mocks"
	"windscope/internal/models"
	"windscope/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:                "8981",
		Environment:         "test",
		StorageMode:         config.StorageLocal,
		LocalExportsDir:     t.TempDir(),
		BackendURL:          "http://127.0.0.1:1",
		RatedPowerKW:        2000,
		MockupMode:          true,
		MovingAverageWindow: 12,
		DomainStep:          50,
		DomainHeadroom:      1.15,
		ChartWidth:          960,
		ChartHeight:         360,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	client, err := storage.NewLocalStorageClient(cfg.LocalExportsDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	s, err := NewServer(cfg, client)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	s.now = func() time.Time { return time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC) }
	ts := httptest.NewServer(s.SetupRoutes())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func do(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return buf.String()
}

func loadSample(t *testing.T, ts *httptest.Server) {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/dataset/sample", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 loading the sample, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()
}

func TestDashboardOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeriesColors = map[string]string{"wind_speed": "#123456"}
	opts := DashboardOptions(cfg)
	if opts.Width != 960 || opts.Height != 360 || opts.Window != 12 {
		t.Errorf("Expected size and window from config, got %+v", opts)
	}
	if opts.DomainStep != 50 || opts.Headroom != 1.15 {
		t.Errorf("Expected domain settings from config, got %+v", opts)
	}
	if opts.Colors["wind_speed"] != "#123456" {
		t.Error("Expected series colors from config")
	}
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	resp := do(t, http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	decode(t, resp, &health)
	if health.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", health.Status)
	}
	if health.Checks["dataset"] != "empty" {
		t.Errorf("Expected an empty dataset, got %s", health.Checks["dataset"])
	}
}

func TestHandleRootWithoutData(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	resp := do(t, http.MethodGet, ts.URL+"/", nil)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, chartview.NoDataMessage) {
		t.Error("Expected placeholders before a dataset is loaded")
	}
}

func TestLoadSampleAndListCharts(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))
	loadSample(t, ts)

	var list struct {
		Charts []struct {
			ID     string `json:"id"`
			Empty  bool   `json:"empty"`
			Series []struct {
				ID      string `json:"id"`
				Visible bool   `json:"visible"`
			} `json:"series"`
		} `json:"charts"`
		Count int `json:"count"`
	}
	decode(t, do(t, http.MethodGet, ts.URL+"/charts", nil), &list)
	if list.Count != 4 {
		t.Fatalf("Expected 4 charts, got %d", list.Count)
	}
	for _, c := range list.Charts {
		if c.Empty {
			t.Errorf("Expected chart %s to have data", c.ID)
		}
		if len(c.Series) == 0 {
			t.Errorf("Expected series for chart %s", c.ID)
		}
	}

	body := readBody(t, do(t, http.MethodGet, ts.URL+"/", nil))
	if !strings.Contains(body, "<svg") || !strings.Contains(body, "/charts/time_series/export.csv") {
		t.Error("Expected charts with CSV links on the dashboard")
	}
	body = readBody(t, do(t, http.MethodGet, ts.URL+"/?interactive=true", nil))
	if !strings.Contains(body, "echarts.init") {
		t.Error("Expected ECharts snippets on the interactive dashboard")
	}
}

func TestLoadSampleFromBackend(t *testing.T) {
	sample := mocks.GenerateSample(mocks.SampleOptions{Rows: 240, RatedPowerKW: 3000})
	payload, err := models.EncodeAnalysisResult(sample)
	if err != nil {
		t.Fatalf("Failed to encode sample: %v", err)
	}
	var gotRated string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analyze-sample" {
			http.NotFound(w, r)
			return
		}
		gotRated = r.URL.Query().Get("rated_power_kw")
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	}))
	defer backend.Close()

	cfg := testConfig(t)
	cfg.MockupMode = false
	cfg.BackendURL = backend.URL
	s, ts := newTestServer(t, cfg)

	resp := do(t, http.MethodPost, ts.URL+"/dataset/sample?rated_power_kw=3000", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()
	if gotRated != "3000" {
		t.Errorf("Expected rated power 3000 forwarded, got %q", gotRated)
	}
	if s.Dashboard.Result().RatedPowerKW != 3000 {
		t.Errorf("Expected rated power 3000, got %v", s.Dashboard.Result().RatedPowerKW)
	}

	resp = do(t, http.MethodPost, ts.URL+"/dataset/sample?rated_power_kw=-1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for a negative rating, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHandleLoadDataset(t *testing.T) {
	s, ts := newTestServer(t, testConfig(t))

	resp := do(t, http.MethodPost, ts.URL+"/dataset", []byte("not json"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed body, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	payload, err := models.EncodeAnalysisResult(mocks.GenerateSample(mocks.SampleOptions{Rows: 240}))
	if err != nil {
		t.Fatalf("Failed to encode sample: %v", err)
	}
	var loaded struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	resp = do(t, http.MethodPost, ts.URL+"/dataset", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	decode(t, resp, &loaded)
	if loaded.Version == "" || loaded.Version != s.Dashboard.Version() {
		t.Errorf("Expected version %s, got %s", s.Dashboard.Version(), loaded.Version)
	}
}

func TestPointerDragCommitsZoom(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))
	loadSample(t, ts)

	events := []struct {
		typ      string
		x        float64
		expected string
	}{
		{"down", 300, "dragging"},
		{"move", 500, "dragging"},
		{"up", 500, "committed"},
	}
	for _, ev := range events {
		body, _ := json.Marshal(PointerRequest{Type: ev.typ, X: ev.x, Y: 150})
		var got struct {
			Transition struct {
				To string `json:"to"`
			} `json:"transition"`
		}
		resp := do(t, http.MethodPost, ts.URL+"/charts/time_series/pointer", body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200 for %s, got %d", ev.typ, resp.StatusCode)
		}
		decode(t, resp, &got)
		if got.Transition.To != ev.expected {
			t.Errorf("Expected state %s after %s, got %s", ev.expected, ev.typ, got.Transition.To)
		}
	}

	var reset struct {
		Transition struct {
			To string `json:"to"`
		} `json:"transition"`
		Changed bool `json:"changed"`
	}
	decode(t, do(t, http.MethodPost, ts.URL+"/charts/time_series/reset", nil), &reset)
	if reset.Transition.To != "idle" || !reset.Changed {
		t.Errorf("Expected reset to idle, got %+v", reset)
	}
}

func TestPointerErrors(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	tests := []struct {
		name     string
		url      string
		body     string
		expected int
	}{
		{"unknown chart", "/charts/nope/pointer", `{"type":"down","x":1,"y":1}`, http.StatusNotFound},
		{"unknown type", "/charts/time_series/pointer", `{"type":"wheel","x":1,"y":1}`, http.StatusBadRequest},
		{"malformed", "/charts/time_series/pointer", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+tt.url, []byte(tt.body))
			resp.Body.Close()
			if resp.StatusCode != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, resp.StatusCode)
			}
		})
	}
}

func TestToggleSeries(t *testing.T) {
	s, ts := newTestServer(t, testConfig(t))
	loadSample(t, ts)

	view, err := s.Dashboard.View("time_series")
	if err != nil {
		t.Fatalf("Expected time_series view: %v", err)
	}
	first := view.Series()[0]

	var toggled struct {
		Visible bool `json:"visible"`
	}
	resp := do(t, http.MethodPost, ts.URL+"/charts/time_series/series/"+first.ID+"/toggle", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	decode(t, resp, &toggled)
	if toggled.Visible == first.Visible {
		t.Errorf("Expected visibility to flip from %v", first.Visible)
	}

	resp = do(t, http.MethodPost, ts.URL+"/charts/time_series/series/unknown/toggle", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown series, got %d", resp.StatusCode)
	}
}

func TestExpandToggles(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	var got struct {
		Expanded bool `json:"expanded"`
	}
	decode(t, do(t, http.MethodPost, ts.URL+"/charts/power_curve/expand", nil), &got)
	if !got.Expanded {
		t.Error("Expected the first toggle to expand")
	}
	decode(t, do(t, http.MethodPost, ts.URL+"/charts/power_curve/expand?expanded=true", nil), &got)
	if !got.Expanded {
		t.Error("Expected an explicit expand to stay expanded")
	}
	decode(t, do(t, http.MethodPost, ts.URL+"/charts/power_curve/expand", nil), &got)
	if got.Expanded {
		t.Error("Expected the second toggle to collapse")
	}
}

func TestChartRenderings(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))
	loadSample(t, ts)

	resp := do(t, http.MethodGet, ts.URL+"/charts/wind_rose/svg", nil)
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Expected image/svg+xml, got %s", ct)
	}
	if body := readBody(t, resp); !strings.HasPrefix(body, "<svg") {
		t.Error("Expected an SVG document")
	}

	body := readBody(t, do(t, http.MethodGet, ts.URL+"/charts/power_curve/html", nil))
	if !strings.Contains(body, "echarts.init") {
		t.Error("Expected an ECharts snippet")
	}

	var frame struct {
		ChartID     string `json:"chart_id"`
		Placeholder string `json:"placeholder"`
	}
	decode(t, do(t, http.MethodGet, ts.URL+"/charts/monthly_stats", nil), &frame)
	if frame.ChartID != "monthly_stats" || frame.Placeholder != "" {
		t.Errorf("Expected the monthly stats frame, got %s", frame.ChartID)
	}

	var hover struct {
		Hit bool `json:"hit"`
	}
	decode(t, do(t, http.MethodGet, ts.URL+"/charts/time_series/hover?x=-10&y=-10", nil), &hover)
	if hover.Hit {
		t.Error("Expected no hover hit outside the plot")
	}
	resp = do(t, http.MethodGet, ts.URL+"/charts/time_series/hover?x=abc", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed coordinate, got %d", resp.StatusCode)
	}
}

func TestExportCSVPersists(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	resp := do(t, http.MethodGet, ts.URL+"/charts/time_series/export.csv", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 exporting an empty chart, got %d", resp.StatusCode)
	}

	loadSample(t, ts)
	resp = do(t, http.MethodGet, ts.URL+"/charts/time_series/export.csv?persist=true", nil)
	csv := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	expectedPath := storage.ExportPath(time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC), "time_series", "csv")
	location := resp.Header.Get("Location")
	if location != "/files/"+expectedPath {
		t.Errorf("Expected location /files/%s, got %s", expectedPath, location)
	}

	resp = do(t, http.MethodGet, ts.URL+location, nil)
	stored := readBody(t, resp)
	if stored != csv {
		t.Error("Expected the stored export to match the response")
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected text/csv, got %s", ct)
	}

	resp = do(t, http.MethodGet, ts.URL+"/files/2025/missing.csv", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for a missing file, got %d", resp.StatusCode)
	}
}

func TestGenerateAndListReports(t *testing.T) {
	s, ts := newTestServer(t, testConfig(t))
	loadSample(t, ts)

	var generated struct {
		Status string   `json:"status"`
		Folder string   `json:"folder"`
		URL    string   `json:"url"`
		Files  []string `json:"files"`
	}
	resp := do(t, http.MethodPost, ts.URL+"/reports", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	decode(t, resp, &generated)
	if generated.Folder != "2025/03/09/dashboard-2025-03-09-14-05-07" {
		t.Errorf("Expected a dated folder, got %s", generated.Folder)
	}

	page := readBody(t, do(t, http.MethodGet, ts.URL+generated.URL, nil))
	if !strings.Contains(page, "<svg") {
		t.Error("Expected the stored report page")
	}

	var listed struct {
		Reports []string `json:"reports"`
		Count   int      `json:"count"`
	}
	decode(t, do(t, http.MethodGet, ts.URL+"/reports?limit=5", nil), &listed)
	if listed.Count != 1 || listed.Reports[0] != generated.Folder {
		t.Errorf("Expected the generated report listed, got %+v", listed)
	}

	s.generateMutex.Lock()
	resp = do(t, http.MethodPost, ts.URL+"/reports", nil)
	resp.Body.Close()
	s.generateMutex.Unlock()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 while a report is in progress, got %d", resp.StatusCode)
	}
}

// lockCheckingWriter records whether the dashboard lock was held while the body was written
type lockCheckingWriter struct {
	*httptest.ResponseRecorder
	s          *Server
	heldOnSend bool
}

func (w *lockCheckingWriter) Write(b []byte) (int, error) {
	if w.s.mu.TryLock() {
		w.s.mu.Unlock()
	} else {
		w.heldOnSend = true
	}
	return w.ResponseRecorder.Write(b)
}

func TestChartRepliesWrittenAfterUnlock(t *testing.T) {
	s, ts := newTestServer(t, testConfig(t))
	loadSample(t, ts)

	pointer, _ := json.Marshal(PointerRequest{Type: "down", X: 300, Y: 150})
	tests := []struct {
		name    string
		method  string
		url     string
		body    []byte
		handler http.HandlerFunc
	}{
		{"frame", http.MethodGet, "/charts/time_series", nil, s.HandleChartFrame},
		{"svg", http.MethodGet, "/charts/time_series/svg", nil, s.HandleChartSVG},
		{"html", http.MethodGet, "/charts/time_series/html", nil, s.HandleChartHTML},
		{"hover", http.MethodGet, "/charts/time_series/hover?x=300&y=150", nil, s.HandleHover},
		{"pointer", http.MethodPost, "/charts/time_series/pointer", pointer, s.HandlePointer},
		{"reset", http.MethodPost, "/charts/time_series/reset", nil, s.HandleReset},
		{"expand", http.MethodPost, "/charts/time_series/expand", nil, s.HandleExpand},
		{"export", http.MethodGet, "/charts/time_series/export.csv", nil, s.HandleExportCSV},
		{"unknown chart", http.MethodGet, "/charts/nope/svg", nil, s.HandleChartSVG},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, bytes.NewReader(tt.body))
			id := strings.Split(strings.TrimPrefix(tt.url, "/charts/"), "/")[0]
			req.SetPathValue("id", id)
			w := &lockCheckingWriter{ResponseRecorder: httptest.NewRecorder(), s: s}

			tt.handler(w, req)
			if w.Body.Len() == 0 {
				t.Fatalf("Expected a response body, got status %d", w.Code)
			}
			if w.heldOnSend {
				t.Errorf("Expected the dashboard lock to be released before writing %s", tt.name)
			}
		})
	}
}
