package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"windscope/internal/chartview"
	"windscope/internal/models"
	"windscope/internal/reports"
	"windscope/internal/storage"
	"windscope/internal/zoom"
)

// maxDatasetBytes bounds an uploaded analysis result
const maxDatasetBytes = 64 << 20

// PointerRequest is one pointer event in chart pixel coordinates
type PointerRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PointerResponse reports the zoom transition and the frame to redraw
type PointerResponse struct {
	Transition zoom.Transition `json:"transition"`
	Changed    bool            `json:"changed"`
	Frame      chartview.Frame `json:"frame"`
}

// ChartSummary describes a chart in the chart listing
type ChartSummary struct {
	ID       string                       `json:"id"`
	Title    string                       `json:"title"`
	Kind     chartview.Kind               `json:"kind"`
	Empty    bool                         `json:"empty"`
	Expanded bool                         `json:"expanded"`
	Zoom     zoom.Snapshot                `json:"zoom"`
	Series   []chartview.SeriesDescriptor `json:"series"`
}

// HandleRoot serves the live dashboard page
func (s *Server) HandleRoot(w http.ResponseWriter, r *http.Request) {
	interactive, _ := queryBool(r, "interactive")

	s.mu.Lock()
	page, err := s.Reports.Builder().BuildDashboard(s.Dashboard.Result(), s.Dashboard.Views(), reports.PageOptions{
		DatasetVersion: s.Dashboard.Version(),
		Interactive:    interactive,
		CSVPath:        func(id string) string { return "/charts/" + id + "/export.csv" },
	})
	s.mu.Unlock()
	if err != nil {
		s.log.Error("Failed to build dashboard", err, nil)
		http.Error(w, "Failed to build dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, page)
}

// HandleHealth provides health check endpoint
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	dataset := "empty"
	if s.Dashboard.Result().HasData() {
		dataset = "loaded"
	}
	version := s.Dashboard.Version()
	s.mu.Unlock()

	storageCheck := "ok"
	if s.Storage == nil {
		storageCheck = "disabled"
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]string{
			"storage": storageCheck,
			"config":  "ok",
			"dataset": dataset,
		},
		"dataset_version": version,
	}
	writeJSON(w, http.StatusOK, health)
}

// HandleLoadDataset replaces the dataset with the analysis result in the request body
func (s *Server) HandleLoadDataset(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDatasetBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	result, err := models.DecodeAnalysisResult(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	err = s.Dashboard.SetResult(result)
	version := s.Dashboard.Version()
	s.mu.Unlock()
	if err != nil {
		s.log.Error("Failed to apply dataset", err, nil)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.log.Info("Dataset replaced", map[string]interface{}{"version": version, "bytes": len(body)})
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "loaded", "version": version})
}

// HandleLoadSample runs the sample analysis and loads its result
func (s *Server) HandleLoadSample(w http.ResponseWriter, r *http.Request) {
	rated, err := queryFloat(r, "rated_power_kw", s.Config.RatedPowerKW)
	if err != nil || rated <= 0 {
		writeError(w, http.StatusBadRequest, "rated_power_kw must be a positive number")
		return
	}

	src := s.sampleSource(rated)
	if err := s.LoadSource(r.Context(), src); err != nil {
		s.log.Error("Sample analysis failed", err, map[string]interface{}{"source": src.Name()})
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.mu.Lock()
	version := s.Dashboard.Version()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "loaded",
		"source":         src.Name(),
		"rated_power_kw": rated,
		"version":        version,
	})
}

// HandleListCharts lists every chart with its zoom and series state
func (s *Server) HandleListCharts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	views := s.Dashboard.Views()
	list := make([]ChartSummary, 0, len(views))
	for _, v := range views {
		list = append(list, ChartSummary{
			ID:       v.ID(),
			Title:    v.Title(),
			Kind:     v.Kind(),
			Empty:    v.Frame().Empty(),
			Expanded: v.Expanded(),
			Zoom:     v.Zoom(),
			Series:   v.Series(),
		})
	}
	version := s.Dashboard.Version()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"charts":  list,
		"count":   len(list),
		"version": version,
	})
}

// withView runs fn on the chart named in the path while holding the dashboard lock. The reply
// fn builds is written only after the lock is released.
func (s *Server) withView(w http.ResponseWriter, r *http.Request, fn func(v chartview.View) reply) {
	s.mu.Lock()
	v, err := s.Dashboard.View(r.PathValue("id"))
	if err != nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	resp := fn(v)
	s.mu.Unlock()
	resp.write(w)
}

// HandleChartFrame returns the render model of a chart
func (s *Server) HandleChartFrame(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(v chartview.View) reply {
		return jsonReply(http.StatusOK, v.Frame())
	})
}

// HandleChartSVG renders a chart as SVG
func (s *Server) HandleChartSVG(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(v chartview.View) reply {
		svg, err := s.Charts.RenderSVG(v.Frame())
		if err != nil {
			s.log.Error("Failed to render chart", err, map[string]interface{}{"chart": v.ID()})
			return errorReply(http.StatusInternalServerError, "failed to render chart")
		}
		return reply{status: http.StatusOK, contentType: storage.GetContentType(".svg"), body: svg}
	})
}

// HandleChartHTML renders a chart as an embeddable ECharts snippet
func (s *Server) HandleChartHTML(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(v chartview.View) reply {
		snippet, err := s.Charts.RenderSnippet(v.Frame())
		if err != nil {
			s.log.Error("Failed to render chart snippet", err, map[string]interface{}{"chart": v.ID()})
			return errorReply(http.StatusInternalServerError, "failed to render chart")
		}
		return reply{status: http.StatusOK, contentType: storage.GetContentType(".html"), body: []byte(snippet.HTML)}
	})
}

// HandleHover reports the datum nearest to a pixel position
func (s *Server) HandleHover(w http.ResponseWriter, r *http.Request) {
	x, errX := queryFloat(r, "x", 0)
	y, errY := queryFloat(r, "y", 0)
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "x and y must be numbers")
		return
	}
	s.withView(w, r, func(v chartview.View) reply {
		info, ok := v.Hover(x, y)
		if !ok {
			return jsonReply(http.StatusOK, map[string]interface{}{"hit": false})
		}
		return jsonReply(http.StatusOK, map[string]interface{}{"hit": true, "hover": info})
	})
}

// HandlePointer feeds one pointer event to the chart's zoom controller
func (s *Server) HandlePointer(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid pointer event: "+err.Error())
		return
	}

	s.withView(w, r, func(v chartview.View) reply {
		var t zoom.Transition
		switch strings.ToLower(req.Type) {
		case "down":
			t = v.PointerDown(req.X, req.Y)
		case "move":
			t = v.PointerMove(req.X, req.Y)
		case "up":
			t = v.PointerUp(req.X, req.Y)
		case "cancel":
			t = v.Cancel()
		case "dblclick":
			t = v.DoubleClick()
		default:
			return errorReply(http.StatusBadRequest, fmt.Sprintf("unknown pointer event type %q", req.Type))
		}
		if t.Changed() {
			s.log.Debug("Zoom transition", map[string]interface{}{
				"chart": v.ID(),
				"event": string(t.Event),
				"from":  t.From.String(),
				"to":    t.To.String(),
			})
		}
		return jsonReply(http.StatusOK, PointerResponse{Transition: t, Changed: t.Changed(), Frame: v.Frame()})
	})
}

// HandleToggleSeries flips the visibility of one series
func (s *Server) HandleToggleSeries(w http.ResponseWriter, r *http.Request) {
	seriesID := r.PathValue("series")
	s.withView(w, r, func(v chartview.View) reply {
		visible, err := v.ToggleSeries(seriesID)
		switch {
		case errors.Is(err, chartview.ErrUnknownSeries):
			return errorReply(http.StatusNotFound, err.Error())
		case errors.Is(err, chartview.ErrSeriesUnavailable):
			return errorReply(http.StatusConflict, err.Error())
		case err != nil:
			return errorReply(http.StatusInternalServerError, err.Error())
		}
		return jsonReply(http.StatusOK, map[string]interface{}{
			"chart":   v.ID(),
			"series":  seriesID,
			"visible": visible,
		})
	})
}

// HandleReset drops the committed zoom of a chart
func (s *Server) HandleReset(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, func(v chartview.View) reply {
		t := v.Reset()
		return jsonReply(http.StatusOK, PointerResponse{Transition: t, Changed: t.Changed(), Frame: v.Frame()})
	})
}

// HandleExpand switches a chart between normal and expanded size. Without ?expanded= it toggles.
func (s *Server) HandleExpand(w http.ResponseWriter, r *http.Request) {
	expanded, explicit := queryBool(r, "expanded")
	s.withView(w, r, func(v chartview.View) reply {
		if !explicit {
			expanded = !v.Expanded()
		}
		v.SetExpanded(expanded)
		return jsonReply(http.StatusOK, map[string]interface{}{
			"chart":    v.ID(),
			"expanded": v.Expanded(),
			"frame":    v.Frame(),
		})
	})
}

// HandleExportCSV exports the visible data of a chart, optionally persisting it
func (s *Server) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	persist, _ := queryBool(r, "persist")

	var (
		id    string
		csv   string
		empty bool
	)
	s.mu.Lock()
	v, err := s.Dashboard.View(r.PathValue("id"))
	if err == nil {
		id = v.ID()
		if empty = v.Frame().Empty(); !empty {
			csv, err = v.ExportVisible()
		}
	}
	s.mu.Unlock()
	switch {
	case errors.Is(err, chartview.ErrUnknownChart):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	case empty:
		writeError(w, http.StatusConflict, "chart has no data to export")
		return
	}

	if persist {
		if s.Storage == nil {
			writeError(w, http.StatusServiceUnavailable, "export storage is not configured")
			return
		}
		p := storage.ExportPath(s.now(), id, "csv")
		if err := s.Storage.StoreFile(r.Context(), p, []byte(csv)); err != nil {
			s.log.Error("Failed to persist export", err, map[string]interface{}{"chart": id, "path": p})
			writeError(w, http.StatusInternalServerError, "failed to persist export")
			return
		}
		s.log.Info("Export persisted", map[string]interface{}{"chart": id, "path": p})
		w.Header().Set("Location", "/files/"+p)
	}

	w.Header().Set("Content-Type", storage.GetContentType(".csv"))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, id))
	io.WriteString(w, csv)
}

// HandleGenerate stores a snapshot report of the current dashboard
func (s *Server) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.Storage == nil {
		writeError(w, http.StatusServiceUnavailable, "export storage is not configured")
		return
	}

	// Try to acquire the mutex - if already locked, return error immediately
	if !s.generateMutex.TryLock() {
		s.log.Warn("Report generation already in progress, rejecting new request", nil)
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "Report generation already in progress",
			"message": "Another report generation is currently running. Please wait for it to complete before starting a new one.",
			"status":  "conflict",
		})
		return
	}
	defer s.generateMutex.Unlock()

	ctx := r.Context()
	s.mu.Lock()
	files, err := s.Reports.GenerateReport(ctx, s.Dashboard, s.now())
	s.mu.Unlock()
	if err != nil {
		s.log.Error("Report generation failed", err, nil)
		writeError(w, http.StatusInternalServerError, "report generation failed: "+err.Error())
		return
	}

	stored, err := reports.NewStorageOrchestrator(s.Storage).StoreAllFiles(ctx, files)
	if err != nil {
		s.log.Error("Report storage failed", err, map[string]interface{}{"folder": files.FolderPath})
		writeError(w, http.StatusInternalServerError, "report storage failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "stored",
		"folder": files.FolderPath,
		"url":    "/files/" + files.FolderPath + "/" + reports.IndexFile,
		"files":  stored,
	})
}

// HandleListReports lists stored report snapshots, newest first
func (s *Server) HandleListReports(w http.ResponseWriter, r *http.Request) {
	if s.Storage == nil {
		writeError(w, http.StatusServiceUnavailable, "export storage is not configured")
		return
	}

	// Get limit from query parameter (default 10)
	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := fmt.Sscanf(limitStr, "%d", &limit); err != nil || parsedLimit != 1 || limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100 // Cap at 100
		}
	}

	names, err := s.Storage.ListDir(r.Context(), "", true)
	if err != nil {
		s.log.Error("Failed to list reports", err, nil)
		writeError(w, http.StatusInternalServerError, "failed to list reports: "+err.Error())
		return
	}
	var folders []string
	for _, name := range names {
		if strings.HasSuffix(name, "/"+reports.IndexFile) {
			folders = append(folders, strings.TrimSuffix(name, "/"+reports.IndexFile))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(folders)))
	if len(folders) > limit {
		folders = folders[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports":   folders,
		"count":     len(folders),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleFileProxy serves persisted exports and reports from storage
func (s *Server) HandleFileProxy(w http.ResponseWriter, r *http.Request) {
	if s.Storage == nil {
		writeError(w, http.StatusServiceUnavailable, "export storage is not configured")
		return
	}

	filePath, err := storage.CleanPath(r.PathValue("path"))
	if err != nil {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	fileData, err := s.Storage.GetFile(r.Context(), filePath)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("Failed to get file from storage", err, map[string]interface{}{"path": filePath})
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", storage.GetContentType(filePath))
	w.Write(fileData)
}
