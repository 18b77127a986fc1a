package storage

import (
	"errors"
	"testing"
	"time"
)

func TestExportPath(t *testing.T) {
	tests := []struct {
		name     string
		ts       time.Time
		chart    string
		ext      string
		expected string
	}{
		{
			name:     "csv export",
			ts:       time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			chart:    "time_series",
			ext:      "csv",
			expected: "2024/03/15/time_series-2024-03-15-10-30-00.csv",
		},
		{
			name:     "dotted extension",
			ts:       time.Date(2024, 12, 1, 0, 0, 5, 0, time.UTC),
			chart:    "wind_rose",
			ext:      ".svg",
			expected: "2024/12/01/wind_rose-2024-12-01-00-00-05.svg",
		},
		{
			name:     "converted to utc",
			ts:       time.Date(2024, 1, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)),
			chart:    "power_curve",
			ext:      "html",
			expected: "2024/01/01/power_curve-2024-01-01-00-00-00.html",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExportPath(tt.ts, tt.chart, tt.ext); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in       string
		expected string
		invalid  bool
	}{
		{"a/b.csv", "a/b.csv", false},
		{"a//b/./c.csv", "a/b/c.csv", false},
		{`a\b.csv`, "a/b.csv", false},
		{"a/../b.csv", "b.csv", false},
		{"../b.csv", "", true},
		{"/abs.csv", "", true},
		{"", "", true},
		{"a/../..", "", true},
	}
	for _, tt := range tests {
		got, err := CleanPath(tt.in)
		if tt.invalid {
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Expected ErrInvalidPath for %q, got %q (%v)", tt.in, got, err)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("Expected %q for %q, got %q (%v)", tt.expected, tt.in, got, err)
		}
	}
}

func TestGetContentType(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"export.csv", "text/csv; charset=utf-8"},
		{"wind_rose.svg", "image/svg+xml"},
		{"dashboard.html", "text/html; charset=utf-8"},
		{"result.json", "application/json"},
		{"2024/03/15/chart.PNG", "image/png"},
		{"notes.md", "text/markdown"},
		{"archive.tar.gz", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := GetContentType(tt.filename); got != tt.expected {
			t.Errorf("Expected %s for %s, got %s", tt.expected, tt.filename, got)
		}
	}
}
