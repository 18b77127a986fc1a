package mocks

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"windscope/internal/chartview"
	"windscope/internal/models"
)

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func TestGenerateSCADAIsDeterministic(t *testing.T) {
	a := GenerateSCADA(DefaultSampleOptions())
	b := GenerateSCADA(DefaultSampleOptions())
	if len(a) != 720 || len(b) != 720 {
		t.Fatalf("Expected 720 rows, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Timestamp.Equal(b[i].Timestamp) || !sameFloat(a[i].WindSpeed, b[i].WindSpeed) ||
			!sameFloat(a[i].Power, b[i].Power) || a[i].Status != b[i].Status {
			t.Fatalf("Expected identical rows at %d, got %+v and %+v", i, a[i], b[i])
		}
	}

	opts := DefaultSampleOptions()
	opts.Seed = 7
	c := GenerateSCADA(opts)
	differs := false
	for i := range a {
		if !sameFloat(a[i].WindSpeed, c[i].WindSpeed) {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("Expected a different seed to change the wind series")
	}
}

func TestGenerateSCADARanges(t *testing.T) {
	records := GenerateSCADA(DefaultSampleOptions())
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	missingWS, missingPW, stopped := 0, 0, 0
	for i, r := range records {
		if want := start.Add(time.Duration(i) * time.Hour); !r.Timestamp.Equal(want) {
			t.Fatalf("Expected timestamp %v at %d, got %v", want, i, r.Timestamp)
		}
		if math.IsNaN(r.WindSpeed) {
			missingWS++
		} else if r.WindSpeed < 0 || r.WindSpeed > 35 {
			t.Errorf("Wind speed out of range at %d: %v", i, r.WindSpeed)
		}
		if math.IsNaN(r.Power) {
			missingPW++
		} else if r.Power < 0 || r.Power > 2040 {
			t.Errorf("Power out of range at %d: %v", i, r.Power)
		}
		if r.WindDirection < 0 || r.WindDirection >= 360 {
			t.Errorf("Direction out of range at %d: %v", i, r.WindDirection)
		}
		if r.PitchAngle < -2 || r.PitchAngle > 90 {
			t.Errorf("Pitch out of range at %d: %v", i, r.PitchAngle)
		}
		if r.RelativeWindDir < -30 || r.RelativeWindDir > 30 {
			t.Errorf("Yaw error out of range at %d: %v", i, r.RelativeWindDir)
		}
		if r.Status == StatusStopped {
			stopped++
		}
	}
	if missingWS != 7 || missingPW != 7 {
		t.Errorf("Expected 7 missing wind speeds and 7 missing powers, got %d and %d", missingWS, missingPW)
	}
	if stopped == 0 {
		t.Error("Expected downtime events")
	}
}

func TestExpectedPower(t *testing.T) {
	tests := []struct {
		ws       float64
		expected float64
	}{
		{2, 0},
		{3, 0},
		{7.5, 250},
		{12, 2000},
		{20, 2000},
		{25, 2000},
		{26, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := ExpectedPower(tt.ws, 2000); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("Expected %v kW at %v m/s, got %v", tt.expected, tt.ws, got)
		}
	}
}

func TestGenerateSamplePowerCurve(t *testing.T) {
	result := GenerateSample(DefaultSampleOptions())
	pc := result.PowerCurve
	if pc.Empty() {
		t.Fatal("Expected power curve bins")
	}
	prev := -1.0
	for _, p := range pc.Points {
		x, _ := p.Value(models.FieldWindSpeedBin)
		if x <= prev {
			t.Errorf("Expected ascending bins, got %v after %v", x, prev)
		}
		prev = x
		if frac := math.Mod(x, 0.5); math.Abs(frac-0.25) > 1e-9 {
			t.Errorf("Expected bin centre at a quarter step, got %v", x)
		}
		count, _ := p.Value(models.FieldCount)
		mean, _ := p.Value(models.FieldMeanPower)
		lo, _ := p.Value(models.FieldCILower)
		hi, _ := p.Value(models.FieldCIUpper)
		minP, _ := p.Value(models.FieldMinPower)
		maxP, _ := p.Value(models.FieldMaxPower)
		if count < 3 {
			t.Errorf("Expected at least 3 samples in bin %v, got %v", x, count)
		}
		if lo > mean+0.01 || hi < mean-0.01 || minP > mean+0.01 || maxP < mean-0.01 {
			t.Errorf("Inconsistent statistics in bin %v: %+v", x, p.Fields)
		}
	}
}

func TestGenerateSampleWindRose(t *testing.T) {
	result := GenerateSample(DefaultSampleOptions())
	if len(result.WindRose) != 16 {
		t.Fatalf("Expected 16 sectors, got %d", len(result.WindRose))
	}
	totalFreq, totalCount := 0.0, 0
	for i, bin := range result.WindRose {
		if bin.AngleDegrees != float64(i)*22.5 {
			t.Errorf("Expected angle %v for %s, got %v", float64(i)*22.5, bin.Label, bin.AngleDegrees)
		}
		if len(bin.PerClass) != len(SpeedClasses) {
			t.Fatalf("Expected %d classes, got %d", len(SpeedClasses), len(bin.PerClass))
		}
		for j, c := range bin.PerClass {
			if c.Key != SpeedClasses[j].Label {
				t.Errorf("Expected class %s at %d, got %s", SpeedClasses[j].Label, j, c.Key)
			}
		}
		if !bin.Consistent(1e-6) {
			t.Errorf("Expected %s total %v to match its classes %v", bin.Label, bin.Total, bin.ClassSum())
		}
		totalFreq += bin.Total
		totalCount += bin.Count
	}
	if math.Abs(totalFreq-100) > 1 {
		t.Errorf("Expected frequencies to add up to 100, got %v", totalFreq)
	}
	if totalCount != 713 {
		t.Errorf("Expected 713 records with speed and direction, got %d", totalCount)
	}
}

func TestGenerateSampleMonthlyStats(t *testing.T) {
	opts := DefaultSampleOptions()
	opts.Rows = 1500
	ms := GenerateSample(opts).MonthlyStats

	expected := []struct {
		month string
		rows  float64
	}{
		{"2025-01", 744},
		{"2025-02", 672},
		{"2025-03", 84},
	}
	if ms.Len() != len(expected) {
		t.Fatalf("Expected %d months, got %d", len(expected), ms.Len())
	}
	for i, want := range expected {
		p := ms.Points[i]
		if p.Key != want.month {
			t.Errorf("Expected month %s, got %s", want.month, p.Key)
		}
		if n, _ := p.Value(models.FieldRecordCount); n != want.rows {
			t.Errorf("Expected %v records in %s, got %v", want.rows, want.month, n)
		}
		cf, ok := p.Value(models.FieldCapacityFactor)
		if !ok || cf < 0 || cf > 102 {
			t.Errorf("Expected a capacity factor percentage, got %v", cf)
		}
	}
}

func TestGenerateSampleSummaryAndLosses(t *testing.T) {
	result := GenerateSample(DefaultSampleOptions())
	if result.RatedPowerKW != 2000 || result.Method != "sample" {
		t.Errorf("Unexpected result header %s/%v", result.Method, result.RatedPowerKW)
	}
	if result.Summary["total_records"] != 720 {
		t.Errorf("Expected 720 records in summary, got %v", result.Summary["total_records"])
	}
	if result.DataQuality["missing_wind_speed_pct"] != 0.97 {
		t.Errorf("Expected 0.97%% missing wind speed, got %v", result.DataQuality["missing_wind_speed_pct"])
	}
	op := result.LossBreakdown["operational_energy_kwh"].(float64)
	th := result.LossBreakdown["theoretical_energy_kwh"].(float64)
	if op <= 0 || th <= 0 {
		t.Errorf("Expected positive energies, got %v and %v", op, th)
	}
	if result.LossBreakdown["missing_data_percent"] != 1.94 {
		t.Errorf("Expected 1.94%% missing data, got %v", result.LossBreakdown["missing_data_percent"])
	}
}

func TestGenerateSampleLoadsIntoDashboard(t *testing.T) {
	dash, err := chartview.NewDashboard(chartview.Options{})
	if err != nil {
		t.Fatalf("Failed to create dashboard: %v", err)
	}
	if err := dash.SetResult(GenerateSample(DefaultSampleOptions())); err != nil {
		t.Fatalf("Expected the sample to load, got %v", err)
	}
	for _, v := range dash.Views() {
		if f := v.Frame(); f.Empty() {
			t.Errorf("Expected %s to have data", v.ID())
		}
	}
}

func TestMockServiceGeneratesWithoutDirectory(t *testing.T) {
	svc := NewMockService("", SampleOptions{Rows: 48})
	result, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.TimeSeries.Len() != 48 {
		t.Errorf("Expected 48 time series points, got %d", result.TimeSeries.Len())
	}
	if svc.Name() != "mock" {
		t.Errorf("Expected name 'mock', got %s", svc.Name())
	}
}

func TestMockServiceReplaysSavedResult(t *testing.T) {
	dir := t.TempDir()
	svc := NewMockService(dir, SampleOptions{Rows: 72, Seed: 3})

	original := GenerateSample(SampleOptions{Rows: 24, Seed: 9})
	if err := svc.SaveResult(original); err != nil {
		t.Fatalf("Failed to save result: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "analysis.json")); err != nil {
		t.Fatalf("Expected saved file: %v", err)
	}

	loaded, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if loaded.TimeSeries.Len() != 24 {
		t.Errorf("Expected the saved 24 points, got %d", loaded.TimeSeries.Len())
	}
	if len(loaded.WindRose) != len(original.WindRose) {
		t.Errorf("Expected %d sectors, got %d", len(original.WindRose), len(loaded.WindRose))
	}
}

func TestMockServiceErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data", "analysis.json"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	svc := NewMockService(dir, DefaultSampleOptions())
	if _, err := svc.Load(context.Background()); err == nil {
		t.Error("Expected a decode error for a corrupt file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockService("", DefaultSampleOptions()).Load(ctx); err == nil {
		t.Error("Expected an error for a cancelled context")
	}
	if err := NewMockService("", DefaultSampleOptions()).SaveResult(&models.AnalysisResult{}); err == nil {
		t.Error("Expected SaveResult to fail without a directory")
	}
}
