package chartview

import (
	"errors"
	"math"
	"strings"
	"testing"

	"windscope/internal/geometry"
	"windscope/internal/models"
	"windscope/internal/series"
	"windscope/internal/zoom"
)

func bin(label string, angle float64, mags ...float64) models.PolarBin {
	keys := []string{"0-3", "3-6"}
	b := models.PolarBin{Label: label, AngleDegrees: angle}
	for i, m := range mags {
		b.PerClass = append(b.PerClass, models.ClassMagnitude{Key: keys[i], Magnitude: m})
		b.Total += m
	}
	return b
}

func compassBins() []models.PolarBin {
	return []models.PolarBin{
		bin("N", 0, 2, 3),
		bin("E", 90, 1, 0),
		bin("S", 180, 4, 6),
		bin("W", 270, 0, 0),
	}
}

func newRose(t *testing.T, bins []models.PolarBin) *PolarView {
	t.Helper()
	v, err := NewPolarView(WindRoseConfig(), Options{})
	if err != nil {
		t.Fatalf("Failed to create polar view: %v", err)
	}
	if _, err := v.SetBins(bins); err != nil {
		t.Fatalf("Failed to set bins: %v", err)
	}
	return v
}

func maxOuter(f Frame) float64 {
	m := 0.0
	for _, w := range f.Wedges {
		m = math.Max(m, w.Outer)
	}
	return m
}

func TestPolarWedges(t *testing.T) {
	v := newRose(t, compassBins())
	f := v.Frame()

	if f.Empty() {
		t.Fatal("Expected wedges, got placeholder")
	}
	if len(f.Wedges) != 5 {
		t.Errorf("Expected 5 wedges with zero slices skipped, got %d", len(f.Wedges))
	}
	if len(f.Sectors) != 4 {
		t.Errorf("Expected 4 sector labels, got %d", len(f.Sectors))
	}
	if f.Radius != 111 || f.Center != (geometry.Point{X: 480, Y: 175}) {
		t.Errorf("Unexpected disc: center %+v radius %v", f.Center, f.Radius)
	}
	if got := maxOuter(f); math.Abs(got-f.Radius) > 1e-9 {
		t.Errorf("Expected the largest stack to reach the radius %v, got %v", f.Radius, got)
	}
	for _, w := range f.Wedges {
		if w.BinLabel == "W" {
			t.Error("Expected no wedge for an all-zero bin")
		}
		if w.Inner >= w.Outer || w.D == "" {
			t.Errorf("Expected a drawable wedge, got %+v", w)
		}
	}
	if len(f.Rings) == 0 || f.Rings[len(f.Rings)-1].Radius > f.Radius {
		t.Errorf("Expected rings inside the disc, got %+v", f.Rings)
	}
}

func TestPolarToggleRescales(t *testing.T) {
	v := newRose(t, compassBins())
	if visible, err := v.ToggleSeries("3-6"); err != nil || visible {
		t.Fatalf("Expected class to be hidden, got %v, %v", visible, err)
	}
	f := v.Frame()
	if len(f.Wedges) != 3 {
		t.Errorf("Expected 3 wedges, got %d", len(f.Wedges))
	}
	if f.YAxis.Domain.Max != 4 {
		t.Errorf("Expected normalization by the new largest total 4, got %v", f.YAxis.Domain.Max)
	}
	if got := maxOuter(f); math.Abs(got-f.Radius) > 1e-9 {
		t.Errorf("Expected rescaled stack to reach the radius, got %v", got)
	}

	if _, err := v.ToggleSeries("9+"); !errors.Is(err, ErrUnknownSeries) {
		t.Errorf("Expected ErrUnknownSeries, got %v", err)
	}
}

func TestPolarAllClassesHidden(t *testing.T) {
	v := newRose(t, compassBins())
	v.ToggleSeries("0-3")
	v.ToggleSeries("3-6")
	f := v.Frame()
	if f.Empty() || len(f.Wedges) != 0 || len(f.Sectors) != 4 {
		t.Errorf("Expected an empty rose with labels, got %d wedges %d sectors", len(f.Wedges), len(f.Sectors))
	}
}

func TestPolarSingleBinLargeArc(t *testing.T) {
	v := newRose(t, []models.PolarBin{bin("N", 0, 1, 1)})
	f := v.Frame()
	if len(f.Wedges) != 2 {
		t.Fatalf("Expected 2 wedges, got %d", len(f.Wedges))
	}
	for _, w := range f.Wedges {
		if !w.Path.LargeArc() {
			t.Errorf("Expected a large arc for a single full sector, sweep %v", w.Path.Sweep())
		}
	}
}

func TestPolarClickSelectsAndNeverZooms(t *testing.T) {
	v := newRose(t, compassBins())
	south := geometry.PolarToCartesian(geometry.Point{X: 480, Y: 175}, 50, 180)
	north := geometry.PolarToCartesian(geometry.Point{X: 480, Y: 175}, 50, 0)

	v.PointerDown(north.X, north.Y)
	v.PointerMove(south.X, south.Y)
	tr := v.PointerUp(south.X, south.Y)
	if tr.Committed || v.Zoom().State != zoom.Idle {
		t.Errorf("Expected polar drag never to commit, got %+v", tr)
	}
	if label, ok := v.Selected(); !ok || label != "S" {
		t.Errorf("Expected S selected, got %q", label)
	}
	if v.Frame().Selected != "S" {
		t.Error("Expected frame to carry the selection")
	}

	v.PointerDown(north.X, north.Y)
	if tr := v.PointerUp(900, 175); tr.Event != zoom.EventCancel {
		t.Errorf("Expected release outside the disc to cancel, got %+v", tr)
	}
	if label, _ := v.Selected(); label != "S" {
		t.Errorf("Expected cancel to keep the selection, got %q", label)
	}
}

func TestPolarHover(t *testing.T) {
	v := newRose(t, compassBins())
	p := geometry.PolarToCartesian(geometry.Point{X: 480, Y: 175}, 80, 95)
	info, ok := v.Hover(p.X, p.Y)
	if !ok || info.Key != "E" {
		t.Fatalf("Expected hover on E, got %+v (%v)", info, ok)
	}
	if info.Values["0-3"] != 1 || info.Values["3-6"] != 0 {
		t.Errorf("Unexpected hover values %+v", info.Values)
	}
	if _, ok := v.Hover(480, 175-200); ok {
		t.Error("Expected no hover outside the disc")
	}
}

func TestPolarExport(t *testing.T) {
	v := newRose(t, compassBins())
	got, err := v.ExportVisible()
	if err != nil {
		t.Fatalf("Unexpected export error: %v", err)
	}
	want := "direction,angle,frequency,0-3,3-6\nN,0,5,2,3\nE,90,1,1,0\nS,180,10,4,6\nW,270,0,0,0\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	v.ToggleSeries("0-3")
	got, _ = v.ExportVisible()
	if !strings.HasPrefix(got, "direction,angle,frequency,3-6\nN,0,5,3\n") {
		t.Errorf("Expected hidden class to be left out, got %q", got)
	}
}

func TestPolarInvalidBinsRejected(t *testing.T) {
	v := newRose(t, compassBins())
	bad := compassBins()
	bad[2].PerClass = bad[2].PerClass[:1]

	if _, err := v.SetBins(bad); !errors.Is(err, series.ErrUnknownClass) {
		t.Errorf("Expected ErrUnknownClass, got %v", err)
	}
	if len(v.Bins()) != 4 || len(v.Frame().Wedges) != 5 {
		t.Error("Expected the previous bins to stay in place")
	}
}

func TestPolarVisibilitySurvivesNewBins(t *testing.T) {
	v := newRose(t, compassBins())
	v.ToggleSeries("3-6")
	if _, err := v.SetBins(compassBins()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, d := range v.Series() {
		if d.ID == "3-6" && d.Visible {
			t.Error("Expected hidden class to stay hidden")
		}
		if d.ID == "0-3" && !d.Visible {
			t.Error("Expected visible class to stay visible")
		}
	}
}

func TestPolarEmpty(t *testing.T) {
	v := newRose(t, nil)
	f := v.Frame()
	if !f.Empty() || f.Placeholder != NoDataMessage {
		t.Errorf("Expected placeholder, got %+v", f)
	}
	if tr := v.PointerDown(480, 175); !tr.Ignored {
		t.Error("Expected pointer to be ignored on an empty rose")
	}
	got, _ := v.ExportVisible()
	if got != "direction,angle,frequency\n" {
		t.Errorf("Expected header-only export, got %q", got)
	}
}
