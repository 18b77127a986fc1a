package zoom

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestDragCommitsOrderedRange(t *testing.T) {
	tests := []struct {
		name       string
		down, up   float64
		wantLower  float64
		wantUpper  float64
	}{
		{"left to right", 0, 2, 0, 2},
		{"right to left", 7, 3, 3, 7},
		{"negative values", -4.5, 1.25, -4.5, 1.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController()
			c.PointerDown(tt.down)
			tr := c.PointerUp(tt.up)

			if !tr.Committed || tr.To != Committed {
				t.Fatalf("Expected commit, got %+v", tr)
			}
			r, ok := c.Range()
			if !ok {
				t.Fatal("Expected a committed range")
			}
			if r.Lower != tt.wantLower || r.Upper != tt.wantUpper {
				t.Errorf("Expected [%v,%v], got [%v,%v]", tt.wantLower, tt.wantUpper, r.Lower, r.Upper)
			}
			if tr.Range == nil || *tr.Range != r {
				t.Errorf("Expected transition to carry the range, got %+v", tr.Range)
			}
		})
	}
}

func TestClickIsNotZoom(t *testing.T) {
	c := NewController()
	c.PointerDown(1)
	tr := c.PointerUp(1)

	if tr.Committed {
		t.Error("Expected click not to commit")
	}
	if c.State() != Idle {
		t.Errorf("Expected Idle after click, got %s", c.State())
	}
	if _, ok := c.Range(); ok {
		t.Error("Expected no range after click")
	}
}

func TestClickWithinTolerance(t *testing.T) {
	c := NewController(WithTolerance(0.5))
	c.PointerDown(10)
	c.PointerUp(10.4)
	if c.State() != Idle {
		t.Errorf("Expected release within tolerance to be a click, got %s", c.State())
	}

	c.PointerDown(10)
	c.PointerUp(10.6)
	if c.State() != Committed {
		t.Errorf("Expected release beyond tolerance to commit, got %s", c.State())
	}
}

func TestClickWhileZoomedKeepsSelection(t *testing.T) {
	c := NewController()
	c.PointerDown(2)
	c.PointerUp(8)

	c.PointerDown(5)
	c.PointerUp(5)
	r, ok := c.Range()
	if !ok || r != (Range{Lower: 2, Upper: 8}) {
		t.Errorf("Expected [2,8] to survive a click, got %+v (ok=%v)", r, ok)
	}
}

func TestFirstTouchWins(t *testing.T) {
	c := NewController()
	c.PointerDown(3)
	tr := c.PointerDown(9)
	if !tr.Ignored {
		t.Error("Expected second pointer down to be ignored")
	}
	c.PointerUp(6)
	r, _ := c.Range()
	if r.Lower != 3 || r.Upper != 6 {
		t.Errorf("Expected anchor 3 to be kept, got %+v", r)
	}
}

func TestMoveUpdatesMarqueeEveryTime(t *testing.T) {
	c := NewController()
	c.PointerDown(5)
	for _, pos := range []float64{6, 6, 2, 9} {
		tr := c.PointerMove(pos)
		if tr.Ignored || tr.Marquee == nil {
			t.Fatalf("Expected marquee update at %v, got %+v", pos, tr)
		}
		if tr.Marquee.Anchor != 5 || tr.Marquee.Current != pos {
			t.Errorf("Expected marquee 5..%v, got %+v", pos, tr.Marquee)
		}
		if tr.To != Dragging || tr.Changed() {
			t.Errorf("Expected to stay Dragging, got %+v", tr)
		}
	}
	m, _ := c.Marquee()
	if m.Lower() != 5 || m.Upper() != 9 {
		t.Errorf("Expected marquee bounds 5..9, got %v..%v", m.Lower(), m.Upper())
	}
}

func TestMoveAndUpOutsideDragIgnored(t *testing.T) {
	c := NewController()
	if tr := c.PointerMove(3); !tr.Ignored || tr.To != Idle {
		t.Errorf("Expected move in Idle to be ignored, got %+v", tr)
	}
	if tr := c.PointerUp(3); !tr.Ignored || tr.To != Idle {
		t.Errorf("Expected up in Idle to be ignored, got %+v", tr)
	}
	if tr := c.Cancel(); !tr.Ignored {
		t.Errorf("Expected cancel in Idle to be ignored, got %+v", tr)
	}
}

func TestCancelDoesNotCommit(t *testing.T) {
	c := NewController()
	c.PointerDown(1)
	c.PointerMove(4)
	tr := c.Cancel()
	if tr.Committed || c.State() != Idle {
		t.Errorf("Expected cancel to resolve to Idle, got %+v", tr)
	}

	c.PointerDown(0)
	c.PointerUp(10)
	c.PointerDown(2)
	c.PointerMove(3)
	c.Cancel()
	r, ok := c.Range()
	if !ok || r != (Range{Lower: 0, Upper: 10}) {
		t.Errorf("Expected previous selection after cancel, got %+v (ok=%v)", r, ok)
	}
}

func TestRezoomIsAbsolute(t *testing.T) {
	c := NewController()
	c.PointerDown(100)
	c.PointerUp(500)

	tr := c.PointerDown(200)
	if tr.From != Committed || tr.To != Dragging {
		t.Errorf("Expected Committed -> Dragging, got %s -> %s", tr.From, tr.To)
	}
	c.PointerUp(300)
	r, _ := c.Range()
	if r.Lower != 200 || r.Upper != 300 {
		t.Errorf("Expected absolute range [200,300], got %+v", r)
	}
}

func TestResetAndDoubleClick(t *testing.T) {
	for _, reset := range []func(*Controller) Transition{(*Controller).Reset, (*Controller).DoubleClick} {
		c := NewController()
		c.PointerDown(1)
		c.PointerUp(2)
		tr := reset(c)
		if tr.From != Committed || tr.To != Idle {
			t.Errorf("Expected Committed -> Idle, got %s -> %s", tr.From, tr.To)
		}
		if _, ok := c.Range(); ok {
			t.Error("Expected range to be cleared")
		}
	}
}

func TestDatasetReplacedFromAnyState(t *testing.T) {
	setups := map[string]func(*Controller){
		"idle":      func(c *Controller) {},
		"dragging":  func(c *Controller) { c.PointerDown(1); c.PointerMove(4) },
		"committed": func(c *Controller) { c.PointerDown(1); c.PointerUp(4) },
		"rezooming": func(c *Controller) { c.PointerDown(1); c.PointerUp(4); c.PointerDown(2) },
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			c := NewController()
			setup(c)
			tr := c.DatasetReplaced()
			if tr.To != Idle || tr.Committed {
				t.Errorf("Expected Idle, got %+v", tr)
			}
			c.PointerUp(9)
			if c.State() != Idle {
				t.Errorf("Expected a release after replacement to be ignored, got %s", c.State())
			}
		})
	}
}

func TestInvalidPositionsIgnored(t *testing.T) {
	c := NewController()
	if tr := c.PointerDown(math.NaN()); !tr.Ignored || c.State() != Idle {
		t.Errorf("Expected NaN pointer down to be ignored, got %+v", tr)
	}
	c.PointerDown(1)
	if tr := c.PointerUp(math.Inf(1)); !tr.Ignored || c.State() != Dragging {
		t.Errorf("Expected infinite release to be ignored, got %+v", tr)
	}
}

func TestSnapshotJSON(t *testing.T) {
	c := NewController()
	c.PointerDown(0)
	c.PointerUp(2)

	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"state":"committed"`) || !strings.Contains(s, `"lower":0`) || !strings.Contains(s, `"upper":2`) {
		t.Errorf("Unexpected snapshot JSON: %s", s)
	}
	if strings.Contains(s, "marquee") {
		t.Errorf("Expected no marquee outside a drag: %s", s)
	}
}

func TestViewportDuringRezoom(t *testing.T) {
	c := NewController()
	if _, ok := c.Viewport(); ok {
		t.Error("Expected no viewport while idle")
	}
	c.PointerDown(2)
	if _, ok := c.Viewport(); ok {
		t.Error("Expected no viewport while dragging from idle")
	}
	c.PointerUp(8)

	c.PointerDown(3)
	r, ok := c.Viewport()
	if !ok || r.Lower != 2 || r.Upper != 8 {
		t.Errorf("Expected the committed viewport [2,8] during a drag, got %+v (%v)", r, ok)
	}
	if _, ok := c.Range(); ok {
		t.Error("Expected no committed range while dragging")
	}
	c.PointerUp(5)
	if r, _ := c.Viewport(); r.Lower != 3 || r.Upper != 5 {
		t.Errorf("Expected viewport [3,5], got %+v", r)
	}
}
