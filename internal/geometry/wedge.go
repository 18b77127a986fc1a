package geometry

import (
	"math"
	"strconv"
	"strings"
)

// WedgePath describes an annular sector outline. It is built fresh for every render because the radii
// depend on the current normalization.
type WedgePath struct {
	Center   Point
	Inner    float64
	Outer    float64
	StartDeg float64
	EndDeg   float64

	segments []segment
}

type segment struct {
	op       byte // 'M', 'L', 'A' or 'Z'
	to       Point
	radius   float64
	largeArc bool
	sweep    bool
}

// Wedge builds the closed outline of the annular sector between inner and outer radius, from startDeg
// clockwise to endDeg. Angles follow the compass convention of PolarToCartesian.
func Wedge(center Point, inner, outer, startDeg, endDeg float64) WedgePath {
	if inner < 0 {
		inner = 0
	}
	if outer < 0 {
		outer = 0
	}
	if inner > outer {
		inner, outer = outer, inner
	}
	if endDeg < startDeg {
		startDeg, endDeg = endDeg, startDeg
	}
	w := WedgePath{Center: center, Inner: inner, Outer: outer, StartDeg: startDeg, EndDeg: endDeg}

	if w.Sweep() >= 360 {
		w.segments = ringSegments(center, inner, outer, startDeg)
		return w
	}

	large := w.Sweep() > 180
	p1 := PolarToCartesian(center, outer, startDeg)
	p2 := PolarToCartesian(center, outer, endDeg)
	w.segments = append(w.segments,
		segment{op: 'M', to: p1},
		segment{op: 'A', to: p2, radius: outer, largeArc: large, sweep: true},
	)
	if inner == 0 {
		w.segments = append(w.segments, segment{op: 'L', to: center})
	} else {
		p3 := PolarToCartesian(center, inner, endDeg)
		p4 := PolarToCartesian(center, inner, startDeg)
		w.segments = append(w.segments,
			segment{op: 'L', to: p3},
			segment{op: 'A', to: p4, radius: inner, largeArc: large, sweep: false},
		)
	}
	w.segments = append(w.segments, segment{op: 'Z'})
	return w
}

// ringSegments handles full-circle sweeps, which a single SVG arc cannot express because its
// endpoints coincide. Each circle is split into two half arcs; the inner circle winds the other way.
func ringSegments(center Point, inner, outer, startDeg float64) []segment {
	o1 := PolarToCartesian(center, outer, startDeg)
	o2 := PolarToCartesian(center, outer, startDeg+180)
	segs := []segment{
		{op: 'M', to: o1},
		{op: 'A', to: o2, radius: outer, sweep: true},
		{op: 'A', to: o1, radius: outer, sweep: true},
		{op: 'Z'},
	}
	if inner > 0 {
		i1 := PolarToCartesian(center, inner, startDeg)
		i2 := PolarToCartesian(center, inner, startDeg+180)
		segs = append(segs,
			segment{op: 'M', to: i1},
			segment{op: 'A', to: i2, radius: inner, sweep: false},
			segment{op: 'A', to: i1, radius: inner, sweep: false},
			segment{op: 'Z'},
		)
	}
	return segs
}

// Sweep returns the angular extent in degrees
func (w WedgePath) Sweep() float64 {
	return w.EndDeg - w.StartDeg
}

// LargeArc reports whether the SVG large-arc flag is set on the arcs of this wedge
func (w WedgePath) LargeArc() bool {
	return w.Sweep() > 180 && w.Sweep() < 360
}

// Degenerate reports whether the wedge encloses no area. Renderers skip degenerate wedges.
func (w WedgePath) Degenerate() bool {
	return w.Inner == w.Outer || w.Sweep() == 0
}

// Area returns the enclosed area in square pixels
func (w WedgePath) Area() float64 {
	sweep := math.Min(w.Sweep(), 360) * math.Pi / 180
	return 0.5 * sweep * (w.Outer*w.Outer - w.Inner*w.Inner)
}

// String renders the outline as an SVG path "d" attribute.
func (w WedgePath) String() string {
	var b strings.Builder
	for i, s := range w.segments {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch s.op {
		case 'M', 'L':
			b.WriteByte(s.op)
			b.WriteByte(' ')
			b.WriteString(coord(s.to.X))
			b.WriteByte(' ')
			b.WriteString(coord(s.to.Y))
		case 'A':
			r := coord(s.radius)
			b.WriteString("A ")
			b.WriteString(r)
			b.WriteByte(' ')
			b.WriteString(r)
			b.WriteString(" 0 ")
			b.WriteString(flag(s.largeArc))
			b.WriteByte(' ')
			b.WriteString(flag(s.sweep))
			b.WriteByte(' ')
			b.WriteString(coord(s.to.X))
			b.WriteByte(' ')
			b.WriteString(coord(s.to.Y))
		case 'Z':
			b.WriteByte('Z')
		}
	}
	return b.String()
}

// Polygon samples the outline with steps points per arc, for surfaces without arc commands.
// The outer arc runs clockwise from StartDeg and the inner arc returns counter-clockwise.
func (w WedgePath) Polygon(steps int) []Point {
	if steps < 1 {
		steps = 1
	}
	sweep := math.Min(w.Sweep(), 360)
	pts := make([]Point, 0, 2*(steps+1))
	for i := 0; i <= steps; i++ {
		a := w.StartDeg + sweep*float64(i)/float64(steps)
		pts = append(pts, PolarToCartesian(w.Center, w.Outer, a))
	}
	if w.Inner == 0 {
		return append(pts, w.Center)
	}
	for i := steps; i >= 0; i-- {
		a := w.StartDeg + sweep*float64(i)/float64(steps)
		pts = append(pts, PolarToCartesian(w.Center, w.Inner, a))
	}
	return pts
}

func coord(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
