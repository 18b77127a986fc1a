package geometry

import "math"

// Point is a position in pixel space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned pixel rectangle
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Center returns the rectangle midpoint
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Contains reports whether p lies inside the rectangle, edges included
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// XRange returns the horizontal pixel range, left to right
func (r Rect) XRange() Range { return Range{Min: r.Left, Max: r.Right} }

// YRange returns the vertical pixel range, bottom to top, so larger values map higher on screen
func (r Rect) YRange() Range { return Range{Min: r.Bottom, Max: r.Top} }

// NormalizeAngle folds degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// PolarToCartesian converts a compass-style polar coordinate (0 degrees up, clockwise) to pixel space.
func PolarToCartesian(center Point, radius, angleDeg float64) Point {
	if radius == 0 {
		return center
	}
	rad := angleDeg * math.Pi / 180
	return Point{
		X: center.X + radius*math.Sin(rad),
		Y: center.Y - radius*math.Cos(rad),
	}
}

// CartesianToPolar is the inverse of PolarToCartesian. The angle is normalized into [0, 360).
func CartesianToPolar(center Point, p Point) (radius, angleDeg float64) {
	dx := p.X - center.X
	dy := center.Y - p.Y
	radius = math.Hypot(dx, dy)
	if radius == 0 {
		return 0, 0
	}
	return radius, NormalizeAngle(math.Atan2(dx, dy) * 180 / math.Pi)
}
