package geometry

import (
	"math"
	"strconv"
)

// Domain is the value-space extent of an axis.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Range is the pixel-space extent of an axis. Min may exceed Max for inverted axes (SVG y grows downward).
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns the signed width of the domain
func (d Domain) Span() float64 {
	return d.Max - d.Min
}

// Degenerate reports whether the domain collapses to a single value
func (d Domain) Degenerate() bool {
	return d.Min == d.Max
}

// Contains reports whether v lies inside the domain, bounds included
func (d Domain) Contains(v float64) bool {
	lo, hi := d.ordered()
	return v >= lo && v <= hi
}

// Clamp limits v to the domain
func (d Domain) Clamp(v float64) float64 {
	lo, hi := d.ordered()
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (d Domain) ordered() (float64, float64) {
	if d.Min > d.Max {
		return d.Max, d.Min
	}
	return d.Min, d.Max
}

// Mid returns the center of the pixel range
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// ToPixel maps v linearly from the domain onto the range.
// Values outside the domain are clamped; a degenerate domain maps to the range midpoint.
func ToPixel(v float64, d Domain, r Range) float64 {
	if d.Degenerate() {
		return r.Mid()
	}
	v = d.Clamp(v)
	t := (v - d.Min) / (d.Max - d.Min)
	return r.Min + t*(r.Max-r.Min)
}

// ToValue is the inverse of ToPixel. It does not clamp: callers that need the value inside
// the domain use Domain.Clamp.
func ToValue(px float64, d Domain, r Range) float64 {
	if d.Degenerate() {
		return d.Min
	}
	if r.Min == r.Max {
		return (d.Min + d.Max) / 2
	}
	t := (px - r.Min) / (r.Max - r.Min)
	return d.Min + t*(d.Max-d.Min)
}

// PaddedDomain builds an output domain [observedMin-padding, observedMax*headroom] with the lower bound
// floored and the upper bound ceiled to step. Non-negative data never gets a negative lower bound.
// A step <= 0 disables rounding.
func PaddedDomain(observedMin, observedMax, padding, headroom, step float64) Domain {
	if observedMin > observedMax {
		observedMin, observedMax = observedMax, observedMin
	}
	lo := observedMin - padding
	// headroom scales away from zero so negative maxima still grow upward
	hi := observedMax + math.Abs(observedMax)*(headroom-1)

	if observedMin >= 0 && lo < 0 {
		lo = 0
	}
	if step > 0 {
		lo = math.Floor(lo/step) * step
		hi = math.Ceil(hi/step) * step
	}
	if hi <= lo {
		if step > 0 {
			hi = lo + step
		} else {
			hi = lo + 1
		}
	}
	return Domain{Min: lo, Max: hi}
}

// NiceTicks generates up to n tick marks spanning [min,max] using a 1, 2, 2.5, 5 x 10^k step pattern.
func NiceTicks(min, max float64, n int) []float64 {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	candidates := []float64{1, 2, 2.5, 5, 10}
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range candidates {
		step := c * mag
		count := math.Floor(span/step) + 1
		diff := math.Abs(count - float64(n))
		if diff < bestScore {
			bestScore = diff
			bestStep = step
		}
	}
	start := math.Ceil(min/bestStep) * bestStep
	var out []float64
	for v := start; v <= max+bestStep*1e-9; v += bestStep {
		out = append(out, round6(v))
	}
	if len(out) < 2 {
		out = []float64{min, max}
	}
	return out
}

// FormatTick renders a compact axis label.
func FormatTick(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 100 || av == 0:
		return strconv.FormatInt(int64(math.Round(v)), 10)
	case av >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	case av >= 1:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case av >= 0.01:
		return strconv.FormatFloat(v, 'f', 3, 64)
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

func round6(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0
	}
	return r
}
