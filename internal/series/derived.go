package series

import (
	"errors"
	"fmt"
	"math"

	"windscope/internal/models"
)

// DefaultWindow is the trailing window used for moving averages when none is configured
const DefaultWindow = 12

var (
	ErrInvalidWindow  = errors.New("window size must be a positive integer")
	ErrUnknownClass   = errors.New("unknown class key")
	ErrDuplicateClass = errors.New("duplicate class key")
)

// Optional is a value that may be absent
type Optional struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Band is the upper and lower bound around a line at one point
type Band struct {
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
	Valid bool    `json:"valid"`
}

// Segment is one class slice of a stacked polar bin
type Segment struct {
	ClassKey string  `json:"class"`
	Inner    float64 `json:"inner"`
	Outer    float64 `json:"outer"`
}

// Magnitude returns the radial extent of the segment
func (s Segment) Magnitude() float64 {
	return s.Outer - s.Inner
}

// Raw extracts a field as an optional sequence
func Raw(points []models.DataPoint, field string) []Optional {
	out := make([]Optional, len(points))
	for i, p := range points {
		if v, ok := p.Value(field); ok {
			out[i] = Optional{Value: v, Valid: true}
		}
	}
	return out
}

// MovingAverage averages field over the trailing window [max(0, i-window+1), i] for each index.
// Missing values are skipped; an index whose window holds no values stays invalid.
func MovingAverage(points []models.DataPoint, field string, window int) ([]Optional, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	out := make([]Optional, len(points))
	for i := range points {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum, n := 0.0, 0
		for j := start; j <= i; j++ {
			if v, ok := points[j].Value(field); ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			out[i] = Optional{Value: sum / float64(n), Valid: true}
		}
	}
	return out, nil
}

// ConfidenceBand builds mean +/- std per point. The lower bound is clamped at zero since the
// measured quantities are non-negative. A missing std collapses the band onto the mean; a
// missing mean leaves the point invalid.
func ConfidenceBand(points []models.DataPoint, meanField, stdField string) []Band {
	out := make([]Band, len(points))
	for i, p := range points {
		mean, ok := p.Value(meanField)
		if !ok {
			continue
		}
		std, ok := p.Value(stdField)
		if !ok {
			lower := math.Max(0, mean)
			out[i] = Band{Upper: math.Max(mean, lower), Lower: lower, Valid: true}
			continue
		}
		std = math.Abs(std)
		lower := math.Max(0, mean-std)
		upper := mean + std
		if upper < lower {
			upper = lower
		}
		out[i] = Band{Upper: upper, Lower: lower, Valid: true}
	}
	return out
}

// BoundsBand builds a band from precomputed lower and upper fields, such as ci_lower/ci_upper or
// min_power/max_power. Points missing either bound are invalid.
func BoundsBand(points []models.DataPoint, lowerField, upperField string) []Band {
	out := make([]Band, len(points))
	for i, p := range points {
		lo, okLo := p.Value(lowerField)
		hi, okHi := p.Value(upperField)
		if !okLo || !okHi {
			continue
		}
		if hi < lo {
			lo, hi = hi, lo
		}
		lo = math.Max(0, lo)
		if hi < lo {
			hi = lo
		}
		out[i] = Band{Upper: hi, Lower: lo, Valid: true}
	}
	return out
}

// StackClasses accumulates class magnitudes per bin in the given order. Zero-magnitude classes
// are kept so the accumulation stays aligned with the order; renderers skip them.
// classOrder may be a subset of the bin classes (hidden classes are left out of the stack), but
// every key must exist in every bin and appear only once.
func StackClasses(bins []models.PolarBin, classOrder []string) ([][]Segment, error) {
	seen := make(map[string]bool, len(classOrder))
	for _, key := range classOrder {
		if seen[key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateClass, key)
		}
		seen[key] = true
	}

	out := make([][]Segment, len(bins))
	for i, bin := range bins {
		segs := make([]Segment, 0, len(classOrder))
		running := 0.0
		for _, key := range classOrder {
			m, ok := bin.Magnitude(key)
			if !ok {
				return nil, fmt.Errorf("%w: %s in bin %q", ErrUnknownClass, key, bin.Label)
			}
			if m < 0 || math.IsNaN(m) {
				m = 0
			}
			segs = append(segs, Segment{ClassKey: key, Inner: running, Outer: running + m})
			running += m
		}
		out[i] = segs
	}
	return out, nil
}

// StackTotal returns the outer radius of the last segment, the bin total over the stacked classes
func StackTotal(segs []Segment) float64 {
	if len(segs) == 0 {
		return 0
	}
	return segs[len(segs)-1].Outer
}

// Extent returns the min and max over the valid values. ok is false when nothing is valid.
func Extent(values []Optional) (min, max float64, ok bool) {
	for _, v := range values {
		if !v.Valid {
			continue
		}
		if !ok {
			min, max, ok = v.Value, v.Value, true
			continue
		}
		min = math.Min(min, v.Value)
		max = math.Max(max, v.Value)
	}
	return min, max, ok
}

// BandExtent is Extent over both bounds of a band sequence
func BandExtent(bands []Band) (min, max float64, ok bool) {
	for _, b := range bands {
		if !b.Valid {
			continue
		}
		if !ok {
			min, max, ok = b.Lower, b.Upper, true
			continue
		}
		min = math.Min(min, b.Lower)
		max = math.Max(max, b.Upper)
	}
	return min, max, ok
}
