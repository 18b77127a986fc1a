package chartview

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"windscope/internal/geometry"
	"windscope/internal/models"
	"windscope/internal/series"
	"windscope/internal/zoom"
)

// CartesianConfig is the static configuration of a Cartesian chart
type CartesianConfig struct {
	ID       string
	Title    string
	XLabel   string
	KeyField string
	// XField is the continuous x column of a band chart; time series charts use the point index
	XField string
	Axes   [2]AxisConfig
	Series []SeriesDescriptor
}

type xMode int

const (
	xIndex xMode = iota
	xValue
)

// cartesianView holds what TimeSeriesView and BandView share: descriptors, zoom, pixel mapping
type cartesianView struct {
	cfg     CartesianConfig
	mode    xMode
	kind    Kind
	opts    Options
	layout  layout
	series  descriptorSet
	zoom    *zoom.Controller
	cache   *series.Cache
	data    *models.Dataset
	version string
	hover   *HoverInfo
}

func newCartesianView(cfg CartesianConfig, mode xMode, kind Kind, opts Options) (*cartesianView, error) {
	opts = opts.withDefaults()
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: chart without id", ErrInvalidConfig)
	}
	if mode == xValue && cfg.XField == "" {
		return nil, fmt.Errorf("%w: chart %s needs an x field", ErrInvalidConfig, cfg.ID)
	}
	set, err := newDescriptorSet(cfg.Series, opts.Colors)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", cfg.ID, err)
	}
	cache := opts.Cache
	if cache == nil {
		if cache, err = series.NewCache(0); err != nil {
			return nil, fmt.Errorf("failed to create series cache: %w", err)
		}
	}
	return &cartesianView{
		cfg:    cfg,
		mode:   mode,
		kind:   kind,
		opts:   opts,
		layout: newLayout(opts),
		series: set,
		zoom:   zoom.NewController(),
		cache:  cache,
	}, nil
}

func (v *cartesianView) ID() string    { return v.cfg.ID }
func (v *cartesianView) Title() string { return v.cfg.Title }
func (v *cartesianView) Kind() Kind    { return v.kind }

// Dataset returns the current data, nil when none was set
func (v *cartesianView) Dataset() *models.Dataset { return v.data }

// SetDataset replaces the data under a fresh version and drops any selection
func (v *cartesianView) SetDataset(ds *models.Dataset) zoom.Transition {
	v.data = ds
	v.version = uuid.NewString()
	v.hover = nil
	return v.zoom.DatasetReplaced()
}

// Series returns the descriptors whose fields exist in the current dataset
func (v *cartesianView) Series() []SeriesDescriptor {
	return v.series.availableItems(v.data)
}

// ToggleSeries flips one layer's visibility. Zoom state is left alone.
func (v *cartesianView) ToggleSeries(id string) (bool, error) {
	return v.series.toggle(id, v.data)
}

func (v *cartesianView) SetExpanded(expanded bool) { v.layout.expanded = expanded }
func (v *cartesianView) Expanded() bool            { return v.layout.expanded }
func (v *cartesianView) Zoom() zoom.Snapshot       { return v.zoom.Snapshot() }
func (v *cartesianView) Reset() zoom.Transition    { return v.zoom.Reset() }
func (v *cartesianView) DoubleClick() zoom.Transition {
	return v.zoom.DoubleClick()
}
func (v *cartesianView) Cancel() zoom.Transition { return v.zoom.Cancel() }

// hasGeometry reports whether there is at least one point with an x position
func (v *cartesianView) hasGeometry() bool {
	if v.data.Empty() {
		return false
	}
	if v.mode == xIndex {
		return true
	}
	_, ok := v.fullDomain()
	return ok
}

// xAt returns the x coordinate of point i
func (v *cartesianView) xAt(i int) (float64, bool) {
	if v.mode == xIndex {
		return float64(i), true
	}
	return v.data.Points[i].Value(v.cfg.XField)
}

func (v *cartesianView) fullDomain() (geometry.Domain, bool) {
	n := v.data.Len()
	if n == 0 {
		return geometry.Domain{}, false
	}
	if v.mode == xIndex {
		return geometry.Domain{Min: 0, Max: float64(n - 1)}, true
	}
	d, ok := geometry.Domain{}, false
	for i := 0; i < n; i++ {
		x, valid := v.xAt(i)
		if !valid {
			continue
		}
		if !ok {
			d, ok = geometry.Domain{Min: x, Max: x}, true
			continue
		}
		d.Min = math.Min(d.Min, x)
		d.Max = math.Max(d.Max, x)
	}
	return d, ok
}

// visibleDomain is the zoomed range when there is one, the full extent otherwise
func (v *cartesianView) visibleDomain() geometry.Domain {
	full, _ := v.fullDomain()
	r, ok := v.zoom.Viewport()
	if !ok {
		return full
	}
	d := geometry.Domain{Min: full.Clamp(r.Lower), Max: full.Clamp(r.Upper)}
	if v.mode == xIndex {
		d.Min, d.Max = math.Ceil(d.Min), math.Floor(d.Max)
	}
	return d
}

// visibleIndices returns the indexes of the points inside the visible domain, in dataset order
func (v *cartesianView) visibleIndices() []int {
	if !v.hasGeometry() {
		return nil
	}
	d := v.visibleDomain()
	if v.mode == xIndex {
		lo, hi := int(d.Min), int(d.Max)
		if hi < lo {
			return nil
		}
		out := make([]int, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			out = append(out, i)
		}
		return out
	}
	var out []int
	for i := range v.data.Points {
		if x, ok := v.xAt(i); ok && d.Contains(x) {
			out = append(out, i)
		}
	}
	return out
}

// resolve maps a pixel column to an absolute dataset coordinate inside the visible domain.
// Index charts snap to the nearest point; value charts snap the pixel to a whole column first so
// a click lands on the same value as its press.
func (v *cartesianView) resolve(px float64) float64 {
	d := v.visibleDomain()
	xr := v.layout.plot().XRange()
	if v.mode == xIndex {
		return d.Clamp(math.Round(geometry.ToValue(px, d, xr)))
	}
	return d.Clamp(geometry.ToValue(math.Round(px), d, xr))
}

func (v *cartesianView) ignored(e zoom.Event) zoom.Transition {
	s := v.zoom.State()
	return zoom.Transition{Event: e, From: s, To: s, Ignored: true}
}

// PointerDown starts a selection. Presses outside the plot area or on an empty chart are ignored.
func (v *cartesianView) PointerDown(x, y float64) zoom.Transition {
	if !v.hasGeometry() || !v.layout.plot().Contains(geometry.Point{X: x, Y: y}) {
		return v.ignored(zoom.EventPointerDown)
	}
	return v.zoom.PointerDown(v.resolve(x))
}

// PointerMove updates the marquee; positions past the plot edges are clamped onto them
func (v *cartesianView) PointerMove(x, y float64) zoom.Transition {
	if !v.hasGeometry() {
		return v.ignored(zoom.EventPointerMove)
	}
	plot := v.layout.plot()
	x = math.Max(plot.Left, math.Min(plot.Right, x))
	return v.zoom.PointerMove(v.resolve(x))
}

// PointerUp commits or discards the selection. A release outside the plot cancels the drag.
func (v *cartesianView) PointerUp(x, y float64) zoom.Transition {
	if !v.hasGeometry() {
		return v.ignored(zoom.EventPointerUp)
	}
	if !v.layout.plot().Contains(geometry.Point{X: x, Y: y}) {
		return v.zoom.Cancel()
	}
	return v.zoom.PointerUp(v.resolve(x))
}

// Hover finds the visible point nearest to the pointer column
func (v *cartesianView) Hover(x, y float64) (HoverInfo, bool) {
	v.hover = nil
	plot := v.layout.plot()
	if !v.hasGeometry() || !plot.Contains(geometry.Point{X: x, Y: y}) {
		return HoverInfo{}, false
	}
	d := v.visibleDomain()
	best, bestDist := -1, math.MaxFloat64
	for _, i := range v.visibleIndices() {
		xv, _ := v.xAt(i)
		dist := math.Abs(geometry.ToPixel(xv, d, plot.XRange()) - x)
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return HoverInfo{}, false
	}
	p := v.data.Points[best]
	xv, _ := v.xAt(best)
	info := HoverInfo{Index: best, Key: p.Key, X: xv, Values: map[string]float64{}}
	for _, desc := range v.series.visibleItems(v.data) {
		vals, _ := v.derive(desc)
		if vals != nil && vals[best].Valid {
			info.Values[desc.ID] = vals[best].Value
		}
	}
	v.hover = &info
	return info, true
}

// derive returns the full-dataset values of a descriptor, from the cache when possible
func (v *cartesianView) derive(d SeriesDescriptor) ([]series.Optional, []series.Band) {
	points := v.data.Points
	switch d.Kind {
	case KindRaw:
		return series.Raw(points, d.SourceField), nil
	case KindMovingAverage:
		vals, err := v.cache.MovingAverage(v.version, points, d.SourceField, d.Window)
		if err != nil {
			return nil, nil
		}
		return vals, nil
	case KindBand:
		return nil, v.cache.ConfidenceBand(v.version, points, d.SourceField, d.AuxField)
	case KindBounds:
		return nil, v.cache.BoundsBand(v.version, points, d.SourceField, d.AuxField)
	}
	return nil, nil
}

type layer struct {
	desc  SeriesDescriptor
	vals  []series.Optional
	bands []series.Band
}

// Frame renders the current state
func (v *cartesianView) Frame() Frame {
	w, h := v.layout.size()
	plot := v.layout.plot()
	f := Frame{
		ChartID:  v.cfg.ID,
		Title:    v.cfg.Title,
		Kind:     v.kind,
		Width:    w,
		Height:   h,
		Expanded: v.layout.expanded,
		Plot:     plot,
		Zoom:     v.zoom.Snapshot(),
	}
	if !v.hasGeometry() {
		f.Placeholder = NoDataMessage
		return f
	}

	xd := v.visibleDomain()
	f.FullX, _ = v.fullDomain()
	idx := v.visibleIndices()
	f.Visible = len(idx)
	for _, i := range idx {
		f.Keys = append(f.Keys, v.data.Points[i].Key)
	}

	var layers []layer
	for _, d := range v.series.visibleItems(v.data) {
		vals, bands := v.derive(d)
		if vals == nil && bands == nil {
			continue
		}
		layers = append(layers, layer{desc: d, vals: vals, bands: bands})
	}

	yd := [2]geometry.Domain{
		v.axisDomain(AxisPrimary, layers, idx),
		v.axisDomain(AxisSecondary, layers, idx),
	}

	f.XAxis = AxisFrame{Label: v.cfg.XLabel, Domain: xd, Ticks: v.xTicks(xd, plot)}
	f.YAxis = AxisFrame{Label: v.cfg.Axes[AxisPrimary].Label, Domain: yd[AxisPrimary], Ticks: yTicks(yd[AxisPrimary], plot)}
	if v.usesSecondary() {
		f.Y2Axis = &AxisFrame{Label: v.cfg.Axes[AxisSecondary].Label, Domain: yd[AxisSecondary], Ticks: yTicks(yd[AxisSecondary], plot)}
	}

	xr, yr := plot.XRange(), plot.YRange()
	for _, l := range layers {
		d := yd[l.desc.Axis]
		if l.bands != nil {
			bf := BandFrame{SeriesID: l.desc.ID, Label: l.desc.Label, Color: l.desc.Color, Axis: l.desc.Axis}
			for _, i := range idx {
				x, _ := v.xAt(i)
				b := l.bands[i]
				bp := BandPoint{Index: i, X: x, PX: geometry.ToPixel(x, xd, xr), Valid: b.Valid}
				if b.Valid {
					bp.Upper, bp.Lower = b.Upper, b.Lower
					bp.PUpper = geometry.ToPixel(b.Upper, d, yr)
					bp.PLower = geometry.ToPixel(b.Lower, d, yr)
				}
				bf.Points = append(bf.Points, bp)
			}
			f.Bands = append(f.Bands, bf)
			continue
		}
		lf := LineFrame{
			SeriesID: l.desc.ID,
			Label:    l.desc.Label,
			Color:    l.desc.Color,
			Axis:     l.desc.Axis,
			Kind:     l.desc.Kind,
			Scatter:  v.mode == xValue && l.desc.Kind == KindRaw,
		}
		for _, i := range idx {
			x, _ := v.xAt(i)
			o := l.vals[i]
			pp := PlotPoint{Index: i, X: x, PX: geometry.ToPixel(x, xd, xr), Valid: o.Valid}
			if o.Valid {
				pp.Y = o.Value
				pp.PY = geometry.ToPixel(o.Value, d, yr)
			}
			lf.Points = append(lf.Points, pp)
		}
		f.Lines = append(f.Lines, lf)
	}

	if m, ok := v.zoom.Marquee(); ok {
		f.Marquee = &MarqueeFrame{
			Lower: m.Lower(),
			Upper: m.Upper(),
			Left:  geometry.ToPixel(m.Lower(), xd, xr),
			Right: geometry.ToPixel(m.Upper(), xd, xr),
		}
	}
	if v.hover != nil {
		h := *v.hover
		f.Hover = &h
	}
	return f
}

// axisDomain pads and rounds the extent of the visible values on one axis
func (v *cartesianView) axisDomain(axis Axis, layers []layer, idx []int) geometry.Domain {
	step := v.cfg.Axes[axis].Step
	lo, hi, ok := 0.0, 0.0, false
	extend := func(a, b float64) {
		if !ok {
			lo, hi, ok = a, b, true
			return
		}
		lo, hi = math.Min(lo, a), math.Max(hi, b)
	}
	for _, l := range layers {
		if l.desc.Axis != axis {
			continue
		}
		for _, i := range idx {
			if l.bands != nil {
				if b := l.bands[i]; b.Valid {
					extend(b.Lower, b.Upper)
				}
			} else if o := l.vals[i]; o.Valid {
				extend(o.Value, o.Value)
			}
		}
	}
	if !ok {
		return geometry.PaddedDomain(0, 0, 0, v.opts.Headroom, step)
	}
	return geometry.PaddedDomain(lo, hi, (hi-lo)*domainPadding, v.opts.Headroom, step)
}

func (v *cartesianView) usesSecondary() bool {
	for _, d := range v.series.availableItems(v.data) {
		if d.Axis == AxisSecondary {
			return true
		}
	}
	return false
}

func (v *cartesianView) xTicks(d geometry.Domain, plot geometry.Rect) []Tick {
	xr := plot.XRange()
	var ticks []Tick
	for _, t := range geometry.NiceTicks(d.Min, d.Max, xTickCount) {
		if !d.Contains(t) {
			continue
		}
		if v.mode == xIndex {
			if t != math.Trunc(t) {
				continue
			}
			ticks = append(ticks, Tick{Value: t, Label: keyLabel(v.data.Points[int(t)].Key), Pixel: geometry.ToPixel(t, d, xr)})
			continue
		}
		ticks = append(ticks, Tick{Value: t, Label: geometry.FormatTick(t), Pixel: geometry.ToPixel(t, d, xr)})
	}
	if len(ticks) == 0 {
		label := geometry.FormatTick(d.Min)
		if v.mode == xIndex {
			label = keyLabel(v.data.Points[int(d.Min)].Key)
		}
		ticks = append(ticks, Tick{Value: d.Min, Label: label, Pixel: geometry.ToPixel(d.Min, d, xr)})
	}
	return ticks
}

func yTicks(d geometry.Domain, plot geometry.Rect) []Tick {
	yr := plot.YRange()
	var ticks []Tick
	for _, t := range geometry.NiceTicks(d.Min, d.Max, yTickCount) {
		if d.Contains(t) {
			ticks = append(ticks, Tick{Value: t, Label: geometry.FormatTick(t), Pixel: geometry.ToPixel(t, d, yr)})
		}
	}
	return ticks
}

var keyLayouts = []string{"2006-01-02T15:04:05", time.RFC3339, "2006-01-02 15:04:05"}

// keyLabel shortens timestamp keys for axis labels and leaves everything else as is
func keyLabel(key string) string {
	for _, layout := range keyLayouts {
		if t, err := time.Parse(layout, key); err == nil {
			return t.Format("Jan 02 15:04")
		}
	}
	return strings.TrimSpace(key)
}
