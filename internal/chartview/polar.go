package chartview

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"windscope/internal/geometry"
	"windscope/internal/models"
	"windscope/internal/series"
	"windscope/internal/zoom"
)

const (
	labelMargin = 24
	sectorGap   = 1.0
	ringCount   = 4
)

// speed classes run from cool to warm
var classPalette = []string{
	"#1f4e79", "#2e75b6", "#5b9bd5", "#70ad47", "#ffc000", "#ed7d31", "#c00000",
}

// PolarConfig is the static configuration of a wind rose
type PolarConfig struct {
	ID         string
	Title      string
	ValueLabel string
}

// PolarView draws stacked direction bins. Radii are normalized by the largest visible bin
// total, so toggling a class rescales the whole rose. There is no linear axis to zoom along:
// drags always resolve to a click, which selects the bin under the pointer.
type PolarView struct {
	cfg      PolarConfig
	opts     Options
	layout   layout
	zoom     *zoom.Controller
	cache    *series.Cache
	bins     []models.PolarBin
	version  string
	classes  descriptorSet
	selected int
	hover    *HoverInfo
}

// NewPolarView creates an empty wind rose
func NewPolarView(cfg PolarConfig, opts Options) (*PolarView, error) {
	opts = opts.withDefaults()
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: chart without id", ErrInvalidConfig)
	}
	cache := opts.Cache
	if cache == nil {
		var err error
		if cache, err = series.NewCache(0); err != nil {
			return nil, fmt.Errorf("failed to create series cache: %w", err)
		}
	}
	classes, _ := newDescriptorSet(nil, nil)
	return &PolarView{
		cfg:      cfg,
		opts:     opts,
		layout:   newLayout(opts),
		zoom:     zoom.NewController(),
		cache:    cache,
		classes:  classes,
		selected: -1,
	}, nil
}

func (v *PolarView) ID() string    { return v.cfg.ID }
func (v *PolarView) Title() string { return v.cfg.Title }
func (v *PolarView) Kind() Kind    { return ChartPolar }

// Bins returns the current direction bins
func (v *PolarView) Bins() []models.PolarBin { return v.bins }

// SetBins replaces the wind rose data. Every bin must carry the classes of the first bin;
// otherwise the data is rejected and the view keeps its previous state.
func (v *PolarView) SetBins(bins []models.PolarBin) (zoom.Transition, error) {
	keys := models.ClassKeys(bins)
	if _, err := series.StackClasses(bins, keys); err != nil {
		return zoom.Transition{}, fmt.Errorf("invalid wind rose: %w", err)
	}

	previous := make(map[string]bool, len(v.classes.items))
	for _, d := range v.classes.items {
		previous[d.ID] = d.Visible
	}
	descs := make([]SeriesDescriptor, len(keys))
	for i, k := range keys {
		visible, known := previous[k]
		descs[i] = SeriesDescriptor{
			ID:          k,
			Label:       k + " m/s",
			SourceField: k,
			Kind:        KindRaw,
			Visible:     visible || !known,
			Color:       classPalette[i%len(classPalette)],
		}
	}
	classes, err := newDescriptorSet(descs, v.opts.Colors)
	if err != nil {
		return zoom.Transition{}, err
	}

	v.bins = bins
	v.classes = classes
	v.version = uuid.NewString()
	v.selected = -1
	v.hover = nil
	return v.zoom.DatasetReplaced(), nil
}

// Series returns one descriptor per speed class
func (v *PolarView) Series() []SeriesDescriptor {
	out := make([]SeriesDescriptor, len(v.classes.items))
	copy(out, v.classes.items)
	return out
}

// ToggleSeries flips one speed class
func (v *PolarView) ToggleSeries(id string) (bool, error) {
	return v.classes.toggle(id, nil)
}

func (v *PolarView) visibleClasses() []string {
	var keys []string
	for _, d := range v.classes.items {
		if d.Visible {
			keys = append(keys, d.ID)
		}
	}
	return keys
}

func (v *PolarView) SetExpanded(expanded bool) { v.layout.expanded = expanded }
func (v *PolarView) Expanded() bool            { return v.layout.expanded }
func (v *PolarView) Zoom() zoom.Snapshot       { return v.zoom.Snapshot() }
func (v *PolarView) Reset() zoom.Transition    { return v.zoom.Reset() }
func (v *PolarView) DoubleClick() zoom.Transition {
	return v.zoom.DoubleClick()
}
func (v *PolarView) Cancel() zoom.Transition { return v.zoom.Cancel() }

// Selected returns the label of the selected bin
func (v *PolarView) Selected() (string, bool) {
	if v.selected < 0 || v.selected >= len(v.bins) {
		return "", false
	}
	return v.bins[v.selected].Label, true
}

func (v *PolarView) disc() (geometry.Rect, geometry.Point, float64) {
	sq := v.layout.square()
	r := sq.Width()/2 - labelMargin
	if r < 1 {
		r = 1
	}
	return sq, sq.Center(), r
}

func (v *PolarView) ignored(e zoom.Event) zoom.Transition {
	s := v.zoom.State()
	return zoom.Transition{Event: e, From: s, To: s, Ignored: true}
}

// PointerDown starts a drag inside the rose. Every position resolves to the same coordinate.
func (v *PolarView) PointerDown(x, y float64) zoom.Transition {
	sq, _, _ := v.disc()
	if len(v.bins) == 0 || !sq.Contains(geometry.Point{X: x, Y: y}) {
		return v.ignored(zoom.EventPointerDown)
	}
	return v.zoom.PointerDown(0)
}

// PointerMove keeps an active drag alive
func (v *PolarView) PointerMove(x, y float64) zoom.Transition {
	if len(v.bins) == 0 {
		return v.ignored(zoom.EventPointerMove)
	}
	return v.zoom.PointerMove(0)
}

// PointerUp resolves the drag as a click and selects the bin under the pointer
func (v *PolarView) PointerUp(x, y float64) zoom.Transition {
	sq, _, _ := v.disc()
	if len(v.bins) == 0 {
		return v.ignored(zoom.EventPointerUp)
	}
	if !sq.Contains(geometry.Point{X: x, Y: y}) {
		return v.zoom.Cancel()
	}
	t := v.zoom.PointerUp(0)
	if !t.Ignored {
		if i, ok := v.binAt(x, y); ok {
			v.selected = i
		}
	}
	return t
}

// binAt returns the bin whose sector contains the point
func (v *PolarView) binAt(x, y float64) (int, bool) {
	_, center, radius := v.disc()
	r, angle := geometry.CartesianToPolar(center, geometry.Point{X: x, Y: y})
	if len(v.bins) == 0 || r > radius {
		return -1, false
	}
	best, bestDist := -1, math.MaxFloat64
	for i, b := range v.bins {
		d := math.Abs(angle - b.AngleDegrees)
		if d > 180 {
			d = 360 - d
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

// Hover reports the bin under the pointer with its visible class magnitudes
func (v *PolarView) Hover(x, y float64) (HoverInfo, bool) {
	v.hover = nil
	i, ok := v.binAt(x, y)
	if !ok {
		return HoverInfo{}, false
	}
	b := v.bins[i]
	info := HoverInfo{Index: i, Key: b.Label, X: b.AngleDegrees, Values: map[string]float64{}}
	for _, k := range v.visibleClasses() {
		if m, ok := b.Magnitude(k); ok {
			info.Values[k] = m
		}
	}
	v.hover = &info
	return info, true
}

// Frame renders the current state
func (v *PolarView) Frame() Frame {
	w, h := v.layout.size()
	sq, center, radius := v.disc()
	f := Frame{
		ChartID:  v.cfg.ID,
		Title:    v.cfg.Title,
		Kind:     ChartPolar,
		Width:    w,
		Height:   h,
		Expanded: v.layout.expanded,
		Plot:     sq,
		Zoom:     v.zoom.Snapshot(),
		Center:   center,
		Radius:   radius,
	}
	if len(v.bins) == 0 {
		f.Placeholder = NoDataMessage
		return f
	}
	f.Visible = len(v.bins)
	if label, ok := v.Selected(); ok {
		f.Selected = label
	}
	if v.hover != nil {
		h := *v.hover
		f.Hover = &h
	}

	sector := 360 / float64(len(v.bins))
	for _, b := range v.bins {
		f.Sectors = append(f.Sectors, SectorLabel{
			Label: b.Label,
			Angle: b.AngleDegrees,
			At:    geometry.PolarToCartesian(center, radius+labelMargin/2, b.AngleDegrees),
		})
	}

	stacks, err := v.cache.StackClasses(v.version, v.bins, v.visibleClasses())
	if err != nil {
		return f
	}
	maxTotal := 0.0
	for _, s := range stacks {
		maxTotal = math.Max(maxTotal, series.StackTotal(s))
	}
	rd := geometry.Domain{Min: 0, Max: maxTotal}
	rr := geometry.Range{Min: 0, Max: radius}
	f.YAxis = AxisFrame{Label: v.cfg.ValueLabel, Domain: rd}
	if maxTotal == 0 {
		return f
	}

	for _, t := range geometry.NiceTicks(0, maxTotal, ringCount) {
		if t <= 0 || t > maxTotal {
			continue
		}
		ring := RingFrame{Value: t, Radius: geometry.ToPixel(t, rd, rr), Label: geometry.FormatTick(t)}
		f.Rings = append(f.Rings, ring)
		f.YAxis.Ticks = append(f.YAxis.Ticks, Tick{Value: t, Label: ring.Label, Pixel: ring.Radius})
	}

	gap := math.Min(sectorGap, sector*0.1)
	colors := make(map[string]string, len(v.classes.items))
	for _, d := range v.classes.items {
		colors[d.ID] = d.Color
	}
	for bi, b := range v.bins {
		start := b.AngleDegrees - sector/2 + gap/2
		end := b.AngleDegrees + sector/2 - gap/2
		for _, seg := range stacks[bi] {
			if seg.Magnitude() <= 0 {
				continue
			}
			inner := geometry.ToPixel(seg.Inner, rd, rr)
			outer := geometry.ToPixel(seg.Outer, rd, rr)
			path := geometry.Wedge(center, inner, outer, start, end)
			if path.Degenerate() {
				continue
			}
			f.Wedges = append(f.Wedges, WedgeFrame{
				Bin:       bi,
				BinLabel:  b.Label,
				ClassKey:  seg.ClassKey,
				Color:     colors[seg.ClassKey],
				Inner:     inner,
				Outer:     outer,
				Magnitude: seg.Magnitude(),
				D:         path.String(),
				Path:      path,
			})
		}
	}
	return f
}

// ExportVisible writes one row per bin with the visible class columns
func (v *PolarView) ExportVisible() (string, error) {
	classes := v.visibleClasses()
	header := append([]string{models.FieldDirection, models.FieldAngle, models.FieldFrequency}, classes...)
	rows := [][]string{header}
	for _, b := range v.bins {
		row := []string{b.Label, formatValue(b.AngleDegrees), formatValue(b.Total)}
		for _, k := range classes {
			cell := ""
			if m, ok := b.Magnitude(k); ok {
				cell = formatValue(m)
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return writeCSV(rows)
}
