package chartview

import (
	"errors"
	"fmt"

	"windscope/internal/models"
	"windscope/internal/series"
)

var (
	ErrUnknownSeries     = errors.New("unknown series")
	ErrSeriesUnavailable = errors.New("series has no data")
	ErrInvalidConfig     = errors.New("invalid chart configuration")
)

// SeriesKind selects how a descriptor derives its values from the dataset
type SeriesKind string

const (
	KindRaw           SeriesKind = "raw"
	KindMovingAverage SeriesKind = "movingAverage"
	KindBand          SeriesKind = "band"   // mean +/- std, AuxField holds the std
	KindBounds        SeriesKind = "bounds" // precomputed bounds, SourceField lower and AuxField upper
)

// Axis is the y axis a series is plotted against
type Axis int

const (
	AxisPrimary Axis = iota
	AxisSecondary
)

// MarshalText encodes the axis by name
func (a Axis) MarshalText() ([]byte, error) {
	if a == AxisSecondary {
		return []byte("secondary"), nil
	}
	return []byte("primary"), nil
}

// SeriesDescriptor is one toggleable layer of a chart
type SeriesDescriptor struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	SourceField string     `json:"source_field"`
	AuxField    string     `json:"aux_field,omitempty"`
	Kind        SeriesKind `json:"kind"`
	Axis        Axis       `json:"axis"`
	Visible     bool       `json:"visible"`
	Color       string     `json:"color"`
	Window      int        `json:"window,omitempty"`
}

// Fields returns the dataset columns the descriptor reads
func (d SeriesDescriptor) Fields() []string {
	if d.AuxField == "" || d.AuxField == d.SourceField {
		return []string{d.SourceField}
	}
	return []string{d.SourceField, d.AuxField}
}

func (d SeriesDescriptor) validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: series without id", ErrInvalidConfig)
	}
	if d.SourceField == "" {
		return fmt.Errorf("%w: series %s has no source field", ErrInvalidConfig, d.ID)
	}
	switch d.Kind {
	case KindRaw:
	case KindMovingAverage:
		if d.Window < 1 {
			return fmt.Errorf("series %s: %w", d.ID, series.ErrInvalidWindow)
		}
	case KindBand, KindBounds:
		if d.AuxField == "" {
			return fmt.Errorf("%w: band series %s needs an aux field", ErrInvalidConfig, d.ID)
		}
	default:
		return fmt.Errorf("%w: series %s has unknown kind %q", ErrInvalidConfig, d.ID, d.Kind)
	}
	return nil
}

// available reports whether the dataset carries what the descriptor needs. A mean/std band only
// needs the mean; a bounds band needs both columns.
func (d SeriesDescriptor) available(ds *models.Dataset) bool {
	if !ds.HasField(d.SourceField) {
		return false
	}
	if d.Kind == KindBounds {
		return ds.HasField(d.AuxField)
	}
	return true
}

// descriptorSet is the fixed descriptor list of a chart with visibility flags
type descriptorSet struct {
	items []SeriesDescriptor
	index map[string]int
}

func newDescriptorSet(items []SeriesDescriptor, colors map[string]string) (descriptorSet, error) {
	set := descriptorSet{index: make(map[string]int, len(items))}
	for i, d := range items {
		if err := d.validate(); err != nil {
			return descriptorSet{}, err
		}
		if _, dup := set.index[d.ID]; dup {
			return descriptorSet{}, fmt.Errorf("%w: duplicate series id %s", ErrInvalidConfig, d.ID)
		}
		if c, ok := colors[d.ID]; ok && c != "" {
			d.Color = c
		}
		if d.Color == "" {
			d.Color = paletteColor(i)
		}
		if d.Label == "" {
			d.Label = d.ID
		}
		set.index[d.ID] = len(set.items)
		set.items = append(set.items, d)
	}
	return set, nil
}

func (s *descriptorSet) toggle(id string, ds *models.Dataset) (bool, error) {
	i, ok := s.index[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSeries, id)
	}
	if ds != nil && !s.items[i].available(ds) {
		return false, fmt.Errorf("%w: %s", ErrSeriesUnavailable, id)
	}
	s.items[i].Visible = !s.items[i].Visible
	return s.items[i].Visible, nil
}

// availableItems filters out descriptors whose fields never appear in the dataset
func (s *descriptorSet) availableItems(ds *models.Dataset) []SeriesDescriptor {
	out := make([]SeriesDescriptor, 0, len(s.items))
	for _, d := range s.items {
		if d.available(ds) {
			out = append(out, d)
		}
	}
	return out
}

func (s *descriptorSet) visibleItems(ds *models.Dataset) []SeriesDescriptor {
	out := make([]SeriesDescriptor, 0, len(s.items))
	for _, d := range s.availableItems(ds) {
		if d.Visible {
			out = append(out, d)
		}
	}
	return out
}

var palette = []string{
	"#3366cc", "#dc3912", "#ff9900", "#109618", "#990099",
	"#0099c6", "#dd4477", "#66aa00", "#b82e2e", "#316395",
}

func paletteColor(i int) string {
	return palette[i%len(palette)]
}
