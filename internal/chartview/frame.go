package chartview

import (
	"windscope/internal/geometry"
	"windscope/internal/zoom"
)

// Kind names the chart variant
type Kind string

const (
	ChartTimeSeries Kind = "timeseries"
	ChartScatter    Kind = "scatter"
	ChartPolar      Kind = "polar"
)

// NoDataMessage is shown in place of a chart whose dataset is empty or absent
const NoDataMessage = "No data available"

// Tick is an axis mark at a value with its pixel position
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
	Pixel float64 `json:"px"`
}

// AxisFrame is an axis as rendered
type AxisFrame struct {
	Label  string          `json:"label"`
	Domain geometry.Domain `json:"domain"`
	Ticks  []Tick          `json:"ticks"`
}

// PlotPoint is one sample of a line in value and pixel space
type PlotPoint struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	PX    float64 `json:"px"`
	PY    float64 `json:"py"`
	Valid bool    `json:"valid"`
}

// LineFrame is a visible line or scatter layer
type LineFrame struct {
	SeriesID string      `json:"series_id"`
	Label    string      `json:"label"`
	Color    string      `json:"color"`
	Axis     Axis        `json:"axis"`
	Kind     SeriesKind  `json:"kind"`
	Scatter  bool        `json:"scatter"`
	Points   []PlotPoint `json:"points"`
}

// BandPoint is one sample of a band in value and pixel space
type BandPoint struct {
	Index  int     `json:"index"`
	X      float64 `json:"x"`
	Upper  float64 `json:"upper"`
	Lower  float64 `json:"lower"`
	PX     float64 `json:"px"`
	PUpper float64 `json:"py_upper"`
	PLower float64 `json:"py_lower"`
	Valid  bool    `json:"valid"`
}

// BandFrame is a visible filled band layer
type BandFrame struct {
	SeriesID string      `json:"series_id"`
	Label    string      `json:"label"`
	Color    string      `json:"color"`
	Axis     Axis        `json:"axis"`
	Points   []BandPoint `json:"points"`
}

// WedgeFrame is one stacked class slice of a polar bin
type WedgeFrame struct {
	Bin       int                `json:"bin"`
	BinLabel  string             `json:"bin_label"`
	ClassKey  string             `json:"class"`
	Color     string             `json:"color"`
	Inner     float64            `json:"inner"`
	Outer     float64            `json:"outer"`
	Magnitude float64            `json:"magnitude"`
	D         string             `json:"d"`
	Path      geometry.WedgePath `json:"-"`
}

// RingFrame is a polar grid circle
type RingFrame struct {
	Value  float64 `json:"value"`
	Radius float64 `json:"radius"`
	Label  string  `json:"label"`
}

// SectorLabel positions a direction label around the rose
type SectorLabel struct {
	Label string         `json:"label"`
	Angle float64        `json:"angle"`
	At    geometry.Point `json:"at"`
}

// MarqueeFrame is the in-progress selection in value and pixel space
type MarqueeFrame struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// HoverInfo describes the item under the pointer
type HoverInfo struct {
	Index  int                `json:"index"`
	Key    string             `json:"key"`
	X      float64            `json:"x"`
	Values map[string]float64 `json:"values"`
}

// Frame is a surface-independent description of one chart render
type Frame struct {
	ChartID     string          `json:"chart_id"`
	Title       string          `json:"title"`
	Kind        Kind            `json:"kind"`
	Width       float64         `json:"width"`
	Height      float64         `json:"height"`
	Expanded    bool            `json:"expanded"`
	Plot        geometry.Rect   `json:"plot"`
	Placeholder string          `json:"placeholder,omitempty"`
	Zoom        zoom.Snapshot   `json:"zoom"`
	Visible     int             `json:"visible_points"`
	FullX       geometry.Domain `json:"full_x"`
	Keys        []string        `json:"keys,omitempty"`

	XAxis  AxisFrame  `json:"x_axis"`
	YAxis  AxisFrame  `json:"y_axis"`
	Y2Axis *AxisFrame `json:"y2_axis,omitempty"`

	Lines   []LineFrame   `json:"lines,omitempty"`
	Bands   []BandFrame   `json:"bands,omitempty"`
	Marquee *MarqueeFrame `json:"marquee,omitempty"`
	Hover   *HoverInfo    `json:"hover,omitempty"`

	Center   geometry.Point `json:"center"`
	Radius   float64        `json:"radius"`
	Wedges   []WedgeFrame   `json:"wedges,omitempty"`
	Rings    []RingFrame    `json:"rings,omitempty"`
	Sectors  []SectorLabel  `json:"sectors,omitempty"`
	Selected string         `json:"selected,omitempty"`
}

// Empty reports whether the frame is a placeholder
func (f Frame) Empty() bool {
	return f.Placeholder != ""
}
