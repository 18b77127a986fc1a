package chartview

import (
	"windscope/internal/geometry"
	"windscope/internal/series"
)

const (
	defaultWidth      = 960
	defaultHeight     = 360
	expandedFactor    = 1.6
	domainPadding     = 0.05
	defaultHeadroom   = 1.15
	defaultDomainStep = 50
	yTickCount        = 5
	xTickCount        = 6
)

// Options carries the rendering configuration shared by every view of a dashboard
type Options struct {
	Width      int
	Height     int
	Window     int
	DomainStep float64
	Headroom   float64
	Colors     map[string]string
	Cache      *series.Cache
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.Height <= 0 {
		o.Height = defaultHeight
	}
	if o.Window == 0 {
		o.Window = series.DefaultWindow
	}
	if o.DomainStep <= 0 {
		o.DomainStep = defaultDomainStep
	}
	if o.Headroom < 1 {
		o.Headroom = defaultHeadroom
	}
	return o
}

// AxisConfig labels a y axis and sets the rounding step of its domain
type AxisConfig struct {
	Label string
	Step  float64
}

// layout holds the pixel geometry of a chart
type layout struct {
	width    float64
	height   float64
	expanded bool
}

func newLayout(o Options) layout {
	return layout{width: float64(o.Width), height: float64(o.Height)}
}

func (l layout) size() (float64, float64) {
	if l.expanded {
		return l.width, l.height * expandedFactor
	}
	return l.width, l.height
}

// plot returns the drawable area inside the axis margins
func (l layout) plot() geometry.Rect {
	w, h := l.size()
	return geometry.Rect{
		Left:   70,
		Top:    40,
		Right:  w - 70,
		Bottom: h - 50,
	}
}

// square returns the largest centered square inside the plot area, used for polar charts
func (l layout) square() geometry.Rect {
	p := l.plot()
	side := p.Width()
	if p.Height() < side {
		side = p.Height()
	}
	c := p.Center()
	return geometry.Rect{
		Left:   c.X - side/2,
		Top:    c.Y - side/2,
		Right:  c.X + side/2,
		Bottom: c.Y + side/2,
	}
}
