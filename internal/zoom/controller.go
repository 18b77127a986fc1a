package zoom

import (
	"encoding/json"
	"math"
)

// State is the phase of the drag-to-zoom interaction
type State int

const (
	Idle State = iota
	Dragging
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state by name
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Event names the input that produced a transition
type Event string

const (
	EventPointerDown     Event = "pointer_down"
	EventPointerMove     Event = "pointer_move"
	EventPointerUp       Event = "pointer_up"
	EventCancel          Event = "cancel"
	EventDoubleClick     Event = "double_click"
	EventReset           Event = "reset"
	EventDatasetReplaced Event = "dataset_replaced"
)

// Range is a committed selection in absolute dataset coordinates, Lower <= Upper
type Range struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Span returns the width of the range
func (r Range) Span() float64 {
	return r.Upper - r.Lower
}

// Contains reports whether v lies inside the range, bounds included
func (r Range) Contains(v float64) bool {
	return v >= r.Lower && v <= r.Upper
}

// Marquee is the transient selection shown while dragging. It is derived from the anchor and the
// latest pointer position and never stored as state of its own.
type Marquee struct {
	Anchor  float64 `json:"anchor"`
	Current float64 `json:"current"`
}

// Lower returns the smaller edge
func (m Marquee) Lower() float64 { return math.Min(m.Anchor, m.Current) }

// Upper returns the larger edge
func (m Marquee) Upper() float64 { return math.Max(m.Anchor, m.Current) }

// Transition reports what a single event did. Every event yields one; nothing is coalesced.
type Transition struct {
	Event     Event    `json:"event"`
	From      State    `json:"from"`
	To        State    `json:"to"`
	Committed bool     `json:"committed"`
	Ignored   bool     `json:"ignored"`
	Range     *Range   `json:"range,omitempty"`
	Marquee   *Marquee `json:"marquee,omitempty"`
}

// Changed reports whether the state moved
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Snapshot is the serializable view of a controller
type Snapshot struct {
	State   State    `json:"state"`
	Range   *Range   `json:"range,omitempty"`
	Marquee *Marquee `json:"marquee,omitempty"`
}

// Option configures a Controller
type Option func(*Controller)

// WithTolerance treats a release within tol of the anchor as a click
func WithTolerance(tol float64) Option {
	return func(c *Controller) {
		if tol > 0 {
			c.tolerance = tol
		}
	}
}

// Controller runs the Idle / Dragging / Committed state machine over resolved positions.
// Positions are indexes or axis values; resolving pixels is the caller's job.
type Controller struct {
	state     State
	anchor    float64
	current   float64
	committed Range

	// state to restore when a drag ends without a selection
	prior      State
	priorRange Range

	tolerance float64
}

// NewController creates an idle controller
func NewController(opts ...Option) *Controller {
	c := &Controller{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current phase
func (c *Controller) State() State {
	return c.state
}

// Range returns the committed selection; ok is false unless the state is Committed
func (c *Controller) Range() (Range, bool) {
	if c.state != Committed {
		return Range{}, false
	}
	return c.committed, true
}

// Viewport returns the range on display: the committed range, or while a drag that started from
// Committed is in progress, the range it started in
func (c *Controller) Viewport() (Range, bool) {
	switch {
	case c.state == Committed:
		return c.committed, true
	case c.state == Dragging && c.prior == Committed:
		return c.priorRange, true
	}
	return Range{}, false
}

// Marquee returns the in-progress selection; ok is false unless dragging
func (c *Controller) Marquee() (Marquee, bool) {
	if c.state != Dragging {
		return Marquee{}, false
	}
	return Marquee{Anchor: c.anchor, Current: c.current}, true
}

// Snapshot captures the current state for rendering or serialization
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{State: c.state}
	if r, ok := c.Range(); ok {
		s.Range = &r
	}
	if m, ok := c.Marquee(); ok {
		s.Marquee = &m
	}
	return s
}

// PointerDown starts a drag from Idle or Committed. A second pointer while dragging is ignored.
func (c *Controller) PointerDown(pos float64) Transition {
	t := c.begin(EventPointerDown)
	if c.state == Dragging || invalid(pos) {
		return c.ignore(t)
	}
	c.prior, c.priorRange = c.state, c.committed
	c.state = Dragging
	c.anchor, c.current = pos, pos
	return c.finish(t)
}

// PointerMove updates the marquee while dragging. The anchor never moves.
func (c *Controller) PointerMove(pos float64) Transition {
	t := c.begin(EventPointerMove)
	if c.state != Dragging || invalid(pos) {
		return c.ignore(t)
	}
	c.current = pos
	return c.finish(t)
}

// PointerUp ends a drag. A release at the anchor is a click and leaves the pre-drag state;
// anything else commits [min, max] of anchor and release.
func (c *Controller) PointerUp(pos float64) Transition {
	t := c.begin(EventPointerUp)
	if c.state != Dragging || invalid(pos) {
		return c.ignore(t)
	}
	if math.Abs(pos-c.anchor) <= c.tolerance {
		c.restore()
		return c.finish(t)
	}
	c.committed = Range{Lower: math.Min(c.anchor, pos), Upper: math.Max(c.anchor, pos)}
	c.state = Committed
	t.Committed = true
	return c.finish(t)
}

// Cancel abandons an active drag without committing, e.g. when the pointer is released outside
// the plot area.
func (c *Controller) Cancel() Transition {
	t := c.begin(EventCancel)
	if c.state != Dragging {
		return c.ignore(t)
	}
	c.restore()
	return c.finish(t)
}

// DoubleClick is an alias for Reset
func (c *Controller) DoubleClick() Transition {
	return c.toIdle(EventDoubleClick)
}

// Reset returns to Idle from any state
func (c *Controller) Reset() Transition {
	return c.toIdle(EventReset)
}

// DatasetReplaced drops any selection or drag because the coordinates no longer apply
func (c *Controller) DatasetReplaced() Transition {
	return c.toIdle(EventDatasetReplaced)
}

func (c *Controller) toIdle(e Event) Transition {
	t := c.begin(e)
	c.state = Idle
	c.committed = Range{}
	c.prior, c.priorRange = Idle, Range{}
	c.anchor, c.current = 0, 0
	return c.finish(t)
}

func (c *Controller) restore() {
	c.state = c.prior
	c.committed = c.priorRange
	c.anchor, c.current = 0, 0
}

func (c *Controller) begin(e Event) Transition {
	return Transition{Event: e, From: c.state}
}

func (c *Controller) ignore(t Transition) Transition {
	t.Ignored = true
	return c.finish(t)
}

func (c *Controller) finish(t Transition) Transition {
	t.To = c.state
	if r, ok := c.Range(); ok {
		t.Range = &r
	}
	if m, ok := c.Marquee(); ok {
		t.Marquee = &m
	}
	return t
}

func invalid(pos float64) bool {
	return math.IsNaN(pos) || math.IsInf(pos, 0)
}
