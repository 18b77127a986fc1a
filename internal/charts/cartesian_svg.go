package charts

import (
	"html"
	"io"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"windscope/internal/chartview"
	"windscope/internal/geometry"
)

var (
	marqueeFill   = drawing.Color{R: 51, G: 102, B: 204, A: 40}
	marqueeStroke = drawing.Color{R: 51, G: 102, B: 204, A: 160}
	gridColor     = drawing.Color{R: 220, G: 220, B: 220, A: 255}
)

// lineSeries draws a visible line or scatter layer, breaking the path at missing points
type lineSeries struct {
	name    string
	color   drawing.Color
	axis    chart.YAxisType
	points  []chartview.PlotPoint
	scatter bool
	dashed  bool
}

func (ls lineSeries) GetName() string           { return ls.name }
func (ls lineSeries) GetYAxis() chart.YAxisType { return ls.axis }
func (ls lineSeries) Validate() error           { return nil }
func (ls lineSeries) GetStyle() chart.Style {
	return chart.Style{StrokeColor: ls.color, StrokeWidth: 2, DotColor: ls.color}
}

func (ls lineSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, defaults chart.Style) {
	r.ResetStyle()
	r.SetStrokeColor(ls.color)
	r.SetStrokeWidth(2)
	if ls.dashed {
		r.SetStrokeDashArray([]float64{6, 3})
	}

	if ls.scatter {
		r.SetFillColor(ls.color)
		for _, p := range ls.points {
			if p.Valid {
				r.Circle(3, canvasBox.Left+xrange.Translate(p.X), canvasBox.Bottom-yrange.Translate(p.Y))
			}
		}
		return
	}

	open := false
	for _, p := range ls.points {
		if !p.Valid {
			if open {
				r.Stroke()
				open = false
			}
			continue
		}
		x := canvasBox.Left + xrange.Translate(p.X)
		y := canvasBox.Bottom - yrange.Translate(p.Y)
		if !open {
			r.MoveTo(x, y)
			open = true
			continue
		}
		r.LineTo(x, y)
	}
	if open {
		r.Stroke()
	}
}

// bandSeries fills the area between upper and lower bounds, one polygon per run of valid points
type bandSeries struct {
	name   string
	color  drawing.Color
	axis   chart.YAxisType
	points []chartview.BandPoint
}

func (bs bandSeries) GetName() string           { return bs.name }
func (bs bandSeries) GetYAxis() chart.YAxisType { return bs.axis }
func (bs bandSeries) Validate() error           { return nil }
func (bs bandSeries) GetStyle() chart.Style {
	return chart.Style{FillColor: bs.color.WithAlpha(60), StrokeColor: bs.color}
}

func (bs bandSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, defaults chart.Style) {
	r.ResetStyle()
	r.SetFillColor(bs.color.WithAlpha(60))
	r.SetStrokeColor(bs.color.WithAlpha(120))
	r.SetStrokeWidth(1)

	var run []chartview.BandPoint
	flush := func() {
		if len(run) > 0 {
			bs.fill(r, canvasBox, xrange, yrange, run)
		}
		run = run[:0]
	}
	for _, p := range bs.points {
		if !p.Valid {
			flush()
			continue
		}
		run = append(run, p)
	}
	flush()
}

func (bs bandSeries) fill(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, run []chartview.BandPoint) {
	px := func(p chartview.BandPoint) int { return canvasBox.Left + xrange.Translate(p.X) }
	for i, p := range run {
		y := canvasBox.Bottom - yrange.Translate(p.Upper)
		if i == 0 {
			r.MoveTo(px(p), y)
		} else {
			r.LineTo(px(p), y)
		}
	}
	for i := len(run) - 1; i >= 0; i-- {
		r.LineTo(px(run[i]), canvasBox.Bottom-yrange.Translate(run[i].Lower))
	}
	r.Close()
	r.FillStroke()
}

// marqueeSeries shades the in-progress selection. It stays visible while there is no other layer
// because go-chart refuses to render a chart without a visible series.
type marqueeSeries struct {
	marquee *chartview.MarqueeFrame
	hidden  bool
}

func (ms marqueeSeries) GetName() string           { return "Selection" }
func (ms marqueeSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (ms marqueeSeries) Validate() error           { return nil }
func (ms marqueeSeries) GetStyle() chart.Style {
	return chart.Style{FillColor: marqueeFill, StrokeColor: marqueeStroke, Hidden: ms.hidden}
}

func (ms marqueeSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, defaults chart.Style) {
	if ms.marquee == nil {
		return
	}
	x0 := canvasBox.Left + xrange.Translate(ms.marquee.Lower)
	x1 := canvasBox.Left + xrange.Translate(ms.marquee.Upper)
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	r.ResetStyle()
	r.SetFillColor(marqueeFill)
	r.SetStrokeColor(marqueeStroke)
	r.SetStrokeWidth(1)
	r.MoveTo(x0, canvasBox.Top)
	r.LineTo(x1, canvasBox.Top)
	r.LineTo(x1, canvasBox.Bottom)
	r.LineTo(x0, canvasBox.Bottom)
	r.Close()
	r.FillStroke()
}

// renderCartesianSVG draws a time series or scatter frame with go-chart. go-chart writes text
// verbatim, so every label is escaped first.
func renderCartesianSVG(w io.Writer, f chartview.Frame) error {
	xd := openDomain(f.XAxis.Domain)
	yd := openDomain(f.YAxis.Domain)

	graph := chart.Chart{
		Title:      html.EscapeString(f.Title),
		TitleStyle: chart.Style{FontSize: 14, FontColor: drawing.ColorBlack},
		Width:      int(f.Width),
		Height:     int(f.Height),
		Background: chart.Style{
			Padding: chart.Box{
				Top:    int(f.Plot.Top),
				Left:   int(f.Plot.Left),
				Right:  int(f.Width - f.Plot.Right),
				Bottom: int(f.Height - f.Plot.Bottom),
			},
		},
		XAxis: chart.XAxis{
			Name:           html.EscapeString(f.XAxis.Label),
			NameStyle:      chart.Style{FontSize: 11},
			Style:          chart.Style{FontSize: 9},
			Range:          &chart.ContinuousRange{Min: xd.Min, Max: xd.Max},
			Ticks:          axisTicks(f.XAxis.Ticks, xd),
			GridMajorStyle: chart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		YAxis: chart.YAxis{
			Name:           html.EscapeString(f.YAxis.Label),
			NameStyle:      chart.Style{FontSize: 11},
			Style:          chart.Style{FontSize: 9},
			Range:          &chart.ContinuousRange{Min: yd.Min, Max: yd.Max},
			Ticks:          axisTicks(f.YAxis.Ticks, yd),
			GridMajorStyle: chart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		YAxisSecondary: chart.YAxis{Style: chart.Style{Hidden: true}},
	}
	if f.Y2Axis != nil {
		y2 := openDomain(f.Y2Axis.Domain)
		graph.YAxisSecondary = chart.YAxis{
			Name:      html.EscapeString(f.Y2Axis.Label),
			NameStyle: chart.Style{FontSize: 11},
			Style:     chart.Style{FontSize: 9},
			Range:     &chart.ContinuousRange{Min: y2.Min, Max: y2.Max},
		}
	}

	for _, b := range f.Bands {
		graph.Series = append(graph.Series, bandSeries{
			name:   html.EscapeString(b.Label),
			color:  parseColor(b.Color),
			axis:   yAxisType(b.Axis),
			points: b.Points,
		})
	}
	for _, l := range f.Lines {
		graph.Series = append(graph.Series, lineSeries{
			name:    html.EscapeString(l.Label),
			color:   parseColor(l.Color),
			axis:    yAxisType(l.Axis),
			points:  l.Points,
			scatter: l.Scatter,
			dashed:  l.Kind == chartview.KindMovingAverage,
		})
	}
	graph.Series = append(graph.Series, marqueeSeries{
		marquee: f.Marquee,
		hidden:  f.Marquee == nil && len(graph.Series) > 0,
	})
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.SVG, w)
}

// axisTicks converts frame ticks and pins unlabelled ticks at both ends so go-chart keeps the
// domain instead of shrinking the axis to the labelled ticks
func axisTicks(ticks []chartview.Tick, d geometry.Domain) []chart.Tick {
	out := make([]chart.Tick, 0, len(ticks)+2)
	hasMin, hasMax := false, false
	for _, t := range ticks {
		out = append(out, chart.Tick{Value: t.Value, Label: t.Label})
		hasMin = hasMin || t.Value == d.Min
		hasMax = hasMax || t.Value == d.Max
	}
	if !hasMin {
		out = append(out, chart.Tick{Value: d.Min})
	}
	if !hasMax {
		out = append(out, chart.Tick{Value: d.Max})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// openDomain widens a zero-width domain so the renderer has a non-empty range
func openDomain(d geometry.Domain) geometry.Domain {
	if d.Max < d.Min {
		d.Min, d.Max = d.Max, d.Min
	}
	if d.Max-d.Min == 0 {
		return geometry.Domain{Min: d.Min - 0.5, Max: d.Max + 0.5}
	}
	return d
}

func yAxisType(a chartview.Axis) chart.YAxisType {
	if a == chartview.AxisSecondary {
		return chart.YAxisSecondary
	}
	return chart.YAxisPrimary
}

func parseColor(hex string) drawing.Color {
	if hex == "" {
		return drawing.Color{R: 51, G: 102, B: 204, A: 255}
	}
	return drawing.ParseColor(hex)
}
