package charts

import (
	"html"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"windscope/internal/chartview"
)

// wedgeSteps is the number of chords used to approximate each wedge arc
const wedgeSteps = 12

var (
	ringColor     = drawing.Color{R: 200, G: 200, B: 200, A: 255}
	selectedColor = drawing.Color{R: 0, G: 0, B: 0, A: 255}
	textColor     = drawing.Color{R: 51, G: 51, B: 51, A: 255}
	mutedColor    = drawing.Color{R: 136, G: 136, B: 136, A: 255}
)

// newCanvas opens a go-chart SVG renderer with the default font and a white background
func newCanvas(width, height int) (chart.Renderer, error) {
	r, err := chart.SVG(width, height)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetFont(font)

	r.SetFillColor(drawing.ColorWhite)
	r.SetStrokeColor(drawing.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.FillStroke()
	return r, nil
}

// drawCentered writes escaped text horizontally centered on x
func drawCentered(r chart.Renderer, body string, x, y int, size float64, color drawing.Color) {
	r.SetFontSize(size)
	r.SetFontColor(color)
	box := r.MeasureText(body)
	r.Text(html.EscapeString(body), x-box.Width()/2, y+box.Height()/2)
}

// writePolarSVG draws the stacked wind rose of a polar frame
func writePolarSVG(w io.Writer, f chartview.Frame) error {
	r, err := newCanvas(int(f.Width), int(f.Height))
	if err != nil {
		return err
	}
	cx, cy := int(f.Center.X), int(f.Center.Y)

	drawCentered(r, f.Title, int(f.Width/2), 14, 14, drawing.ColorBlack)

	for _, ring := range f.Rings {
		r.ResetStyle()
		r.SetStrokeColor(ringColor)
		r.SetStrokeWidth(1)
		r.SetStrokeDashArray([]float64{3, 3})
		r.Circle(ring.Radius, cx, cy)
		drawCentered(r, ring.Label, cx+4, cy-int(ring.Radius), 8, mutedColor)
	}

	for _, wedge := range f.Wedges {
		pts := wedge.Path.Polygon(wedgeSteps)
		if len(pts) < 3 {
			continue
		}
		r.ResetStyle()
		r.SetFillColor(parseColor(wedge.Color))
		r.SetStrokeColor(drawing.ColorWhite)
		r.SetStrokeWidth(0.5)
		if wedge.BinLabel == f.Selected {
			r.SetStrokeColor(selectedColor)
			r.SetStrokeWidth(1.5)
		}
		r.MoveTo(int(pts[0].X), int(pts[0].Y))
		for _, p := range pts[1:] {
			r.LineTo(int(p.X), int(p.Y))
		}
		r.Close()
		r.FillStroke()
	}

	for _, s := range f.Sectors {
		drawCentered(r, s.Label, int(s.At.X), int(s.At.Y), 9, textColor)
	}

	drawPolarLegend(r, f)
	return r.Save(w)
}

// drawPolarLegend lists each class once in the order it first appears
func drawPolarLegend(r chart.Renderer, f chartview.Frame) {
	seen := map[string]bool{}
	x := int(f.Width) - 110
	y := int(f.Plot.Top) + 10
	r.SetFontSize(9)
	for _, wedge := range f.Wedges {
		if seen[wedge.ClassKey] {
			continue
		}
		seen[wedge.ClassKey] = true

		r.ResetStyle()
		r.SetFillColor(parseColor(wedge.Color))
		r.SetStrokeColor(parseColor(wedge.Color))
		r.MoveTo(x, y-8)
		r.LineTo(x+10, y-8)
		r.LineTo(x+10, y+2)
		r.LineTo(x, y+2)
		r.Close()
		r.FillStroke()

		r.SetFontSize(9)
		r.SetFontColor(textColor)
		r.Text(html.EscapeString(wedge.ClassKey), x+14, y+1)
		y += 14
	}
}

// writePlaceholderSVG draws the title and the no-data message on an empty canvas
func writePlaceholderSVG(w io.Writer, f chartview.Frame) error {
	width, height := int(f.Width), int(f.Height)
	if width <= 0 || height <= 0 {
		width, height = 960, 360
	}
	r, err := newCanvas(width, height)
	if err != nil {
		return err
	}
	drawCentered(r, f.Title, width/2, 14, 14, drawing.ColorBlack)
	message := f.Placeholder
	if message == "" {
		message = chartview.NoDataMessage
	}
	drawCentered(r, message, width/2, height/2, 13, mutedColor)
	return r.Save(w)
}
