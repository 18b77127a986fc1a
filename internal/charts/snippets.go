package charts

import (
	"fmt"
	"html"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"windscope/internal/chartview"
)

// echartsCDN is the script tag loading the ECharts runtime used by every snippet
const echartsCDN = `<script src="https://cdn.jsdelivr.net/npm/echarts@5.4.3/dist/echarts.min.js"></script>`

// ChartSnippet represents an embeddable go-echarts chart fragment.
// Div should contain a single root <div id="..." style="..."></div>
// Script should contain the <script>...</script> block that initializes the chart in that div.
// HTML contains the complete snippet with div + script combined for template substitution.
type ChartSnippet struct {
	ID     string
	Title  string
	Div    string
	Script string
	HTML   string
}

// RenderSnippet builds the interactive ECharts version of a frame. The data is the frame's
// visible window; the inside and slider zoom only narrow it further on the client.
func (cg *ChartGenerator) RenderSnippet(f chartview.Frame) (ChartSnippet, error) {
	if f.Empty() {
		return placeholderSnippet(f), nil
	}

	var element, script string
	switch f.Kind {
	case chartview.ChartPolar:
		bar := roseBar(f)
		s := bar.RenderSnippet()
		element, script = s.Element, s.Script
	case chartview.ChartTimeSeries, chartview.ChartScatter:
		line := lineChart(f)
		s := line.RenderSnippet()
		element, script = s.Element, s.Script
	default:
		return ChartSnippet{}, fmt.Errorf("unsupported chart kind %q", f.Kind)
	}

	completeHTML := fmt.Sprintf(`%s
<div class="chart-container">
	<h3>%s</h3>
	%s
</div>
%s`, echartsCDN, html.EscapeString(f.Title), element, script)

	return ChartSnippet{ID: f.ChartID, Title: f.Title, Div: element, Script: script, HTML: completeHTML}, nil
}

func placeholderSnippet(f chartview.Frame) ChartSnippet {
	div := fmt.Sprintf(`<div id="%s" class="chart-placeholder" style="width:%dpx;height:%dpx;display:flex;align-items:center;justify-content:center;color:#888;">%s</div>`,
		f.ChartID, int(f.Width), int(f.Height), html.EscapeString(f.Placeholder))
	completeHTML := fmt.Sprintf(`<div class="chart-container">
	<h3>%s</h3>
	%s
</div>`, html.EscapeString(f.Title), div)
	return ChartSnippet{ID: f.ChartID, Title: f.Title, Div: div, HTML: completeHTML}
}

func initOpts(f chartview.Frame) opts.Initialization {
	return opts.Initialization{
		ChartID:         f.ChartID,
		Width:           fmt.Sprintf("%dpx", int(f.Width)),
		Height:          fmt.Sprintf("%dpx", int(f.Height)),
		BackgroundColor: "#ffffff",
	}
}

// lineChart maps a cartesian frame onto a go-echarts line chart. Time series use the point keys as
// a category axis; scatter frames plot [x, y] pairs on a value axis.
func lineChart(f chartview.Frame) *charts.Line {
	category := f.Kind == chartview.ChartTimeSeries

	xAxis := opts.XAxis{Name: f.XAxis.Label, Type: "value", Min: f.XAxis.Domain.Min, Max: f.XAxis.Domain.Max}
	if category {
		xAxis = opts.XAxis{Name: f.XAxis.Label, Type: "category"}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(f)),
		charts.WithTitleOpts(opts.Title{Title: f.Title}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(opts.YAxis{
			Name: f.YAxis.Label,
			Type: "value",
			Min:  f.YAxis.Domain.Min,
			Max:  f.YAxis.Domain.Max,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside", Start: 0, End: 100, XAxisIndex: []int{0}},
			opts.DataZoom{Type: "slider", Start: 0, End: 100, XAxisIndex: []int{0}},
		),
	)
	if f.Y2Axis != nil {
		line.ExtendYAxis(opts.YAxis{
			Name:     f.Y2Axis.Label,
			Type:     "value",
			Position: "right",
			Min:      f.Y2Axis.Domain.Min,
			Max:      f.Y2Axis.Domain.Max,
		})
	}
	if category {
		line.SetXAxis(f.Keys)
	}

	for _, b := range f.Bands {
		upper := make([]opts.LineData, len(b.Points))
		lower := make([]opts.LineData, len(b.Points))
		for i, p := range b.Points {
			upper[i] = pointData(category, p.X, p.Upper, p.Valid)
			lower[i] = pointData(category, p.X, p.Lower, p.Valid)
		}
		style := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: int(b.Axis), ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: b.Color, Width: 1, Type: "dashed"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: b.Color}),
		}
		line.AddSeries(b.Label+" (upper)", upper, style...)
		line.AddSeries(b.Label+" (lower)", lower, style...)
	}

	for _, l := range f.Lines {
		data := make([]opts.LineData, len(l.Points))
		for i, p := range l.Points {
			data[i] = pointData(category, p.X, p.Y, p.Valid)
		}
		lineStyle := opts.LineStyle{Color: l.Color, Width: 2}
		if l.Kind == chartview.KindMovingAverage {
			lineStyle.Type = "dashed"
		}
		if l.Scatter {
			lineStyle.Opacity = opts.Float(0)
		}
		line.AddSeries(l.Label, data,
			charts.WithLineChartOpts(opts.LineChart{
				YAxisIndex: int(l.Axis),
				ShowSymbol: opts.Bool(l.Scatter),
				SymbolSize: 5,
			}),
			charts.WithLineStyleOpts(lineStyle),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: l.Color}),
		)
	}
	return line
}

// pointData uses "-" for gaps, which ECharts draws as a break in the line
func pointData(category bool, x, y float64, valid bool) opts.LineData {
	var v interface{} = "-"
	if valid {
		v = y
	}
	if category {
		return opts.LineData{Value: v}
	}
	return opts.LineData{Value: []interface{}{x, v}}
}

// roseBar renders a polar frame as stacked bars per direction sector, one series per class
func roseBar(f chartview.Frame) *charts.Bar {
	var labels []string
	for _, s := range f.Sectors {
		labels = append(labels, s.Label)
	}

	type classSeries struct {
		color  string
		values []opts.BarData
	}
	var order []string
	classes := map[string]*classSeries{}
	for _, w := range f.Wedges {
		cs, ok := classes[w.ClassKey]
		if !ok {
			cs = &classSeries{color: w.Color, values: make([]opts.BarData, len(labels))}
			for i := range cs.values {
				cs.values[i] = opts.BarData{Value: 0}
			}
			classes[w.ClassKey] = cs
			order = append(order, w.ClassKey)
		}
		if w.Bin >= 0 && w.Bin < len(cs.values) {
			cs.values[w.Bin] = opts.BarData{Name: w.BinLabel, Value: w.Magnitude}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(f)),
		charts.WithTitleOpts(opts.Title{Title: f.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Direction", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: f.YAxis.Label, Type: "value"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	bar.SetXAxis(labels)
	for _, key := range order {
		cs := classes[key]
		bar.AddSeries(key, cs.values,
			charts.WithBarChartOpts(opts.BarChart{Stack: "rose"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: cs.color}),
		)
	}
	return bar
}
