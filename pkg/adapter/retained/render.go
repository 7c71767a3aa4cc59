package retained

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"math"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/raykavin/pikachart/pkg/core"
)

var (
	piePadding   = chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}
	chartPadding = chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}
)

type span struct {
	min, max float64
}

func (s span) delta() float64 { return s.max - s.min }

// geometry is what hit-testing needs from the last render.
type geometry struct {
	box  chart.Box
	x    span
	y    span
	y2   span
	pies []pie
}

// pie is the disc drawn for one visible dataset of a radial chart.
type pie struct {
	cx, cy float64
	radius float64
	slices []slice
}

// radialCell is the canvas strip a single pie is rendered into.
type radialCell struct {
	offset int
	width  int
	title  string
	values []chart.Value
}

type slice struct {
	from, to float64
	series   string
	point    core.DataPoint
}

// draw rebuilds the series collection of the held chart object and renders
// a new frame. go-chart failures leave a blank frame and are only logged.
func (a *Adapter) draw(mode string) {
	var (
		buf bytes.Buffer
		err error
	)
	switch {
	case a.chart != nil:
		a.populateChart()
		err = a.chart.Render(chart.PNG, &buf)
	case a.pie != nil, a.donut != nil:
		err = a.renderRadial(core.FormatPNG, &buf)
	}
	if err != nil {
		a.log.WithError(err).Debug("render failed, drawing blank frame")
		buf.Reset()
		a.blank(&buf)
	}

	a.frame = buf.Bytes()
	a.canvas.SetContent(a.frame)
	a.rendered = true
	a.lastMode = mode
	a.renders++
}

func (a *Adapter) backgroundHex() string {
	if a.options.Theme == core.ThemeDark {
		return "#1f2937"
	}
	return "#ffffff"
}

func (a *Adapter) blank(buf *bytes.Buffer) {
	dc := gg.NewContext(a.width, a.height)
	dc.SetHexColor(a.backgroundHex())
	dc.Clear()
	if err := dc.EncodePNG(buf); err != nil {
		a.log.WithError(err).Error("encode blank frame")
	}
}

// populateChart replaces the chart's series collection and ranges from the
// current datasets.
func (a *Adapter) populateChart() {
	a.domain = resolveXDomain(visible(a.datasets))
	a.geometry = geometry{box: a.fallbackBox()}

	series := make([]chart.Series, 0, len(a.datasets)+1)
	var xs, ys, y2s []float64
	for _, ds := range a.datasets {
		if len(ds.points) == 0 {
			continue
		}
		series = append(series, a.toSeries(ds))
		if ds.hidden {
			continue
		}
		for i, p := range ds.points {
			xs = append(xs, a.domain.position(p))
			if ds.secondary {
				y2s = append(y2s, ds.values[i])
			} else {
				ys = append(ys, ds.values[i])
			}
		}
	}

	a.geometry.x = xRange(xs, a.domain)
	a.geometry.y = yRange(ys)
	a.geometry.y2 = yRange(y2s)
	a.applyRangeOverrides()

	if a.hover != nil && a.options.ShowTooltip {
		series = append(series, a.tooltipAnnotation(*a.hover))
	}

	a.chart.Series = series
	a.chart.XAxis.Range = &chart.ContinuousRange{Min: a.geometry.x.min, Max: a.geometry.x.max}
	a.chart.YAxis.Range = &chart.ContinuousRange{Min: a.geometry.y.min, Max: a.geometry.y.max}
	a.chart.YAxisSecondary.Range = &chart.ContinuousRange{Min: a.geometry.y2.min, Max: a.geometry.y2.max}
	a.formatXAxis()
}

func (a *Adapter) toSeries(ds dataset) chart.Series {
	color := hexColor(ds.color)
	style := chart.Style{
		Hidden:      ds.hidden,
		StrokeColor: color,
		StrokeWidth: 2,
		DotColor:    color,
		DotWidth:    3,
	}
	if ds.fill {
		style.FillColor = color.WithAlpha(64)
	}
	axis := chart.YAxisPrimary
	if ds.secondary {
		axis = chart.YAxisSecondary
	}

	idx := a.domain.sortedIndexes(ds)
	ys := make([]float64, len(idx))
	for i, j := range idx {
		ys[i] = ds.values[j]
	}

	var (
		line   chart.Series
		values chart.ValuesProvider
	)
	if a.domain.kind == core.XTime {
		times := make([]time.Time, len(idx))
		for i, j := range idx {
			times[i] = ds.points[j].X.Time()
		}
		ts := chart.TimeSeries{Name: ds.label, Style: style, YAxis: axis, XValues: times, YValues: ys}
		line, values = ts, ts
	} else {
		xs := make([]float64, len(idx))
		for i, j := range idx {
			xs[i] = a.domain.position(ds.points[j])
		}
		cs := chart.ContinuousSeries{Name: ds.label, Style: style, YAxis: axis, XValues: xs, YValues: ys}
		line, values = cs, cs
	}

	if ds.kind == core.TypeBar {
		style.FillColor = color.WithAlpha(200)
		style.StrokeWidth = 1
		return chart.HistogramSeries{Name: ds.label, Style: style, YAxis: axis, InnerSeries: values}
	}
	return line
}

// renderRadial draws one pie per visible dataset in equal strips from left
// to right. A single dataset fills the canvas under the chart title; several
// datasets are titled with their labels.
func (a *Adapter) renderRadial(format core.ImageFormat, w io.Writer) error {
	rp := chart.PNG
	if format == core.FormatSVG {
		rp = chart.SVG
	}
	cells := a.radialCells()
	switch len(cells) {
	case 0:
		return a.renderCell(rp, w, radialCell{width: a.width, title: a.options.Title})
	case 1:
		return a.renderCell(rp, w, cells[0])
	}
	if format == core.FormatSVG {
		return a.composeSVG(w, cells)
	}
	return a.composeRaster(w, cells)
}

func (a *Adapter) radialCells() []radialCell {
	a.geometry = geometry{}
	shown := visible(a.datasets)
	if len(shown) == 0 {
		return nil
	}

	width := a.width / len(shown)
	cells := make([]radialCell, 0, len(shown))
	for i, ds := range shown {
		cell := radialCell{offset: i * width, width: width, title: ds.label}
		if len(shown) == 1 {
			cell.width, cell.title = a.width, a.options.Title
		}
		p := pieGeometry(cell.offset, cell.width, a.height)
		cell.values = pieValues(ds, &p)
		a.geometry.pies = append(a.geometry.pies, p)
		cells = append(cells, cell)
	}
	return cells
}

// renderCell renders a copy of the held chart object sized to the cell.
func (a *Adapter) renderCell(rp chart.RendererProvider, w io.Writer, cell radialCell) error {
	if a.pie != nil {
		pc := *a.pie
		pc.Width, pc.Title, pc.Values = cell.width, cell.title, cell.values
		return pc.Render(rp, w)
	}
	dc := *a.donut
	dc.Width, dc.Title, dc.Values = cell.width, cell.title, cell.values
	return dc.Render(rp, w)
}

// composeRaster pastes each cell's frame onto one canvas. A cell that cannot
// render, such as a dataset with no positive values, stays background.
func (a *Adapter) composeRaster(w io.Writer, cells []radialCell) error {
	dc := gg.NewContext(a.width, a.height)
	dc.SetHexColor(a.backgroundHex())
	dc.Clear()
	for _, cell := range cells {
		var buf bytes.Buffer
		if err := a.renderCell(chart.PNG, &buf, cell); err != nil {
			a.log.WithError(err).WithField("series", cell.title).Debug("pie cell skipped")
			continue
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return err
		}
		dc.DrawImage(img, cell.offset, 0)
	}
	return dc.EncodePNG(w)
}

// composeSVG nests each cell's document in a viewport of its own.
func (a *Adapter) composeSVG(w io.Writer, cells []radialCell) error {
	var body bytes.Buffer
	fmt.Fprintf(&body, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d" viewBox="0 0 %d %d">`,
		a.width, a.height, a.width, a.height)
	fmt.Fprintf(&body, `<rect width="%d" height="%d" fill="%s"/>`, a.width, a.height, a.backgroundHex())
	for _, cell := range cells {
		var inner bytes.Buffer
		if err := a.renderCell(chart.SVG, &inner, cell); err != nil {
			a.log.WithError(err).WithField("series", cell.title).Debug("pie cell skipped")
			continue
		}
		fmt.Fprintf(&body, `<svg x="%d" y="0" width="%d" height="%d">`, cell.offset, cell.width, a.height)
		body.Write(inner.Bytes())
		body.WriteString("</svg>")
	}
	body.WriteString("</svg>")
	_, err := w.Write(body.Bytes())
	return err
}

// pieValues lays the positive values of ds as slices of p. An explicit
// series color paints every slice; otherwise slices take palette colors.
func pieValues(ds dataset, p *pie) []chart.Value {
	total := 0.0
	for _, v := range ds.values {
		if v > 0 {
			total += v
		}
	}

	values := make([]chart.Value, 0, len(ds.points))
	angle := 0.0
	for i, pt := range ds.points {
		v := ds.values[i]
		if v <= 0 {
			continue
		}
		label := pt.Label
		if label == "" {
			label = pt.X.String()
		}
		values = append(values, chart.Value{
			Label: label,
			Value: v,
			Style: chart.Style{FillColor: hexColor(ds.sliceColor(i)), StrokeColor: drawing.ColorWhite, StrokeWidth: 2},
		})
		sweep := v / total * 2 * math.Pi
		p.slices = append(p.slices, slice{from: angle, to: angle + sweep, series: ds.label, point: pt})
		angle += sweep
	}
	return values
}

// pieGeometry mirrors go-chart's square canvas fit inside the padded cell.
func pieGeometry(offset, width, height int) pie {
	box := chart.Box{
		Top:    piePadding.Top,
		Left:   offset + piePadding.Left,
		Right:  offset + width - piePadding.Right,
		Bottom: height - piePadding.Bottom,
	}
	return pie{
		cx:     float64(box.Left+box.Right) / 2,
		cy:     float64(box.Top+box.Bottom) / 2,
		radius: float64(min(box.Width(), box.Height())) / 2,
	}
}

// fallbackBox approximates the plot area until go-chart reports the real
// canvas box during render.
func (a *Adapter) fallbackBox() chart.Box {
	return chart.Box{
		Top:    chartPadding.Top,
		Left:   chartPadding.Left + 40,
		Right:  a.width - chartPadding.Right,
		Bottom: a.height - chartPadding.Bottom - 20,
	}
}

// captureCanvasBox runs as a chart element and records the plot area.
func (a *Adapter) captureCanvasBox(_ chart.Renderer, canvasBox chart.Box, _ chart.Style) {
	a.geometry.box = canvasBox
}

func (a *Adapter) backgroundStyle() chart.Style {
	style := chart.Style{Padding: chartPadding}
	if a.options.Type.Radial() {
		style.Padding = piePadding
	}
	if a.options.Theme == core.ThemeDark {
		style.FillColor = hexColor("#1f2937")
		style.FontColor = hexColor("#e5e7eb")
	}
	return style
}

func (a *Adapter) canvasStyle() chart.Style {
	if a.options.Theme == core.ThemeDark {
		return chart.Style{FillColor: hexColor("#1f2937")}
	}
	return chart.Style{}
}

func visible(datasets []dataset) []dataset {
	out := make([]dataset, 0, len(datasets))
	for _, ds := range datasets {
		if !ds.hidden {
			out = append(out, ds)
		}
	}
	return out
}

func xRange(xs []float64, domain xDomain) span {
	lo, hi, ok := core.Extent(xs)
	if !ok {
		return span{0, 1}
	}
	if domain.kind == core.XCategory {
		return span{lo - 0.5, hi + 0.5}
	}
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.01, 1)
		if domain.kind == core.XTime {
			pad = float64(time.Hour)
		}
		return span{lo - pad, hi + pad}
	}
	return span{lo, hi}
}

func yRange(ys []float64) span {
	lo, hi, ok := core.Extent(ys)
	if !ok {
		return span{0, 1}
	}
	lo = math.Min(lo, 0)
	if hi <= lo {
		hi = lo + 1
	}
	return span{lo, hi + (hi-lo)*0.05}
}

func hexColor(c string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(c, "#"))
}
