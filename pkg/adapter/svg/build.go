package svg

import (
	"math"
	"time"

	"github.com/StudioSol/set"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/scale"
	"github.com/raykavin/pikachart/pkg/scene"
)

type palette struct {
	background string
	text       string
	axis       string
}

var (
	lightPalette = palette{background: "#ffffff", text: "#374151", axis: "#6b7280"}
	darkPalette  = palette{background: "#1f2937", text: "#e5e7eb", axis: "#9ca3af"}
)

// entry is a visible series with its index in the full series list; colors
// are assigned by that global index.
type entry struct {
	series core.Series
	index  int
	kind   core.ChartType
	color  string
}

// frame carries what every drawing step needs for one build.
type frame struct {
	w, h    float64
	y       scale.Linear
	animate bool
	colors  palette
}

type xTick struct {
	pos   float64
	label string
}

type pipeline int

const (
	pipelineLines pipeline = iota
	pipelineBars
	pipelinePie
	pipelineMixed
)

// classify picks the drawing pipeline. More than one distinct cartesian type
// means a mixed chart; otherwise the first series decides.
func classify(series []core.Series, global core.ChartType) pipeline {
	types := make(map[core.ChartType]bool)
	for _, s := range series {
		if t := s.EffectiveType(global); !t.Radial() {
			types[t] = true
		}
	}
	if len(types) > 1 {
		return pipelineMixed
	}

	first := global
	if len(series) > 0 {
		first = series[0].EffectiveType(global)
	}
	switch first {
	case core.TypeBar:
		return pipelineBars
	case core.TypePie, core.TypeDonut:
		return pipelinePie
	}
	return pipelineLines
}

// build clears the root and redraws everything from series.
func (a *Adapter) build(series []core.Series, animate bool) {
	a.series = series
	a.targets = nil
	a.root.Clear()

	colors := lightPalette
	if a.options.Theme == core.ThemeDark {
		colors = darkPalette
	}
	a.root.Set("data-background", colors.background)
	a.root.Append(scene.New("rect").
		Set("width", a.width).
		Set("height", a.height).
		Set("fill", colors.background))

	f := &frame{
		w:       math.Max(float64(a.width-marginLeft-marginRight), 1),
		h:       math.Max(float64(a.height-marginTop-marginBottom), 1),
		animate: animate,
		colors:  colors,
	}
	a.yDomain = [2]float64{0, 1.1 * core.MaxY(series)}
	f.y = scale.NewLinear(a.yDomain[0], a.yDomain[1], f.h, 0)

	if a.options.Title != "" {
		a.root.Append(scene.New("text").
			Set("x", float64(a.width)/2).
			Set("y", 14).
			Set("text-anchor", "middle").
			Set("font-size", 13).
			Set("fill", colors.text).
			SetText(a.options.Title))
	}

	g := scene.New("g").
		Set("class", "chart").
		Set("transform", scene.Translate(marginLeft, marginTop))
	a.root.Append(g)

	visible := make([]entry, 0, len(series))
	for i, s := range series {
		if s.Hidden {
			continue
		}
		visible = append(visible, entry{
			series: s,
			index:  i,
			kind:   s.EffectiveType(a.options.Type),
			color:  core.SeriesColor(s, i),
		})
	}

	var legend []legendItem
	switch classify(series, a.options.Type) {
	case pipelineMixed:
		legend = a.drawMixed(g, f, visible)
	case pipelineBars:
		legend = a.drawBars(g, f, visible)
	case pipelinePie:
		legend = a.drawPie(g, f, visible)
	default:
		legend = a.drawLines(g, f, visible)
	}

	if a.options.ShowLegend {
		drawLegend(g, f, legend)
	}

	a.built = true
	a.publish()
}

// fadeOut marks the current chart group as transitioning to transparent.
func (a *Adapter) fadeOut() {
	for _, g := range a.root.Find(scene.ByClass("chart")) {
		g.Set("opacity", 0)
		g.Animate("opacity", 1, 0, core.TransitionDuration)
	}
	a.publish()
}

// xScale resolves how line x positions are computed: time if every x is a
// timestamp, linear if every x is numeric, otherwise by point order.
func xScale(f *frame, visible []entry) (func(i int, p core.DataPoint) float64, []xTick) {
	var (
		allTime, allNum = true, true
		times           []time.Time
		nums            []float64
		longest         int
		seen            bool
	)
	for _, e := range visible {
		longest = max(longest, len(e.series.Data))
		for _, p := range e.series.Data {
			seen = true
			switch p.X.Kind() {
			case core.XTime:
				allNum = false
				times = append(times, p.X.Time())
			case core.XNumeric:
				allTime = false
				nums = append(nums, p.X.Float())
			default:
				allTime, allNum = false, false
			}
		}
	}

	switch {
	case seen && allTime:
		lo, hi := times[0], times[0]
		for _, t := range times {
			if t.Before(lo) {
				lo = t
			}
			if t.After(hi) {
				hi = t
			}
		}
		s := scale.NewTime(lo, hi, 0, f.w)
		var ticks []xTick
		for _, t := range s.Ticks(6) {
			ticks = append(ticks, xTick{pos: s.Map(t.At), label: t.Label})
		}
		return func(_ int, p core.DataPoint) float64 { return s.Map(p.X.Time()) }, ticks

	case seen && allNum:
		lo, hi, _ := core.Extent(nums)
		s := scale.NewLinear(lo, hi, 0, f.w)
		return func(_ int, p core.DataPoint) float64 { return s.Map(p.X.Float()) }, linearTicks(s, 6)
	}

	s := scale.NewLinear(0, float64(max(longest-1, 0)), 0, f.w)
	labels := make([]string, longest)
	for _, e := range visible {
		for i, p := range e.series.Data {
			if labels[i] == "" {
				labels[i] = pointLabel(p)
			}
		}
	}
	var ticks []xTick
	stride := int(math.Ceil(float64(longest) / 10))
	for i := 0; i < longest; i += max(stride, 1) {
		ticks = append(ticks, xTick{pos: s.Map(float64(i)), label: labels[i]})
	}
	return func(i int, _ core.DataPoint) float64 { return s.Map(float64(i)) }, ticks
}

func linearTicks(s scale.Linear, count int) []xTick {
	lo, hi := s.Domain()
	step := scale.TickStep(lo, hi, count)
	var ticks []xTick
	for _, v := range s.Ticks(count) {
		ticks = append(ticks, xTick{pos: s.Map(v), label: scale.FormatTick(v, step)})
	}
	return ticks
}

// categoryKeys returns the insertion-ordered union of x keys.
func categoryKeys(visible []entry) ([]string, map[string]string) {
	keys := set.NewLinkedHashSetString()
	labels := make(map[string]string)
	for _, e := range visible {
		for _, p := range e.series.Data {
			k := p.X.String()
			keys.Add(k)
			if _, ok := labels[k]; !ok {
				labels[k] = pointLabel(p)
			}
		}
	}
	out := make([]string, 0, len(labels))
	for k := range keys.Iter() {
		out = append(out, k)
	}
	return out, labels
}

func bandTicks(band scale.Band, keys []string, labels map[string]string) []xTick {
	var ticks []xTick
	stride := max(int(math.Ceil(float64(len(keys))/10)), 1)
	for i := 0; i < len(keys); i += stride {
		x, _ := band.Map(keys[i])
		ticks = append(ticks, xTick{pos: x + band.Bandwidth()/2, label: labels[keys[i]]})
	}
	return ticks
}

func pointLabel(p core.DataPoint) string {
	if p.Label != "" {
		return p.Label
	}
	if p.X.Kind() == core.XTime {
		return p.X.Time().Format("Jan 02 15:04")
	}
	return p.X.String()
}

func drawAxes(g *scene.Node, f *frame, ticks []xTick, showGrid bool) {
	lo, hi := f.y.Domain()
	step := scale.TickStep(lo, hi, 5)
	yTicks := f.y.Ticks(5)

	if showGrid {
		grid := scene.New("g").Set("class", "grid").Set("opacity", 0.3)
		for _, v := range yTicks {
			y := f.y.Map(v)
			grid.Append(scene.New("line").
				Set("x1", 0).Set("x2", f.w).Set("y1", y).Set("y2", y).
				Set("stroke", f.colors.axis).
				Set("stroke-dasharray", "3,3"))
		}
		g.Append(grid)
	}

	xAxis := scene.New("g").Set("class", "x-axis").Set("transform", scene.Translate(0, f.h))
	xAxis.Append(scene.New("line").Set("x1", 0).Set("x2", f.w).Set("y1", 0).Set("y2", 0).Set("stroke", f.colors.axis))
	for _, t := range ticks {
		xAxis.Append(
			scene.New("line").Set("x1", t.pos).Set("x2", t.pos).Set("y1", 0).Set("y2", 6).Set("stroke", f.colors.axis),
			scene.New("text").Set("x", t.pos).Set("y", 18).
				Set("text-anchor", "middle").Set("font-size", 10).Set("fill", f.colors.text).
				SetText(t.label),
		)
	}

	yAxis := scene.New("g").Set("class", "y-axis")
	yAxis.Append(scene.New("line").Set("x1", 0).Set("x2", 0).Set("y1", 0).Set("y2", f.h).Set("stroke", f.colors.axis))
	for _, v := range yTicks {
		y := f.y.Map(v)
		yAxis.Append(
			scene.New("line").Set("x1", -6).Set("x2", 0).Set("y1", y).Set("y2", y).Set("stroke", f.colors.axis),
			scene.New("text").Set("x", -8).Set("y", y).
				Set("text-anchor", "end").Set("dominant-baseline", "middle").
				Set("font-size", 10).Set("fill", f.colors.text).
				SetText(scale.FormatTick(v, step)),
		)
	}
	g.Append(xAxis, yAxis)
}

type legendItem struct {
	label string
	color string
}

// drawLegend lays a row of swatches under the plot.
func drawLegend(g *scene.Node, f *frame, items []legendItem) {
	legend := scene.New("g").Set("class", "legend").Set("transform", scene.Translate(0, f.h+30))
	for i, item := range items {
		legend.Append(scene.New("g").
			Set("class", "legend-item").
			Set("transform", scene.Translate(float64(i*120), 0)).
			Append(
				scene.New("rect").Set("width", 10).Set("height", 10).Set("fill", item.color),
				scene.New("text").Set("x", 15).Set("y", 9).
					Set("font-size", 11).Set("fill", f.colors.text).
					SetText(item.label),
			))
	}
	g.Append(legend)
}
