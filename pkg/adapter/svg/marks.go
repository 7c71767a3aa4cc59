package svg

import (
	"fmt"
	"math"
	"strconv"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/scale"
	"github.com/raykavin/pikachart/pkg/scene"
)

const pieFrames = 8

func (a *Adapter) drawLines(g *scene.Node, f *frame, visible []entry) []legendItem {
	xOf, ticks := xScale(f, visible)
	drawAxes(g, f, ticks, a.options.ShowGrid)

	areas := scene.New("g").Set("class", "areas")
	lines := scene.New("g").Set("class", "lines")
	g.Append(areas, lines)

	legend := make([]legendItem, 0, len(visible))
	for _, e := range visible {
		pts := make([]scene.Point, len(e.series.Data))
		for i, p := range e.series.Data {
			pts[i] = scene.Point{X: xOf(i, p), Y: f.y.Map(p.Y)}
		}
		if e.kind == core.TypeArea {
			areas.Append(a.areaMark(f, e, pts))
		}
		lines.Append(a.lineMark(f, e, pts)...)
		legend = append(legend, legendItem{label: e.series.Name, color: e.color})
	}
	return legend
}

// drawBars lays grouped bars: an outer band per shared x key and an inner
// band per series.
func (a *Adapter) drawBars(g *scene.Node, f *frame, visible []entry) []legendItem {
	keys, labels := categoryKeys(visible)
	outer := scale.NewBand(keys, 0, f.w, 0.1)
	drawAxes(g, f, bandTicks(outer, keys, labels), a.options.ShowGrid)

	bars := scene.New("g").Set("class", "bars")
	g.Append(bars)
	a.barMarks(bars, f, outer, visible)

	legend := make([]legendItem, 0, len(visible))
	for _, e := range visible {
		legend = append(legend, legendItem{label: e.series.Name, color: e.color})
	}
	return legend
}

// drawMixed draws bars first, then area fills, then lines, all positioned on
// the shared x categories.
func (a *Adapter) drawMixed(g *scene.Node, f *frame, visible []entry) []legendItem {
	keys, labels := categoryKeys(visible)
	outer := scale.NewBand(keys, 0, f.w, 0.1)
	drawAxes(g, f, bandTicks(outer, keys, labels), a.options.ShowGrid)

	var barEntries, areaEntries, lineEntries []entry
	for _, e := range visible {
		switch e.kind {
		case core.TypeBar:
			barEntries = append(barEntries, e)
		case core.TypeArea:
			areaEntries = append(areaEntries, e)
			lineEntries = append(lineEntries, e)
		case core.TypeLine:
			lineEntries = append(lineEntries, e)
		}
	}

	bars := scene.New("g").Set("class", "bars")
	areas := scene.New("g").Set("class", "areas")
	lines := scene.New("g").Set("class", "lines")
	g.Append(bars, areas, lines)

	a.barMarks(bars, f, outer, barEntries)

	center := func(p core.DataPoint) float64 {
		x, _ := outer.Map(p.X.String())
		return x + outer.Bandwidth()/2
	}
	points := func(e entry) []scene.Point {
		pts := make([]scene.Point, len(e.series.Data))
		for i, p := range e.series.Data {
			pts[i] = scene.Point{X: center(p), Y: f.y.Map(p.Y)}
		}
		return pts
	}
	for _, e := range areaEntries {
		areas.Append(a.areaMark(f, e, points(e)))
	}
	for _, e := range lineEntries {
		lines.Append(a.lineMark(f, e, points(e))...)
	}

	legend := make([]legendItem, 0, len(visible))
	for _, e := range visible {
		if e.kind.Radial() {
			continue
		}
		legend = append(legend, legendItem{label: e.series.Name, color: e.color})
	}
	return legend
}

func (a *Adapter) barMarks(parent *scene.Node, f *frame, outer scale.Band, entries []entry) {
	if len(entries) == 0 {
		return
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = strconv.Itoa(e.index)
	}
	inner := scale.NewBand(ids, 0, outer.Bandwidth(), 0.05)

	for i, e := range entries {
		group := scene.New("g").Set("class", "series series-"+ids[i]).Set("fill", e.color)
		offset, _ := inner.Map(ids[i])
		for _, p := range e.series.Data {
			x0, ok := outer.Map(p.X.String())
			if !ok {
				continue
			}
			x := x0 + offset
			y := f.y.Map(p.Y)
			h := math.Max(f.h-y, 0)
			rect := scene.New("rect").
				Set("class", "bar").
				Set("x", x).Set("y", y).
				Set("width", inner.Bandwidth()).Set("height", h).
				Set("fill", e.color)
			if f.animate {
				rect.Animate("y", f.h, y, core.TransitionDuration)
				rect.Animate("height", 0, h, core.TransitionDuration)
			}
			group.Append(rect)
			a.targets = append(a.targets, target{
				kind:   targetBar,
				series: e.series.Name,
				point:  p,
				x:      x + marginLeft,
				y:      y + marginTop,
				w:      inner.Bandwidth(),
				h:      h,
			})
		}
		parent.Append(group)
	}
}

func (a *Adapter) areaMark(f *frame, e entry, pts []scene.Point) *scene.Node {
	area := scene.NewPath(scene.AreaMonotoneX(pts, f.h)).
		Set("class", "area").
		Set("fill", e.color).
		Set("fill-opacity", 0.3).
		Set("stroke", "none")
	if f.animate {
		area.Animate("fill-opacity", 0, 0.3, core.TransitionDuration)
	}
	return area
}

// lineMark returns the curve followed by its point hit targets.
func (a *Adapter) lineMark(f *frame, e entry, pts []scene.Point) []*scene.Node {
	curve := scene.MonotoneX(pts)
	line := scene.NewPath(curve).
		Set("class", "line").
		Set("fill", "none").
		Set("stroke", e.color).
		Set("stroke-width", 2)
	if f.animate {
		length := curve.Length()
		line.Set("stroke-dasharray", fmt.Sprintf("%s %s", scene.Num(length), scene.Num(length))).
			Set("stroke-dashoffset", 0).
			Animate("stroke-dashoffset", length, 0, core.TransitionDuration)
	}

	nodes := []*scene.Node{line}
	for i, pt := range pts {
		circle := scene.New("circle").
			Set("class", "point").
			Set("cx", pt.X).Set("cy", pt.Y).
			Set("r", pointRadius).
			Set("fill", e.color)
		if f.animate {
			circle.Animate("r", 0, pointRadius, core.TransitionDuration)
		}
		nodes = append(nodes, circle)
		a.targets = append(a.targets, target{
			kind:   targetPoint,
			series: e.series.Name,
			point:  e.series.Data[i],
			x:      pt.X + marginLeft,
			y:      pt.Y + marginTop,
		})
	}
	return nodes
}

// drawPie lays every visible series as a ring, the first outermost, with
// slices in input order starting at twelve o'clock. Donut rings keep the
// centre hole free.
func (a *Adapter) drawPie(g *scene.Node, f *frame, visible []entry) []legendItem {
	if len(visible) == 0 {
		return nil
	}

	outer := math.Min(f.w, f.h) / 2
	hole := 0.0
	if a.options.Type == core.TypeDonut || visible[0].kind == core.TypeDonut {
		hole = outer * 0.6
	}
	band := (outer - hole) / float64(len(visible))
	cx, cy := f.w/2, f.h/2

	legend := make([]legendItem, 0, len(visible))
	for k, e := range visible {
		ringOuter := outer - float64(k)*band
		ringInner := ringOuter - band
		a.drawRing(g, f, e, cx, cy, ringInner, ringOuter)
		legend = append(legend, legendItem{label: e.series.Name, color: e.color})
	}
	return legend
}

func (a *Adapter) drawRing(g *scene.Node, f *frame, e entry, cx, cy, inner, outer float64) {
	total := 0.0
	for _, p := range e.series.Data {
		if p.Y > 0 {
			total += p.Y
		}
	}

	slices := scene.New("g").Set("class", "slices").Set("data-series", e.series.Name)
	g.Append(slices)

	angle := 0.0
	for i, p := range e.series.Data {
		if p.Y <= 0 || total == 0 {
			continue
		}
		sweep := p.Y / total * 2 * math.Pi
		a0, a1 := angle, angle+sweep
		angle = a1
		color := e.series.Color
		if color == "" {
			color = core.ColorAt(i)
		}

		path := scene.NewPath(scene.Slice(cx, cy, inner, outer, a0, a1)).
			Set("class", "slice").
			Set("fill", color).
			Set("stroke", "#ffffff").
			Set("stroke-width", 2)
		if f.animate {
			frames := make([]string, 0, pieFrames+1)
			for k := 0; k <= pieFrames; k++ {
				t := math.Max(float64(k)/pieFrames, 1e-4)
				frames = append(frames, scene.Slice(cx, cy, inner, outer, a0, a0+sweep*t).String())
			}
			path.AnimateValues("d", frames, core.TransitionDuration)
		}
		slices.Append(path)

		a.targets = append(a.targets, target{
			kind:   targetSlice,
			series: e.series.Name,
			point:  p,
			x:      cx + marginLeft,
			y:      cy + marginTop,
			inner:  inner,
			outer:  outer,
			a0:     a0,
			a1:     a1,
		})
	}
}
