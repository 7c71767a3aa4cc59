package retained

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/raykavin/pikachart/pkg/core"
)

type hoverState struct {
	hit       core.Hit
	x, y      float64
	secondary bool
}

// DataAtPoint maps device coordinates through the last render's plot area
// and ranges. Hidden datasets never match.
func (a *Adapter) DataAtPoint(x, y float64) (core.Hit, bool) {
	a.Lock()
	defer a.Unlock()

	h, ok := a.locate(x, y)
	return h.hit, ok
}

func (a *Adapter) locate(x, y float64) (hoverState, bool) {
	if !a.alive() || !a.rendered {
		return hoverState{}, false
	}
	if a.chart == nil {
		return a.locateSlice(x, y)
	}

	g := a.geometry
	box := g.box
	if box.Width() <= 0 || box.Height() <= 0 || g.x.delta() == 0 {
		return hoverState{}, false
	}

	var (
		best     hoverState
		bestDist = math.Inf(1)
	)
	for _, ds := range a.datasets {
		if ds.hidden {
			continue
		}
		yr := g.y
		if ds.secondary {
			yr = g.y2
		}
		if yr.delta() == 0 {
			continue
		}
		for i, p := range ds.points {
			pos := a.domain.position(p)
			px := float64(box.Left) + (pos-g.x.min)/g.x.delta()*float64(box.Width())
			py := float64(box.Bottom) - (ds.values[i]-yr.min)/yr.delta()*float64(box.Height())
			d := math.Hypot(px-x, py-y)
			if d <= hitTolerance && d < bestDist {
				bestDist = d
				best = hoverState{
					hit:       core.Hit{Series: ds.label, Point: p},
					x:         pos,
					y:         ds.values[i],
					secondary: ds.secondary,
				}
			}
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

func (a *Adapter) locateSlice(x, y float64) (hoverState, bool) {
	for _, p := range a.geometry.pies {
		dx, dy := x-p.cx, y-p.cy
		if math.Hypot(dx, dy) > p.radius {
			continue
		}
		angle := math.Atan2(dy, dx)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		for _, s := range p.slices {
			if angle >= s.from && angle < s.to {
				return hoverState{hit: core.Hit{Series: s.series, Point: s.point}}, true
			}
		}
	}
	return hoverState{}, false
}

// PointerMove shows a tooltip annotation next to the hovered point.
func (a *Adapter) PointerMove(x, y float64) {
	a.Lock()
	defer a.Unlock()

	if a.chart == nil || !a.options.ShowTooltip {
		return
	}
	h, ok := a.locate(x, y)
	if !ok {
		a.clearHover()
		return
	}
	if a.hover != nil && a.hover.hit.Series == h.hit.Series && a.hover.hit.Point.X.Equal(h.hit.Point.X) {
		return
	}
	a.hover = &h
	a.draw(modeNone)
}

func (a *Adapter) PointerLeave() {
	a.Lock()
	defer a.Unlock()
	a.clearHover()
}

// Tooltip returns the text of the active tooltip, empty when none is shown.
func (a *Adapter) Tooltip() string {
	a.Lock()
	defer a.Unlock()
	if a.hover == nil {
		return ""
	}
	return tooltipText(a.hover.hit)
}

func (a *Adapter) clearHover() {
	if a.hover == nil {
		return
	}
	a.hover = nil
	if a.alive() {
		a.draw(modeNone)
	}
}

func (a *Adapter) tooltipAnnotation(h hoverState) chart.Series {
	axis := chart.YAxisPrimary
	if h.secondary {
		axis = chart.YAxisSecondary
	}
	return chart.AnnotationSeries{
		YAxis: axis,
		Annotations: []chart.Value2{{
			XValue: h.x,
			YValue: h.y,
			Label:  tooltipText(h.hit),
		}},
	}
}

func tooltipText(h core.Hit) string {
	x := h.Point.X.String()
	if h.Point.X.Kind() == core.XTime {
		x = h.Point.X.Time().Format(tooltipTimeFormat)
	}
	return fmt.Sprintf("%s %s: %s", x, h.Series, strconv.FormatFloat(h.Point.Y, 'f', -1, 64))
}
