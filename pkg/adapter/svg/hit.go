package svg

import (
	"fmt"
	"math"
	"strconv"

	"github.com/raykavin/pikachart/pkg/core"
)

type targetKind uint8

const (
	targetPoint targetKind = iota
	targetBar
	targetSlice
)

// target is a hit-testable mark in device coordinates. Points use x/y as the
// centre, bars as the top-left corner, slices as the pie centre.
type target struct {
	kind   targetKind
	series string
	point  core.DataPoint

	x, y float64
	w, h float64

	inner, outer float64
	a0, a1       float64
}

func (t target) contains(x, y float64) (float64, bool) {
	switch t.kind {
	case targetBar:
		inside := x >= t.x && x <= t.x+t.w && y >= t.y && y <= t.y+t.h
		return 0, inside
	case targetSlice:
		dx, dy := x-t.x, y-t.y
		r := math.Hypot(dx, dy)
		if r < t.inner || r > t.outer {
			return 0, false
		}
		angle := math.Atan2(dx, -dy)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		return 0, angle >= t.a0 && angle < t.a1
	}
	d := math.Hypot(x-t.x, y-t.y)
	return d, d <= hitTolerance
}

// DataAtPoint returns the nearest point target within tolerance, or the bar
// or slice under the pointer. Hidden series draw no targets.
func (a *Adapter) DataAtPoint(x, y float64) (core.Hit, bool) {
	a.Lock()
	defer a.Unlock()

	t, ok := a.locate(x, y)
	if !ok {
		return core.Hit{}, false
	}
	return core.Hit{Series: t.series, Point: t.point}, true
}

func (a *Adapter) locate(x, y float64) (target, bool) {
	if !a.alive() {
		return target{}, false
	}
	var (
		best     target
		bestDist = math.Inf(1)
	)
	for _, t := range a.targets {
		d, ok := t.contains(x, y)
		if ok && d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// PointerMove shows the tooltip overlay next to the mark under the pointer.
func (a *Adapter) PointerMove(x, y float64) {
	a.Lock()
	defer a.Unlock()

	if a.tooltip == nil || !a.options.ShowTooltip {
		return
	}
	t, ok := a.locate(x, y)
	if !ok {
		a.tooltip.SetStyle("opacity", "0")
		return
	}
	a.tooltip.SetText(tooltipText(t))
	a.tooltip.SetStyle("opacity", "0.9")
	a.tooltip.SetStyle("left", fmt.Sprintf("%dpx", int(x)+10))
	a.tooltip.SetStyle("top", fmt.Sprintf("%dpx", int(y)-28))
}

func (a *Adapter) PointerLeave() {
	a.Lock()
	defer a.Unlock()

	if a.tooltip != nil {
		a.tooltip.SetStyle("opacity", "0")
	}
}

// Tooltip returns the overlay text and whether it is shown.
func (a *Adapter) Tooltip() (string, bool) {
	a.Lock()
	defer a.Unlock()

	if a.tooltip == nil {
		return "", false
	}
	return a.tooltip.Text(), a.tooltip.Style("opacity") != "0"
}

func tooltipText(t target) string {
	return t.series + ": " + strconv.FormatFloat(t.point.Y, 'f', -1, 64)
}
