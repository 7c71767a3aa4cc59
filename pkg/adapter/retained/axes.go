package retained

import (
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/raykavin/pikachart/pkg/core"
)

// SetAxes merges the patch into the held axes and rebuilds only the axis
// structs the patch touches. Datasets are left alone.
func (a *Adapter) SetAxes(patch core.Axes) error {
	a.Lock()
	defer a.Unlock()

	if a.destroyed {
		return core.ErrDestroyed
	}
	a.axes = a.axes.Merge(patch)
	if a.chart == nil {
		return nil
	}

	if patch.X != nil {
		a.applyXAxis()
	}
	if patch.Y != nil {
		applyYAxis(&a.chart.YAxis, a.axes.Y, a.options)
	}
	if patch.Y2 != nil {
		applyYAxis(&a.chart.YAxisSecondary, a.axes.Y2, a.options)
	}
	a.draw(modeNone)
	return nil
}

// Axes returns the held axes configuration.
func (a *Adapter) Axes() core.Axes {
	a.Lock()
	defer a.Unlock()
	return a.axes.Merge(core.Axes{})
}

func (a *Adapter) applyAxes() {
	if a.chart == nil {
		return
	}
	a.applyXAxis()
	applyYAxis(&a.chart.YAxis, a.axes.Y, a.options)
	applyYAxis(&a.chart.YAxisSecondary, a.axes.Y2, a.options)
}

func (a *Adapter) applyXAxis() {
	x := &a.chart.XAxis
	x.Style = axisStyle(a.options)
	x.GridMajorStyle, x.GridMinorStyle = gridStyles(a.options)
	x.Name = ""
	if o := a.axes.X; o != nil {
		x.Style.Hidden = o.Hidden
		x.Name = o.Label
	}
	x.NameStyle = axisStyle(a.options)
}

func applyYAxis(y *chart.YAxis, o *core.AxisOptions, options core.Options) {
	y.Style = axisStyle(options)
	y.GridMajorStyle, y.GridMinorStyle = gridStyles(options)
	y.Name = ""
	if o != nil {
		y.Style.Hidden = o.Hidden
		y.Name = o.Label
	}
	y.NameStyle = axisStyle(options)
}

// applyRangeOverrides pins explicit axis bounds onto the computed ranges.
// X bounds are in the unit of XValue.Float: milliseconds for timestamps.
func (a *Adapter) applyRangeOverrides() {
	if o := a.axes.X; o != nil {
		scale := 1.0
		if a.domain.kind == core.XTime {
			scale = float64(time.Millisecond)
		}
		overrideSpan(&a.geometry.x, o, scale)
	}
	if o := a.axes.Y; o != nil {
		overrideSpan(&a.geometry.y, o, 1)
	}
	if o := a.axes.Y2; o != nil {
		overrideSpan(&a.geometry.y2, o, 1)
	}
}

func overrideSpan(s *span, o *core.AxisOptions, scale float64) {
	if o.Min != nil {
		s.min = *o.Min * scale
	}
	if o.Max != nil {
		s.max = *o.Max * scale
	}
	if s.max <= s.min {
		s.max = s.min + scale
	}
}

// formatXAxis picks tick labels for the resolved x domain: a time format by
// granularity, explicit category ticks, or go-chart's numeric default.
func (a *Adapter) formatXAxis() {
	x := &a.chart.XAxis
	x.Ticks = nil
	x.ValueFormatter = nil

	switch a.domain.kind {
	case core.XTime:
		span := time.Duration(a.geometry.x.delta())
		x.ValueFormatter = chart.TimeValueFormatterWithFormat(timeFormats[granularity(span)])
	case core.XCategory:
		ticks := make([]chart.Tick, 0, len(a.domain.categories))
		for i, label := range a.domain.categories {
			ticks = append(ticks, chart.Tick{Value: float64(i), Label: label})
		}
		x.Ticks = ticks
	}
}

func axisStyle(options core.Options) chart.Style {
	if options.Theme == core.ThemeDark {
		return chart.Style{FontColor: hexColor("#e5e7eb"), StrokeColor: hexColor("#6b7280")}
	}
	return chart.Style{}
}

func gridStyles(options core.Options) (major, minor chart.Style) {
	if !options.ShowGrid {
		return chart.Style{Hidden: true}, chart.Style{Hidden: true}
	}
	color := drawing.ColorFromHex("9ca3af").WithAlpha(90)
	return chart.Style{StrokeColor: color, StrokeWidth: 1},
		chart.Style{StrokeColor: color.WithAlpha(40), StrokeWidth: 1}
}
