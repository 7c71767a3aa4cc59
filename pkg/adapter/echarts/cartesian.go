package echarts

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samber/lo"

	"github.com/raykavin/pikachart/pkg/core"
)

// buildCartesian lays line, area and bar series on one coordinate system.
// Bars are overlapped onto the line chart so mixed types share axes.
func (a *Adapter) buildCartesian() *charts.Line {
	kind := xKind(a.options.Series)

	line := charts.NewLine()
	line.SetGlobalOptions(a.globalOptions()...)
	line.SetGlobalOptions(
		charts.WithXAxisOpts(a.xAxis(kind)),
		charts.WithYAxisOpts(yAxis(a.axes.Y)),
	)

	var categories []string
	if kind == core.XCategory {
		categories = categoryLabels(a.options.Series)
		line.SetXAxis(categories)
	}

	secondary := lo.ContainsBy(a.options.Series, func(s core.Series) bool { return s.YAxisID == "y2" })
	if secondary {
		line.ExtendYAxis(yAxis(a.axes.Y2))
	}

	bar := charts.NewBar()
	if kind == core.XCategory {
		bar.SetXAxis(categories)
	}
	hasBars := false

	for i, s := range a.options.Series {
		color := core.SeriesColor(s, i)
		axisIndex := 0
		if s.YAxisID == "y2" && secondary {
			axisIndex = 1
		}
		stack := ""
		if a.options.Stacked {
			stack = lo.Ternary(s.Stack != "", s.Stack, "total")
		}

		switch s.EffectiveType(a.options.Type) {
		case core.TypeBar:
			hasBars = true
			bar.AddSeries(s.Name, barData(s, kind, categories),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
				charts.WithBarChartOpts(opts.BarChart{Stack: stack, YAxisIndex: axisIndex}),
			)
		default:
			series := []charts.SeriesOpts{
				charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
				charts.WithLineStyleOpts(opts.LineStyle{Color: color}),
				charts.WithLineChartOpts(opts.LineChart{
					Smooth:     opts.Bool(true),
					Stack:      stack,
					YAxisIndex: axisIndex,
				}),
			}
			if s.EffectiveType(a.options.Type) == core.TypeArea {
				series = append(series, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}))
			}
			line.AddSeries(s.Name, lineData(s, kind, categories), series...)
		}
	}

	if hasBars {
		line.Overlap(bar)
	}
	return line
}

func (a *Adapter) xAxis(kind core.XKind) opts.XAxis {
	x := opts.XAxis{
		Type:      axisType(kind),
		SplitLine: &opts.SplitLine{Show: opts.Bool(a.options.ShowGrid)},
	}
	if o := a.axes.X; o != nil {
		x.Show = opts.Bool(!o.Hidden)
		x.Name = o.Label
		if o.Min != nil {
			x.Min = *o.Min
		}
		if o.Max != nil {
			x.Max = *o.Max
		}
	}
	return x
}

func yAxis(o *core.AxisOptions) opts.YAxis {
	y := opts.YAxis{Type: "value"}
	if o == nil {
		return y
	}
	y.Show = opts.Bool(!o.Hidden)
	y.Name = o.Label
	if o.Min != nil {
		y.Min = *o.Min
	}
	if o.Max != nil {
		y.Max = *o.Max
	}
	return y
}

func axisType(kind core.XKind) string {
	switch kind {
	case core.XTime:
		return "time"
	case core.XNumeric:
		return "value"
	}
	return "category"
}

// xKind is time or numeric only when every point agrees.
func xKind(series []core.Series) core.XKind {
	kinds := make(map[core.XKind]bool)
	for _, s := range series {
		for _, p := range s.Data {
			kinds[p.X.Kind()] = true
		}
	}
	if len(kinds) == 1 {
		for k := range kinds {
			return k
		}
	}
	return core.XCategory
}

func categoryLabels(series []core.Series) []string {
	var labels []string
	for _, s := range series {
		for _, p := range s.Data {
			labels = append(labels, p.X.String())
		}
	}
	return lo.Uniq(labels)
}

// value encodes a point for the axis kind: [x, y] pairs on continuous axes,
// the bare y on category axes.
func value(p core.DataPoint, kind core.XKind) any {
	switch kind {
	case core.XTime:
		return []any{p.X.Time().UnixMilli(), p.Y}
	case core.XNumeric:
		return []any{p.X.Float(), p.Y}
	}
	return p.Y
}

func lineData(s core.Series, kind core.XKind, categories []string) []opts.LineData {
	if kind == core.XCategory {
		return lo.Map(aligned(s, categories), func(v any, _ int) opts.LineData {
			return opts.LineData{Value: v}
		})
	}
	return lo.Map(s.Data, func(p core.DataPoint, _ int) opts.LineData {
		return opts.LineData{Name: p.Label, Value: value(p, kind)}
	})
}

func barData(s core.Series, kind core.XKind, categories []string) []opts.BarData {
	if kind == core.XCategory {
		return lo.Map(aligned(s, categories), func(v any, _ int) opts.BarData {
			return opts.BarData{Value: v}
		})
	}
	return lo.Map(s.Data, func(p core.DataPoint, _ int) opts.BarData {
		return opts.BarData{Name: p.Label, Value: value(p, kind)}
	})
}

// aligned spreads a series over the shared categories, leaving gaps as "-".
func aligned(s core.Series, categories []string) []any {
	byKey := lo.SliceToMap(s.Data, func(p core.DataPoint) (string, float64) {
		return p.X.String(), p.Y
	})
	return lo.Map(categories, func(key string, _ int) any {
		if v, ok := byKey[key]; ok {
			return v
		}
		return "-"
	})
}
