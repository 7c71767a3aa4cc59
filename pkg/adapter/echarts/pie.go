package echarts

import (
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/raykavin/pikachart/pkg/core"
)

const (
	pieOuter  = 75.0
	donutHole = 45.0
)

// buildPie adds one ring per visible series, the first outermost. A donut
// keeps its hole at 60% of the outer radius.
func (a *Adapter) buildPie() *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(a.globalOptions()...)

	shown := make([]core.Series, 0, len(a.options.Series))
	for _, s := range a.options.Series {
		if !s.Hidden {
			shown = append(shown, s)
		}
	}
	if len(shown) == 0 {
		return pie
	}

	hole := 0.0
	if a.options.Type == core.TypeDonut {
		hole = donutHole
	}
	band := (pieOuter - hole) / float64(len(shown))

	for k, s := range shown {
		data := make([]opts.PieData, 0, len(s.Data))
		for i, p := range s.Data {
			label := p.Label
			if label == "" {
				label = p.X.String()
			}
			color := s.Color
			if color == "" {
				color = core.ColorAt(i)
			}
			data = append(data, opts.PieData{
				Name:      label,
				Value:     p.Y,
				ItemStyle: &opts.ItemStyle{Color: color},
			})
		}

		outer := pieOuter - float64(k)*band
		var radius any = percent(outer)
		if inner := outer - band; inner > 0 {
			radius = []string{percent(inner), percent(outer)}
		}
		pie.AddSeries(s.Name, data, charts.WithPieChartOpts(opts.PieChart{Radius: radius}))
	}
	return pie
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
