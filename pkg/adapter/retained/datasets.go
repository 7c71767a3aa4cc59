package retained

import (
	"sort"
	"time"

	"github.com/StudioSol/set"
	"github.com/samber/lo"

	"github.com/raykavin/pikachart/pkg/core"
)

// dataset is the backend record built from one series.
type dataset struct {
	label     string
	kind      core.ChartType
	color     string
	explicit  bool
	fill      bool
	hidden    bool
	secondary bool
	stack     string
	points    []core.DataPoint
	// values are the plotted y values, accumulated when stacked
	values []float64
}

func (d dataset) equal(o dataset) bool {
	if d.label != o.label || d.kind != o.kind || d.color != o.color || d.explicit != o.explicit ||
		d.hidden != o.hidden || d.secondary != o.secondary || d.stack != o.stack ||
		len(d.points) != len(o.points) {
		return false
	}
	for i := range d.points {
		if !d.points[i].X.Equal(o.points[i].X) || d.values[i] != o.values[i] || d.points[i].Label != o.points[i].Label {
			return false
		}
	}
	return true
}

func sameDatasets(a, b []dataset) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].equal(b[i]) {
			return false
		}
	}
	return true
}

// sliceColor colors the i-th slice when the dataset is drawn as a pie.
func (d dataset) sliceColor(i int) string {
	if d.explicit {
		return d.color
	}
	return core.ColorAt(i)
}

// buildDatasets maps series onto dataset records. Hidden series stay in the
// list, flagged hidden.
func buildDatasets(series []core.Series, options core.Options) []dataset {
	out := make([]dataset, 0, len(series))
	for i, s := range series {
		kind := s.EffectiveType(options.Type)
		ds := dataset{
			label:     s.Name,
			kind:      kind,
			color:     core.SeriesColor(s, i),
			explicit:  s.Color != "",
			fill:      kind == core.TypeArea,
			hidden:    s.Hidden,
			secondary: s.YAxisID == "y2",
			stack:     s.Stack,
			points:    append([]core.DataPoint(nil), s.Data...),
		}
		ds.values = lo.Map(s.Data, func(p core.DataPoint, _ int) float64 { return p.Y })
		out = append(out, ds)
	}
	if options.Stacked {
		stackDatasets(out)
	}
	return out
}

// stackDatasets accumulates y per x key within each stack group. Groups are
// keyed by the explicit stack name, the axis and the drawing kind so bars
// never stack onto lines.
func stackDatasets(datasets []dataset) {
	type group struct {
		stack     string
		secondary bool
		bar       bool
	}
	totals := make(map[group]map[string]float64)
	for i := range datasets {
		ds := &datasets[i]
		if ds.hidden || ds.kind.Radial() {
			continue
		}
		g := group{stack: ds.stack, secondary: ds.secondary, bar: ds.kind == core.TypeBar}
		if totals[g] == nil {
			totals[g] = make(map[string]float64)
		}
		for j, p := range ds.points {
			key := p.X.String()
			totals[g][key] += p.Y
			ds.values[j] = totals[g][key]
		}
	}
}

// xDomain describes how x values of the visible datasets are laid out.
type xDomain struct {
	kind       core.XKind
	categories []string
	index      map[string]int
}

func resolveXDomain(datasets []dataset) xDomain {
	kinds := make(map[core.XKind]bool)
	categories := set.NewLinkedHashSetString()
	for _, ds := range datasets {
		for _, p := range ds.points {
			kinds[p.X.Kind()] = true
			categories.Add(p.X.String())
		}
	}

	switch {
	case len(kinds) == 1 && kinds[core.XTime]:
		return xDomain{kind: core.XTime}
	case len(kinds) == 1 && kinds[core.XNumeric]:
		return xDomain{kind: core.XNumeric}
	}

	d := xDomain{kind: core.XCategory, index: make(map[string]int)}
	for key := range categories.Iter() {
		d.index[key] = len(d.categories)
		d.categories = append(d.categories, key)
	}
	return d
}

// position returns the plotted x coordinate of p. Timestamps use unix
// nanoseconds, which is what go-chart time series plot against.
func (d xDomain) position(p core.DataPoint) float64 {
	switch d.kind {
	case core.XTime:
		return float64(p.X.Time().UnixNano())
	case core.XNumeric:
		return p.X.Float()
	}
	return float64(d.index[p.X.String()])
}

// sortedIndexes orders a dataset's points by x position so line series never
// double back.
func (d xDomain) sortedIndexes(ds dataset) []int {
	idx := make([]int, len(ds.points))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return d.position(ds.points[idx[a]]) < d.position(ds.points[idx[b]])
	})
	return idx
}

// granularity picks the tick unit for a time span.
func granularity(span time.Duration) string {
	switch {
	case span < 48*time.Hour:
		return "hour"
	case span < 14*24*time.Hour:
		return "day"
	case span < 90*24*time.Hour:
		return "week"
	}
	return "month"
}

var timeFormats = map[string]string{
	"hour":  "15:04",
	"day":   "Jan 02",
	"week":  "Jan 02",
	"month": "Jan 2006",
}

const tooltipTimeFormat = "Jan 02, 15:04"
