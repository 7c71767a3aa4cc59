package retained

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/surface"
)

func newContainer() *surface.Container {
	return surface.NewDocument().NewContainer("card", 600, 300)
}

func sampleSeries() []core.Series {
	return []core.Series{
		{Name: "A", Data: []core.DataPoint{core.Pt(0, 1), core.Pt(1, 2), core.Pt(2, 3)}},
		{Name: "B", Data: []core.DataPoint{core.Pt(0, 2), core.Pt(1, 1), core.Pt(2, 0.5)}},
	}
}

func options(t core.ChartType, series []core.Series) core.Options {
	o := core.DefaultOptions()
	o.Type = t
	o.Series = series
	return o
}

func pixel(a *Adapter, ds dataset, i int) (float64, float64) {
	g := a.geometry
	yr := g.y
	if ds.secondary {
		yr = g.y2
	}
	px := float64(g.box.Left) + (a.domain.position(ds.points[i])-g.x.min)/g.x.delta()*float64(g.box.Width())
	py := float64(g.box.Bottom) - (ds.values[i]-yr.min)/yr.delta()*float64(g.box.Height())
	return px, py
}

func TestCreateRendersEveryType(t *testing.T) {
	for _, kind := range []core.ChartType{core.TypeLine, core.TypeArea, core.TypeBar, core.TypePie, core.TypeDonut} {
		t.Run(string(kind), func(t *testing.T) {
			container := newContainer()
			a := New()
			require.NoError(t, a.Create(container, options(kind, sampleSeries())))

			require.Len(t, container.Children(), 1)
			require.Equal(t, surface.KindCanvas, container.Children()[0].Kind())

			_, err := png.Decode(bytes.NewReader(container.Children()[0].Content()))
			require.NoError(t, err)

			rendered := a.Rendered()
			require.Len(t, rendered, 2)
			for i, s := range sampleSeries() {
				require.Equal(t, s.Name, rendered[i].Name)
				require.Equal(t, len(s.Data), rendered[i].Points)
				require.Equal(t, core.ColorAt(i), rendered[i].Color)
			}
		})
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	a := New()
	require.NoError(t, a.Create(newContainer(), options(core.TypeLine, nil)))

	series := sampleSeries()
	series[1].Type = core.TypeBar
	require.NoError(t, a.Update(series, core.NewUpdateOptions()))

	rendered := a.Rendered()
	require.Len(t, rendered, 2)
	require.Equal(t, core.TypeLine, rendered[0].Type)
	require.Equal(t, core.TypeBar, rendered[1].Type)
	require.Equal(t, modeActive, a.LastMode())
}

func TestUpdateSkipsUnchangedDatasets(t *testing.T) {
	a := New()
	require.NoError(t, a.Create(newContainer(), options(core.TypeLine, sampleSeries())))
	renders := a.Renders()

	require.NoError(t, a.Update(sampleSeries(), core.NewUpdateOptions(core.WithoutAnimation())))
	require.Equal(t, renders, a.Renders())
	require.Equal(t, modeNone, a.LastMode())

	changed := sampleSeries()
	changed[0].Data[0].Y = 7
	require.NoError(t, a.Update(changed, core.NewUpdateOptions(core.WithoutAnimation())))
	require.Equal(t, renders+1, a.Renders())
}

func TestBeforeCreateIsNoop(t *testing.T) {
	a := New()
	require.NoError(t, a.Update(sampleSeries(), core.NewUpdateOptions()))
	require.NoError(t, a.Resize(100, 100))
	require.Empty(t, a.Rendered())

	_, err := a.ExportImage(context.Background(), core.FormatPNG)
	require.True(t, errors.Is(err, core.ErrNotRendered))
}

func TestDestroy(t *testing.T) {
	container := newContainer()
	a := New()
	require.NoError(t, a.Create(container, options(core.TypeLine, sampleSeries())))

	a.Destroy()
	require.Empty(t, container.Children())
	a.Destroy()

	_, err := a.ExportImage(context.Background(), core.FormatPNG)
	require.True(t, errors.Is(err, core.ErrDestroyed))
	require.NoError(t, a.Update(sampleSeries(), core.NewUpdateOptions()))
}

func TestDestroyCreateEquivalence(t *testing.T) {
	container := newContainer()
	opts := options(core.TypeArea, sampleSeries())

	first := New()
	require.NoError(t, first.Create(container, opts))
	before := first.Rendered()
	first.Destroy()

	second := New()
	require.NoError(t, second.Create(container, opts))
	require.Equal(t, before, second.Rendered())
	require.Len(t, container.Children(), 1)
}

func TestHiddenSeriesIsNotHit(t *testing.T) {
	series := sampleSeries()
	series = append(series, core.Series{Name: "ghost", Hidden: true, Data: []core.DataPoint{core.Pt(1, 2.9)}})

	a := New()
	require.NoError(t, a.Create(newContainer(), options(core.TypeLine, series)))
	require.True(t, a.Rendered()[2].Hidden)

	px, py := pixel(a, a.datasets[0], 1)
	hit, ok := a.DataAtPoint(px, py)
	require.True(t, ok)
	require.Equal(t, "A", hit.Series)
	require.Equal(t, 2.0, hit.Point.Y)

	px, py = pixel(a, a.datasets[2], 0)
	hit, ok = a.DataAtPoint(px, py)
	if ok {
		require.NotEqual(t, "ghost", hit.Series)
	}

	_, ok = a.DataAtPoint(-100, -100)
	require.False(t, ok)
}

func TestPieHit(t *testing.T) {
	a := New()
	require.NoError(t, a.Create(newContainer(), options(core.TypePie, sampleSeries()[:1])))

	require.Len(t, a.geometry.pies, 1)
	p := a.geometry.pies[0]
	x := p.cx + p.radius/2*math.Cos(0.05)
	y := p.cy + p.radius/2*math.Sin(0.05)
	hit, ok := a.DataAtPoint(x, y)
	require.True(t, ok)
	require.Equal(t, "A", hit.Series)
	require.Equal(t, 1.0, hit.Point.Y)

	_, ok = a.DataAtPoint(p.cx+p.radius+5, p.cy)
	require.False(t, ok)
}

func TestPieDrawsEverySeries(t *testing.T) {
	series := sampleSeries()
	series[1].Color = "#123456"
	series = append(series, core.Series{Name: "ghost", Hidden: true, Data: []core.DataPoint{core.Pt(0, 4)}})

	a := New()
	container := newContainer()
	require.NoError(t, a.Create(container, options(core.TypeDonut, series)))

	pies := a.geometry.pies
	require.Len(t, pies, 2)
	for i, name := range []string{"A", "B"} {
		require.Len(t, pies[i].slices, 3)
		for _, s := range pies[i].slices {
			require.Equal(t, name, s.series)
		}
	}
	require.Less(t, pies[0].cx, pies[1].cx)

	hit, ok := a.DataAtPoint(pies[1].cx+pies[1].radius/2*math.Cos(0.05), pies[1].cy+pies[1].radius/2*math.Sin(0.05))
	require.True(t, ok)
	require.Equal(t, "B", hit.Series)
	require.Equal(t, 2.0, hit.Point.Y)

	var scratch pie
	for _, v := range pieValues(a.datasets[1], &scratch) {
		require.Equal(t, hexColor("#123456"), v.Style.FillColor)
	}
	for i, v := range pieValues(a.datasets[0], &scratch) {
		require.Equal(t, hexColor(core.ColorAt(i)), v.Style.FillColor)
	}

	img, err := png.Decode(bytes.NewReader(container.Children()[0].Content()))
	require.NoError(t, err)
	require.Equal(t, 600, img.Bounds().Dx())
	require.Equal(t, 300, img.Bounds().Dy())

	out, err := a.ExportImage(context.Background(), core.FormatSVG)
	require.NoError(t, err)
	require.Equal(t, 2, bytes.Count(out, []byte(`<svg x="`)))
}

func TestStacked(t *testing.T) {
	opts := options(core.TypeBar, sampleSeries())
	opts.Stacked = true

	a := New()
	require.NoError(t, a.Create(newContainer(), opts))
	require.Equal(t, []float64{1, 2, 3}, a.datasets[0].values)
	require.Equal(t, []float64{3, 3, 3.5}, a.datasets[1].values)
}

func TestSetAxes(t *testing.T) {
	a := New()
	require.NoError(t, a.Create(newContainer(), options(core.TypeLine, sampleSeries())))

	require.NoError(t, a.SetAxes(core.Axes{Y: &core.AxisOptions{Label: "temp", Min: core.Bound(-5), Max: core.Bound(50)}}))
	require.Equal(t, -5.0, a.geometry.y.min)
	require.Equal(t, 50.0, a.geometry.y.max)
	require.Equal(t, "temp", a.chart.YAxis.Name)

	require.NoError(t, a.SetAxes(core.Axes{X: &core.AxisOptions{Hidden: true}}))
	require.True(t, a.chart.XAxis.Style.Hidden)
	require.Equal(t, "temp", a.Axes().Y.Label)
	require.Len(t, a.Rendered(), 2)
}

func TestResizeMeasuresContainer(t *testing.T) {
	container := newContainer()
	a := New()
	require.NoError(t, a.Create(container, options(core.TypeLine, sampleSeries())))

	container.SetSize(800, 400)
	require.NoError(t, a.Resize(0, 0))
	require.Equal(t, "800px", container.Children()[0].Style("width"))
	require.Equal(t, 800, a.chart.Width)

	require.NoError(t, a.Resize(320, 200))
	require.Equal(t, "200px", container.Children()[0].Style("height"))
	require.Len(t, a.Rendered(), 2)

	img, err := png.Decode(bytes.NewReader(a.Frame()))
	require.NoError(t, err)
	require.Equal(t, 320, img.Bounds().Dx())
}

func TestExport(t *testing.T) {
	a := New()
	require.NoError(t, a.Create(newContainer(), options(core.TypeLine, sampleSeries())))

	raw, err := a.ExportImage(context.Background(), core.FormatPNG)
	require.NoError(t, err)
	require.Equal(t, a.Frame(), raw)

	svg, err := a.ExportImage(context.Background(), core.FormatSVG)
	require.NoError(t, err)
	require.Contains(t, string(svg), "<svg")

	_, err = a.ExportImage(context.Background(), core.FormatHTML)
	require.True(t, errors.Is(err, core.ErrUnsupportedFormat))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.ExportImage(ctx, core.FormatPNG)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEmptyAndDegenerateDataStillRender(t *testing.T) {
	a := New()
	require.NoError(t, a.Create(newContainer(), options(core.TypeLine, nil)))
	require.NotEmpty(t, a.Frame())

	single := []core.Series{{Name: "one", Data: []core.DataPoint{core.Pt(5, 5)}}}
	require.NoError(t, a.Update(single, core.NewUpdateOptions()))
	require.NotEmpty(t, a.Frame())
}

func TestTimeAxis(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := []core.Series{{Name: "temp", Data: []core.DataPoint{
		{X: core.Time(start), Y: 20},
		{X: core.Time(start.Add(time.Hour)), Y: 21},
		{X: core.Time(start.Add(2 * time.Hour)), Y: 19},
	}}}

	a := New()
	require.NoError(t, a.Create(newContainer(), options(core.TypeLine, series)))
	require.Equal(t, core.XTime, a.domain.kind)
	require.NotNil(t, a.chart.XAxis.ValueFormatter)
	require.Equal(t, "00:00", a.chart.XAxis.ValueFormatter(start))

	px, py := pixel(a, a.datasets[0], 1)
	a.PointerMove(px, py)
	require.Equal(t, "Jan 01, 01:00 temp: 21", a.Tooltip())
	a.PointerLeave()
	require.Empty(t, a.Tooltip())
}

func TestCategoryAxis(t *testing.T) {
	series := []core.Series{{Name: "rooms", Data: []core.DataPoint{
		{X: core.Category("kitchen"), Y: 3},
		{X: core.Category("hall"), Y: 1},
	}}}
	a := New()
	require.NoError(t, a.Create(newContainer(), options(core.TypeBar, series)))
	require.Len(t, a.chart.XAxis.Ticks, 2)
	require.Equal(t, "hall", a.chart.XAxis.Ticks[1].Label)
}

func TestGranularity(t *testing.T) {
	require.Equal(t, "hour", granularity(12*time.Hour))
	require.Equal(t, "day", granularity(3*24*time.Hour))
	require.Equal(t, "week", granularity(30*24*time.Hour))
	require.Equal(t, "month", granularity(200*24*time.Hour))
}
