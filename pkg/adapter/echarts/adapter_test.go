package echarts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/surface"
)

func sampleSeries() []core.Series {
	return []core.Series{
		{Name: "A", Data: []core.DataPoint{core.Pt(0, 1), core.Pt(1, 2), core.Pt(2, 3)}},
		{Name: "B", Type: core.TypeBar, Data: []core.DataPoint{core.Pt(0, 2), core.Pt(1, 1), core.Pt(2, 0.5)}},
	}
}

func create(t *testing.T, kind core.ChartType, series []core.Series) (*Adapter, *surface.Container) {
	t.Helper()
	container := surface.NewDocument().NewContainer("card", 600, 300)
	opts := core.DefaultOptions()
	opts.Type = kind
	opts.Series = series

	a := New()
	require.NoError(t, a.Create(container, opts))
	return a, container
}

func TestCreateRendersHTML(t *testing.T) {
	for _, kind := range []core.ChartType{core.TypeLine, core.TypeArea, core.TypeBar, core.TypePie, core.TypeDonut} {
		t.Run(string(kind), func(t *testing.T) {
			a, container := create(t, kind, sampleSeries())

			require.Len(t, container.Children(), 1)
			node := container.Children()[0]
			require.Equal(t, surface.KindHTML, node.Kind())
			require.Contains(t, string(node.Content()), node.ID())

			rendered := a.Rendered()
			require.Len(t, rendered, 2)
			require.Equal(t, "A", rendered[0].Name)
			require.Equal(t, 3, rendered[1].Points)
		})
	}
}

func TestMixedOverlap(t *testing.T) {
	_, container := create(t, core.TypeLine, sampleSeries())
	content := string(container.Children()[0].Content())
	require.Contains(t, content, `"bar"`)
	require.Contains(t, content, `"line"`)
}

func TestUpdateAndAnimation(t *testing.T) {
	a, container := create(t, core.TypeLine, sampleSeries())
	require.True(t, a.Animated())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	next := []core.Series{{Name: "temperature", Data: []core.DataPoint{
		{X: core.Time(start), Y: 20},
		{X: core.Time(start.Add(time.Hour)), Y: 21},
	}}}
	require.NoError(t, a.Update(next, core.NewUpdateOptions(core.WithoutAnimation())))
	require.False(t, a.Animated())
	require.Equal(t, "temperature", a.Rendered()[0].Name)
	require.Contains(t, string(container.Children()[0].Content()), "temperature")
}

func TestSetAxesAndResize(t *testing.T) {
	a, container := create(t, core.TypeLine, sampleSeries())

	require.NoError(t, a.SetAxes(core.Axes{Y: &core.AxisOptions{Label: "degrees"}}))
	require.Contains(t, string(container.Children()[0].Content()), "degrees")

	require.NoError(t, a.Resize(320, 160))
	require.Contains(t, string(container.Children()[0].Content()), "320px")
	require.Contains(t, string(container.Children()[0].Content()), "degrees")
}

func TestExportAndDestroy(t *testing.T) {
	_, err := New().ExportImage(context.Background(), core.FormatHTML)
	require.True(t, errors.Is(err, core.ErrNotRendered))

	a, container := create(t, core.TypePie, sampleSeries())

	html, err := a.ExportImage(context.Background(), core.FormatHTML)
	require.NoError(t, err)
	require.Equal(t, container.Children()[0].Content(), html)

	_, err = a.ExportImage(context.Background(), core.FormatPNG)
	require.True(t, errors.Is(err, core.ErrUnsupportedFormat))

	a.Destroy()
	a.Destroy()
	require.Empty(t, container.Children())
	require.Empty(t, a.Rendered())

	_, err = a.ExportImage(context.Background(), core.FormatHTML)
	require.True(t, errors.Is(err, core.ErrDestroyed))
	require.NoError(t, a.Update(sampleSeries(), core.NewUpdateOptions()))
}

func TestPieRingPerSeries(t *testing.T) {
	series := sampleSeries()
	series[1].Color = "#123456"
	series = append(series, core.Series{Name: "ghost", Hidden: true, Data: []core.DataPoint{core.Pt(0, 4)}})

	a, _ := create(t, core.TypeDonut, series)
	pie := a.buildPie()

	require.Len(t, pie.MultiSeries, 2)
	require.Equal(t, "A", pie.MultiSeries[0].Name)
	require.Equal(t, []string{"60%", "75%"}, pie.MultiSeries[0].Radius)
	require.Equal(t, "B", pie.MultiSeries[1].Name)
	require.Equal(t, []string{"45%", "60%"}, pie.MultiSeries[1].Radius)

	outer := pie.MultiSeries[0].Data.([]opts.PieData)
	for i, d := range outer {
		require.Equal(t, core.ColorAt(i), d.ItemStyle.Color)
	}
	for _, d := range pie.MultiSeries[1].Data.([]opts.PieData) {
		require.Equal(t, "#123456", d.ItemStyle.Color)
	}
}

func TestXKind(t *testing.T) {
	require.Equal(t, core.XNumeric, xKind(sampleSeries()))

	mixed := append(sampleSeries(), core.Series{Data: []core.DataPoint{{X: core.Category("x"), Y: 1}}})
	require.Equal(t, core.XCategory, xKind(mixed))
	require.Equal(t, []string{"0", "1", "2", "x"}, categoryLabels(mixed))

	got := aligned(core.Series{Data: []core.DataPoint{{X: core.Category("x"), Y: 4}}}, []string{"0", "x"})
	require.Equal(t, []any{"-", 4.0}, got)
}
