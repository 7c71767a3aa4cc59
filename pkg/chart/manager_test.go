package chart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pikachart/pkg/adapter/retained"
	"github.com/raykavin/pikachart/pkg/adapter/svg"
	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/surface"
)

type fakeAdapter struct {
	name      string
	createErr error
	updateErr error

	created   int
	destroyed int
	updates   []core.UpdateOptions
	series    []core.Series
	axes      core.Axes
	sizes     [][2]int
}

func (f *fakeAdapter) Name() string    { return f.name }
func (f *fakeAdapter) Version() string { return "0.0.0" }

func (f *fakeAdapter) Create(_ *surface.Container, options core.Options) error {
	f.created++
	if f.createErr != nil {
		return f.createErr
	}
	f.series = options.Series
	return nil
}

func (f *fakeAdapter) Update(series []core.Series, options core.UpdateOptions) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, options)
	f.series = series
	return nil
}

func (f *fakeAdapter) Destroy() { f.destroyed++ }

func (f *fakeAdapter) Resize(w, h int) error {
	f.sizes = append(f.sizes, [2]int{w, h})
	return nil
}

// axisAdapter adds axis and inspection capabilities.
type axisAdapter struct {
	fakeAdapter
}

func (a *axisAdapter) SetAxes(axes core.Axes) error {
	a.axes = a.axes.Merge(axes)
	return nil
}

func (a *axisAdapter) Rendered() []core.RenderedSeries {
	out := make([]core.RenderedSeries, 0, len(a.series))
	for _, s := range a.series {
		out = append(out, core.RenderedSeries{Name: s.Name, Points: len(s.Data)})
	}
	return out
}

func factoryOf(a core.Adapter) Factory {
	return func() core.Adapter { return a }
}

func testOptions() core.Options {
	options := core.DefaultOptions()
	options.Series = []core.Series{
		{Name: "temp", Data: []core.DataPoint{core.Pt(0, 1), core.Pt(1, 2)}},
	}
	return options
}

func container() *surface.Container {
	return surface.NewDocument().NewContainer("card", 600, 300)
}

func TestManagerRequiresInitialize(t *testing.T) {
	m := NewManager(factoryOf(&fakeAdapter{name: "a"}), nil)

	assert.Equal(t, Empty, m.State())
	assert.ErrorIs(t, m.Update(nil), core.ErrNotInitialized)
	assert.ErrorIs(t, m.Resize(10, 10), core.ErrNotInitialized)
	assert.ErrorIs(t, m.SwitchAdapter(factoryOf(&fakeAdapter{name: "b"})), core.ErrNotInitialized)
	assert.ErrorIs(t, m.SetAxes(core.Axes{}), core.ErrNotInitialized)
	_, err := m.ExportImage(context.Background(), core.FormatPNG)
	assert.ErrorIs(t, err, core.ErrNotInitialized)
	_, _, err = m.DataAtPoint(0, 0)
	assert.ErrorIs(t, err, core.ErrNotInitialized)

	// destroy on empty is harmless
	m.Destroy()
	assert.Equal(t, Empty, m.State())
}

func TestManagerInitializeAndUpdate(t *testing.T) {
	fake := &fakeAdapter{name: "a"}
	m := NewManager(factoryOf(fake), nil)

	require.NoError(t, m.Initialize(container(), testOptions()))
	assert.Equal(t, Active, m.State())
	assert.Same(t, fake, m.Adapter())
	assert.Equal(t, 1, fake.created)

	next := []core.Series{{Name: "hum", Data: []core.DataPoint{core.Pt(0, 40)}}}
	require.NoError(t, m.Update(next, core.WithoutAnimation()))
	require.Len(t, fake.updates, 1)
	assert.False(t, fake.updates[0].Animate)
	assert.Equal(t, "hum", m.LastSeries()[0].Name)

	options, ok := m.Options()
	require.True(t, ok)
	assert.Equal(t, "hum", options.Series[0].Name)

	require.NoError(t, m.Resize(320, 200))
	assert.Equal(t, [][2]int{{320, 200}}, fake.sizes)
}

func TestManagerCreateFailureLeavesEmpty(t *testing.T) {
	boom := errors.New("no canvas")
	fake := &fakeAdapter{name: "broken", createErr: boom}
	m := NewManager(factoryOf(fake), nil)

	err := m.Initialize(container(), testOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendCreate)
	assert.Contains(t, err.Error(), "no canvas")
	assert.Equal(t, Empty, m.State())
	assert.Nil(t, m.Adapter())
	assert.Equal(t, 1, fake.destroyed)

	_, ok := m.Options()
	assert.False(t, ok)
}

func TestManagerReinitializeTearsDown(t *testing.T) {
	first := &fakeAdapter{name: "a"}
	m := NewManager(factoryOf(first), nil)
	require.NoError(t, m.Initialize(container(), testOptions()))
	gen := m.Generation()

	second := &fakeAdapter{name: "b"}
	m.factory = factoryOf(second)
	require.NoError(t, m.Initialize(container(), testOptions()))

	assert.Equal(t, 1, first.destroyed)
	assert.Same(t, second, m.Adapter())
	assert.Greater(t, m.Generation(), gen)
}

func TestManagerDestroyClearsTogether(t *testing.T) {
	fake := &fakeAdapter{name: "a"}
	m := NewManager(factoryOf(fake), nil)
	require.NoError(t, m.Initialize(container(), testOptions()))
	gen := m.Generation()

	m.Destroy()
	assert.Equal(t, Empty, m.State())
	assert.Nil(t, m.Adapter())
	assert.Nil(t, m.container)
	assert.Nil(t, m.options)
	assert.Equal(t, 1, fake.destroyed)
	assert.Equal(t, gen+1, m.Generation())
}

func TestManagerStaleGenerationDiscarded(t *testing.T) {
	fake := &fakeAdapter{name: "a"}
	m := NewManager(factoryOf(fake), nil)
	require.NoError(t, m.Initialize(container(), testOptions()))

	gen := m.Generation()
	require.NoError(t, m.UpdateIfCurrent(gen, testOptions().Series))

	require.NoError(t, m.SwitchAdapter(factoryOf(&fakeAdapter{name: "b"})))
	err := m.UpdateIfCurrent(gen, []core.Series{{Name: "late"}})
	assert.ErrorIs(t, err, core.ErrStaleGeneration)
	assert.Equal(t, "temp", m.LastSeries()[0].Name)
}

func TestManagerSwitchPreservesState(t *testing.T) {
	first := &axisAdapter{fakeAdapter{name: "a"}}
	m := NewManager(factoryOf(first), nil)
	require.NoError(t, m.Initialize(container(), testOptions()))

	applied := []core.Series{{Name: "applied", Data: []core.DataPoint{core.Pt(0, 5)}}}
	require.NoError(t, m.Update(applied))
	require.NoError(t, m.SetAxes(core.Axes{Y: &core.AxisOptions{Label: "°C"}}))

	second := &axisAdapter{fakeAdapter{name: "b"}}
	require.NoError(t, m.SwitchAdapter(factoryOf(second)))

	assert.Equal(t, 1, first.destroyed)
	assert.Same(t, second, m.Adapter())
	assert.Equal(t, Active, m.State())

	// replayed without animation
	require.Len(t, second.updates, 1)
	assert.False(t, second.updates[0].Animate)
	assert.Equal(t, "applied", second.series[0].Name)

	require.NotNil(t, second.axes.Y)
	assert.Equal(t, "°C", second.axes.Y.Label)

	rendered, err := m.Rendered()
	require.NoError(t, err)
	require.Len(t, rendered, 1)
	assert.Equal(t, "applied", rendered[0].Name)
}

func TestManagerSwitchFailureLeavesEmpty(t *testing.T) {
	m := NewManager(factoryOf(&fakeAdapter{name: "a"}), nil)
	require.NoError(t, m.Initialize(container(), testOptions()))

	err := m.SwitchAdapter(factoryOf(&fakeAdapter{name: "b", createErr: errors.New("nope")}))
	assert.ErrorIs(t, err, core.ErrBackendCreate)
	assert.Equal(t, Empty, m.State())
	assert.Nil(t, m.Adapter())

	m = NewManager(factoryOf(&fakeAdapter{name: "a"}), nil)
	require.NoError(t, m.Initialize(container(), testOptions()))
	err = m.SwitchAdapter(factoryOf(&fakeAdapter{name: "c", updateErr: errors.New("replay")}))
	require.Error(t, err)
	assert.Equal(t, Empty, m.State())
}

func TestManagerMissingCapabilities(t *testing.T) {
	m := NewManager(factoryOf(&fakeAdapter{name: "plain"}), nil)
	require.NoError(t, m.Initialize(container(), testOptions()))

	assert.ErrorIs(t, m.SetAxes(core.Axes{}), core.ErrUnsupported)
	_, err := m.ExportImage(context.Background(), core.FormatPNG)
	assert.ErrorIs(t, err, core.ErrUnsupported)
	_, _, err = m.DataAtPoint(1, 1)
	assert.ErrorIs(t, err, core.ErrUnsupported)
	_, err = m.Rendered()
	assert.ErrorIs(t, err, core.ErrUnsupported)

	// pointer events are dropped silently
	m.PointerMove(1, 1)
	m.PointerLeave()
}

func TestManagerSwitchBetweenRealBackends(t *testing.T) {
	box := container()
	m := NewManager(func() core.Adapter { return retained.New() }, nil)

	options := testOptions()
	options.Series = append(options.Series, core.Series{
		Name: "hidden", Hidden: true, Data: []core.DataPoint{core.Pt(0, 9)},
	})
	require.NoError(t, m.Initialize(box, options))

	before, err := m.Rendered()
	require.NoError(t, err)

	require.NoError(t, m.SwitchAdapter(func() core.Adapter { return svg.New() }))
	after, err := m.Rendered()
	require.NoError(t, err)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Name, after[i].Name)
		assert.Equal(t, before[i].Points, after[i].Points)
		assert.Equal(t, before[i].Hidden, after[i].Hidden)
	}

	// the previous backend's surface is gone
	require.Len(t, box.Children(), 1)
	assert.Equal(t, surface.KindSVG, box.Children()[0].Kind())

	data, err := m.ExportImage(context.Background(), core.FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestManagerConcurrentRefreshAndSwitch(t *testing.T) {
	box := container()
	m := NewManager(func() core.Adapter { return retained.New() }, nil)
	require.NoError(t, m.Initialize(box, testOptions()))

	factories := []Factory{
		func() core.Adapter { return svg.New() },
		func() core.Adapter { return retained.New() },
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				gen := m.Generation()
				series := []core.Series{{
					Name: fmt.Sprintf("worker-%d", w),
					Data: []core.DataPoint{core.Pt(0, float64(i)), core.Pt(1, float64(w))},
				}}
				err := m.UpdateIfCurrent(gen, series, core.WithoutAnimation())
				if err != nil && !errors.Is(err, core.ErrStaleGeneration) {
					assert.NoError(t, err)
				}
			}
		}(w)
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			assert.NoError(t, m.Resize(400+i, 200+i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 6; i++ {
			assert.NoError(t, m.SwitchAdapter(factories[i%len(factories)]))
		}
	}()
	wg.Wait()

	assert.Equal(t, Active, m.State())
	rendered, err := m.Rendered()
	require.NoError(t, err)
	require.Len(t, rendered, 1)
	assert.Equal(t, m.LastSeries()[0].Name, rendered[0].Name)
	assert.Len(t, box.Children(), 1)
}
