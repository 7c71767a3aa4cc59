// Package echarts describes charts as a go-echarts option tree and renders
// it to an HTML fragment. The browser runtime owns hover and animation, so
// this backend has no point hit-testing.
package echarts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/logger"
	"github.com/raykavin/pikachart/pkg/surface"
)

const (
	Name    = "echarts"
	Version = "2.4.6"

	defaultWidth  = 600
	defaultHeight = 300
)

type Option func(*Adapter)

func WithLogger(log logger.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

// renderer is satisfied by every go-echarts chart.
type renderer interface {
	Render(w io.Writer) error
}

type Adapter struct {
	sync.Mutex

	log logger.Logger

	container *surface.Container
	node      *surface.Node
	options   core.Options
	axes      core.Axes
	animated  bool

	width, height int

	// chart is the option tree of the last build; content its rendering
	chart   renderer
	content []byte

	destroyed bool
}

func New(options ...Option) *Adapter {
	a := &Adapter{log: logger.Nop()}
	for _, option := range options {
		option(a)
	}
	a.log = a.log.WithField("backend", Name)
	return a
}

func (a *Adapter) Name() string    { return Name }
func (a *Adapter) Version() string { return Version }

func (a *Adapter) Create(container *surface.Container, options core.Options) error {
	a.Lock()
	defer a.Unlock()

	if container == nil {
		return fmt.Errorf("%s: nil container", Name)
	}
	if a.destroyed {
		return core.ErrDestroyed
	}

	a.container = container
	a.options = options.Clone()
	a.width, a.height = a.measure(options.Width, options.Height)

	a.node = surface.NewNode(surface.KindHTML, container.Document().NextID("echarts"))
	if err := container.Append(a.node); err != nil {
		a.node = nil
		return fmt.Errorf("%s: attach node: %w", Name, err)
	}

	if err := a.render(a.options.Animate); err != nil {
		container.Remove(a.node)
		a.node = nil
		return err
	}
	return nil
}

func (a *Adapter) Update(series []core.Series, options core.UpdateOptions) error {
	a.Lock()
	defer a.Unlock()

	if a.node == nil {
		return nil
	}
	a.options.Series = core.CloneSeries(series)
	return a.render(options.Animated(a.options))
}

func (a *Adapter) Resize(width, height int) error {
	a.Lock()
	defer a.Unlock()

	if a.node == nil {
		return nil
	}
	a.width, a.height = a.measure(width, height)
	return a.render(false)
}

// SetAxes merges the patch and rebuilds the option tree.
func (a *Adapter) SetAxes(patch core.Axes) error {
	a.Lock()
	defer a.Unlock()

	if a.destroyed {
		return core.ErrDestroyed
	}
	a.axes = a.axes.Merge(patch)
	if a.node == nil {
		return nil
	}
	return a.render(false)
}

func (a *Adapter) Destroy() {
	a.Lock()
	defer a.Unlock()

	if a.destroyed {
		return
	}
	a.destroyed = true
	if a.node != nil && a.container != nil {
		a.container.Remove(a.node)
	}
	a.node, a.container, a.chart, a.content = nil, nil, nil, nil
	a.options.Series = nil
}

func (a *Adapter) Rendered() []core.RenderedSeries {
	a.Lock()
	defer a.Unlock()

	if a.node == nil {
		return nil
	}
	out := make([]core.RenderedSeries, 0, len(a.options.Series))
	for i, s := range a.options.Series {
		out = append(out, core.RenderedSeries{
			Name:   s.Name,
			Type:   s.EffectiveType(a.options.Type),
			Color:  core.SeriesColor(s, i),
			Points: len(s.Data),
			Hidden: s.Hidden,
		})
	}
	return out
}

// Animated reports whether the last build asked the runtime to animate.
func (a *Adapter) Animated() bool {
	a.Lock()
	defer a.Unlock()
	return a.animated
}

// ExportImage returns the rendered HTML document.
func (a *Adapter) ExportImage(ctx context.Context, format core.ImageFormat) ([]byte, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	a.Lock()
	defer a.Unlock()

	if a.destroyed {
		return nil, core.ErrDestroyed
	}
	if a.content == nil {
		return nil, core.ErrNotRendered
	}
	if format != core.FormatHTML {
		return nil, fmt.Errorf("%w: %s via %s", core.ErrUnsupportedFormat, format, Name)
	}
	return append([]byte(nil), a.content...), nil
}

// render builds a fresh option tree from the held state and publishes it.
func (a *Adapter) render(animate bool) error {
	start := time.Now()

	var chart renderer
	if a.options.Type.Radial() {
		chart = a.buildPie()
	} else {
		chart = a.buildCartesian()
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		a.log.WithError(err).Error("render option tree")
		return fmt.Errorf("%s: render: %w", Name, err)
	}

	a.chart = chart
	a.content = buf.Bytes()
	a.animated = animate
	a.node.SetContent(a.content)

	a.log.WithFields(map[string]any{
		"series":  len(a.options.Series),
		"elapsed": time.Since(start).String(),
	}).Trace("option tree rendered")
	return nil
}

func (a *Adapter) measure(width, height int) (int, int) {
	cw, ch := a.container.Size()
	if width <= 0 {
		width = cw
	}
	if height <= 0 {
		height = ch
	}
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return width, height
}

func (a *Adapter) globalOptions() []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Width:   fmt.Sprintf("%dpx", a.width),
		Height:  fmt.Sprintf("%dpx", a.height),
		ChartID: a.node.ID(),
	}
	if a.options.Theme == core.ThemeDark {
		initOpts.Theme = "dark"
	}

	selected := make(map[string]bool)
	for _, s := range a.options.Series {
		if s.Hidden {
			selected[s.Name] = false
		}
	}

	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{
			Show:     opts.Bool(a.options.ShowLegend),
			Bottom:   "0",
			Selected: selected,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(a.options.ShowTooltip),
			Trigger: a.tooltipTrigger(),
		}),
	}
	if a.options.Title != "" {
		global = append(global, charts.WithTitleOpts(opts.Title{Title: a.options.Title}))
	}
	return global
}

func (a *Adapter) tooltipTrigger() string {
	if a.options.Type.Radial() {
		return "item"
	}
	return "axis"
}

var (
	_ core.Adapter         = (*Adapter)(nil)
	_ core.AxisConfigurer  = (*Adapter)(nil)
	_ core.ImageExporter   = (*Adapter)(nil)
	_ core.RenderInspector = (*Adapter)(nil)
)
