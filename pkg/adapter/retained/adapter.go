// Package retained draws charts through a long-lived go-chart object that is
// mutated in place and re-rendered into a canvas frame.
package retained

import (
	"context"
	"fmt"
	"sync"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/logger"
	"github.com/raykavin/pikachart/pkg/surface"
)

const (
	Name    = "gochart"
	Version = "2.1.2"

	defaultWidth  = 600
	defaultHeight = 300

	hitTolerance = 6.0
)

const (
	modeActive = "active"
	modeNone   = "none"
)

type Option func(*Adapter)

func WithLogger(log logger.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

// Adapter renders with github.com/wcharczuk/go-chart/v2.
type Adapter struct {
	sync.Mutex

	log logger.Logger

	container *surface.Container
	canvas    *surface.Node
	options   core.Options
	axes      core.Axes

	width, height int

	// exactly one of these is set after Create, depending on the chart type
	chart *chart.Chart
	pie   *chart.PieChart
	donut *chart.DonutChart

	datasets []dataset
	domain   xDomain
	geometry geometry
	hover    *hoverState

	frame     []byte
	rendered  bool
	lastMode  string
	renders   int
	destroyed bool
}

// New returns an adapter ready for Create.
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

	a.canvas = surface.NewNode(surface.KindCanvas, container.Document().NextID("canvas"))
	a.canvas.SetStyle("width", "100%")
	a.canvas.SetStyle("height", "100%")
	if err := container.Append(a.canvas); err != nil {
		a.canvas = nil
		return fmt.Errorf("%s: attach canvas: %w", Name, err)
	}

	a.datasets = buildDatasets(a.options.Series, a.options)
	a.construct()
	a.applyAxes()

	mode := modeNone
	if a.options.Animate {
		mode = modeActive
	}
	a.draw(mode)
	return nil
}

// construct builds the chart object for the configured type once.
func (a *Adapter) construct() {
	background := a.backgroundStyle()
	switch a.options.Type {
	case core.TypePie:
		a.pie = &chart.PieChart{
			Title:      a.options.Title,
			Width:      a.width,
			Height:     a.height,
			Background: background,
		}
	case core.TypeDonut:
		a.donut = &chart.DonutChart{
			Title:      a.options.Title,
			Width:      a.width,
			Height:     a.height,
			Background: background,
		}
	default:
		a.chart = &chart.Chart{
			Title:      a.options.Title,
			Width:      a.width,
			Height:     a.height,
			Background: background,
			Canvas:     a.canvasStyle(),
		}
		a.chart.Elements = []chart.Renderable{a.captureCanvasBox}
		if a.options.ShowLegend {
			a.chart.Elements = append(a.chart.Elements, chart.Legend(a.chart))
		}
	}
}

func (a *Adapter) Update(series []core.Series, options core.UpdateOptions) error {
	a.Lock()
	defer a.Unlock()

	if a.canvas == nil {
		return nil
	}

	next := buildDatasets(series, a.options)
	a.options.Series = core.CloneSeries(series)

	mode := modeNone
	if options.Animated(a.options) {
		mode = modeActive
	}
	if a.rendered && sameDatasets(a.datasets, next) {
		a.lastMode = mode
		a.log.Trace("datasets unchanged, skipping redraw")
		return nil
	}

	a.datasets = next
	a.hover = nil
	a.draw(mode)
	return nil
}

func (a *Adapter) Resize(width, height int) error {
	a.Lock()
	defer a.Unlock()

	if a.canvas == nil {
		return nil
	}

	a.width, a.height = a.measure(width, height)
	a.canvas.SetStyle("width", fmt.Sprintf("%dpx", a.width))
	a.canvas.SetStyle("height", fmt.Sprintf("%dpx", a.height))

	switch {
	case a.chart != nil:
		a.chart.Width, a.chart.Height = a.width, a.height
	case a.pie != nil:
		a.pie.Width, a.pie.Height = a.width, a.height
	case a.donut != nil:
		a.donut.Width, a.donut.Height = a.width, a.height
	}
	a.draw(modeNone)
	return nil
}

func (a *Adapter) Destroy() {
	a.Lock()
	defer a.Unlock()

	if a.destroyed {
		return
	}
	a.destroyed = true

	if a.canvas != nil && a.container != nil {
		a.container.Remove(a.canvas)
	}
	a.canvas = nil
	a.container = nil
	a.chart, a.pie, a.donut = nil, nil, nil
	a.datasets = nil
	a.frame = nil
	a.hover = nil
}

// Rendered reports one entry per dataset, hidden ones included.
func (a *Adapter) Rendered() []core.RenderedSeries {
	a.Lock()
	defer a.Unlock()

	out := make([]core.RenderedSeries, 0, len(a.datasets))
	for _, ds := range a.datasets {
		out = append(out, core.RenderedSeries{
			Name:   ds.label,
			Type:   ds.kind,
			Color:  ds.color,
			Points: len(ds.points),
			Hidden: ds.hidden,
		})
	}
	return out
}

// LastMode is the animation mode of the most recent update, "active" or "none".
func (a *Adapter) LastMode() string {
	a.Lock()
	defer a.Unlock()
	return a.lastMode
}

// Renders counts frames drawn since Create.
func (a *Adapter) Renders() int {
	a.Lock()
	defer a.Unlock()
	return a.renders
}

// Frame returns the last PNG frame.
func (a *Adapter) Frame() []byte {
	a.Lock()
	defer a.Unlock()
	return append([]byte(nil), a.frame...)
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

var (
	_ core.Adapter         = (*Adapter)(nil)
	_ core.AxisConfigurer  = (*Adapter)(nil)
	_ core.ImageExporter   = (*Adapter)(nil)
	_ core.PointLocator    = (*Adapter)(nil)
	_ core.RenderInspector = (*Adapter)(nil)
	_ core.PointerTracker  = (*Adapter)(nil)
)

func (a *Adapter) alive() bool {
	return !a.destroyed && a.canvas != nil
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
