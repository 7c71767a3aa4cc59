// Package svg renders charts by rebuilding a declarative scene graph on every
// change and serialising it into an svg surface node.
package svg

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/logger"
	"github.com/raykavin/pikachart/pkg/scene"
	"github.com/raykavin/pikachart/pkg/surface"
)

const (
	Name    = "svg"
	Version = "1.0.0"

	marginTop    = 20
	marginRight  = 30
	marginBottom = 40
	marginLeft   = 50

	defaultWidth  = 600
	defaultHeight = 300

	hitTolerance = 8.0
	pointRadius  = 4.0
)

type Option func(*Adapter)

func WithLogger(log logger.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

// WithClock replaces the timer source used for fade transitions.
func WithClock(clock Clock) Option {
	return func(a *Adapter) {
		a.clock = clock
	}
}

// Adapter keeps no chart object: it owns a root <svg> scene node and rebuilds
// its children from the current series on every change.
type Adapter struct {
	sync.Mutex

	log   logger.Logger
	clock Clock

	container *surface.Container
	node      *surface.Node
	tooltip   *surface.Node
	root      *scene.Node
	options   core.Options

	width, height int

	series  []core.Series
	yDomain [2]float64
	targets []target
	built   bool

	// fade state: token identifies the latest scheduled rebuild
	token   uint64
	pending *pendingUpdate

	destroyed bool
}

type pendingUpdate struct {
	token  uint64
	series []core.Series
	timer  Timer
}

func New(options ...Option) *Adapter {
	a := &Adapter{log: logger.Nop(), clock: realClock{}}
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

	doc := container.Document()
	a.node = surface.NewNode(surface.KindSVG, doc.NextID("svg"))
	if err := container.Append(a.node); err != nil {
		a.node = nil
		return fmt.Errorf("%s: attach svg: %w", Name, err)
	}

	a.tooltip = surface.NewNode(surface.KindDiv, doc.NextID("tooltip"))
	a.tooltip.SetStyle("position", "absolute")
	a.tooltip.SetStyle("opacity", "0")
	a.tooltip.SetStyle("pointer-events", "none")
	if err := doc.Body().Append(a.tooltip); err != nil {
		container.Remove(a.node)
		a.node, a.tooltip = nil, nil
		return fmt.Errorf("%s: attach tooltip: %w", Name, err)
	}

	a.root = scene.New("svg")
	a.sizeRoot()
	a.build(a.options.Series, a.options.Animate)
	return nil
}

// Update rebuilds the scene. Animated updates fade the current scene out
// first and rebuild once the transition completes; the latest update wins.
func (a *Adapter) Update(series []core.Series, options core.UpdateOptions) error {
	a.Lock()
	defer a.Unlock()

	if a.node == nil {
		return nil
	}

	series = core.CloneSeries(series)
	a.cancelPending()
	a.token++

	if !options.Animated(a.options) || !a.built {
		a.build(series, false)
		return nil
	}

	a.fadeOut()
	token := a.token
	p := &pendingUpdate{token: token, series: series}
	p.timer = a.clock.AfterFunc(core.TransitionDuration, func() {
		a.completeFade(token)
	})
	a.pending = p
	return nil
}

func (a *Adapter) completeFade(token uint64) {
	a.Lock()
	defer a.Unlock()

	if !a.alive() || a.pending == nil || a.pending.token != token {
		return
	}
	series := a.pending.series
	a.pending = nil
	a.build(series, true)
}

// Resize applies new dimensions and rebuilds without animation. A pending
// fade is cancelled and its series applied immediately.
func (a *Adapter) Resize(width, height int) error {
	a.Lock()
	defer a.Unlock()

	if a.node == nil {
		return nil
	}

	series := a.series
	if a.pending != nil {
		series = a.pending.series
		a.cancelPending()
	}
	a.width, a.height = a.measure(width, height)
	a.sizeRoot()
	a.build(series, false)
	return nil
}

func (a *Adapter) Destroy() {
	a.Lock()
	defer a.Unlock()

	if a.destroyed {
		return
	}
	a.destroyed = true
	a.cancelPending()

	if a.node != nil && a.container != nil {
		a.container.Remove(a.node)
	}
	if a.tooltip != nil && a.container != nil {
		a.container.Document().Body().Remove(a.tooltip)
	}
	a.node, a.tooltip, a.root, a.container = nil, nil, nil, nil
	a.series = nil
	a.targets = nil
}

func (a *Adapter) Rendered() []core.RenderedSeries {
	a.Lock()
	defer a.Unlock()

	out := make([]core.RenderedSeries, 0, len(a.series))
	for i, s := range a.series {
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

// YDomain returns the y domain of the last build.
func (a *Adapter) YDomain() (float64, float64) {
	a.Lock()
	defer a.Unlock()
	return a.yDomain[0], a.yDomain[1]
}

// Scene returns the live root node. Callers must not mutate it.
func (a *Adapter) Scene() *scene.Node {
	a.Lock()
	defer a.Unlock()
	return a.root
}

// Pending reports whether an animated update is waiting for its fade-out.
func (a *Adapter) Pending() bool {
	a.Lock()
	defer a.Unlock()
	return a.pending != nil
}

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
	if !a.built || a.root == nil {
		return nil, core.ErrNotRendered
	}

	switch format {
	case core.FormatSVG:
		return a.root.Markup(), nil
	case core.FormatPNG:
		var buf bytes.Buffer
		if err := scene.Rasterize(a.root, &buf); err != nil {
			return nil, fmt.Errorf("%s: png export: %w", Name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %s via %s", core.ErrUnsupportedFormat, format, Name)
}

func (a *Adapter) alive() bool {
	return !a.destroyed && a.node != nil
}

func (a *Adapter) cancelPending() {
	if a.pending == nil {
		return
	}
	if a.pending.timer != nil {
		a.pending.timer.Stop()
	}
	a.pending = nil
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

func (a *Adapter) sizeRoot() {
	a.root.Set("width", a.width).
		Set("height", a.height).
		Set("viewBox", fmt.Sprintf("0 0 %d %d", a.width, a.height))
	a.node.SetStyle("width", fmt.Sprintf("%dpx", a.width))
	a.node.SetStyle("height", fmt.Sprintf("%dpx", a.height))
}

// publish serialises the scene into the surface node.
func (a *Adapter) publish() {
	a.node.SetContent(a.root.Markup())
}

var (
	_ core.Adapter         = (*Adapter)(nil)
	_ core.ImageExporter   = (*Adapter)(nil)
	_ core.PointLocator    = (*Adapter)(nil)
	_ core.RenderInspector = (*Adapter)(nil)
	_ core.PointerTracker  = (*Adapter)(nil)
)
