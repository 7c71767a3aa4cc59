// Package chart owns the lifecycle of one rendering backend instance and
// lets it be swapped at runtime without losing configuration or data.
package chart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/logger"
	"github.com/raykavin/pikachart/pkg/surface"
)

// State is the manager lifecycle state
type State int

const (
	Empty State = iota
	Active
	Switching
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Switching:
		return "switching"
	}
	return "empty"
}

// Factory builds a fresh, uncreated adapter
type Factory func() core.Adapter

// Manager holds at most one live adapter together with the container and
// options it was created with.
type Manager struct {
	sync.Mutex

	log     logger.Logger
	factory Factory

	state     State
	adapter   core.Adapter
	container *surface.Container
	options   *core.Options
	axes      core.Axes

	// lastSeries is what the most recent successful update applied; it is
	// replayed after a switch
	lastSeries []core.Series
	generation uint64
}

// NewManager creates an empty manager that builds adapters with factory
func NewManager(factory Factory, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		factory: factory,
		log:     log.WithField("component", "chart-manager"),
	}
}

// Initialize creates a fresh adapter on container. An active adapter is torn
// down first. On failure the manager is left empty.
func (m *Manager) Initialize(container *surface.Container, options core.Options) error {
	m.Lock()
	defer m.Unlock()
	return m.initialize(container, options)
}

func (m *Manager) initialize(container *surface.Container, options core.Options) error {
	if m.state == Active {
		m.teardown()
	}
	if m.factory == nil {
		return fmt.Errorf("%w: no adapter factory", core.ErrBackendCreate)
	}

	adapter := m.factory()
	if adapter == nil {
		return fmt.Errorf("%w: factory returned nil", core.ErrBackendCreate)
	}

	held := options.Clone()
	if err := adapter.Create(container, held); err != nil {
		m.log.WithError(err).WithField("backend", adapter.Name()).Error("failed to create chart backend")
		adapter.Destroy()
		m.clear()
		return fmt.Errorf("%w: %s: %v", core.ErrBackendCreate, adapter.Name(), err)
	}

	m.adapter = adapter
	m.container = container
	m.options = &held
	m.lastSeries = core.CloneSeries(held.Series)
	m.state = Active

	m.log.WithFields(map[string]any{
		"backend": adapter.Name(),
		"version": adapter.Version(),
		"type":    held.Type,
		"series":  len(held.Series),
	}).Debug("chart backend created")
	return nil
}

// Update forwards series to the active adapter and remembers them
func (m *Manager) Update(series []core.Series, options ...core.UpdateOption) error {
	m.Lock()
	defer m.Unlock()
	return m.update(series, core.NewUpdateOptions(options...))
}

// UpdateIfCurrent applies series only while the manager generation still
// equals gen. Results of a fetch that started before a destroy or switch are
// rejected with ErrStaleGeneration.
func (m *Manager) UpdateIfCurrent(gen uint64, series []core.Series, options ...core.UpdateOption) error {
	m.Lock()
	defer m.Unlock()

	if gen != m.generation {
		return fmt.Errorf("%w: have %d, current %d", core.ErrStaleGeneration, gen, m.generation)
	}
	return m.update(series, core.NewUpdateOptions(options...))
}

func (m *Manager) update(series []core.Series, options core.UpdateOptions) error {
	if m.state != Active {
		return core.ErrNotInitialized
	}
	series = core.CloneSeries(series)
	if err := m.adapter.Update(series, options); err != nil {
		return fmt.Errorf("update %s: %w", m.adapter.Name(), err)
	}
	m.lastSeries = series
	m.options.Series = core.CloneSeries(series)
	return nil
}

// Resize forwards explicit or measured (zero) dimensions
func (m *Manager) Resize(width, height int) error {
	m.Lock()
	defer m.Unlock()

	if m.state != Active {
		return core.ErrNotInitialized
	}
	if err := m.adapter.Resize(width, height); err != nil {
		return fmt.Errorf("resize %s: %w", m.adapter.Name(), err)
	}
	return nil
}

// Destroy tears down the active adapter. It is safe on an empty manager.
func (m *Manager) Destroy() {
	m.Lock()
	defer m.Unlock()
	m.teardown()
}

func (m *Manager) teardown() {
	if m.adapter != nil {
		m.adapter.Destroy()
		m.log.WithField("backend", m.adapter.Name()).Debug("chart backend destroyed")
	}
	m.clear()
	m.generation++
}

// clear drops adapter, container and options together
func (m *Manager) clear() {
	m.adapter = nil
	m.container = nil
	m.options = nil
	m.state = Empty
}

// SwitchAdapter replaces the backend while keeping container, options, the
// last applied series and the remembered axes. Any failure leaves the
// manager empty.
func (m *Manager) SwitchAdapter(factory Factory) error {
	m.Lock()
	defer m.Unlock()

	if m.state != Active {
		return core.ErrNotInitialized
	}
	if factory == nil {
		return fmt.Errorf("%w: no adapter factory", core.ErrBackendCreate)
	}

	from := m.adapter.Name()
	container := m.container
	options := m.options.Clone()
	series := core.CloneSeries(m.lastSeries)
	axes := m.axes

	m.state = Switching
	m.adapter.Destroy()
	m.clear()
	m.generation++
	m.state = Switching

	m.factory = factory
	options.Series = series
	if err := m.initialize(container, options); err != nil {
		m.clear()
		return err
	}

	// replay without animation so the swap is instantaneous
	if err := m.update(series, core.NewUpdateOptions(core.WithoutAnimation())); err != nil {
		m.log.WithError(err).Error("failed to replay series after switch")
		m.teardown()
		return err
	}

	if !axes.Empty() {
		if configurer, ok := m.adapter.(core.AxisConfigurer); ok {
			if err := configurer.SetAxes(axes); err != nil {
				m.log.WithError(err).Warn("failed to re-apply axes after switch")
			}
		}
		m.axes = axes
	}

	m.log.WithFields(map[string]any{
		"from": from,
		"to":   m.adapter.Name(),
	}).Info("chart backend switched")
	return nil
}

// SetAxes merges axis configuration into the active backend and remembers
// it for later switches
func (m *Manager) SetAxes(axes core.Axes) error {
	m.Lock()
	defer m.Unlock()

	if m.state != Active {
		return core.ErrNotInitialized
	}
	configurer, ok := m.adapter.(core.AxisConfigurer)
	if !ok {
		return fmt.Errorf("%w: %s cannot configure axes", core.ErrUnsupported, m.adapter.Name())
	}
	if err := configurer.SetAxes(axes); err != nil {
		return err
	}
	m.axes = m.axes.Merge(axes)
	return nil
}

// ExportImage snapshots the active backend
func (m *Manager) ExportImage(ctx context.Context, format core.ImageFormat) ([]byte, error) {
	m.Lock()
	adapter, state := m.adapter, m.state
	m.Unlock()

	if state != Active {
		return nil, core.ErrNotInitialized
	}
	exporter, ok := adapter.(core.ImageExporter)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot export images", core.ErrUnsupported, adapter.Name())
	}
	data, err := exporter.ExportImage(ctx, format)
	if err != nil && !errors.Is(err, core.ErrUnsupportedFormat) {
		m.log.WithError(err).WithField("format", format).Warn("chart export failed")
	}
	return data, err
}

// DataAtPoint hit-tests device coordinates against the active backend
func (m *Manager) DataAtPoint(x, y float64) (core.Hit, bool, error) {
	m.Lock()
	defer m.Unlock()

	if m.state != Active {
		return core.Hit{}, false, core.ErrNotInitialized
	}
	locator, ok := m.adapter.(core.PointLocator)
	if !ok {
		return core.Hit{}, false, fmt.Errorf("%w: %s cannot hit-test", core.ErrUnsupported, m.adapter.Name())
	}
	hit, found := locator.DataAtPoint(x, y)
	return hit, found, nil
}

// PointerMove forwards hover movement when the backend tracks the pointer
func (m *Manager) PointerMove(x, y float64) {
	m.Lock()
	defer m.Unlock()
	if tracker, ok := m.adapter.(core.PointerTracker); ok {
		tracker.PointerMove(x, y)
	}
}

// PointerLeave hides any hover tooltip
func (m *Manager) PointerLeave() {
	m.Lock()
	defer m.Unlock()
	if tracker, ok := m.adapter.(core.PointerTracker); ok {
		tracker.PointerLeave()
	}
}

// Rendered reports what the backend currently draws
func (m *Manager) Rendered() ([]core.RenderedSeries, error) {
	m.Lock()
	defer m.Unlock()

	if m.state != Active {
		return nil, core.ErrNotInitialized
	}
	inspector, ok := m.adapter.(core.RenderInspector)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot report rendered series", core.ErrUnsupported, m.adapter.Name())
	}
	return inspector.Rendered(), nil
}

// Generation changes on every destroy and switch
func (m *Manager) Generation() uint64 {
	m.Lock()
	defer m.Unlock()
	return m.generation
}

// State returns the lifecycle state
func (m *Manager) State() State {
	m.Lock()
	defer m.Unlock()
	return m.state
}

// Adapter returns the live adapter, nil when empty
func (m *Manager) Adapter() core.Adapter {
	m.Lock()
	defer m.Unlock()
	return m.adapter
}

// Options returns a copy of the held options
func (m *Manager) Options() (core.Options, bool) {
	m.Lock()
	defer m.Unlock()
	if m.options == nil {
		return core.Options{}, false
	}
	return m.options.Clone(), true
}

// LastSeries returns a copy of the most recently applied series
func (m *Manager) LastSeries() []core.Series {
	m.Lock()
	defer m.Unlock()
	return core.CloneSeries(m.lastSeries)
}
