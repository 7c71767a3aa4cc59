package core

import (
	"context"

	"github.com/raykavin/pikachart/pkg/surface"
)

// Adapter is the contract every rendering backend satisfies. An instance is
// created once, mutated through Update/Resize and torn down by Destroy; it is
// never reused after Destroy.
type Adapter interface {
	Name() string
	Version() string

	// Create attaches a surface under container and renders options.Series.
	Create(container *surface.Container, options Options) error
	// Update replaces the rendered dataset. It is a no-op before Create.
	Update(series []Series, options UpdateOptions) error
	// Destroy releases the surface and every overlay node. Safe to repeat.
	Destroy()
	// Resize applies explicit dimensions, or measures the container when a
	// dimension is zero. Datasets and domains are kept.
	Resize(width, height int) error
}

// AxisConfigurer reconfigures axes without rebuilding datasets.
type AxisConfigurer interface {
	SetAxes(axes Axes) error
}

// ImageExporter snapshots the current visual state.
type ImageExporter interface {
	ExportImage(ctx context.Context, format ImageFormat) ([]byte, error)
}

// PointLocator hit-tests device coordinates against rendered marks.
type PointLocator interface {
	DataAtPoint(x, y float64) (Hit, bool)
}

// RenderInspector reports the series a backend currently draws.
type RenderInspector interface {
	Rendered() []RenderedSeries
}

// PointerTracker receives pointer movement for hover tooltips.
type PointerTracker interface {
	PointerMove(x, y float64)
	PointerLeave()
}
