package pikachart

import (
	"fmt"
	"sync"

	"github.com/raykavin/pikachart/pkg/adapter/echarts"
	"github.com/raykavin/pikachart/pkg/adapter/retained"
	"github.com/raykavin/pikachart/pkg/adapter/svg"
	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/logger"
)

// Backend names understood by DefaultBackends
const (
	BackendGoChart = "gochart"
	BackendSVG     = "svg"
	BackendECharts = "echarts"
)

// BackendFactory builds a fresh adapter logging through log
type BackendFactory func(log logger.Logger) core.Adapter

// Backend describes one selectable rendering backend
type Backend struct {
	Name    string
	Label   string
	Factory BackendFactory
}

// Backends is an ordered registry of rendering backends
type Backends struct {
	mu       sync.RWMutex
	backends []Backend
}

// NewBackends creates a registry. The first backend is the default.
func NewBackends(backends ...Backend) *Backends {
	r := &Backends{}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// DefaultBackends registers gochart, svg and echarts
func DefaultBackends() *Backends {
	return NewBackends(
		Backend{Name: BackendGoChart, Label: "go-chart", Factory: func(log logger.Logger) core.Adapter {
			return retained.New(retained.WithLogger(log))
		}},
		Backend{Name: BackendSVG, Label: "SVG", Factory: func(log logger.Logger) core.Adapter {
			return svg.New(svg.WithLogger(log))
		}},
		Backend{Name: BackendECharts, Label: "ECharts", Factory: func(log logger.Logger) core.Adapter {
			return echarts.New(echarts.WithLogger(log))
		}},
	)
}

// Register adds or replaces a backend
func (r *Backends) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.backends {
		if r.backends[i].Name == b.Name {
			r.backends[i] = b
			return
		}
	}
	r.backends = append(r.backends, b)
}

// Get looks a backend up by name. An empty name selects the default.
func (r *Backends) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" && len(r.backends) > 0 {
		return r.backends[0], nil
	}
	for _, b := range r.backends {
		if b.Name == name {
			return b, nil
		}
	}
	return Backend{}, fmt.Errorf("%w: %q", core.ErrUnknownBackend, name)
}

// List returns the registered backends in registration order
func (r *Backends) List() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Backend(nil), r.backends...)
}
