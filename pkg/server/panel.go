// Package server hosts a card in a small web panel: the current chart image,
// a backend selector and live render notifications over WebSocket.
package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/raykavin/pikachart"
	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/logger"
)

//go:embed assets
var staticFiles embed.FS

const (
	defaultPort       = 8080
	defaultStaleAfter = 10 * time.Minute
)

// Panel serves one card
type Panel struct {
	sync.Mutex
	card          *pikachart.Card
	port          int
	debug         bool
	staleAfter    time.Duration
	scriptContent string
	indexHTML     *template.Template
	lastRender    pikachart.RenderEvent
	log           logger.Logger
	wsManager     *WebSocketManager
}

// Option defines a function type for configuring a Panel
type Option func(*Panel)

// WithPort sets the HTTP server port
func WithPort(port int) Option {
	return func(p *Panel) {
		p.port = port
	}
}

// WithDebug disables script minification
func WithDebug() Option {
	return func(p *Panel) {
		p.debug = true
	}
}

// WithStaleAfter sets how long without a render the health check tolerates
func WithStaleAfter(d time.Duration) Option {
	return func(p *Panel) {
		p.staleAfter = d
	}
}

// NewPanel creates a panel for card and subscribes it to render events
func NewPanel(card *pikachart.Card, log logger.Logger, options ...Option) (*Panel, error) {
	if log == nil {
		log = logger.Nop()
	}
	panel := &Panel{
		card:       card,
		port:       defaultPort,
		staleAfter: defaultStaleAfter,
		log:        log.WithField("component", "panel"),
	}
	for _, option := range options {
		option(panel)
	}

	var err error
	panel.indexHTML, err = template.ParseFS(staticFiles, "assets/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse panel template: %w", err)
	}

	panelJS, err := staticFiles.ReadFile("assets/js/main.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read main.js: %w", err)
	}

	transpiled := api.Transform(string(panelJS), api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2015,
		MinifySyntax:      !panel.debug,
		MinifyIdentifiers: !panel.debug,
		MinifyWhitespace:  !panel.debug,
	})
	if len(transpiled.Errors) > 0 {
		return nil, fmt.Errorf("panel script failed with: %v", transpiled.Errors)
	}
	panel.scriptContent = string(transpiled.Code)

	panel.wsManager = NewWebSocketManager(panel.log, panel)
	card.SubscribeRender(panel)
	return panel, nil
}

// Port returns the configured port
func (p *Panel) Port() int { return p.port }

// WSManager returns the WebSocket manager
func (p *Panel) WSManager() *WebSocketManager { return p.wsManager }

// OnRender records the event and forwards it to connected clients
func (p *Panel) OnRender(event pikachart.RenderEvent) {
	p.Lock()
	p.lastRender = event
	p.Unlock()
	p.wsManager.BroadcastRender(event)
}

func (p *Panel) snapshot() renderPayload {
	p.Lock()
	event := p.lastRender
	p.Unlock()
	if event.Backend == "" {
		event.Backend = p.card.Backend()
	}
	return newRenderPayload(event)
}

// RegisterHandlers registers all panel routes on server
func (p *Panel) RegisterHandlers(server HTTPServer) {
	server.RegisterFileServer("/assets/", http.FS(staticFiles))

	server.RegisterHandler("/health", p.handleHealth)
	server.RegisterHandler("/chart.png", p.handleImage(core.FormatPNG))
	server.RegisterHandler("/chart.svg", p.handleImage(core.FormatSVG))
	server.RegisterHandler("/chart.html", p.handleImage(core.FormatHTML))
	server.RegisterHandler("/main.js", p.handleScript)
	server.RegisterHandler("/api/backend", p.handleBackend)
	server.RegisterHandler("/api/resize", p.handleResize)
	server.RegisterHandler("/api/point", p.handlePoint)
	server.RegisterHandler("/api/series", p.handleSeries)
	server.RegisterHandler("/ws", p.wsManager.HandleWebSocket)
	server.RegisterHandler("/", p.handleIndex)
}

// Close disconnects WebSocket clients
func (p *Panel) Close() {
	p.wsManager.Close()
}

// formatFor picks the export format a backend draws natively
func formatFor(backend string) core.ImageFormat {
	switch backend {
	case pikachart.BackendSVG:
		return core.FormatSVG
	case pikachart.BackendECharts:
		return core.FormatHTML
	}
	return core.FormatPNG
}

// PanelServer combines a Panel with an HTTP server
type PanelServer struct {
	panel  *Panel
	server HTTPServer
	log    logger.Logger
}

// NewPanelServer creates a new PanelServer
func NewPanelServer(panel *Panel, server HTTPServer, log logger.Logger) *PanelServer {
	return &PanelServer{
		panel:  panel,
		server: server,
		log:    log,
	}
}

// Start registers the panel routes and serves until the server stops
func (ps *PanelServer) Start() error {
	ps.panel.RegisterHandlers(ps.server)

	port := ps.panel.Port()
	ps.log.WithField("url", fmt.Sprintf("http://localhost:%d", port)).Info("panel available")
	return ps.server.Start(port)
}
