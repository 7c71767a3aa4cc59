package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raykavin/pikachart"
	"github.com/raykavin/pikachart/pkg/logger"
)

// Message types sent to panel clients
const (
	MessageInitial  = "initialData"
	MessageRendered = "rendered"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type seriesPayload struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Color  string `json:"color"`
	Points int    `json:"points"`
	Hidden bool   `json:"hidden"`
}

type renderPayload struct {
	Backend    string          `json:"backend"`
	Format     string          `json:"format"`
	Generation uint64          `json:"generation"`
	Series     []seriesPayload `json:"series"`
	At         time.Time       `json:"at"`
}

func newRenderPayload(event pikachart.RenderEvent) renderPayload {
	payload := renderPayload{
		Backend:    event.Backend,
		Format:     string(formatFor(event.Backend)),
		Generation: event.Generation,
		Series:     make([]seriesPayload, 0, len(event.Series)),
		At:         event.At,
	}
	for _, s := range event.Series {
		payload.Series = append(payload.Series, seriesPayload{
			Name:   s.Name,
			Type:   string(s.Type),
			Color:  s.Color,
			Points: s.Points,
			Hidden: s.Hidden,
		})
	}
	return payload
}

// WebSocketManager fans render events out to connected panels
type WebSocketManager struct {
	sync.RWMutex
	clients       map[*websocket.Conn]struct{}
	upgrader      websocket.Upgrader
	broadcastChan chan WebSocketMessage
	done          chan struct{}
	closeOnce     sync.Once
	log           logger.Logger
	panel         *Panel
}

// NewWebSocketManager creates a manager and starts its broadcast loop
func NewWebSocketManager(log logger.Logger, panel *Panel) *WebSocketManager {
	manager := &WebSocketManager{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		broadcastChan: make(chan WebSocketMessage, 100),
		done:          make(chan struct{}),
		log:           log,
		panel:         panel,
	}

	go manager.handleBroadcasts()

	return manager
}

func (m *WebSocketManager) handleBroadcasts() {
	for {
		select {
		case <-m.done:
			return
		case msg := <-m.broadcastChan:
			m.RLock()
			for conn := range m.clients {
				if err := conn.WriteJSON(msg); err != nil {
					m.log.WithError(err).Warn("failed to send websocket message")
					// the read loop notices the closed connection and unregisters it
					conn.Close()
				}
			}
			m.RUnlock()
		}
	}
}

// HandleWebSocket upgrades the request and registers the client
func (m *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.WithError(err).Error("failed to upgrade connection to websocket")
		return
	}

	m.Lock()
	m.clients[conn] = struct{}{}
	clientCount := len(m.clients)
	m.Unlock()

	m.log.WithField("clients", clientCount).Debug("websocket client connected")

	go m.sendInitialData(conn)
	go m.handleClient(conn)
}

func (m *WebSocketManager) handleClient(conn *websocket.Conn) {
	defer func() {
		m.Lock()
		delete(m.clients, conn)
		remaining := len(m.clients)
		m.Unlock()
		conn.Close()
		m.log.WithField("clients", remaining).Debug("websocket client disconnected")
	}()

	conn.SetPingHandler(func(string) error {
		return conn.WriteControl(websocket.PongMessage, []byte{}, time.Now().Add(10*time.Second))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.WithError(err).Warn("websocket read error")
			}
			return
		}
	}
}

func (m *WebSocketManager) sendInitialData(conn *websocket.Conn) {
	msg := WebSocketMessage{Type: MessageInitial, Payload: m.panel.snapshot()}

	// writes to one connection must not interleave with broadcasts
	m.Lock()
	err := conn.WriteJSON(msg)
	m.Unlock()
	if err != nil {
		m.log.WithError(err).Warn("failed to send initial data")
	}
}

// BroadcastRender queues a render event for every client. Events are
// dropped when the queue is full.
func (m *WebSocketManager) BroadcastRender(event pikachart.RenderEvent) {
	msg := WebSocketMessage{Type: MessageRendered, Payload: newRenderPayload(event)}
	select {
	case m.broadcastChan <- msg:
	default:
		m.log.Warn("websocket broadcast queue full, dropping render event")
	}
}

// Clients returns the number of connected clients
func (m *WebSocketManager) Clients() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.clients)
}

// Close stops the broadcast loop and disconnects every client
func (m *WebSocketManager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.Lock()
		for conn := range m.clients {
			conn.Close()
		}
		m.Unlock()
	})
}
