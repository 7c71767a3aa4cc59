package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pikachart"
	"github.com/raykavin/pikachart/pkg/config"
	"github.com/raykavin/pikachart/pkg/hass"
	"github.com/raykavin/pikachart/pkg/logger"
	"github.com/raykavin/pikachart/pkg/recorder"
	"github.com/raykavin/pikachart/pkg/surface"
)

func newTestPanel(t *testing.T, options ...Option) (*Panel, *pikachart.Card, *httptest.Server) {
	t.Helper()

	rec, err := recorder.FromMemory()
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	now := time.Now()
	changes := []hass.StateChange{
		{State: "20", LastChanged: now.Add(-3 * time.Hour)},
		{State: "22", LastChanged: now.Add(-2 * time.Hour)},
		{State: "21", LastChanged: now.Add(-time.Hour)},
	}
	require.NoError(t, rec.RecordMany(context.Background(), "sensor.temp", changes))

	cfg := config.Default()
	cfg.Title = "Climate"
	cfg.Library = pikachart.BackendSVG
	cfg.Animate = false
	cfg.RefreshInterval = "1h"
	cfg.Entities = []config.Entity{{Entity: "sensor.temp", Name: "Temperature"}}

	card, err := pikachart.NewCard(cfg, rec, pikachart.WithLogger(logger.Nop()))
	require.NoError(t, err)

	panel, err := NewPanel(card, logger.Nop(), options...)
	require.NoError(t, err)
	t.Cleanup(panel.Close)

	states, err := rec.States(context.Background())
	require.NoError(t, err)
	card.SetStates(states)

	box := surface.NewDocument().NewContainer("panel", 600, 300)
	require.NoError(t, card.Mount(context.Background(), box))
	t.Cleanup(card.Unmount)

	srv := NewStandardHTTPServer()
	panel.RegisterHandlers(srv)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return panel, card, ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, body
}

func TestPanelScriptIsTranspiled(t *testing.T) {
	panel, _, ts := newTestPanel(t)
	assert.NotEmpty(t, panel.scriptContent)
	assert.NotContains(t, panel.scriptContent, "\n  ")

	res, body := get(t, ts.URL+"/main.js")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, panel.scriptContent, string(body))
}

func TestPanelIndex(t *testing.T) {
	_, _, ts := newTestPanel(t)

	res, body := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, res.StatusCode)
	page := string(body)
	assert.Contains(t, page, "Climate")
	assert.Contains(t, page, `value="svg" selected`)
	assert.Contains(t, page, `data-format="svg"`)

	res, _ = get(t, ts.URL+"/missing")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestPanelImages(t *testing.T) {
	_, _, ts := newTestPanel(t)

	res, body := get(t, ts.URL+"/chart.svg")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/svg+xml", res.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<svg")
	assert.Contains(t, string(body), "Temperature")

	res, _ = get(t, ts.URL+"/chart.html")
	assert.Equal(t, http.StatusNotAcceptable, res.StatusCode)
}

func TestPanelSwitchBackend(t *testing.T) {
	_, card, ts := newTestPanel(t)

	res, err := http.Post(ts.URL+"/api/backend", "application/json", strings.NewReader(`{"backend":"gochart"}`))
	require.NoError(t, err)
	var state map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&state))
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "gochart", state["backend"])
	assert.Equal(t, "png", state["format"])
	assert.Equal(t, pikachart.BackendGoChart, card.Backend())

	res, body := get(t, ts.URL+"/chart.png")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	res, err = http.Post(ts.URL+"/api/backend", "application/json", strings.NewReader(`{"backend":"chartjs"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = get(t, ts.URL+"/api/backend")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `"echarts"`)
}

func TestPanelResizeAndPoint(t *testing.T) {
	_, _, ts := newTestPanel(t)

	res, err := http.Post(ts.URL+"/api/resize", "application/json", strings.NewReader(`{"width":400,"height":200}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = get(t, ts.URL+"/api/resize")
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, _ = get(t, ts.URL+"/api/point?x=abc")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body := get(t, ts.URL+"/api/point?x=0&y=0")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `"found":false`)
}

func TestPanelHealth(t *testing.T) {
	_, _, ts := newTestPanel(t)
	res, _ := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	_, _, stale := newTestPanel(t, WithStaleAfter(time.Nanosecond))
	time.Sleep(time.Millisecond)
	res, _ = get(t, stale.URL+"/health")
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestPanelWebSocketBroadcast(t *testing.T) {
	panel, card, ts := newTestPanel(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg struct {
		Type    string        `json:"type"`
		Payload renderPayload `json:"payload"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageInitial, msg.Type)
	assert.Equal(t, "svg", msg.Payload.Backend)
	require.Len(t, msg.Payload.Series, 1)
	assert.Equal(t, "Temperature", msg.Payload.Series[0].Name)

	require.Eventually(t, func() bool { return panel.WSManager().Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, card.Refresh(context.Background()))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageRendered, msg.Type)
	assert.Equal(t, 3, msg.Payload.Series[0].Points)
}
