package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/raykavin/pikachart"
	"github.com/raykavin/pikachart/pkg/core"
)

type backendOption struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type backendRequest struct {
	Backend string `json:"backend"`
}

type resizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type pointResponse struct {
	Found  bool    `json:"found"`
	Series string  `json:"series,omitempty"`
	X      string  `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Label  string  `json:"label,omitempty"`
}

func (p *Panel) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		p.log.WithError(err).Error("failed to write json response")
	}
}

// statusOf maps chart errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownBackend):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusNotAcceptable
	case errors.Is(err, core.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrNotRendered), errors.Is(err, core.ErrNotInitialized), errors.Is(err, core.ErrDestroyed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (p *Panel) backendOptions() []backendOption {
	current := p.card.Backend()
	return lo.Map(p.card.Backends().List(), func(b pikachart.Backend, _ int) backendOption {
		return backendOption{Name: b.Name, Label: b.Label, Selected: b.Name == current}
	})
}

// handleHealth reports unhealthy when nothing was rendered recently
func (p *Panel) handleHealth(w http.ResponseWriter, _ *http.Request) {
	p.Lock()
	last := p.lastRender.At
	p.Unlock()

	if last.IsZero() || time.Since(last) > p.staleAfter {
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte(last.String())); err != nil {
			p.log.WithError(err).Error("failed to write health status")
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (p *Panel) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	backend := p.card.Backend()
	w.Header().Set("Content-Type", "text/html")
	err := p.indexHTML.Execute(w, map[string]any{
		"title":    p.card.Config().Title,
		"height":   p.card.Config().Height,
		"backend":  backend,
		"format":   string(formatFor(backend)),
		"backends": p.backendOptions(),
	})
	if err != nil {
		p.log.WithError(err).Error("template execution failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (p *Panel) handleScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	if _, err := w.Write([]byte(p.scriptContent)); err != nil {
		p.log.WithError(err).Error("failed to write script")
	}
}

func (p *Panel) handleImage(format core.ImageFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := p.card.Export(r.Context(), format)
		if err != nil {
			http.Error(w, err.Error(), statusOf(err))
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(data); err != nil {
			p.log.WithError(err).Error("failed to write chart image")
		}
	}
}

// handleBackend lists backends on GET and switches on POST
func (p *Panel) handleBackend(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req backendRequest
		if r.Header.Get("Content-Type") == "application/json" {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
		} else {
			req.Backend = r.FormValue("backend")
		}

		if err := p.card.SwitchBackend(req.Backend); err != nil {
			p.log.WithError(err).WithField("backend", req.Backend).Warn("backend switch failed")
			http.Error(w, err.Error(), statusOf(err))
			return
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	backend := p.card.Backend()
	p.writeJSON(w, http.StatusOK, map[string]any{
		"backend":  backend,
		"format":   string(formatFor(backend)),
		"backends": p.backendOptions(),
	})
}

func (p *Panel) handleResize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Width < 0 || req.Height < 0 {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := p.card.Resize(req.Width, req.Height); err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePoint hit-tests the chart at ?x=&y= device coordinates
func (p *Panel) handlePoint(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		http.Error(w, "x and y are required", http.StatusBadRequest)
		return
	}

	hit, found, err := p.card.Manager().DataAtPoint(x, y)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}

	resp := pointResponse{Found: found}
	if found {
		resp.Series = hit.Series
		resp.X = hit.Point.X.String()
		resp.Y = hit.Point.Y
		resp.Label = hit.Point.Label
	}
	p.writeJSON(w, http.StatusOK, resp)
}

func (p *Panel) handleSeries(w http.ResponseWriter, _ *http.Request) {
	p.writeJSON(w, http.StatusOK, p.snapshot())
}
