package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// HTTPServer is the server a Panel registers its routes on
type HTTPServer interface {
	// RegisterHandler registers a handler for a specific route
	RegisterHandler(path string, handler http.HandlerFunc)

	// RegisterFileServer registers a handler to serve static files
	RegisterFileServer(path string, fs http.FileSystem)

	// Start serves on port until Shutdown
	Start(port int) error
}

// StandardHTTPServer implements HTTPServer on its own ServeMux
type StandardHTTPServer struct {
	mu     sync.Mutex
	mux    *http.ServeMux
	server *http.Server
}

// NewStandardHTTPServer creates a new instance of StandardHTTPServer
func NewStandardHTTPServer() *StandardHTTPServer {
	return &StandardHTTPServer{mux: http.NewServeMux()}
}

// RegisterHandler registers a handler for a specific route
func (s *StandardHTTPServer) RegisterHandler(path string, handler http.HandlerFunc) {
	s.mux.HandleFunc(path, handler)
}

// RegisterFileServer registers a handler to serve static files
func (s *StandardHTTPServer) RegisterFileServer(path string, fs http.FileSystem) {
	s.mux.Handle(path, http.FileServer(fs))
}

// Handler returns the routes registered so far
func (s *StandardHTTPServer) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server on the specified port
func (s *StandardHTTPServer) Start(port int) error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a started server gracefully
func (s *StandardHTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
