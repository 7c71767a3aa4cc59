package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/raykavin/pikachart"
	"github.com/raykavin/pikachart/pkg/server"
)

// Serve command flags
var (
	servePort    int
	serveDebug   bool
	serveBackend string
	serveTheme   string
)

func buildServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured card in a web panel",
		RunE:  runServe,
	}

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "HTTP port")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Serve unminified scripts")
	serveCmd.Flags().StringVarP(&serveBackend, "backend", "b", "", "Backend override (gochart, svg, echarts)")
	serveCmd.Flags().StringVar(&serveTheme, "selected-theme", "", "Dashboard theme name used by theme auto")

	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx, sessionOptions{
		backend: serveBackend,
		width:   900,
		animate: true,
		theme:   serveTheme,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	options := []server.Option{server.WithPort(servePort)}
	if serveDebug {
		options = append(options, server.WithDebug())
	}
	panel, err := server.NewPanel(s.card, pikachart.DefaultLog, options...)
	if err != nil {
		return err
	}
	defer panel.Close()

	httpServer := server.NewStandardHTTPServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.NewPanelServer(panel, httpServer, pikachart.DefaultLog).Start()
	}()

	// keep the chart fed with the latest recorded states
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				states, err := s.recorder.States(ctx)
				if err != nil {
					pikachart.DefaultLog.WithError(err).Warn("failed to read states")
					continue
				}
				s.card.SetStates(states)
			}
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
