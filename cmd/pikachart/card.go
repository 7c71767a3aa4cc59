package main

import (
	"context"
	"fmt"

	"github.com/raykavin/pikachart"
	"github.com/raykavin/pikachart/pkg/config"
	"github.com/raykavin/pikachart/pkg/recorder"
	"github.com/raykavin/pikachart/pkg/surface"
)

// session is a card mounted offscreen on top of the history database
type session struct {
	card     *pikachart.Card
	recorder *recorder.Recorder
}

type sessionOptions struct {
	backend string
	width   int
	height  int
	animate bool
	theme   string
}

func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.Library = opts.backend
	}
	cfg.Animate = cfg.Animate && opts.animate

	rec, err := recorder.FromFile(database, recorder.WithLogger(pikachart.DefaultLog))
	if err != nil {
		return nil, err
	}

	card, err := pikachart.NewCard(*cfg, rec, pikachart.WithLogger(pikachart.DefaultLog))
	if err != nil {
		rec.Close()
		return nil, err
	}

	states, err := rec.States(ctx)
	if err != nil {
		rec.Close()
		return nil, err
	}
	card.SetStates(states)
	if opts.theme != "" {
		card.SetSelectedTheme(opts.theme)
	}

	height := opts.height
	if height <= 0 {
		height = cfg.Height
	}
	container := surface.NewDocument().NewContainer("pikachart", opts.width, height)
	if err := card.Mount(ctx, container); err != nil {
		rec.Close()
		return nil, fmt.Errorf("failed to mount card: %w", err)
	}

	return &session{card: card, recorder: rec}, nil
}

func (s *session) Close() {
	s.card.Unmount()
	if err := s.recorder.Close(); err != nil {
		pikachart.DefaultLog.WithError(err).Warn("failed to close history database")
	}
}
