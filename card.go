// Package pikachart hosts a chart in a home-automation dashboard card: it
// turns card configuration and entity history into chart series, keeps them
// refreshed and lets the rendering backend be switched at runtime.
package pikachart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"github.com/raykavin/pikachart/pkg/chart"
	"github.com/raykavin/pikachart/pkg/config"
	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/hass"
	"github.com/raykavin/pikachart/pkg/logger"
	"github.com/raykavin/pikachart/pkg/surface"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 200 * time.Millisecond
	rowHeight         = 50
)

var ErrAlreadyMounted = errors.New("card already mounted")

// RenderEvent is published after every applied refresh and backend switch
type RenderEvent struct {
	Backend    string
	Generation uint64
	Series     []core.RenderedSeries
	At         time.Time
}

// RenderSubscriber receives render events
type RenderSubscriber interface {
	OnRender(event RenderEvent)
}

// Card binds a configuration and a history provider to a chart manager
type Card struct {
	sync.Mutex

	cfg      config.Card
	provider hass.HistoryProvider
	log      logger.Logger
	now      func() time.Time
	backends *Backends

	attempts   int
	retryDelay time.Duration

	subscribers []RenderSubscriber

	manager       *chart.Manager
	backend       string
	states        hass.States
	selectedTheme string

	mounted bool
	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCard validates cfg and creates an unmounted card
func NewCard(cfg config.Card, provider hass.HistoryProvider, options ...Option) (*Card, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, errors.New("history provider is required")
	}

	c := &Card{
		cfg:        cfg,
		provider:   provider,
		log:        DefaultLog,
		now:        time.Now,
		backends:   DefaultBackends(),
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
	}
	for _, option := range options {
		option(c)
	}

	backend, err := c.backends.Get(cfg.Library)
	if err != nil {
		return nil, err
	}
	c.backend = backend.Name
	c.log = c.log.WithField("card", cardName(cfg))
	c.manager = chart.NewManager(c.factory(backend), c.log)
	return c, nil
}

func cardName(cfg config.Card) string {
	if cfg.Title != "" {
		return cfg.Title
	}
	return cfg.Entities[0].Entity
}

func (c *Card) factory(backend Backend) chart.Factory {
	log := c.log.WithField("backend", backend.Name)
	return func() core.Adapter {
		return backend.Factory(log)
	}
}

// SubscribeRender registers a subscriber for render events
func (c *Card) SubscribeRender(subscriber RenderSubscriber) {
	c.Lock()
	defer c.Unlock()
	c.subscribers = append(c.subscribers, subscriber)
}

// StubConfig returns the example configuration for a new card
func StubConfig() config.Card {
	return config.Stub()
}

// CardSize is the card height in dashboard rows
func (c *Card) CardSize() int {
	height := c.cfg.Height
	if height <= 0 {
		height = config.DefaultHeight
	}
	return int(math.Ceil(float64(height) / rowHeight))
}

// Config returns the card configuration
func (c *Card) Config() config.Card { return c.cfg }

// Manager exposes the chart manager for hit-testing and inspection
func (c *Card) Manager() *chart.Manager { return c.manager }

// Backend returns the name of the active backend
func (c *Card) Backend() string {
	c.Lock()
	defer c.Unlock()
	return c.backend
}

// Backends returns the registry the card selects from
func (c *Card) Backends() *Backends { return c.backends }

// SetSelectedTheme records the dashboard theme name used by theme "auto".
// It takes effect on the next mount or backend switch.
func (c *Card) SetSelectedTheme(name string) {
	c.Lock()
	defer c.Unlock()
	c.selectedTheme = name
}

func (c *Card) theme() core.Theme {
	switch c.cfg.Theme {
	case string(core.ThemeDark):
		return core.ThemeDark
	case string(core.ThemeLight):
		return core.ThemeLight
	}
	if strings.HasPrefix(c.selectedTheme, "dark") {
		return core.ThemeDark
	}
	return core.ThemeLight
}

// chartOptions must be called with the lock held
func (c *Card) chartOptions() core.Options {
	options := core.DefaultOptions()
	options.Type = c.cfg.Chart()
	options.Title = c.cfg.Title
	options.Height = c.cfg.Height
	options.Stacked = c.cfg.Stacked
	options.ShowLegend = c.cfg.ShowLegend
	options.ShowTooltip = c.cfg.ShowTooltip
	options.ShowGrid = c.cfg.ShowGrid
	options.Animate = c.cfg.Animate
	options.Theme = c.theme()
	return options
}

// Mount creates the chart on container, applies the first refresh and starts
// the refresh loop. The loop stops when ctx is done or on Unmount.
func (c *Card) Mount(ctx context.Context, container *surface.Container) error {
	c.Lock()
	if c.mounted {
		c.Unlock()
		return ErrAlreadyMounted
	}
	options := c.chartOptions()
	c.Unlock()

	if err := c.manager.Initialize(container, options); err != nil {
		return err
	}
	if axes := c.cfg.Axes(); !axes.Empty() {
		if err := c.manager.SetAxes(axes); err != nil && !errors.Is(err, core.ErrUnsupported) {
			c.log.WithError(err).Warn("failed to apply axis configuration")
		}
	}

	interval, err := c.cfg.Refresh()
	if err != nil {
		c.manager.Destroy()
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.Lock()
	c.mounted = true
	c.cancel = cancel
	c.trigger = make(chan struct{}, 1)
	trigger := c.trigger
	c.Unlock()

	if err := c.Refresh(loopCtx); err != nil {
		c.log.WithError(err).Error("initial refresh failed")
	}

	c.wg.Add(1)
	go c.loop(loopCtx, interval, trigger)

	c.log.WithFields(map[string]any{
		"backend":  c.Backend(),
		"interval": interval.String(),
	}).Info("card mounted")
	return nil
}

func (c *Card) loop(ctx context.Context, interval time.Duration, trigger <-chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-trigger:
		}
		if err := c.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.log.WithError(err).Error("refresh failed")
		}
	}
}

// SetStates stores the entity snapshot and schedules a refresh when mounted.
// Refreshes requested while one is queued are coalesced.
func (c *Card) SetStates(states hass.States) {
	c.Lock()
	c.states = states
	trigger := c.trigger
	mounted := c.mounted
	c.Unlock()

	if !mounted {
		return
	}
	select {
	case trigger <- struct{}{}:
	default:
	}
}

// Refresh fetches every configured entity and applies the result. Results
// that arrive after a destroy or backend switch are discarded.
func (c *Card) Refresh(ctx context.Context) error {
	gen := c.manager.Generation()

	c.Lock()
	states := c.states
	c.Unlock()

	if states == nil {
		c.log.Debug("no entity states yet, skipping refresh")
		return nil
	}

	series, err := c.fetch(ctx, states)
	if err != nil {
		return err
	}

	err = c.manager.UpdateIfCurrent(gen, series)
	if errors.Is(err, core.ErrStaleGeneration) {
		c.log.WithField("generation", gen).Debug("discarding stale refresh")
		return nil
	}
	if err != nil {
		return err
	}

	c.publish()
	return nil
}

// fetch loads all entities concurrently, keeping configuration order
func (c *Card) fetch(ctx context.Context, states hass.States) ([]core.Series, error) {
	window, err := c.cfg.Window()
	if err != nil {
		return nil, err
	}
	end := c.now()
	start := end.Add(-window)

	results := make([]*core.Series, len(c.cfg.Entities))
	var wg sync.WaitGroup
	for i, entityCfg := range c.cfg.Entities {
		entity, ok := states[entityCfg.Entity]
		if !ok {
			c.log.WithField("entity", entityCfg.Entity).Warn("entity not found")
			continue
		}

		wg.Add(1)
		go func(i int, entityCfg config.Entity, entity hass.Entity) {
			defer wg.Done()
			data := c.fetchEntity(ctx, entityCfg, start, end)
			s := c.series(entityCfg, entity, data)
			results[i] = &s
		}(i, entityCfg, entity)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	series := make([]core.Series, 0, len(results))
	for _, s := range results {
		if s != nil {
			series = append(series, *s)
		}
	}
	return series, nil
}

// fetchEntity retries failed fetches with backoff and yields no points once
// attempts are exhausted
func (c *Card) fetchEntity(ctx context.Context, entityCfg config.Entity, start, end time.Time) []core.DataPoint {
	b := &backoff.Backoff{Min: c.retryDelay, Max: 10 * c.retryDelay, Factor: 2}
	log := c.log.WithField("entity", entityCfg.Entity)

	for attempt := 1; ; attempt++ {
		data, err := c.load(ctx, entityCfg, start, end)
		if err == nil {
			return data
		}
		if attempt >= c.attempts || ctx.Err() != nil {
			log.WithError(err).Error("failed to fetch entity data")
			return nil
		}

		delay := b.Duration()
		log.WithError(err).WithFields(map[string]any{
			"attempt": attempt,
			"retry":   delay.String(),
		}).Warn("fetch failed, retrying")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (c *Card) load(ctx context.Context, entityCfg config.Entity, start, end time.Time) ([]core.DataPoint, error) {
	if entityCfg.Statistics != nil {
		statType, err := hass.ParseStatType(entityCfg.Statistics.StatType)
		if err != nil {
			return nil, err
		}
		period, err := hass.ParsePeriod(entityCfg.Statistics.Period)
		if err != nil {
			return nil, err
		}
		stats, err := c.provider.Statistics(ctx, entityCfg.Entity, start, end, period)
		if err != nil {
			return nil, fmt.Errorf("statistics of %s: %w", entityCfg.Entity, err)
		}
		return hass.StatisticPoints(stats, statType), nil
	}

	changes, err := c.provider.History(ctx, entityCfg.Entity, start, end)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", entityCfg.Entity, err)
	}
	return hass.HistoryPoints(changes, entityCfg.Attribute), nil
}

func (c *Card) series(entityCfg config.Entity, entity hass.Entity, data []core.DataPoint) core.Series {
	s := core.Series{
		Name:    entityCfg.Name,
		Data:    data,
		Color:   entityCfg.Color,
		Unit:    entityCfg.Unit,
		YAxisID: entityCfg.SeriesAxisID(),
		Hidden:  !entityCfg.InChart(),
	}
	if s.Name == "" {
		s.Name = hass.FriendlyName(entity)
	}
	if s.Unit == "" {
		s.Unit = hass.Unit(entity)
	}
	if entityCfg.Type != "" {
		s.Type, _ = core.ParseChartType(entityCfg.Type)
	}
	return s
}

// SwitchBackend replaces the rendering backend, keeping the applied series
func (c *Card) SwitchBackend(name string) error {
	backend, err := c.backends.Get(name)
	if err != nil {
		return err
	}

	c.Lock()
	if backend.Name == c.backend {
		c.Unlock()
		return nil
	}
	c.Unlock()

	if err := c.manager.SwitchAdapter(c.factory(backend)); err != nil {
		return fmt.Errorf("switch to %s: %w", backend.Name, err)
	}

	c.Lock()
	c.backend = backend.Name
	c.Unlock()

	c.publish()
	return nil
}

// Resize forwards new dimensions; zero values re-measure the container
func (c *Card) Resize(width, height int) error {
	return c.manager.Resize(width, height)
}

// Export snapshots the chart
func (c *Card) Export(ctx context.Context, format core.ImageFormat) ([]byte, error) {
	return c.manager.ExportImage(ctx, format)
}

// Unmount stops the refresh loop and destroys the chart
func (c *Card) Unmount() {
	c.Lock()
	cancel := c.cancel
	c.mounted = false
	c.cancel = nil
	c.trigger = nil
	c.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.manager.Destroy()
	c.log.Info("card unmounted")
}

func (c *Card) publish() {
	rendered, err := c.manager.Rendered()
	if err != nil {
		c.log.WithError(err).Debug("backend does not report rendered series")
	}

	c.Lock()
	event := RenderEvent{
		Backend:    c.backend,
		Generation: c.manager.Generation(),
		Series:     rendered,
		At:         c.now(),
	}
	subscribers := append([]RenderSubscriber(nil), c.subscribers...)
	c.Unlock()

	for _, subscriber := range subscribers {
		subscriber.OnRender(event)
	}
}
