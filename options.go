package pikachart

import (
	"time"

	"github.com/raykavin/pikachart/pkg/logger"
)

// Option is a functional option for configuring a Card
type Option func(*Card)

// WithLogger sets the logger, by default DefaultLog is used
func WithLogger(log logger.Logger) Option {
	return func(c *Card) {
		c.log = log
	}
}

// WithClock replaces the wall clock used to compute the history window
func WithClock(now func() time.Time) Option {
	return func(c *Card) {
		c.now = now
	}
}

// WithRenderSubscription subscribes a given value to render events
func WithRenderSubscription(subscriber RenderSubscriber) Option {
	return func(c *Card) {
		c.SubscribeRender(subscriber)
	}
}

// WithBackends replaces the backend registry, by default DefaultBackends is used
func WithBackends(backends *Backends) Option {
	return func(c *Card) {
		c.backends = backends
	}
}

// WithRetry sets how many times a failed fetch is attempted and the first
// backoff delay
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Card) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}
