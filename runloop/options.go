package runloop

import (
	"time"

	"github.com/hugolhafner/go-consumer/logger"
	"github.com/hugolhafner/go-consumer/otel"
)

const (
	DefaultPollTimeout       = 50 * time.Millisecond
	DefaultMaxPendingCommits = 1024
	DefaultQueueSize         = 64
)

type Config struct {
	// PollTimeout bounds how long a broker poll blocks when at least one
	// partition has demand. Polls with no demand never block.
	PollTimeout time.Duration

	// MaxPendingCommits caps how many commits may park while a rebalance is
	// in progress. Commits beyond the cap fail with ErrTooManyPendingCommits.
	MaxPendingCommits int

	// QueueSize is the request queue capacity.
	QueueSize int

	Logger    logger.Logger
	Telemetry *otel.Telemetry
}

type Option func(*Config)

func WithPollTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.PollTimeout = timeout
	}
}

func WithMaxPendingCommits(max int) Option {
	return func(c *Config) {
		c.MaxPendingCommits = max
	}
}

func WithQueueSize(size int) Option {
	return func(c *Config) {
		c.QueueSize = size
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func WithTelemetry(t *otel.Telemetry) Option {
	return func(c *Config) {
		c.Telemetry = t
	}
}

func newConfig(opts ...Option) Config {
	config := Config{
		PollTimeout:       DefaultPollTimeout,
		MaxPendingCommits: DefaultMaxPendingCommits,
		QueueSize:         DefaultQueueSize,
		Logger:            logger.NewNoopLogger(),
		Telemetry:         otel.Noop(),
	}

	for _, opt := range opts {
		opt(&config)
	}

	return config
}
