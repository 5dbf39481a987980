package consumer

import (
	"time"

	"github.com/hugolhafner/dskit/backoff"
	"github.com/hugolhafner/go-consumer/commitrecovery"
	"github.com/hugolhafner/go-consumer/kafka"
	"github.com/hugolhafner/go-consumer/logger"
	"github.com/hugolhafner/go-consumer/otel"
	"github.com/hugolhafner/go-consumer/runloop"
)

const (
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultCommitTimeout = 15 * time.Second
)

type Config struct {
	// GroupID tags log output; group membership itself is configured on the
	// broker client.
	GroupID string

	// PollInterval is how often the driver enqueues a poll.
	PollInterval time.Duration

	// PollTimeout bounds a single broker poll when demand exists.
	PollTimeout time.Duration

	// CommitTimeout bounds how long MessageCommit waits for completion.
	CommitTimeout time.Duration

	// CommitRecovery decides what happens after a failed or timed-out commit.
	CommitRecovery commitrecovery.Handler

	// RecordMetadata derives the metadata string attached to a record's
	// committed offset. Nil means no metadata.
	RecordMetadata func(record kafka.ConsumerRecord) string

	// DriverBackoff paces driver retries while the request queue stays full.
	DriverBackoff backoff.Backoff

	// MaxPendingCommits caps commits parked during a rebalance.
	MaxPendingCommits int

	// QueueSize is the actor request queue capacity.
	QueueSize int

	Logger    logger.Logger
	Telemetry *otel.Telemetry
}

type Option func(*Config)

func WithGroupID(groupID string) Option {
	return func(c *Config) {
		c.GroupID = groupID
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = interval
	}
}

func WithPollTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.PollTimeout = timeout
	}
}

func WithCommitTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.CommitTimeout = timeout
	}
}

func WithCommitRecovery(handler commitrecovery.Handler) Option {
	return func(c *Config) {
		c.CommitRecovery = handler
	}
}

func WithRecordMetadata(fn func(record kafka.ConsumerRecord) string) Option {
	return func(c *Config) {
		c.RecordMetadata = fn
	}
}

func WithDriverBackoff(b backoff.Backoff) Option {
	return func(c *Config) {
		c.DriverBackoff = b
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

func WithLogger(logger logger.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

func WithTelemetry(t *otel.Telemetry) Option {
	return func(c *Config) {
		c.Telemetry = t
	}
}

func defaultConfig() Config {
	return Config{
		PollInterval:      DefaultPollInterval,
		PollTimeout:       runloop.DefaultPollTimeout,
		CommitTimeout:     DefaultCommitTimeout,
		CommitRecovery:    commitrecovery.SilentFail(),
		DriverBackoff:     backoff.NewFixed(time.Second),
		MaxPendingCommits: runloop.DefaultMaxPendingCommits,
		QueueSize:         runloop.DefaultQueueSize,
		Logger:            logger.NewNoopLogger(),
		Telemetry:         otel.Noop(),
	}
}
