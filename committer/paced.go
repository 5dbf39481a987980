package committer

import (
	"context"
	"time"

	"github.com/hugolhafner/go-consumer/kafka"
)

var _ Committer = (*Paced)(nil)

type Config struct {
	// MaxInterval is the longest buffered records stay uncommitted before
	// the next Add flushes them.
	MaxInterval time.Duration

	// MaxCount flushes once this many records are buffered.
	MaxCount int
}

type Option func(*Config)

func WithMaxInterval(d time.Duration) Option {
	return func(cfg *Config) {
		cfg.MaxInterval = d
	}
}

func WithMaxCount(c int) Option {
	return func(cfg *Config) {
		cfg.MaxCount = c
	}
}

// Paced buffers fetched records and commits their offsets through the
// supplied commit function after MaxCount records, or once MaxInterval has
// passed since the previous commit, whichever comes first. Not safe for
// concurrent use; pair one Paced with one partition stream.
type Paced struct {
	commit     CommitFunc
	config     Config
	pending    []kafka.ConsumerRecord
	lastCommit time.Time
}

func NewPaced(commit CommitFunc, opts ...Option) *Paced {
	cfg := Config{
		MaxInterval: 5 * time.Second,
		MaxCount:    100,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Paced{
		commit:     commit,
		config:     cfg,
		lastCommit: time.Now(),
	}
}

// Add buffers records and flushes if a threshold is due. A failed flush
// keeps the records buffered, so the next Add or Flush retries them.
func (p *Paced) Add(ctx context.Context, records ...kafka.ConsumerRecord) error {
	p.pending = append(p.pending, records...)

	if len(p.pending) < p.config.MaxCount && time.Since(p.lastCommit) < p.config.MaxInterval {
		return nil
	}

	return p.Flush(ctx)
}

func (p *Paced) Flush(ctx context.Context) error {
	if len(p.pending) == 0 {
		p.lastCommit = time.Now()
		return nil
	}

	if err := p.commit(ctx, p.pending...); err != nil {
		return err
	}

	p.pending = p.pending[:0]
	p.lastCommit = time.Now()

	return nil
}

// Pending reports how many records are buffered and not yet committed.
func (p *Paced) Pending() int {
	return len(p.pending)
}
