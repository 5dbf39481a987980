package consumer

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/hugolhafner/go-consumer/kafka"
	"github.com/hugolhafner/go-consumer/logger"
	"github.com/hugolhafner/go-consumer/runloop"
)

// Consumer is the public face of the actor. It owns the run loop goroutine
// and a poll driver that keeps the loop ticking. All methods are safe for
// concurrent use; every operation is serialized through the loop's queue.
type Consumer struct {
	loop   *runloop.Runloop
	config Config
	log    logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
	runErr error

	closeOnce sync.Once
}

// New builds a Consumer around the broker client and starts its run loop and
// poll driver. The consumer owns the client from here on; Close releases it.
func New(client kafka.Client, opts ...Option) (*Consumer, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	log := config.Logger
	if config.GroupID != "" {
		log = log.With("group", config.GroupID)
	}

	loop := runloop.New(
		client,
		runloop.WithPollTimeout(config.PollTimeout),
		runloop.WithMaxPendingCommits(config.MaxPendingCommits),
		runloop.WithQueueSize(config.QueueSize),
		runloop.WithLogger(log),
		runloop.WithTelemetry(config.Telemetry),
	)

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		loop:   loop,
		config: config,
		log:    log.With("component", "consumer"),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go c.run(ctx)

	return c, nil
}

func (c *Consumer) run(ctx context.Context) {
	driver := newPollDriver(c.loop, c.config.PollInterval, c.config.DriverBackoff, c.log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		driver.run(ctx)
	}()

	err := c.loop.Run(ctx)

	c.cancel()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		c.runErr = err
		c.log.Error("run loop stopped", "error", err)
	}

	close(c.done)
}

// SubscribeTopics subscribes the consumer to an explicit topic list.
func (c *Consumer) SubscribeTopics(ctx context.Context, topics []string) error {
	if len(topics) == 0 {
		return ErrNoTopics
	}

	req := runloop.NewSubscribeTopics(topics)
	if err := c.enqueue(ctx, req); err != nil {
		return err
	}

	return c.await(ctx, req.Done)
}

// SubscribePattern subscribes the consumer to every topic matching pattern.
func (c *Consumer) SubscribePattern(ctx context.Context, pattern *regexp.Regexp) error {
	req := runloop.NewSubscribePattern(pattern)
	if err := c.enqueue(ctx, req); err != nil {
		return err
	}

	return c.await(ctx, req.Done)
}

// Assignment returns the partitions currently assigned to this consumer and
// optionally registers rebalance hooks. The first call marks the consumer as
// streaming, which lets the poll driver start driving the broker.
func (c *Consumer) Assignment(ctx context.Context, onRebalance *runloop.OnRebalance) ([]kafka.TopicPartition, error) {
	req := runloop.NewAssignment(onRebalance)
	if err := c.enqueue(ctx, req); err != nil {
		return nil, err
	}

	select {
	case result := <-req.Done:
		return result.Partitions, result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

// PartitionStream returns a demand-driven stream of records for one partition
// on behalf of one stream identity.
func (c *Consumer) PartitionStream(tp kafka.TopicPartition, id runloop.StreamID) *PartitionStream {
	return &PartitionStream{consumer: c, tp: tp, id: id}
}

// Close stops the poll driver and the run loop. Outstanding fetches complete
// with a revocation, parked commits fail, and the broker client is closed.
// Close blocks until teardown finishes or ctx ends.
func (c *Consumer) Close(ctx context.Context) error {
	c.closeOnce.Do(c.cancel)

	select {
	case <-c.done:
		return c.runErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the run loop has fully stopped.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

// Err reports why the run loop stopped, once Done is closed. Nil after a
// clean Close.
func (c *Consumer) Err() error {
	select {
	case <-c.done:
		return c.runErr
	default:
		return nil
	}
}

func (c *Consumer) enqueue(ctx context.Context, req runloop.Request) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	return c.loop.Enqueue(ctx, req)
}

func (c *Consumer) await(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}
