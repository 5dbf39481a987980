package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hugolhafner/dskit/backoff"
	mockkafka "github.com/hugolhafner/go-consumer/kafka/mock"
	"github.com/hugolhafner/go-consumer/logger"
	"github.com/hugolhafner/go-consumer/runloop"
)

func TestPollDriverDropsTicksWhenQueueFull(t *testing.T) {
	// The loop is never started, so the queue fills after one tick and stays
	// full. The driver must keep dropping ticks instead of blocking.
	loop := runloop.New(mockkafka.NewClient(), runloop.WithQueueSize(1))
	driver := newPollDriver(loop, time.Millisecond, backoff.NewFixed(time.Millisecond), logger.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		driver.run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("driver did not stop")
	}

	require.False(t, loop.TryEnqueue(runloop.Poll{}), "queue should still hold the single queued poll")
}
