package consumer

import (
	"context"
	"time"

	"github.com/hugolhafner/dskit/backoff"
	"github.com/hugolhafner/go-consumer/logger"
	"github.com/hugolhafner/go-consumer/runloop"
)

// pollDriver enqueues a Poll at a fixed interval. A full queue means the loop
// is behind; the tick is dropped so polls never pile up, and repeated full
// queues back the driver off before it tries again.
type pollDriver struct {
	loop     *runloop.Runloop
	interval time.Duration
	backoff  backoff.Backoff
	log      logger.Logger
}

func newPollDriver(loop *runloop.Runloop, interval time.Duration, b backoff.Backoff, log logger.Logger) *pollDriver {
	return &pollDriver{
		loop:     loop,
		interval: interval,
		backoff:  b,
		log:      log.With("component", "poll-driver"),
	}
}

func (d *pollDriver) run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	var fullTicks uint

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if d.loop.TryEnqueue(runloop.Poll{}) {
			fullTicks = 0
			continue
		}

		fullTicks++
		d.log.Debug("request queue full, dropping poll tick", "consecutive", fullTicks)

		select {
		case <-ctx.Done():
			return
		case <-time.After(d.backoff.Next(fullTicks)):
		}
	}
}
