package consumer

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/hugolhafner/go-consumer/commitrecovery"
	"github.com/hugolhafner/go-consumer/kafka"
	"github.com/hugolhafner/go-consumer/otel"
	"github.com/hugolhafner/go-consumer/runloop"
)

// MessageCommit commits the given offsets through the actor. Completion races
// against the configured commit timeout; a timeout or broker failure is
// routed through the commit recovery handler, which decides between retrying,
// dropping the offsets, or surfacing the error.
func (c *Consumer) MessageCommit(ctx context.Context, offsets map[kafka.TopicPartition]kafka.Offset) error {
	cc := commitrecovery.NewCommitContext(offsets, nil)

	for {
		err := c.commitOnce(ctx, offsets)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		cc = cc.WithError(err)
		action := c.config.CommitRecovery.Handle(ctx, cc)
		c.config.Telemetry.RecoveryActions.Add(ctx, 1,
			metric.WithAttributes(otel.AttrRecoveryAction.String(action.Type().String())))

		switch action.Type() {
		case commitrecovery.ActionTypeRetry:
			cc = cc.IncrementAttempt()
		case commitrecovery.ActionTypeContinue:
			c.log.Warn("dropping failed commit", "error", err, "attempt", cc.Attempt)
			return nil
		default:
			return err
		}
	}
}

// CommitRecords commits the offset after each record, carrying the configured
// record metadata. For several records on the same partition the highest
// offset wins.
func (c *Consumer) CommitRecords(ctx context.Context, records ...kafka.ConsumerRecord) error {
	offsets := make(map[kafka.TopicPartition]kafka.Offset, len(records))
	for _, record := range records {
		tp := record.TopicPartition()
		if existing, ok := offsets[tp]; ok && existing.Offset > record.Offset {
			continue
		}

		offset := kafka.Offset{Offset: record.Offset + 1, LeaderEpoch: record.LeaderEpoch}
		if c.config.RecordMetadata != nil {
			offset.Metadata = c.config.RecordMetadata(record)
		}

		offsets[tp] = offset
	}

	return c.MessageCommit(ctx, offsets)
}

func (c *Consumer) commitOnce(ctx context.Context, offsets map[kafka.TopicPartition]kafka.Offset) error {
	start := time.Now()
	err := c.commitRoundTrip(ctx, offsets)

	status := otel.StatusSuccess
	switch {
	case errors.Is(err, runloop.ErrCommitTimeout):
		status = otel.StatusTimeout
	case err != nil:
		status = otel.StatusFailed
	}

	c.config.Telemetry.CommitDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(otel.AttrCommitStatus.String(status)))
	c.config.Telemetry.Commits.Add(ctx, 1,
		metric.WithAttributes(otel.AttrCommitStatus.String(status)))

	return err
}

func (c *Consumer) commitRoundTrip(ctx context.Context, offsets map[kafka.TopicPartition]kafka.Offset) error {
	req := runloop.NewCommit(offsets)
	if err := c.enqueue(ctx, req); err != nil {
		return err
	}

	timer := time.NewTimer(c.config.CommitTimeout)
	defer timer.Stop()

	select {
	case err := <-req.Done:
		return err
	case <-timer.C:
		return runloop.ErrCommitTimeout
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}
