package consumer

import (
	"context"
	"errors"
	"iter"

	"github.com/hugolhafner/go-consumer/kafka"
	"github.com/hugolhafner/go-consumer/runloop"
)

// PartitionStream pulls records from a single partition on behalf of one
// stream identity. Concurrent streams over the same partition each receive
// every polled chunk.
type PartitionStream struct {
	consumer *Consumer
	tp       kafka.TopicPartition
	id       runloop.StreamID
}

func (s *PartitionStream) TopicPartition() kafka.TopicPartition {
	return s.tp
}

// Fetch registers demand for the next chunk of records and waits for it.
// Returns ErrPartitionRevoked when the partition is not, or is no longer,
// assigned to this consumer.
func (s *PartitionStream) Fetch(ctx context.Context) ([]kafka.ConsumerRecord, error) {
	req := runloop.NewFetch(s.tp, s.id)
	if err := s.consumer.enqueue(ctx, req); err != nil {
		return nil, err
	}

	telemetry := s.consumer.config.Telemetry
	telemetry.StreamsActive.Add(ctx, 1)
	defer telemetry.StreamsActive.Add(ctx, -1)

	select {
	case result := <-req.Req.Done():
		if result.Reason == runloop.TopicPartitionRevoked {
			return nil, ErrPartitionRevoked
		}

		return result.Records, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.consumer.done:
		return nil, ErrClosed
	}
}

// Records returns a pull iterator over the partition's records. Iteration
// ends cleanly when the partition is revoked; any other failure is yielded
// once before the iterator stops.
func (s *PartitionStream) Records(ctx context.Context) iter.Seq2[kafka.ConsumerRecord, error] {
	return func(yield func(kafka.ConsumerRecord, error) bool) {
		for {
			records, err := s.Fetch(ctx)
			if err != nil {
				if !errors.Is(err, ErrPartitionRevoked) {
					yield(kafka.ConsumerRecord{}, err)
				}

				return
			}

			for _, record := range records {
				if !yield(record, nil) {
					return
				}
			}
		}
	}
}
