package consumer

import (
	"context"
	"fmt"

	"github.com/hugolhafner/go-consumer/kafka"
	"github.com/hugolhafner/go-consumer/serde"
)

// TypedRecord pairs a deserialised key and value with the raw record they
// came from, so offsets and headers stay reachable.
type TypedRecord[K, V any] struct {
	Key    K
	Value  V
	Record kafka.ConsumerRecord
}

// TypedStream decorates a PartitionStream with a serde pair, deserialising
// each fetched chunk.
type TypedStream[K, V any] struct {
	stream *PartitionStream
	key    serde.Deserialiser[K]
	value  serde.Deserialiser[V]
}

func NewTypedStream[K, V any](
	stream *PartitionStream, key serde.Deserialiser[K], value serde.Deserialiser[V],
) *TypedStream[K, V] {
	return &TypedStream[K, V]{stream: stream, key: key, value: value}
}

func (s *TypedStream[K, V]) TopicPartition() kafka.TopicPartition {
	return s.stream.TopicPartition()
}

func (s *TypedStream[K, V]) Fetch(ctx context.Context) ([]TypedRecord[K, V], error) {
	records, err := s.stream.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	typed := make([]TypedRecord[K, V], 0, len(records))
	for _, record := range records {
		key, err := s.key.Deserialise(record.Topic, record.Key)
		if err != nil {
			return nil, fmt.Errorf("deserialising key at %s offset %d: %w",
				record.TopicPartition(), record.Offset, err)
		}

		value, err := s.value.Deserialise(record.Topic, record.Value)
		if err != nil {
			return nil, fmt.Errorf("deserialising value at %s offset %d: %w",
				record.TopicPartition(), record.Offset, err)
		}

		typed = append(typed, TypedRecord[K, V]{Key: key, Value: value, Record: record})
	}

	return typed, nil
}
