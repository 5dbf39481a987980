package mockkafka

import (
	"strconv"
	"time"

	"github.com/hugolhafner/go-consumer/kafka"
)

// RecordBuilder provides a fluent interface for building ConsumerRecords.
type RecordBuilder struct {
	record kafka.ConsumerRecord
}

// Record creates a new RecordBuilder for the given partition, key and value.
func Record(topic string, partition int32, key, value string) *RecordBuilder {
	return &RecordBuilder{
		record: kafka.ConsumerRecord{
			Topic:     topic,
			Partition: partition,
			Key:       []byte(key),
			Value:     []byte(value),
			Timestamp: time.Now(),
		},
	}
}

// WithOffset sets the record's offset.
func (b *RecordBuilder) WithOffset(offset int64) *RecordBuilder {
	b.record.Offset = offset
	return b
}

// WithTimestamp sets the record's timestamp.
func (b *RecordBuilder) WithTimestamp(ts time.Time) *RecordBuilder {
	b.record.Timestamp = ts
	return b
}

// WithHeader adds a header to the record.
func (b *RecordBuilder) WithHeader(key string, value []byte) *RecordBuilder {
	b.record.Headers = append(b.record.Headers, kafka.Header{Key: key, Value: value})
	return b
}

// WithLeaderEpoch sets the leader epoch.
func (b *RecordBuilder) WithLeaderEpoch(epoch int32) *RecordBuilder {
	b.record.LeaderEpoch = epoch
	return b
}

// Build returns the constructed ConsumerRecord.
func (b *RecordBuilder) Build() kafka.ConsumerRecord {
	return b.record
}

// Records creates n consecutive records for a partition starting at the given
// offset.
func Records(topic string, partition int32, startOffset int64, n int) []kafka.ConsumerRecord {
	records := make([]kafka.ConsumerRecord, n)
	for i := range records {
		offset := startOffset + int64(i)
		records[i] = Record(topic, partition, "k"+strconv.FormatInt(offset, 10), "v"+strconv.FormatInt(offset, 10)).
			WithOffset(offset).
			Build()
	}

	return records
}
