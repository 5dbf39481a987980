package kafka

import (
	"slices"
)

// Batch is the result of a single poll, grouped by partition. A Batch is
// immutable after construction so the same record slices can be handed to
// multiple readers.
type Batch struct {
	records map[TopicPartition][]ConsumerRecord
}

func NewBatch(records []ConsumerRecord) Batch {
	if len(records) == 0 {
		return Batch{}
	}

	grouped := make(map[TopicPartition][]ConsumerRecord)
	for _, r := range records {
		tp := r.TopicPartition()
		grouped[tp] = append(grouped[tp], r)
	}

	return Batch{records: grouped}
}

func (b Batch) Empty() bool {
	return len(b.records) == 0
}

// Partitions returns the partitions present in the batch, in stable order.
func (b Batch) Partitions() []TopicPartition {
	partitions := make([]TopicPartition, 0, len(b.records))
	for tp := range b.records {
		partitions = append(partitions, tp)
	}

	slices.SortFunc(partitions, TopicPartition.Compare)

	return partitions
}

func (b Batch) Records(tp TopicPartition) []ConsumerRecord {
	return b.records[tp]
}

func (b Batch) Count() int {
	total := 0
	for _, recs := range b.records {
		total += len(recs)
	}

	return total
}
