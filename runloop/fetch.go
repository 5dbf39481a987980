package runloop

import (
	"sync/atomic"

	"github.com/hugolhafner/go-consumer/kafka"
)

// StreamID distinguishes concurrent downstream consumers of the same
// partition. Uniqueness is per partition.
type StreamID int

// CompletionReason tells a fetch waiter why its request finished.
type CompletionReason int

const (
	// FetchedRecords means the broker returned a chunk of records.
	FetchedRecords CompletionReason = iota

	// TopicPartitionRevoked means the partition is no longer (or was never)
	// assigned to this consumer; the records are empty.
	TopicPartitionRevoked
)

func (r CompletionReason) String() string {
	switch r {
	case FetchedRecords:
		return "fetched-records"
	case TopicPartitionRevoked:
		return "topic-partition-revoked"
	default:
		return "unknown"
	}
}

// FetchResult is the single value delivered to a fetch waiter.
type FetchResult struct {
	Records []kafka.ConsumerRecord
	Reason  CompletionReason
}

// FetchRequest is a single-use completion token for one (partition, stream)
// fetch. Complete may be called at most once; a second call is a programming
// error and panics. The delivery slot is buffered so completion never blocks
// the run loop.
type FetchRequest struct {
	done      chan FetchResult
	completed atomic.Bool
}

func NewFetchRequest() *FetchRequest {
	return &FetchRequest{done: make(chan FetchResult, 1)}
}

func (f *FetchRequest) Complete(records []kafka.ConsumerRecord, reason CompletionReason) {
	if !f.completed.CompareAndSwap(false, true) {
		panic("runloop: fetch request completed twice")
	}

	f.done <- FetchResult{Records: records, Reason: reason}
}

// Completed reports whether Complete has fired.
func (f *FetchRequest) Completed() bool {
	return f.completed.Load()
}

// Done returns the receive side of the delivery slot.
func (f *FetchRequest) Done() <-chan FetchResult {
	return f.done
}
