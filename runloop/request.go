package runloop

import (
	"regexp"

	"github.com/hugolhafner/go-consumer/kafka"
)

// Request is the closed set of operations the run loop accepts. Completion
// channels are buffered with capacity one so handlers never block on delivery.
type Request interface {
	isRequest()
}

// OnRebalance is a pair of callbacks a downstream consumer registers to
// observe assignment changes. Hooks run on the polling thread, in
// registration order, and must not call back into the run loop.
type OnRebalance struct {
	OnAssigned func(partitions []kafka.TopicPartition)
	OnRevoked  func(partitions []kafka.TopicPartition)
}

// AssignmentResult carries the current assignment or ErrNotSubscribed.
type AssignmentResult struct {
	Partitions []kafka.TopicPartition
	Err        error
}

// Assignment reports the current assignment and optionally registers
// rebalance hooks. The first Assignment request marks the state as streaming.
type Assignment struct {
	OnRebalance *OnRebalance
	Done        chan AssignmentResult
}

// Poll drives the broker: pause/resume from current demand, poll, distribute
// records, flush parked commits. Enqueued by the driver at a fixed interval.
type Poll struct{}

// SubscribeTopics subscribes to an explicit, non-empty topic list.
type SubscribeTopics struct {
	Topics []string
	Done   chan error
}

// SubscribePattern subscribes to every topic matching the pattern.
type SubscribePattern struct {
	Pattern *regexp.Regexp
	Done    chan error
}

// Fetch registers demand for the next chunk of records from a partition on
// behalf of one stream. The Req token completes with records or a revocation.
type Fetch struct {
	Partition kafka.TopicPartition
	StreamID  StreamID
	Req       *FetchRequest
}

// Commit commits offsets through the broker, deferring while a rebalance is
// in progress.
type Commit struct {
	Offsets map[kafka.TopicPartition]kafka.Offset
	Done    chan error
}

func (Assignment) isRequest()       {}
func (Poll) isRequest()             {}
func (SubscribeTopics) isRequest()  {}
func (SubscribePattern) isRequest() {}
func (Fetch) isRequest()            {}
func (Commit) isRequest()           {}

func NewAssignment(onRebalance *OnRebalance) Assignment {
	return Assignment{OnRebalance: onRebalance, Done: make(chan AssignmentResult, 1)}
}

func NewSubscribeTopics(topics []string) SubscribeTopics {
	return SubscribeTopics{Topics: topics, Done: make(chan error, 1)}
}

func NewSubscribePattern(pattern *regexp.Regexp) SubscribePattern {
	return SubscribePattern{Pattern: pattern, Done: make(chan error, 1)}
}

func NewFetch(tp kafka.TopicPartition, streamID StreamID) Fetch {
	return Fetch{Partition: tp, StreamID: streamID, Req: NewFetchRequest()}
}

func NewCommit(offsets map[kafka.TopicPartition]kafka.Offset) Commit {
	return Commit{Offsets: offsets, Done: make(chan error, 1)}
}
