package runloop

import (
	"maps"
	"slices"

	"github.com/hugolhafner/go-consumer/kafka"
)

// State is the run loop's view of the world. Values are immutable; every
// transition returns a fresh copy, and only the run loop goroutine writes the
// published snapshot. Readers outside the loop see a consistent point-in-time
// value.
type State struct {
	fetches        map[kafka.TopicPartition]map[StreamID]*FetchRequest
	pendingCommits []Commit
	onRebalances   []OnRebalance
	rebalancing    bool
	subscribed     bool
	streaming      bool
}

func NewState() State {
	return State{
		fetches: make(map[kafka.TopicPartition]map[StreamID]*FetchRequest),
	}
}

// WithFetch stores a fetch for the (partition, stream) slot and returns the
// previously stored request, if any, so the caller can complete it.
func (s State) WithFetch(tp kafka.TopicPartition, id StreamID, req *FetchRequest) (State, *FetchRequest) {
	next := s.copyFetches()

	var prior *FetchRequest
	streams, ok := next.fetches[tp]
	if ok {
		prior = streams[id]
		streams = maps.Clone(streams)
	} else {
		streams = make(map[StreamID]*FetchRequest, 1)
	}

	streams[id] = req
	next.fetches[tp] = streams

	return next, prior
}

// WithoutFetches drops every fetch registered for the given partitions.
func (s State) WithoutFetches(partitions []kafka.TopicPartition) State {
	next := s.copyFetches()
	for _, tp := range partitions {
		delete(next.fetches, tp)
	}

	return next
}

// Fetches returns the streams waiting on a partition. The returned map must
// not be mutated.
func (s State) Fetches(tp kafka.TopicPartition) map[StreamID]*FetchRequest {
	return s.fetches[tp]
}

// FetchPartitions returns the partitions with at least one waiting fetch,
// in stable order.
func (s State) FetchPartitions() []kafka.TopicPartition {
	partitions := slices.Collect(maps.Keys(s.fetches))
	slices.SortFunc(partitions, kafka.TopicPartition.Compare)

	return partitions
}

// HasFetches reports whether any stream is waiting on any partition.
func (s State) HasFetches() bool {
	return len(s.fetches) > 0
}

func (s State) WithPendingCommit(commit Commit) State {
	next := s
	next.pendingCommits = append(slices.Clip(s.pendingCommits), commit)

	return next
}

func (s State) WithoutPendingCommits() State {
	next := s
	next.pendingCommits = nil

	return next
}

func (s State) PendingCommits() []Commit {
	return s.pendingCommits
}

func (s State) WithOnRebalance(hooks OnRebalance) State {
	next := s
	next.onRebalances = append(slices.Clip(s.onRebalances), hooks)

	return next
}

func (s State) OnRebalances() []OnRebalance {
	return s.onRebalances
}

func (s State) WithRebalancing(rebalancing bool) State {
	next := s
	next.rebalancing = rebalancing

	return next
}

func (s State) Rebalancing() bool {
	return s.rebalancing
}

// AsSubscribed marks the state subscribed. Idempotent.
func (s State) AsSubscribed() State {
	next := s
	next.subscribed = true

	return next
}

func (s State) Subscribed() bool {
	return s.subscribed
}

// AsStreaming marks the state streaming. Idempotent.
func (s State) AsStreaming() State {
	next := s
	next.streaming = true

	return next
}

func (s State) Streaming() bool {
	return s.streaming
}

func (s State) copyFetches() State {
	next := s
	next.fetches = maps.Clone(s.fetches)

	return next
}
