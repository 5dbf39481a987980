package kafka

import (
	"context"
	"regexp"
	"time"
)

// Client is the broker handle the run loop serializes access to. None of the
// methods are safe for concurrent use; callers must hold exclusive access for
// the duration of every call.
type Client interface {
	// Subscribe joins the consumer group for the given topics. The listener
	// is invoked synchronously from within Poll when the group coordinator
	// assigns or revokes partitions.
	Subscribe(topics []string, listener RebalanceListener) error

	// SubscribePattern is Subscribe for every topic matching the pattern,
	// including topics created after the subscription.
	SubscribePattern(pattern *regexp.Regexp, listener RebalanceListener) error

	// Assignment returns the partitions currently allocated to this consumer.
	Assignment() []TopicPartition

	Pause(partitions []TopicPartition)
	Resume(partitions []TopicPartition)

	// Poll advances group state (heartbeats, rebalances) and returns any
	// fetched records. A zero timeout polls without blocking.
	Poll(ctx context.Context, timeout time.Duration) (Batch, error)

	// CommitAsync starts an offset commit and returns immediately. The
	// callback fires on a client-internal thread once the broker responds.
	CommitAsync(offsets map[TopicPartition]Offset, cb CommitCallback)

	Close() error
}

// CommitCallback receives the offsets that were submitted and the broker's
// verdict. err is nil on success.
type CommitCallback func(offsets map[TopicPartition]Offset, err error)

// RebalanceListener is invoked synchronously inside Poll, on the polling
// thread, when the group coordinator changes this consumer's assignment.
// Implementations must not call back into the Client and must not block.
type RebalanceListener interface {
	OnPartitionsRevoked(partitions []TopicPartition)
	OnPartitionsAssigned(partitions []TopicPartition)
}
