package runloop

import (
	"errors"
)

var (
	// ErrNotSubscribed is returned for Assignment requests issued before any
	// successful subscribe.
	ErrNotSubscribed = errors.New("runloop: not subscribed")

	// ErrCommitTimeout is returned when a commit's completion did not arrive
	// within the configured commit timeout.
	ErrCommitTimeout = errors.New("runloop: commit timed out")

	// ErrUnexpectedRecords signals a broken broker-client invariant: records
	// arrived for partitions with no registered fetch, or from a poll that
	// should have returned nothing. The run loop stops when it sees this.
	ErrUnexpectedRecords = errors.New("runloop: broker returned records for partitions without demand")

	// ErrTooManyPendingCommits is returned to a commit issued during a
	// rebalance once the parked-commit cap is reached.
	ErrTooManyPendingCommits = errors.New("runloop: too many commits parked during rebalance")

	// ErrClosed is returned for requests that could not be served because the
	// run loop has stopped.
	ErrClosed = errors.New("runloop: closed")

	// ErrHandleClosed is returned by the handle guard after the broker client
	// has been closed.
	ErrHandleClosed = errors.New("runloop: broker handle closed")
)
