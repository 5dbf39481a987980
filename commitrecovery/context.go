package commitrecovery

import (
	"maps"

	"github.com/hugolhafner/go-consumer/kafka"
)

// CommitContext describes one failed commit attempt. It carries everything a
// handler needs to decide whether the commit is retried, dropped, or fatal.
type CommitContext struct {
	// Offsets is the offset map the commit carried.
	Offsets map[kafka.TopicPartition]kafka.Offset

	// Error is the commit failure. Timeouts arrive as the consumer's commit
	// timeout error, broker rejections as the broker error.
	Error error

	// Attempt is the current attempt number, 1 indexed.
	Attempt int
}

func NewCommitContext(offsets map[kafka.TopicPartition]kafka.Offset, err error) CommitContext {
	return CommitContext{
		Offsets: maps.Clone(offsets),
		Error:   err,
		Attempt: 1,
	}
}

func (cc CommitContext) WithError(err error) CommitContext {
	cc.Error = err
	return cc
}

func (cc CommitContext) WithAttempt(attempt int) CommitContext {
	cc.Attempt = attempt
	return cc
}

func (cc CommitContext) IncrementAttempt() CommitContext {
	cc.Attempt++
	return cc
}
