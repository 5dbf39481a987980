// Package committer paces offset commits for consumers that batch their
// commits instead of committing after every fetched chunk.
package committer

import (
	"context"

	"github.com/hugolhafner/go-consumer/kafka"
)

// CommitFunc commits the offsets of the given records. Consumer.CommitRecords
// satisfies it.
type CommitFunc func(ctx context.Context, records ...kafka.ConsumerRecord) error

// Committer buffers fetched records and commits their offsets when due.
type Committer interface {
	// Add buffers records and commits once the implementation decides a
	// commit is due.
	Add(ctx context.Context, records ...kafka.ConsumerRecord) error

	// Flush commits everything pending regardless of thresholds. Call it
	// when a stream ends so the tail of a batch is not lost.
	Flush(ctx context.Context) error
}
