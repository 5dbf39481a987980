package mockkafka

import (
	"strings"
	"testing"
	"time"

	"github.com/hugolhafner/go-consumer/kafka"
	"github.com/stretchr/testify/require"
)

// AssertSubscribed verifies that the client is subscribed to the given topics.
func (c *Client) AssertSubscribed(tb testing.TB, topics ...string) {
	tb.Helper()

	subs := c.Subscriptions()
	subMap := make(map[string]bool)
	for _, s := range subs {
		subMap[s] = true
	}

	for _, topic := range topics {
		if !subMap[topic] {
			tb.Errorf("expected client to be subscribed to topic %q, but it is not", topic)
		}
	}
}

// AssertPaused verifies that exactly the given partitions are paused.
func (c *Client) AssertPaused(tb testing.TB, partitions ...kafka.TopicPartition) {
	tb.Helper()

	require.Equal(tb, sorted(partitions), c.PausedPartitions())
}

// AssertNonePaused verifies that no partitions are paused.
func (c *Client) AssertNonePaused(tb testing.TB) {
	tb.Helper()

	require.Empty(tb, c.PausedPartitions())
}

// AssertLastPollTimeout verifies the timeout passed to the most recent Poll.
func (c *Client) AssertLastPollTimeout(tb testing.TB, expected time.Duration) {
	tb.Helper()

	timeouts := c.PollTimeouts()
	require.NotEmpty(tb, timeouts, "expected at least one poll")
	require.Equal(tb, expected, timeouts[len(timeouts)-1])
}

// AssertCommitCount verifies how many commits were started.
func (c *Client) AssertCommitCount(tb testing.TB, expected int) {
	tb.Helper()

	actual := len(c.Commits())
	require.Equal(tb, expected, actual, "expected %d commits, got %d", expected, actual)
}

// AssertCommittedOffset verifies that some commit carried the given offset for
// the partition.
func (c *Client) AssertCommittedOffset(tb testing.TB, tp kafka.TopicPartition, expectedOffset int64) {
	tb.Helper()

	for _, call := range c.Commits() {
		if offset, ok := call.Offsets[tp]; ok && offset.Offset == expectedOffset {
			return
		}
	}

	tb.Errorf("expected offset %d to be committed for %s, but it was not", expectedOffset, tp)
}

// AssertCallOrder verifies that the journal contains entries with the given
// prefixes, in order (other calls may be interleaved).
func (c *Client) AssertCallOrder(tb testing.TB, prefixes ...string) {
	tb.Helper()

	calls := c.Calls()
	i := 0
	for _, call := range calls {
		if i < len(prefixes) && strings.HasPrefix(call, prefixes[i]) {
			i++
		}
	}

	require.Equal(tb, len(prefixes), i, "call order %v not found in journal %v", prefixes, calls)
}

// AssertClosed verifies that Close() was called.
func (c *Client) AssertClosed(tb testing.TB) {
	tb.Helper()

	require.True(tb, c.IsClosed(), "expected client to be closed")
}

// AssertNotClosed verifies that Close() was not called.
func (c *Client) AssertNotClosed(tb testing.TB) {
	tb.Helper()

	require.False(tb, c.IsClosed(), "expected client to not be closed, but it is")
}
