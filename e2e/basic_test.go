//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"

	consumer "github.com/hugolhafner/go-consumer"
	"github.com/hugolhafner/go-consumer/serde"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestE2E_Consume_DeliversProducedRecords(t *testing.T) {
	broker := ensureContainer(t)

	topic := testTopicName(t, "basic")
	groupID := testGroupID(t, "basic")

	createTopics(t, broker, 1, topic)
	produceOrderedRecords(t, broker, topic, kvRecords("b", 5))

	c := startConsumer(t, broker, groupID)
	require.NoError(t, c.SubscribeTopics(context.Background(), []string{topic}))

	assigned := waitForAssignment(t, c, 1)

	consumed := collectRecords(t, c, assigned, 5, consumeWait)
	require.Len(t, consumed, 5)

	byKey := make(map[string]string, len(consumed))
	for _, record := range consumed {
		byKey[string(record.Key)] = string(record.Value)
	}
	for i := 0; i < 5; i++ {
		require.Equal(t, fmt.Sprintf("b-v%d", i), byKey[fmt.Sprintf("b-k%d", i)])
	}

	eventually(
		t, func() bool {
			offsets := getCommittedOffsets(t, broker, groupID)
			return offsets != nil && offsets[topic][0] >= 5
		}, eventualWait, "offsets not committed",
	)
}

func TestE2E_Consume_PatternSubscribe(t *testing.T) {
	broker := ensureContainer(t)

	prefix := testTopicName(t, "pat")
	topicA := prefix + "-a"
	topicB := prefix + "-b"
	groupID := testGroupID(t, "pat")

	createTopics(t, broker, 1, topicA, topicB)
	produceRecords(t, broker, topicA, map[string]string{"a1": "va"})
	produceRecords(t, broker, topicB, map[string]string{"b1": "vb"})

	c := startConsumer(t, broker, groupID)
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + "-.*")
	require.NoError(t, c.SubscribePattern(context.Background(), pattern))

	assigned := waitForAssignment(t, c, 2)

	consumed := collectRecords(t, c, assigned, 2, consumeWait)

	topics := make(map[string]bool, 2)
	for _, record := range consumed {
		topics[record.Topic] = true
	}
	require.True(t, topics[topicA], "no record consumed from %s", topicA)
	require.True(t, topics[topicB], "no record consumed from %s", topicB)
}

type payment struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
}

func TestE2E_Consume_TypedStream(t *testing.T) {
	broker := ensureContainer(t)

	topic := testTopicName(t, "typed")
	groupID := testGroupID(t, "typed")

	createTopics(t, broker, 1, topic)

	records := make([]kgo.Record, 3)
	for i := range records {
		value, err := json.Marshal(payment{ID: fmt.Sprintf("p%d", i), Amount: float64(i) * 10})
		require.NoError(t, err)

		records[i] = kgo.Record{
			Key:   []byte(fmt.Sprintf("user%d", i)),
			Value: value,
		}
	}
	produceOrderedRecords(t, broker, topic, records)

	c := startConsumer(t, broker, groupID)
	require.NoError(t, c.SubscribeTopics(context.Background(), []string{topic}))

	assigned := waitForAssignment(t, c, 1)

	ctx, cancel := context.WithTimeout(context.Background(), consumeWait)
	defer cancel()

	typed := consumer.NewTypedStream(
		c.PartitionStream(assigned[0], 1),
		serde.String(),
		serde.JSON[payment](),
	)

	got := make(map[string]payment, 3)
	for len(got) < 3 {
		chunk, err := typed.Fetch(ctx)
		require.NoError(t, err)

		for _, record := range chunk {
			got[record.Key] = record.Value
		}
	}

	require.Equal(t, payment{ID: "p0", Amount: 0}, got["user0"])
	require.Equal(t, payment{ID: "p1", Amount: 10}, got["user1"])
	require.Equal(t, payment{ID: "p2", Amount: 20}, got["user2"])
}
