//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

// TestE2E_Chaos_Burst_1000Records floods four partitions and verifies every
// record arrives and every offset lands.
func TestE2E_Chaos_Burst_1000Records(t *testing.T) {
	broker := ensureContainer(t)

	topic := testTopicName(t, "chaos-burst")
	groupID := testGroupID(t, "chaos-burst")

	createTopics(t, broker, 4, topic)

	totalRecords := 1000
	records := make([]kgo.Record, totalRecords)
	for i := 0; i < totalRecords; i++ {
		records[i] = kgo.Record{
			Key:   []byte(fmt.Sprintf("k%04d", i)),
			Value: []byte(fmt.Sprintf("v%04d", i)),
		}
	}
	produceOrderedRecords(t, broker, topic, records)
	t.Logf("Produced %d records", totalRecords)

	c := startConsumer(t, broker, groupID)
	require.NoError(t, c.SubscribeTopics(context.Background(), []string{topic}))

	assigned := waitForAssignment(t, c, 4)

	consumed := collectRecords(t, c, assigned, totalRecords, 120*time.Second)
	require.Len(t, consumed, totalRecords)

	consumedMap := make(map[string]string, len(consumed))
	for _, record := range consumed {
		consumedMap[string(record.Key)] = string(record.Value)
	}
	for i := 0; i < totalRecords; i++ {
		key := fmt.Sprintf("k%04d", i)
		require.Equal(t, fmt.Sprintf("v%04d", i), consumedMap[key], "record %s has wrong value", key)
	}

	eventually(
		t, func() bool {
			offsets := getCommittedOffsets(t, broker, groupID)
			if offsets == nil {
				return false
			}

			total := int64(0)
			for _, offset := range offsets[topic] {
				total += offset
			}

			return total >= int64(totalRecords)
		}, eventualWait, "offsets not committed for all partitions",
	)
}
