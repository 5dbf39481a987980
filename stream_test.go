package consumer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	consumer "github.com/hugolhafner/go-consumer"
	"github.com/hugolhafner/go-consumer/kafka"
	mockkafka "github.com/hugolhafner/go-consumer/kafka/mock"
	"github.com/hugolhafner/go-consumer/runloop"
	"github.com/hugolhafner/go-consumer/serde"
)

func awaitDemand(t *testing.T, client *mockkafka.Client) {
	t.Helper()

	require.Eventually(t, func() bool {
		timeouts := client.PollTimeouts()
		return len(timeouts) > 0 && timeouts[len(timeouts)-1] == runloop.DefaultPollTimeout
	}, time.Second, time.Millisecond)
}

func TestRecordsIteratesUntilRevoked(t *testing.T) {
	client := mockkafka.NewClient()
	c := newTestConsumer(t, client)
	startStreaming(t, c, client, tpA)

	stream := c.PartitionStream(tpA, 1)

	var collected []kafka.ConsumerRecord
	done := make(chan error, 1)
	go func() {
		for record, err := range stream.Records(context.Background()) {
			if err != nil {
				done <- err
				return
			}
			collected = append(collected, record)
		}
		done <- nil
	}()

	awaitDemand(t, client)
	client.EnqueuePollStep(mockkafka.PollStep{Records: mockkafka.Records("orders", 0, 0, 2)})

	// The next fetch ends the stream when its partition is revoked.
	client.EnqueuePollStep(mockkafka.PollStep{Before: func() {
		client.TriggerRevoke(tpA)
	}})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("iteration did not finish")
	}

	require.Len(t, collected, 2)
	require.Equal(t, int64(0), collected[0].Offset)
	require.Equal(t, int64(1), collected[1].Offset)
}

func TestTypedStreamDeserialisesChunks(t *testing.T) {
	client := mockkafka.NewClient()
	c := newTestConsumer(t, client)
	startStreaming(t, c, client, tpA)

	typed := consumer.NewTypedStream(c.PartitionStream(tpA, 1), serde.String(), serde.String())

	type fetchOut struct {
		records []consumer.TypedRecord[string, string]
		err     error
	}
	out := make(chan fetchOut, 1)
	go func() {
		records, err := typed.Fetch(context.Background())
		out <- fetchOut{records: records, err: err}
	}()

	awaitDemand(t, client)
	client.EnqueuePoll(
		mockkafka.Record("orders", 0, "user-1", "created").WithOffset(7).Build(),
	)

	select {
	case result := <-out:
		require.NoError(t, result.err)
		require.Len(t, result.records, 1)
		require.Equal(t, "user-1", result.records[0].Key)
		require.Equal(t, "created", result.records[0].Value)
		require.Equal(t, int64(7), result.records[0].Record.Offset)
	case <-time.After(time.Second):
		t.Fatal("fetch did not complete")
	}
}
