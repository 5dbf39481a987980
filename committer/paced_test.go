//go:build unit

package committer

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hugolhafner/go-consumer/kafka"
)

type commitRecorder struct {
	calls [][]kafka.ConsumerRecord
	err   error
}

func (r *commitRecorder) commit(_ context.Context, records ...kafka.ConsumerRecord) error {
	if r.err != nil {
		return r.err
	}

	r.calls = append(r.calls, slices.Clone(records))

	return nil
}

func testRecords(startOffset int64, n int) []kafka.ConsumerRecord {
	records := make([]kafka.ConsumerRecord, n)
	for i := range records {
		records[i] = kafka.ConsumerRecord{
			Topic:  "orders",
			Offset: startOffset + int64(i),
		}
	}

	return records
}

func TestPacedFlushesAtMaxCount(t *testing.T) {
	recorder := &commitRecorder{}
	pacer := NewPaced(recorder.commit, WithMaxCount(3), WithMaxInterval(time.Hour))

	require.NoError(t, pacer.Add(context.Background(), testRecords(0, 2)...))
	require.Empty(t, recorder.calls)
	require.Equal(t, 2, pacer.Pending())

	require.NoError(t, pacer.Add(context.Background(), testRecords(2, 1)...))
	require.Len(t, recorder.calls, 1)
	require.Len(t, recorder.calls[0], 3)
	require.Zero(t, pacer.Pending())
}

func TestPacedCountResetsAfterFlush(t *testing.T) {
	recorder := &commitRecorder{}
	pacer := NewPaced(recorder.commit, WithMaxCount(2), WithMaxInterval(time.Hour))

	require.NoError(t, pacer.Add(context.Background(), testRecords(0, 2)...))
	require.Len(t, recorder.calls, 1)

	require.NoError(t, pacer.Add(context.Background(), testRecords(2, 1)...))
	require.Len(t, recorder.calls, 1)
	require.Equal(t, 1, pacer.Pending())
}

func TestPacedFlushesAfterMaxInterval(t *testing.T) {
	recorder := &commitRecorder{}
	pacer := NewPaced(recorder.commit, WithMaxCount(1000), WithMaxInterval(10*time.Millisecond))

	require.NoError(t, pacer.Add(context.Background(), testRecords(0, 1)...))
	require.Empty(t, recorder.calls)

	time.Sleep(20 * time.Millisecond)

	require.NoError(t, pacer.Add(context.Background(), testRecords(1, 1)...))
	require.Len(t, recorder.calls, 1)
	require.Len(t, recorder.calls[0], 2)
}

func TestPacedFlushCommitsRemainder(t *testing.T) {
	recorder := &commitRecorder{}
	pacer := NewPaced(recorder.commit, WithMaxCount(100), WithMaxInterval(time.Hour))

	require.NoError(t, pacer.Add(context.Background(), testRecords(0, 4)...))
	require.Empty(t, recorder.calls)

	require.NoError(t, pacer.Flush(context.Background()))
	require.Len(t, recorder.calls, 1)
	require.Len(t, recorder.calls[0], 4)
	require.Zero(t, pacer.Pending())
}

func TestPacedFlushWithNothingPendingCommitsNothing(t *testing.T) {
	recorder := &commitRecorder{}
	pacer := NewPaced(recorder.commit)

	require.NoError(t, pacer.Flush(context.Background()))
	require.Empty(t, recorder.calls)
}

func TestPacedFailedCommitKeepsRecordsBuffered(t *testing.T) {
	boom := errors.New("broker unavailable")
	recorder := &commitRecorder{err: boom}
	pacer := NewPaced(recorder.commit, WithMaxCount(2), WithMaxInterval(time.Hour))

	require.ErrorIs(t, pacer.Add(context.Background(), testRecords(0, 2)...), boom)
	require.Equal(t, 2, pacer.Pending())

	recorder.err = nil
	require.NoError(t, pacer.Flush(context.Background()))
	require.Len(t, recorder.calls, 1)
	require.Len(t, recorder.calls[0], 2)
	require.Zero(t, pacer.Pending())
}
