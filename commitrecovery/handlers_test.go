//go:build unit

package commitrecovery_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hugolhafner/dskit/backoff"
	"github.com/hugolhafner/go-consumer/commitrecovery"
	"github.com/hugolhafner/go-consumer/kafka"
	"github.com/hugolhafner/go-consumer/logger"
	mocklogger "github.com/hugolhafner/go-consumer/logger/mock"
	"github.com/stretchr/testify/require"
)

func testOffsets() map[kafka.TopicPartition]kafka.Offset {
	return map[kafka.TopicPartition]kafka.Offset{
		{Topic: "orders", Partition: 0}: {Offset: 42},
	}
}

func TestSilentFail(t *testing.T) {
	t.Parallel()
	cc := commitrecovery.NewCommitContext(testOffsets(), errors.New("commit failed"))

	action := commitrecovery.SilentFail().Handle(context.Background(), cc)

	require.Equal(t, commitrecovery.ActionFail{}, action)
}

func TestLogAndContinue(t *testing.T) {
	t.Parallel()
	var testErr = errors.New("commit failed")

	tests := []struct {
		name string
		err  error
	}{
		{"simple error", testErr},
		{"nil error", nil},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()
				cc := commitrecovery.NewCommitContext(testOffsets(), nil)

				l := mocklogger.New()
				h := commitrecovery.LogAndContinue(l)
				action := h.Handle(context.Background(), cc.WithError(tt.err))

				require.Equal(t, commitrecovery.ActionContinue{}, action)
				l.AssertCalledWithLevelAndMessage(t, logger.ErrorLevel, "commit failed, dropping offsets")
			},
		)
	}
}

func TestLogAndFail(t *testing.T) {
	t.Parallel()
	var testErr = errors.New("commit failed")

	tests := []struct {
		name string
		err  error
	}{
		{"simple error", testErr},
		{"nil error", nil},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()
				cc := commitrecovery.NewCommitContext(testOffsets(), nil)

				l := mocklogger.New()
				h := commitrecovery.LogAndFail(l)
				action := h.Handle(context.Background(), cc.WithError(tt.err))

				require.Equal(t, commitrecovery.ActionFail{}, action)
				l.AssertCalledWithLevelAndMessage(t, logger.ErrorLevel, "commit failed, stopping")
			},
		)
	}
}

func TestWithMaxAttempts(t *testing.T) {
	t.Parallel()
	t.Run(
		"should call fallback after max attempts", func(t *testing.T) {
			t.Parallel()
			var testErr = errors.New("commit failed")
			var maxAttempts = 3

			cc := commitrecovery.NewCommitContext(testOffsets(), testErr)

			fallbackCalled := false
			fallback := commitrecovery.HandlerFunc(
				func(ctx context.Context, cc commitrecovery.CommitContext) commitrecovery.Action {
					fallbackCalled = true
					return commitrecovery.ActionFail{}
				},
			)

			h := commitrecovery.WithMaxAttempts(
				maxAttempts,
				backoff.NewFixed(0),
				fallback,
			)

			for i := 1; i < maxAttempts; i++ {
				action := h.Handle(context.Background(), cc.WithAttempt(i))
				require.False(t, fallbackCalled, "fallback should not be called yet on attempt %d", i)
				require.Equal(t, commitrecovery.ActionRetry{}, action)
			}

			action := h.Handle(context.Background(), cc.WithAttempt(maxAttempts+1))
			require.True(t, fallbackCalled, "fallback should have been called")
			require.Equal(t, commitrecovery.ActionFail{}, action)
		},
	)

	t.Run(
		"should fail when context is cancelled", func(t *testing.T) {
			t.Parallel()
			cc := commitrecovery.NewCommitContext(testOffsets(), errors.New("commit failed"))

			h := commitrecovery.WithMaxAttempts(
				3,
				backoff.NewFixed(time.Hour),
				commitrecovery.SilentFail(),
			)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			action := h.Handle(ctx, cc)
			require.Equal(t, commitrecovery.ActionFail{}, action)
		},
	)
}

func TestActionLogger(t *testing.T) {
	t.Parallel()
	cc := commitrecovery.NewCommitContext(testOffsets(), errors.New("commit failed"))

	l := mocklogger.New()
	h := commitrecovery.ActionLogger(
		l, logger.WarnLevel,
		commitrecovery.HandlerFunc(
			func(ctx context.Context, cc commitrecovery.CommitContext) commitrecovery.Action {
				return commitrecovery.ActionRetry{}
			},
		),
	)

	action := h.Handle(context.Background(), cc)

	require.Equal(t, commitrecovery.ActionRetry{}, action)
	l.AssertCalledWithLevelAndMessage(t, logger.WarnLevel, "commit recovery decision")
}
