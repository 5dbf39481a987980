package commitrecovery

import (
	"context"
	"time"

	"github.com/hugolhafner/dskit/backoff"
	"github.com/hugolhafner/go-consumer/logger"
)

// SilentFail fails without logging at the handler level.
func SilentFail() Handler {
	return HandlerFunc(
		func(ctx context.Context, cc CommitContext) Action {
			return ActionFail{}
		},
	)
}

// LogAndContinue logs the failed commit and keeps consuming. The offsets are
// dropped; a later commit supersedes them.
func LogAndContinue(logger logger.Logger) Handler {
	return HandlerFunc(
		func(ctx context.Context, cc CommitContext) Action {
			logger.Error(
				"commit failed, dropping offsets",
				"error", cc.Error,
				"offsets", len(cc.Offsets),
				"attempt", cc.Attempt,
			)
			return ActionContinue{}
		},
	)
}

// LogAndFail logs the failed commit and stops the consumer.
func LogAndFail(logger logger.Logger) Handler {
	return HandlerFunc(
		func(ctx context.Context, cc CommitContext) Action {
			logger.Error(
				"commit failed, stopping",
				"error", cc.Error,
				"offsets", len(cc.Offsets),
				"attempt", cc.Attempt,
			)
			return ActionFail{}
		},
	)
}

// WithMaxAttempts wraps a handler with retry logic. The backoff delay runs
// before each decision. When the max attempts is reached, the fallback
// handler is called.
func WithMaxAttempts(maxAttempts int, b backoff.Backoff, fallback Handler) Handler {
	return HandlerFunc(
		func(ctx context.Context, cc CommitContext) Action {
			select {
			case <-ctx.Done():
				return ActionFail{}
			case <-time.After(b.Next(uint(cc.Attempt))):
			}

			if cc.Attempt < maxAttempts {
				return ActionRetry{}
			}

			return fallback.Handle(ctx, cc)
		},
	)
}

// ActionLogger logs the action decided by the next handler.
func ActionLogger(l logger.Logger, level logger.LogLevel, next Handler) Handler {
	return HandlerFunc(
		func(ctx context.Context, cc CommitContext) Action {
			action := next.Handle(ctx, cc)

			l.Log(
				level,
				"commit recovery decision",
				"action", action.Type().String(),
				"error", cc.Error,
				"offsets", len(cc.Offsets),
				"attempt", cc.Attempt,
			)
			return action
		},
	)
}
