package observe

import (
	"context"
	"log/slog"

	"github.com/teamfolio/rebound/policy"
)

// SlogObserver logs call lifecycle events through a structured logger.
// Attempts and successes log at Debug; exhausted calls log at Warn.
type SlogObserver struct {
	Logger *slog.Logger
}

func (o SlogObserver) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o SlogObserver) OnStart(ctx context.Context, key policy.Key, pol policy.Policy) {
	o.logger().DebugContext(ctx, "call start",
		"key", key.String(),
		"max_retries", pol.Retry.MaxRetries,
	)
}

func (o SlogObserver) OnAttempt(ctx context.Context, key policy.Key, rec AttemptRecord) {
	if rec.Err == nil {
		return
	}
	o.logger().DebugContext(ctx, "attempt failed",
		"key", key.String(),
		"attempt", rec.Attempt,
		"kind", rec.Classified.Kind.String(),
		"status", rec.Classified.Status,
		"retrying", rec.Retried,
		"backoff", rec.Backoff,
		"error", rec.Err,
	)
}

func (o SlogObserver) OnSuccess(ctx context.Context, key policy.Key, tl Timeline) {
	o.logger().DebugContext(ctx, "call succeeded",
		"key", key.String(),
		"attempts", len(tl.Attempts),
		"duration", tl.End.Sub(tl.Start),
	)
}

func (o SlogObserver) OnFailure(ctx context.Context, key policy.Key, tl Timeline) {
	o.logger().WarnContext(ctx, "call failed",
		"key", key.String(),
		"attempts", len(tl.Attempts),
		"duration", tl.End.Sub(tl.Start),
		"error", tl.FinalErr,
	)
}
