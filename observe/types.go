// Package observe defines lifecycle hooks for retried calls: per-attempt
// records, a call timeline, and the Observer interface consumed by logging
// and metrics integrations.
package observe

import (
	"context"
	"time"

	"github.com/teamfolio/rebound/classify"
	"github.com/teamfolio/rebound/policy"
)

// AttemptRecord describes a single attempt of a retried call.
type AttemptRecord struct {
	Attempt   int
	StartTime time.Time
	EndTime   time.Time

	// Err is the raw failure from the operation, nil on success.
	Err error

	// Classified is the category of Err; zero value when Err is nil.
	Classified classify.Error

	// Retried reports whether another attempt follows this one.
	Retried bool

	// Backoff is the wait before the next attempt; zero when Retried is false.
	Backoff time.Duration
}

// Timeline is the structured record of a single call and all of its attempts.
type Timeline struct {
	Key      policy.Key
	PolicyID string
	Start    time.Time
	End      time.Time

	Attempts []AttemptRecord
	FinalErr error
}

// Observer receives lifecycle callbacks for a single call. Implementations
// must be safe for concurrent use; callbacks for different calls may arrive
// from any number of goroutines.
type Observer interface {
	OnStart(ctx context.Context, key policy.Key, pol policy.Policy)
	OnAttempt(ctx context.Context, key policy.Key, rec AttemptRecord)
	OnSuccess(ctx context.Context, key policy.Key, tl Timeline)
	OnFailure(ctx context.Context, key policy.Key, tl Timeline)
}
