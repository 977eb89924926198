// Package retry decides whether a failed operation should be re-issued and
// how long to wait first, and provides an Executor that drives the decision
// loop. The decision functions are pure: the attempt counter is owned by the
// caller and never stored here.
package retry

import (
	"time"

	"github.com/teamfolio/rebound/classify"
	"github.com/teamfolio/rebound/policy"
)

// ShouldRetry reports whether a read (idempotent) operation that failed with
// err should be retried again, using the stock policy. attempt is the number
// of retries already performed (0 on the first failure).
func ShouldRetry(attempt int, err classify.Error) bool {
	return ShouldRetryWith(policy.DefaultRetry(), attempt, err)
}

// ShouldRetryWith is ShouldRetry against an explicit policy.
func ShouldRetryWith(pol policy.RetryPolicy, attempt int, err classify.Error) bool {
	if attempt >= pol.MaxRetries {
		return false
	}

	switch err.Kind {
	case classify.KindUnknown:
		// No evidence a retry helps; bound blind retries tighter than the
		// general ceiling.
		return attempt < pol.UnknownRetries
	case classify.KindNetwork:
		return true
	}

	switch {
	case err.Status == 429:
		return attempt < pol.RateLimitRetries
	case err.Status >= 500 && err.Status <= 599:
		return true
	case err.Status == 408:
		return true
	}
	return false
}

// ShouldRetryMutation reports whether a write operation that failed with err
// should be retried, using the stock policy. Writes are only retried on
// network errors, where the request plausibly never reached the server, so a
// retry cannot duplicate a completed write.
func ShouldRetryMutation(attempt int, err classify.Error) bool {
	return ShouldRetryMutationWith(policy.DefaultRetry(), attempt, err)
}

// ShouldRetryMutationWith is ShouldRetryMutation against an explicit policy.
func ShouldRetryMutationWith(pol policy.RetryPolicy, attempt int, err classify.Error) bool {
	if attempt >= pol.MaxMutationRetries {
		return false
	}
	return err.Kind == classify.KindNetwork
}

// Delay computes the wait before the next retry under the stock policy:
// exponential growth from 1s, capped at 30s.
func Delay(attempt int) time.Duration {
	return DelayWith(policy.DefaultRetry(), attempt)
}

// DelayWith computes the backoff for the given attempt: BaseDelay doubled
// attempt times, capped at MaxDelay. Negative attempts are clamped to 0.
// The result is a deterministic function of its inputs; there is no jitter.
func DelayWith(pol policy.RetryPolicy, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	d := pol.BaseDelay
	for i := 0; i < attempt; i++ {
		if d >= pol.MaxDelay {
			return pol.MaxDelay
		}
		d *= 2
	}
	if d > pol.MaxDelay {
		return pol.MaxDelay
	}
	return d
}
