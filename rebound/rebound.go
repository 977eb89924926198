// Package rebound is the convenience entry point: string keys, a global
// executor, and one-line wrappers around the retry package. Libraries should
// take a *retry.Executor instead; this package is for application code.
package rebound

import (
	"context"

	"github.com/teamfolio/rebound/observe"
	"github.com/teamfolio/rebound/policy"
	"github.com/teamfolio/rebound/retry"
)

// Key is the structured form of a policy key.
type Key = policy.Key

// ParseKey parses "namespace.name" into a Key.
func ParseKey(s string) Key { return policy.ParseKey(s) }

// Init sets the global default executor.
// Call it during startup, before any Do variant runs.
func Init(exec *retry.Executor) {
	retry.SetGlobal(exec)
}

// Do executes op under the read policy for key using the default executor.
func Do(ctx context.Context, key string, op retry.Operation) error {
	return retry.DefaultExecutor().Do(ctx, policy.ParseKey(key), op)
}

// DoMutation executes op under the mutation policy for key: at most one
// retry, and only when the request never reached the server.
func DoMutation(ctx context.Context, key string, op retry.Operation) error {
	return retry.DefaultExecutor().DoMutation(ctx, policy.ParseKey(key), op)
}

// DoValue executes op under the read policy for key using the default executor.
func DoValue[T any](ctx context.Context, key string, op retry.OperationValue[T]) (T, error) {
	return retry.DoValue(ctx, retry.DefaultExecutor(), policy.ParseKey(key), op)
}

// DoMutationValue executes op under the mutation policy for key.
func DoMutationValue[T any](ctx context.Context, key string, op retry.OperationValue[T]) (T, error) {
	return retry.DoMutationValue(ctx, retry.DefaultExecutor(), policy.ParseKey(key), op)
}

// DoWithTimeline executes op under the read policy and returns the Timeline.
func DoWithTimeline(ctx context.Context, key string, op retry.Operation) (observe.Timeline, error) {
	return retry.DefaultExecutor().DoWithTimeline(ctx, policy.ParseKey(key), op)
}

// DoValueWithTimeline executes op under the read policy and returns the Timeline.
func DoValueWithTimeline[T any](ctx context.Context, key string, op retry.OperationValue[T]) (T, observe.Timeline, error) {
	return retry.DoValueWithTimeline(ctx, retry.DefaultExecutor(), policy.ParseKey(key), op)
}
