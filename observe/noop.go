package observe

import (
	"context"

	"github.com/teamfolio/rebound/policy"
)

// NoopObserver implements Observer with no-op methods.
type NoopObserver struct{}

func (NoopObserver) OnStart(context.Context, policy.Key, policy.Policy)   {}
func (NoopObserver) OnAttempt(context.Context, policy.Key, AttemptRecord) {}
func (NoopObserver) OnSuccess(context.Context, policy.Key, Timeline)      {}
func (NoopObserver) OnFailure(context.Context, policy.Key, Timeline)      {}
