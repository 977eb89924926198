package retry

import (
	"context"
	"time"

	"github.com/teamfolio/rebound/classify"
	"github.com/teamfolio/rebound/controlplane"
	"github.com/teamfolio/rebound/observe"
	"github.com/teamfolio/rebound/policy"
)

// Operation is a retryable unit of work.
type Operation func(ctx context.Context) error

// OperationValue is a retryable unit of work producing a value.
type OperationValue[T any] func(ctx context.Context) (T, error)

type callKind int

const (
	callRead callKind = iota
	callMutation
)

// Executor drives the retry loop: resolve the policy for a key, run the
// operation, classify failures, consult the decision functions, and sleep
// between attempts. It holds no per-call state and is safe for concurrent
// use.
type Executor struct {
	provider controlplane.Provider
	observer observe.Observer
	clock    func() time.Time
	sleep    func(context.Context, time.Duration) error
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	Provider controlplane.Provider
	Observer observe.Observer
	Clock    func() time.Time
}

type executorConfig struct {
	opts           ExecutorOptions
	staticPolicies map[policy.Key]policy.Policy
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*executorConfig)

// WithProvider sets the policy provider.
func WithProvider(p controlplane.Provider) ExecutorOption {
	return func(c *executorConfig) {
		c.opts.Provider = p
	}
}

// WithObserver sets the observer.
func WithObserver(o observe.Observer) ExecutorOption {
	return func(c *executorConfig) {
		c.opts.Observer = o
	}
}

// WithClock sets the clock function.
func WithClock(f func() time.Time) ExecutorOption {
	return func(c *executorConfig) {
		c.opts.Clock = f
	}
}

// WithPolicy adds a static policy for a string key (e.g. "roster.list").
func WithPolicy(key string, opts ...policy.Option) ExecutorOption {
	return func(c *executorConfig) {
		if c.staticPolicies == nil {
			c.staticPolicies = make(map[policy.Key]policy.Policy)
		}
		p := policy.New(key, opts...)
		c.staticPolicies[p.Key] = p
	}
}

// WithPolicyKey adds a static policy for a structured key.
func WithPolicyKey(key policy.Key, opts ...policy.Option) ExecutorOption {
	return func(c *executorConfig) {
		if c.staticPolicies == nil {
			c.staticPolicies = make(map[policy.Key]policy.Policy)
		}
		p := policy.NewFromKey(key, opts...)
		c.staticPolicies[p.Key] = p
	}
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	cfg := &executorConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.opts.Provider == nil && len(cfg.staticPolicies) > 0 {
		cfg.opts.Provider = &controlplane.StaticProvider{
			Policies: cfg.staticPolicies,
		}
	}

	return NewExecutorFromOptions(cfg.opts)
}

// NewExecutorFromOptions creates an Executor from a config struct.
func NewExecutorFromOptions(opts ExecutorOptions) *Executor {
	e := &Executor{
		provider: opts.Provider,
		observer: opts.Observer,
		clock:    opts.Clock,
	}

	if e.provider == nil {
		e.provider = &controlplane.StaticProvider{}
	}
	if e.observer == nil {
		e.observer = observe.NoopObserver{}
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.sleep == nil {
		e.sleep = sleepWithContext
	}

	return e
}

// Do executes a read (idempotent) operation with retries.
func (e *Executor) Do(ctx context.Context, key policy.Key, op Operation) error {
	_, err := DoValue(ctx, e, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoMutation executes a write operation with retries. Mutations use the
// stricter write policy: at most one retry, and only on network errors.
func (e *Executor) DoMutation(ctx context.Context, key policy.Key, op Operation) error {
	_, err := DoMutationValue(ctx, e, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoWithTimeline is Do, returning the structured record of all attempts.
func (e *Executor) DoWithTimeline(ctx context.Context, key policy.Key, op Operation) (observe.Timeline, error) {
	_, tl, err := doValue(ctx, e, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, callRead)
	return tl, err
}

// DoMutationWithTimeline is DoMutation, returning the structured record of
// all attempts.
func (e *Executor) DoMutationWithTimeline(ctx context.Context, key policy.Key, op Operation) (observe.Timeline, error) {
	_, tl, err := doValue(ctx, e, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, callMutation)
	return tl, err
}

// DoValue executes a read (idempotent) operation with retries.
func DoValue[T any](ctx context.Context, exec *Executor, key policy.Key, op OperationValue[T]) (T, error) {
	val, _, err := doValue(ctx, exec, key, op, callRead)
	return val, err
}

// DoMutationValue executes a write operation with retries under the stricter
// write policy.
func DoMutationValue[T any](ctx context.Context, exec *Executor, key policy.Key, op OperationValue[T]) (T, error) {
	val, _, err := doValue(ctx, exec, key, op, callMutation)
	return val, err
}

// DoValueWithTimeline is DoValue, returning the structured record of all
// attempts.
func DoValueWithTimeline[T any](ctx context.Context, exec *Executor, key policy.Key, op OperationValue[T]) (T, observe.Timeline, error) {
	return doValue(ctx, exec, key, op, callRead)
}

// DoMutationValueWithTimeline is DoMutationValue, returning the structured
// record of all attempts.
func DoMutationValueWithTimeline[T any](ctx context.Context, exec *Executor, key policy.Key, op OperationValue[T]) (T, observe.Timeline, error) {
	return doValue(ctx, exec, key, op, callMutation)
}

func doValue[T any](ctx context.Context, exec *Executor, key policy.Key, op OperationValue[T], kind callKind) (T, observe.Timeline, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if exec == nil {
		exec = DefaultExecutor()
	} else if exec.provider == nil || exec.observer == nil || exec.clock == nil || exec.sleep == nil {
		exec = NewExecutorFromOptions(ExecutorOptions{
			Provider: exec.provider,
			Observer: exec.observer,
			Clock:    exec.clock,
		})
	}

	pol := exec.resolvePolicy(ctx, key)

	tl := observe.Timeline{
		Key:      key,
		PolicyID: pol.ID,
		Start:    exec.clock(),
		Attempts: make([]observe.AttemptRecord, 0, pol.Retry.MaxRetries+1),
	}
	exec.observer.OnStart(ctx, key, pol)

	var last T

	fail := func(err error) (T, observe.Timeline, error) {
		tl.End = exec.clock()
		tl.FinalErr = err
		exec.observer.OnFailure(ctx, key, tl)
		return last, tl, err
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		attemptCtx := observe.WithAttemptInfo(ctx, observe.AttemptInfo{
			Attempt:  attempt,
			Mutation: kind == callMutation,
			PolicyID: pol.ID,
		})

		rec := observe.AttemptRecord{
			Attempt:   attempt,
			StartTime: exec.clock(),
		}

		val, err := op(attemptCtx)
		rec.EndTime = exec.clock()
		last = val

		if err == nil {
			tl.Attempts = append(tl.Attempts, rec)
			exec.observer.OnAttempt(ctx, key, rec)
			tl.End = exec.clock()
			exec.observer.OnSuccess(ctx, key, tl)
			return val, tl, nil
		}

		rec.Err = err
		rec.Classified = classify.Classify(err)
		rec.Retried = decide(pol.Retry, kind, attempt, rec.Classified)
		if rec.Retried {
			rec.Backoff = DelayWith(pol.Retry, attempt)
		}
		tl.Attempts = append(tl.Attempts, rec)
		exec.observer.OnAttempt(ctx, key, rec)

		if !rec.Retried {
			// The original error is the caller's to surface; nothing is
			// wrapped or logged here.
			return fail(err)
		}

		if serr := exec.sleep(ctx, rec.Backoff); serr != nil {
			return fail(serr)
		}
	}
}

func decide(pol policy.RetryPolicy, kind callKind, attempt int, err classify.Error) bool {
	if kind == callMutation {
		return ShouldRetryMutationWith(pol, attempt, err)
	}
	return ShouldRetryWith(pol, attempt, err)
}

func (e *Executor) resolvePolicy(ctx context.Context, key policy.Key) policy.Policy {
	pol, err := e.provider.GetPolicy(ctx, key)
	if err != nil || pol.IsZero() {
		pol = policy.Default(key)
	}
	pol.Key = key
	return pol.Normalize()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
