package policy

import "time"

// Option mutates a Policy under construction.
type Option func(*Policy)

// New builds a normalized policy for the string form of a key.
func New(key string, opts ...Option) Policy {
	return NewFromKey(ParseKey(key), opts...)
}

// NewFromKey builds a normalized policy for a structured key.
func NewFromKey(key Key, opts ...Option) Policy {
	p := Default(key)
	p.Meta.Source = SourceStatic
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	return p.Normalize()
}

// ID sets the policy's identifier, useful for correlating observer output.
func ID(id string) Option {
	return func(p *Policy) { p.ID = id }
}

// MaxRetries sets the read retry ceiling.
func MaxRetries(n int) Option {
	return func(p *Policy) { p.Retry.MaxRetries = n }
}

// MaxMutationRetries sets the mutation retry ceiling.
func MaxMutationRetries(n int) Option {
	return func(p *Policy) { p.Retry.MaxMutationRetries = n }
}

// RateLimitRetries sets the retry ceiling for 429 responses.
func RateLimitRetries(n int) Option {
	return func(p *Policy) { p.Retry.RateLimitRetries = n }
}

// UnknownRetries sets the retry ceiling for unclassified errors.
func UnknownRetries(n int) Option {
	return func(p *Policy) { p.Retry.UnknownRetries = n }
}

// BaseDelay sets the backoff before the first retry.
func BaseDelay(d time.Duration) Option {
	return func(p *Policy) { p.Retry.BaseDelay = d }
}

// MaxDelay sets the backoff ceiling.
func MaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.Retry.MaxDelay = d }
}
