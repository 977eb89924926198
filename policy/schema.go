// Package policy defines the retry policy schema: how many times reads and
// mutations may be re-issued, and how the backoff between attempts grows.
package policy

import (
	"time"
)

// RetryPolicy holds the knobs consulted by the retry decision functions.
// All counts are retry ceilings, not total attempt counts: a ceiling of 3
// means the original call plus up to 3 re-issues.
type RetryPolicy struct {
	// MaxRetries bounds retries of read (idempotent) operations.
	MaxRetries int `json:"max_retries"`

	// MaxMutationRetries bounds retries of write operations. Writes are only
	// ever retried on network errors, where the request plausibly never
	// reached the server.
	MaxMutationRetries int `json:"max_mutation_retries"`

	// RateLimitRetries bounds retries of 429 responses. Kept below MaxRetries
	// so a server that asked for backoff is not hammered.
	RateLimitRetries int `json:"rate_limit_retries"`

	// UnknownRetries bounds retries of unclassified errors. An unknown error
	// carries no evidence that retrying will help, so this is tighter than
	// the general ceiling.
	UnknownRetries int `json:"unknown_retries"`

	// BaseDelay is the wait before the first re-issue; each further retry
	// doubles it up to MaxDelay.
	BaseDelay time.Duration `json:"base_delay"`
	MaxDelay  time.Duration `json:"max_delay"`
}

// Source records where a policy came from.
type Source string

const (
	SourceUnknown Source = "unknown"
	SourceStatic  Source = "static"
	SourceFile    Source = "file"
	SourceRemote  Source = "remote"
	SourceDefault Source = "default"
)

// NormalizationInfo records which fields Normalize had to adjust.
type NormalizationInfo struct {
	Changed       bool     `json:"-"`
	ChangedFields []string `json:"-"`
}

type Metadata struct {
	Source        Source            `json:"-"`
	Normalization NormalizationInfo `json:"-"`
}

// Policy is a keyed retry policy as resolved for one logical operation.
type Policy struct {
	Key   Key         `json:"key"`
	ID    string      `json:"id,omitempty"`
	Retry RetryPolicy `json:"retry"`

	Meta Metadata `json:"-"`
}

// DefaultRetry returns the stock retry knobs: up to 3 read retries, a single
// mutation retry, 2 rate-limit retries, 1 unknown-error retry, and backoff
// doubling from 1s up to a 30s ceiling.
func DefaultRetry() RetryPolicy {
	return RetryPolicy{
		MaxRetries:         3,
		MaxMutationRetries: 1,
		RateLimitRetries:   2,
		UnknownRetries:     1,
		BaseDelay:          1 * time.Second,
		MaxDelay:           30 * time.Second,
	}
}

// Default returns the stock policy for key.
func Default(key Key) Policy {
	return Policy{
		Key:   key,
		Retry: DefaultRetry(),
		Meta: Metadata{
			Source: SourceDefault,
		},
	}
}

const (
	maxRetryCeiling = 10

	minDelayFloor   = 1 * time.Millisecond
	maxDelayCeiling = 5 * time.Minute
)

// Normalize clamps out-of-range fields into their valid domains and fills
// zero values with defaults, recording every adjusted field in the metadata.
// Zero counts are treated as unset; use a negative MaxRetries to express
// "never retry" and it will clamp to 0.
func (p Policy) Normalize() Policy {
	normalized := p
	norm := &normalized.Meta.Normalization

	markChanged := func(field string) {
		norm.Changed = true
		for _, f := range norm.ChangedFields {
			if f == field {
				return
			}
		}
		norm.ChangedFields = append(norm.ChangedFields, field)
	}

	def := DefaultRetry()
	r := &normalized.Retry

	clampCount := func(field string, v *int, fallback int) {
		switch {
		case *v == 0:
			*v = fallback
			markChanged(field)
		case *v < 0:
			*v = 0
			markChanged(field)
		case *v > maxRetryCeiling:
			*v = maxRetryCeiling
			markChanged(field)
		}
	}

	clampCount("retry.max_retries", &r.MaxRetries, def.MaxRetries)
	clampCount("retry.max_mutation_retries", &r.MaxMutationRetries, def.MaxMutationRetries)
	clampCount("retry.rate_limit_retries", &r.RateLimitRetries, def.RateLimitRetries)
	clampCount("retry.unknown_retries", &r.UnknownRetries, def.UnknownRetries)

	if r.BaseDelay <= 0 {
		r.BaseDelay = def.BaseDelay
		markChanged("retry.base_delay")
	}
	if r.BaseDelay < minDelayFloor {
		r.BaseDelay = minDelayFloor
		markChanged("retry.base_delay")
	}

	if r.MaxDelay <= 0 {
		r.MaxDelay = def.MaxDelay
		markChanged("retry.max_delay")
	}
	if r.MaxDelay > maxDelayCeiling {
		r.MaxDelay = maxDelayCeiling
		markChanged("retry.max_delay")
	}
	if r.MaxDelay < r.BaseDelay {
		r.MaxDelay = r.BaseDelay
		markChanged("retry.max_delay")
	}

	return normalized
}

// IsZero reports whether p carries no configuration at all.
func (p Policy) IsZero() bool {
	return p.Key == (Key{}) &&
		p.ID == "" &&
		p.Retry == (RetryPolicy{})
}
