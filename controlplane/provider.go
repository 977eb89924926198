// Package controlplane resolves retry policies for operation keys: from
// in-process maps, from YAML files, or from a remote policy endpoint with a
// TTL cache in front of it.
package controlplane

import (
	"context"

	"github.com/teamfolio/rebound/policy"
)

// Provider supplies a Policy for a Key.
type Provider interface {
	// GetPolicy returns the policy for key. Providers may return a non-zero
	// policy alongside a non-nil error to communicate a fallback path.
	GetPolicy(ctx context.Context, key policy.Key) (policy.Policy, error)
}

// StaticProvider is an in-process Provider backed by a map and an optional
// default. Keys missing from both fall back to the stock policy.
type StaticProvider struct {
	Policies map[policy.Key]policy.Policy
	Default  policy.Policy
}

func (p *StaticProvider) GetPolicy(_ context.Context, key policy.Key) (policy.Policy, error) {
	if p != nil && p.Policies != nil {
		if pol, ok := p.Policies[key]; ok {
			pol.Key = key
			if pol.Meta.Source == "" || pol.Meta.Source == policy.SourceUnknown {
				pol.Meta.Source = policy.SourceStatic
			}
			return pol.Normalize(), nil
		}
	}

	if p != nil && !p.Default.IsZero() {
		pol := p.Default
		pol.Key = key
		if pol.Meta.Source == "" || pol.Meta.Source == policy.SourceUnknown {
			pol.Meta.Source = policy.SourceStatic
		}
		return pol.Normalize(), nil
	}

	return policy.Default(key).Normalize(), nil
}
