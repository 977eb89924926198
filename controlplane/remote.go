package controlplane

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/teamfolio/rebound/policy"
)

// Source is the interface for fetching raw policy configuration.
type Source interface {
	// GetPolicy returns the policy for the given key.
	// If the policy is not found, it must return ErrPolicyNotFound.
	GetPolicy(ctx context.Context, key policy.Key) (policy.Policy, error)
}

// RemoteProvider is a Provider that fetches policies from a Source and
// caches them with separate TTLs for hits and misses.
type RemoteProvider struct {
	source           Source
	cache            *PolicyCache
	cacheTTL         time.Duration
	negativeCacheTTL time.Duration
}

// RemoteProviderOption configures a RemoteProvider.
type RemoteProviderOption func(*RemoteProvider)

// WithCacheTTL sets the TTL for successful policy lookups. Default is 1 minute.
func WithCacheTTL(ttl time.Duration) RemoteProviderOption {
	return func(p *RemoteProvider) {
		p.cacheTTL = ttl
	}
}

// WithNegativeCacheTTL sets the TTL for missing policy lookups. Default is 10 seconds.
func WithNegativeCacheTTL(ttl time.Duration) RemoteProviderOption {
	return func(p *RemoteProvider) {
		p.negativeCacheTTL = ttl
	}
}

// NewRemoteProvider creates a new RemoteProvider.
func NewRemoteProvider(source Source, opts ...RemoteProviderOption) *RemoteProvider {
	p := &RemoteProvider{
		source:           source,
		cache:            NewPolicyCache(),
		cacheTTL:         1 * time.Minute,
		negativeCacheTTL: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetPolicy returns the policy for key, checking the cache first.
func (p *RemoteProvider) GetPolicy(ctx context.Context, key policy.Key) (policy.Policy, error) {
	pol, foundInCache, isNegative := p.cache.Get(key)
	if foundInCache {
		if isNegative {
			return policy.Policy{}, ErrPolicyNotFound
		}
		return pol, nil
	}

	pol, err := p.source.GetPolicy(ctx, key)
	if err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			p.cache.SetMissing(key, p.negativeCacheTTL)
			return policy.Policy{}, ErrPolicyNotFound
		}
		return policy.Policy{}, err
	}

	pol.Key = key
	if pol.Meta.Source == "" {
		pol.Meta.Source = policy.SourceRemote
	}

	normalized := pol.Normalize()
	p.cache.Set(key, normalized, p.cacheTTL)
	return normalized, nil
}

// Invalidate drops the cached entry for key, forcing the next lookup to hit
// the source.
func (p *RemoteProvider) Invalidate(key policy.Key) {
	p.cache.Invalidate(key)
}

// HTTPSource fetches policies from an HTTP endpoint serving JSON documents
// at <BaseURL>/policies/<namespace.name>.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (s *HTTPSource) GetPolicy(ctx context.Context, key policy.Key) (policy.Policy, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	u := s.BaseURL + "/policies/" + url.PathEscape(key.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("%w: %v", ErrPolicyFetchFailed, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer func() {
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return policy.Policy{}, ErrPolicyNotFound
	case resp.StatusCode != http.StatusOK:
		return policy.Policy{}, fmt.Errorf("%w: status %d", ErrPolicyFetchFailed, resp.StatusCode)
	}

	var pol policy.Policy
	if err := json.NewDecoder(resp.Body).Decode(&pol); err != nil {
		return policy.Policy{}, fmt.Errorf("%w: decode: %v", ErrPolicyFetchFailed, err)
	}
	return pol, nil
}
