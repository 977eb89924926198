package controlplane

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/teamfolio/rebound/policy"
)

// duration wraps time.Duration so YAML policy files can say "500ms" or "2s".
type duration time.Duration

func (d *duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = duration(parsed)
	return nil
}

type filePolicy struct {
	Key                string   `yaml:"key"`
	ID                 string   `yaml:"id"`
	MaxRetries         int      `yaml:"max_retries"`
	MaxMutationRetries int      `yaml:"max_mutation_retries"`
	RateLimitRetries   int      `yaml:"rate_limit_retries"`
	UnknownRetries     int      `yaml:"unknown_retries"`
	BaseDelay          duration `yaml:"base_delay"`
	MaxDelay           duration `yaml:"max_delay"`
}

type fileDocument struct {
	Default  *filePolicy  `yaml:"default"`
	Policies []filePolicy `yaml:"policies"`
}

// FileProvider is a Provider backed by a YAML policy file loaded once at
// construction. Environment variable references in the file are expanded
// before parsing.
type FileProvider struct {
	static StaticProvider
}

// LoadFile reads a YAML policy file into a FileProvider.
func LoadFile(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile builds a FileProvider from raw YAML content.
func ParseFile(data []byte) (*FileProvider, error) {
	var doc fileDocument
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	p := &FileProvider{
		static: StaticProvider{
			Policies: make(map[policy.Key]policy.Policy, len(doc.Policies)),
		},
	}

	if doc.Default != nil {
		p.static.Default = doc.Default.toPolicy(policy.Key{})
	}

	for _, fp := range doc.Policies {
		if fp.Key == "" {
			return nil, fmt.Errorf("parse policy file: policy entry without key")
		}
		key := policy.ParseKey(fp.Key)
		if _, dup := p.static.Policies[key]; dup {
			return nil, fmt.Errorf("parse policy file: duplicate key %q", fp.Key)
		}
		p.static.Policies[key] = fp.toPolicy(key)
	}

	return p, nil
}

func (fp filePolicy) toPolicy(key policy.Key) policy.Policy {
	return policy.Policy{
		Key: key,
		ID:  fp.ID,
		Retry: policy.RetryPolicy{
			MaxRetries:         fp.MaxRetries,
			MaxMutationRetries: fp.MaxMutationRetries,
			RateLimitRetries:   fp.RateLimitRetries,
			UnknownRetries:     fp.UnknownRetries,
			BaseDelay:          time.Duration(fp.BaseDelay),
			MaxDelay:           time.Duration(fp.MaxDelay),
		},
		Meta: policy.Metadata{Source: policy.SourceFile},
	}
}

func (p *FileProvider) GetPolicy(ctx context.Context, key policy.Key) (policy.Policy, error) {
	return p.static.GetPolicy(ctx, key)
}
