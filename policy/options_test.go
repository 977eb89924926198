package policy

import (
	"testing"
	"time"
)

func TestNew_AppliesOptions(t *testing.T) {
	p := New("roster.list",
		ID("rollout-7"),
		MaxRetries(2),
		RateLimitRetries(1),
		BaseDelay(500*time.Millisecond),
		MaxDelay(10*time.Second),
	)

	if p.Key != (Key{Namespace: "roster", Name: "list"}) {
		t.Fatalf("Key=%+v", p.Key)
	}
	if p.ID != "rollout-7" {
		t.Fatalf("ID=%q", p.ID)
	}
	if p.Retry.MaxRetries != 2 {
		t.Fatalf("MaxRetries=%d, want 2", p.Retry.MaxRetries)
	}
	if p.Retry.RateLimitRetries != 1 {
		t.Fatalf("RateLimitRetries=%d, want 1", p.Retry.RateLimitRetries)
	}
	if p.Retry.BaseDelay != 500*time.Millisecond {
		t.Fatalf("BaseDelay=%v", p.Retry.BaseDelay)
	}
	if p.Meta.Source != SourceStatic {
		t.Fatalf("Source=%q, want static", p.Meta.Source)
	}
}

func TestNew_DefaultsWhenNoOptions(t *testing.T) {
	p := New("events.rsvp")
	if p.Retry != DefaultRetry() {
		t.Fatalf("Retry=%+v, want defaults", p.Retry)
	}
}

func TestNew_NormalizesOptionValues(t *testing.T) {
	p := New("x", MaxRetries(1000))
	if p.Retry.MaxRetries != 10 {
		t.Fatalf("MaxRetries=%d, want clamped to 10", p.Retry.MaxRetries)
	}
}

func TestNewFromKey_NilOptionIgnored(t *testing.T) {
	p := NewFromKey(Key{Name: "x"}, nil, MaxMutationRetries(2))
	if p.Retry.MaxMutationRetries != 2 {
		t.Fatalf("MaxMutationRetries=%d, want 2", p.Retry.MaxMutationRetries)
	}
}
