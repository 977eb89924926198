package resty

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/teamfolio/rebound/policy"
)

func fastPolicy() policy.RetryPolicy {
	pol := policy.DefaultRetry()
	pol.BaseDelay = time.Millisecond
	pol.MaxDelay = 2 * time.Millisecond
	return pol
}

func TestApplyRetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := Apply(resty.New(), fastPolicy())
	resp, err := client.R().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("status=%d, want 200", resp.StatusCode())
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("hits=%d, want 3", got)
	}
}

func TestApplyDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := Apply(resty.New(), fastPolicy())
	resp, err := client.R().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode() != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", resp.StatusCode())
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("hits=%d, want 1", got)
	}
}

func TestApplyCapsRateLimitRetries(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := Apply(resty.New(), fastPolicy())
	resp, err := client.R().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode() != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", resp.StatusCode())
	}
	// attempts 0 and 1 are retried, attempt 2 is not
	if got := hits.Load(); got != 3 {
		t.Fatalf("hits=%d, want 3", got)
	}
}

func TestConditionIgnoresSuccess(t *testing.T) {
	cond := Condition(fastPolicy())
	resp := &resty.Response{
		Request:     &resty.Request{Attempt: 1},
		RawResponse: &http.Response{StatusCode: http.StatusOK},
	}
	if cond(resp, nil) {
		t.Fatal("successful response should not be retried")
	}
}

func TestRetryAfterFollowsBackoffSchedule(t *testing.T) {
	pol := policy.DefaultRetry()
	after := RetryAfter(pol)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{10, 30 * time.Second},
	}
	for _, tt := range tests {
		resp := &resty.Response{Request: &resty.Request{Attempt: tt.attempt}}
		got, err := after(nil, resp)
		if err != nil {
			t.Fatalf("attempt %d: %v", tt.attempt, err)
		}
		if got != tt.want {
			t.Fatalf("attempt %d: delay=%v, want %v", tt.attempt, got, tt.want)
		}
	}
}
