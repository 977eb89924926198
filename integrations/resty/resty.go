// Package resty wires rebound's retry decisions into a resty client, so
// existing resty call sites pick up the same backoff behavior as code using
// the executor directly.
package resty

import (
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/teamfolio/rebound/classify"
	"github.com/teamfolio/rebound/policy"
	"github.com/teamfolio/rebound/retry"
)

// Apply configures client to retry according to pol. Resty drives the loop;
// rebound supplies the decision and the delay. The client should only be used
// for read-style calls: resty cannot distinguish reads from writes, so writes
// belong on the executor's DoMutation path.
func Apply(client *resty.Client, pol policy.RetryPolicy) *resty.Client {
	return client.
		SetRetryCount(pol.MaxRetries).
		SetRetryMaxWaitTime(pol.MaxDelay).
		AddRetryCondition(Condition(pol)).
		SetRetryAfter(RetryAfter(pol))
}

// Condition returns a resty retry condition backed by the read decision
// table. Resty counts attempts from 1; the decision table counts from 0.
func Condition(pol policy.RetryPolicy) resty.RetryConditionFunc {
	return func(r *resty.Response, err error) bool {
		if err == nil && r != nil && r.StatusCode() < 400 {
			return false
		}
		attempt := 0
		if r != nil && r.Request != nil {
			attempt = r.Request.Attempt - 1
		}
		return retry.ShouldRetryWith(pol, attempt, classifyOutcome(r, err))
	}
}

// RetryAfter returns a resty callback producing the policy's backoff for the
// attempt that just failed.
func RetryAfter(pol policy.RetryPolicy) resty.RetryAfterFunc {
	return func(c *resty.Client, r *resty.Response) (time.Duration, error) {
		attempt := 0
		if r != nil && r.Request != nil {
			attempt = r.Request.Attempt - 1
		}
		return retry.DelayWith(pol, attempt), nil
	}
}

func classifyOutcome(r *resty.Response, err error) classify.Error {
	if err != nil {
		return classify.Classify(err)
	}
	if r == nil {
		return classify.Error{Kind: classify.KindNetwork, Message: "no response"}
	}
	code := r.StatusCode()
	if code >= 400 {
		return classify.Error{Kind: classify.KindAPI, Status: code, Message: r.Status()}
	}
	return classify.Error{}
}
