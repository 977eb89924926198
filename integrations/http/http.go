// Package http integrates rebound with net/http clients: it re-issues
// requests under the retry policy, selecting the read or mutation path from
// the request method.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/teamfolio/rebound/observe"
	"github.com/teamfolio/rebound/policy"
	"github.com/teamfolio/rebound/retry"
)

// DoRequest executes an HTTP request with retries. It handles request
// cloning, body draining/closing on failed attempts, and status code
// classification. Safe methods (GET, HEAD, OPTIONS, TRACE) retry under the
// read policy; everything else uses the stricter mutation policy.
func DoRequest(ctx context.Context, exec *retry.Executor, key policy.Key, client *http.Client, req *http.Request) (*http.Response, observe.Timeline, error) {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, observe.Timeline{}, errors.New("rebound: request body is not replayable (GetBody is nil)")
	}
	if client == nil {
		client = http.DefaultClient
	}

	op := func(ctx context.Context) (*http.Response, error) {
		outReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			outReq.Body = body
		}

		resp, err := client.Do(outReq)
		if err != nil {
			// Wrap transport errors so classification sees status 0.
			return nil, &StatusError{
				Err:    err,
				Method: req.Method,
			}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		// Drain and close so a retried request does not leak the connection.
		// The drain is bounded to avoid hanging on large error bodies.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		resp.Body.Close()

		return nil, &StatusError{
			Code:   resp.StatusCode,
			Method: req.Method,
			Header: resp.Header,
		}
	}

	if isReadMethod(req.Method) {
		return retry.DoValueWithTimeline(ctx, exec, key, op)
	}
	return retry.DoMutationValueWithTimeline(ctx, exec, key, op)
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

// StatusError is the classified form of a failed HTTP exchange. A zero Code
// with a non-nil Err marks a transport failure where no response arrived.
type StatusError struct {
	Code   int
	Method string
	Header http.Header
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "http status " + strconv.Itoa(e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

func (e *StatusError) HTTPStatusCode() int { return e.Code }
