// Package classify categorizes request failures into a small taxonomy:
// network errors (no response received), API errors (the endpoint answered
// with an HTTP status), and unknown errors (everything else).
package classify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/teamfolio/rebound/internal"
)

// Classify maps an arbitrary failure value to its Error category.
//
// Classification is total: every input, including nil, non-error values, and
// typed nils, yields exactly one category. Classify never panics.
func Classify(v any) Error {
	if internal.IsTypedNil(v) {
		return Error{Kind: KindUnknown}
	}

	switch val := v.(type) {
	case Error:
		return val
	case *Error:
		return *val
	case error:
		return classifyError(val)
	case string:
		return Error{Kind: KindUnknown, Message: val}
	default:
		return Error{Kind: KindUnknown, Message: fmt.Sprint(val)}
	}
}

func classifyError(err error) Error {
	var ce Error
	if errors.As(err, &ce) {
		return ce
	}

	var he HTTPError
	if errors.As(err, &he) {
		status := he.HTTPStatusCode()
		if status <= 0 {
			return Error{Kind: KindNetwork, Message: err.Error(), Cause: err}
		}
		e := Error{Kind: KindAPI, Status: status, Message: err.Error(), Cause: err}
		var ec errorCoder
		if errors.As(err, &ec) {
			e.Code = ec.APIErrorCode()
		}
		return e
	}

	if isTransportError(err) {
		return Error{Kind: KindNetwork, Message: err.Error(), Cause: err}
	}

	return Error{Kind: KindUnknown, Message: err.Error(), Cause: err}
}

// isTransportError reports whether err indicates that the request never
// produced a response: dial/DNS failures, resets, and transport timeouts.
func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return false
}
