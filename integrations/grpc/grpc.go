// Package grpc maps gRPC status codes into rebound's error taxonomy and
// provides client interceptors that retry calls under the policy. It is a
// separate module so the core library does not depend on gRPC.
package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/teamfolio/rebound/classify"
	"github.com/teamfolio/rebound/policy"
	"github.com/teamfolio/rebound/retry"
)

// DefaultKeyFunc maps methods to policy keys.
// "/package.Service/Method" -> {Namespace: "package.Service", Name: "Method"}
func DefaultKeyFunc(method string) policy.Key {
	method = strings.TrimPrefix(method, "/")
	parts := strings.Split(method, "/")
	if len(parts) == 2 {
		return policy.Key{Namespace: parts[0], Name: parts[1]}
	}
	return policy.Key{Name: method}
}

// FromError converts a gRPC call error into the classified taxonomy.
// Codes that mean the request may never have been processed map to network
// errors; application-level codes map to their closest HTTP status; anything
// that is not a gRPC status error falls through to generic classification.
func FromError(err error) classify.Error {
	st, ok := status.FromError(err)
	if !ok {
		return classify.Classify(err)
	}

	code := st.Code()
	switch code {
	case codes.OK:
		return classify.Error{}
	case codes.Unavailable, codes.DeadlineExceeded:
		return classify.Error{Kind: classify.KindNetwork, Code: code.String(), Message: st.Message(), Cause: err}
	case codes.Canceled, codes.Unknown:
		return classify.Error{Kind: classify.KindUnknown, Code: code.String(), Message: st.Message(), Cause: err}
	}

	if httpStatus, ok := httpStatusFor(code); ok {
		return classify.Error{Kind: classify.KindAPI, Status: httpStatus, Code: code.String(), Message: st.Message(), Cause: err}
	}
	return classify.Error{Kind: classify.KindUnknown, Code: code.String(), Message: st.Message(), Cause: err}
}

func httpStatusFor(code codes.Code) (int, bool) {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return 400, true
	case codes.Unauthenticated:
		return 401, true
	case codes.PermissionDenied:
		return 403, true
	case codes.NotFound:
		return 404, true
	case codes.AlreadyExists, codes.Aborted:
		return 409, true
	case codes.ResourceExhausted:
		return 429, true
	case codes.Internal, codes.DataLoss:
		return 500, true
	case codes.Unimplemented:
		return 501, true
	default:
		return 0, false
	}
}

// UnaryClientInterceptor retries unary calls under the read policy. Use it
// only on channels whose methods are safe to repeat, or pair it with
// MutationUnaryClientInterceptor on a separate channel for writes.
func UnaryClientInterceptor(exec *retry.Executor, keyFunc func(method string) policy.Key) grpc.UnaryClientInterceptor {
	if keyFunc == nil {
		keyFunc = DefaultKeyFunc
	}
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return exec.Do(ctx, keyFunc(method), classifiedOp(method, req, reply, cc, invoker, opts))
	}
}

// MutationUnaryClientInterceptor retries unary calls under the mutation
// policy: at most one retry, and only when the request never reached the
// server.
func MutationUnaryClientInterceptor(exec *retry.Executor, keyFunc func(method string) policy.Key) grpc.UnaryClientInterceptor {
	if keyFunc == nil {
		keyFunc = DefaultKeyFunc
	}
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return exec.DoMutation(ctx, keyFunc(method), classifiedOp(method, req, reply, cc, invoker, opts))
	}
}

func classifiedOp(method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts []grpc.CallOption) retry.Operation {
	return func(ctx context.Context) error {
		err := invoker(ctx, method, req, reply, cc, opts...)
		if err == nil {
			return nil
		}
		return FromError(err)
	}
}
