package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/teamfolio/rebound/classify"
	"github.com/teamfolio/rebound/policy"
	"github.com/teamfolio/rebound/retry"
)

func TestDefaultKeyFunc(t *testing.T) {
	tests := []struct {
		method string
		want   policy.Key
	}{
		{"/league.RosterService/ListPlayers", policy.Key{Namespace: "league.RosterService", Name: "ListPlayers"}},
		{"/Health/Check", policy.Key{Namespace: "Health", Name: "Check"}},
		{"nomethod", policy.Key{Name: "nomethod"}},
		{"", policy.Key{Name: ""}},
	}
	for _, tt := range tests {
		if got := DefaultKeyFunc(tt.method); got != tt.want {
			t.Fatalf("DefaultKeyFunc(%q)=%v, want %v", tt.method, got, tt.want)
		}
	}
}

func TestFromErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   classify.Kind
		wantStatus int
	}{
		{"unavailable", status.Error(codes.Unavailable, "conn refused"), classify.KindNetwork, 0},
		{"deadline", status.Error(codes.DeadlineExceeded, "deadline"), classify.KindNetwork, 0},
		{"canceled", status.Error(codes.Canceled, "canceled"), classify.KindUnknown, 0},
		{"unknown code", status.Error(codes.Unknown, "boom"), classify.KindUnknown, 0},
		{"resource exhausted", status.Error(codes.ResourceExhausted, "quota"), classify.KindAPI, 429},
		{"internal", status.Error(codes.Internal, "oops"), classify.KindAPI, 500},
		{"data loss", status.Error(codes.DataLoss, "corrupt"), classify.KindAPI, 500},
		{"unimplemented", status.Error(codes.Unimplemented, "nope"), classify.KindAPI, 501},
		{"not found", status.Error(codes.NotFound, "missing"), classify.KindAPI, 404},
		{"already exists", status.Error(codes.AlreadyExists, "dup"), classify.KindAPI, 409},
		{"aborted", status.Error(codes.Aborted, "conflict"), classify.KindAPI, 409},
		{"permission denied", status.Error(codes.PermissionDenied, "denied"), classify.KindAPI, 403},
		{"unauthenticated", status.Error(codes.Unauthenticated, "who"), classify.KindAPI, 401},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad"), classify.KindAPI, 400},
		{"failed precondition", status.Error(codes.FailedPrecondition, "state"), classify.KindAPI, 400},
		{"out of range", status.Error(codes.OutOfRange, "range"), classify.KindAPI, 400},
		{"plain error", errors.New("not a status"), classify.KindUnknown, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			if got.Kind != tt.wantKind {
				t.Fatalf("Kind=%v, want %v", got.Kind, tt.wantKind)
			}
			if got.Status != tt.wantStatus {
				t.Fatalf("Status=%d, want %d", got.Status, tt.wantStatus)
			}
		})
	}
}

func TestFromErrorKeepsCause(t *testing.T) {
	orig := status.Error(codes.Unavailable, "down")
	got := FromError(orig)
	if !errors.Is(got, orig) {
		t.Fatalf("classified error does not unwrap to the status error")
	}
	if got.Code != "Unavailable" {
		t.Fatalf("Code=%q, want %q", got.Code, "Unavailable")
	}
}

func fastExecutor(key policy.Key, opts ...policy.Option) *retry.Executor {
	opts = append(opts, policy.BaseDelay(time.Millisecond), policy.MaxDelay(2*time.Millisecond))
	return retry.NewExecutor(retry.WithPolicyKey(key, opts...))
}

func TestUnaryClientInterceptorRetriesUnavailable(t *testing.T) {
	key := DefaultKeyFunc("/league.RosterService/ListPlayers")
	exec := fastExecutor(key)

	calls := 0
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		if calls <= 2 {
			return status.Error(codes.Unavailable, "try again")
		}
		return nil
	}

	ic := UnaryClientInterceptor(exec, nil)
	err := ic(context.Background(), "/league.RosterService/ListPlayers", nil, nil, nil, invoker)
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls=%d, want 3", calls)
	}
}

func TestUnaryClientInterceptorDoesNotRetryNotFound(t *testing.T) {
	key := DefaultKeyFunc("/league.RosterService/GetPlayer")
	exec := fastExecutor(key)

	calls := 0
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		return status.Error(codes.NotFound, "no such player")
	}

	ic := UnaryClientInterceptor(exec, nil)
	err := ic(context.Background(), "/league.RosterService/GetPlayer", nil, nil, nil, invoker)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
	var ce classify.Error
	if !errors.As(err, &ce) || ce.Status != 404 {
		t.Fatalf("err=%v, want classified 404", err)
	}
}

func TestMutationInterceptorRetriesOnlyNetwork(t *testing.T) {
	t.Run("unavailable retried once", func(t *testing.T) {
		key := DefaultKeyFunc("/league.RosterService/AddPlayer")
		exec := fastExecutor(key)

		calls := 0
		invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			calls++
			return status.Error(codes.Unavailable, "down")
		}
		ic := MutationUnaryClientInterceptor(exec, nil)
		if err := ic(context.Background(), "/league.RosterService/AddPlayer", nil, nil, nil, invoker); err == nil {
			t.Fatal("expected error")
		}
		if calls != 2 {
			t.Fatalf("calls=%d, want 2", calls)
		}
	})

	t.Run("internal not retried", func(t *testing.T) {
		key := DefaultKeyFunc("/league.RosterService/AddPlayer")
		exec := fastExecutor(key)

		calls := 0
		invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			calls++
			return status.Error(codes.Internal, "boom")
		}
		ic := MutationUnaryClientInterceptor(exec, nil)
		if err := ic(context.Background(), "/league.RosterService/AddPlayer", nil, nil, nil, invoker); err == nil {
			t.Fatal("expected error")
		}
		if calls != 1 {
			t.Fatalf("calls=%d, want 1", calls)
		}
	})
}

func TestCustomKeyFunc(t *testing.T) {
	exec := fastExecutor(policy.Key{Namespace: "custom", Name: "key"})
	var gotMethod string
	keyFunc := func(method string) policy.Key {
		gotMethod = method
		return policy.Key{Namespace: "custom", Name: "key"}
	}
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return nil
	}
	ic := UnaryClientInterceptor(exec, keyFunc)
	if err := ic(context.Background(), "/a.B/C", nil, nil, nil, invoker); err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
	if gotMethod != "/a.B/C" {
		t.Fatalf("keyFunc method=%q, want %q", gotMethod, "/a.B/C")
	}
}
