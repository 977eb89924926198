package classify

import "strconv"

// Kind is the coarse category of a request failure.
type Kind int

const (
	// KindUnknown covers every value that matches no other category:
	// generic errors, plain strings, nil.
	KindUnknown Kind = iota

	// KindNetwork means no response was obtained from the remote side
	// (connection, DNS, or transport-level timeout failures).
	KindNetwork

	// KindAPI means the remote endpoint answered with an error status.
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Error is the classified form of a request failure. It is built once at the
// transport boundary and passed down as a value; decision code switches on
// Kind and Status instead of re-sniffing the underlying error.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, KindAPI only
	Code    string // machine-readable error code, when the endpoint provides one
	Message string
	Cause   error
}

func (e Error) Error() string {
	switch {
	case e.Kind == KindAPI && e.Message != "":
		return "api error " + strconv.Itoa(e.Status) + ": " + e.Message
	case e.Kind == KindAPI:
		return "api error " + strconv.Itoa(e.Status)
	case e.Message != "":
		return e.Kind.String() + " error: " + e.Message
	default:
		return e.Kind.String() + " error"
	}
}

func (e Error) Unwrap() error { return e.Cause }
