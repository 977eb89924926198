package classify

// HTTPError is a classify-owned interface that lets transport errors carry
// retry semantics without this package importing integration packages.
//
// Implementations should report status code 0 for transport-level failures
// where no response was received.
type HTTPError interface {
	error
	HTTPStatusCode() int
}

// errorCoder is implemented by API errors that carry a machine-readable code
// alongside the HTTP status.
type errorCoder interface {
	APIErrorCode() string
}
