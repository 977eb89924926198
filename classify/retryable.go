package classify

// retryableStatuses lists statuses that are transient even though they are
// not 5xx: request timeout, rate limit, service unavailable, gateway timeout.
// 503 and 504 also match the 5xx range; the explicit set exists for the 4xx
// members.
var retryableStatuses = map[int]struct{}{
	408: {},
	429: {},
	503: {},
	504: {},
}

// IsRetryable reports whether an error kind is ever worth retrying,
// independent of how many attempts were already made.
//
// Unknown and network errors are assumed transient. API errors are retryable
// for server-side statuses (5xx) and for 408/429; every other status is a
// client-side error that retries cannot fix.
func IsRetryable(e Error) bool {
	switch e.Kind {
	case KindUnknown, KindNetwork:
		return true
	}

	if e.Status >= 500 && e.Status <= 599 {
		return true
	}
	_, ok := retryableStatuses[e.Status]
	return ok
}
