package api

import "fmt"

// Kind classifies a request failure. The kind decides both whether the
// client retries internally and what the caller can sensibly do with the
// terminal error.
type Kind uint8

const (
	KindUnknown      Kind = iota
	KindUnauthorized      // 401 or missing credential, never retried
	KindTimeout           // attempt deadline exceeded or 408
	KindRateLimited       // 429
	KindClient            // other 4xx, the request itself is wrong
	KindServer            // 5xx
	KindNetwork           // connection-level failure
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "Unauthorized"
	case KindTimeout:
		return "Timeout"
	case KindRateLimited:
		return "RateLimited"
	case KindClient:
		return "ClientError"
	case KindServer:
		return "ServerError"
	case KindNetwork:
		return "NetworkError"
	default:
		return "Unknown"
	}
}

// Retryable reports whether a failure of this kind may succeed on a later
// attempt.
func (k Kind) Retryable() bool {
	switch k {
	case KindTimeout, KindRateLimited, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}

// Error is the terminal failure of a request. It keeps the status code and
// response body of the last attempt so callers can render something better
// than a stack trace.
type Error struct {
	Kind   Kind
	Status int // 0 when the failure never produced a response
	Body   []byte
	cause  error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api: %s (status %d)", e.Kind, e.Status)
	}
	if e.cause != nil {
		return fmt.Sprintf("api: %s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("api: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// classify maps a response status code to an error kind.
// Only 401 and non-retryable 4xx terminate a call early.
func classify(status int) Kind {
	switch {
	case status == 401:
		return KindUnauthorized
	case status == 408:
		return KindTimeout
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindClient
	default:
		return KindUnknown
	}
}
