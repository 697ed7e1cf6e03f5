package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotValidURL indicates that the input URL matches none of the supported shapes.
	ErrNotValidURL = errors.New("not a valid video url")
	// ErrNothingToExtract indicates that the metadata payload is missing or malformed.
	ErrNothingToExtract = errors.New("nothing to extract")
	// ErrBadResponse indicates an unexpected non-200 HTTP status.
	ErrBadResponse = errors.New("bad response")
	// ErrTooManyRequests indicates HTTP 429 from the remote service; callers should back off.
	ErrTooManyRequests = errors.New("too many requests")
	// ErrTransportFailure indicates a network-level failure (timeout, connection, DNS, TLS).
	ErrTransportFailure = errors.New("transport failure")
	// ErrNotValidItem marks a single format descriptor that could not be resolved.
	ErrNotValidItem = errors.New("not a valid item")
	// ErrDecodeUnavailable indicates the cipher program could not be derived from the player script.
	ErrDecodeUnavailable = errors.New("decode unavailable")
)

// StatusError reports a non-200 HTTP status. It matches ErrTooManyRequests
// for 429 and ErrBadResponse otherwise.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status=%d url=%s", e.StatusCode, e.URL)
}

// Is reports whether target is the sentinel that classifies this status.
func (e *StatusError) Is(target error) bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return target == ErrTooManyRequests
	}
	return target == ErrBadResponse
}

// TransportError wraps a network-level failure. It matches ErrTransportFailure
// and unwraps to the underlying cause.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure url=%s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransportFailure }

// IsFatal reports whether err aborts a whole resolution request rather than a
// single descriptor.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNotValidItem) && !errors.Is(err, ErrDecodeUnavailable)
}
