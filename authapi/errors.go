package authapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Every network operation resolves to one of three outcomes: the
// endpoint explicitly rejected the request (RejectedError), no usable
// response arrived (TransportError), or a response arrived that does not
// match the contract (MalformedResponseError). Callers branch with
// errors.As / the helpers below, never on message text.

// RejectedError is an explicit 4xx rejection. Message carries the
// server's structured error string when one was present.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected (%d)", e.StatusCode)
}

// TransportError covers timeouts, connection failures and 5xx responses:
// anything where no authoritative answer was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to connect to server: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError is a response body that does not parse per the
// expected contract. User-visible handling matches TransportError.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed server response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsRejected reports whether err is an explicit endpoint rejection.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// IsUnauthorized reports whether err is a 401 rejection, the signal that
// the session has expired mid-flight.
func IsUnauthorized(err error) bool {
	var re *RejectedError
	return errors.As(err, &re) && re.StatusCode == http.StatusUnauthorized
}

// IsTransport reports whether err is a transport-level failure,
// including malformed responses which are treated identically for
// user-visible purposes.
func IsTransport(err error) bool {
	var te *TransportError
	var me *MalformedResponseError
	return errors.As(err, &te) || errors.As(err, &me)
}
