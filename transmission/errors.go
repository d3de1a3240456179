package transmission

import (
	"fmt"

	"github.com/pkg/errors"
)

// Request failure kinds. Match them with errors.Is.
var (
	ErrUnreachable     = errors.New("daemon did not respond")
	ErrAuthRejected    = errors.New("authentication rejected")
	ErrAuthRequired    = errors.New("authentication required")
	ErrAuthIncorrect   = errors.New("username or password incorrect")
	ErrHandshakeFailed = errors.New("session handshake failed")
	ErrTokenRejected   = errors.New("session id not accepted")
	ErrTokenMissing    = errors.New("no session id in 409 response")
	ErrBadResponse     = errors.New("malformed rpc response")
	ErrInvalidArgument = errors.New("invalid argument")
)

// RequestError is returned by Execute when a call fails below the RPC
// protocol level.
type RequestError struct {
	Kind   error
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool { return target == e.Kind }

func (c *Client) fail(kind error, method string, cause error) error {
	return &RequestError{Kind: kind, Method: method, URL: c.url, Err: cause}
}

func invalidArgument(format string, args ...any) error {
	return errors.WithMessagef(ErrInvalidArgument, format, args...)
}
