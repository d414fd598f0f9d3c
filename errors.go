package speak

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrUnableToDecodeSession means the stored token could not be parsed into
// profile claims.
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrNoSession is returned when an operation needs a bearer token and none
// is held.
var ErrNoSession = errors.New("no active session")

// ErrChannelClosed is returned when emitting on a channel that is not open.
var ErrChannelClosed = errors.New("channel is closed")

// ErrRemoteUnavailable wraps transport-level failures with no server
// message to surface.
var ErrRemoteUnavailable = errors.New("remote service unavailable")

// genericFailureMessage is the fallback shown when the remote response
// carries no message body.
const genericFailureMessage = "request failed, please try again"

// IsMalformedTokenError will check for structural token errors
func IsMalformedTokenError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "token contains an invalid number of segments")
}

// failureMessage extracts the human readable message from an operation
// error: the remote-supplied message when present, else the generic
// network-level fallback.
func failureMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}

	if errors.Is(err, ErrRemoteUnavailable) {
		return genericFailureMessage
	}

	if msg := err.Error(); msg != "" {
		return msg
	}

	return genericFailureMessage
}
