package messaging

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRequestTimeout is returned when no reply arrives within the
	// request ceiling. The worker may still process the message; its
	// late reply is discarded.
	ErrRequestTimeout = errors.New("messaging: request timeout")

	// ErrClosed is returned when the registry has been shut down.
	ErrClosed = errors.New("messaging: registry is closed")
)

// TimeoutError carries the route of a timed-out command.
type TimeoutError struct {
	Destination string
	Pattern     string
	Timeout     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("messaging: no reply from %s for %q within %v", e.Destination, e.Pattern, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return ErrRequestTimeout
}
