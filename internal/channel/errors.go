package channel

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the failure kinds callers branch on. Concrete errors
// returned by the channel wrap one of these, so `errors.Is` works across the
// whole package.
var (
	// ErrConfiguration indicates an invalid configuration value; raised at
	// construction or setter time, never mid-operation.
	ErrConfiguration = errors.New("invalid channel configuration")

	// ErrInputValidation indicates a malformed argument to a send operation.
	ErrInputValidation = errors.New("invalid channel input")

	// ErrOperationTimeout indicates a send/read protocol exceeded its time
	// budget. The channel lock is always released before this propagates.
	ErrOperationTimeout = errors.New("channel operation timed out")

	// ErrAuthenticationFailed indicates the in-channel authentication read
	// loop matched a known failure message.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// TimeoutError reports which operation timed out, what pattern it was waiting
// for and how long it waited, so a "device never prompted" timeout can be told
// apart from other failures.
type TimeoutError struct {
	Op      string
	Pattern string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("%s: %s after %v", e.Op, ErrOperationTimeout, e.Elapsed)
	}
	return fmt.Sprintf("%s: %s after %v waiting for pattern %q", e.Op, ErrOperationTimeout, e.Elapsed, e.Pattern)
}

func (e *TimeoutError) Unwrap() error { return ErrOperationTimeout }

// AuthError carries the classified authentication failure message.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAuthenticationFailed, e.Message)
}

func (e *AuthError) Unwrap() error { return ErrAuthenticationFailed }
