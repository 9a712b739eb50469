package transport

import (
	"errors"
	"time"
)

// ErrReadTimeout is returned by Read when the configured read timeout expires
// before any data arrives. The channel layer maps it onto its own operation
// timeout; transports never retry on their own.
var ErrReadTimeout = errors.New("transport read timed out")

// pollInterval is how long a non-blocking Read waits for data before giving
// the caller an empty chunk back.
const pollInterval = 25 * time.Millisecond

// Transport is one character-oriented session to a device. Implementations
// own connection establishment and teardown; the channel layer only writes
// bytes, reads whatever chunks are available and toggles the read mode.
//
// In blocking mode Read waits for data (bounded by SetTimeout). In
// non-blocking mode Read returns promptly with whatever is available, possibly
// nothing, so the caller can interleave short reads with pattern matching.
type Transport interface {
	// Open establishes the session.
	Open() error

	// Close tears the session down. Safe to call more than once.
	Close() error

	// Write sends bytes to the device.
	Write(b []byte) error

	// Read returns the next available chunk.
	Read() ([]byte, error)

	// SetBlocking switches between blocking and poll read mode.
	SetBlocking(block bool) error

	// SetTimeout bounds blocking reads. Zero restores the transport default.
	SetTimeout(d time.Duration)

	// Flush discards any bytes already read from the device but not yet
	// consumed through Read.
	Flush() error

	// Connection metadata, used only to label diagnostic output.
	Host() string
	Port() int
	LoggingID() string
}

// Args holds the connection parameters shared by all transport kinds.
type Args struct {
	Host      string
	Port      int
	Username  string
	Password  string
	LoggingID string

	// PrivateKey is PEM-encoded key content; PrivateKeyPath points at a key
	// file. Content wins when both are set.
	PrivateKey     string
	PrivateKeyPath string

	// Timeout is the dial timeout and the default blocking-read timeout.
	Timeout time.Duration
}
