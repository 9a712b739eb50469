package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"netpilot/internal/logging"

	"github.com/ziutek/telnet"
	"go.uber.org/zap"
)

// Telnet drives a device CLI over a telnet connection. Option negotiation is
// handled by the telnet library, which refuses everything beyond echo and
// suppress-go-ahead and leaves both sides in the plain NVT mode device CLIs
// expect.
type Telnet struct {
	args Args
	log  *zap.Logger

	conn *telnet.Conn

	data    chan []byte
	readErr chan error
	done    chan struct{}

	mu        sync.Mutex
	blocking  bool
	timeout   time.Duration
	closeOnce sync.Once
}

// NewTelnet builds a telnet transport; Open establishes the connection.
func NewTelnet(args Args) *Telnet {
	if args.Port == 0 {
		args.Port = 23
	}
	return &Telnet{
		args:     args,
		log:      logging.Session(args.Host, args.Port, args.LoggingID),
		data:     make(chan []byte, 128),
		readErr:  make(chan error, 1),
		done:     make(chan struct{}),
		blocking: true,
	}
}

// Open dials the device and starts the reader goroutine.
func (t *Telnet) Open() error {
	addr := net.JoinHostPort(t.args.Host, fmt.Sprintf("%d", t.args.Port))

	var conn *telnet.Conn
	var err error
	if t.args.Timeout > 0 {
		conn, err = telnet.DialTimeout("tcp", addr, t.args.Timeout)
	} else {
		conn, err = telnet.Dial("tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to dial telnet: %w", err)
	}
	t.conn = conn

	go t.pump()

	t.log.Info("telnet connection established")
	return nil
}

// pump reads payload bytes off the connection, negotiation already stripped
// and answered by the library, and queues them for Read. It exits when the
// stream ends or the transport is closed.
func (t *Telnet) pump() {
	buf := make([]byte, 8192)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case t.data <- chunk:
			case <-t.done:
				return
			}
		}
		if err != nil {
			t.readErr <- err
			return
		}
	}
}

// Read returns the next available chunk per the current read mode.
func (t *Telnet) Read() ([]byte, error) {
	t.mu.Lock()
	blocking := t.blocking
	timeout := t.timeout
	t.mu.Unlock()

	if !blocking {
		select {
		case chunk := <-t.data:
			return chunk, nil
		case err := <-t.readErr:
			return nil, err
		case <-time.After(pollInterval):
			return nil, nil
		}
	}

	if timeout <= 0 {
		timeout = t.args.Timeout
	}
	if timeout <= 0 {
		select {
		case chunk := <-t.data:
			return chunk, nil
		case err := <-t.readErr:
			return nil, err
		}
	}

	select {
	case chunk := <-t.data:
		return chunk, nil
	case err := <-t.readErr:
		return nil, err
	case <-time.After(timeout):
		return nil, ErrReadTimeout
	}
}

// Write sends bytes; the library escapes any literal IAC on the wire.
func (t *Telnet) Write(b []byte) error {
	if t.conn == nil {
		return fmt.Errorf("telnet connection not established")
	}
	_, err := t.conn.Write(b)
	return err
}

// SetBlocking switches between blocking and poll read mode.
func (t *Telnet) SetBlocking(block bool) error {
	t.mu.Lock()
	t.blocking = block
	t.mu.Unlock()
	return nil
}

// SetTimeout bounds blocking reads; zero restores the dial timeout default.
func (t *Telnet) SetTimeout(d time.Duration) {
	t.mu.Lock()
	t.timeout = d
	t.mu.Unlock()
}

// Flush discards bytes already read off the socket but not yet consumed.
func (t *Telnet) Flush() error {
	for {
		select {
		case <-t.data:
		default:
			return nil
		}
	}
}

// Close shuts the connection down and releases the reader goroutine even when
// the read queue is full. Safe to call more than once.
func (t *Telnet) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	if t.conn != nil {
		err := t.conn.Close()
		t.conn = nil
		return err
	}
	return nil
}

func (t *Telnet) Host() string      { return t.args.Host }
func (t *Telnet) Port() int         { return t.args.Port }
func (t *Telnet) LoggingID() string { return t.args.LoggingID }
