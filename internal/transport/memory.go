package transport

import (
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process transport for tests: writes are recorded and handed
// to an optional script hook, reads drain whatever output the script queued.
// Chunked delivery mimics the partial reads a real session produces.
type Memory struct {
	// Handler, when set, is invoked for every write so a test can script the
	// device side (echo the input, emit output, raise a prompt).
	Handler func(m *Memory, written []byte)

	// ChunkSize caps how many bytes one Read returns. Zero means all
	// available bytes at once.
	ChunkSize int

	host      string
	port      int
	loggingID string

	mu       sync.Mutex
	readBuf  []byte
	writes   [][]byte
	blocking bool
	timeout  time.Duration
	closed   bool
}

// NewMemory builds an in-memory transport labeled with the given host.
func NewMemory(host string) *Memory {
	return &Memory{host: host, port: 22, blocking: true, timeout: 5 * time.Second}
}

func (m *Memory) Open() error { return nil }

// Close marks the transport closed. Safe to call more than once.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// QueueOutput appends device output for subsequent reads.
func (m *Memory) QueueOutput(b []byte) {
	m.mu.Lock()
	m.readBuf = append(m.readBuf, b...)
	m.mu.Unlock()
}

// Writes returns everything written so far, in order.
func (m *Memory) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

func (m *Memory) Write(b []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("transport closed")
	}
	recorded := make([]byte, len(b))
	copy(recorded, b)
	m.writes = append(m.writes, recorded)
	handler := m.Handler
	m.mu.Unlock()

	if handler != nil {
		handler(m, recorded)
	}
	return nil
}

func (m *Memory) Read() ([]byte, error) {
	m.mu.Lock()
	blocking := m.blocking
	timeout := m.timeout
	m.mu.Unlock()

	if !blocking {
		deadline := time.Now().Add(pollInterval)
		for {
			if chunk := m.take(); chunk != nil {
				return chunk, nil
			}
			if time.Now().After(deadline) {
				return nil, nil
			}
			time.Sleep(time.Millisecond)
		}
	}

	deadline := time.Now().Add(timeout)
	for {
		if chunk := m.take(); chunk != nil {
			return chunk, nil
		}
		if timeout > 0 && time.Now().After(deadline) {
			return nil, ErrReadTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

func (m *Memory) take() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.readBuf) == 0 {
		return nil
	}
	n := len(m.readBuf)
	if m.ChunkSize > 0 && n > m.ChunkSize {
		n = m.ChunkSize
	}
	chunk := make([]byte, n)
	copy(chunk, m.readBuf[:n])
	m.readBuf = m.readBuf[n:]
	return chunk
}

func (m *Memory) SetBlocking(block bool) error {
	m.mu.Lock()
	m.blocking = block
	m.mu.Unlock()
	return nil
}

func (m *Memory) SetTimeout(d time.Duration) {
	m.mu.Lock()
	if d <= 0 {
		d = 5 * time.Second
	}
	m.timeout = d
	m.mu.Unlock()
}

// Flush drops queued-but-unread output.
func (m *Memory) Flush() error {
	m.mu.Lock()
	m.readBuf = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) Host() string      { return m.host }
func (m *Memory) Port() int         { return m.port }
func (m *Memory) LoggingID() string { return m.loggingID }
