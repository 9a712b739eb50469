// Package channel implements the send/expect engine that drives interactive
// CLI sessions on network devices: buffered reads with bounded prompt
// detection, authentication-failure classification and the lock/timeout
// discipline around every operation. Transports (ssh, telnet) are external
// collaborators behind the transport.Transport interface.
package channel

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"sync"
	"time"

	"netpilot/internal/logging"
	"netpilot/internal/transport"

	"go.uber.org/zap"
)

// Channel wraps exactly one transport session. All operations run as a
// synchronous sequence of writes and reads serialized by one lock; distinct
// channels are fully independent.
type Channel struct {
	transport transport.Transport
	args      *Args
	log       *zap.Logger

	mu sync.Mutex

	channelLog     io.Writer
	channelLogFile *os.File
}

// New validates args and builds a channel over the given transport. The
// transport's lifecycle stays with the caller; Open/Close here only manage
// the transcript log.
func New(t transport.Transport, args *Args) (*Channel, error) {
	if args == nil {
		args = &Args{}
	}
	if err := args.Validate(); err != nil {
		return nil, err
	}

	return &Channel{
		transport: t,
		args:      args,
		log:       logging.Session(t.Host(), t.Port(), t.LoggingID()),
	}, nil
}

// Open acquires the transcript log sink if one is configured: either the
// writer supplied directly in Args, or a file at ChannelLogPath opened per
// ChannelLogMode.
func (c *Channel) Open() error {
	if c.args.ChannelLog != nil {
		c.channelLog = c.args.ChannelLog
		return nil
	}
	if c.args.ChannelLogPath == "" {
		return nil
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if c.args.ChannelLogMode == LogModeAppend {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(c.args.ChannelLogPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open channel log: %w", err)
	}

	c.log.Info("channel log enabled", zap.String("path", c.args.ChannelLogPath))
	c.channelLog = f
	c.channelLogFile = f
	return nil
}

// Close releases the transcript log. Idempotent.
func (c *Channel) Close() error {
	c.channelLog = nil
	if c.channelLogFile == nil {
		return nil
	}
	f := c.channelLogFile
	c.channelLogFile = nil
	return f.Close()
}

// lock/unlock guard one whole send/read protocol when channel locking is
// enabled. Callers pair them with defer so the lock survives no code path,
// including timeouts.
func (c *Channel) lock() {
	if c.args.ChannelLock {
		c.mu.Lock()
	}
}

func (c *Channel) unlock() {
	if c.args.ChannelLock {
		c.mu.Unlock()
	}
}

// read pulls one chunk off the transport, mirrors it to the transcript log
// and returns it. Every raw read across every operation passes through here.
func (c *Channel) read() ([]byte, error) {
	chunk, err := c.transport.Read()
	if err != nil {
		return nil, err
	}
	if len(chunk) == 0 {
		return nil, nil
	}

	c.log.Debug("read", zap.String("output", logging.Truncate(string(chunk))))

	if c.channelLog != nil {
		if _, err := c.channelLog.Write(chunk); err != nil {
			c.log.Warn("failed to write to channel log", zap.Error(err))
		}
	}

	if c.args.StripAnsi {
		chunk = StripANSI(chunk)
	}
	return chunk, nil
}

// Write sends bytes to the device. With redacted set the payload is kept out
// of the logs (passwords, passphrases).
func (c *Channel) Write(input []byte, redacted bool) error {
	logged := string(input)
	if redacted {
		logged = "REDACTED"
	}
	c.log.Debug("write", zap.String("input", logging.Truncate(logged)))

	return c.transport.Write(input)
}

// WriteAndReturn writes the payload followed by the return character.
func (c *Channel) WriteAndReturn(input []byte, redacted bool) error {
	if err := c.Write(input, redacted); err != nil {
		return err
	}
	return c.sendReturn()
}

// sendReturn simulates pressing Enter. It diverges from the flush-then-write
// sequence SendInput uses for the command itself: no flush happens here,
// since mid-protocol the transport may already hold output the operation
// still has to read.
func (c *Channel) sendReturn() error {
	return c.Write([]byte(c.args.ReturnChar), false)
}

// searchWindow returns the slice of buf that prompt detection may examine:
// the trailing PromptSearchDepth bytes, advanced past the first newline so
// the window never starts mid-line. A mid-line window start would let a
// prompt-shaped fragment at an arbitrary offset match. A prompt that scrolled
// out of the window is legitimately missed; that is the cost of keeping
// per-read matching independent of total accumulated output.
func (c *Channel) searchWindow(buf []byte) []byte {
	if len(buf) > c.args.PromptSearchDepth {
		buf = buf[len(buf)-c.args.PromptSearchDepth:]
	}

	before, after, found := bytes.Cut(buf, []byte("\n"))
	if !found || len(after) == 0 {
		// No newline in the window, or nothing after it.
		return before
	}
	return after
}

// findPrompt reports whether the pattern matches within the bounded search
// window of buf.
func (c *Channel) findPrompt(buf []byte, pattern *regexp.Regexp) bool {
	return pattern.Match(c.searchWindow(buf))
}

// promptPattern returns the compiled matcher for the current base prompt, or
// for the override pattern when one is given.
func (c *Channel) promptPattern(override string) (*regexp.Regexp, error) {
	return Patterns().Get(c.args.PromptPattern, override)
}

// operationDeadline tracks the single timeout that covers one whole protocol.
type operationDeadline struct {
	op    string
	start time.Time
	until time.Time
}

func (c *Channel) newDeadline(op string) *operationDeadline {
	now := time.Now()
	return &operationDeadline{op: op, start: now, until: now.Add(c.args.TimeoutOps)}
}

// expired returns the timeout failure once the budget is spent, nil before.
func (d *operationDeadline) expired(pattern string) error {
	if time.Now().Before(d.until) {
		return nil
	}
	return &TimeoutError{Op: d.op, Pattern: pattern, Elapsed: time.Since(d.start)}
}

func (d *operationDeadline) remaining() time.Duration {
	r := time.Until(d.until)
	if r <= 0 {
		// Tiny positive value so transports treat it as a bound, not "use
		// the default".
		r = time.Millisecond
	}
	return r
}

// readUntilInput reads (blocking) until the just-written bytes appear
// verbatim, absorbing the device's echo of the input line. The echoed bytes
// are consumed and discarded; command output begins after the return char.
func (c *Channel) readUntilInput(input []byte, deadline *operationDeadline) error {
	if len(input) == 0 {
		return nil
	}

	var buf []byte
	for !bytes.Contains(buf, input) {
		if err := deadline.expired(""); err != nil {
			return err
		}
		c.transport.SetTimeout(deadline.remaining())
		chunk, err := c.read()
		if err != nil {
			if err == transport.ErrReadTimeout {
				return &TimeoutError{Op: deadline.op, Elapsed: time.Since(deadline.start)}
			}
			return err
		}
		buf = append(buf, chunk...)
	}
	c.transport.SetTimeout(0)
	return nil
}

// readUntilPrompt appends poll-mode reads onto buf until the pattern (the
// base prompt, or an override) matches inside the search window, then
// restores blocking mode.
func (c *Channel) readUntilPrompt(buf []byte, override string, deadline *operationDeadline) ([]byte, error) {
	pattern, err := c.promptPattern(override)
	if err != nil {
		return buf, err
	}

	// Poll mode: the loop must interleave short reads with pattern
	// re-evaluation instead of stalling on one blocking read.
	// Earlier reads may have pulled the awaited text in already, together
	// with the output that preceded it.
	if len(buf) > 0 && c.findPrompt(buf, pattern) {
		return buf, nil
	}

	if err := c.transport.SetBlocking(false); err != nil {
		return buf, err
	}
	defer c.transport.SetBlocking(true)

	for {
		if err := deadline.expired(pattern.String()); err != nil {
			return buf, err
		}
		chunk, err := c.read()
		if err != nil {
			return buf, err
		}
		if len(chunk) == 0 {
			continue
		}
		buf = append(buf, chunk...)
		if c.findPrompt(buf, pattern) {
			return buf, nil
		}
	}
}

// GetPrompt sends the return character and reads until the full prompt
// pattern matches, returning exactly the matched text, trimmed, never the
// surrounding buffer. Unlike the in-protocol detection this matches the
// unbounded pattern against everything read, with no search window.
func (c *Channel) GetPrompt() (string, error) {
	c.lock()
	defer c.unlock()

	pattern, err := c.promptPattern("")
	if err != nil {
		return "", err
	}

	deadline := c.newDeadline("get prompt")

	if err := c.transport.Flush(); err != nil {
		return "", err
	}
	if err := c.Write([]byte(c.args.ReturnChar), false); err != nil {
		return "", err
	}

	var buf []byte
	for {
		if err := deadline.expired(pattern.String()); err != nil {
			return "", err
		}
		c.transport.SetTimeout(deadline.remaining())
		chunk, err := c.read()
		if err != nil {
			if err == transport.ErrReadTimeout {
				return "", &TimeoutError{Op: deadline.op, Pattern: pattern.String(), Elapsed: time.Since(deadline.start)}
			}
			return "", err
		}
		buf = append(buf, chunk...)

		if match := pattern.Find(bytes.TrimSpace(buf)); match != nil {
			c.transport.SetTimeout(0)
			return string(bytes.TrimSpace(match)), nil
		}
	}
}

// processOutput runs the output cleanup over a raw buffer using the active
// prompt pattern.
func (c *Channel) processOutput(buf []byte, stripPrompt bool) ([]byte, error) {
	pattern, err := c.promptPattern("")
	if err != nil {
		return nil, err
	}
	return restructureOutput(buf, pattern, c.args.ReturnChar, stripPrompt), nil
}
