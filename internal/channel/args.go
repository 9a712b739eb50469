package channel

import (
	"fmt"
	"io"
	"time"
)

// Default patterns and tuning values. These must not drift: they are the
// documented compatibility surface for driver layers built on top.
const (
	DefaultTelnetLoginPattern = `^(.*username:)|(.*login:)\s?$`
	DefaultPasswordPattern    = `(.*@.*)?password:\s?$`
	DefaultPassphrasePattern  = `enter passphrase for key`
	DefaultPromptPattern      = `^[a-z0-9.\-@()/:]{1,32}[#>$]$`
	DefaultReturnChar         = "\n"
	DefaultPromptSearchDepth  = 1000
	DefaultTimeoutOps         = 30 * time.Second
)

// Log modes accepted by Args.ChannelLogMode.
const (
	LogModeWrite  = "write"
	LogModeAppend = "append"
)

// Args bundles channel configuration. Zero values fall back to the documented
// defaults during Validate; an invalid ChannelLogMode is a configuration
// error. Drivers normally build one Args per device session and hand it to
// New.
type Args struct {
	// Patterns are raw regex text; they are compiled lazily (and cached) so
	// they can be swapped at runtime through the channel setters.
	AuthTelnetLoginPattern string
	AuthPasswordPattern    string
	AuthPassphrasePattern  string
	PromptPattern          string

	// ReturnChar is what the channel sends to simulate pressing Enter.
	ReturnChar string

	// StripAnsi removes ANSI escape sequences from every chunk as it is
	// read. The transcript log still records the raw bytes.
	StripAnsi bool

	// PromptSearchDepth bounds how many trailing bytes of the read buffer are
	// searched per prompt-detection attempt.
	PromptSearchDepth int

	// TimeoutOps covers one whole send/read protocol, not individual reads.
	TimeoutOps time.Duration

	// ChannelLog receives every raw chunk read from the transport. Either a
	// writer supplied directly, or a file path opened during Open. Leave both
	// empty to disable the transcript.
	ChannelLog     io.Writer
	ChannelLogPath string
	ChannelLogMode string

	// ChannelLock serializes all public operations on the channel.
	ChannelLock bool
}

// Validate fills defaults for empty fields and rejects invalid values. It is
// called by New and again by every setter that touches Args.
func (a *Args) Validate() error {
	if a.AuthTelnetLoginPattern == "" {
		a.AuthTelnetLoginPattern = DefaultTelnetLoginPattern
	}
	if a.AuthPasswordPattern == "" {
		a.AuthPasswordPattern = DefaultPasswordPattern
	}
	if a.AuthPassphrasePattern == "" {
		a.AuthPassphrasePattern = DefaultPassphrasePattern
	}
	if a.PromptPattern == "" {
		a.PromptPattern = DefaultPromptPattern
	}
	if a.ReturnChar == "" {
		a.ReturnChar = DefaultReturnChar
	}
	if a.PromptSearchDepth <= 0 {
		a.PromptSearchDepth = DefaultPromptSearchDepth
	}
	if a.TimeoutOps <= 0 {
		a.TimeoutOps = DefaultTimeoutOps
	}

	if a.ChannelLogMode == "" {
		a.ChannelLogMode = LogModeWrite
	}
	if a.ChannelLogMode != LogModeWrite && a.ChannelLogMode != LogModeAppend {
		return fmt.Errorf("%w: channel log mode %q is not valid, mode must be one of: %q, %q",
			ErrConfiguration, a.ChannelLogMode, LogModeWrite, LogModeAppend)
	}

	// Compiling here surfaces a bad user-supplied regex at construction time
	// instead of in the middle of the first send.
	for _, p := range []string{
		a.AuthTelnetLoginPattern,
		a.AuthPasswordPattern,
		a.AuthPassphrasePattern,
		a.PromptPattern,
	} {
		if _, err := Patterns().Get(p, ""); err != nil {
			return err
		}
	}

	return nil
}
