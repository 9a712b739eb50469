package channel

import (
	"errors"
	"testing"
	"time"
)

func TestPatternSetters(t *testing.T) {
	ch, _ := newTestChannel(t, nil)

	if err := ch.SetCommsPromptPattern(`^core-rtr\d+[#>]$`); err != nil {
		t.Fatalf("SetCommsPromptPattern() error: %v", err)
	}
	if got := ch.CommsPromptPattern(); got != `^core-rtr\d+[#>]$` {
		t.Errorf("CommsPromptPattern() = %q", got)
	}

	// Empty restores the default.
	if err := ch.SetCommsPromptPattern(""); err != nil {
		t.Fatalf("SetCommsPromptPattern(\"\") error: %v", err)
	}
	if got := ch.CommsPromptPattern(); got != DefaultPromptPattern {
		t.Errorf("expected default pattern restored, got %q", got)
	}

	if err := ch.SetAuthPasswordPattern(`(?i)passcode:\s?$`); err != nil {
		t.Fatalf("SetAuthPasswordPattern() error: %v", err)
	}
	if got := ch.AuthPasswordPattern(); got != `(?i)passcode:\s?$` {
		t.Errorf("AuthPasswordPattern() = %q", got)
	}

	if err := ch.SetAuthTelnetLoginPattern(""); err != nil {
		t.Fatalf("SetAuthTelnetLoginPattern(\"\") error: %v", err)
	}
	if got := ch.AuthTelnetLoginPattern(); got != DefaultTelnetLoginPattern {
		t.Errorf("AuthTelnetLoginPattern() = %q", got)
	}

	if err := ch.SetAuthPassphrasePattern(""); err != nil {
		t.Fatalf("SetAuthPassphrasePattern(\"\") error: %v", err)
	}
	if got := ch.AuthPassphrasePattern(); got != DefaultPassphrasePattern {
		t.Errorf("AuthPassphrasePattern() = %q", got)
	}
}

func TestPatternSetterRejectsBadRegex(t *testing.T) {
	ch, _ := newTestChannel(t, nil)
	before := ch.CommsPromptPattern()

	err := ch.SetCommsPromptPattern(`([`)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if got := ch.CommsPromptPattern(); got != before {
		t.Errorf("pattern changed despite rejection: %q", got)
	}
}

func TestTimeoutOpsSetter(t *testing.T) {
	ch, _ := newTestChannel(t, nil)

	ch.SetTimeoutOps(7 * time.Second)
	if got := ch.TimeoutOps(); got != 7*time.Second {
		t.Errorf("TimeoutOps() = %v", got)
	}

	ch.SetTimeoutOps(0)
	if got := ch.TimeoutOps(); got != DefaultTimeoutOps {
		t.Errorf("expected default restored, got %v", got)
	}

	ch.SetTimeoutOps(-time.Second)
	if got := ch.TimeoutOps(); got != DefaultTimeoutOps {
		t.Errorf("expected default for negative value, got %v", got)
	}
}
