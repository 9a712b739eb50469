package channel

import (
	"time"

	"go.uber.org/zap"
)

// Pattern accessors. Getters return the raw pattern text; the compiled form
// always comes from the process-wide cache, so changing a pattern simply
// routes subsequent operations to a fresh cache entry. Setters validate that
// the new pattern compiles and reject it as a configuration error otherwise;
// an empty value restores the documented default.

func (c *Channel) AuthTelnetLoginPattern() string {
	return c.args.AuthTelnetLoginPattern
}

func (c *Channel) SetAuthTelnetLoginPattern(value string) error {
	return c.setPattern(&c.args.AuthTelnetLoginPattern, value, DefaultTelnetLoginPattern, "auth_telnet_login_pattern")
}

func (c *Channel) AuthPasswordPattern() string {
	return c.args.AuthPasswordPattern
}

func (c *Channel) SetAuthPasswordPattern(value string) error {
	return c.setPattern(&c.args.AuthPasswordPattern, value, DefaultPasswordPattern, "auth_password_pattern")
}

func (c *Channel) AuthPassphrasePattern() string {
	return c.args.AuthPassphrasePattern
}

func (c *Channel) SetAuthPassphrasePattern(value string) error {
	return c.setPattern(&c.args.AuthPassphrasePattern, value, DefaultPassphrasePattern, "auth_passphrase_pattern")
}

func (c *Channel) CommsPromptPattern() string {
	return c.args.PromptPattern
}

func (c *Channel) SetCommsPromptPattern(value string) error {
	return c.setPattern(&c.args.PromptPattern, value, DefaultPromptPattern, "comms_prompt_pattern")
}

func (c *Channel) setPattern(field *string, value, fallback, name string) error {
	if value == "" {
		value = fallback
	}
	if _, err := Patterns().Get(value, ""); err != nil {
		return err
	}

	c.log.Debug("setting pattern", zap.String("name", name), zap.String("value", value))
	*field = value
	return nil
}

// TimeoutOps returns the per-operation time budget.
func (c *Channel) TimeoutOps() time.Duration {
	return c.args.TimeoutOps
}

// SetTimeoutOps overrides the per-operation time budget; zero or negative
// restores the default.
func (c *Channel) SetTimeoutOps(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeoutOps
	}
	c.args.TimeoutOps = d
}
