package channel

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// maxAuthPromptCount bounds how often the same credential prompt may reappear
// before authentication is declared failed; a third prompt means the device
// rejected what we sent twice already.
const maxAuthPromptCount = 2

// AuthenticateSSH drives in-channel ssh authentication: read the
// pre-authentication output, feed every accumulated chunk to the failure
// classifier, answer password and passphrase prompts, and return once the
// base prompt appears. Credentials never reach the logs.
func (c *Channel) AuthenticateSSH(password, passphrase string) error {
	c.lock()
	defer c.unlock()

	passwordPattern, err := Patterns().Get(c.args.AuthPasswordPattern, "")
	if err != nil {
		return err
	}
	passphrasePattern, err := Patterns().Get(c.args.AuthPassphrasePattern, "")
	if err != nil {
		return err
	}
	promptPattern, err := c.promptPattern("")
	if err != nil {
		return err
	}

	deadline := c.newDeadline("authenticate ssh")

	if err := c.transport.SetBlocking(false); err != nil {
		return err
	}
	defer c.transport.SetBlocking(true)

	var buf []byte
	passwordCount := 0
	passphraseCount := 0

	for {
		if err := deadline.expired(promptPattern.String()); err != nil {
			return err
		}

		chunk, err := c.read()
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			continue
		}
		buf = append(buf, chunk...)

		if err := ClassifyAuthOutput(buf); err != nil {
			c.log.Error("authentication failed", zap.Error(err))
			return err
		}

		switch {
		case passwordPattern.Match(buf):
			passwordCount++
			if passwordCount > maxAuthPromptCount {
				return &AuthError{Message: "password prompt seen more than twice, assuming authentication failed"}
			}
			// Reset the buffer so re-matching requires a fresh prompt.
			buf = nil
			if err := c.WriteAndReturn([]byte(password), true); err != nil {
				return err
			}

		case passphrasePattern.Match(buf):
			passphraseCount++
			if passphraseCount > maxAuthPromptCount {
				return &AuthError{Message: "passphrase prompt seen more than twice, assuming authentication failed"}
			}
			buf = nil
			if err := c.WriteAndReturn([]byte(passphrase), true); err != nil {
				return err
			}

		case c.findPrompt(buf, promptPattern):
			return nil
		}
	}
}

// AuthenticateTelnet drives in-channel telnet authentication: wait for the
// login prompt, send the username, wait for the password prompt, send the
// password, and return once the base prompt appears. Some terminal servers
// stay silent until they are kicked, so while nothing has arrived a return
// character is sent at one tenth of the operation timeout.
func (c *Channel) AuthenticateTelnet(username, password string) error {
	c.lock()
	defer c.unlock()

	loginPattern, err := Patterns().Get(c.args.AuthTelnetLoginPattern, "")
	if err != nil {
		return err
	}
	passwordPattern, err := Patterns().Get(c.args.AuthPasswordPattern, "")
	if err != nil {
		return err
	}
	promptPattern, err := c.promptPattern("")
	if err != nil {
		return err
	}

	deadline := c.newDeadline("authenticate telnet")
	returnInterval := c.args.TimeoutOps / 10
	lastKick := time.Now()

	if err := c.transport.SetBlocking(false); err != nil {
		return err
	}
	defer c.transport.SetBlocking(true)

	var buf []byte
	sawOutput := false
	loginCount := 0
	passwordCount := 0

	for {
		if err := deadline.expired(promptPattern.String()); err != nil {
			return err
		}

		chunk, err := c.read()
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			if !sawOutput && time.Since(lastKick) > returnInterval {
				if err := c.Write([]byte(c.args.ReturnChar), false); err != nil {
					return err
				}
				lastKick = time.Now()
			}
			continue
		}
		sawOutput = true
		buf = append(buf, chunk...)

		switch {
		case loginPattern.Match(buf):
			loginCount++
			if loginCount > maxAuthPromptCount {
				return &AuthError{Message: "login prompt seen more than twice, assuming authentication failed"}
			}
			buf = nil
			if err := c.WriteAndReturn([]byte(username), false); err != nil {
				return err
			}

		case passwordPattern.Match(buf):
			passwordCount++
			if passwordCount > maxAuthPromptCount {
				return &AuthError{Message: "password prompt seen more than twice, assuming authentication failed"}
			}
			buf = nil
			if err := c.WriteAndReturn([]byte(password), true); err != nil {
				return err
			}

		case c.findPrompt(buf, promptPattern):
			return nil
		}
	}
}

// ReadUntilAnyPrompt reads until any of the given patterns matches inside the
// search window, returning everything read. Useful to drivers watching for
// several possible privilege-level prompts at once.
func (c *Channel) ReadUntilAnyPrompt(patterns []string) ([]byte, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: at least one pattern is required", ErrInputValidation)
	}

	joined, err := JoinPatterns(patterns)
	if err != nil {
		return nil, err
	}

	c.lock()
	defer c.unlock()

	deadline := c.newDeadline("read until any prompt")

	if err := c.transport.SetBlocking(false); err != nil {
		return nil, err
	}
	defer c.transport.SetBlocking(true)

	var buf []byte
	for {
		if err := deadline.expired(joined.String()); err != nil {
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
		if c.findPrompt(buf, joined) {
			return buf, nil
		}
	}
}
