package channel

import (
	"netpilot/internal/logging"

	"go.uber.org/zap"
)

// SendInput writes one command and reads until the base prompt reappears:
// flush stale bytes, write the command, absorb the device's echo, send the
// return character, then poll-read until prompt detection fires. Returns the
// raw accumulated bytes and the cleaned-up output (prompt stripped when
// requested). The whole protocol runs under the channel lock and one
// operation timeout; the lock is released on every path, including timeout.
func (c *Channel) SendInput(input string, stripPrompt bool) (raw []byte, processed []byte, err error) {
	c.lock()
	defer c.unlock()

	c.log.Info("sending input",
		zap.String("input", logging.Truncate(input)),
		zap.Bool("strip_prompt", stripPrompt))

	deadline := c.newDeadline("send input")

	if err = c.transport.Flush(); err != nil {
		return nil, nil, err
	}
	if err = c.Write([]byte(input), false); err != nil {
		return nil, nil, err
	}
	if err = c.readUntilInput([]byte(input), deadline); err != nil {
		return nil, nil, err
	}
	if err = c.sendReturn(); err != nil {
		return nil, nil, err
	}

	raw, err = c.readUntilPrompt(nil, "", deadline)
	if err != nil {
		return nil, nil, err
	}

	processed, err = c.processOutput(raw, stripPrompt)
	if err != nil {
		return nil, nil, err
	}
	return raw, processed, nil
}
