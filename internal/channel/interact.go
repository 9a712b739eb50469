package channel

import (
	"fmt"

	"netpilot/internal/logging"

	"go.uber.org/zap"
)

// Stage is one step of a multi-stage exchange: write Input, wait for
// Expectation, send Response. Expectation is either an anchored regex or a
// plain substring (see PatternCache.Get). HiddenResponse marks responses the
// device will not echo, such as passwords; those are also redacted from logs.
type Stage struct {
	Input          string
	Expectation    string
	Response       string
	HiddenResponse bool
}

// SendInputsInteract drives an ordered sequence of stages plus a trailing
// finale pattern as one atomic operation: for each stage write the input,
// absorb its echo, send return, read until the stage's expectation matches,
// then send the response; after the last stage, read until the finale
// matches. Stages execute strictly in order, none skipped.
//
// An empty or hidden response is not echoed by the device, but an operator
// watching the session still sees the line break, so one return character is
// inserted into the recorded raw output just before the response bytes are
// sent. Prompt stripping is not applied to the processed output here, since
// the expectation and finale text are not the base prompt.
func (c *Channel) SendInputsInteract(stages []Stage, finale string) (raw []byte, processed []byte, err error) {
	if len(stages) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one interact stage is required", ErrInputValidation)
	}
	if finale == "" {
		return nil, nil, fmt.Errorf("%w: a finale pattern is required", ErrInputValidation)
	}

	c.lock()
	defer c.unlock()

	deadline := c.newDeadline("send inputs interact")

	if err = c.transport.Flush(); err != nil {
		return nil, nil, err
	}

	for _, stage := range stages {
		c.log.Info("interact stage",
			zap.String("input", logging.Truncate(stage.Input)),
			zap.String("expectation", logging.Truncate(stage.Expectation)),
			zap.Bool("hidden_response", stage.HiddenResponse))

		if err = c.Write([]byte(stage.Input), false); err != nil {
			return nil, nil, err
		}
		if err = c.readUntilInput([]byte(stage.Input), deadline); err != nil {
			return nil, nil, err
		}
		if err = c.sendReturn(); err != nil {
			return nil, nil, err
		}

		raw, err = c.readUntilPrompt(raw, stage.Expectation, deadline)
		if err != nil {
			return nil, nil, err
		}

		if stage.Response == "" || stage.HiddenResponse {
			raw = append(raw, []byte(c.args.ReturnChar)...)
		}
		if err = c.Write([]byte(stage.Response), stage.HiddenResponse); err != nil {
			return nil, nil, err
		}
		if err = c.sendReturn(); err != nil {
			return nil, nil, err
		}
	}

	raw, err = c.readUntilPrompt(raw, finale, deadline)
	if err != nil {
		return nil, nil, err
	}

	processed, err = c.processOutput(raw, false)
	if err != nil {
		return nil, nil, err
	}
	return raw, processed, nil
}
