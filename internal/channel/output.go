package channel

import (
	"bytes"
	"regexp"
)

// ansiEscapePattern matches ANSI CSI and OSC escape sequences: an ESC or
// single-shift lead byte, optional bracket/parenthesis/hash/semicolon/question
// modifiers, then either a bell-terminated OSC body or a CSI body ending in a
// conventional final byte.
var ansiEscapePattern = regexp.MustCompile(
	"[\x1b]" +
		`[\[\]()#;?]*` +
		`(` +
		"(([a-zA-Z0-9]*(;[a-zA-Z0-9]*)*)?\x07)" +
		`|` +
		`((\d{1,4}(;\d{0,4})*)?[\dA-PRZcf-ntqry=><~])` +
		`)`,
)

// StripANSI removes ANSI escape sequences from device output. Idempotent: no
// valid escape sequence contains another sequence's terminator, so a second
// pass finds nothing new.
func StripANSI(buf []byte) []byte {
	return ansiEscapePattern.ReplaceAll(buf, nil)
}

// restructureOutput cleans up a raw read buffer: right-trims every line,
// optionally removes prompt matches, then drops the leading return characters
// left over from the device echoing the input line.
func restructureOutput(buf []byte, promptPattern *regexp.Regexp, returnChar string, stripPrompt bool) []byte {
	lines := bytes.Split(buf, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t\r")
	}
	buf = bytes.Join(lines, []byte("\n"))

	if stripPrompt {
		buf = promptPattern.ReplaceAll(buf, nil)
	}

	buf = bytes.TrimLeft(buf, returnChar)
	buf = bytes.TrimRight(buf, " \t\r\n")
	return buf
}
