package logging

import "strconv"

// MaxLogFieldLength is the longest device output fragment that gets logged
// verbatim; anything longer is cut. Raw channel reads can run to megabytes
// (think "show tech"), and structured log lines should stay greppable.
const MaxLogFieldLength = 512

// Truncate shortens s to MaxLogFieldLength, appending "..." when it was cut.
func Truncate(s string) string {
	return TruncateN(s, MaxLogFieldLength)
}

// TruncateN shortens s to at most n bytes, appending "..." when it was cut.
func TruncateN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// TruncateSlice keeps at most maxItems entries and replaces the rest with a
// single "... and N more" marker.
func TruncateSlice(items []string, maxItems int) []string {
	if len(items) <= maxItems {
		return items
	}
	out := make([]string, 0, maxItems+1)
	out = append(out, items[:maxItems]...)
	out = append(out, "... and "+strconv.Itoa(len(items)-maxItems)+" more")
	return out
}
