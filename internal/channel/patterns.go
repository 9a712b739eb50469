package channel

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// PatternCache memoizes compiled prompt patterns keyed by the exact
// (base, override) text pair. Keying on the literal text means a changed
// pattern simply produces a fresh cache entry; stale entries are never evicted
// because key cardinality tracks configuration variety, not traffic.
type PatternCache struct {
	mu       sync.RWMutex
	compiled map[patternKey]*regexp.Regexp
}

type patternKey struct {
	base     string
	override string
}

var processPatterns = &PatternCache{compiled: make(map[patternKey]*regexp.Regexp)}

// Patterns returns the process-wide pattern cache. Entries are immutable once
// built, so sharing across channels is safe.
func Patterns() *PatternCache {
	return processPatterns
}

// Get returns the compiled matcher for the base pattern, or for the override
// when one is given.
//
// With no override the base is compiled as a case-insensitive multi-line
// regex. An override that is itself anchored (starts with `^`, ends with `$`)
// is compiled with the same flags; anything else is treated as a literal
// string to find anywhere in the output, which lets callers pass a plain
// expected substring such as "confirm?" for one-off prompts.
func (c *PatternCache) Get(base, override string) (*regexp.Regexp, error) {
	key := patternKey{base: base, override: override}

	c.mu.RLock()
	re, ok := c.compiled[key]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := compilePattern(base, override)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.compiled[key] = re
	c.mu.Unlock()

	return re, nil
}

// JoinPatterns compiles an alternation over the given pattern texts, so one
// match call can watch for several prompts at once. The result is cached
// under the joined text like any other pattern.
func JoinPatterns(patterns []string) (*regexp.Regexp, error) {
	parts := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p != "" {
			parts = append(parts, "("+p+")")
		}
	}
	return processPatterns.Get(strings.Join(parts, "|"), "")
}

func compilePattern(base, override string) (*regexp.Regexp, error) {
	if override == "" {
		re, err := regexp.Compile("(?im)" + base)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrConfiguration, base, err)
		}
		return re, nil
	}

	if strings.HasPrefix(override, "^") && strings.HasSuffix(override, "$") {
		re, err := regexp.Compile("(?im)" + override)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrConfiguration, override, err)
		}
		return re, nil
	}

	// Not a line-anchored regex: match the text verbatim, anywhere.
	return regexp.Compile("(?i)" + regexp.QuoteMeta(override))
}
