package channel

import (
	"bytes"
	"regexp"
)

// Detail patterns companion to some classifier rules; they pull the offered
// algorithm list or the offending option names out of the ssh error text.
var (
	theirOfferPattern = regexp.MustCompile(`(?im)their offer: ([a-z0-9\-,]*)`)
	badOptionPattern  = regexp.MustCompile(`(?im)bad configuration option: ([a-z0-9+=,]*)`)
)

// authRule maps a substring of raw authentication-phase output to a
// human-readable failure message. Rules are ordered; the first match wins.
type authRule struct {
	contains []string
	message  string
	detail   *regexp.Regexp
	prefix   string
	// verbatim reports the raw output itself instead of a canned message.
	verbatim bool
	// caseSensitive disables the default lowercase comparison.
	caseSensitive bool
}

var authRules = []authRule{
	{contains: []string{"host key verification failed"},
		message: "Host key verification failed"},
	{contains: []string{"operation timed out", "connection timed out"},
		message: "Timed out connecting to host"},
	{contains: []string{"no route to host"},
		message: "No route to host"},
	{contains: []string{"no matching host key"},
		message: "No matching host key type found for host",
		detail:  theirOfferPattern, prefix: ", their offer: "},
	{contains: []string{"no matching key exchange"},
		message: "No matching key exchange found for host",
		detail:  theirOfferPattern, prefix: ", their offer: "},
	{contains: []string{"no matching cipher"},
		message: "No matching cipher found for host",
		detail:  theirOfferPattern, prefix: ", their offer: "},
	{contains: []string{"bad configuration"},
		message: "Bad SSH configuration option(s) for host",
		detail:  badOptionPattern, prefix: ", bad option(s): "},
	{contains: []string{"WARNING: UNPROTECTED PRIVATE KEY FILE!"},
		message:       "Permissions for private key are too open, authentication failed!",
		caseSensitive: true},
	{contains: []string{"could not resolve hostname"},
		message: "Could not resolve address for host"},
	{contains: []string{"permission denied"},
		verbatim: true},
}

// ClassifyAuthOutput checks raw pre-authentication output against the known
// ssh failure messages and returns an *AuthError for the first rule that
// matches. A nil return is not success; it just means nothing recognizable
// was seen yet and the caller's timeout keeps governing.
func ClassifyAuthOutput(output []byte) error {
	lowered := bytes.ToLower(output)

	for _, rule := range authRules {
		haystack := lowered
		if rule.caseSensitive {
			haystack = output
		}

		matched := false
		for _, needle := range rule.contains {
			n := needle
			if !rule.caseSensitive {
				n = string(bytes.ToLower([]byte(needle)))
			}
			if bytes.Contains(haystack, []byte(n)) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		msg := rule.message
		if rule.verbatim {
			msg = string(output)
		}
		if rule.detail != nil {
			if m := rule.detail.FindSubmatch(output); m != nil {
				msg += rule.prefix + string(m[1])
			}
		}
		return &AuthError{Message: msg}
	}

	return nil
}
