package channel

import (
	"errors"
	"testing"
)

func TestClassifyAuthOutput(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   string
	}{
		{
			"host key verification",
			"Host key verification failed.",
			"Host key verification failed",
		},
		{
			"operation timed out",
			"ssh: connect to host 10.0.0.1 port 22: Operation timed out",
			"Timed out connecting to host",
		},
		{
			"connection timed out",
			"ssh: connect to host 10.0.0.1 port 22: Connection timed out",
			"Timed out connecting to host",
		},
		{
			"no route to host",
			"ssh: connect to host 10.0.0.1 port 22: No route to host",
			"No route to host",
		},
		{
			"no matching host key with offer",
			"Unable to negotiate with 10.0.0.1 port 22: no matching host key type found. Their offer: ssh-dss",
			"No matching host key type found for host, their offer: ssh-dss",
		},
		{
			"no matching key exchange with offer",
			"Unable to negotiate with 10.0.0.1 port 22: no matching key exchange method found. Their offer: diffie-hellman-group1-sha1",
			"No matching key exchange found for host, their offer: diffie-hellman-group1-sha1",
		},
		{
			"no matching cipher with offer",
			"Unable to negotiate with 10.0.0.1 port 22: no matching cipher found. Their offer: aes128-cbc,aes256-cbc",
			"No matching cipher found for host, their offer: aes128-cbc,aes256-cbc",
		},
		{
			"bad configuration option",
			"command-line line 0: Bad configuration option: ciphers+",
			"Bad SSH configuration option(s) for host, bad option(s): ciphers+",
		},
		{
			"could not resolve",
			"ssh: Could not resolve hostname bogus.invalid: Name or service not known",
			"Could not resolve address for host",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ClassifyAuthOutput([]byte(tc.output))
			if err == nil {
				t.Fatalf("expected classification for %q", tc.output)
			}
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *AuthError, got %T", err)
			}
			if authErr.Message != tc.want {
				t.Errorf("message = %q, want %q", authErr.Message, tc.want)
			}
			if !errors.Is(err, ErrAuthenticationFailed) {
				t.Error("expected error to wrap the authentication sentinel")
			}
		})
	}
}

func TestClassifyAuthOutputPermissionDeniedVerbatim(t *testing.T) {
	output := "admin@10.0.0.1: Permission denied (publickey,password)."
	err := ClassifyAuthOutput([]byte(output))
	if err == nil {
		t.Fatal("expected classification")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if authErr.Message != output {
		t.Errorf("expected verbatim output as message, got %q", authErr.Message)
	}
}

func TestClassifyAuthOutputPriority(t *testing.T) {
	// Both rules present: the earlier rule must win regardless of the
	// order the substrings appear in the output.
	output := "Permission denied, then later: no route to host"
	err := ClassifyAuthOutput([]byte(output))
	if err == nil {
		t.Fatal("expected classification")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if authErr.Message != "No route to host" {
		t.Errorf("expected earlier rule to win, got %q", authErr.Message)
	}
}

func TestClassifyAuthOutputUnprotectedKeyCaseSensitive(t *testing.T) {
	upper := "@@@@@@@@@@@@\nWARNING: UNPROTECTED PRIVATE KEY FILE!\n@@@@@@@@@@@@"
	err := ClassifyAuthOutput([]byte(upper))
	if err == nil {
		t.Fatal("expected classification for uppercase warning")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if authErr.Message != "Permissions for private key are too open, authentication failed!" {
		t.Errorf("unexpected message %q", authErr.Message)
	}

	lower := "warning: unprotected private key file!"
	if err := ClassifyAuthOutput([]byte(lower)); err != nil {
		t.Errorf("expected lowercase warning not to classify, got %v", err)
	}
}

func TestClassifyAuthOutputNoMatch(t *testing.T) {
	for _, output := range []string{
		"",
		"Last login: Mon Jan 5 10:00:00 2026 from 10.0.0.5",
		"router1#",
	} {
		if err := ClassifyAuthOutput([]byte(output)); err != nil {
			t.Errorf("ClassifyAuthOutput(%q) = %v, want nil", output, err)
		}
	}
}
