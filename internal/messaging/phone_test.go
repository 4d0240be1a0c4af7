package messaging

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"whatsapp:+18095551234": "8095551234",
		"18095551234@c.us":      "8095551234",
		"(809) 555-1234":        "8095551234",
		"+1 809 555 1234":       "8095551234",
		"+34 612 345 678":       "34612345678",
		"":                      "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSessionKey(t *testing.T) {
	cases := map[string]string{
		"whatsapp:+18095551234": "8095551234",
		" web-session-abc ":     "web-session-abc",
		"   ":                   "",
	}
	for in, want := range cases {
		if got := SessionKey(in); got != want {
			t.Errorf("SessionKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeE164(t *testing.T) {
	if got := NormalizeE164(" +1 (809) 555-1234 "); got != "+18095551234" {
		t.Errorf("unexpected %q", got)
	}
	if got := NormalizeE164("abc"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
